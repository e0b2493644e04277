// Package web carries the navigation shell's templates and assets.
package web

import "embed"

// Templates embeds the shell's HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds stylesheets served under /static/.
//
//go:embed static/**/*
var Static embed.FS
