// Package cli implements the policyctl subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/screens"
)

// Exit codes shared by the subcommands.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitProblems = 10
)

// CheckOptions defines available flags for the check command.
type CheckOptions struct {
	File       string
	Strict     bool
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// CheckSummary is the JSON shape of a check run.
type CheckSummary struct {
	OK         bool            `json:"ok"`
	Source     string          `json:"source"`
	Errors     []string        `json:"errors"`
	Warnings   []string        `json:"warnings"`
	Mismatches []rbac.Mismatch `json:"mismatches"`
}

// CheckCommand validates a policy document against the role enumeration,
// the permission grammar, the menu declaration and the screen catalog. It
// returns ExitProblems when errors are found, or when mismatches are found
// and Strict is set.
func CheckCommand(ctx context.Context, opts CheckOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var source rbac.Source = rbac.NewStaticSource(nil)
	if opts.File != "" {
		source = rbac.FileSource{Path: opts.File}
	}
	doc, err := source.Fetch(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "policy check: %v\n", err)
		return ExitUsage
	}

	summary := runCheck(doc, source.Name())
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "policy check: encode json: %v\n", err)
			return ExitUsage
		}
	} else {
		renderCheckHuman(opts.Stdout, summary)
	}

	if !summary.OK || (opts.Strict && len(summary.Mismatches) > 0) {
		return ExitProblems
	}
	return ExitOK
}

func runCheck(doc rbac.Document, source string) CheckSummary {
	menu := rbac.DefaultMenu()
	report := rbac.ValidateDocument(doc, menu)
	summary := CheckSummary{
		Source:     source,
		Errors:     append([]string{}, report.Errors...),
		Warnings:   append([]string{}, report.Warnings...),
		Mismatches: []rbac.Mismatch{},
	}
	if err := rbac.ValidateMenu(menu); err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	}
	if len(summary.Errors) == 0 {
		pol, err := rbac.NewPolicy(doc, source)
		if err != nil {
			summary.Errors = append(summary.Errors, err.Error())
		} else if found := rbac.CheckConsistency(pol, screens.Routes(), menu); len(found) > 0 {
			summary.Mismatches = found
		}
	}
	summary.OK = len(summary.Errors) == 0
	return summary
}

func renderCheckHuman(w io.Writer, s CheckSummary) {
	_, _ = fmt.Fprintf(w, "policy source: %s\n", s.Source)
	for _, e := range s.Errors {
		_, _ = fmt.Fprintf(w, "ERROR   %s\n", e)
	}
	for _, warn := range s.Warnings {
		_, _ = fmt.Fprintf(w, "WARN    %s\n", warn)
	}
	for _, m := range s.Mismatches {
		_, _ = fmt.Fprintf(w, "MISMATCH %s\n", m)
	}
	if s.OK {
		_, _ = fmt.Fprintf(w, "ok: %d warnings, %d route/menu mismatches\n", len(s.Warnings), len(s.Mismatches))
		return
	}
	_, _ = fmt.Fprintf(w, "failed: %d errors\n", len(s.Errors))
}
