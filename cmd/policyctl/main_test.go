package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetops/fleetops/cmd/policyctl/cli"
)

func TestRunDispatch(t *testing.T) {
	cases := []struct {
		name string
		args []string
		code int
	}{
		{name: "no command", code: cli.ExitUsage},
		{name: "unknown command", args: []string{"apply"}, code: cli.ExitUsage},
		{name: "help", args: []string{"help"}, code: cli.ExitOK},
		{name: "check default", args: []string{"check"}, code: cli.ExitOK},
		{name: "check strict", args: []string{"check", "--strict", "--json"}, code: cli.ExitProblems},
		{name: "bad flag", args: []string{"check", "--bogus"}, code: cli.ExitUsage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tc.code, run(context.Background(), tc.args, &stdout, &stderr))
		})
	}
}
