// policyctl checks policy documents before they ship and asks the worker to
// resync the published policy.
//
//	policyctl check [--file policy.yaml] [--strict] [--json]
//	policyctl sync [--reason text] [--user name]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/fleetops/fleetops/cmd/policyctl/cli"
	"github.com/fleetops/fleetops/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return cli.ExitUsage
	}
	switch args[0] {
	case "check":
		return runCheck(ctx, args[1:], stdout, stderr)
	case "sync":
		return runSync(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return cli.ExitOK
	default:
		_, _ = fmt.Fprintf(stderr, "policyctl: unknown command %q\n", args[0])
		usage(stderr)
		return cli.ExitUsage
	}
}

func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := cli.CheckOptions{Stdout: stdout, Stderr: stderr}
	flags := pflag.NewFlagSet("policyctl check", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.File, "file", "f", "", "YAML or JSON policy document (default: compiled-in matrix)")
	flags.BoolVar(&opts.Strict, "strict", false, "fail on route/menu mismatches")
	flags.BoolVar(&opts.JSONOutput, "json", false, "print the result as JSON")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return cli.ExitOK
		}
		return cli.ExitUsage
	}
	return cli.CheckCommand(ctx, opts)
}

func runSync(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := cli.SyncOptions{Stdout: stdout, Stderr: stderr}
	var redisAddr, redisPassword string
	var redisDB int
	flags := pflag.NewFlagSet("policyctl sync", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.Reason, "reason", "manual", "why the sync was requested")
	flags.StringVar(&opts.User, "user", os.Getenv("USER"), "who requested the sync")
	flags.StringVar(&redisAddr, "redis-addr", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address of the job queue")
	flags.StringVar(&redisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "redis password")
	flags.IntVar(&redisDB, "redis-db", 0, "redis database")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return cli.ExitOK
		}
		return cli.ExitUsage
	}

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "policy sync: %v\n", err)
		return cli.ExitUsage
	}
	defer func() { _ = client.Close() }()
	return cli.SyncCommand(ctx, cli.JobsEnqueuer{Client: client}, opts)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: policyctl <check|sync> [flags]")
}
