package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fleetops/fleetops/jobs"
)

// Enqueuer submits policy sync jobs.
type Enqueuer interface {
	EnqueuePolicySync(ctx context.Context, payload jobs.PolicySyncPayload) (string, error)
}

// JobsEnqueuer adapts jobs.Client to Enqueuer.
type JobsEnqueuer struct {
	Client *jobs.Client
}

// EnqueuePolicySync returns the task id, or an empty id when a sync was
// already queued.
func (e JobsEnqueuer) EnqueuePolicySync(ctx context.Context, payload jobs.PolicySyncPayload) (string, error) {
	if e.Client == nil {
		return "", errors.New("jobs client not configured")
	}
	info, err := e.Client.EnqueuePolicySync(ctx, payload)
	if err != nil || info == nil {
		return "", err
	}
	return info.ID, nil
}

// SyncOptions defines available flags for the sync command.
type SyncOptions struct {
	Reason string
	User   string
	Stdout io.Writer
	Stderr io.Writer
}

// SyncCommand asks the worker to publish the database policy.
func SyncCommand(ctx context.Context, q Enqueuer, opts SyncOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	id, err := q.EnqueuePolicySync(ctx, jobs.PolicySyncPayload{Reason: opts.Reason, RequestedBy: opts.User})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "policy sync: %v\n", err)
		return ExitUsage
	}
	if id == "" {
		_, _ = fmt.Fprintln(opts.Stdout, "policy sync already queued")
		return ExitOK
	}
	_, _ = fmt.Fprintf(opts.Stdout, "policy sync queued: %s\n", id)
	return ExitOK
}
