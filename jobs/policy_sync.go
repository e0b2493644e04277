package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fleetops/fleetops/internal/rbac"
)

// PolicyPublisher stores a policy document where web nodes read it.
type PolicyPublisher interface {
	Publish(ctx context.Context, doc rbac.Document) error
}

// JobRecorder receives the outcome of each job run.
type JobRecorder interface {
	JobFinished(task string, err error)
}

// PolicySyncJob reads the authoritative policy and publishes it.
type PolicySyncJob struct {
	Source    rbac.Source
	Publisher PolicyPublisher
	Logger    *slog.Logger
	Metrics   JobRecorder
}

// NewPolicySyncJob wires dependencies for the sync handler.
func NewPolicySyncJob(source rbac.Source, publisher PolicyPublisher, logger *slog.Logger, metrics JobRecorder) *PolicySyncJob {
	return &PolicySyncJob{Source: source, Publisher: publisher, Logger: logger, Metrics: metrics}
}

// Handle processes TaskPolicySync tasks. A document that does not compile
// is never published and is not retried.
func (j *PolicySyncJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil || j.Publisher == nil {
		return errors.New("policy sync: handler not configured")
	}
	var payload PolicySyncPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("policy sync: decode payload: %w", asynq.SkipRetry)
		}
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.JobFinished(TaskPolicySync, resultErr)
		}
	}()

	logger := j.logger().With(
		slog.String("source", j.Source.Name()),
		slog.String("reason", payload.Reason),
		slog.String("requested_by", payload.RequestedBy),
	)

	doc, err := j.Source.Fetch(ctx)
	if err != nil {
		logger.Error("policy sync fetch", slog.Any("error", err))
		return fmt.Errorf("policy sync: fetch: %w", err)
	}
	pol, err := rbac.NewPolicy(doc, j.Source.Name())
	if err != nil {
		logger.Error("policy sync rejected document", slog.Any("error", err))
		return fmt.Errorf("policy sync: %v: %w", err, asynq.SkipRetry)
	}
	if err := j.Publisher.Publish(ctx, pol.Document()); err != nil {
		logger.Error("policy sync publish", slog.Any("error", err))
		return fmt.Errorf("policy sync: publish: %w", err)
	}
	logger.Info("policy synced", slog.Int("roles", len(pol.Roles())))
	return nil
}

func (j *PolicySyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
