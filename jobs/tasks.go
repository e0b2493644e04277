package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPolicySync copies the database policy into the redis policy key
	// and tells every web node to reload.
	TaskPolicySync = "rbac:policy_sync"
)

// PolicySyncPayload describes why a sync was requested.
type PolicySyncPayload struct {
	Reason      string `json:"reason,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewPolicySyncTask constructs an Asynq task. Syncs are idempotent, so only
// one may sit in the queue at a time.
func NewPolicySyncTask(payload PolicySyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPolicySync, data, asynq.MaxRetry(3), asynq.Unique(5*time.Minute)), nil
}
