package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductionWarmup pre-computes the consolidated production view.
	TaskProductionWarmup = "production:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ProductionWarmupPayload selects the dates to warm. An empty Dates slice
// means today and tomorrow in UTC.
type ProductionWarmupPayload struct {
	Dates []string `json:"dates,omitempty"`
}

// NewProductionWarmupTask constructs an Asynq task.
func NewProductionWarmupTask(payload ProductionWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductionWarmup, data), nil
}

// IdempotencyCleanupPayload bounds the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
