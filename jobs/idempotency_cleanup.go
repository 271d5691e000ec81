package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/molinosur/fulfillment/internal/shared"
)

const defaultIdempotencyRetentionHours = 48

// IdempotencyCleanupJob removes idempotency keys past their retention
// window so the table does not grow without bound.
type IdempotencyCleanupJob struct {
	Store  *shared.IdempotencyStore
	Logger *slog.Logger
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{Store: store, Logger: logger}
}

// Handle processes idempotency cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.RetentionHours
	if retention <= 0 {
		retention = defaultIdempotencyRetentionHours
	}

	removed, err := j.Store.Cleanup(ctx, time.Duration(retention)*time.Hour)
	if err != nil {
		return err
	}
	j.Logger.Info("idempotency cleanup complete", slog.Int64("removed", removed))
	return nil
}
