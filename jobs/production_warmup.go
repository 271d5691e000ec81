package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/molinosur/fulfillment/internal/production"
)

// ProductionWarmupJob pre-populates the consolidated production cache so the
// first planner request of the day does not pay the aggregation cost.
type ProductionWarmupJob struct {
	Production *production.Service
	Logger     *slog.Logger
	clock      func() time.Time
}

// NewProductionWarmupJob wires dependencies for the warmup handler.
func NewProductionWarmupJob(productionSvc *production.Service, logger *slog.Logger) *ProductionWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductionWarmupJob{
		Production: productionSvc,
		Logger:     logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes production warmup tasks. A date that fails to warm is
// logged and skipped so the remaining dates still get warmed.
func (j *ProductionWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Production == nil {
		return errors.New("production warmup: handler not configured")
	}
	var payload ProductionWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	dates, err := j.resolveDates(payload.Dates)
	if err != nil {
		j.Logger.Warn("production warmup: bad payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	var failed int
	for _, date := range dates {
		if _, err := j.Production.Consolidate(ctx, date); err != nil {
			failed++
			j.Logger.Warn("production warmup failed",
				slog.String("date", date.Format(time.DateOnly)), slog.Any("error", err))
		}
	}
	if failed == len(dates) {
		return errors.New("production warmup: all dates failed")
	}
	j.Logger.Info("production warmup complete", slog.Int("dates", len(dates)), slog.Int("failed", failed))
	return nil
}

func (j *ProductionWarmupJob) resolveDates(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		today := j.clock().Truncate(24 * time.Hour)
		return []time.Time{today, today.AddDate(0, 0, 1)}, nil
	}
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
