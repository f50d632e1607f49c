package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/voyager-travel/voyager/internal/jobs"
	"github.com/voyager-travel/voyager/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TotalsRebuilder recomputes vendor cached totals.
type TotalsRebuilder interface {
	RefreshTotals(ctx context.Context, vendorID int64) error
	RefreshAllTotals(ctx context.Context) (int64, error)
}

// DueNotifier flags reminders that fell due.
type DueNotifier interface {
	NotifyDue(ctx context.Context) (int, error)
}

// Warmer precomputes a cached read model.
type Warmer interface {
	Warm(ctx context.Context) error
}

// KeyJanitor purges old idempotency keys.
type KeyJanitor interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Runner holds every job dependency and exposes one asynq handler per task.
type Runner struct {
	Totals       TotalsRebuilder
	Reminders    DueNotifier
	Dashboard    Warmer
	Keys         KeyJanitor
	Cache        shared.CacheInvalidator
	KeyRetention time.Duration
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handlers lists the task handlers for the worker.
func (r *Runner) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskVendorTotalsRebuild, Handler: r.HandleVendorTotals},
		{Type: TaskRemindersDue, Handler: r.HandleRemindersDue},
		{Type: TaskDashboardWarmup, Handler: r.HandleDashboardWarmup},
		{Type: TaskIdempotencyCleanup, Handler: r.HandleIdempotencyCleanup},
	}
}

// HandleVendorTotals rebuilds one vendor or, with no vendor id, all of them.
func (r *Runner) HandleVendorTotals(ctx context.Context, t *asynq.Task) (err error) {
	if r.Totals == nil {
		return errors.New("vendor totals: rebuilder not configured")
	}
	var payload VendorTotalsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := r.metrics().Track(TaskVendorTotalsRebuild)
	defer func() { err = tracker.End(err) }()

	logger := r.logger(TaskVendorTotalsRebuild)
	start := time.Now()
	if payload.VendorID > 0 {
		if err = r.Totals.RefreshTotals(ctx, payload.VendorID); err != nil {
			logger.Error("rebuild vendor totals", slog.Int64("vendor_id", payload.VendorID), slog.Any("error", err))
			return err
		}
		r.metrics().AddItems(TaskVendorTotalsRebuild, 1)
	} else {
		var n int64
		n, err = r.Totals.RefreshAllTotals(ctx)
		if err != nil {
			logger.Error("rebuild all vendor totals", slog.Any("error", err))
			return err
		}
		r.metrics().AddItems(TaskVendorTotalsRebuild, n)
		logger.Info("vendor totals rebuilt", slog.Int64("vendors", n), slog.Duration("duration", time.Since(start)))
	}
	shared.Invalidate(ctx, r.Cache, logger)
	return nil
}

// HandleRemindersDue marks due reminders as notified.
func (r *Runner) HandleRemindersDue(ctx context.Context, t *asynq.Task) (err error) {
	if r.Reminders == nil {
		return errors.New("reminders due: notifier not configured")
	}
	tracker := r.metrics().Track(TaskRemindersDue)
	defer func() { err = tracker.End(err) }()

	n, err := r.Reminders.NotifyDue(ctx)
	if err != nil {
		r.logger(TaskRemindersDue).Error("notify due reminders", slog.Any("error", err))
		return err
	}
	r.metrics().AddItems(TaskRemindersDue, int64(n))
	return nil
}

// HandleDashboardWarmup refreshes the cached overview.
func (r *Runner) HandleDashboardWarmup(ctx context.Context, t *asynq.Task) (err error) {
	if r.Dashboard == nil {
		return errors.New("dashboard warmup: service not configured")
	}
	tracker := r.metrics().Track(TaskDashboardWarmup)
	defer func() { err = tracker.End(err) }()

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err = r.Dashboard.Warm(warmCtx); err != nil {
		r.logger(TaskDashboardWarmup).Error("warm dashboard", slog.Any("error", err))
	}
	return err
}

// HandleIdempotencyCleanup drops keys older than the retention window.
func (r *Runner) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) (err error) {
	if r.Keys == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	tracker := r.metrics().Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	retention := r.KeyRetention
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	n, err := r.Keys.Cleanup(ctx, retention)
	if err != nil {
		r.logger(TaskIdempotencyCleanup).Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	r.metrics().AddItems(TaskIdempotencyCleanup, n)
	r.logger(TaskIdempotencyCleanup).Info("idempotency keys purged", slog.Int64("removed", n))
	return nil
}

func (r *Runner) logger(job string) *slog.Logger {
	if r.Logger != nil {
		return r.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (r *Runner) metrics() *jobmetrics.Metrics {
	if r.Metrics != nil {
		return r.Metrics
	}
	return defaultJobMetrics
}
