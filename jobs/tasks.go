package jobs

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskVendorTotalsRebuild recomputes cached vendor totals from the ledger.
	TaskVendorTotalsRebuild = "vendors:rebuild_totals"
	// TaskRemindersDue flags reminders whose due time has passed.
	TaskRemindersDue = "reminders:due"
	// TaskDashboardWarmup precomputes the dashboard overview.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// VendorTotalsPayload narrows a rebuild to one vendor. Zero rebuilds all.
type VendorTotalsPayload struct {
	VendorID int64 `json:"vendor_id,omitempty"`
}

// NewVendorTotalsTask builds a rebuild task.
func NewVendorTotalsTask(vendorID int64) (*asynq.Task, error) {
	data, err := json.Marshal(VendorTotalsPayload{VendorID: vendorID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVendorTotalsRebuild, data), nil
}

// NewRemindersDueTask builds a reminder sweep task.
func NewRemindersDueTask() *asynq.Task {
	return asynq.NewTask(TaskRemindersDue, nil)
}

// NewDashboardWarmupTask builds a dashboard warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil)
}

// NewIdempotencyCleanupTask builds a cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

var taskBuilders = map[string]func() (*asynq.Task, error){
	TaskVendorTotalsRebuild: func() (*asynq.Task, error) { return NewVendorTotalsTask(0) },
	TaskRemindersDue:        func() (*asynq.Task, error) { return NewRemindersDueTask(), nil },
	TaskDashboardWarmup:     func() (*asynq.Task, error) { return NewDashboardWarmupTask(), nil },
	TaskIdempotencyCleanup:  func() (*asynq.Task, error) { return NewIdempotencyCleanupTask(), nil },
}

// TaskByName builds a task with its default payload.
func TaskByName(name string) (*asynq.Task, error) {
	build, ok := taskBuilders[name]
	if !ok {
		return nil, fmt.Errorf("jobs: unsupported job %s", name)
	}
	return build()
}

// TaskNames lists the jobs that can be triggered by name.
func TaskNames() []string {
	names := make([]string, 0, len(taskBuilders))
	for name := range taskBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultSchedule is the cron plan registered by the worker.
func DefaultSchedule() ([]CronRegistration, error) {
	rebuild, err := NewVendorTotalsTask(0)
	if err != nil {
		return nil, err
	}
	return []CronRegistration{
		{Spec: "0 * * * *", Task: NewRemindersDueTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: "30 2 * * *", Task: rebuild, Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: "*/15 * * * *", Task: NewDashboardWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		{Spec: "0 3 * * *", Task: NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
	}, nil
}
