package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/voyager-travel/voyager/internal/jobs"
)

type stubTotals struct {
	one   []int64
	all   int
	err   error
	count int64
}

func (s *stubTotals) RefreshTotals(ctx context.Context, vendorID int64) error {
	s.one = append(s.one, vendorID)
	return s.err
}

func (s *stubTotals) RefreshAllTotals(ctx context.Context) (int64, error) {
	s.all++
	return s.count, s.err
}

type stubBump struct{ n int }

func (s *stubBump) Bump(ctx context.Context) error {
	s.n++
	return nil
}

type stubReminders struct{ n int }

func (s stubReminders) NotifyDue(ctx context.Context) (int, error) { return s.n, nil }

type stubWarmer struct{ called bool }

func (s *stubWarmer) Warm(ctx context.Context) error {
	s.called = true
	_, ok := ctx.Deadline()
	if !ok {
		return errors.New("expected deadline")
	}
	return nil
}

type stubKeys struct{ retention time.Duration }

func (s *stubKeys) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.retention = olderThan
	return 4, nil
}

func newRunner() (*Runner, *stubTotals, *stubBump) {
	totals := &stubTotals{count: 12}
	bump := &stubBump{}
	return &Runner{
		Totals:  totals,
		Cache:   bump,
		Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}, totals, bump
}

func TestVendorTotalsRebuildsAllAndBumpsCache(t *testing.T) {
	r, totals, bump := newRunner()
	task, err := NewVendorTotalsTask(0)
	require.NoError(t, err)

	require.NoError(t, r.HandleVendorTotals(context.Background(), task))
	assert.Equal(t, 1, totals.all)
	assert.Empty(t, totals.one)
	assert.Equal(t, 1, bump.n)
}

func TestVendorTotalsSingleVendor(t *testing.T) {
	r, totals, _ := newRunner()
	task, err := NewVendorTotalsTask(42)
	require.NoError(t, err)

	require.NoError(t, r.HandleVendorTotals(context.Background(), task))
	assert.Equal(t, []int64{42}, totals.one)
	assert.Zero(t, totals.all)
}

func TestVendorTotalsFailureSkipsBump(t *testing.T) {
	r, totals, bump := newRunner()
	totals.err = errors.New("db down")
	task, err := NewVendorTotalsTask(0)
	require.NoError(t, err)

	assert.Error(t, r.HandleVendorTotals(context.Background(), task))
	assert.Zero(t, bump.n)
}

func TestVendorTotalsRejectsBadPayload(t *testing.T) {
	r, _, _ := newRunner()
	err := r.HandleVendorTotals(context.Background(), asynq.NewTask(TaskVendorTotalsRebuild, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestOtherHandlers(t *testing.T) {
	warmer := &stubWarmer{}
	keys := &stubKeys{}
	r := &Runner{
		Reminders: stubReminders{n: 2},
		Dashboard: warmer,
		Keys:      keys,
		Metrics:   jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
	ctx := context.Background()

	require.NoError(t, r.HandleRemindersDue(ctx, NewRemindersDueTask()))
	require.NoError(t, r.HandleDashboardWarmup(ctx, NewDashboardWarmupTask()))
	assert.True(t, warmer.called)
	require.NoError(t, r.HandleIdempotencyCleanup(ctx, NewIdempotencyCleanupTask()))
	assert.Equal(t, 72*time.Hour, keys.retention)

	assert.Error(t, (&Runner{}).HandleRemindersDue(ctx, NewRemindersDueTask()))
}

func TestTaskByNameAndSchedule(t *testing.T) {
	for _, name := range TaskNames() {
		task, err := TaskByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, task.Type())
	}
	_, err := TaskByName("mail:send")
	assert.Error(t, err)

	task, err := NewVendorTotalsTask(7)
	require.NoError(t, err)
	var payload VendorTotalsPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(7), payload.VendorID)

	schedule, err := DefaultSchedule()
	require.NoError(t, err)
	specs := map[string]string{}
	for _, entry := range schedule {
		specs[entry.Task.Type()] = entry.Spec
	}
	assert.Equal(t, "0 * * * *", specs[TaskRemindersDue])
	assert.Equal(t, "30 2 * * *", specs[TaskVendorTotalsRebuild])
	assert.Equal(t, "*/15 * * * *", specs[TaskDashboardWarmup])
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	call := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rec
	}

	rec := call(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":3`)

	rec = call(NewHandler(stubInspector{err: asynq.ErrQueueNotFound}, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(NewHandler(stubInspector{err: errors.New("redis down")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = call(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
