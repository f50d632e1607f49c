package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("reminders:due").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("reminders:due").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reminders:due", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reminders:due", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reminders:due")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("reminders:due")), 0.0)
}

func TestFailureLeavesLastSuccessUnset(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	_ = m.Track("dashboard:warmup").End(errors.New("redis down"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess.WithLabelValues("dashboard:warmup")))
}

func TestAddItemsIgnoresNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddItems("vendors:rebuild_totals", 0)
	m.AddItems("vendors:rebuild_totals", 12)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.items.WithLabelValues("vendors:rebuild_totals")))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.AddItems("x", 3)
}
