package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/voyager-travel/voyager/internal/jobs"
	"github.com/voyager-travel/voyager/jobs"
)

func TestJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	for i := 0; i < 40; i++ {
		tracker := metrics.Track(jobs.TaskDashboardWarmup)
		time.Sleep(2 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending warmup tracker: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		tracker := metrics.Track(jobs.TaskVendorTotalsRebuild)
		time.Sleep(10 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending rebuild tracker: %v", err)
		}
		metrics.AddItems(jobs.TaskVendorTotalsRebuild, 120)
	}

	for i := 0; i < 2; i++ {
		tracker := metrics.Track(jobs.TaskDashboardWarmup)
		if err := tracker.End(errors.New("redis timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "voyager_jobs_total", map[string]string{"job": jobs.TaskDashboardWarmup, "status": "success"})
	failure := metricValue(t, families, "voyager_jobs_total", map[string]string{"job": jobs.TaskDashboardWarmup, "status": "failure"})
	if ratio := success / (success + failure); ratio < 0.9 {
		t.Fatalf("warmup success ratio too low: %f", ratio)
	}

	if items := metricValue(t, families, "voyager_job_items_total", map[string]string{"job": jobs.TaskVendorTotalsRebuild}); items != 600 {
		t.Fatalf("expected 600 vendors rebuilt, got %f", items)
	}

	if mean := histogramMean(t, families, "voyager_job_duration_seconds", map[string]string{"job": jobs.TaskVendorTotalsRebuild}); mean > 2.0 {
		t.Fatalf("rebuild duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				switch fam.GetType() {
				case dto.MetricType_COUNTER:
					return metric.GetCounter().GetValue()
				case dto.MetricType_GAUGE:
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		val, ok := labels[lp.GetName()]
		if !ok {
			continue
		}
		if lp.GetValue() != val {
			return false
		}
		matched++
	}
	return matched == len(labels)
}
