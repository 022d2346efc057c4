package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReconcileMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReconcileMetrics(reg)
	trigger := "read"
	metrics.ObserveRun(trigger, 250*time.Millisecond)
	metrics.IncRunSuccess(trigger)
	metrics.IncRunFailure(trigger)
	metrics.SetRunTotals(12, 3)
	metrics.IncSnapshotsIngested("shopify", 5)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "reconcile_run_success", "trigger", trigger); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "reconcile_run_failure", "trigger", trigger); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "reconcile_run_duration_seconds", "trigger", trigger); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "snapshots_ingested_total", "platform", "shopify"); err != nil {
		t.Fatalf("fetch ingested: %v", err)
	} else if got != 5 {
		t.Fatalf("expected ingested=5, got %f", got)
	}

	if got := fetchGaugeValue(mfs, "reconcile_conflicted_skus"); got != 3 {
		t.Fatalf("expected conflicted gauge 3, got %f", got)
	}
	if got := fetchGaugeValue(mfs, "reconcile_total_skus"); got != 12 {
		t.Fatalf("expected total gauge 12, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	metrics := NewReconcileMetrics(nil)
	metrics.ObserveRun("read", time.Second)
	metrics.IncRunSuccess("read")
	metrics.SetRunTotals(1, 1)
	metrics.IncSnapshotsIngested("shopify", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return -1
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetGauge().GetValue()
	}
	return -1
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
