package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records reconciliation runs and snapshot ingestion.
type ReconcileMetrics struct {
	runDuration *prometheus.HistogramVec
	runSuccess  *prometheus.CounterVec
	runFailure  *prometheus.CounterVec
	totalSKUs   prometheus.Gauge
	conflicted  prometheus.Gauge
	ingested    *prometheus.CounterVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_run_duration_seconds",
		Help:    "Duration of unified inventory reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	runSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_run_success",
		Help: "Successful reconciliation runs.",
	}, []string{"trigger"})
	runFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_run_failure",
		Help: "Failed reconciliation runs.",
	}, []string{"trigger"})
	totalSKUs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_total_skus",
		Help: "SKUs present in the latest unified inventory view.",
	})
	conflicted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_conflicted_skus",
		Help: "SKUs reported by more than one platform in the latest run.",
	})
	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshots_ingested_total",
		Help: "Platform snapshots accepted by the snapshot store.",
	}, []string{"platform"})
	reg.MustRegister(runDuration, runSuccess, runFailure, totalSKUs, conflicted, ingested)
	return &ReconcileMetrics{
		runDuration: runDuration,
		runSuccess:  runSuccess,
		runFailure:  runFailure,
		totalSKUs:   totalSKUs,
		conflicted:  conflicted,
		ingested:    ingested,
	}
}

// ObserveRun records the duration of a run for the named trigger.
func (m *ReconcileMetrics) ObserveRun(trigger string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncRunSuccess increments the success counter for the named trigger.
func (m *ReconcileMetrics) IncRunSuccess(trigger string) {
	if m == nil || m.runSuccess == nil {
		return
	}
	m.runSuccess.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncRunFailure increments the failure counter for the named trigger.
func (m *ReconcileMetrics) IncRunFailure(trigger string) {
	if m == nil || m.runFailure == nil {
		return
	}
	m.runFailure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// SetRunTotals publishes the SKU counts from the latest run.
func (m *ReconcileMetrics) SetRunTotals(totalSKUs, conflictedSKUs int) {
	if m == nil || m.totalSKUs == nil {
		return
	}
	m.totalSKUs.Set(float64(totalSKUs))
	m.conflicted.Set(float64(conflictedSKUs))
}

// IncSnapshotsIngested counts accepted snapshots per platform.
func (m *ReconcileMetrics) IncSnapshotsIngested(platform string, count int) {
	if m == nil || m.ingested == nil {
		return
	}
	m.ingested.WithLabelValues(normalizeLabel(platform)).Add(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
