// Package metrics defines session, universe and risk metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Session counter vectors
var (
	BacktestSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_submissions_total",
		Help:      "Total number of backtest submissions by outcome",
	}, []string{"outcome"})
	DetailFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detail_fallbacks_total",
		Help:      "Total number of detail fetch failures answered with the shallow record",
	}, []string{"operation"})
)

// Gauges
var (
	SessionRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_runs",
		Help:      "Number of backtest runs held by the session",
	})
	UniverseTraders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "universe_traders",
		Help:      "Number of smart traders in the loaded universe",
	})
	RiskTriggered = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "risk_triggered",
		Help:      "1 when the last risk snapshot reported a triggered limit",
	})
)

// RecordSubmission records a backtest submission.
// outcome should be one of: "created", "created_without_detail", "failed"
func RecordSubmission(outcome string) {
	BacktestSubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordDetailFallback records a swallowed detail fetch failure.
// operation should be one of: "select", "submit"
func RecordDetailFallback(operation string) {
	DetailFallbacksTotal.WithLabelValues(operation).Inc()
}

// UpdateSessionRuns updates the session run count gauge.
func UpdateSessionRuns(count int) {
	SessionRuns.Set(float64(count))
}

// UpdateUniverseTraders updates the loaded trader count gauge.
func UpdateUniverseTraders(count int) {
	UniverseTraders.Set(float64(count))
}

// UpdateRiskTriggered updates the risk flag gauge.
func UpdateRiskTriggered(triggered bool) {
	if triggered {
		RiskTriggered.Set(1)
		return
	}
	RiskTriggered.Set(0)
}
