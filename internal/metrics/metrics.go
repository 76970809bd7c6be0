// Package metrics provides the centralized Prometheus metrics registry for the console.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backtest_console"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of backtest service requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	APIMalformedResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_malformed_responses_total",
		Help:      "Total number of empty or malformed responses normalized by the client",
	}, []string{"endpoint"})
)

// Histogram metrics
var (
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Latency of backtest service requests in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"endpoint"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register client metrics
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(APIMalformedResponsesTotal)
		registry.MustRegister(APIRequestDuration)

		// Register session metrics
		registry.MustRegister(BacktestSubmissionsTotal)
		registry.MustRegister(DetailFallbacksTotal)
		registry.MustRegister(SessionRuns)

		// Register universe and risk metrics
		registry.MustRegister(UniverseTraders)
		registry.MustRegister(RiskTriggered)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAPIRequest records one backtest service call.
// outcome should be one of: "success", "network", "http_error", "malformed"
func RecordAPIRequest(endpoint, outcome string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordMalformedResponse records a response normalized to an empty collection.
func RecordMalformedResponse(endpoint string) {
	APIMalformedResponsesTotal.WithLabelValues(endpoint).Inc()
}
