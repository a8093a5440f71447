package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisions tracks what the auth gate did with a protected request
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_browser_gate_decisions_total",
			Help: "Protected requests by gate decision (forwarded/redirected/error)",
		},
		[]string{"decision"},
	)

	// CallbacksReceived tracks OAuth callbacks by outcome
	CallbacksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_browser_callbacks_received_total",
			Help: "Total number of OAuth callbacks received by outcome",
		},
		[]string{"outcome"},
	)

	// ProviderRequests tracks requests to the identity provider
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_browser_provider_requests_total",
			Help: "Total number of requests to the identity provider by operation and result",
		},
		[]string{"operation", "result"},
	)

	// ProviderDuration tracks identity provider request duration
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlite_browser_provider_duration_seconds",
			Help:    "Duration of identity provider requests",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// ActiveSessions tracks sessions held by the in-process store
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqlite_browser_active_sessions",
			Help: "Number of sessions held by the in-memory session store",
		},
	)

	// Logouts tracks logout requests
	Logouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlite_browser_logouts_total",
			Help: "Total number of logout requests",
		},
	)

	// HTTPRequestDuration tracks HTTP request duration by route
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlite_browser_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route, method and status",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "status"},
	)

	// RateLimitHits tracks rejected requests
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlite_browser_rate_limit_hits_total",
			Help: "Total number of requests that hit rate limits",
		},
	)

	// QueriesExecuted tracks database catalog queries
	QueriesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_browser_queries_total",
			Help: "Total number of catalog operations by operation and result",
		},
		[]string{"operation", "result"},
	)
)

// RecordGateDecision records a gate decision
func RecordGateDecision(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// RecordCallback records the outcome of an OAuth callback
func RecordCallback(outcome string) {
	CallbacksReceived.WithLabelValues(outcome).Inc()
}

// RecordProviderRequest records an identity provider request
func RecordProviderRequest(operation, result string, seconds float64) {
	ProviderRequests.WithLabelValues(operation, result).Inc()
	ProviderDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordQuery records a catalog operation
func RecordQuery(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	QueriesExecuted.WithLabelValues(operation, result).Inc()
}
