// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the vorrat service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StoreBuckets defines histogram buckets suited for key-value API latencies,
// ranging from 1ms to 5s.
var StoreBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vorrat_request_duration_seconds",
			Help:    "Request duration",
			Buckets: StoreBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vorrat_requests_in_flight",
			Help: "Requests currently in flight",
		},
	)

	// PrefOpsTotal counts preference operations by operation, scope, and outcome.
	// Outcomes: hit/fallback for facade reads, ok/dropped for facade writes,
	// ok/error for the raw API.
	PrefOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_pref_operations_total",
			Help: "Preference operations",
		},
		[]string{"op", "scope", "outcome"},
	)

	// PrefFallbacksTotal counts facade reads that returned the fallback,
	// by scope and reason (absent, malformed, unavailable, quota, invalid).
	PrefFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_pref_fallbacks_total",
			Help: "Preference reads that fell back",
		},
		[]string{"scope", "reason"},
	)

	// EstimatesTotal counts meal estimates by input kind (text/photo).
	EstimatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_coach_estimates_total",
			Help: "Meal estimates",
		},
		[]string{"source"},
	)

	// PlansTotal counts generated workout plans by goal.
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_coach_plans_total",
			Help: "Generated plans",
		},
		[]string{"goal"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vorrat_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		PrefOpsTotal,
		PrefFallbacksTotal,
		EstimatesTotal,
		PlansTotal,
		RateLimitRejectedTotal,
	)
}

// RecordPrefOp counts one preference operation.
func RecordPrefOp(op, scope, outcome string) {
	PrefOpsTotal.WithLabelValues(op, scope, outcome).Inc()
}

// RecordPrefFallback counts one facade read that returned the fallback.
func RecordPrefFallback(scope, reason string) {
	PrefFallbacksTotal.WithLabelValues(scope, reason).Inc()
}

// RecordEstimate counts one meal estimate.
func RecordEstimate(source string) {
	EstimatesTotal.WithLabelValues(source).Inc()
}

// RecordPlan counts one generated plan.
func RecordPlan(goal string) {
	PlansTotal.WithLabelValues(goal).Inc()
}
