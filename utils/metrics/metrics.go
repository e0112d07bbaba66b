// Package metrics provides Prometheus metrics for progress-hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthTotal counts authentication decisions.
	AuthTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progresshub",
			Name:      "auth_total",
			Help:      "Total number of authentication decisions",
		},
		[]string{"outcome", "reason"},
	)

	// AuthCacheTotal counts auth cache lookups.
	AuthCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progresshub",
			Name:      "auth_cache_total",
			Help:      "Total number of auth cache lookups",
		},
		[]string{"result"},
	)

	// ExternalValidationDuration measures Invidious session verification calls.
	ExternalValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "progresshub",
			Name:      "external_validation_duration_seconds",
			Help:      "Duration of Invidious session verification calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "status"},
	)

	// ReconcileRunsTotal counts reconciliation runs.
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progresshub",
			Name:      "reconcile_runs_total",
			Help:      "Total number of account reconciliation runs",
		},
		[]string{"status"},
	)

	// ReconcileRemovedTotal counts identities pruned by reconciliation.
	ReconcileRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "progresshub",
			Name:      "reconcile_removed_identities_total",
			Help:      "Total number of identities whose progress was pruned",
		},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "progresshub",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordAuth records an authentication decision.
func RecordAuth(outcome, reason string) {
	AuthTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordCacheLookup records an auth cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AuthCacheTotal.WithLabelValues(result).Inc()
}

// RecordExternalValidation records one upstream verification call.
func RecordExternalValidation(kind, status string, seconds float64) {
	ExternalValidationDuration.WithLabelValues(kind, status).Observe(seconds)
}

// RecordReconcile records a reconciliation run.
func RecordReconcile(status string, removed int) {
	ReconcileRunsTotal.WithLabelValues(status).Inc()
	ReconcileRemovedTotal.Add(float64(removed))
}
