package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login and registration attempts by action and result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackapp_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"action", "result"},
	)

	// RoleChecks counts role gate evaluations (allowed|denied|unauthenticated).
	RoleChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackapp_role_checks_total",
			Help: "Total number of role authorization checks",
		},
		[]string{"roles", "result"},
	)

	// CacheLookups counts cache-aside lookups by key namespace and outcome (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackapp_cache_lookups_total",
			Help: "Cache-aside lookups by outcome",
		},
		[]string{"namespace", "result"},
	)

	JobsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackapp_jobs_published_total",
			Help: "Job envelopes handed to the broker by outcome",
		},
		[]string{"type", "result"},
	)

	// JobsHandled counts push deliveries by job type and outcome (ok|ignored|rejected|failed).
	JobsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackapp_jobs_handled_total",
			Help: "Push deliveries processed by the worker",
		},
		[]string{"type", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stackapp_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
