package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Requests seen by the interception pipeline",
		},
		[]string{"method", "outcome"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Subsystem: "pipeline",
			Name:      "decisions_total",
			Help:      "Terminal decisions by step and error code",
		},
		[]string{"step", "code"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Requests denied by the sliding-window limiter",
		},
	)

	policyFailOpenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Subsystem: "policy",
			Name:      "fail_open_total",
			Help:      "Requests that proceeded without a policy because the policy service was unavailable",
		},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tenantgate",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time spent in the interception pipeline before pass-through or terminal response",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)
