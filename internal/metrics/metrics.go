package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simplify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simplify_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Simplification Metrics
	SimplificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simplify_requests_total",
			Help: "Total number of simplification requests",
		},
		[]string{"level", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simplify_upstream_request_duration_seconds",
			Help:    "Completion API latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simplify_upstream_errors_total",
			Help: "Total number of completion API errors",
		},
		[]string{"kind"},
	)

	// Email Metrics
	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simplify_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"kind", "status"},
	)

	// Rate Limiting Metrics
	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simplify_rate_limit_rejections_total",
			Help: "Total number of rate limited requests",
		},
	)
)
