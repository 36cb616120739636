// Package http provides the HTTP transport adapter for the rate limiter.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Rampart.
// Pass to components that need to record metrics.
type Metrics struct {
	DecisionsTotal   *prometheus.CounterVec
	CheckDuration    *prometheus.HistogramVec
	RequestsTotal    *prometheus.CounterVec
	TrackedBuckets   prometheus.Gauge
	ViolationLogSize prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rampart",
				Name:      "decisions_total",
				Help:      "Total rate limit decisions",
			},
			[]string{"category", "result"}, // result=allow/deny
		),
		CheckDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rampart",
				Name:      "check_duration_seconds",
				Help:      "Rate limit check duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"category"},
		),
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rampart",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		TrackedBuckets: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rampart",
				Name:      "tracked_buckets",
				Help:      "Number of active token buckets",
			},
		),
		ViolationLogSize: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rampart",
				Name:      "violation_log_size",
				Help:      "Number of retained violation records",
			},
		),
	}
}
