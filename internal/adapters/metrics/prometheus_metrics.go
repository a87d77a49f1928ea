// Package metrics provides the Prometheus implementation of pipeline metrics reporting.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tealgate/instacred/internal/core/services"
)

var (
	cacheHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "instacred_resolution_cache_hits_total",
		Help: "Total number of resolutions served from cache",
	})

	cacheMissesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "instacred_resolution_cache_misses_total",
		Help: "Total number of resolutions that required a backend query",
	})

	authAttemptsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instacred_auth_attempts_total",
		Help: "Total number of backend authentication attempts",
	}, []string{"method", "result"}) // method: certificate, cookie, password; result: success, failure

	queriesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instacred_log_queries_total",
		Help: "Total number of log backend searches",
	}, []string{"window"})

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "instacred_resolve_duration_seconds",
		Help:    "Duration of full instance resolutions",
		Buckets: prometheus.DefBuckets,
	})
)

// PrometheusMetrics implements services.MetricsReporter using Prometheus.
type PrometheusMetrics struct{}

// NewPrometheusMetrics creates a new Prometheus metrics reporter.
func NewPrometheusMetrics() services.MetricsReporter {
	return &PrometheusMetrics{}
}

// RecordCacheHit records a resolution served from cache.
func (m *PrometheusMetrics) RecordCacheHit() {
	cacheHitsCounter.Inc()
}

// RecordCacheMiss records a resolution that hit the backend.
func (m *PrometheusMetrics) RecordCacheMiss() {
	cacheMissesCounter.Inc()
}

// RecordAuthAttempt records one authentication attempt.
func (m *PrometheusMetrics) RecordAuthAttempt(method, result string) {
	authAttemptsCounter.WithLabelValues(method, result).Inc()
}

// RecordQuery records one log search.
func (m *PrometheusMetrics) RecordQuery(window string) {
	queriesCounter.WithLabelValues(window).Inc()
}

// ObserveResolveDuration records the wall time of a full resolution.
func (m *PrometheusMetrics) ObserveResolveDuration(d time.Duration) {
	resolveDuration.Observe(d.Seconds())
}
