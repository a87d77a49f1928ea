// Package services provides the core business logic of the resolution
// pipeline: session lifecycle, token extraction, and the caching
// orchestrator the rest of the application calls.
package services

import "time"

// MetricsReporter receives pipeline events. The Prometheus adapter provides
// the production implementation; the no-op keeps the core silent in tests.
type MetricsReporter interface {
	// RecordCacheHit records a resolution served from cache.
	RecordCacheHit()

	// RecordCacheMiss records a resolution that had to hit the backend.
	RecordCacheMiss()

	// RecordAuthAttempt records one authentication attempt by credential
	// kind ("certificate", "cookie", "password") and result ("success",
	// "failure").
	RecordAuthAttempt(method, result string)

	// RecordQuery records one log search by window expression.
	RecordQuery(window string)

	// ObserveResolveDuration records the wall time of a full resolution.
	ObserveResolveDuration(d time.Duration)
}

// NoopMetrics discards all events.
type NoopMetrics struct{}

func (NoopMetrics) RecordCacheHit()                         {}
func (NoopMetrics) RecordCacheMiss()                        {}
func (NoopMetrics) RecordAuthAttempt(method, result string) {}
func (NoopMetrics) RecordQuery(window string)               {}
func (NoopMetrics) ObserveResolveDuration(d time.Duration)  {}
