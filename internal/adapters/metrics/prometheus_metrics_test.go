package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_IncrementsCounters(t *testing.T) {
	m := NewPrometheusMetrics()

	hits := testutil.ToFloat64(cacheHitsCounter)
	misses := testutil.ToFloat64(cacheMissesCounter)
	auths := testutil.ToFloat64(authAttemptsCounter.WithLabelValues("certificate", "success"))
	queries := testutil.ToFloat64(queriesCounter.WithLabelValues("now-24h"))

	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordAuthAttempt("certificate", "success")
	m.RecordQuery("now-24h")

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheHitsCounter))
	assert.Equal(t, misses+1, testutil.ToFloat64(cacheMissesCounter))
	assert.Equal(t, auths+1, testutil.ToFloat64(authAttemptsCounter.WithLabelValues("certificate", "success")))
	assert.Equal(t, queries+1, testutil.ToFloat64(queriesCounter.WithLabelValues("now-24h")))
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	m := NewPrometheusMetrics()

	assert.NotPanics(t, func() {
		m.ObserveResolveDuration(125 * time.Millisecond)
	})
}
