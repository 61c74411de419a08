package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	liveFetches    atomic.Uint64
	fetchErrors    atomic.Uint64
	fallbacks      atomic.Uint64 // resolutions past the live step
	cacheWriteErrs atomic.Uint64

	// Fetch latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCacheHit records a fresh cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss or stale entry.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordFetch records a successful live fetch with its latency.
func (m *Metrics) RecordFetch(latencyNs int64) {
	m.liveFetches.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordFetchError records a provider-side failure.
func (m *Metrics) RecordFetchError() {
	m.fetchErrors.Add(1)
}

// RecordFallback records a resolution that degraded past live data.
func (m *Metrics) RecordFallback() {
	m.fallbacks.Add(1)
}

// RecordCacheWriteError records a failed cache write (non-fatal).
func (m *Metrics) RecordCacheWriteError() {
	m.cacheWriteErrs.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CacheHits        uint64
	CacheMisses      uint64
	LiveFetches      uint64
	FetchErrors      uint64
	Fallbacks        uint64
	CacheWriteErrors uint64
	AvgFetchNs       int64
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		CacheHits:        m.cacheHits.Load(),
		CacheMisses:      m.cacheMisses.Load(),
		LiveFetches:      m.liveFetches.Load(),
		FetchErrors:      m.fetchErrors.Load(),
		Fallbacks:        m.fallbacks.Load(),
		CacheWriteErrors: m.cacheWriteErrs.Load(),
		AvgFetchNs:       avgLatency,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.liveFetches.Store(0)
	m.fetchErrors.Store(0)
	m.fallbacks.Store(0)
	m.cacheWriteErrs.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
