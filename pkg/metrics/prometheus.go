// Package metrics provides Prometheus metrics for the LeaderForge service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - score submissions and rank reads
	submissionsTotal     prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionErrors     *prometheus.CounterVec
	topQueries           prometheus.Counter
	rankQueries          prometheus.Counter

	// Cache Metrics - hit/miss per key kind plus invalidation traffic
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheErrors        prometheus.Counter
	cacheInvalidations prometheus.Counter

	// Store Metrics - durable store operation performance
	storeOpLatency *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitRejections prometheus.Counter

	// Population / Operational Gauges
	totalPlayers prometheus.Gauge
	dedupeSize   prometheus.Gauge

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leaderforge",
		subsystem:        "core",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.submissionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Total number of score submissions applied",
	})

	m.submissionsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_duplicate_total",
		Help:      "Submissions short-circuited by the idempotency token",
	})

	m.submissionErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_errors_total",
		Help:      "Failed submissions by error kind",
	}, []string{"kind"})

	m.topQueries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "top_queries_total",
		Help:      "Total top-N leaderboard queries",
	})

	m.rankQueries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_queries_total",
		Help:      "Total per-player rank queries",
	})

	m.cacheHits = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Cache hits by key kind",
	}, []string{"kind"})

	m.cacheMisses = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Cache misses by key kind",
	}, []string{"kind"})

	m.cacheErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_errors_total",
		Help:      "Cache backend errors absorbed as misses",
	})

	m.cacheInvalidations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_invalidations_total",
		Help:      "Cache keys invalidated after writes",
	})

	m.storeOpLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_op_latency_ms",
		Help:      "Durable store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.storeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Durable store errors by operation",
	}, []string{"op"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.rateLimitRejections = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected by the per-IP rate limiter",
	})

	m.totalPlayers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_players",
		Help:      "Number of players with a leaderboard entry",
	})

	m.dedupeSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_size",
		Help:      "Number of request tokens tracked for idempotency",
	})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_ms",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100},
	})
}

// Package-level helpers operating on the global manager.

func RecordSubmission()           { globalManager.submissionsTotal.Inc() }
func RecordSubmissionDuplicate()  { globalManager.submissionsDuplicate.Inc() }
func RecordSubmissionError(kind string) {
	globalManager.submissionErrors.WithLabelValues(kind).Inc()
}
func RecordTopQuery()  { globalManager.topQueries.Inc() }
func RecordRankQuery() { globalManager.rankQueries.Inc() }

func RecordCacheHit(kind string)  { globalManager.cacheHits.WithLabelValues(kind).Inc() }
func RecordCacheMiss(kind string) { globalManager.cacheMisses.WithLabelValues(kind).Inc() }
func RecordCacheError()           { globalManager.cacheErrors.Inc() }
func RecordCacheInvalidation(n int) {
	globalManager.cacheInvalidations.Add(float64(n))
}

func RecordStoreOpLatency(op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(latencyMs)
}
func RecordStoreError(op string) { globalManager.storeErrors.WithLabelValues(op).Inc() }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}
func RecordRateLimitRejection() { globalManager.rateLimitRejections.Inc() }

func UpdateTotalPlayers(count int64) { globalManager.totalPlayers.Set(float64(count)) }
func UpdateDedupeSize(size int64)    { globalManager.dedupeSize.Set(float64(size)) }

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
