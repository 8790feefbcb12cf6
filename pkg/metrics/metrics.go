// Package metrics provides Prometheus metrics for the trundler prediction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the trundler service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core business metrics - prediction volume and quality
	predictionsTotal    prometheus.Counter
	predictionsDegraded prometheus.Counter
	predictionLatency   prometheus.Histogram
	aggCompleteness     prometheus.Histogram
	baselineFallbacks   *prometheus.CounterVec

	// Snapshot store metrics
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheStaleServed    prometheus.Counter
	cacheEntries        prometheus.Gauge
	fetchesTotal        *prometheus.CounterVec
	fetchErrorsTotal    *prometheus.CounterVec
	fetchRetriesTotal   prometheus.Counter
	fetchCoalescedTotal prometheus.Counter
	breakerOpenTotal    *prometheus.CounterVec

	// Prefetch metrics
	prefetchQueueSize     prometheus.Gauge
	prefetchQueueCapacity prometheus.Gauge
	prefetchJobsTotal     prometheus.Counter
	prefetchJobErrors     prometheus.Counter
	prefetchWorkerCount   prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec
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
		namespace:        "trundler",
		subsystem:        "prediction",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of player predictions produced",
	})

	m.predictionsDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_degraded_total",
		Help:      "Total number of predictions that fell back to role baselines",
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "Histogram of end-to-end prediction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.aggCompleteness = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_completeness",
		Help:      "Histogram of per-metric-group data completeness in [0,1]",
		Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	})

	m.baselineFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "baseline_fallbacks_total",
			Help:      "Total number of metric groups substituted with role baselines",
		},
		[]string{"metric_group", "role"},
	)

	// Snapshot store metrics
	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_hits_total",
		Help:      "Total number of snapshot cache hits within TTL",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_misses_total",
		Help:      "Total number of snapshot cache misses triggering a fetch",
	})

	m.cacheStaleServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_stale_served_total",
		Help:      "Total number of stale snapshots served after a failed re-fetch",
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_entries",
		Help:      "Current number of entries held by the snapshot cache",
	})

	m.fetchesTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_fetches_total",
			Help:      "Total number of external source fetch attempts by source",
		},
		[]string{"source"},
	)

	m.fetchErrorsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_fetch_errors_total",
			Help:      "Total number of failed external source fetches by source",
		},
		[]string{"source"},
	)

	m.fetchRetriesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_fetch_retries_total",
		Help:      "Total number of fetch retry attempts after transient failures",
	})

	m.fetchCoalescedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_fetch_coalesced_total",
		Help:      "Total number of callers that shared an in-flight fetch instead of issuing their own",
	})

	m.breakerOpenTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_breaker_open_total",
			Help:      "Total number of fetches rejected by an open circuit breaker",
		},
		[]string{"source"},
	)

	// Prefetch metrics
	m.prefetchQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_queue_size",
		Help:      "Current size of the prefetch refresh queue",
	})

	m.prefetchQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_queue_capacity",
		Help:      "Maximum prefetch refresh queue capacity",
	})

	m.prefetchJobsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_jobs_total",
		Help:      "Total number of prefetch refresh jobs processed",
	})

	m.prefetchJobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_job_errors_total",
		Help:      "Total number of prefetch refresh jobs that failed",
	})

	m.prefetchWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_worker_count",
		Help:      "Current number of prefetch workers",
	})

	// HTTP performance metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error tracking
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordPrediction increments the predictions counter.
func RecordPrediction() {
	globalManager.predictionsTotal.Inc()
}

// RecordPredictionDegraded increments the degraded predictions counter.
func RecordPredictionDegraded() {
	globalManager.predictionsDegraded.Inc()
}

// RecordPredictionLatency records end-to-end prediction latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordAggregationCompleteness records a metric group's data completeness.
func RecordAggregationCompleteness(completeness float64) {
	globalManager.aggCompleteness.Observe(completeness)
}

// RecordBaselineFallback increments the baseline substitution counter.
func RecordBaselineFallback(metricGroup, role string) {
	globalManager.baselineFallbacks.WithLabelValues(metricGroup, role).Inc()
}

// RecordCacheHit increments the snapshot cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the snapshot cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheStaleServed increments the stale-snapshot-served counter.
func RecordCacheStaleServed() {
	globalManager.cacheStaleServed.Inc()
}

// UpdateCacheEntries sets the current snapshot cache entry count.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// RecordFetch increments the fetch attempt counter for a source.
func RecordFetch(source string) {
	globalManager.fetchesTotal.WithLabelValues(source).Inc()
}

// RecordFetchError increments the fetch error counter for a source.
func RecordFetchError(source string) {
	globalManager.fetchErrorsTotal.WithLabelValues(source).Inc()
}

// RecordFetchRetry increments the fetch retry counter.
func RecordFetchRetry() {
	globalManager.fetchRetriesTotal.Inc()
}

// RecordFetchCoalesced increments the shared in-flight fetch counter.
func RecordFetchCoalesced() {
	globalManager.fetchCoalescedTotal.Inc()
}

// RecordBreakerOpen increments the open-circuit rejection counter for a source.
func RecordBreakerOpen(source string) {
	globalManager.breakerOpenTotal.WithLabelValues(source).Inc()
}

// UpdatePrefetchQueueSize sets the current prefetch queue size.
func UpdatePrefetchQueueSize(size int) {
	globalManager.prefetchQueueSize.Set(float64(size))
}

// UpdatePrefetchQueueCapacity sets the prefetch queue capacity.
func UpdatePrefetchQueueCapacity(capacity int) {
	globalManager.prefetchQueueCapacity.Set(float64(capacity))
}

// RecordPrefetchJob increments the processed prefetch job counter.
func RecordPrefetchJob() {
	globalManager.prefetchJobsTotal.Inc()
}

// RecordPrefetchJobError increments the failed prefetch job counter.
func RecordPrefetchJobError() {
	globalManager.prefetchJobErrors.Inc()
}

// UpdatePrefetchWorkerCount sets the current prefetch worker count.
func UpdatePrefetchWorkerCount(count int) {
	globalManager.prefetchWorkerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
