// Package metrics provides Prometheus metrics for the gigrank relevance service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket layouts shared by several histograms.
var ( //nolint:gochecknoglobals // fixed bucket layouts
	scoreBuckets       = prometheus.LinearBuckets(0, 0.1, 11)
	resultSizeBuckets  = []float64{0, 1, 5, 10, 20, 50, 100, 250, 500}
	gcPauseBucketsMsec = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500}
)

// Manager manages all Prometheus metrics for the gigrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Relevance scoring
	scoresComputed prometheus.Counter
	scoreValue     prometheus.Histogram
	scoringErrors  prometheus.Counter

	// Recommendation requests, labeled by direction (jobs|candidates)
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  *prometheus.HistogramVec
	recommendationResults  *prometheus.HistogramVec

	// Ingestion, labeled by event kind
	eventsProcessed *prometheus.CounterVec
	eventsDuplicate *prometheus.CounterVec
	eventsRejected  *prometheus.CounterVec

	// Catalog
	catalogPostings        prometheus.Gauge
	catalogOpenPostings    prometheus.Gauge
	catalogProfiles        prometheus.Gauge
	catalogReviews         prometheus.Gauge
	catalogShardCount      prometheus.Gauge
	catalogRecordsPerShard *prometheus.GaugeVec
	catalogUpdateLatency   prometheus.Histogram
	catalogQueryLatency    prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers every collector on the
// configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigrank",
		subsystem:        "relevance",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounter(m.counter("scores_computed_total", "Total number of relevance scores computed"))
	m.scoreValue = auto.NewHistogram(m.histogram("score", "Distribution of computed relevance scores", scoreBuckets))
	m.scoringErrors = auto.NewCounter(m.counter("scoring_errors_total", "Total number of scoring calls that failed"))

	m.recommendationRequests = auto.NewCounterVec(
		m.counter("recommendation_requests_total", "Total number of recommendation requests"),
		[]string{"kind"},
	)
	m.recommendationLatency = auto.NewHistogramVec(
		m.histogram("recommendation_latency_milliseconds", "Recommendation latency in milliseconds", nil),
		[]string{"kind"},
	)
	m.recommendationResults = auto.NewHistogramVec(
		m.histogram("recommendation_results", "Number of recommendations returned per request", resultSizeBuckets),
		[]string{"kind"},
	)

	m.eventsProcessed = auto.NewCounterVec(
		m.counter("events_processed_total", "Total number of ingested events applied to the catalog"),
		[]string{"kind"},
	)
	m.eventsDuplicate = auto.NewCounterVec(
		m.counter("events_duplicate_total", "Total number of duplicate events dropped"),
		[]string{"kind"},
	)
	m.eventsRejected = auto.NewCounterVec(
		m.counter("events_rejected_total", "Total number of events rejected while applying"),
		[]string{"kind", "reason"},
	)

	m.catalogPostings = auto.NewGauge(m.gauge("catalog_postings", "Number of postings in the catalog"))
	m.catalogOpenPostings = auto.NewGauge(m.gauge("catalog_open_postings", "Number of open postings in the catalog"))
	m.catalogProfiles = auto.NewGauge(m.gauge("catalog_profiles", "Number of profiles in the catalog"))
	m.catalogReviews = auto.NewGauge(m.gauge("catalog_reviews", "Number of reviews in the catalog"))
	m.catalogShardCount = auto.NewGauge(m.gauge("catalog_shard_count", "Number of catalog shards"))
	m.catalogRecordsPerShard = auto.NewGaugeVec(
		m.gauge("catalog_records_per_shard", "Number of records held by each catalog shard"),
		[]string{"shard_id"},
	)
	m.catalogUpdateLatency = auto.NewHistogram(
		m.histogram("catalog_update_latency_milliseconds", "Catalog write latency in milliseconds", nil),
	)
	m.catalogQueryLatency = auto.NewHistogram(
		m.histogram("catalog_query_latency_milliseconds", "Catalog read latency in milliseconds", nil),
	)

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current number of events waiting in the ingest queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum ingest queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueue_total", "Total number of events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeue_total", "Total number of events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues"))
	m.queueProcessingLatency = auto.NewHistogram(
		m.histogram("queue_processing_latency_milliseconds", "Time an event waited in the queue in milliseconds", nil),
	)

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured number of ingest workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Number of workers currently applying an event"))
	m.workerIdleCount = auto.NewGauge(m.gauge("worker_idle_count", "Number of idle workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogram("worker_processing_latency_milliseconds", "Worker apply latency in milliseconds", nil),
	)
	m.workerErrors = auto.NewCounter(m.counter("worker_errors_total", "Total number of worker apply failures"))

	m.httpRequests = auto.NewCounterVec(
		m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counter("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorsByType = auto.NewCounterVec(
		m.counter("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counter("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogram("error_latency_milliseconds", "Latency of operations that resulted in errors", nil),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds", gcPauseBucketsMsec),
	)
}

// RecordScore counts one computed score and observes its value.
func RecordScore(score float64) {
	globalManager.scoresComputed.Inc()
	globalManager.scoreValue.Observe(score)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordRecommendation records one recommendation request of kind
// ("jobs" or "candidates") with its latency and result count.
func RecordRecommendation(kind string, latencyMs float64, results int) {
	globalManager.recommendationRequests.WithLabelValues(kind).Inc()
	globalManager.recommendationLatency.WithLabelValues(kind).Observe(latencyMs)
	globalManager.recommendationResults.WithLabelValues(kind).Observe(float64(results))
}

// RecordEventProcessed increments the processed counter for kind.
func RecordEventProcessed(kind string) {
	globalManager.eventsProcessed.WithLabelValues(kind).Inc()
}

// RecordEventDuplicate increments the duplicate counter for kind.
func RecordEventDuplicate(kind string) {
	globalManager.eventsDuplicate.WithLabelValues(kind).Inc()
}

// RecordEventRejected increments the rejected counter for kind and reason.
func RecordEventRejected(kind, reason string) {
	globalManager.eventsRejected.WithLabelValues(kind, reason).Inc()
}

// CatalogCounts is a point-in-time view of catalog sizes.
type CatalogCounts struct {
	Postings     int
	OpenPostings int
	Profiles     int
	Reviews      int
}

// UpdateCatalogCounts sets the catalog size gauges.
func UpdateCatalogCounts(c CatalogCounts) {
	globalManager.catalogPostings.Set(float64(c.Postings))
	globalManager.catalogOpenPostings.Set(float64(c.OpenPostings))
	globalManager.catalogProfiles.Set(float64(c.Profiles))
	globalManager.catalogReviews.Set(float64(c.Reviews))
}

// UpdateCatalogShardCount sets the number of catalog shards.
func UpdateCatalogShardCount(count int) {
	globalManager.catalogShardCount.Set(float64(count))
}

// UpdateCatalogRecordsPerShard sets the record count for a shard.
func UpdateCatalogRecordsPerShard(shardID string, count int) {
	globalManager.catalogRecordsPerShard.WithLabelValues(shardID).Set(float64(count))
}

// RecordCatalogUpdateLatency records a catalog write latency.
func RecordCatalogUpdateLatency(latencyMs float64) {
	globalManager.catalogUpdateLatency.Observe(latencyMs)
}

// RecordCatalogQueryLatency records a catalog read latency.
func RecordCatalogQueryLatency(latencyMs float64) {
	globalManager.catalogQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long an event sat in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker apply latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
