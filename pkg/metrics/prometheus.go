package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the wordsort service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Board interaction
	moves        *prometheus.CounterVec
	movesNoop    *prometheus.CounterVec
	undos        prometheus.Counter
	checks       prometheus.Counter
	checkRatio   prometheus.Histogram
	completions  prometheus.Counter
	touchDrops   *prometheus.CounterVec
	initFailures prometheus.Counter

	// Sessions
	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter

	// Score reports and leaderboard
	reportsProcessed   prometheus.Counter
	reportsDuplicate   prometheus.Counter
	scoringErrors      prometheus.Counter
	leaderboardUpdates prometheus.Counter
	leaderboardErrors  prometheus.Counter
	totalPlayers       prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wordsort",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	m.moves = m.counterVec("moves_total", "Accepted moves by input source and placement correctness", "source", "correct")
	m.movesNoop = m.counterVec("moves_noop_total", "Drops that resolved to the word's current container", "source")
	m.undos = m.counter("undos_total", "Moves reverted through undo")
	m.checks = m.counter("checks_total", "Check answers requests")
	m.checkRatio = m.histogram("check_accuracy_ratio", "Share of correct words per check",
		prometheus.LinearBuckets(0, 0.1, 11))
	m.completions = m.counter("completions_total", "Boards solved with every word correct")
	m.touchDrops = m.counterVec("touch_drops_total", "Touch releases by outcome (hit, miss, same, cancel)", "outcome")
	m.initFailures = m.counter("init_failures_total", "Boards that failed to initialize")

	m.sessionsCreated = m.counter("sessions_created_total", "Sorting sessions created")
	m.sessionsActive = m.gauge("sessions_active", "Sorting sessions currently held in memory")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Sessions removed by the idle janitor")

	m.reportsProcessed = m.counter("reports_processed_total", "Score reports applied to the leaderboard")
	m.reportsDuplicate = m.counter("reports_duplicate_total", "Score reports dropped as duplicates")
	m.scoringErrors = m.counter("scoring_errors_total", "Score reports that failed scoring")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard upserts")
	m.leaderboardErrors = m.counter("leaderboard_errors_total", "Leaderboard operation failures")
	m.totalPlayers = m.gauge("players_total", "Players on the leaderboard")

	m.queueSize = m.gauge("queue_size", "Score reports waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue fill ratio (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Reports enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Reports dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueues")

	m.workerCount = m.gauge("workers", "Running score workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_ms",
		"Time a worker spends on one report in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker handler failures")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_ms",
		"Leaderboard upsert latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_ms",
		"Leaderboard query latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_ms", "GC pause time in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// Board interaction

// RecordMove counts an accepted move.
func RecordMove(source string, correct bool) {
	globalManager.moves.WithLabelValues(source, strconv.FormatBool(correct)).Inc()
}

// RecordMoveNoop counts a drop onto the word's own container.
func RecordMoveNoop(source string) {
	globalManager.movesNoop.WithLabelValues(source).Inc()
}

func RecordUndo() { globalManager.undos.Inc() }

// RecordCheck counts a check and observes its accuracy.
func RecordCheck(correct, incorrect int) {
	globalManager.checks.Inc()
	if total := correct + incorrect; total > 0 {
		globalManager.checkRatio.Observe(float64(correct) / float64(total))
	}
}

func RecordCompletion() { globalManager.completions.Inc() }

// RecordTouchDrop counts a touch release by outcome.
func RecordTouchDrop(outcome string) {
	globalManager.touchDrops.WithLabelValues(outcome).Inc()
}

func RecordInitFailure() { globalManager.initFailures.Inc() }

// Sessions

func RecordSessionCreated() { globalManager.sessionsCreated.Inc() }

func UpdateActiveSessions(count int) { globalManager.sessionsActive.Set(float64(count)) }

func RecordSessionEvicted() { globalManager.sessionsEvicted.Inc() }

// Reports and leaderboard

func RecordReportProcessed() { globalManager.reportsProcessed.Inc() }

func RecordReportDuplicate() { globalManager.reportsDuplicate.Inc() }

func RecordScoringError() { globalManager.scoringErrors.Inc() }

func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

func RecordLeaderboardError() { globalManager.leaderboardErrors.Inc() }

func UpdateTotalPlayers(count int) { globalManager.totalPlayers.Set(float64(count)) }

// Queue

func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue fill ratio (0-1).
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// Workers

func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Repository

func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// HTTP

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
