// Package metrics provides Prometheus metrics for the fairway league service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Roster
	rosterMutations *prometheus.CounterVec
	rosterPlayers   prometheus.Gauge
	rosterScores    prometheus.Gauge
	standingsReads  *prometheus.CounterVec
	duplicateScores prometheus.Counter

	// Storage
	storageSaveLatency prometheus.Histogram
	storageLoadLatency prometheus.Histogram
	storageErrors      *prometheus.CounterVec
	storageBlobBytes   prometheus.Gauge

	// Commentary
	commentaryGenerations *prometheus.CounterVec
	commentaryLatency     prometheus.Histogram
	commentaryQueueSize   prometheus.Gauge
	commentaryQueueCap    prometheus.Gauge
	commentaryEnqueueErrs *prometheus.CounterVec
	exportsRendered       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// process holds the collectors the package-level Record helpers write to and
// the registry they are registered on.
type process struct {
	manager  *Manager
	registry *prometheus.Registry
}

var global atomic.Pointer[process] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// Configure rebuilds the process metrics on a fresh registry with opts
// applied. Values recorded before the call are discarded, so call it once at
// startup before serving.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	global.Store(&process{manager: NewManager(opts...), registry: registry})
}

func active() *Manager {
	return global.Load().manager
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fairway",
		subsystem:        "league",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.rosterMutations = auto.NewCounterVec(m.counterOpts("roster_mutations_total",
		"Roster mutations by operation and result (applied or noop)"), []string{"op", "result"})
	m.rosterPlayers = auto.NewGauge(m.gaugeOpts("roster_players", "Players currently on the roster"))
	m.rosterScores = auto.NewGauge(m.gaugeOpts("roster_scores", "Score entries currently recorded"))
	m.standingsReads = auto.NewCounterVec(m.counterOpts("standings_reads_total",
		"Standings computations by sort direction"), []string{"direction"})
	m.duplicateScores = auto.NewCounter(m.counterOpts("duplicate_score_submissions_total",
		"Score submissions skipped because their idempotency key was already applied"))

	m.storageSaveLatency = auto.NewHistogram(m.histogramOpts("storage_save_latency_milliseconds",
		"Snapshot save latency in milliseconds"))
	m.storageLoadLatency = auto.NewHistogram(m.histogramOpts("storage_load_latency_milliseconds",
		"Snapshot load latency in milliseconds"))
	m.storageErrors = auto.NewCounterVec(m.counterOpts("storage_errors_total",
		"Storage failures by operation"), []string{"op"})
	m.storageBlobBytes = auto.NewGauge(m.gaugeOpts("storage_blob_bytes", "Size of the last saved snapshot"))

	m.commentaryGenerations = auto.NewCounterVec(m.counterOpts("commentary_generations_total",
		"Commentary generations by outcome (ok, empty, fallback)"), []string{"outcome"})
	m.commentaryLatency = auto.NewHistogram(m.histogramOpts("commentary_latency_milliseconds",
		"Commentary generation latency in milliseconds"))
	m.commentaryQueueSize = auto.NewGauge(m.gaugeOpts("commentary_queue_size", "Pending commentary jobs"))
	m.commentaryQueueCap = auto.NewGauge(m.gaugeOpts("commentary_queue_capacity", "Commentary queue capacity"))
	m.commentaryEnqueueErrs = auto.NewCounterVec(m.counterOpts("commentary_enqueue_errors_total",
		"Rejected commentary jobs by reason"), []string{"reason"})
	m.exportsRendered = auto.NewCounter(m.counterOpts("exports_rendered_total", "Text exports rendered"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds"))
}

// Roster metrics.

// RecordRosterMutation counts a roster mutation. applied=false marks a silent no-op.
func RecordRosterMutation(op string, applied bool) {
	result := "applied"
	if !applied {
		result = "noop"
	}
	active().rosterMutations.WithLabelValues(op, result).Inc()
}

// UpdateRosterSize sets the player and score gauges.
func UpdateRosterSize(players, scores int) {
	active().rosterPlayers.Set(float64(players))
	active().rosterScores.Set(float64(scores))
}

// RecordStandingsRead counts a standings computation.
func RecordStandingsRead(direction string) {
	active().standingsReads.WithLabelValues(direction).Inc()
}

// RecordDuplicateScore counts a score submission skipped by its idempotency key.
func RecordDuplicateScore() {
	active().duplicateScores.Inc()
}

// Storage metrics.

// RecordStorageSave records a snapshot save and its size.
func RecordStorageSave(latencyMs float64, size int) {
	active().storageSaveLatency.Observe(latencyMs)
	active().storageBlobBytes.Set(float64(size))
}

// RecordStorageLoad records a snapshot load.
func RecordStorageLoad(latencyMs float64) {
	active().storageLoadLatency.Observe(latencyMs)
}

// RecordStorageError counts a failed storage operation.
func RecordStorageError(op string) {
	active().storageErrors.WithLabelValues(op).Inc()
}

// Commentary metrics.

// RecordCommentary records one generation attempt.
func RecordCommentary(outcome string, latencyMs float64) {
	active().commentaryGenerations.WithLabelValues(outcome).Inc()
	active().commentaryLatency.Observe(latencyMs)
}

// UpdateCommentaryQueue sets the commentary queue gauges.
func UpdateCommentaryQueue(size, capacity int) {
	active().commentaryQueueSize.Set(float64(size))
	active().commentaryQueueCap.Set(float64(capacity))
}

// RecordCommentaryEnqueueError counts a rejected commentary job.
func RecordCommentaryEnqueueError(reason string) {
	active().commentaryEnqueueErrs.WithLabelValues(reason).Inc()
}

// RecordExport counts a rendered text export.
func RecordExport() {
	active().exportsRendered.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	active().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	active().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	active().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	active().errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	active().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	active().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	active().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry holding the service metrics.
func GetRegistry() *prometheus.Registry {
	return global.Load().registry
}
