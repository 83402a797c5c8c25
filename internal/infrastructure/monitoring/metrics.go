package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tree metrics
	TaskGroupsActive prometheus.Gauge
	TaskGroupsTotal  prometheus.Counter
	UnitsActive      prometheus.Gauge

	// Lifecycle metrics
	LifecycleTransitions *prometheus.CounterVec
	PauseAckTimeouts     prometheus.Counter
	Relaunches           prometheus.Counter

	// Visibility metrics
	VisibilityResolutions *prometheus.CounterVec

	// Tree mutation metrics
	ReparentOps *prometheus.CounterVec
	ResizeOps   *prometheus.CounterVec

	// Organizer metrics
	OrganizerEvents *prometheus.CounterVec
	SnapshotsSaved  prometheus.Counter

	// Executor metrics
	LoopWait *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests    int64
	TotalErrors      int64
	ActiveTaskGroups int64
	ActiveUnits      int64
	Transitions      int64
	TotalDuration    float64 // sum of all request durations
	RequestCount     int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "windowd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Tree metrics
		TaskGroupsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowd_taskgroups_active",
				Help: "Number of task groups currently attached to the tree",
			},
		),
		TaskGroupsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowd_taskgroups_total",
				Help: "Total number of task groups ever created",
			},
		),
		UnitsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowd_units_active",
				Help: "Number of screen units not yet destroyed",
			},
		),

		// Lifecycle metrics
		LifecycleTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_lifecycle_transitions_total",
				Help: "Screen unit lifecycle transitions by target state",
			},
			[]string{"state"},
		),
		PauseAckTimeouts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowd_pause_ack_timeouts_total",
				Help: "Pauses completed by timeout instead of client ack",
			},
		),
		Relaunches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowd_relaunches_total",
				Help: "Screen units relaunched after process failure",
			},
		),

		// Visibility metrics
		VisibilityResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_visibility_resolutions_total",
				Help: "Visibility classifications computed, by result",
			},
			[]string{"result"},
		),

		// Tree mutation metrics
		ReparentOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_reparent_ops_total",
				Help: "Reparent operations by outcome",
			},
			[]string{"status"},
		),
		ResizeOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_resize_ops_total",
				Help: "Resize operations by outcome",
			},
			[]string{"status"},
		),

		// Organizer metrics
		OrganizerEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_organizer_events_total",
				Help: "Organizer callbacks dispatched, by kind",
			},
			[]string{"kind"},
		),
		SnapshotsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowd_snapshots_saved_total",
				Help: "Task snapshots handed to the persistence layer",
			},
		),

		// Executor metrics
		LoopWait: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "windowd_loop_wait_seconds",
				Help:    "Time a submitted mutation waited for the executor",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"op"},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowd_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowd_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowd_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTransition records a screen unit lifecycle transition
func (m *Metrics) RecordTransition(state string) {
	m.LifecycleTransitions.WithLabelValues(state).Inc()
	m.mu.Lock()
	m.snapshot.Transitions++
	m.mu.Unlock()
}

// RecordVisibility records one visibility classification
func (m *Metrics) RecordVisibility(result string) {
	m.VisibilityResolutions.WithLabelValues(result).Inc()
}

// RecordReparent records a reparent operation outcome
func (m *Metrics) RecordReparent(status string) {
	m.ReparentOps.WithLabelValues(status).Inc()
}

// RecordResize records a resize operation outcome
func (m *Metrics) RecordResize(status string) {
	m.ResizeOps.WithLabelValues(status).Inc()
}

// RecordOrganizerEvent records one organizer callback dispatch
func (m *Metrics) RecordOrganizerEvent(kind string) {
	m.OrganizerEvents.WithLabelValues(kind).Inc()
}

// RecordLoopWait records how long a mutation waited for the executor
func (m *Metrics) RecordLoopWait(op string, wait time.Duration) {
	m.LoopWait.WithLabelValues(op).Observe(wait.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetTaskGroupsActive sets the number of attached task groups
func (m *Metrics) SetTaskGroupsActive(count int) {
	m.TaskGroupsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveTaskGroups = int64(count)
	m.mu.Unlock()
}

// SetUnitsActive sets the number of live screen units
func (m *Metrics) SetUnitsActive(count int) {
	m.UnitsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveUnits = int64(count)
	m.mu.Unlock()
}

// IncTaskGroupsTotal increments the created task group counter
func (m *Metrics) IncTaskGroupsTotal() {
	m.TaskGroupsTotal.Inc()
}

// IncSnapshotsSaved increments the saved snapshot counter
func (m *Metrics) IncSnapshotsSaved() {
	m.SnapshotsSaved.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current JSON-API snapshot
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
