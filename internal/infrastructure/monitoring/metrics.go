package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Scoring backend metrics
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec

	// Popup metrics
	PopupsActive prometheus.Gauge
	PopupsOpened prometheus.Counter
	Phases       *prometheus.CounterVec
	CartItems    prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON health view
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON output
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	BackendCalls  int64   `json:"backend_calls"`
	BackendErrors int64   `json:"backend_errors"`
	ActivePopups  int64   `json:"active_popups"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoswipe_http_requests_total",
				Help: "Total number of bridge HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecoswipe_http_request_duration_seconds",
				Help:    "Bridge HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecoswipe_http_response_size_bytes",
				Help:    "Bridge HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		BackendCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoswipe_backend_calls_total",
				Help: "Total number of scoring backend calls",
			},
			[]string{"op", "outcome"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecoswipe_backend_call_duration_seconds",
				Help:    "Scoring backend call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 45},
			},
			[]string{"op"},
		),

		PopupsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ecoswipe_popups_active",
				Help: "Number of open popup sessions",
			},
		),
		PopupsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ecoswipe_popups_opened_total",
				Help: "Total number of popup sessions opened",
			},
		),
		Phases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoswipe_session_phases_total",
				Help: "Session phase transitions",
			},
			[]string{"phase"},
		),
		CartItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ecoswipe_cart_items",
				Help: "Number of items in the cart",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ecoswipe_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoswipe_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ecoswipe_uptime_seconds",
			Help: "Bridge uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a bridge HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveBackendCall records one scoring backend call
func (m *Metrics) ObserveBackendCall(op, outcome string, d time.Duration) {
	m.BackendCalls.WithLabelValues(op, outcome).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(d.Seconds())

	m.mu.Lock()
	m.snapshot.BackendCalls++
	if outcome != "ok" {
		m.snapshot.BackendErrors++
	}
	m.mu.Unlock()
}

// ObservePhase counts a session phase transition
func (m *Metrics) ObservePhase(phase string) {
	m.Phases.WithLabelValues(phase).Inc()
}

// SetPopupsActive sets the number of open popups
func (m *Metrics) SetPopupsActive(count int) {
	m.PopupsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActivePopups = int64(count)
	m.mu.Unlock()
}

// IncPopupsOpened increments the popups opened counter
func (m *Metrics) IncPopupsOpened() {
	m.PopupsOpened.Inc()
}

// SetCartItems sets the cart size
func (m *Metrics) SetCartItems(count int) {
	m.CartItems.Set(float64(count))
}

// RecordWSMessage records a WebSocket message ("in" or "out")
func (m *Metrics) RecordWSMessage(direction string) {
	m.WSMessages.WithLabelValues(direction).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
