package api

import (
	"net/http"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. It records connection worker
// activity and receives stats snapshots from the reporter.
type Metrics struct {
	registry *prometheus.Registry

	// Request metrics
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	// Connection metrics
	connectionsTotal  prometheus.Counter
	connectionErrors  prometheus.Counter
	connectionsActive prometheus.Gauge

	// Store metrics, refreshed from snapshots
	tuples         prometheus.Gauge
	avgKeyLength   prometheus.Gauge
	avgValueLength prometheus.Gauge
	clientsTotal   prometheus.Gauge
	operations     *prometheus.GaugeVec

	// Admin HTTP metrics
	httpRequests *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tuplespace_request_duration_seconds",
				Help:    "Duration of tuple space requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuplespace_requests_total",
				Help: "Total number of tuple space requests",
			},
			[]string{"op", "status"},
		),

		connectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tuplespace_connections_total",
				Help: "Total number of accepted connections",
			},
		),
		connectionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tuplespace_connection_errors_total",
				Help: "Total number of connections ended by a transport error",
			},
		),
		connectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_connections_active",
				Help: "Number of open connections",
			},
		),

		tuples: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_tuples",
				Help: "Number of tuples in the space",
			},
		),
		avgKeyLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_avg_key_length",
				Help: "Mean key length in bytes",
			},
		),
		avgValueLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_avg_value_length",
				Help: "Mean value length in bytes",
			},
		),
		clientsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_clients_connected",
				Help: "Clients connected since start, as counted by the store",
			},
		),
		operations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tuplespace_operations",
				Help: "Operation counters as counted by the store",
			},
			[]string{"op"},
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuplespace_admin_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one answered request
func (m *Metrics) ObserveRequest(op, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(op, status).Inc()
}

func (m *Metrics) ConnectionOpened() {
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.connectionsActive.Dec()
}

func (m *Metrics) ConnectionFailed() {
	m.connectionErrors.Inc()
}

// Emit refreshes the store gauges from a stats snapshot
func (m *Metrics) Emit(s storage.Stats) {
	m.tuples.Set(float64(s.Tuples))
	m.avgKeyLength.Set(s.AvgKeyLen)
	m.avgValueLength.Set(s.AvgValueLen)
	m.clientsTotal.Set(float64(s.ClientsConnected))
	for op, n := range s.Ops {
		m.operations.WithLabelValues(string(op)).Set(float64(n))
	}
}

func (m *Metrics) observeHTTP(method, path string, status int) {
	m.httpRequests.WithLabelValues(method, path, http.StatusText(status)).Inc()
}
