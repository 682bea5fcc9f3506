package infra

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process's Prometheus instruments on a private registry,
// so tests can build as many instances as they like without collisions.
type Metrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	DispatchedTotal    *prometheus.CounterVec
	DispatchCycles     prometheus.Counter
	DispatchDuration   prometheus.Histogram
	DispatchBatchSize  prometheus.Histogram
	OutboxPendingDepth prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers the full instrument set.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincore",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fincore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "route"},
	)

	m.DispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincore",
			Name:      "outbox_dispatched_total",
			Help:      "Outbox rows handled per cycle by destination scheme and resulting status",
		},
		[]string{"scheme", "status"},
	)

	m.DispatchCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fincore",
			Name:      "outbox_dispatch_cycles_total",
			Help:      "Completed dispatch cycles",
		},
	)

	m.DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fincore",
			Name:      "outbox_dispatch_duration_seconds",
			Help:      "Time to run one dispatch cycle",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	m.DispatchBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fincore",
			Name:      "outbox_dispatch_batch_size",
			Help:      "Outbox rows picked up per cycle",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	m.OutboxPendingDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fincore",
			Name:      "outbox_pending_depth",
			Help:      "PENDING outbox rows after the latest dispatch cycle",
		},
	)

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPDuration,
		m.DispatchedTotal,
		m.DispatchCycles,
		m.DispatchDuration,
		m.DispatchBatchSize,
		m.OutboxPendingDepth,
	)
	m.registry.MustRegister(prometheus.NewGoCollector())
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDispatched counts one outbox row outcome.
func (m *Metrics) RecordDispatched(scheme, status string) {
	m.DispatchedTotal.WithLabelValues(scheme, status).Inc()
}

// RecordDispatchCycle records a completed cycle.
func (m *Metrics) RecordDispatchCycle(batch int, duration time.Duration) {
	m.DispatchCycles.Inc()
	m.DispatchDuration.Observe(duration.Seconds())
	m.DispatchBatchSize.Observe(float64(batch))
}
