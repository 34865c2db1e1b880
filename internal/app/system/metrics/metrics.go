// internal/app/system/metrics/metrics.go

// Package metrics defines the Prometheus collectors exposed at /metrics.
//
// Collectors live on a private registry rather than the package-global
// default so tests can build isolated instances without registration
// conflicts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulsehub"

// Metrics holds every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	GraphQLOperations  *prometheus.CounterVec
	GraphQLErrors      prometheus.Counter
	GraphQLDuration    prometheus.Histogram
	WSConnections      prometheus.Gauge
	WSConnectionsTotal prometheus.Counter
	BusSubscribers     *prometheus.GaugeVec
	BusDropped         *prometheus.GaugeVec
}

// New creates the collector set on a fresh registry, including the
// standard Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		GraphQLOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operations_total",
				Help:      "Total number of GraphQL operations executed",
			},
			[]string{"kind"},
		),

		GraphQLErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "errors_total",
				Help:      "Total number of errors returned in GraphQL responses",
			},
		),

		GraphQLDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "request_duration_seconds",
				Help:      "GraphQL request execution time in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ws",
				Name:      "connections",
				Help:      "Currently open websocket subscription connections",
			},
		),

		WSConnectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ws",
				Name:      "connections_total",
				Help:      "Total number of websocket connections accepted",
			},
		),

		BusSubscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "subscribers",
				Help:      "Current subscribers per bus topic",
			},
			[]string{"topic"},
		),

		BusDropped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "dropped_events",
				Help:      "Events dropped per bus topic since startup (sampled)",
			},
			[]string{"topic"},
		),
	}

	m.registry.MustRegister(
		m.GraphQLOperations,
		m.GraphQLErrors,
		m.GraphQLDuration,
		m.WSConnections,
		m.WSConnectionsTotal,
		m.BusSubscribers,
		m.BusDropped,
	)
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordOperation counts one executed operation of the given kind
// (query, mutation, or subscription).
func (m *Metrics) RecordOperation(kind string) {
	m.GraphQLOperations.WithLabelValues(kind).Inc()
}

// RecordErrors counts errors carried in a single response.
func (m *Metrics) RecordErrors(n int) {
	if n > 0 {
		m.GraphQLErrors.Add(float64(n))
	}
}

// RecordDuration records one request's execution time.
func (m *Metrics) RecordDuration(d time.Duration) {
	m.GraphQLDuration.Observe(d.Seconds())
}

// WSOpened records a newly accepted websocket connection.
func (m *Metrics) WSOpened() {
	m.WSConnectionsTotal.Inc()
	m.WSConnections.Inc()
}

// WSClosed records a websocket connection ending.
func (m *Metrics) WSClosed() {
	m.WSConnections.Dec()
}

// SetBusTopic records one topic's sampled fan-out state.
func (m *Metrics) SetBusTopic(topic string, subscribers int, dropped uint64) {
	m.BusSubscribers.WithLabelValues(topic).Set(float64(subscribers))
	m.BusDropped.WithLabelValues(topic).Set(float64(dropped))
}
