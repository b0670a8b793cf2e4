package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricIngestCyclesTotal       = "graph_ingest_cycles_total"
	MetricIngestDuration          = "graph_ingest_duration_seconds"
	MetricIngestLastEntities      = "graph_ingest_last_entities"
	MetricIngestLastEdges         = "graph_ingest_last_edges"
	MetricIngestLastSuccessUnixTs = "graph_ingest_last_success_timestamp"
)

// Metrics contains Prometheus metrics for graph ingestion.
type Metrics struct {
	cycles      *prometheus.CounterVec
	duration    prometheus.Histogram
	entities    prometheus.Gauge
	edges       prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewMetrics creates unregistered ingestion metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricIngestCyclesTotal,
			Help: "Total number of graph ingestion cycles by status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricIngestDuration,
			Help:    "Histogram of graph ingestion cycle duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricIngestLastEntities,
			Help: "Number of entities in the last published snapshot",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricIngestLastEdges,
			Help: "Number of edges in the last published snapshot",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricIngestLastSuccessUnixTs,
			Help: "Unix timestamp of the last successful ingestion cycle",
		}),
	}
}

// Register registers all metrics with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.cycles, m.duration, m.entities, m.edges, m.lastSuccess}
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(status string, seconds float64) {
	m.cycles.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

// SetLastSnapshot records the size of the last published snapshot.
func (m *Metrics) SetLastSnapshot(entities, edges int, at time.Time) {
	m.entities.Set(float64(entities))
	m.edges.Set(float64(edges))
	m.lastSuccess.Set(float64(at.Unix()))
}
