package stream

import "github.com/prometheus/client_golang/prometheus"

// Metric names.
const (
	MetricStreamSubscribers = "stream_subscribers"
	MetricStreamEventsSent  = "stream_events_sent_total"
	MetricStreamDropped     = "stream_subscribers_dropped_total"
)

// Metrics tracks WebSocket fan-out.
type Metrics struct {
	subscribers prometheus.Gauge
	eventsSent  prometheus.Counter
	dropped     prometheus.Counter
}

// NewMetrics creates unregistered stream metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricStreamSubscribers,
			Help: "Number of connected snapshot stream subscribers",
		}),
		eventsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStreamEventsSent,
			Help: "Total number of events queued to subscribers",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStreamDropped,
			Help: "Total number of subscribers disconnected for falling behind",
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.subscribers, m.eventsSent, m.dropped} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// SetSubscribers sets the subscriber gauge.
func (m *Metrics) SetSubscribers(n int) { m.subscribers.Set(float64(n)) }

// IncEventsSent counts one queued event.
func (m *Metrics) IncEventsSent() { m.eventsSent.Inc() }

// IncDropped counts one disconnected slow subscriber.
func (m *Metrics) IncDropped() { m.dropped.Inc() }
