package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the active learning queue.
type Metrics struct {
	Enqueued prometheus.Counter
	Resolved prometheus.Counter
	Depth    prometheus.Gauge
}

// New creates a Metrics instance with all queue metrics registered.
func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "neurowatch_active_learning_enqueued_total",
			Help: "Total predictions flagged for expert review",
		}),
		Resolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "neurowatch_active_learning_resolved_total",
			Help: "Total review queries resolved by label arrival",
		}),
		Depth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "neurowatch_active_learning_queue_depth",
			Help: "Pending review queries",
		}),
	}
}

func (m *Metrics) ObserveEnqueue(depth int) {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
	m.Depth.Set(float64(depth))
}

func (m *Metrics) ObserveResolve(removed, depth int) {
	if m == nil {
		return
	}
	m.Resolved.Add(float64(removed))
	m.Depth.Set(float64(depth))
}
