package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for retrain policy evaluations.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	Reasons     prometheus.Gauge
}

// New creates a Metrics instance with all retrain metrics registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "neurowatch_retrain_evaluations_total",
			Help: "Total retrain policy evaluations by recommendation",
		}, []string{"recommendation"}), // recommendation: "retrain", "hold"

		Reasons: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "neurowatch_retrain_active_reasons",
			Help: "Reasons firing in the most recent evaluation",
		}),
	}
}

func (m *Metrics) ObserveEvaluation(shouldRetrain bool, reasons int) {
	if m == nil {
		return
	}
	recommendation := "hold"
	if shouldRetrain {
		recommendation = "retrain"
	}
	m.Evaluations.WithLabelValues(recommendation).Inc()
	m.Reasons.Set(float64(reasons))
}
