package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the drift module.
type Metrics struct {
	Detections      *prometheus.CounterVec
	MaxScore        prometheus.Gauge
	DriftedFeatures prometheus.Gauge
}

// New creates a Metrics instance with all drift metrics registered.
func New() *Metrics {
	return &Metrics{
		Detections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "neurowatch_drift_detections_total",
			Help: "Total drift detection runs by verdict",
		}, []string{"verdict"}), // verdict: "drift", "stable"

		MaxScore: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "neurowatch_drift_max_score",
			Help: "Max per-feature drift score from the most recent detection",
		}),

		DriftedFeatures: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "neurowatch_drift_features_drifted",
			Help: "Number of drifted features in the most recent detection",
		}),
	}
}

// ObserveDetection records the outcome of one detection run.
func (m *Metrics) ObserveDetection(detected bool, maxScore float64, driftedFeatures int) {
	if m == nil {
		return
	}
	verdict := "stable"
	if detected {
		verdict = "drift"
	}
	m.Detections.WithLabelValues(verdict).Inc()
	m.MaxScore.Set(maxScore)
	m.DriftedFeatures.Set(float64(driftedFeatures))
}
