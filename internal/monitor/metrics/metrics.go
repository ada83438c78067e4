package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the monitor ingest path.
type Metrics struct {
	PredictionsLogged *prometheus.CounterVec
	LabelsAttached    prometheus.Counter
	LabelConflicts    prometheus.Counter
}

// New creates a Metrics instance with all monitor metrics registered.
func New() *Metrics {
	return &Metrics{
		PredictionsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "neurowatch_predictions_logged_total",
			Help: "Total prediction events accepted into the log",
		}, []string{"queued"}), // queued: "yes" when flagged for review

		LabelsAttached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "neurowatch_labels_attached_total",
			Help: "Total ground-truth labels attached",
		}),

		LabelConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "neurowatch_label_conflicts_total",
			Help: "Label attachments rejected because the event was already labeled",
		}),
	}
}

func (m *Metrics) ObservePrediction(queued bool) {
	if m == nil {
		return
	}
	label := "no"
	if queued {
		label = "yes"
	}
	m.PredictionsLogged.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveLabelAttached() {
	if m == nil {
		return
	}
	m.LabelsAttached.Inc()
}

func (m *Metrics) ObserveLabelConflict() {
	if m == nil {
		return
	}
	m.LabelConflicts.Inc()
}
