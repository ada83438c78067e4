package report

import (
	"time"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/performance"
	"neurowatch/internal/retrain"
)

// Report is the operator-facing monitoring summary. Sections that lack the
// data to compute carry a note instead of numbers; the report never fails
// because one section cannot be built.
type Report struct {
	GeneratedAt     time.Time            `json:"timestamp"`
	Performance     *performance.Metrics `json:"performance_metrics,omitempty"`
	PerformanceNote string               `json:"performance_note,omitempty"`
	Fairness        *fairness.Report     `json:"fairness_metrics,omitempty"`
	FairnessNote    string               `json:"fairness_note,omitempty"`
	Retrain         retrain.Decision     `json:"retrain_recommendation"`
	ActiveLearning  ActiveLearning       `json:"active_learning"`
	ModelManagement ModelManagement      `json:"model_management"`
	DataQuality     DataQuality          `json:"data_quality"`
}

// ActiveLearning summarizes the expert review queue.
type ActiveLearning struct {
	PendingQueries int                    `json:"pending_queries"`
	RecentQueries  []activelearning.Query `json:"recent_queries"`
}

// ModelManagement summarizes activation history.
type ModelManagement struct {
	TotalVersions int                  `json:"total_versions"`
	LatestVersion *modelversion.Record `json:"latest_version,omitempty"`
}

// DataQuality summarizes label coverage of the event log.
type DataQuality struct {
	TotalPredictions   int     `json:"total_predictions"`
	LabeledPredictions int     `json:"labeled_predictions"`
	LabelRate          float64 `json:"label_rate"`
}
