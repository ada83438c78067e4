package drift

import "time"

// FeatureDrift is the per-feature comparison of a reference and a current
// batch. Produced transiently per detection call; only the Summary is
// persisted.
type FeatureDrift struct {
	ReferenceMean float64 `json:"reference_mean"`
	ReferenceStd  float64 `json:"reference_std"`
	CurrentMean   float64 `json:"current_mean"`
	CurrentStd    float64 `json:"current_std"`
	Score         float64 `json:"drift_score"`
	Drifted       bool    `json:"drift_detected"`
}

// Summary is the aggregate verdict for one detection call. Appended to the
// drift history, unbounded; retention is an external concern.
type Summary struct {
	Detected        bool      `json:"overall_drift_detected"`
	MaxScore        float64   `json:"max_drift_score"`
	Threshold       float64   `json:"drift_threshold"`
	DriftedFeatures []string  `json:"features_with_drift"`
	DetectedAt      time.Time `json:"detection_timestamp"`
}

// Report is the full synchronous result of one detection call.
type Report struct {
	Summary  Summary                 `json:"drift_summary"`
	Features map[string]FeatureDrift `json:"feature_drift"`
}
