package eventlog

import (
	"time"

	id "neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
)

// Prediction is the immutable classifier output snapshot taken at scoring
// time. Once an event is appended this never changes.
type Prediction struct {
	Probability  float64 `json:"probability"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// PredictionEvent is one record per scored instance. Arrival order may
// differ from causal order in a distributed deployment, so nothing here
// assumes monotonic timestamps; windowing always filters by the Timestamp
// field.
type PredictionEvent struct {
	ID         id.EventID     `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	SubjectID  id.SubjectID   `json:"subject_id"`
	Features   map[string]any `json:"features,omitempty"`
	Prediction Prediction     `json:"prediction"`

	// ActualLabel is the optional ground truth (0/1), attached at most once
	// after the fact. Nil until a label arrives.
	ActualLabel *int `json:"actual_label,omitempty"`

	// Outcome is an auxiliary payload carried for downstream consumers; the
	// core never interprets it.
	Outcome map[string]any `json:"outcome,omitempty"`
}

// Labeled reports whether ground truth has been attached.
func (e PredictionEvent) Labeled() bool {
	return e.ActualLabel != nil
}

// Validate rejects malformed events. A violation rejects the single event,
// never the log.
func (e PredictionEvent) Validate() error {
	if e.SubjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	if e.Prediction.ModelVersion == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "prediction.model_version is required")
	}
	if e.Prediction.Probability < 0 || e.Prediction.Probability > 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "prediction.probability must be in [0,1]")
	}
	if e.Prediction.Confidence < 0 || e.Prediction.Confidence > 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "prediction.confidence must be in [0,1]")
	}
	if e.ActualLabel != nil && *e.ActualLabel != 0 && *e.ActualLabel != 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "actual_label must be 0 or 1")
	}
	return nil
}

// Counts summarizes log volume for the data-quality report section.
type Counts struct {
	Total   int `json:"total_predictions"`
	Labeled int `json:"labeled_predictions"`
}

// LabelRate returns labeled/total, guarding the empty log.
func (c Counts) LabelRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Labeled) / float64(c.Total)
}
