package handler

import (
	"time"

	"neurowatch/internal/eventlog"
	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
)

// logPredictionRequest mirrors the model service's output shape: probability
// and confidence arrive as single-element arrays from the batch scorer.
type logPredictionRequest struct {
	SubjectID  string          `json:"subject_id"`
	Features   map[string]any  `json:"features"`
	Prediction predictionInput `json:"prediction"`
	Label      *int            `json:"actual_label,omitempty"`
	Outcome    map[string]any  `json:"outcome,omitempty"`
}

type predictionInput struct {
	Probability  []float64 `json:"adhd_probability"`
	Confidence   []float64 `json:"calibrated_confidence"`
	ModelVersion string    `json:"model_version"`
}

func (r *logPredictionRequest) Validate() error {
	if len(r.Prediction.Probability) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "prediction.adhd_probability is required")
	}
	if len(r.Prediction.Confidence) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "prediction.calibrated_confidence is required")
	}
	return nil
}

// toEvent converts the wire shape to the domain event. Full validation
// happens on the event itself.
func (r *logPredictionRequest) toEvent() (eventlog.PredictionEvent, error) {
	subjectID, err := domain.ParseSubjectID(r.SubjectID)
	if err != nil {
		return eventlog.PredictionEvent{}, err
	}
	return eventlog.PredictionEvent{
		SubjectID: subjectID,
		Features:  r.Features,
		Prediction: eventlog.Prediction{
			Probability:  r.Prediction.Probability[0],
			Confidence:   r.Prediction.Confidence[0],
			ModelVersion: r.Prediction.ModelVersion,
		},
		ActualLabel: r.Label,
		Outcome:     r.Outcome,
	}, nil
}

type attachLabelRequest struct {
	Label *int `json:"label"`
}

func (r *attachLabelRequest) Validate() error {
	if r.Label == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "label is required")
	}
	if *r.Label != 0 && *r.Label != 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "label must be 0 or 1")
	}
	return nil
}

type activateVersionRequest struct {
	Version     string     `json:"version"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

func (r *activateVersionRequest) Validate() error {
	if r.Version == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "version is required")
	}
	return nil
}
