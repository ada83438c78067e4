// Package activelearning maintains the queue of predictions flagged for
// expert review. A prediction lands here when its probability falls in the
// ambiguous band and the model was not confident about it; attaching a true
// label for the subject resolves the queries.
package activelearning

import (
	"time"

	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
)

// ReasonAmbiguous is the only enqueue reason today. Kept as a field so
// future triggers (e.g. fairness-driven sampling) extend without a schema
// change.
const ReasonAmbiguous = "ambiguous_prediction"

// Query is one request for expert review of a prediction.
type Query struct {
	ID          domain.QueryID   `json:"query_id"`
	SubjectID   domain.SubjectID `json:"subject_id"`
	EnqueuedAt  time.Time        `json:"enqueued_at"`
	Probability float64          `json:"probability"`
	Confidence  float64          `json:"confidence"`
	Reason      string           `json:"reason"`
}

// Resolution is the expert's answer that closes a subject's pending queries.
// Queries are removed, not retained; the resolution itself survives only in
// the audit trail.
type Resolution struct {
	Label      int     `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (r Resolution) Validate() error {
	if r.Label != 0 && r.Label != 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "label must be 0 or 1")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "confidence must be in [0,1]")
	}
	return nil
}
