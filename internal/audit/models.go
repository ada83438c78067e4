package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the monitored operation an audit event records.
type Action string

const (
	ActionLabelAttached      Action = "label_attached"
	ActionQueryResolved      Action = "query_resolved"
	ActionRetrainRecommended Action = "retrain_recommended"
	ActionDriftDetected      Action = "drift_detected"
)

// Event is emitted from domain logic to capture key monitoring actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	SubjectID string            `json:"subject_id,omitempty"`
	Action    Action            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
