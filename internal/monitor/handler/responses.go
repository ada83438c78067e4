package handler

import (
	"time"

	"neurowatch/internal/activelearning"
)

type logPredictionResponse struct {
	EventID   string                `json:"event_id"`
	Timestamp time.Time             `json:"timestamp"`
	Queued    *activelearning.Query `json:"review_query,omitempty"`
}

type attachLabelResponse struct {
	EventID   string `json:"event_id"`
	SubjectID string `json:"subject_id,omitempty"`
	Label     int    `json:"label"`
}

type healthResponse struct {
	Status string `json:"status"`
}
