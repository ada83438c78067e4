// Package monitor is the ingest seam of the system: predictions enter the
// event log here, labels attach here, and label arrival fans out to the
// review queue and the audit trail.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/audit"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/fairness"
	"neurowatch/internal/monitor/metrics"
	"neurowatch/pkg/domain"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/requestcontext"
)

// Queue is the slice of the active learning service the monitor needs.
type Queue interface {
	Consider(ctx context.Context, subjectID domain.SubjectID, probability, confidence float64) (*activelearning.Query, error)
	Resolve(ctx context.Context, subjectID domain.SubjectID, res activelearning.Resolution) ([]activelearning.Query, error)
}

// Auditor is the slice of the audit publisher the monitor needs.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FairnessSource yields the subgroup analysis for a window.
type FairnessSource interface {
	Analyze(ctx context.Context, windowDays int) (*fairness.Report, error)
}

// Service orchestrates prediction ingest and label attachment.
type Service struct {
	log      *slog.Logger
	events   eventlog.Store
	queue    Queue
	auditor  Auditor
	fairness FairnessSource
	metrics  *metrics.Metrics

	fairnessMu   sync.RWMutex
	lastFairness *fairness.Report
}

func NewService(
	events eventlog.Store,
	queue Queue,
	auditor Auditor,
	fairnessSource FairnessSource,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		log:      log,
		events:   events,
		queue:    queue,
		auditor:  auditor,
		fairness: fairnessSource,
		metrics:  m,
	}
}

// LogPrediction validates and appends one prediction event, then checks it
// for active learning. Events that arrive pre-labeled skip the review queue;
// there is nothing left to ask an expert.
func (s *Service) LogPrediction(ctx context.Context, event eventlog.PredictionEvent) (eventlog.PredictionEvent, *activelearning.Query, error) {
	if event.ID.IsNil() {
		event.ID = domain.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if err := event.Validate(); err != nil {
		return eventlog.PredictionEvent{}, nil, err
	}

	if err := s.events.Append(ctx, event); err != nil {
		return eventlog.PredictionEvent{}, nil, fmt.Errorf("append prediction event: %w", err)
	}

	var query *activelearning.Query
	if !event.Labeled() {
		var err error
		query, err = s.queue.Consider(ctx, event.SubjectID, event.Prediction.Probability, event.Prediction.Confidence)
		if err != nil {
			// The event is already durable; a queue fault must not turn a
			// logged prediction into a client error.
			s.log.ErrorContext(ctx, "active learning check failed",
				"request_id", requestcontext.RequestID(ctx),
				"event_id", event.ID,
				"error", err,
			)
			query = nil
		}
	}
	s.metrics.ObservePrediction(query != nil)

	return event, query, nil
}

// AttachLabel attaches ground truth to a specific event, resolves the
// subject's pending review queries and audits the attachment.
func (s *Service) AttachLabel(ctx context.Context, eventID domain.EventID, label int) error {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.events.AttachLabel(ctx, eventID, label); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyLabeled) {
			s.metrics.ObserveLabelConflict()
		}
		return err
	}
	s.afterLabel(ctx, event.SubjectID, eventID, label)
	return nil
}

// AttachLabelBySubject labels the subject's most recent unlabeled event.
// Outcome data usually arrives keyed by subject, long after the prediction.
func (s *Service) AttachLabelBySubject(ctx context.Context, subjectID domain.SubjectID, label int) (domain.EventID, error) {
	eventID, err := s.events.AttachLabelBySubject(ctx, subjectID, label)
	if err != nil {
		return domain.EventID{}, err
	}
	s.afterLabel(ctx, subjectID, eventID, label)
	return eventID, nil
}

func (s *Service) afterLabel(ctx context.Context, subjectID domain.SubjectID, eventID domain.EventID, label int) {
	s.metrics.ObserveLabelAttached()

	// A reported outcome is ground truth, so the resolution carries full
	// labeler confidence.
	res := activelearning.Resolution{Label: label, Confidence: 1}
	if _, err := s.queue.Resolve(ctx, subjectID, res); err != nil {
		s.log.ErrorContext(ctx, "failed to resolve review queries after label",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID,
			"error", err,
		)
	}

	if s.auditor != nil {
		event := audit.Event{
			SubjectID: string(subjectID),
			Action:    audit.ActionLabelAttached,
			Reason:    "ground truth reported",
			Detail: map[string]string{
				"event_id": eventID.String(),
				"label":    strconv.Itoa(label),
			},
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "failed to emit label audit event",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
}

// Fairness runs the subgroup analysis and caches the result for snapshots.
func (s *Service) Fairness(ctx context.Context, windowDays int) (*fairness.Report, error) {
	report, err := s.fairness.Analyze(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	s.fairnessMu.Lock()
	s.lastFairness = report
	s.fairnessMu.Unlock()
	return report, nil
}

// Last returns the cached fairness analysis, nil when none has run.
func (s *Service) Last() *fairness.Report {
	s.fairnessMu.RLock()
	defer s.fairnessMu.RUnlock()
	return s.lastFairness
}

// SetLast installs a fairness analysis into the cache. Snapshot restore.
func (s *Service) SetLast(report *fairness.Report) {
	s.fairnessMu.Lock()
	defer s.fairnessMu.Unlock()
	s.lastFairness = report
}
