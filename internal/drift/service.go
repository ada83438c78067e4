package drift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"neurowatch/internal/audit"
	"neurowatch/internal/drift/metrics"
	"neurowatch/pkg/requestcontext"
)

// Auditor is the slice of the audit publisher the drift service needs.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs drift detections, records them in history and surfaces
// detections to the audit trail.
type Service struct {
	detector *Detector
	history  HistoryStore
	auditor  Auditor
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewService(detector *Detector, history HistoryStore, auditor Auditor, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		detector: detector,
		history:  history,
		auditor:  auditor,
		metrics:  m,
		log:      log,
	}
}

// Detect compares the two feature batches, appends the summary to history and
// emits a drift_detected audit event when any feature crossed the threshold.
func (s *Service) Detect(ctx context.Context, reference, current map[string][]float64) (*Report, error) {
	report, err := s.detector.Compare(reference, current, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}

	if err := s.history.Append(ctx, report.Summary); err != nil {
		return nil, fmt.Errorf("append drift history: %w", err)
	}
	s.metrics.ObserveDetection(report.Summary.Detected, report.Summary.MaxScore, len(report.Summary.DriftedFeatures))

	s.log.InfoContext(ctx, "drift detection completed",
		"request_id", requestcontext.RequestID(ctx),
		"drift_detected", report.Summary.Detected,
		"max_drift_score", report.Summary.MaxScore,
		"features_with_drift", len(report.Summary.DriftedFeatures),
	)

	if report.Summary.Detected && s.auditor != nil {
		event := audit.Event{
			Action: audit.ActionDriftDetected,
			Reason: fmt.Sprintf("drift above threshold %.2f", report.Summary.Threshold),
			Detail: map[string]string{
				"max_drift_score":     fmt.Sprintf("%.6f", report.Summary.MaxScore),
				"features_with_drift": strings.Join(report.Summary.DriftedFeatures, ","),
			},
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "failed to emit drift audit event",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
	}

	return report, nil
}

// Latest returns the most recent detection summary.
func (s *Service) Latest(ctx context.Context) (Summary, error) {
	return s.history.Latest(ctx)
}

// History returns up to limit recent detection summaries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Summary, error) {
	return s.history.ListRecent(ctx, limit)
}
