package activelearning

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"neurowatch/internal/activelearning/metrics"
	"neurowatch/internal/audit"
	"neurowatch/internal/platform/config"
	"neurowatch/pkg/domain"
	"neurowatch/pkg/requestcontext"
)

// Auditor is the slice of the audit publisher this service needs.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service applies the ambiguity predicate to incoming predictions and
// resolves pending queries when labels arrive.
type Service struct {
	store   Store
	cfg     config.Monitoring
	auditor Auditor
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(store Store, cfg config.Monitoring, auditor Auditor, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		auditor: auditor,
		metrics: m,
		log:     log,
	}
}

// ambiguous reports whether a prediction should be queued for review: the
// probability sits inside the ambiguity band (inclusive on both ends) and
// the model was not confident about it.
func (s *Service) ambiguous(probability, confidence float64) bool {
	inBand := probability >= s.cfg.AmbiguityLowBound && probability <= s.cfg.AmbiguityHighBound
	return inBand && confidence < s.cfg.ConfidenceCeiling
}

// Consider enqueues a review query when the prediction is ambiguous. Returns
// nil when the prediction does not qualify.
func (s *Service) Consider(ctx context.Context, subjectID domain.SubjectID, probability, confidence float64) (*Query, error) {
	if !s.ambiguous(probability, confidence) {
		return nil, nil
	}

	query := Query{
		ID:          domain.NewQueryID(),
		SubjectID:   subjectID,
		EnqueuedAt:  requestcontext.Now(ctx).UTC(),
		Probability: probability,
		Confidence:  confidence,
		Reason:      ReasonAmbiguous,
	}
	if err := s.store.Enqueue(ctx, query); err != nil {
		return nil, fmt.Errorf("enqueue review query: %w", err)
	}

	depth, err := s.store.Depth(ctx)
	if err != nil {
		depth = 0
	}
	s.metrics.ObserveEnqueue(depth)

	s.log.InfoContext(ctx, "prediction queued for expert review",
		"request_id", requestcontext.RequestID(ctx),
		"query_id", query.ID,
		"subject_id", subjectID,
		"probability", probability,
		"confidence", confidence,
	)
	return &query, nil
}

// Resolve removes every pending query for the subject. Called when a true
// label arrives; the label answers all open questions about the subject, not
// just the most recent one. The resolution itself is not retained as a queue
// entity; the audit event carries the label and the labeler's confidence.
func (s *Service) Resolve(ctx context.Context, subjectID domain.SubjectID, res Resolution) ([]Query, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}

	removed, err := s.store.Resolve(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve review queries: %w", err)
	}
	if len(removed) == 0 {
		return removed, nil
	}

	depth, err := s.store.Depth(ctx)
	if err != nil {
		depth = 0
	}
	s.metrics.ObserveResolve(len(removed), depth)

	if s.auditor != nil {
		event := audit.Event{
			SubjectID: string(subjectID),
			Action:    audit.ActionQueryResolved,
			Reason:    "true label attached",
			Detail: map[string]string{
				"resolved_queries":   strconv.Itoa(len(removed)),
				"label":              strconv.Itoa(res.Label),
				"labeler_confidence": strconv.FormatFloat(res.Confidence, 'g', -1, 64),
			},
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "failed to emit query resolution audit event",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
	}
	return removed, nil
}

// Recent returns up to limit pending queries, most recently enqueued first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Query, error) {
	return s.store.Recent(ctx, limit)
}

// Depth is the number of pending queries.
func (s *Service) Depth(ctx context.Context) (int, error) {
	return s.store.Depth(ctx)
}
