package retrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"neurowatch/internal/audit"
	"neurowatch/internal/drift"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/performance"
	"neurowatch/internal/retrain/metrics"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/requestcontext"
)

// performanceWindowDays is the short window the degradation check looks at.
// Deliberately tighter than reporting windows so a fresh regression is not
// averaged away by a month of healthy history.
const performanceWindowDays = 7

// PerformanceSource yields recent performance metrics.
type PerformanceSource interface {
	Calculate(ctx context.Context, windowDays int) (*performance.Metrics, error)
}

// DriftSource yields the most recent drift verdict.
type DriftSource interface {
	Latest(ctx context.Context) (drift.Summary, error)
}

// Auditor is the slice of the audit publisher this service needs.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service gathers policy inputs from the other modules and runs the policy.
type Service struct {
	policy      *Policy
	perf        PerformanceSource
	driftSource DriftSource
	versions    modelversion.Store
	eventLog    eventlog.Store
	auditor     Auditor
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func NewService(
	policy *Policy,
	perf PerformanceSource,
	driftSource DriftSource,
	versions modelversion.Store,
	eventLog eventlog.Store,
	auditor Auditor,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		policy:      policy,
		perf:        perf,
		driftSource: driftSource,
		versions:    versions,
		eventLog:    eventLog,
		auditor:     auditor,
		metrics:     m,
		log:         log,
	}
}

// Evaluate assembles the policy inputs and returns the recommendation.
// Missing inputs (no metrics yet, no drift run, no activation) soften to
// skipped checks; infrastructure failures do not.
func (s *Service) Evaluate(ctx context.Context) (Decision, error) {
	in := Inputs{Now: requestcontext.Now(ctx).UTC()}

	perf, err := s.perf.Calculate(ctx, performanceWindowDays)
	switch {
	case err == nil:
		in.Performance = perf
	case dErrors.HasCode(err, dErrors.CodeInsufficientData):
		// Not enough labels this week; skip the degradation check.
	default:
		return Decision{}, fmt.Errorf("calculate recent performance: %w", err)
	}

	latestDrift, err := s.driftSource.Latest(ctx)
	switch {
	case err == nil:
		in.LatestDrift = &latestDrift
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return Decision{}, fmt.Errorf("load latest drift summary: %w", err)
	}

	activation, err := s.versions.Latest(ctx)
	switch {
	case err == nil:
		in.LastActivation = &activation.ActivatedAt
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return Decision{}, fmt.Errorf("load latest model activation: %w", err)
	}

	counts, err := s.eventLog.Counts(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("count labeled events: %w", err)
	}
	in.LabeledCount = counts.Labeled

	decision := s.policy.Evaluate(in)
	s.metrics.ObserveEvaluation(decision.ShouldRetrain, len(decision.Reasons))

	s.log.InfoContext(ctx, "retrain policy evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"should_retrain", decision.ShouldRetrain,
		"reasons", len(decision.Reasons),
	)

	if decision.ShouldRetrain && s.auditor != nil {
		event := audit.Event{
			Action: audit.ActionRetrainRecommended,
			Reason: strings.Join(decision.Reasons, "; "),
			Detail: map[string]string{
				"labeled_events": strconv.Itoa(in.LabeledCount),
			},
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "failed to emit retrain audit event",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
	}

	return decision, nil
}
