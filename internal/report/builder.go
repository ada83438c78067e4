// Package report assembles the full monitoring picture from the other
// modules. It is read-only composition: nothing here mutates state.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/performance"
	"neurowatch/internal/retrain"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/requestcontext"
)

const (
	tracerName = "neurowatch/report"

	// Window defaults mirror the standalone endpoints.
	reportWindowDays = 30
	recentQueryLimit = 5
)

// PerformanceSource yields performance metrics for a window.
type PerformanceSource interface {
	Calculate(ctx context.Context, windowDays int) (*performance.Metrics, error)
}

// FairnessSource yields the subgroup analysis for a window. Reports go
// through the monitor service rather than the analyzer so the snapshot's
// cached fairness metrics stay current.
type FairnessSource interface {
	Fairness(ctx context.Context, windowDays int) (*fairness.Report, error)
}

// RetrainSource yields the current retrain recommendation.
type RetrainSource interface {
	Evaluate(ctx context.Context) (retrain.Decision, error)
}

// QueueSource yields the review queue status.
type QueueSource interface {
	Recent(ctx context.Context, limit int) ([]activelearning.Query, error)
	Depth(ctx context.Context) (int, error)
}

// Builder composes one Report from all monitoring modules.
type Builder struct {
	perf     PerformanceSource
	fairness FairnessSource
	retrain  RetrainSource
	queue    QueueSource
	versions modelversion.Store
	eventLog eventlog.Store
	log      *slog.Logger
}

func NewBuilder(
	perf PerformanceSource,
	fairnessSource FairnessSource,
	retrainSource RetrainSource,
	queue QueueSource,
	versions modelversion.Store,
	eventLog eventlog.Store,
	log *slog.Logger,
) *Builder {
	return &Builder{
		perf:     perf,
		fairness: fairnessSource,
		retrain:  retrainSource,
		queue:    queue,
		versions: versions,
		eventLog: eventLog,
		log:      log,
	}
}

// Build assembles the report. Sections degrade independently: insufficient
// data turns into a note, infrastructure failures abort the whole report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "report.build")
	defer span.End()

	report := &Report{GeneratedAt: requestcontext.Now(ctx).UTC()}

	if err := b.buildPerformance(ctx, tracer, report); err != nil {
		return nil, err
	}
	if err := b.buildFairness(ctx, tracer, report); err != nil {
		return nil, err
	}
	if err := b.buildRetrain(ctx, tracer, report); err != nil {
		return nil, err
	}
	if err := b.buildActiveLearning(ctx, tracer, report); err != nil {
		return nil, err
	}
	if err := b.buildModelManagement(ctx, tracer, report); err != nil {
		return nil, err
	}
	if err := b.buildDataQuality(ctx, tracer, report); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("report.retrain_recommended", report.Retrain.ShouldRetrain),
		attribute.Int("report.pending_queries", report.ActiveLearning.PendingQueries),
	)
	b.log.InfoContext(ctx, "monitoring report generated",
		"request_id", requestcontext.RequestID(ctx),
		"retrain_recommended", report.Retrain.ShouldRetrain,
	)
	return report, nil
}

func (b *Builder) buildPerformance(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.performance")
	defer span.End()

	metrics, err := b.perf.Calculate(ctx, reportWindowDays)
	switch {
	case err == nil:
		report.Performance = metrics
	case dErrors.HasCode(err, dErrors.CodeInsufficientData):
		report.PerformanceNote = descriptionOf(err)
	default:
		return fmt.Errorf("performance section: %w", err)
	}
	return nil
}

func (b *Builder) buildFairness(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.fairness")
	defer span.End()

	analysis, err := b.fairness.Fairness(ctx, reportWindowDays)
	switch {
	case err == nil:
		report.Fairness = analysis
	case dErrors.HasCode(err, dErrors.CodeInsufficientData):
		report.FairnessNote = descriptionOf(err)
	default:
		return fmt.Errorf("fairness section: %w", err)
	}
	return nil
}

func (b *Builder) buildRetrain(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.retrain")
	defer span.End()

	decision, err := b.retrain.Evaluate(ctx)
	if err != nil {
		return fmt.Errorf("retrain section: %w", err)
	}
	report.Retrain = decision
	return nil
}

func (b *Builder) buildActiveLearning(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.active_learning")
	defer span.End()

	depth, err := b.queue.Depth(ctx)
	if err != nil {
		return fmt.Errorf("queue depth: %w", err)
	}
	recent, err := b.queue.Recent(ctx, recentQueryLimit)
	if err != nil {
		return fmt.Errorf("recent queries: %w", err)
	}
	if recent == nil {
		recent = []activelearning.Query{}
	}
	report.ActiveLearning = ActiveLearning{PendingQueries: depth, RecentQueries: recent}
	return nil
}

func (b *Builder) buildModelManagement(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.model_management")
	defer span.End()

	count, err := b.versions.Count(ctx)
	if err != nil {
		return fmt.Errorf("count model versions: %w", err)
	}
	report.ModelManagement = ModelManagement{TotalVersions: count}

	latest, err := b.versions.Latest(ctx)
	switch {
	case err == nil:
		report.ModelManagement.LatestVersion = &latest
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return fmt.Errorf("latest model version: %w", err)
	}
	return nil
}

func (b *Builder) buildDataQuality(ctx context.Context, tracer trace.Tracer, report *Report) error {
	ctx, span := tracer.Start(ctx, "report.data_quality")
	defer span.End()

	counts, err := b.eventLog.Counts(ctx)
	if err != nil {
		return fmt.Errorf("event counts: %w", err)
	}
	report.DataQuality = DataQuality{
		TotalPredictions:   counts.Total,
		LabeledPredictions: counts.Labeled,
		LabelRate:          counts.LabelRate(),
	}
	return nil
}

func descriptionOf(err error) string {
	if de, ok := dErrors.As(err); ok && de.Description != "" {
		return de.Description
	}
	return "insufficient data"
}
