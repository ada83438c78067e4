package report

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/performance"
	"neurowatch/internal/retrain"
	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/requestcontext"
)

type fakePerf struct {
	metrics *performance.Metrics
	err     error
}

func (f *fakePerf) Calculate(context.Context, int) (*performance.Metrics, error) {
	return f.metrics, f.err
}

type fakeFairness struct {
	report *fairness.Report
	err    error
}

func (f *fakeFairness) Fairness(context.Context, int) (*fairness.Report, error) {
	return f.report, f.err
}

type fakeRetrain struct {
	decision retrain.Decision
	err      error
}

func (f *fakeRetrain) Evaluate(context.Context) (retrain.Decision, error) {
	return f.decision, f.err
}

type BuilderSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	perf     *fakePerf
	fair     *fakeFairness
	retr     *fakeRetrain
	queue    *activelearning.InMemoryStore
	versions *modelversion.InMemoryStore
	eventLog *eventlog.InMemoryStore
	builder  *Builder
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) SetupTest() {
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.perf = &fakePerf{err: dErrors.New(dErrors.CodeInsufficientData, "need 10 labeled events, have 2")}
	s.fair = &fakeFairness{err: dErrors.New(dErrors.CodeInsufficientData, "fairness analysis requires 50 labeled events, have 2")}
	s.retr = &fakeRetrain{}
	s.queue = activelearning.NewInMemoryStore()
	s.versions = modelversion.NewInMemoryStore()
	s.eventLog = eventlog.NewInMemoryStore()
	s.builder = NewBuilder(s.perf, s.fair, s.retr, s.queue, s.versions, s.eventLog, slog.Default())
}

func (s *BuilderSuite) TestEmptySystemDegradesToNotes() {
	report, err := s.builder.Build(s.ctx)
	s.Require().NoError(err)

	s.Equal(s.now, report.GeneratedAt)
	s.Nil(report.Performance)
	s.Contains(report.PerformanceNote, "labeled events")
	s.Nil(report.Fairness)
	s.Contains(report.FairnessNote, "fairness analysis")
	s.False(report.Retrain.ShouldRetrain)
	s.Zero(report.ActiveLearning.PendingQueries)
	s.NotNil(report.ActiveLearning.RecentQueries)
	s.Zero(report.ModelManagement.TotalVersions)
	s.Nil(report.ModelManagement.LatestVersion)
	s.Zero(report.DataQuality.TotalPredictions)
}

func (s *BuilderSuite) TestFullSections() {
	s.perf.metrics = &performance.Metrics{AUC: 0.91, SampleSize: 200}
	s.perf.err = nil
	s.fair.report = &fairness.Report{SampleSize: 200}
	s.fair.err = nil
	s.retr.decision = retrain.Decision{ShouldRetrain: true, Reasons: []string{"significant data drift detected"}}

	for i := 0; i < 7; i++ {
		s.Require().NoError(s.queue.Enqueue(s.ctx, activelearning.Query{
			ID:         domain.NewQueryID(),
			SubjectID:  "subject-1",
			EnqueuedAt: s.now.Add(time.Duration(i) * time.Minute),
			Reason:     activelearning.ReasonAmbiguous,
		}))
	}
	s.Require().NoError(s.versions.Append(s.ctx, modelversion.Record{Version: "v3", ActivatedAt: s.now}))

	label := 1
	s.Require().NoError(s.eventLog.Append(s.ctx, eventlog.PredictionEvent{
		ID:          domain.NewEventID(),
		Timestamp:   s.now,
		SubjectID:   "subject-1",
		Prediction:  eventlog.Prediction{Probability: 0.9, Confidence: 0.9, ModelVersion: "v3"},
		ActualLabel: &label,
	}))
	s.Require().NoError(s.eventLog.Append(s.ctx, eventlog.PredictionEvent{
		ID:         domain.NewEventID(),
		Timestamp:  s.now,
		SubjectID:  "subject-2",
		Prediction: eventlog.Prediction{Probability: 0.2, Confidence: 0.9, ModelVersion: "v3"},
	}))

	report, err := s.builder.Build(s.ctx)
	s.Require().NoError(err)

	s.Require().NotNil(report.Performance)
	s.Equal(0.91, report.Performance.AUC)
	s.Empty(report.PerformanceNote)
	s.Require().NotNil(report.Fairness)
	s.True(report.Retrain.ShouldRetrain)
	s.Equal(7, report.ActiveLearning.PendingQueries)
	s.Len(report.ActiveLearning.RecentQueries, 5)
	s.Equal(1, report.ModelManagement.TotalVersions)
	s.Equal("v3", report.ModelManagement.LatestVersion.Version)
	s.Equal(2, report.DataQuality.TotalPredictions)
	s.Equal(1, report.DataQuality.LabeledPredictions)
	s.InDelta(0.5, report.DataQuality.LabelRate, 1e-9)
}

func (s *BuilderSuite) TestInfrastructureFailureAborts() {
	s.retr.err = dErrors.New(dErrors.CodeInternal, "store unavailable")

	_, err := s.builder.Build(s.ctx)
	s.Require().Error(err)
}
