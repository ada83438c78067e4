package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"neurowatch/internal/eventlog"
	"neurowatch/internal/platform/config"
	id "neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/requestcontext"
)

type CalculatorSuite struct {
	suite.Suite
	store *eventlog.InMemoryStore
	cfg   config.Monitoring
	ctx   context.Context
	now   time.Time
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) SetupTest() {
	s.store = eventlog.NewInMemoryStore()
	s.cfg = config.DefaultMonitoring()
	s.cfg.BootstrapSamples = 200 // keep suites fast; target count is irrelevant to correctness
	s.now = time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

// addLabeled appends a labeled event inside the window.
func (s *CalculatorSuite) addLabeled(i int, label int, prob float64) {
	event := eventlog.PredictionEvent{
		ID:        id.NewEventID(),
		Timestamp: s.now.Add(-time.Duration(i) * time.Hour),
		SubjectID: id.SubjectID(fmt.Sprintf("subj-%03d", i)),
		Prediction: eventlog.Prediction{
			Probability:  prob,
			Confidence:   0.9,
			ModelVersion: "v1.0",
		},
		ActualLabel: &label,
	}
	s.Require().NoError(s.store.Append(s.ctx, event))
}

// seedBalanced fills the window with a 30/70 class split and informative but
// imperfect scores.
func (s *CalculatorSuite) seedBalanced(n int) {
	for i := range n {
		if i%10 < 3 {
			// Positives mostly score high, with some overlap.
			s.addLabeled(i, 1, 0.55+0.04*float64(i%10))
		} else {
			s.addLabeled(i, 0, 0.15+0.05*float64(i%7))
		}
	}
}

func (s *CalculatorSuite) TestInsufficientLabeledEvents() {
	s.Run("below minimum returns insufficient data", func() {
		for i := range s.cfg.MinLabeledEvents - 1 {
			s.addLabeled(i, i%2, 0.5)
		}
		calc := NewCalculator(s.store, s.cfg)
		_, err := calc.Calculate(s.ctx, 30)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
	})

	s.Run("unlabeled events do not count", func() {
		s.SetupTest()
		for i := range 50 {
			event := eventlog.PredictionEvent{
				ID:        id.NewEventID(),
				Timestamp: s.now.Add(-time.Hour),
				SubjectID: id.SubjectID(fmt.Sprintf("subj-%03d", i)),
				Prediction: eventlog.Prediction{
					Probability: 0.5, Confidence: 0.9, ModelVersion: "v1.0",
				},
			}
			s.Require().NoError(s.store.Append(s.ctx, event))
		}
		calc := NewCalculator(s.store, s.cfg)
		_, err := calc.Calculate(s.ctx, 30)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
	})

	s.Run("single-class window is not computable", func() {
		s.SetupTest()
		for i := range 20 {
			s.addLabeled(i, 1, 0.8)
		}
		calc := NewCalculator(s.store, s.cfg)
		_, err := calc.Calculate(s.ctx, 30)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
	})
}

func (s *CalculatorSuite) TestCalculate() {
	s.seedBalanced(60)
	calc := NewSeededCalculator(s.store, s.cfg, 42)

	m, err := calc.Calculate(s.ctx, 30)
	s.Require().NoError(err)

	s.Equal(30, m.TimeWindowDays)
	s.Equal(60, m.SampleSize)
	s.Equal(s.now, m.CalculatedAt)
	s.Greater(m.AUC, 0.9, "positives score well above negatives")
	s.Equal(m.AUC >= s.cfg.PerformanceThreshold, m.ThresholdMet)

	s.True(m.IntervalReliable)
	s.GreaterOrEqual(m.EffectiveResamples, s.cfg.MinValidResamples)
	s.LessOrEqual(m.EffectiveResamples, s.cfg.BootstrapSamples)

	// Bootstrap percentile bounds straddle the point estimates.
	tol := 1e-9
	s.LessOrEqual(m.AUCInterval.Lower, m.AUC+tol)
	s.GreaterOrEqual(m.AUCInterval.Upper, m.AUC-tol)
	s.LessOrEqual(m.F1Interval.Lower, m.F1+tol)
	s.GreaterOrEqual(m.F1Interval.Upper, m.F1-tol)
}

func (s *CalculatorSuite) TestCalculateIsDeterministicUnderSeed() {
	s.seedBalanced(40)

	a, err := NewSeededCalculator(s.store, s.cfg, 7).Calculate(s.ctx, 30)
	s.Require().NoError(err)
	b, err := NewSeededCalculator(s.store, s.cfg, 7).Calculate(s.ctx, 30)
	s.Require().NoError(err)
	s.Equal(a, b)
}

func (s *CalculatorSuite) TestUnreliableIntervalIsFlaggedNotFaked() {
	// Force the effective count under the floor regardless of survival rate.
	s.cfg.BootstrapSamples = 20
	s.cfg.MinValidResamples = 50
	s.seedBalanced(30)

	calc := NewSeededCalculator(s.store, s.cfg, 3)
	m, err := calc.Calculate(s.ctx, 30)
	s.Require().NoError(err)

	s.False(m.IntervalReliable)
	s.LessOrEqual(m.EffectiveResamples, 20)
	s.Equal(Interval{}, m.AUCInterval, "no percentile bounds from a near-empty set")
	s.Equal(Interval{}, m.F1Interval)

	// The point estimates are still reported.
	s.Greater(m.AUC, 0.0)
}

func (s *CalculatorSuite) TestWindowExcludesOldEvents() {
	s.seedBalanced(20)
	// Old labeled events outside the 7-day window.
	for i := range 30 {
		label := i % 2
		event := eventlog.PredictionEvent{
			ID:        id.NewEventID(),
			Timestamp: s.now.Add(-30 * 24 * time.Hour),
			SubjectID: id.SubjectID(fmt.Sprintf("old-%03d", i)),
			Prediction: eventlog.Prediction{
				Probability: 0.5, Confidence: 0.9, ModelVersion: "v0.9",
			},
			ActualLabel: &label,
		}
		s.Require().NoError(s.store.Append(s.ctx, event))
	}

	calc := NewSeededCalculator(s.store, s.cfg, 11)
	m, err := calc.Calculate(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(20, m.SampleSize)
}
