package activelearning

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"neurowatch/internal/audit"
	"neurowatch/internal/platform/config"
	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
)

type fakeAuditor struct {
	events []audit.Event
}

func (f *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	f.events = append(f.events, event)
	return nil
}

func TestAmbiguityPredicate(t *testing.T) {
	cfg := config.DefaultMonitoring() // band [0.4, 0.7], ceiling 0.8
	svc := NewService(NewInMemoryStore(), cfg, nil, nil, slog.Default())

	tests := []struct {
		name        string
		probability float64
		confidence  float64
		want        bool
	}{
		{name: "mid band low confidence", probability: 0.55, confidence: 0.5, want: true},
		{name: "lower bound inclusive", probability: 0.4, confidence: 0.5, want: true},
		{name: "upper bound inclusive", probability: 0.7, confidence: 0.5, want: true},
		{name: "below band", probability: 0.39, confidence: 0.5, want: false},
		{name: "above band", probability: 0.71, confidence: 0.5, want: false},
		{name: "confident at ceiling", probability: 0.55, confidence: 0.8, want: false},
		{name: "confidence just under ceiling", probability: 0.55, confidence: 0.79, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, svc.ambiguous(tc.probability, tc.confidence))
		})
	}
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	auditor *fakeAuditor
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.auditor = &fakeAuditor{}
	s.svc = NewService(s.store, config.DefaultMonitoring(), s.auditor, nil, slog.Default())
}

func (s *ServiceSuite) TestConsiderEnqueuesAmbiguous() {
	query, err := s.svc.Consider(s.ctx, "subject-1", 0.55, 0.6)
	s.Require().NoError(err)
	s.Require().NotNil(query)
	s.Equal(domain.SubjectID("subject-1"), query.SubjectID)
	s.Equal(ReasonAmbiguous, query.Reason)
	s.False(query.ID.IsNil())

	depth, err := s.svc.Depth(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, depth)
}

func (s *ServiceSuite) TestConsiderSkipsUnambiguous() {
	query, err := s.svc.Consider(s.ctx, "subject-1", 0.95, 0.9)
	s.Require().NoError(err)
	s.Nil(query)

	depth, err := s.svc.Depth(s.ctx)
	s.Require().NoError(err)
	s.Zero(depth)
}

func (s *ServiceSuite) TestResolveRemovesAllSubjectQueries() {
	for i := 0; i < 3; i++ {
		_, err := s.svc.Consider(s.ctx, "subject-1", 0.5, 0.6)
		s.Require().NoError(err)
	}
	_, err := s.svc.Consider(s.ctx, "subject-2", 0.5, 0.6)
	s.Require().NoError(err)

	removed, err := s.svc.Resolve(s.ctx, "subject-1", Resolution{Label: 1, Confidence: 0.85})
	s.Require().NoError(err)
	s.Len(removed, 3)

	depth, err := s.svc.Depth(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, depth)

	s.Require().Len(s.auditor.events, 1)
	s.Equal(audit.ActionQueryResolved, s.auditor.events[0].Action)
	s.Equal("3", s.auditor.events[0].Detail["resolved_queries"])
	s.Equal("1", s.auditor.events[0].Detail["label"])
	s.Equal("0.85", s.auditor.events[0].Detail["labeler_confidence"])
}

func (s *ServiceSuite) TestResolveRejectsInvalidResolution() {
	_, err := s.svc.Consider(s.ctx, "subject-1", 0.5, 0.6)
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, "subject-1", Resolution{Label: 2, Confidence: 0.5})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Resolve(s.ctx, "subject-1", Resolution{Label: 1, Confidence: 1.5})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// Nothing was removed and nothing was audited.
	depth, err := s.svc.Depth(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, depth)
	s.Empty(s.auditor.events)
}

func (s *ServiceSuite) TestResolveUnknownSubjectIsQuiet() {
	removed, err := s.svc.Resolve(s.ctx, "nobody", Resolution{Confidence: 0.5})
	s.Require().NoError(err)
	s.Empty(removed)
	s.Empty(s.auditor.events)
}

func (s *ServiceSuite) TestRecentIsMostRecentFirst() {
	base := time.Now()
	for i, subject := range []domain.SubjectID{"a", "b", "c"} {
		s.Require().NoError(s.store.Enqueue(s.ctx, Query{
			ID:         domain.NewQueryID(),
			SubjectID:  subject,
			EnqueuedAt: base.Add(time.Duration(i) * time.Second),
			Reason:     ReasonAmbiguous,
		}))
	}

	recent, err := s.svc.Recent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(domain.SubjectID("c"), recent[0].SubjectID)
	s.Equal(domain.SubjectID("b"), recent[1].SubjectID)
}
