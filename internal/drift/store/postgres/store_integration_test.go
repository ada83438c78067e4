//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"neurowatch/internal/drift"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx context.Context
	pg  *containers.PostgresContainer
	st  *Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.st = New(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
}

func summaryAt(at time.Time, maxScore float64, features ...string) drift.Summary {
	return drift.Summary{
		Detected:        len(features) > 0,
		MaxScore:        maxScore,
		Threshold:       0.5,
		DriftedFeatures: features,
		DetectedAt:      at,
	}
}

func (s *PostgresStoreSuite) TestLatest() {
	_, err := s.st.Latest(s.ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	base := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.st.Append(s.ctx, summaryAt(base, 0.2)))
	s.Require().NoError(s.st.Append(s.ctx, summaryAt(base.Add(time.Minute), 0.9, "age")))

	latest, err := s.st.Latest(s.ctx)
	s.Require().NoError(err)
	s.True(latest.Detected)
	s.Equal(0.9, latest.MaxScore)
	s.Equal([]string{"age"}, latest.DriftedFeatures)
}

func (s *PostgresStoreSuite) TestListRecentAndAll() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 3 {
		s.Require().NoError(s.st.Append(s.ctx, summaryAt(base.Add(time.Duration(i)*time.Minute), float64(i))))
	}

	recent, err := s.st.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(2.0, recent[0].MaxScore)

	all, err := s.st.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(0.0, all[0].MaxScore)
}

func (s *PostgresStoreSuite) TestReplace() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.st.Append(s.ctx, summaryAt(base, 0.1)))

	s.Require().NoError(s.st.Replace(s.ctx, []drift.Summary{summaryAt(base.Add(time.Hour), 0.7, "sleep_hours")}))

	all, err := s.st.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(0.7, all[0].MaxScore)
}
