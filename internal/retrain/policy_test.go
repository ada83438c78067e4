package retrain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurowatch/internal/drift"
	"neurowatch/internal/performance"
	"neurowatch/internal/platform/config"
)

func TestPolicyEvaluate(t *testing.T) {
	cfg := config.DefaultMonitoring() // threshold 0.8, frequency 30d, min samples 100
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * 24 * time.Hour)
	stale := now.Add(-45 * 24 * time.Hour)

	tests := []struct {
		name        string
		in          Inputs
		want        bool
		wantReasons int
	}{
		{
			name: "healthy model holds",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.9},
				LatestDrift:    &drift.Summary{Detected: false},
				LastActivation: &recent,
				LabeledCount:   50,
				Now:            now,
			},
			want: false,
		},
		{
			name: "performance degradation",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.72},
				LastActivation: &recent,
				Now:            now,
			},
			want:        true,
			wantReasons: 1,
		},
		{
			name: "drift detected",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.9},
				LatestDrift:    &drift.Summary{Detected: true},
				LastActivation: &recent,
				Now:            now,
			},
			want:        true,
			wantReasons: 1,
		},
		{
			name: "schedule elapsed",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.9},
				LastActivation: &stale,
				Now:            now,
			},
			want:        true,
			wantReasons: 1,
		},
		{
			name: "data accumulation alone is enough",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.95},
				LatestDrift:    &drift.Summary{Detected: false},
				LastActivation: &recent,
				LabeledCount:   150,
				Now:            now,
			},
			want:        true,
			wantReasons: 1,
		},
		{
			name: "missing inputs skip their checks",
			in: Inputs{
				Now: now,
			},
			want: false,
		},
		{
			name: "all triggers fire",
			in: Inputs{
				Performance:    &performance.Metrics{AUC: 0.5},
				LatestDrift:    &drift.Summary{Detected: true},
				LastActivation: &stale,
				LabeledCount:   200,
				Now:            now,
			},
			want:        true,
			wantReasons: 4,
		},
		{
			name: "threshold boundaries hold",
			in: Inputs{
				Performance:  &performance.Metrics{AUC: 0.8}, // not below threshold
				LabeledCount: 99,                             // just under floor
				Now:          now,
			},
			want: false,
		},
		{
			name: "exact sample floor fires",
			in: Inputs{
				LabeledCount: 100,
				Now:          now,
			},
			want:        true,
			wantReasons: 1,
		},
	}

	policy := NewPolicy(cfg)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.Evaluate(tc.in)
			require.Equal(t, tc.want, decision.ShouldRetrain)
			assert.Len(t, decision.Reasons, tc.wantReasons)
			assert.Equal(t, now, decision.EvaluatedAt)
		})
	}
}

func TestPolicyScheduleBoundary(t *testing.T) {
	policy := NewPolicy(config.DefaultMonitoring())
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	exactly := now.Add(-30 * 24 * time.Hour)
	decision := policy.Evaluate(Inputs{LastActivation: &exactly, Now: now})
	require.True(t, decision.ShouldRetrain, "30 full days should reach the frequency")

	justUnder := now.Add(-30*24*time.Hour + time.Hour)
	decision = policy.Evaluate(Inputs{LastActivation: &justUnder, Now: now})
	require.False(t, decision.ShouldRetrain)
}
