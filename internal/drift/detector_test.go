package drift

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/sentinel"
)

func TestCompareIdenticalBatches(t *testing.T) {
	d := NewDetector(0.1)
	batch := map[string][]float64{
		"age":            {5, 9, 13, 7},
		"attention_span": {0.3, 0.5, 0.7, 0.4},
	}

	report, err := d.Compare(batch, batch, time.Now())
	require.NoError(t, err)
	require.False(t, report.Summary.Detected)
	require.Zero(t, report.Summary.MaxScore)
	require.Empty(t, report.Summary.DriftedFeatures)
	require.Len(t, report.Features, 2)
}

func TestCompareConstantFeatureShift(t *testing.T) {
	d := NewDetector(0.1)
	reference := map[string][]float64{"dose": {1, 1, 1, 1}}
	current := map[string][]float64{"dose": {5, 5, 5, 5}}

	report, err := d.Compare(reference, current, time.Now())
	require.NoError(t, err)

	// Reference stddev is zero, so the epsilon-stabilized denominator makes
	// the score explode for any mean shift.
	require.True(t, report.Summary.Detected)
	require.Greater(t, report.Summary.MaxScore, 1e6)
	require.Equal(t, []string{"dose"}, report.Summary.DriftedFeatures)
}

func TestCompareIsAsymmetric(t *testing.T) {
	d := NewDetector(0.1)
	narrow := map[string][]float64{"score": {10, 10.1, 9.9, 10}}
	wide := map[string][]float64{"score": {0, 10, 20, 30}}

	forward, err := d.Compare(narrow, wide, time.Now())
	require.NoError(t, err)
	backward, err := d.Compare(wide, narrow, time.Now())
	require.NoError(t, err)

	// The reference owns the denominator, so swapping batches changes the score.
	require.NotEqual(t, forward.Summary.MaxScore, backward.Summary.MaxScore)
	require.Greater(t, forward.Summary.MaxScore, backward.Summary.MaxScore)
}

func TestCompareSkipsNonSharedFeatures(t *testing.T) {
	d := NewDetector(0.1)
	reference := map[string][]float64{
		"shared":   {1, 2, 3},
		"ref_only": {1, 2, 3},
		"empty":    {},
	}
	current := map[string][]float64{
		"shared":   {1, 2, 3},
		"cur_only": {9, 9, 9},
		"empty":    {1},
	}

	report, err := d.Compare(reference, current, time.Now())
	require.NoError(t, err)
	require.Len(t, report.Features, 1)
	require.Contains(t, report.Features, "shared")
}

func TestCompareNoSharedFeatures(t *testing.T) {
	d := NewDetector(0.1)
	_, err := d.Compare(
		map[string][]float64{"a": {1, 2}},
		map[string][]float64{"b": {1, 2}},
		time.Now(),
	)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCompareThresholdBoundary(t *testing.T) {
	// A score exactly at the threshold is stable; only strictly greater
	// counts as drift.
	d := NewDetector(0.5)
	reference := map[string][]float64{"x": {1, 2, 3}} // mean 2, std 1
	current := map[string][]float64{"x": {1.5, 2.5, 3.5}}

	report, err := d.Compare(reference, current, time.Now())
	require.NoError(t, err)
	require.InDelta(t, 0.5, report.Features["x"].Score, 1e-8)
	require.False(t, report.Features["x"].Drifted)
	require.False(t, report.Summary.Detected)
}

func TestMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantStd  float64
	}{
		{name: "single value", values: []float64{4}, wantMean: 4, wantStd: 0},
		{name: "constant", values: []float64{2, 2, 2}, wantMean: 2, wantStd: 0},
		{name: "spread", values: []float64{2, 4, 4, 4, 5, 5, 7, 9}, wantMean: 5, wantStd: math.Sqrt(32.0 / 7.0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mean, std := meanStd(tc.values)
			require.InDelta(t, tc.wantMean, mean, 1e-9)
			require.InDelta(t, tc.wantStd, std, 1e-9)
		})
	}
}

func TestHistoryStoreOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryHistoryStore()

	_, err := store.Latest(ctx)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Summary{
			MaxScore:   float64(i),
			DetectedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, 2.0, latest.MaxScore)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, 2.0, recent[0].MaxScore)
	require.Equal(t, 1.0, recent[1].MaxScore)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 0.0, all[0].MaxScore)

	require.NoError(t, store.Replace(ctx, all[:1]))
	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.0, latest.MaxScore)
}
