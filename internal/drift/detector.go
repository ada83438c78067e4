// Package drift compares feature-distribution summaries between a reference
// population and live traffic.
//
// The test is a normalized mean/stddev distance, not a formal hypothesis
// test: no KS statistic, no p-values. That is deliberate — it is cheap to
// compute per feature per call, and cheap enough to run on every batch.
package drift

import (
	"math"
	"sort"
	"time"

	dErrors "neurowatch/pkg/domain-errors"
)

// epsilon stabilizes the denominator when the reference feature is constant
// (zero stddev). A genuinely shifted constant feature then produces a huge
// score, which is the behavior we want.
const epsilon = 1e-8

// Detector scores feature batches against a drift threshold.
type Detector struct {
	threshold float64
}

func NewDetector(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Compare scores every feature present in both batches. Features missing
// from either side are skipped, not penalized. The comparison is asymmetric
// on purpose: the reference batch owns the denominator, so drift is always
// "distance from where we trained", not a symmetric divergence.
func (d *Detector) Compare(reference, current map[string][]float64, at time.Time) (*Report, error) {
	features := make(map[string]FeatureDrift)

	for name, refValues := range reference {
		curValues, ok := current[name]
		if !ok || len(refValues) == 0 || len(curValues) == 0 {
			continue
		}

		refMean, refStd := meanStd(refValues)
		curMean, curStd := meanStd(curValues)

		meanDrift := math.Abs(refMean-curMean) / (refStd + epsilon)
		stdDrift := math.Abs(refStd-curStd) / (refStd + epsilon)
		score := math.Max(meanDrift, stdDrift)

		features[name] = FeatureDrift{
			ReferenceMean: refMean,
			ReferenceStd:  refStd,
			CurrentMean:   curMean,
			CurrentStd:    curStd,
			Score:         score,
			Drifted:       score > d.threshold,
		}
	}

	if len(features) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			"no shared non-empty features between reference and current batches")
	}

	summary := Summary{
		Threshold:  d.threshold,
		DetectedAt: at,
	}
	for name, f := range features {
		if f.Score > summary.MaxScore {
			summary.MaxScore = f.Score
		}
		if f.Drifted {
			summary.Detected = true
			summary.DriftedFeatures = append(summary.DriftedFeatures, name)
		}
	}
	sort.Strings(summary.DriftedFeatures)

	return &Report{Summary: summary, Features: features}, nil
}

// meanStd computes the sample mean and sample standard deviation (n-1
// denominator). A single observation has no spread estimate; its std is 0.
func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return mean, math.Sqrt(variance)
}
