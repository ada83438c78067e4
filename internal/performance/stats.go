package performance

import "sort"

// AUCROC computes the area under the ROC curve via the rank-sum
// (Mann-Whitney) formulation, with average ranks for tied scores. Undefined
// when either class is absent; callers must filter first.
func AUCROC(labels []int, scores []float64) float64 {
	n := len(labels)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		// Average rank across the tie group, 1-based.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var pos, neg int
	var rankSum float64
	for i, label := range labels {
		if label == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	return (rankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
}

// f1Score computes F1 for binary predictions at a fixed decision threshold.
// Returns 0 when there are no predicted or actual positives, matching the
// zero-division convention of standard ML tooling.
func f1Score(labels []int, scores []float64, threshold float64) float64 {
	var tp, fp, fn int
	for i, label := range labels {
		pred := 0
		if scores[i] >= threshold {
			pred = 1
		}
		switch {
		case pred == 1 && label == 1:
			tp++
		case pred == 1 && label == 0:
			fp++
		case pred == 0 && label == 1:
			fn++
		}
	}
	denom := 2*tp + fp + fn
	if denom == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(denom)
}

// percentile computes the p-th percentile (0-100) with linear interpolation
// between closest ranks. Input is not modified.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// TwoClasses reports whether both binary labels appear.
func TwoClasses(labels []int) bool {
	var seenPos, seenNeg bool
	for _, l := range labels {
		if l == 1 {
			seenPos = true
		} else {
			seenNeg = true
		}
		if seenPos && seenNeg {
			return true
		}
	}
	return false
}
