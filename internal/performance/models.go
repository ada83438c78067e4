package performance

import "time"

// Interval is a two-sided bootstrap confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Metrics is the windowed performance result. When the bootstrap could not
// produce enough valid resamples, IntervalReliable is false and the interval
// bounds are zeroed rather than computed from a near-empty distribution.
type Metrics struct {
	TimeWindowDays int `json:"time_window_days"`
	SampleSize     int `json:"sample_size"`

	AUC         float64  `json:"auc_score"`
	AUCInterval Interval `json:"auc_confidence_interval"`

	F1         float64  `json:"f1_score"`
	F1Interval Interval `json:"f1_confidence_interval"`

	ThresholdMet bool `json:"threshold_met"`

	// EffectiveResamples is the number of bootstrap draws that survived the
	// both-classes filter. Always reported: silently dropping single-class
	// draws can widen the interval, and auditors need to see by how much.
	EffectiveResamples int  `json:"effective_resamples"`
	IntervalReliable   bool `json:"interval_reliable"`

	CalculatedAt time.Time `json:"calculation_timestamp"`
}
