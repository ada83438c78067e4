package fairness

import "time"

// SubgroupMetrics is the per-subgroup slice of the analysis. Subgroups below
// the minimum size, or with only one label class, are omitted entirely.
type SubgroupMetrics struct {
	SampleSize   int     `json:"sample_size"`
	AUC          float64 `json:"auc_score"`
	PositiveRate float64 `json:"positive_rate"`
}

// CategoryResult compares all reportable subgroups of one demographic
// taxonomy. The gap is max minus min subgroup AUC; a single reportable
// subgroup yields a zero gap.
type CategoryResult struct {
	Subgroups map[string]SubgroupMetrics `json:"subgroup_metrics"`
	AUCGap    float64                    `json:"auc_gap"`
	Concern   bool                       `json:"fairness_concern"`
}

// Report is the full output of one fairness analysis. Categories with no
// reportable subgroups are absent from the map.
type Report struct {
	TimeWindowDays int                       `json:"time_window_days"`
	SampleSize     int                       `json:"sample_size"`
	Categories     map[string]CategoryResult `json:"categories"`
	CalculatedAt   time.Time                 `json:"calculation_timestamp"`
}
