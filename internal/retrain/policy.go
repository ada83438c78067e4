// Package retrain decides when the model needs a refresh. The policy is
// advisory: it recommends, operators (or an external pipeline) act.
package retrain

import (
	"fmt"
	"time"

	"neurowatch/internal/drift"
	"neurowatch/internal/performance"
	"neurowatch/internal/platform/config"
)

// Inputs is everything the policy reads. Nil pointers mean "not available":
// a nil Performance skips the degradation check rather than failing the
// whole evaluation.
type Inputs struct {
	Performance    *performance.Metrics
	LatestDrift    *drift.Summary
	LastActivation *time.Time
	LabeledCount   int
	Now            time.Time
}

// Decision is the policy outcome. Any single reason is enough to recommend;
// the data-accumulation reason fires on its own, so a model can be refreshed
// on new data alone even when nothing is wrong.
type Decision struct {
	ShouldRetrain bool      `json:"should_retrain"`
	Reasons       []string  `json:"reasons"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// Policy applies the retrain triggers against the monitoring thresholds.
type Policy struct {
	cfg config.Monitoring
}

func NewPolicy(cfg config.Monitoring) *Policy {
	return &Policy{cfg: cfg}
}

// Evaluate runs the four triggers: performance degradation, detected drift,
// elapsed schedule, and accumulated labeled data.
func (p *Policy) Evaluate(in Inputs) Decision {
	reasons := []string{}

	if in.Performance != nil && in.Performance.AUC < p.cfg.PerformanceThreshold {
		reasons = append(reasons, fmt.Sprintf(
			"performance below threshold: %.3f < %.2f",
			in.Performance.AUC, p.cfg.PerformanceThreshold))
	}

	if in.LatestDrift != nil && in.LatestDrift.Detected {
		reasons = append(reasons, "significant data drift detected")
	}

	if in.LastActivation != nil {
		days := int(in.Now.Sub(*in.LastActivation).Hours() / 24)
		if days >= p.cfg.RetrainFrequencyDays {
			reasons = append(reasons, fmt.Sprintf("retrain frequency reached: %d days", days))
		}
	}

	if in.LabeledCount >= p.cfg.MinSamplesForRetrain {
		reasons = append(reasons, fmt.Sprintf(
			"sufficient new data available: %d samples", in.LabeledCount))
	}

	return Decision{
		ShouldRetrain: len(reasons) > 0,
		Reasons:       reasons,
		EvaluatedAt:   in.Now,
	}
}
