// Package fairness checks whether model discrimination is consistent across
// demographic subgroups of the labeled population.
//
// The taxonomies are fixed: age group, gender and primary language. Missing
// demographic features fall into a default bucket rather than excluding the
// event, so the analysis always covers the whole labeled window.
package fairness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"neurowatch/internal/eventlog"
	"neurowatch/internal/performance"
	"neurowatch/internal/platform/config"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/requestcontext"
)

const (
	CategoryAgeGroups = "age_groups"
	CategoryGender    = "gender"
	CategoryLanguage  = "language"
)

// Analyzer runs subgroup AUC comparisons over the event log.
type Analyzer struct {
	log      *slog.Logger
	eventLog eventlog.Store
	cfg      config.Monitoring
}

func NewAnalyzer(eventLog eventlog.Store, cfg config.Monitoring, log *slog.Logger) *Analyzer {
	return &Analyzer{log: log, eventLog: eventLog, cfg: cfg}
}

// Analyze computes subgroup metrics over labeled events in the window.
// Requires at least MinFairnessEvents labeled events; subgroup splits shrink
// sample sizes fast, so the floor is stricter than for overall performance.
func (a *Analyzer) Analyze(ctx context.Context, windowDays int) (*Report, error) {
	if windowDays <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "time window must be positive")
	}

	now := requestcontext.Now(ctx).UTC()
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	events, err := a.eventLog.QueryWindow(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("query event window: %w", err)
	}

	var labeled []eventlog.PredictionEvent
	for _, e := range events {
		if e.Labeled() {
			labeled = append(labeled, e)
		}
	}
	if len(labeled) < a.cfg.MinFairnessEvents {
		return nil, dErrors.New(dErrors.CodeInsufficientData,
			fmt.Sprintf("fairness analysis requires %d labeled events, have %d",
				a.cfg.MinFairnessEvents, len(labeled)))
	}

	report := &Report{
		TimeWindowDays: windowDays,
		SampleSize:     len(labeled),
		Categories:     make(map[string]CategoryResult),
		CalculatedAt:   now,
	}

	for category, partition := range map[string]func(eventlog.PredictionEvent) string{
		CategoryAgeGroups: ageGroup,
		CategoryGender:    gender,
		CategoryLanguage:  language,
	} {
		result, ok := a.analyzeCategory(labeled, partition)
		if ok {
			report.Categories[category] = result
		}
	}

	a.log.InfoContext(ctx, "fairness analysis completed",
		"request_id", requestcontext.RequestID(ctx),
		"sample_size", report.SampleSize,
		"categories", len(report.Categories),
	)
	return report, nil
}

// analyzeCategory buckets events by the partition function and scores every
// subgroup that clears the size floor and has both label classes. Returns
// ok=false when no subgroup is reportable.
func (a *Analyzer) analyzeCategory(events []eventlog.PredictionEvent, partition func(eventlog.PredictionEvent) string) (CategoryResult, bool) {
	buckets := make(map[string][]eventlog.PredictionEvent)
	for _, e := range events {
		group := partition(e)
		buckets[group] = append(buckets[group], e)
	}

	subgroups := make(map[string]SubgroupMetrics)
	for group, members := range buckets {
		if len(members) < a.cfg.MinSubgroupSize {
			continue
		}
		labels := make([]int, len(members))
		scores := make([]float64, len(members))
		var positives int
		for i, e := range members {
			labels[i] = *e.ActualLabel
			scores[i] = e.Prediction.Probability
			positives += labels[i]
		}
		if !performance.TwoClasses(labels) {
			continue
		}
		subgroups[group] = SubgroupMetrics{
			SampleSize:   len(members),
			AUC:          performance.AUCROC(labels, scores),
			PositiveRate: float64(positives) / float64(len(members)),
		}
	}
	if len(subgroups) == 0 {
		return CategoryResult{}, false
	}

	var minAUC, maxAUC float64
	first := true
	for _, m := range subgroups {
		if first {
			minAUC, maxAUC = m.AUC, m.AUC
			first = false
			continue
		}
		if m.AUC < minAUC {
			minAUC = m.AUC
		}
		if m.AUC > maxAUC {
			maxAUC = m.AUC
		}
	}
	gap := maxAUC - minAUC

	return CategoryResult{
		Subgroups: subgroups,
		AUCGap:    gap,
		Concern:   gap > a.cfg.FairnessGapThreshold,
	}, true
}

// ageGroup buckets by the "age" feature. Missing or non-numeric ages default
// to adult.
func ageGroup(e eventlog.PredictionEvent) string {
	age := 18.0
	if v, ok := e.Features["age"]; ok {
		if f, ok := asFloat(v); ok {
			age = f
		}
	}
	switch {
	case age < 13:
		return "child"
	case age < 18:
		return "teen"
	default:
		return "adult"
	}
}

func gender(e eventlog.PredictionEvent) string {
	sex, _ := e.Features["sex"].(string)
	switch sex {
	case "M":
		return "male"
	case "F":
		return "female"
	default:
		return "other"
	}
}

// language splits English against everything else; missing values count as
// English.
func language(e eventlog.PredictionEvent) string {
	lang, ok := e.Features["primary_language"].(string)
	if !ok || lang == "English" {
		return "english"
	}
	return "non_english"
}

// asFloat normalizes the numeric types a JSON features map can carry.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
