// Package performance computes windowed point-estimate and bootstrap-interval
// metrics over the prediction event log.
package performance

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"neurowatch/internal/eventlog"
	"neurowatch/internal/platform/config"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/requestcontext"
)

// decisionThreshold is the fixed probability cutoff for F1. The classifier is
// calibrated against it; it is not a tunable monitoring knob.
const decisionThreshold = 0.5

// Calculator derives performance metrics from the event log.
type Calculator struct {
	log eventlog.Store
	cfg config.Monitoring

	// seed pins the bootstrap RNG for deterministic tests. Zero means seed
	// from the clock.
	seed int64
}

func NewCalculator(log eventlog.Store, cfg config.Monitoring) *Calculator {
	return &Calculator{log: log, cfg: cfg}
}

// NewSeededCalculator is NewCalculator with a fixed bootstrap seed.
func NewSeededCalculator(log eventlog.Store, cfg config.Monitoring, seed int64) *Calculator {
	return &Calculator{log: log, cfg: cfg, seed: seed}
}

// Calculate computes metrics over the trailing window. Fails with an
// insufficient-data error below the configured minimum of labeled events:
// AUC and F1 are not merely noisy there, they are meaningless.
func (c *Calculator) Calculate(ctx context.Context, windowDays int) (*Metrics, error) {
	now := requestcontext.Now(ctx)
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	events, err := c.log.QueryWindow(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "query event window", err)
	}

	var labels []int
	var scores []float64
	for _, e := range events {
		if !e.Labeled() {
			continue
		}
		labels = append(labels, *e.ActualLabel)
		scores = append(scores, e.Prediction.Probability)
	}

	if len(labels) < c.cfg.MinLabeledEvents {
		return nil, dErrors.New(dErrors.CodeInsufficientData,
			fmt.Sprintf("%d labeled events in window, need %d", len(labels), c.cfg.MinLabeledEvents))
	}
	if !TwoClasses(labels) {
		return nil, dErrors.New(dErrors.CodeInsufficientData,
			"window contains a single label class; AUC is undefined")
	}

	m := &Metrics{
		TimeWindowDays: windowDays,
		SampleSize:     len(labels),
		AUC:            AUCROC(labels, scores),
		F1:             f1Score(labels, scores, decisionThreshold),
		CalculatedAt:   now,
	}
	m.ThresholdMet = m.AUC >= c.cfg.PerformanceThreshold

	aucs, f1s, err := c.bootstrap(ctx, labels, scores)
	if err != nil {
		return nil, err
	}

	m.EffectiveResamples = len(aucs)
	if m.EffectiveResamples >= c.cfg.MinValidResamples {
		m.IntervalReliable = true
		m.AUCInterval = Interval{Lower: percentile(aucs, 2.5), Upper: percentile(aucs, 97.5)}
		m.F1Interval = Interval{Lower: percentile(f1s, 2.5), Upper: percentile(f1s, 97.5)}
	}

	return m, nil
}

// bootstrap draws resamples with replacement and recomputes both metrics per
// draw. Single-class draws are discarded without back-filling, so the
// effective count can run below the configured target; the caller reports
// that count instead of papering over it.
//
// Draws are independent, so the work is sharded across workers and merged
// once at the end.
func (c *Calculator) bootstrap(ctx context.Context, labels []int, scores []float64) (aucs, f1s []float64, err error) {
	workers := runtime.GOMAXPROCS(0)
	if workers > c.cfg.BootstrapSamples {
		workers = 1
	}
	per := c.cfg.BootstrapSamples / workers
	extra := c.cfg.BootstrapSamples % workers

	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		draws := per
		if w < extra {
			draws++
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))
		g.Go(func() error {
			n := len(labels)
			bootLabels := make([]int, n)
			bootScores := make([]float64, n)
			var localAUCs, localF1s []float64

			for range draws {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := range n {
					j := rng.Intn(n)
					bootLabels[i] = labels[j]
					bootScores[i] = scores[j]
				}
				if !TwoClasses(bootLabels) {
					continue
				}
				localAUCs = append(localAUCs, AUCROC(bootLabels, bootScores))
				localF1s = append(localF1s, f1Score(bootLabels, bootScores, decisionThreshold))
			}

			mu.Lock()
			aucs = append(aucs, localAUCs...)
			f1s = append(f1s, localF1s...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, dErrors.Wrap(dErrors.CodeInternal, "bootstrap resampling", err)
	}
	return aucs, f1s, nil
}
