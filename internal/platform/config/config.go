package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "neurowatch/pkg/domain-errors"
)

// Server captures process-level configuration.
type Server struct {
	Addr       string
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Monitoring Monitoring
}

// PostgresConfig holds the durable store connection settings. An empty URL
// means the in-memory stores are used (dev mode).
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection settings for the active-learning queue store.
// An empty URL means the in-memory queue is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit fan-out settings. Empty brokers disable the
// Kafka sink; audit events still land in the store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Monitoring is the immutable monitoring configuration snapshot. It is
// supplied at construction and never mutated; reconfiguration means building
// a new one and rewiring.
type Monitoring struct {
	// DriftThreshold is the per-feature normalized-distance score above which
	// a feature counts as drifted.
	DriftThreshold float64 `json:"drift_threshold"`

	// PerformanceThreshold is the minimum acceptable AUC.
	PerformanceThreshold float64 `json:"performance_threshold"`

	// RetrainFrequencyDays is the cadence after which staleness alone
	// recommends a retrain.
	RetrainFrequencyDays int `json:"retrain_frequency_days"`

	// AmbiguityLowBound and AmbiguityHighBound delimit the probability band
	// in which a prediction is considered ambiguous. ConfidenceCeiling is the
	// calibrated-confidence level at or above which a prediction is trusted
	// even inside the band.
	AmbiguityLowBound  float64 `json:"ambiguity_low_bound"`
	AmbiguityHighBound float64 `json:"ambiguity_high_bound"`
	ConfidenceCeiling  float64 `json:"confidence_ceiling"`

	// MinSamplesForRetrain is the labeled-event count at which accumulated
	// data alone recommends a retrain.
	MinSamplesForRetrain int `json:"min_samples_for_retrain"`

	// BootstrapSamples is the target resample count for confidence
	// intervals. MinValidResamples is the floor below which the interval is
	// reported as unreliable instead of computed from a near-empty set.
	BootstrapSamples  int `json:"bootstrap_samples"`
	MinValidResamples int `json:"min_valid_resamples"`

	// MinLabeledEvents is the hard precondition for performance metrics;
	// AUC and F1 are meaningless below it.
	MinLabeledEvents int `json:"min_labeled_events"`

	// MinFairnessEvents gates the fairness analysis. Stricter than
	// MinLabeledEvents because subgroup splits shrink effective sample sizes.
	MinFairnessEvents int `json:"min_fairness_events"`

	// MinSubgroupSize is the per-subgroup floor inside a taxonomy.
	MinSubgroupSize int `json:"min_subgroup_size"`

	// FairnessGapThreshold is the max-minus-min subgroup AUC gap above which
	// a taxonomy is flagged.
	FairnessGapThreshold float64 `json:"fairness_gap_threshold"`
}

// DefaultMonitoring returns the production defaults.
func DefaultMonitoring() Monitoring {
	return Monitoring{
		DriftThreshold:       0.1,
		PerformanceThreshold: 0.8,
		RetrainFrequencyDays: 30,
		AmbiguityLowBound:    0.4,
		AmbiguityHighBound:   0.7,
		ConfidenceCeiling:    0.8,
		MinSamplesForRetrain: 100,
		BootstrapSamples:     1000,
		MinValidResamples:    30,
		MinLabeledEvents:     10,
		MinFairnessEvents:    50,
		MinSubgroupSize:      10,
		FairnessGapThreshold: 0.1,
	}
}

// Validate fails fast on configuration that would make the monitoring math
// silently wrong.
func (m Monitoring) Validate() error {
	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return dErrors.New(dErrors.CodeInvalidConfig,
				fmt.Sprintf("%s must be in [0,1], got %g", name, v))
		}
		return nil
	}
	if err := unit("drift_threshold", m.DriftThreshold); err != nil {
		return err
	}
	if err := unit("performance_threshold", m.PerformanceThreshold); err != nil {
		return err
	}
	if err := unit("ambiguity_low_bound", m.AmbiguityLowBound); err != nil {
		return err
	}
	if err := unit("ambiguity_high_bound", m.AmbiguityHighBound); err != nil {
		return err
	}
	if err := unit("confidence_ceiling", m.ConfidenceCeiling); err != nil {
		return err
	}
	if err := unit("fairness_gap_threshold", m.FairnessGapThreshold); err != nil {
		return err
	}
	if m.AmbiguityLowBound > m.AmbiguityHighBound {
		return dErrors.New(dErrors.CodeInvalidConfig,
			"ambiguity_low_bound must not exceed ambiguity_high_bound")
	}
	positive := func(name string, v int) error {
		if v <= 0 {
			return dErrors.New(dErrors.CodeInvalidConfig,
				fmt.Sprintf("%s must be positive, got %d", name, v))
		}
		return nil
	}
	if err := positive("retrain_frequency_days", m.RetrainFrequencyDays); err != nil {
		return err
	}
	if err := positive("min_samples_for_retrain", m.MinSamplesForRetrain); err != nil {
		return err
	}
	if err := positive("bootstrap_samples", m.BootstrapSamples); err != nil {
		return err
	}
	if err := positive("min_valid_resamples", m.MinValidResamples); err != nil {
		return err
	}
	if err := positive("min_labeled_events", m.MinLabeledEvents); err != nil {
		return err
	}
	if err := positive("min_fairness_events", m.MinFairnessEvents); err != nil {
		return err
	}
	if err := positive("min_subgroup_size", m.MinSubgroupSize); err != nil {
		return err
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Monitoring thresholds can be overridden individually.
func FromEnv() (Server, error) {
	addr := os.Getenv("NEUROWATCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mon := DefaultMonitoring()
	if err := overrideFloat("NEUROWATCH_DRIFT_THRESHOLD", &mon.DriftThreshold); err != nil {
		return Server{}, err
	}
	if err := overrideFloat("NEUROWATCH_PERFORMANCE_THRESHOLD", &mon.PerformanceThreshold); err != nil {
		return Server{}, err
	}
	if err := overrideInt("NEUROWATCH_RETRAIN_FREQUENCY_DAYS", &mon.RetrainFrequencyDays); err != nil {
		return Server{}, err
	}
	if err := overrideFloat("NEUROWATCH_AMBIGUITY_LOW_BOUND", &mon.AmbiguityLowBound); err != nil {
		return Server{}, err
	}
	if err := overrideFloat("NEUROWATCH_AMBIGUITY_HIGH_BOUND", &mon.AmbiguityHighBound); err != nil {
		return Server{}, err
	}
	if err := overrideFloat("NEUROWATCH_CONFIDENCE_CEILING", &mon.ConfidenceCeiling); err != nil {
		return Server{}, err
	}
	if err := overrideInt("NEUROWATCH_MIN_SAMPLES_FOR_RETRAIN", &mon.MinSamplesForRetrain); err != nil {
		return Server{}, err
	}
	if err := overrideInt("NEUROWATCH_BOOTSTRAP_SAMPLES", &mon.BootstrapSamples); err != nil {
		return Server{}, err
	}
	if err := mon.Validate(); err != nil {
		return Server{}, err
	}

	var brokers []string
	if raw := os.Getenv("NEUROWATCH_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("NEUROWATCH_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "neurowatch.audit"
	}

	return Server{
		Addr:     addr,
		Postgres: PostgresConfig{URL: os.Getenv("NEUROWATCH_POSTGRES_URL")},
		Redis: RedisConfig{
			URL:          os.Getenv("NEUROWATCH_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka:      KafkaConfig{Brokers: brokers, Topic: topic},
		Monitoring: mon,
	}, nil
}

func overrideFloat(env string, dst *float64) error {
	raw := os.Getenv(env)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidConfig, env+" is not a number")
	}
	*dst = v
	return nil
}

func overrideInt(env string, dst *int) error {
	raw := os.Getenv(env)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidConfig, env+" is not an integer")
	}
	*dst = v
	return nil
}
