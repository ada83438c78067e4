package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "neurowatch/pkg/domain-errors"
)

func TestMonitoringValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Monitoring)
		wantOK bool
	}{
		{name: "defaults are valid", mutate: func(m *Monitoring) {}, wantOK: true},
		{name: "drift threshold above one", mutate: func(m *Monitoring) { m.DriftThreshold = 1.5 }},
		{name: "negative performance threshold", mutate: func(m *Monitoring) { m.PerformanceThreshold = -0.1 }},
		{name: "inverted ambiguity band", mutate: func(m *Monitoring) { m.AmbiguityLowBound = 0.8; m.AmbiguityHighBound = 0.4 }},
		{name: "zero bootstrap samples", mutate: func(m *Monitoring) { m.BootstrapSamples = 0 }},
		{name: "zero min labeled events", mutate: func(m *Monitoring) { m.MinLabeledEvents = 0 }},
		{name: "zero retrain cadence", mutate: func(m *Monitoring) { m.RetrainFrequencyDays = 0 }},
		{name: "fairness gap above one", mutate: func(m *Monitoring) { m.FairnessGapThreshold = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMonitoring()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantOK {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NEUROWATCH_DRIFT_THRESHOLD", "0.25")
	t.Setenv("NEUROWATCH_BOOTSTRAP_SAMPLES", "200")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Monitoring.DriftThreshold)
	assert.Equal(t, 200, cfg.Monitoring.BootstrapSamples)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestFromEnvRejectsInvalidOverride(t *testing.T) {
	t.Setenv("NEUROWATCH_DRIFT_THRESHOLD", "5.0")

	_, err := FromEnv()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
}
