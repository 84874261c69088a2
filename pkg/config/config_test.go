package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adOptimizer/business/bandit"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, bandit.DefaultConfig(), cfg.Optimizer.Bandit)
	assert.False(t, cfg.Optimizer.Accelerate)
	assert.Equal(t, 50, cfg.AdPlatform.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.AdPlatform.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.APIKeyTTL)
}

func TestLoadOptimizerOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("OPTIMIZER_MEMORY", "false")
	t.Setenv("OPTIMIZER_SHAPE", "degressive")
	t.Setenv("OPTIMIZER_CUTOFF", "28")
	t.Setenv("OPTIMIZER_CUT_LEVEL", "0.25")
	t.Setenv("OPTIMIZER_ACCELERATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, bandit.Config{Memory: false, Shape: bandit.ShapeDegressive, Cutoff: 28, CutLevel: 0.25}, cfg.Optimizer.Bandit)
	assert.True(t, cfg.Optimizer.Accelerate)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"OPTIMIZER_SHAPE", "exponential"},
		{"OPTIMIZER_CUTOFF", "0"},
		{"OPTIMIZER_CUTOFF", "two weeks"},
		{"OPTIMIZER_CUT_LEVEL", "1.5"},
		{"OPTIMIZER_MEMORY", "sometimes"},
		{"ADPLATFORM_BATCH_SIZE", "51"},
		{"ADPLATFORM_TIMEOUT", "soon"},
		{"REDIS_DB", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")
	_, err := Load()
	assert.EqualError(t, err, "missing jwt secret")
}
