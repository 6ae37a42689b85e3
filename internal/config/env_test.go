package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.NumProjections)
	assert.Equal(t, 300, cfg.DPI)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SW_NUM_PROJECTIONS", "250")
	t.Setenv("PLOT_DPI", "96")
	t.Setenv("HISTORY_FETCH_TIMEOUT", "5s")

	cfg, err := LoadConfig(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.NumProjections)
	assert.Equal(t, 96, cfg.DPI)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}

func TestLoadEstimatorEnvRejectsGarbage(t *testing.T) {
	t.Setenv("SW_NUM_PROJECTIONS", "not-a-number")

	_, err := LoadEstimatorEnv(t.Context())
	require.Error(t, err)
}
