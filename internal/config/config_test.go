package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.AnalysisInterval)
	assert.Equal(t, 20*time.Second, cfg.SchedulerInterval)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, "data/thresholds.json", cfg.ThresholdsPath)
	assert.Empty(t, cfg.OpenWeatherAPIKey)
	assert.Equal(t, 27.106960, cfg.FarmLat)
	assert.Equal(t, 88.323318, cfg.FarmLon)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ANALYSIS_INTERVAL", "1m")
	t.Setenv("OPENWEATHER_API_KEY", "key-123")
	t.Setenv("FARM_LAT", "27.5")
	t.Setenv("FARM_LON", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Minute, cfg.AnalysisInterval)
	assert.Equal(t, "key-123", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 27.5, cfg.FarmLat)
	// Unparseable floats fall back to the default.
	assert.Equal(t, 88.323318, cfg.FarmLon)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("ANALYSIS_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ANALYSIS_INTERVAL", "-5s")
	_, err = Load()
	require.Error(t, err)
}
