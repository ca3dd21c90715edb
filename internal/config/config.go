package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig is the process configuration, read from the environment.
type AppConfig struct {
	Port string

	// AnalysisInterval is both the assessment throttle window and the
	// cadence of the background analysis loop.
	AnalysisInterval time.Duration

	// SchedulerInterval is the cadence of the irrigation job scheduler.
	SchedulerInterval time.Duration

	// WeatherTimeout bounds every outbound weather call.
	WeatherTimeout time.Duration

	// ThresholdsPath is the JSON file holding persisted thresholds.
	ThresholdsPath string

	// OpenWeatherAPIKey selects the live provider when set; otherwise the
	// deterministic simulator is used.
	OpenWeatherAPIKey string
	FarmLat           float64
	FarmLon           float64

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	interval, err := parseDuration("ANALYSIS_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	cfg.AnalysisInterval = interval

	schedInterval, err := parseDuration("SCHEDULER_INTERVAL", "20s")
	if err != nil {
		return nil, err
	}
	cfg.SchedulerInterval = schedInterval

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cfg.WeatherTimeout = weatherTimeout

	cfg.ThresholdsPath = getenvDefault("THRESHOLDS_PATH", "data/thresholds.json")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	// Jorethang Valley, South Sikkim.
	cfg.FarmLat = getenvFloat("FARM_LAT", 27.106960)
	cfg.FarmLon = getenvFloat("FARM_LON", 88.323318)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
