package farm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agrosmart/farm-control/internal/weather"
)

const (
	defaultAnalysisInterval = 30 * time.Second
	defaultWeatherTimeout   = 5 * time.Second
)

// Options configures a Service.
type Options struct {
	Store   ThresholdStore
	Weather weather.Provider
	Logger  *zap.Logger

	// AnalysisInterval is the assessment throttle window (default 30s).
	AnalysisInterval time.Duration
	// WeatherTimeout bounds every collaborator call (default 5s).
	WeatherTimeout time.Duration
	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// Service owns the whole farm-state aggregate: the sensor reading, the
// mode flag, thresholds, the irrigation state machine and job set, and the
// cached assessment. Every read or mutation of the aggregate happens under
// one mutex; no network or file I/O is performed while holding it except
// the bounded threshold persistence write.
type Service struct {
	mu sync.Mutex

	reading    SensorReading
	mode       Mode
	thresholds ThresholdConfig

	run       irrigationRun
	jobs      map[string]IrrigationJob
	lastFired map[string]time.Time // job id -> minute of last firing decision

	assessment     FarmAssessment
	lastEvaluated  time.Time
	haveAssessment bool

	lastWeather weather.Snapshot
	haveWeather bool

	store    ThresholdStore
	provider weather.Provider
	log      *zap.Logger

	now              func() time.Time
	analysisInterval time.Duration
	weatherTimeout   time.Duration
}

type irrigationRun struct {
	state       IrrigationState
	duration    time.Duration
	startedAt   time.Time
	expectedEnd time.Time
	remaining   time.Duration // valid only while paused
}

// NewService builds the farm aggregate, loading persisted thresholds and
// seeding the sensor state with the documented boot defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("threshold store is nil")
	}
	if opts.Weather == nil {
		return nil, errors.New("weather provider is nil")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = defaultAnalysisInterval
	}
	if opts.WeatherTimeout <= 0 {
		opts.WeatherTimeout = defaultWeatherTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		mode:             ModeAutomatic,
		thresholds:       DefaultThresholds(),
		run:              irrigationRun{state: IrrigationStopped},
		jobs:             make(map[string]IrrigationJob),
		lastFired:        make(map[string]time.Time),
		store:            opts.Store,
		provider:         opts.Weather,
		log:              opts.Logger,
		now:              opts.Now,
		analysisInterval: opts.AnalysisInterval,
		weatherTimeout:   opts.WeatherTimeout,
	}

	s.reading = SensorReading{
		Temperature:      25.0,
		Humidity:         68.0,
		SoilMoisture:     42.0,
		WaterLevel:       245.0,
		ConnectionStatus: ConnectionConnected,
		LastUpdated:      s.now(),
	}

	saved, ok, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}
	if ok {
		merged, err := s.thresholds.Merge(saved)
		if err != nil {
			// A stale key in the saved file must not block startup.
			s.log.Warn("ignoring unrecognized saved thresholds", zap.Error(err))
			merged = s.applyKnown(saved)
		}
		s.thresholds = merged
	}

	return s, nil
}

// applyKnown merges only the recognized keys of values, skipping the rest.
func (s *Service) applyKnown(values map[string]float64) ThresholdConfig {
	merged := s.thresholds
	for key, v := range values {
		if one, err := merged.Merge(map[string]float64{key: v}); err == nil {
			merged = one
		}
	}
	return merged
}

// GetSensorState returns a copy of the current sensor reading.
func (s *Service) GetSensorState() SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// sensorFields is the whitelist of recognized inbound sensor keys. Unknown
// keys are ignored silently, never stored. No range validation happens
// here; range interpretation belongs to the analysis engine.
var sensorFields = map[string]func(*SensorReading, any) bool{
	"temperature":  func(r *SensorReading, v any) bool { return setFloat(&r.Temperature, v) },
	"humidity":     func(r *SensorReading, v any) bool { return setFloat(&r.Humidity, v) },
	"soilMoisture": func(r *SensorReading, v any) bool { return setFloat(&r.SoilMoisture, v) },
	"waterLevel":   func(r *SensorReading, v any) bool { return setFloat(&r.WaterLevel, v) },
	"rainDetected": func(r *SensorReading, v any) bool { return setBool(&r.RainDetected, v) },
	"pumpRunning":  func(r *SensorReading, v any) bool { return setBool(&r.PumpRunning, v) },
}

// UpdateSensorState merges the recognized fields of a device push into the
// reading. Any successful update marks the device connected and refreshes
// lastUpdated.
func (s *Service) UpdateSensorState(patch map[string]any) SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range patch {
		set, ok := sensorFields[key]
		if !ok {
			continue
		}
		if !set(&s.reading, value) {
			s.log.Debug("sensor field has unusable value", zap.String("field", key))
		}
	}
	s.reading.LastUpdated = s.now()
	s.reading.ConnectionStatus = ConnectionConnected
	return s.reading
}

// GetMode returns the current mode.
func (s *Service) GetMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between automatic and manual. The change is
// unconditional and idempotent; it only gates future analysis runs and
// leaves irrigation state, jobs, and the cached assessment untouched.
func (s *Service) SetMode(m Mode) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != m {
		s.log.Info("mode changed", zap.String("mode", string(m)))
	}
	s.mode = m
	return s.mode
}

// GetThresholds returns the current threshold configuration.
func (s *Service) GetThresholds() ThresholdConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thresholds
}

// SetThresholds merges the given updates and persists the full config.
// Unknown keys reject the whole update. A persistence failure keeps the
// in-memory update and is reported as a wrapped ErrPersistence alongside
// the applied config.
func (s *Service) SetThresholds(updates map[string]float64) (ThresholdConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.thresholds.Merge(updates)
	if err != nil {
		return s.thresholds, err
	}
	s.thresholds = merged

	if err := s.store.Save(merged.Map()); err != nil {
		s.log.Error("threshold save failed; in-memory config remains applied", zap.Error(err))
		return merged, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return merged, nil
}

func setFloat(dst *float64, v any) bool {
	switch t := v.(type) {
	case float64:
		*dst = t
	case float32:
		*dst = float64(t)
	case int:
		*dst = float64(t)
	case int64:
		*dst = float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return false
		}
		*dst = f
	default:
		return false
	}
	return true
}

func setBool(dst *bool, v any) bool {
	switch t := v.(type) {
	case bool:
		*dst = t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false
		}
		*dst = b
	default:
		return false
	}
	return true
}
