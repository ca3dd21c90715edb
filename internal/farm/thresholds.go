package farm

import (
	"fmt"
	"sort"
)

// ThresholdConfig is the flat set of named numeric decision thresholds.
// Every key has a documented default; updates merge known keys and reject
// unknown ones.
type ThresholdConfig struct {
	SoilMoistureCritical             float64 `json:"soilMoistureCritical"`             // % — below: critical alert
	SoilMoistureLow                  float64 `json:"soilMoistureLow"`                  // % — below: monitoring advised
	WaterLevelMin                    float64 `json:"waterLevelMin"`                    // units — below: plan refill
	WaterLevelCritical               float64 `json:"waterLevelCritical"`               // units — below: critical alert
	TemperatureMax                   float64 `json:"temperatureMax"`                   // °C — above: ventilation alert
	TemperatureCritical              float64 `json:"temperatureCritical"`              // °C — above: heat stress alert
	HumidityMin                      float64 `json:"humidityMin"`                      // % — below: adjust misting
	HumidityCritical                 float64 `json:"humidityCritical"`                 // % — above: increase circulation
	RainPauseDurationMinutes         float64 `json:"rainPauseDurationMinutes"`         // rain-pause window honored by the scheduler
	AutoIrrigationMaxDurationMinutes float64 `json:"autoIrrigationMaxDurationMinutes"` // cap for scheduler-fired runs
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		SoilMoistureCritical:             20,
		SoilMoistureLow:                  30,
		WaterLevelMin:                    200,
		WaterLevelCritical:               100,
		TemperatureMax:                   35,
		TemperatureCritical:              40,
		HumidityMin:                      40,
		HumidityCritical:                 85,
		RainPauseDurationMinutes:         30,
		AutoIrrigationMaxDurationMinutes: 30,
	}
}

// thresholdFields maps wire keys to accessors, defining the closed key set.
var thresholdFields = map[string]struct {
	get func(*ThresholdConfig) *float64
}{
	"soilMoistureCritical":             {func(t *ThresholdConfig) *float64 { return &t.SoilMoistureCritical }},
	"soilMoistureLow":                  {func(t *ThresholdConfig) *float64 { return &t.SoilMoistureLow }},
	"waterLevelMin":                    {func(t *ThresholdConfig) *float64 { return &t.WaterLevelMin }},
	"waterLevelCritical":               {func(t *ThresholdConfig) *float64 { return &t.WaterLevelCritical }},
	"temperatureMax":                   {func(t *ThresholdConfig) *float64 { return &t.TemperatureMax }},
	"temperatureCritical":              {func(t *ThresholdConfig) *float64 { return &t.TemperatureCritical }},
	"humidityMin":                      {func(t *ThresholdConfig) *float64 { return &t.HumidityMin }},
	"humidityCritical":                 {func(t *ThresholdConfig) *float64 { return &t.HumidityCritical }},
	"rainPauseDurationMinutes":         {func(t *ThresholdConfig) *float64 { return &t.RainPauseDurationMinutes }},
	"autoIrrigationMaxDurationMinutes": {func(t *ThresholdConfig) *float64 { return &t.AutoIrrigationMaxDurationMinutes }},
}

// Map returns the config as a flat name->value mapping, the shape used for
// persistence and the PUT /api/thresholds payload.
func (t ThresholdConfig) Map() map[string]float64 {
	out := make(map[string]float64, len(thresholdFields))
	for key, f := range thresholdFields {
		out[key] = *f.get(&t)
	}
	return out
}

// Merge returns a copy of t with the given updates applied. The whole
// update is rejected when any key is unknown, so a failed merge never
// leaves a partially applied config.
func (t ThresholdConfig) Merge(updates map[string]float64) (ThresholdConfig, error) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		if _, ok := thresholdFields[key]; !ok {
			return t, fmt.Errorf("%w: unknown threshold key %q", ErrValidation, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := t
	for _, key := range keys {
		*thresholdFields[key].get(&merged) = updates[key]
	}
	return merged, nil
}

// ThresholdStore is the persistence contract for threshold configuration.
// Load reports ok=false when no saved configuration exists yet.
type ThresholdStore interface {
	Load() (values map[string]float64, ok bool, err error)
	Save(values map[string]float64) error
}
