package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// ForecastDays is the fixed length of the daily forecast carried by a snapshot.
const ForecastDays = 7

// CurrentConditions is the present-moment weather at the farm site.
type CurrentConditions struct {
	Temperature float64   `json:"temperatureC"`
	Condition   Condition `json:"condition"`
	RainChance  float64   `json:"rainChancePercent"` // 0-100
	Humidity    float64   `json:"humidityPercent"`
}

// ForecastDay is one day of the daily forecast. Entries are ordered,
// starting with today.
type ForecastDay struct {
	Day        string    `json:"day"` // short weekday label, "Today" for the first entry
	High       float64   `json:"highC"`
	Low        float64   `json:"lowC"`
	Condition  Condition `json:"condition"`
	RainChance float64   `json:"rainChancePercent"`
}

// Snapshot is the weather view the decision engine consumes: current
// conditions plus a seven-day daily forecast. A snapshot is immutable
// once returned by a provider.
type Snapshot struct {
	FetchedAt time.Time         `json:"fetchedAt"` // always UTC
	Current   CurrentConditions `json:"current"`
	Forecast  []ForecastDay     `json:"forecast"`
}

// TodayRainChance returns the rain probability for the first forecast day,
// falling back to the current conditions when no forecast is present.
func (s Snapshot) TodayRainChance() float64 {
	if len(s.Forecast) > 0 {
		return s.Forecast[0].RainChance
	}
	return s.Current.RainChance
}
