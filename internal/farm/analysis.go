package farm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agrosmart/farm-control/internal/common"
	"github.com/agrosmart/farm-control/internal/weather"
)

// lowTemperatureFloorC is the fixed frost-watch floor. Valley winters sit
// around 10-15°C; anything below the floor risks cold damage to the
// standing spice crops.
const lowTemperatureFloorC = 10.0

const (
	actionRainPause      = "Pause irrigation to avoid overwatering"
	actionPostponeRain   = "Postpone irrigation schedule; rain expected today"
	fallbackScore        = 85
	forecastRainPostpone = 60.0
	forecastRainClear    = 10.0
)

// GetAssessment returns the current farm assessment. In manual mode it
// returns the disabled marker without touching the cache. Within the
// throttle interval it serves the cached assessment with the remaining
// wait; otherwise it recomputes.
func (s *Service) GetAssessment() AssessmentResult {
	s.mu.Lock()
	now := s.now()
	if s.mode != ModeAutomatic {
		s.mu.Unlock()
		return AssessmentResult{Assessment: disabledAssessment(now)}
	}
	if s.haveAssessment {
		if elapsed := now.Sub(s.lastEvaluated); elapsed < s.analysisInterval {
			res := AssessmentResult{
				Assessment: s.assessment,
				RetryIn:    s.analysisInterval - elapsed,
			}
			s.mu.Unlock()
			return res
		}
	}
	s.mu.Unlock()
	return s.recompute()
}

// recompute fetches weather outside the lock, then re-checks staleness and
// evaluates under the lock. Two racing callers produce one fresh value.
func (s *Service) recompute() AssessmentResult {
	snap := s.currentWeather()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.haveAssessment {
		if elapsed := now.Sub(s.lastEvaluated); elapsed < s.analysisInterval {
			return AssessmentResult{
				Assessment: s.assessment,
				RetryIn:    s.analysisInterval - elapsed,
			}
		}
	}

	a := s.safeEvaluate(s.reading, snap, s.thresholds, now)
	s.assessment = a
	s.lastEvaluated = now
	s.haveAssessment = true
	return AssessmentResult{Assessment: a, Fresh: true}
}

// CurrentWeather exposes the snapshot the engine is working from, fetching
// one if nothing is cached yet.
func (s *Service) CurrentWeather() weather.Snapshot {
	return s.currentWeather()
}

// currentWeather fetches a snapshot with a bounded timeout. On collaborator
// failure it substitutes the last good snapshot, or the deterministic
// fallback when none exists; the analysis cadence never depends on
// collaborator latency.
func (s *Service) currentWeather() weather.Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), s.weatherTimeout)
	defer cancel()

	snap, err := s.provider.FetchSnapshot(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		s.mu.Lock()
		if s.haveWeather {
			snap = s.lastWeather
			s.mu.Unlock()
			s.log.Warn("weather provider failed; using last good snapshot", zap.Error(err))
			return snap
		}
		s.mu.Unlock()
		s.log.Warn("weather provider failed; using deterministic fallback", zap.Error(err))
		return weather.FallbackSnapshot(s.now())
	}

	s.mu.Lock()
	s.lastWeather = snap
	s.haveWeather = true
	s.mu.Unlock()
	return snap
}

// safeEvaluate wraps the scoring rules in a recover so an internal failure
// degrades to the fixed fail-safe assessment instead of propagating.
func (s *Service) safeEvaluate(reading SensorReading, snap weather.Snapshot, th ThresholdConfig, now time.Time) (a FarmAssessment) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("analysis failed; returning fail-safe assessment", zap.Any("cause", r))
			a = fallbackAssessment(now)
		}
	}()
	return evaluate(reading, snap, th, now)
}

// evaluate applies the deterministic scoring rules. It is a pure function
// of its inputs.
func evaluate(reading SensorReading, snap weather.Snapshot, th ThresholdConfig, now time.Time) FarmAssessment {
	a := FarmAssessment{
		Timestamp:       now,
		Alerts:          []string{},
		PriorityActions: []string{},
		SystemActions:   []string{},
		Recommendations: []string{},
	}
	score := 100

	// Soil moisture bands.
	switch {
	case reading.SoilMoisture < th.SoilMoistureCritical:
		a.Alerts = append(a.Alerts, fmt.Sprintf("Soil moisture critically low: %.1f%% (threshold %.1f%%)", reading.SoilMoisture, th.SoilMoistureCritical))
		a.SystemActions = append(a.SystemActions, "Prepare irrigation system")
		score -= 20
	case reading.SoilMoisture < th.SoilMoistureLow:
		a.PriorityActions = append(a.PriorityActions, "Monitor soil moisture closely")
		score -= 10
	default:
		a.PriorityActions = append(a.PriorityActions, "Soil moisture in the optimal range")
	}

	// Temperature bands.
	switch {
	case reading.Temperature > th.TemperatureCritical:
		a.Alerts = append(a.Alerts, fmt.Sprintf("Temperature critically high: %.1f°C", reading.Temperature))
		a.SystemActions = append(a.SystemActions, "Increase ventilation and apply shade cover")
		score -= 15
	case reading.Temperature > th.TemperatureMax:
		a.Alerts = append(a.Alerts, fmt.Sprintf("Temperature above maximum: %.1f°C (threshold %.1f°C)", reading.Temperature, th.TemperatureMax))
		a.SystemActions = append(a.SystemActions, "Increase ventilation")
		score -= 15
	case reading.Temperature < lowTemperatureFloorC:
		a.Alerts = append(a.Alerts, fmt.Sprintf("Temperature low: %.1f°C", reading.Temperature))
		a.SystemActions = append(a.SystemActions, "Monitor for frost risk")
		score -= 10
	default:
		a.PriorityActions = append(a.PriorityActions, "Temperature optimal for crops")
	}

	// Detected rain pauses irrigation; no score effect.
	if reading.RainDetected {
		a.SystemActions = append(a.SystemActions, actionRainPause)
	}

	// Forecast window for today.
	switch chance := snap.TodayRainChance(); {
	case chance > forecastRainPostpone:
		a.SystemActions = append(a.SystemActions, actionPostponeRain)
	case chance < forecastRainClear:
		a.PriorityActions = append(a.PriorityActions, "Good window for field work")
	}

	// Water level bands.
	switch {
	case reading.WaterLevel < th.WaterLevelCritical:
		a.Alerts = append(a.Alerts, fmt.Sprintf("Water reserve critically low: %.0f units (threshold %.0f)", reading.WaterLevel, th.WaterLevelCritical))
		a.SystemActions = append(a.SystemActions, "Notify operator: water reserve low")
		score -= 25
	case reading.WaterLevel < th.WaterLevelMin:
		a.PriorityActions = append(a.PriorityActions, "Plan water refill")
		score -= 5
	}

	// Humidity bands; informational, no score effect.
	switch {
	case reading.Humidity > th.HumidityCritical:
		a.SystemActions = append(a.SystemActions, "Increase air circulation")
	case reading.Humidity < th.HumidityMin:
		a.SystemActions = append(a.SystemActions, "Adjust misting cycle")
	}

	a.Recommendations = append(a.Recommendations, seasonalInsight(now.Month()))

	a.Score = common.ClampInt(score, 0, 100)
	a.OverallStatus = statusForScore(a.Score)
	return a
}

func statusForScore(score int) Status {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 75:
		return StatusGood
	case score >= 60:
		return StatusFair
	default:
		return StatusActionRequired
	}
}

// fallbackAssessment is the fixed fail-safe result. The score of 85 is a
// signal distinct from real scoring; Degraded disambiguates it.
func fallbackAssessment(now time.Time) FarmAssessment {
	return FarmAssessment{
		Timestamp:       now,
		Alerts:          []string{},
		PriorityActions: []string{},
		SystemActions:   []string{"Run system diagnostics; analysis engine reported an internal failure"},
		Recommendations: []string{},
		Score:           fallbackScore,
		OverallStatus:   StatusOperational,
		Degraded:        true,
	}
}

// disabledAssessment is the marker returned while in manual mode. No
// scoring is performed and nothing is cached.
func disabledAssessment(now time.Time) FarmAssessment {
	return FarmAssessment{
		Timestamp:       now,
		Alerts:          []string{},
		PriorityActions: []string{},
		SystemActions:   []string{},
		Recommendations: []string{"Automatic analysis is disabled in manual mode"},
		OverallStatus:   StatusDisabled,
	}
}

// seasonalInsight is a static month->market note lookup for the valley's
// spice crops. Informational only.
func seasonalInsight(m time.Month) string {
	switch m {
	case time.January:
		return "Post-monsoon: cure and grade harvested ginger; organic lots fetch a 25-30% premium"
	case time.February:
		return "Pre-monsoon: prepare raised beds and source certified ginger rhizomes"
	case time.March:
		return "Pre-monsoon: plant ginger and turmeric; apply farmyard manure before the rains"
	case time.April:
		return "Pre-monsoon: finish planting; mulch beds to hold early-season moisture"
	case time.May:
		return "Pre-monsoon: check drainage channels before the monsoon arrives"
	case time.June:
		return "Monsoon: natural irrigation active; watch for waterlogging in low beds"
	case time.July:
		return "Monsoon: high humidity favors fungal disease; inspect ginger stands weekly"
	case time.August:
		return "Monsoon: rhizome development peak; keep soil moisture steady"
	case time.September:
		return "Monsoon tail: plan harvest labor; early turmeric markets open"
	case time.October:
		return "Post-monsoon: begin turmeric harvest; powder processing adds 120-180/kg value"
	case time.November:
		return "Post-monsoon: ginger harvest window; December pricing usually peaks"
	default:
		return "Post-monsoon: cardamom auctions active; store cured produce for the export market"
	}
}
