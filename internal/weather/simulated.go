package weather

import (
	"context"
	"math/rand"
	"time"
)

// SimulatedProvider generates plausible valley weather when no live API key
// is configured. The generator is seeded per calendar day, so repeated
// fetches within a day return the same snapshot and tests stay stable.
type SimulatedProvider struct {
	name string
	now  func() time.Time
}

func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{
		name: "simulated",
		now:  time.Now,
	}
}

func (p *SimulatedProvider) Name() string {
	return p.name
}

func (p *SimulatedProvider) FetchSnapshot(_ context.Context) (Snapshot, error) {
	now := p.now().UTC()
	rng := rand.New(rand.NewSource(daySeed(now)))

	// Monsoon months (Jun-Sep) skew wet, the rest of the year skews dry.
	wet := now.Month() >= time.June && now.Month() <= time.September

	days := make([]ForecastDay, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		day := now.AddDate(0, 0, i)
		label := day.Format("Mon")
		if i == 0 {
			label = "Today"
		}
		high := 23 + rng.Float64()*6 // 23-29
		low := high - 7 - rng.Float64()*2
		chance := rng.Float64() * 45
		if wet {
			chance = 30 + rng.Float64()*60
		}
		days = append(days, ForecastDay{
			Day:        label,
			High:       round1(high),
			Low:        round1(low),
			Condition:  conditionForRainChance(chance),
			RainChance: round1(chance),
		})
	}

	current := CurrentConditions{
		Temperature: round1(days[0].Low + (days[0].High-days[0].Low)*0.6),
		Condition:   days[0].Condition,
		RainChance:  days[0].RainChance,
		Humidity:    round1(55 + rng.Float64()*30),
	}

	return Snapshot{
		FetchedAt: now,
		Current:   current,
		Forecast:  days,
	}, nil
}

func daySeed(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

func conditionForRainChance(chance float64) Condition {
	switch {
	case chance >= 70:
		return ConditionStorm
	case chance >= 45:
		return ConditionRain
	case chance >= 20:
		return ConditionCloudy
	default:
		return ConditionClear
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
