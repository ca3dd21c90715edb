package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agrosmart/farm-control/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherProvider fetches current conditions and a daily forecast for a
// fixed site from the OpenWeatherMap One Call API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	lat     float64
	lon     float64
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, lat, lon float64) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/3.0/onecall",
		lat:     lat,
		lon:     lon,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchSnapshot(ctx context.Context) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", p.lat))
		values.Set("lon", fmt.Sprintf("%f", p.lon))
		values.Set("exclude", "minutely,hourly,alerts")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Weather  []struct {
				Main string `json:"main"`
			} `json:"weather"`
		} `json:"current"`
		Daily []struct {
			Dt   int64 `json:"dt"`
			Temp struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"temp"`
			Pop     float64 `json:"pop"` // probability of precipitation, 0-1
			Weather []struct {
				Main string `json:"main"`
			} `json:"weather"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, err
	}
	if len(payload.Daily) == 0 {
		return weather.Snapshot{}, fmt.Errorf("openweather returned no daily forecast")
	}

	days := make([]weather.ForecastDay, 0, weather.ForecastDays)
	for i, d := range payload.Daily {
		if i >= weather.ForecastDays {
			break
		}
		label := time.Unix(d.Dt, 0).UTC().Format("Mon")
		if i == 0 {
			label = "Today"
		}
		days = append(days, weather.ForecastDay{
			Day:        label,
			High:       d.Temp.Max,
			Low:        d.Temp.Min,
			Condition:  mapOpenWeatherCondition(firstMain(d.Weather)),
			RainChance: d.Pop * 100,
		})
	}

	return weather.Snapshot{
		FetchedAt: time.Now().UTC(),
		Current: weather.CurrentConditions{
			Temperature: payload.Current.Temp,
			Condition:   mapOpenWeatherCondition(firstMain(payload.Current.Weather)),
			RainChance:  days[0].RainChance,
			Humidity:    payload.Current.Humidity,
		},
		Forecast: days,
	}, nil
}

func firstMain(items []struct {
	Main string `json:"main"`
}) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Main
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
