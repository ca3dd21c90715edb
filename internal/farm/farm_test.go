package farm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agrosmart/farm-control/internal/weather"
)

// testClock is a manually advanced clock shared by the tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

// newTestClock starts on a Wednesday morning.
func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memThresholdStore is an in-memory ThresholdStore with an injectable
// save failure.
type memThresholdStore struct {
	mu      sync.Mutex
	values  map[string]float64
	saves   int
	saveErr error
}

func (m *memThresholdStore) Load() (map[string]float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return nil, false, nil
	}
	out := make(map[string]float64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, true, nil
}

func (m *memThresholdStore) Save(values map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.values = make(map[string]float64, len(values))
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// stubWeather returns a fixed snapshot or a fixed error.
type stubWeather struct {
	mu    sync.Mutex
	snap  weather.Snapshot
	err   error
	calls int
}

func (s *stubWeather) Name() string { return "stub" }

func (s *stubWeather) FetchSnapshot(_ context.Context) (weather.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return weather.Snapshot{}, s.err
	}
	return s.snap, nil
}

func (s *stubWeather) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = errors.New("provider down")
}

// calmSnapshot is weather that triggers no forecast action.
func calmSnapshot(now time.Time) weather.Snapshot {
	snap := weather.FallbackSnapshot(now)
	for i := range snap.Forecast {
		snap.Forecast[i].RainChance = 30
	}
	snap.Current.RainChance = 30
	return snap
}

type testEnv struct {
	service  *Service
	clock    *testClock
	store    *memThresholdStore
	provider *stubWeather
}

func newTestEnv() *testEnv {
	clock := newTestClock()
	store := &memThresholdStore{}
	provider := &stubWeather{snap: calmSnapshot(clock.Now())}

	service, err := NewService(Options{
		Store:            store,
		Weather:          provider,
		AnalysisInterval: 30 * time.Second,
		WeatherTimeout:   time.Second,
		Now:              clock.Now,
	})
	if err != nil {
		panic(err)
	}
	return &testEnv{service: service, clock: clock, store: store, provider: provider}
}
