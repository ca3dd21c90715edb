package farm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceSeedsBootReading(t *testing.T) {
	env := newTestEnv()

	reading := env.service.GetSensorState()
	assert.Equal(t, 25.0, reading.Temperature)
	assert.Equal(t, 68.0, reading.Humidity)
	assert.Equal(t, 42.0, reading.SoilMoisture)
	assert.Equal(t, 245.0, reading.WaterLevel)
	assert.False(t, reading.RainDetected)
	assert.False(t, reading.PumpRunning)
	assert.Equal(t, ConnectionConnected, reading.ConnectionStatus)
	assert.Equal(t, env.clock.Now(), reading.LastUpdated)
}

func TestUpdateSensorStateMergesWhitelistedFields(t *testing.T) {
	env := newTestEnv()
	env.clock.Advance(time.Minute)

	reading := env.service.UpdateSensorState(map[string]any{
		"temperature":  28.5,
		"rainDetected": true,
		"firmware":     "v2",  // unknown, ignored
		"score":        99.0,  // unknown, ignored
		"pumpRunning":  "yes", // unparseable, ignored
	})

	assert.Equal(t, 28.5, reading.Temperature)
	assert.True(t, reading.RainDetected)
	assert.False(t, reading.PumpRunning)
	// Untouched fields keep their previous values.
	assert.Equal(t, 42.0, reading.SoilMoisture)
	assert.Equal(t, env.clock.Now(), reading.LastUpdated)
	assert.Equal(t, ConnectionConnected, reading.ConnectionStatus)
}

func TestUpdateSensorStateCoercesWireTypes(t *testing.T) {
	env := newTestEnv()

	// JSON numbers arrive as float64; device firmware also sends strings.
	reading := env.service.UpdateSensorState(map[string]any{
		"soilMoisture": "37.5",
		"waterLevel":   180,
		"pumpRunning":  "true",
	})

	assert.Equal(t, 37.5, reading.SoilMoisture)
	assert.Equal(t, 180.0, reading.WaterLevel)
	assert.True(t, reading.PumpRunning)
}

func TestGetSensorStateReturnsCopy(t *testing.T) {
	env := newTestEnv()

	first := env.service.GetSensorState()
	first.Temperature = -100

	assert.Equal(t, 25.0, env.service.GetSensorState().Temperature)
}

func TestSetModeIsIdempotent(t *testing.T) {
	env := newTestEnv()
	require.Equal(t, ModeAutomatic, env.service.GetMode())

	assert.Equal(t, ModeManual, env.service.SetMode(ModeManual))
	assert.Equal(t, ModeManual, env.service.SetMode(ModeManual))
	assert.Equal(t, ModeAutomatic, env.service.SetMode(ModeAutomatic))
}

func TestModeChangeLeavesIrrigationAlone(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.service.StartIrrigation(10)
	require.NoError(t, err)

	env.service.SetMode(ModeManual)
	status := env.service.GetIrrigationStatus()
	assert.Equal(t, IrrigationRunning, status.State)
	assert.True(t, status.PumpRunning)
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{
		"automatic":  ModeAutomatic,
		"MANUAL":     ModeManual,
		" manual \n": ModeManual,
	} {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("hybrid")
	require.ErrorIs(t, err, ErrValidation)
}
