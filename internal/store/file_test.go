package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "thresholds.json")
	s := NewFileStore(path)

	values := map[string]float64{
		"soilMoistureCritical": 22,
		"temperatureMax":       35,
	}
	require.NoError(t, s.Save(values))

	loaded, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, values, loaded)

	// Saves replace the whole mapping.
	require.NoError(t, s.Save(map[string]float64{"waterLevelMin": 180}))
	loaded, ok, err = s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"waterLevelMin": 180}, loaded)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	values, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, values)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.False(t, ok)
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(map[string]float64{"humidityMin": 40}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "thresholds.json", entries[0].Name())
}
