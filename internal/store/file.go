// Package store provides the durable backing for threshold configuration:
// a flat JSON object of threshold name to numeric value, loaded wholesale
// at startup and rewritten wholesale on every successful update.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists threshold values to a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path. The parent directory
// is created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the saved mapping. ok=false (with a nil error) when the file
// does not exist yet.
func (s *FileStore) Load() (map[string]float64, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read thresholds file: %w", err)
	}

	var values map[string]float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false, fmt.Errorf("parse thresholds file: %w", err)
	}
	return values, true, nil
}

// Save rewrites the whole mapping. The write goes through a temp file and
// a rename so a crash mid-write never leaves a truncated config behind.
func (s *FileStore) Save(values map[string]float64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create thresholds dir: %w", err)
	}

	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write thresholds file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace thresholds file: %w", err)
	}
	return nil
}
