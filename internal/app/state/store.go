// Package state keeps the application state that lives outside the database:
// settings, the admin password hash and the sync history. It is loaded once at
// startup and written back to disk after every mutation.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

var validate = validator.New()

// Store guards an AppState and persists it to a JSON file.
type Store struct {
	mu    sync.RWMutex
	path  string
	state models.AppState
}

// Open loads the state at path. A missing file yields defaults; an empty path keeps
// the state in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, state: models.AppState{Settings: models.DefaultSettings()}}
	if path == "" {
		return s, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info().Str("path", path).Msg("No state file found, starting with defaults")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if len(bytes.TrimSpace(content)) > 0 {
		if err := json.Unmarshal(content, &s.state); err != nil {
			return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
		}
	}
	if err := validate.Struct(s.state.Settings); err != nil {
		logger.Warn().Err(err).Msg("Stored settings are invalid, falling back to defaults")
		s.state.Settings = models.DefaultSettings()
	}
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	s, _ := Open("")
	return s
}

// save writes the state through a temp file and rename. Caller holds mu.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	content, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Settings returns the current settings.
func (s *Store) Settings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Settings
}

// UpdateSettings merges a partial JSON object over the current settings.
// The merged value must validate; otherwise nothing changes.
func (s *Store) UpdateSettings(patch []byte) (models.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.state.Settings
	if err := json.Unmarshal(patch, &merged); err != nil {
		return s.state.Settings, fmt.Errorf("%w: invalid settings payload: %v", apperrors.ErrValidationFailed, err)
	}
	if err := validate.Struct(merged); err != nil {
		return s.state.Settings, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}

	previous := s.state.Settings
	s.state.Settings = merged
	if err := s.save(); err != nil {
		s.state.Settings = previous
		return previous, err
	}
	return merged, nil
}

// ResetSettings restores the default settings.
func (s *Store) ResetSettings() (models.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.Settings
	s.state.Settings = models.DefaultSettings()
	if err := s.save(); err != nil {
		s.state.Settings = previous
		return previous, err
	}
	return s.state.Settings, nil
}

// AdminPasswordHash returns the stored bcrypt hash, or "" when none was set.
func (s *Store) AdminPasswordHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AdminPasswordHash
}

// SetAdminPasswordHash replaces the stored admin password hash.
func (s *Store) SetAdminPasswordHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.AdminPasswordHash
	s.state.AdminPasswordHash = hash
	if err := s.save(); err != nil {
		s.state.AdminPasswordHash = previous
		return err
	}
	return nil
}

// AppendSyncRecord adds rec to the history, keeping the most recent limit entries.
// A successful record also moves the last sync time.
func (s *Store) AppendSyncRecord(rec models.SyncRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(append([]models.SyncRecord{}, s.state.SyncHistory...), rec)
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	s.state.SyncHistory = history
	if rec.Status == models.SyncStatusSuccess {
		s.state.LastSyncTime = rec.Timestamp
	}
	return s.save()
}

// SyncHistory returns a copy of the history, oldest first.
func (s *Store) SyncHistory() []models.SyncRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SyncRecord{}, s.state.SyncHistory...)
}

// LastSyncTime returns the timestamp of the last successful sync, or "".
func (s *Store) LastSyncTime() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastSyncTime
}
