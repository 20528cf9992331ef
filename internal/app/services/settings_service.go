package services

import (
	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
)

// SettingsStore persists the application settings.
type SettingsStore interface {
	Settings() models.AppSettings
	UpdateSettings(patch []byte) (models.AppSettings, error)
	ResetSettings() (models.AppSettings, error)
}

// BackupScheduler is restarted when the backup settings change.
type BackupScheduler interface {
	Restart(settings models.AppSettings)
}

// SettingsService reads and changes the administrator preferences.
type SettingsService interface {
	Get() models.AppSettings
	Update(patch []byte) (models.AppSettings, error)
	Reset() (models.AppSettings, error)
}

type settingsServiceImpl struct {
	store     SettingsStore
	scheduler BackupScheduler
	logger    zerolog.Logger
}

// NewSettingsService creates a new settings service. scheduler may be nil.
func NewSettingsService(store SettingsStore, scheduler BackupScheduler, logger zerolog.Logger) SettingsService {
	return &settingsServiceImpl{store: store, scheduler: scheduler, logger: logger}
}

func (s *settingsServiceImpl) Get() models.AppSettings {
	return s.store.Settings()
}

// Update merges a partial settings object over the current one.
func (s *settingsServiceImpl) Update(patch []byte) (models.AppSettings, error) {
	before := s.store.Settings()
	after, err := s.store.UpdateSettings(patch)
	if err != nil {
		return before, err
	}
	s.logger.Info().Msg("Settings updated")
	s.restartIfNeeded(before, after)
	return after, nil
}

func (s *settingsServiceImpl) Reset() (models.AppSettings, error) {
	before := s.store.Settings()
	after, err := s.store.ResetSettings()
	if err != nil {
		return before, err
	}
	s.logger.Info().Msg("Settings reset to defaults")
	s.restartIfNeeded(before, after)
	return after, nil
}

func (s *settingsServiceImpl) restartIfNeeded(before, after models.AppSettings) {
	if s.scheduler == nil {
		return
	}
	if before.EnableAutoBackup != after.EnableAutoBackup || before.BackupFrequency != after.BackupFrequency {
		s.logger.Info().
			Bool("enabled", after.EnableAutoBackup).
			Str("frequency", after.BackupFrequency).
			Msg("Backup schedule changed")
		s.scheduler.Restart(after)
	}
}
