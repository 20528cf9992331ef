package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/filestorage"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

const (
	autoBackupPrefix    = "autoBackup_"
	autoBackupExtension = ".json"
)

// AutoBackupKey names the stored snapshot taken at t.
func AutoBackupKey(t time.Time) string {
	return autoBackupPrefix + strconv.FormatInt(t.UnixMilli(), 10) + autoBackupExtension
}

// autoBackupTime parses the timestamp out of a key.
func autoBackupTime(key string) (time.Time, bool) {
	if !strings.HasPrefix(key, autoBackupPrefix) || !strings.HasSuffix(key, autoBackupExtension) {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(key, autoBackupPrefix), autoBackupExtension), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// AutoBackupScheduler writes periodic snapshots to file storage and keeps only
// the most recent ones. A run is not guarded against a concurrent manual run.
type AutoBackupScheduler struct {
	backups   BackupService
	storage   filestorage.FileStorage
	retention int
	logger    zerolog.Logger
	now       func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewAutoBackupScheduler creates a scheduler keeping retention snapshots.
func NewAutoBackupScheduler(backups BackupService, storage filestorage.FileStorage, retention int, logger zerolog.Logger) *AutoBackupScheduler {
	if retention <= 0 {
		retention = 5
	}
	return &AutoBackupScheduler{
		backups:   backups,
		storage:   storage,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs a snapshot every interval until Stop. Calling Start on a running
// scheduler does nothing.
func (s *AutoBackupScheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil || interval <= 0 {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.RunOnce(context.Background()); err != nil {
					s.logger.Error().Err(err).Msg("Automatic backup failed")
				}
			case <-stop:
				return
			}
		}
	}()
	s.logger.Info().Dur("interval", interval).Msg("Automatic backup scheduler started")
}

// Stop halts the scheduler and waits for the running tick, if any, to finish.
func (s *AutoBackupScheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	s.logger.Info().Msg("Automatic backup scheduler stopped")
}

// Restart applies new settings: the scheduler runs only when enabled.
func (s *AutoBackupScheduler) Restart(settings models.AppSettings) {
	s.Stop()
	if settings.EnableAutoBackup {
		s.Start(settings.BackupInterval())
	}
}

// Running reports whether the ticker goroutine is active.
func (s *AutoBackupScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// RunOnce stores one snapshot and prunes old ones.
func (s *AutoBackupScheduler) RunOnce(ctx context.Context) (*models.StoredBackup, error) {
	snapshot, err := s.backups.Create(ctx)
	if err != nil {
		metrics.ObserveBackup("auto", false)
		return nil, err
	}
	content, err := EncodeSnapshot(snapshot)
	if err != nil {
		metrics.ObserveBackup("auto", false)
		return nil, err
	}

	key := AutoBackupKey(s.now())
	if err := s.storage.SaveFile(key, content); err != nil {
		metrics.ObserveBackup("auto", false)
		return nil, fmt.Errorf("failed to store automatic backup: %w", err)
	}
	metrics.ObserveBackup("auto", true)

	if _, err := s.Prune(s.retention); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to prune automatic backups")
	}

	s.logger.Info().Str("key", key).Int("students", snapshot.Metadata.TotalStudents).Msg("Automatic backup stored")
	return &models.StoredBackup{
		Key:           key,
		Timestamp:     snapshot.Timestamp,
		TotalStudents: snapshot.Metadata.TotalStudents,
		Size:          int64(len(content)),
	}, nil
}

// List returns the stored snapshots, newest first. Files that cannot be read or
// decoded are skipped.
func (s *AutoBackupScheduler) List() ([]models.StoredBackup, error) {
	files, err := s.storage.ListFiles(autoBackupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list automatic backups: %w", err)
	}

	backups := make([]models.StoredBackup, 0, len(files))
	for _, f := range files {
		content, err := s.storage.ReadFile(f.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", f.Name).Msg("Skipping unreadable backup")
			continue
		}
		var header struct {
			Timestamp string                `json:"timestamp"`
			Metadata  models.BackupMetadata `json:"metadata"`
		}
		if err := json.Unmarshal(content, &header); err != nil {
			s.logger.Warn().Err(err).Str("key", f.Name).Msg("Skipping corrupt backup")
			continue
		}
		backups = append(backups, models.StoredBackup{
			Key:           f.Name,
			Timestamp:     header.Timestamp,
			TotalStudents: header.Metadata.TotalStudents,
			Size:          f.FileSize,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool { return backups[i].Key > backups[j].Key })
	return backups, nil
}

// Read returns the content of a stored snapshot.
func (s *AutoBackupScheduler) Read(key string) ([]byte, error) {
	if _, ok := autoBackupTime(key); !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBackupNotFound, key)
	}
	content, err := s.storage.ReadFile(key)
	if errors.Is(err, filestorage.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBackupNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read automatic backup: %w", err)
	}
	return content, nil
}

// Prune deletes all but the keep most recent snapshots and returns how many
// were removed.
func (s *AutoBackupScheduler) Prune(keep int) (int, error) {
	files, err := s.storage.ListFiles(autoBackupPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list automatic backups: %w", err)
	}
	if keep < 0 {
		keep = 0
	}
	if len(files) <= keep {
		return 0, nil
	}

	removed := 0
	for _, f := range files[:len(files)-keep] {
		if err := s.storage.DeleteFile(f.Name); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", f.Name, err)
		}
		removed++
	}
	return removed, nil
}

// Cleanup removes snapshots older than maxAge and any that no longer decode.
func (s *AutoBackupScheduler) Cleanup(maxAge time.Duration) (int, error) {
	files, err := s.storage.ListFiles(autoBackupPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list automatic backups: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, f := range files {
		if !s.stale(f.Name, cutoff) {
			continue
		}
		if err := s.storage.DeleteFile(f.Name); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", f.Name, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Cleaned up automatic backups")
	}
	return removed, nil
}

func (s *AutoBackupScheduler) stale(key string, cutoff time.Time) bool {
	taken, ok := autoBackupTime(key)
	if !ok || taken.Before(cutoff) {
		return true
	}
	content, err := s.storage.ReadFile(key)
	return err != nil || !json.Valid(content)
}
