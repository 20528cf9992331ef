package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/filestorage"
)

func newScheduler(t *testing.T, store *memStudentStore) (*AutoBackupScheduler, *filestorage.LocalStorage) {
	t.Helper()
	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sched := NewAutoBackupScheduler(NewBackupService(store, 0, testLogger), storage, 5, testLogger)
	sched.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}
	return sched, storage
}

func TestRunOnceStoresAndPrunes(t *testing.T) {
	sched, storage := newScheduler(t, newMemStudentStore(student("2021001", "Ani")))

	var last *models.StoredBackup
	for i := 0; i < 7; i++ {
		stored, err := sched.RunOnce(context.Background())
		require.NoError(t, err)
		last = stored
	}

	files, err := storage.ListFiles(autoBackupPrefix)
	require.NoError(t, err)
	assert.Len(t, files, 5)

	list, err := sched.List()
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, last.Key, list[0].Key, "newest first")
	assert.Equal(t, 1, list[0].TotalStudents)

	content, err := sched.Read(last.Key)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"checksum"`)
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	sched, _ := newScheduler(t, newMemStudentStore())

	_, err := sched.Read("../state.json")
	assert.ErrorIs(t, err, apperrors.ErrBackupNotFound)

	_, err = sched.Read(AutoBackupKey(time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrBackupNotFound)
}

func TestCleanupRemovesOldAndCorruptBackups(t *testing.T) {
	sched, storage := newScheduler(t, newMemStudentStore())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	require.NoError(t, storage.SaveFile(AutoBackupKey(now.AddDate(0, 0, -40)), []byte(`{}`)))
	require.NoError(t, storage.SaveFile(AutoBackupKey(now.AddDate(0, 0, -1)), []byte(`{not json`)))
	fresh := AutoBackupKey(now.AddDate(0, 0, -2))
	require.NoError(t, storage.SaveFile(fresh, []byte(`{}`)))

	removed, err := sched.Cleanup(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files, err := storage.ListFiles(autoBackupPrefix)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, fresh, files[0].Name)
}

func TestSchedulerStartStop(t *testing.T) {
	sched, storage := newScheduler(t, newMemStudentStore())
	sched.Start(10 * time.Millisecond)
	assert.True(t, sched.Running())

	assert.Eventually(t, func() bool {
		files, err := storage.ListFiles(autoBackupPrefix)
		return err == nil && len(files) > 0
	}, 2*time.Second, 10*time.Millisecond)

	sched.Stop()
	assert.False(t, sched.Running())
	sched.Stop()
}

func TestRestartFollowsSettings(t *testing.T) {
	sched, _ := newScheduler(t, newMemStudentStore())

	settings := models.DefaultSettings()
	sched.Restart(settings)
	assert.False(t, sched.Running())

	settings.EnableAutoBackup = true
	sched.Restart(settings)
	assert.True(t, sched.Running())
	sched.Stop()
}
