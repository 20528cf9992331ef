package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/models"
)

type fakePruner struct {
	removed int
	err     error
	keep    int
}

func (f *fakePruner) Prune(keep int) (int, error) {
	f.keep = keep
	return f.removed, f.err
}

func TestValidateEmptyStore(t *testing.T) {
	report := NewMaintenanceService(newMemStudentStore(), nil, 0, testLogger).Validate(context.Background())

	assert.True(t, report.Valid)
	assert.NotNil(t, report.Issues)
	assert.Empty(t, report.Issues)
	assert.Equal(t, models.ValidationStatistics{}, report.Statistics)
}

func TestValidateFindsDuplicateNIMs(t *testing.T) {
	store := newMemStudentStore(
		student("2021001", "Ani"),
		student("2021001", "Ani (copy)"),
		student("2021002", "Budi"),
	)
	report := NewMaintenanceService(store, nil, 0, testLogger).Validate(context.Background())

	assert.False(t, report.Valid)
	assert.Equal(t, []string{"Duplicate NIMs found: 2021001"}, report.Issues)
	assert.Equal(t, 1, report.Statistics.Duplicates)
	assert.Equal(t, 3, report.Statistics.TotalStudents)
	assert.Equal(t, []string{"2021001"}, report.Details.DuplicateNIMs)
}

func TestValidateFindsInvalidDatesAndOrphans(t *testing.T) {
	bad := student("2021003", "Citra", withDates("2024-01-10", "not a date", "", ""))
	bad.CreatedAt = "31/12/2023"
	bad.UpdatedAt = "2024-01-02T10:00:00Z"
	store := newMemStudentStore(
		student("2021001", "Ani", withDates("", "", "", "2024-06-01")),
		student("2021002", "Budi", completed),
		bad,
	)
	report := NewMaintenanceService(store, nil, 0, testLogger).Validate(context.Background())

	assert.False(t, report.Valid)
	assert.Equal(t, []string{
		"Invalid dates found in 2 records",
		"Orphaned data found in 2 records",
	}, report.Issues)
	assert.Equal(t, []string{"2021003: Invalid sup_date", "2021003: Invalid created_at"}, report.Details.InvalidDates)
	assert.Equal(t, []string{
		"2021001: UK completed but no SHP date",
		"2021002: Marked as completed but no UK date",
	}, report.Details.OrphanedData)

	stats := report.Statistics
	assert.Equal(t, 1, stats.CompletedStudents)
	assert.Equal(t, 1, stats.StudentsWithUj3)
	assert.Equal(t, 1, stats.StudentsWithSup)
	assert.Equal(t, 1, stats.StudentsWithUk)
	assert.Equal(t, 2, stats.InvalidDates)
	assert.Equal(t, 2, stats.OrphanedRecords)
}

func TestValidateReportsReadFailure(t *testing.T) {
	store := newMemStudentStore()
	store.listErr = errors.New("connection refused")

	report := NewMaintenanceService(store, nil, 0, testLogger).Validate(context.Background())
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"Database query error: connection refused"}, report.Issues)
}

func TestRepair(t *testing.T) {
	svc := NewMaintenanceService(newMemStudentStore(), nil, 0, testLogger)
	result := svc.Repair(context.Background(), []string{
		"Duplicate NIMs found: 2021001",
		"Invalid dates found in 2 records",
		"Orphaned data found in 1 records",
	})

	assert.False(t, result.Success)
	assert.Empty(t, result.Repaired)
	assert.Equal(t, []string{
		"Duplicate NIMs found: 2021001 - Requires manual intervention",
		"Invalid dates found in 2 records",
		"Orphaned data found in 1 records - No automatic repair available",
	}, result.Failed)
}

func TestOptimize(t *testing.T) {
	store := newMemStudentStore()
	pruner := &fakePruner{removed: 3}

	result := NewMaintenanceService(store, pruner, 0, testLogger).Optimize(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, 10, pruner.keep)
	assert.Equal(t, []string{"Cleaned up 3 old backup records", "Database statistics updated"}, result.Actions)
	assert.Equal(t, "Database optimization completed. 2 actions performed.", result.Message)
	assert.Equal(t, 1, store.analyzed)
}

func TestOptimizeSkipsFailedAnalyze(t *testing.T) {
	store := newMemStudentStore()
	store.analyzeErr = errors.New("permission denied")

	result := NewMaintenanceService(store, &fakePruner{}, 0, testLogger).Optimize(context.Background())
	assert.True(t, result.Success)
	assert.Empty(t, result.Actions)
	assert.Equal(t, "Database optimization completed. 0 actions performed.", result.Message)
}
