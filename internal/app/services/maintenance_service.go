package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

// BackupPruner trims the stored automatic backups.
type BackupPruner interface {
	Prune(keep int) (int, error)
}

// MaintenanceService checks and tidies the student data.
type MaintenanceService interface {
	Validate(ctx context.Context) models.ValidationReport
	Repair(ctx context.Context, issues []string) models.RepairResult
	Optimize(ctx context.Context) models.OptimizeResult
}

type maintenanceServiceImpl struct {
	students  StudentStore
	backups   BackupPruner
	retention int
	logger    zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service. Optimize keeps
// retention automatic backups.
func NewMaintenanceService(students StudentStore, backups BackupPruner, retention int, logger zerolog.Logger) MaintenanceService {
	if retention <= 0 {
		retention = 10
	}
	return &maintenanceServiceImpl{
		students:  students,
		backups:   backups,
		retention: retention,
		logger:    logger,
	}
}

var validatedDateFields = []string{"uj3_date", "sup_date", "shp_date", "uk_date", "created_at", "updated_at"}

// Validate reads every student once and reports duplicates, unparsable dates and
// stage gaps. A read failure is reported as an issue.
func (s *maintenanceServiceImpl) Validate(ctx context.Context) models.ValidationReport {
	report := s.validate(ctx)
	metrics.ObserveValidation(report.Valid)
	s.logger.Info().Bool("valid", report.Valid).Int("issues", len(report.Issues)).Msg("Integrity check finished")
	return report
}

func (s *maintenanceServiceImpl) validate(ctx context.Context) models.ValidationReport {
	report := models.ValidationReport{
		Issues: []string{},
		Details: models.ValidationDetails{
			DuplicateNIMs: []string{},
			InvalidDates:  []string{},
			OrphanedData:  []string{},
		},
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Integrity check could not read students")
		report.Issues = append(report.Issues, fmt.Sprintf("Database query error: %v", err))
		return report
	}

	duplicates := findDuplicateNIMs(students)
	if len(duplicates) > 0 {
		report.Issues = append(report.Issues, "Duplicate NIMs found: "+strings.Join(duplicates, ", "))
		report.Details.DuplicateNIMs = duplicates
	}

	invalid := findInvalidDates(students)
	if len(invalid) > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("Invalid dates found in %d records", len(invalid)))
		report.Details.InvalidDates = invalid
	}

	orphans := findOrphanedData(students)
	if len(orphans) > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("Orphaned data found in %d records", len(orphans)))
		report.Details.OrphanedData = orphans
	}

	stats := models.ValidationStatistics{
		TotalStudents:   len(students),
		Duplicates:      len(duplicates),
		InvalidDates:    len(invalid),
		OrphanedRecords: len(orphans),
	}
	for i := range students {
		st := &students[i]
		if st.IsCompleted {
			stats.CompletedStudents++
		}
		if st.HasStage(models.StageUJ3) {
			stats.StudentsWithUj3++
		}
		if st.HasStage(models.StageSUP) {
			stats.StudentsWithSup++
		}
		if st.HasStage(models.StageSHP) {
			stats.StudentsWithShp++
		}
		if st.HasStage(models.StageUK) {
			stats.StudentsWithUk++
		}
	}
	report.Statistics = stats
	report.Valid = len(report.Issues) == 0
	return report
}

// findDuplicateNIMs returns each NIM held by more than one record, sorted.
func findDuplicateNIMs(students []models.Student) []string {
	counts := make(map[string]int, len(students))
	for _, st := range students {
		if st.NIM != "" {
			counts[st.NIM]++
		}
	}
	var duplicates []string
	for nim, n := range counts {
		if n > 1 {
			duplicates = append(duplicates, nim)
		}
	}
	sort.Strings(duplicates)
	return duplicates
}

func displayNIM(nim string) string {
	if nim == "" {
		return "Unknown"
	}
	return nim
}

// findInvalidDates returns one entry per non-empty date value that does not parse.
func findInvalidDates(students []models.Student) []string {
	var issues []string
	for i := range students {
		for _, field := range validatedDateFields {
			value, _ := students[i].FieldValue(field)
			if value == "" {
				continue
			}
			if _, ok := models.ParseDate(value); !ok {
				issues = append(issues, fmt.Sprintf("%s: Invalid %s", displayNIM(students[i].NIM), field))
			}
		}
	}
	return issues
}

// findOrphanedData returns one entry per stage recorded without its predecessor.
func findOrphanedData(students []models.Student) []string {
	var orphans []string
	for i := range students {
		st := &students[i]
		if st.HasStage(models.StageUK) && !st.HasStage(models.StageSHP) {
			orphans = append(orphans, st.NIM+": UK completed but no SHP date")
		}
		if st.HasStage(models.StageSHP) && !st.HasStage(models.StageSUP) {
			orphans = append(orphans, st.NIM+": SHP completed but no SUP date")
		}
		if st.HasStage(models.StageSUP) && !st.HasStage(models.StageUJ3) {
			orphans = append(orphans, st.NIM+": SUP completed but no UJ3 date")
		}
		if st.IsCompleted && !st.HasStage(models.StageUK) {
			orphans = append(orphans, st.NIM+": Marked as completed but no UK date")
		}
	}
	return orphans
}

// Repair attempts the automatic fixes for the issues from a previous Validate.
func (s *maintenanceServiceImpl) Repair(ctx context.Context, issues []string) models.RepairResult {
	result := models.RepairResult{Repaired: []string{}, Failed: []string{}}

	for _, issue := range issues {
		switch {
		case strings.Contains(issue, "Duplicate NIMs"):
			result.Failed = append(result.Failed, issue+" - Requires manual intervention")
		case strings.Contains(issue, "Invalid dates"):
			if fixed := s.fixInvalidDates(ctx); fixed > 0 {
				result.Repaired = append(result.Repaired, fmt.Sprintf("Fixed %d invalid dates", fixed))
			} else {
				result.Failed = append(result.Failed, issue)
			}
		default:
			result.Failed = append(result.Failed, issue+" - No automatic repair available")
		}
	}

	result.Success = len(result.Repaired) > 0
	result.Message = fmt.Sprintf("Repaired %d issues, %d require attention", len(result.Repaired), len(result.Failed))
	s.logger.Info().Int("repaired", len(result.Repaired)).Int("failed", len(result.Failed)).Msg("Repair finished")
	return result
}

// fixInvalidDates has no rewriting rules yet; malformed dates are left for the
// administrator to correct.
func (s *maintenanceServiceImpl) fixInvalidDates(context.Context) int {
	return 0
}

// Optimize prunes old automatic backups and refreshes planner statistics.
func (s *maintenanceServiceImpl) Optimize(ctx context.Context) models.OptimizeResult {
	actions := []string{}

	if s.backups != nil {
		removed, err := s.backups.Prune(s.retention)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to prune automatic backups")
		}
		if removed > 0 {
			actions = append(actions, fmt.Sprintf("Cleaned up %d old backup records", removed))
		}
	}

	if err := s.students.Analyze(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Skipping statistics refresh")
	} else {
		actions = append(actions, "Database statistics updated")
	}

	return models.OptimizeResult{
		Success: true,
		Message: fmt.Sprintf("Database optimization completed. %d actions performed.", len(actions)),
		Actions: actions,
	}
}
