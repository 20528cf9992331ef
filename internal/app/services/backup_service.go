package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/repositories"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

// Restore messages
const (
	MsgInvalidJSON        = "Invalid JSON format"
	MsgInvalidBackup      = "Invalid backup file format"
	MsgIntegrityFailed    = "Backup file integrity check failed (corrupted data)"
	MsgValidationFailed   = "Data validation failed"
	MsgImportCancelled    = "Import cancelled by user"
	maxReportedViolations = 10
	defaultRestoreBatch   = 100
)

// BackupService builds, exports and restores full snapshots of the student table.
type BackupService interface {
	Create(ctx context.Context) (*models.BackupSnapshot, error)
	Export(ctx context.Context) (fileName string, content []byte, err error)
	Restore(ctx context.Context, content []byte, confirmed bool) models.ImportResult
}

type backupServiceImpl struct {
	students  StudentStore
	batchSize int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBackupService creates a new backup service. batchSize bounds the rows per
// INSERT during restore.
func NewBackupService(students StudentStore, batchSize int, logger zerolog.Logger) BackupService {
	if batchSize <= 0 {
		batchSize = defaultRestoreBatch
	}
	return &backupServiceImpl{
		students:  students,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Create reads every student in creation order and wraps them in a checksummed snapshot.
func (s *backupServiceImpl) Create(ctx context.Context) (*models.BackupSnapshot, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read students for backup")
		metrics.ObserveBackup("create", false)
		return nil, fmt.Errorf("failed to read students for backup: %w", err)
	}
	if students == nil {
		students = []models.Student{}
	}

	data := models.BackupData{Students: students}
	checksum, err := DataChecksum(data)
	if err != nil {
		metrics.ObserveBackup("create", false)
		return nil, err
	}

	metrics.ObserveBackup("create", true)
	return &models.BackupSnapshot{
		Version:   models.BackupVersion,
		Timestamp: models.FormatTimestamp(s.now()),
		Metadata: models.BackupMetadata{
			TotalStudents:      len(students),
			ExportedBy:         models.BackupExportedBy,
			DatabaseVersion:    models.DatabaseVersion,
			ApplicationVersion: models.ApplicationVersion,
		},
		Data:     data,
		Checksum: checksum,
	}, nil
}

// EncodeSnapshot renders a snapshot as indented JSON. HTML characters are left
// unescaped so the data bytes hash to the stored checksum.
func EncodeSnapshot(snapshot *models.BackupSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// BackupFileName is the download name of a snapshot taken at t.
func BackupFileName(t time.Time) string {
	return "database-backup-" + t.UTC().Format(models.DateLayout) + ".json"
}

func (s *backupServiceImpl) Export(ctx context.Context) (string, []byte, error) {
	snapshot, err := s.Create(ctx)
	if err != nil {
		return "", nil, err
	}
	content, err := EncodeSnapshot(snapshot)
	if err != nil {
		return "", nil, err
	}
	metrics.ObserveBackup("export", true)
	return BackupFileName(s.now()), content, nil
}

// Restore replaces the student table with the snapshot in content. Nothing is
// written unless the file parses, its checksum matches, every record validates
// and confirmed is true. The replacement itself is a single transaction.
func (s *backupServiceImpl) Restore(ctx context.Context, content []byte, confirmed bool) models.ImportResult {
	start := s.now()
	result := s.restore(ctx, content, confirmed)
	metrics.ObserveRestore(result.Success, s.now().Sub(start))

	event := s.logger.Info()
	if !result.Success {
		event = s.logger.Warn().Strs("errors", result.Errors)
	}
	event.Bool("success", result.Success).Int("imported", result.ImportedCount).Msg(result.Message)
	return result
}

func (s *backupServiceImpl) restore(ctx context.Context, content []byte, confirmed bool) models.ImportResult {
	var raw models.RawBackup
	if err := json.Unmarshal(content, &raw); err != nil {
		return failed(MsgInvalidJSON)
	}
	if raw.Version == nil || raw.Checksum == nil || len(raw.Data) == 0 || string(raw.Data) == "null" {
		return failed(MsgInvalidBackup)
	}

	checksum, err := RawChecksum(raw.Data)
	if err != nil || checksum != *raw.Checksum {
		return failed(MsgIntegrityFailed)
	}

	var generic struct {
		Students []map[string]any `json:"students"`
	}
	if err := json.Unmarshal(raw.Data, &generic); err != nil || generic.Students == nil {
		return failed(MsgInvalidBackup)
	}

	if violations := ValidateImportRecords(generic.Students, models.StageDateColumns); len(violations) > 0 {
		return models.ImportResult{
			Success:    false,
			Message:    MsgValidationFailed,
			Errors:     capViolations(violations),
			ErrorCount: len(violations),
		}
	}

	if !confirmed {
		return failed(MsgImportCancelled)
	}

	var data models.BackupData
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return failed(fmt.Sprintf("%s: %v", MsgInvalidBackup, err))
	}

	inserted, err := s.students.ReplaceAll(ctx, data.Students, s.batchSize)
	if err != nil {
		var batchErr *repositories.BatchInsertError
		if errors.As(err, &batchErr) {
			return failed(fmt.Sprintf("Failed to insert batch %d: %v", batchErr.Batch, batchErr.Err))
		}
		return failed(fmt.Sprintf("Failed to restore data: %v", err))
	}

	return models.ImportResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully imported %d students from backup", inserted),
		ImportedCount: inserted,
	}
}

func failed(message string) models.ImportResult {
	return models.ImportResult{Success: false, Message: message}
}

func capViolations(violations []string) []string {
	if len(violations) > maxReportedViolations {
		return violations[:maxReportedViolations]
	}
	return violations
}

// ValidateImportRecords checks decoded records for a non-empty string nim and name
// and parsable values in dateFields. It returns one line per offending record,
// numbered from 1.
func ValidateImportRecords(records []map[string]any, dateFields []string) []string {
	var violations []string
	for i, rec := range records {
		var errs []string
		if v, ok := rec["nim"].(string); !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, "NIM is required and must be a string")
		}
		if v, ok := rec["name"].(string); !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, "Name is required and must be a string")
		}
		for _, field := range dateFields {
			switch v := rec[field].(type) {
			case nil:
			case string:
				if v == "" {
					continue
				}
				if _, ok := models.ParseDate(v); !ok {
					errs = append(errs, field+" must be a valid date")
				}
			default:
				errs = append(errs, field+" must be a valid date")
			}
		}
		if len(errs) > 0 {
			violations = append(violations, fmt.Sprintf("Student %d: %s", i+1, strings.Join(errs, ", ")))
		}
	}
	return violations
}
