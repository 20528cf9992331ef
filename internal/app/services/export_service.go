package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/filter"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

// Export scopes
const (
	ExportAll       = "all"
	ExportActive    = "active"
	ExportCompleted = "completed"
)

const (
	MsgNothingToExport  = "No students data to export"
	maxImportFileErrors = 10
	utf8BOM             = "\ufeff"
)

// csvHeaders are the spreadsheet columns, in order.
var csvHeaders = []string{
	"NIM", "Nama", "Program Studi", "Judul Proposal", "Izin Penelitian",
	"Tanggal UJ3", "Pembimbing 1", "Pembimbing 2",
	"Tanggal SUP", "SUP Pembimbing 1", "SUP Pembimbing 2", "SUP Penguji 1", "SUP Penguji 2",
	"Tanggal SHP", "SHP Pembimbing 1", "SHP Pembimbing 2", "SHP Penguji 1", "SHP Penguji 2",
	"Tanggal UK", "UK Penguji 1", "UK Penguji 2", "UK Penguji 3", "UK Penguji 4",
	"Status Kompre", "Tanggal Dibuat", "Tanggal Diupdate",
}

// ExportService renders student data for download.
type ExportService interface {
	CSV(ctx context.Context, scope string, criteria filter.Criteria) (fileName string, content []byte, err error)
	JSON(ctx context.Context, scope string, criteria filter.Criteria) (*dto.ExportJSONResponse, error)
	ValidateImportFile(content []byte) *dto.ImportValidationResponse
}

type exportServiceImpl struct {
	students StudentStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(students StudentStore, logger zerolog.Logger) ExportService {
	return &exportServiceImpl{students: students, logger: logger, now: time.Now}
}

// ValidExportScope reports whether scope is all, active or completed.
func ValidExportScope(scope string) bool {
	return scope == ExportAll || scope == ExportActive || scope == ExportCompleted
}

func (s *exportServiceImpl) load(ctx context.Context, scope string, criteria filter.Criteria) ([]models.Student, error) {
	var (
		students []models.Student
		err      error
	)
	switch scope {
	case ExportActive:
		students, err = s.students.ListByCompletion(ctx, false)
	case ExportCompleted:
		students, err = s.students.ListByCompletion(ctx, true)
	case ExportAll, "":
		students, err = s.students.ListAll(ctx)
	default:
		return nil, apperrors.NewBadRequestError("Invalid type parameter. Use: all, active, or completed")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s students: %w", scope, err)
	}
	students = filter.Apply(students, criteria, s.now())
	filter.Sort(students, filter.SortByCreatedAt, false)
	return students, nil
}

// CSV renders the students as a spreadsheet-friendly CSV with a byte order mark.
func (s *exportServiceImpl) CSV(ctx context.Context, scope string, criteria filter.Criteria) (string, []byte, error) {
	students, err := s.load(ctx, scope, criteria)
	if err != nil {
		return "", nil, err
	}
	if len(students) == 0 {
		return "", nil, apperrors.NewCustomError(apperrors.ErrNothingToExport, MsgNothingToExport)
	}

	content := EncodeCSV(students)
	metrics.ObserveBackup("csv", true)
	s.logger.Info().Int("students", len(students)).Str("scope", scope).Msg("Students exported to CSV")
	return "data-mahasiswa-" + s.now().UTC().Format(models.DateLayout) + ".csv", content, nil
}

// EncodeCSV writes the header row followed by one fully quoted row per student.
func EncodeCSV(students []models.Student) []byte {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	buf.WriteString(strings.Join(csvHeaders, ","))

	for i := range students {
		buf.WriteByte('\n')
		for j, field := range csvRow(&students[i]) {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
			buf.WriteByte('"')
		}
	}
	return buf.Bytes()
}

func csvRow(st *models.Student) []string {
	text := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	status := models.StatusInProgress
	if st.IsCompleted {
		status = "Selesai"
	}
	return []string{
		st.NIM, st.Name, text(st.ProgramStudi), text(st.ThesisTitle), text(st.ResearchPermit),
		text(st.UJ3Date), text(st.Supervisor1), text(st.Supervisor2),
		text(st.SUPDate), text(st.SUPSupervisor1), text(st.SUPSupervisor2), text(st.SUPExaminer1), text(st.SUPExaminer2),
		text(st.SHPDate), text(st.SHPSupervisor1), text(st.SHPSupervisor2), text(st.SHPExaminer1), text(st.SHPExaminer2),
		text(st.UKDate), text(st.UKExaminer1), text(st.UKExaminer2), text(st.UKExaminer3), text(st.UKExaminer4),
		status, st.CreatedAt, st.UpdatedAt,
	}
}

// JSON returns the students in scope, oldest first.
func (s *exportServiceImpl) JSON(ctx context.Context, scope string, criteria filter.Criteria) (*dto.ExportJSONResponse, error) {
	if scope == "" {
		scope = ExportAll
	}
	students, err := s.load(ctx, scope, criteria)
	if err != nil {
		return nil, err
	}
	return &dto.ExportJSONResponse{
		Success:    true,
		Data:       students,
		Count:      len(students),
		Type:       scope,
		ExportedAt: models.FormatTimestamp(s.now()),
	}, nil
}

// ValidateImportFile checks that content is a JSON array of students, or an object
// with a students array, and that every row has a NIM and a name.
func (s *exportServiceImpl) ValidateImportFile(content []byte) *dto.ImportValidationResponse {
	invalid := &dto.ImportValidationResponse{
		Success: false,
		Valid:   false,
		Message: MsgInvalidJSON,
		Errors:  []string{"File must be valid JSON format"},
	}

	var rows []map[string]any
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return invalid
		}
	} else {
		var wrapper struct {
			Students []map[string]any `json:"students"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil || wrapper.Students == nil {
			return invalid
		}
		rows = wrapper.Students
	}

	var errs []string
	for i, row := range rows {
		if !truthy(row["nim"]) {
			errs = append(errs, fmt.Sprintf("Row %d: NIM is required", i+1))
		}
		if !truthy(row["name"]) {
			errs = append(errs, fmt.Sprintf("Row %d: Name is required", i+1))
		}
	}

	result := &dto.ImportValidationResponse{
		Success: true,
		Valid:   len(errs) == 0,
		Count:   len(rows),
		Message: fmt.Sprintf("File is valid with %d students", len(rows)),
	}
	if len(errs) > 0 {
		result.Message = fmt.Sprintf("Found %d validation errors", len(errs))
		if len(errs) > maxImportFileErrors {
			errs = errs[:maxImportFileErrors]
		}
		result.Errors = errs
	}
	return result
}

// truthy mirrors a loose presence check: empty strings, zero and false count as missing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}
