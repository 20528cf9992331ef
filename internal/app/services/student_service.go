package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/filter"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/helpers"
	"github.com/yigit/examprogress/internal/pkg/validation"
)

// SettingsSource supplies the current application settings.
type SettingsSource interface {
	Settings() models.AppSettings
}

// StudentService manages student records and the list views built from them.
type StudentService interface {
	List(ctx context.Context, query dto.StudentListQuery) (*dto.StudentListResponse, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	Update(ctx context.Context, id int64, update models.StudentUpdate) (*models.Student, error)
	MarkCompleted(ctx context.Context, id int64) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (*models.StudentStatistics, error)
	Archive(ctx context.Context) ([]models.Student, error)
	SupervisedBy(ctx context.Context, name string) ([]models.Student, error)
}

type studentServiceImpl struct {
	students StudentStore
	settings SettingsSource
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(students StudentStore, settings SettingsSource, logger zerolog.Logger) StudentService {
	return &studentServiceImpl{
		students: students,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// CriteriaFromQuery converts list query parameters into filter criteria.
func CriteriaFromQuery(q dto.StudentListQuery) (filter.Criteria, error) {
	c := filter.Criteria{
		Search:       q.Search,
		Stage:        q.Stage,
		Progress:     q.Progress,
		Year:         q.Year,
		ProgramStudi: q.ProgramStudi,
		QuickRange:   q.QuickRange,
		DateField:    q.DateField,
	}
	if q.SearchFields != "" {
		for _, f := range strings.Split(q.SearchFields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.SearchFields = append(c.SearchFields, f)
			}
		}
	}
	if q.DateField != "" && q.DateField != "created_at" && q.DateField != "updated_at" {
		if _, ok := (&models.Student{}).FieldValue(q.DateField); !ok {
			return c, apperrors.NewBadRequestError("Unknown date field: " + q.DateField)
		}
	}
	for _, bound := range []struct {
		raw    string
		target **time.Time
		name   string
	}{{q.DateFrom, &c.DateFrom, "from"}, {q.DateTo, &c.DateTo, "to"}} {
		if bound.raw == "" {
			continue
		}
		t, ok := models.ParseDate(bound.raw)
		if !ok {
			return c, apperrors.NewBadRequestError(fmt.Sprintf("Invalid %s date: %s", bound.name, bound.raw))
		}
		*bound.target = &t
	}
	return c.Normalize(), nil
}

// List filters, sorts and pages every student. Page size and sort default to the
// administrator's settings.
func (s *studentServiceImpl) List(ctx context.Context, query dto.StudentListQuery) (*dto.StudentListResponse, error) {
	criteria, err := CriteriaFromQuery(query)
	if err != nil {
		return nil, err
	}

	all, err := s.students.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list students")
		return nil, err
	}

	settings := s.settings.Settings()
	sortBy, sortOrder := query.SortBy, query.SortOrder
	if sortBy == "" {
		sortBy = settings.DefaultSortBy
	}
	if sortOrder == "" {
		sortOrder = settings.DefaultSortOrder
	}

	matched := filter.Apply(all, criteria, s.now())
	filter.Sort(matched, sortBy, sortOrder == "desc")

	page, size := helpers.NormalizePage(query.Page, query.Size, settings.MaxStudentsPerPage)
	return &dto.StudentListResponse{
		Items:             dto.NewStudentResponses(helpers.Paginate(matched, page, size)),
		Pagination:        helpers.NewPaginationInfo(len(matched), page, size),
		AvailableYears:    filter.AvailableYears(all),
		AvailablePrograms: filter.AvailablePrograms(all),
	}, nil
}

func (s *studentServiceImpl) Get(ctx context.Context, id int64) (*models.Student, error) {
	return s.students.GetByID(ctx, id)
}

// Create validates and stores a new student. Stage data may be supplied up front.
func (s *studentServiceImpl) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.NIM = strings.TrimSpace(student.NIM)
	student.Name = strings.TrimSpace(student.Name)
	if !validation.ValidNIM(student.NIM) {
		return nil, fmt.Errorf("%w: NIM must contain digits only", apperrors.ErrInvalidNIM)
	}
	if !validation.ValidName(student.Name) {
		return nil, apperrors.NewValidationError("Name is required")
	}
	if !validation.CompiledPatterns.AdvisoryNIM.MatchString(student.NIM) {
		s.logger.Debug().Str("nim", student.NIM).Msg("NIM does not follow the usual 7-digit format")
	}

	for _, column := range models.NullableColumns {
		student.SetText(column, blankToNil(student.Text(column)))
	}
	if err := checkStudentFields(student); err != nil {
		return nil, err
	}

	created, err := s.students.Create(ctx, student)
	if err != nil {
		s.logger.Error().Err(err).Str("nim", student.NIM).Msg("Failed to create student")
		return nil, err
	}
	s.logger.Info().Int64("id", created.ID).Str("nim", created.NIM).Msg("Student created")
	return created, nil
}

// Update applies a partial update. Only the supplied columns change.
func (s *studentServiceImpl) Update(ctx context.Context, id int64, update models.StudentUpdate) (*models.Student, error) {
	if update.NIM != nil {
		nim := strings.TrimSpace(*update.NIM)
		if !validation.ValidNIM(nim) {
			return nil, fmt.Errorf("%w: NIM must contain digits only", apperrors.ErrInvalidNIM)
		}
		update.NIM = &nim
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if !validation.ValidName(name) {
			return nil, apperrors.NewValidationError("Name is required")
		}
		update.Name = &name
	}
	for column, value := range update.Fields {
		update.Fields[column] = blankToNil(value)
	}

	var probe models.Student
	update.Apply(&probe)
	for column := range update.Fields {
		if err := checkStudentField(&probe, column); err != nil {
			return nil, err
		}
	}

	updated, err := s.students.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("id", id).Int("fields", len(update.Fields)).Msg("Student updated")
	return updated, nil
}

// MarkCompleted sets is_completed without checking the stage dates.
func (s *studentServiceImpl) MarkCompleted(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.MarkCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("id", id).Str("nim", student.NIM).Msg("Student marked as completed")
	return student, nil
}

func (s *studentServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Msg("Student deleted")
	return nil
}

func (s *studentServiceImpl) Statistics(ctx context.Context) (*models.StudentStatistics, error) {
	return s.students.Statistics(ctx)
}

// Archive lists completed students, latest UK first.
func (s *studentServiceImpl) Archive(ctx context.Context) ([]models.Student, error) {
	return s.students.ListByCompletion(ctx, true)
}

// SupervisedBy lists the students whose current first or second supervisor is name.
func (s *studentServiceImpl) SupervisedBy(ctx context.Context, name string) ([]models.Student, error) {
	all, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	supervised := []models.Student{}
	for i := range all {
		sup1, sup2 := all[i].CurrentSupervisor1(), all[i].CurrentSupervisor2()
		if (sup1 != nil && *sup1 == name) || (sup2 != nil && *sup2 == name) {
			supervised = append(supervised, all[i])
		}
	}
	filter.Sort(supervised, filter.SortByName, false)
	return supervised, nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func checkStudentFields(s *models.Student) error {
	for _, column := range models.NullableColumns {
		if err := checkStudentField(s, column); err != nil {
			return err
		}
	}
	return nil
}

// checkStudentField rejects unknown study programs and unparsable stage dates.
func checkStudentField(s *models.Student, column string) error {
	value := s.Text(column)
	if value == nil {
		return nil
	}
	if column == "program_studi" {
		for _, option := range models.ProgramStudiOptions {
			if *value == option {
				return nil
			}
		}
		return apperrors.NewValidationError("program_studi must be one of: " + strings.Join(models.ProgramStudiOptions, ", "))
	}
	for _, dateColumn := range models.StageDateColumns {
		if column == dateColumn {
			if _, ok := models.ParseDate(*value); !ok {
				return apperrors.NewValidationError(column + " must be a valid date")
			}
		}
	}
	return nil
}
