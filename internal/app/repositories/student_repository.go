package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/db"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

const studentsTable = "students"

// BatchInsertError reports which insert batch of a replace failed (1-based).
type BatchInsertError struct {
	Batch int
	Err   error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("failed to insert batch %d: %v", e.Batch, e.Err)
}

func (e *BatchInsertError) Unwrap() error {
	return e.Err
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// studentColumns is the select list, in the order scanStudent expects.
func studentColumns() []string {
	cols := []string{"id", "nim", "name", "is_completed", "created_at", "updated_at"}
	return append(cols, models.NullableColumns...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		s                    models.Student
		createdAt, updatedAt time.Time
	)
	texts := make([]*string, len(models.NullableColumns))

	dest := []any{&s.ID, &s.NIM, &s.Name, &s.IsCompleted, &createdAt, &updatedAt}
	for i := range texts {
		dest = append(dest, &texts[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.CreatedAt = models.FormatTimestamp(createdAt)
	s.UpdatedAt = models.FormatTimestamp(updatedAt)
	for i, col := range models.NullableColumns {
		s.SetText(col, texts[i])
	}
	return &s, nil
}

// insertValues returns the insert column list and values for s. createdAt is used
// when s carries no parsable created_at.
func insertValues(s *models.Student, now time.Time) ([]string, []any) {
	createdAt := now
	if t, ok := models.ParseDate(s.CreatedAt); ok {
		createdAt = t
	}

	cols := []string{"nim", "name", "is_completed", "created_at", "updated_at"}
	vals := []any{s.NIM, s.Name, s.IsCompleted, createdAt, now}
	for _, col := range models.NullableColumns {
		cols = append(cols, col)
		vals = append(vals, s.Text(col))
	}
	return cols, vals
}

func (r *StudentRepository) queryStudents(ctx context.Context, q squirrel.SelectBuilder) ([]models.Student, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying students")
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}

// Create inserts a new student and returns the stored row
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	cols, vals := insertValues(student, time.Now().UTC())

	sql, args, err := r.sb.Insert(studentsTable).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + joinColumns(studentColumns())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	created, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Str("nim", student.NIM).Msg("Error creating student")
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return created, nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns()...).
		From(studentsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error getting student by ID")
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// GetByNIM returns the oldest student with the given NIM
func (r *StudentRepository) GetByNIM(ctx context.Context, nim string) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns()...).
		From(studentsTable).
		Where(squirrel.Eq{"nim": nim}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Str("nim", nim).Msg("Error getting student by NIM")
		return nil, fmt.Errorf("failed to get student by NIM: %w", err)
	}
	return s, nil
}

// ListAll returns every student ordered by creation time
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	return r.queryStudents(ctx, r.sb.Select(studentColumns()...).
		From(studentsTable).
		OrderBy("created_at ASC", "id ASC"))
}

// ListByCompletion returns active or completed students. Completed students are
// ordered by UK date, newest first.
func (r *StudentRepository) ListByCompletion(ctx context.Context, completed bool) ([]models.Student, error) {
	q := r.sb.Select(studentColumns()...).
		From(studentsTable).
		Where(squirrel.Eq{"is_completed": completed})
	if completed {
		q = q.OrderBy("uk_date DESC NULLS LAST", "id DESC")
	} else {
		q = q.OrderBy("created_at DESC", "id DESC")
	}
	return r.queryStudents(ctx, q)
}

// Update writes the supplied columns and bumps updated_at
func (r *StudentRepository) Update(ctx context.Context, id int64, update models.StudentUpdate) (*models.Student, error) {
	q := r.sb.Update(studentsTable).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(studentColumns()))

	if update.Name != nil {
		q = q.Set("name", *update.Name)
	}
	if update.NIM != nil {
		q = q.Set("nim", *update.NIM)
	}
	if update.IsCompleted != nil {
		q = q.Set("is_completed", *update.IsCompleted)
	}
	for _, col := range models.NullableColumns {
		if value, ok := update.Fields[col]; ok {
			q = q.Set(col, value)
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error updating student")
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	return s, nil
}

// MarkCompleted sets is_completed without touching any stage date
func (r *StudentRepository) MarkCompleted(ctx context.Context, id int64) (*models.Student, error) {
	done := true
	return r.Update(ctx, id, models.StudentUpdate{IsCompleted: &done})
}

// Delete removes a student by ID
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete(studentsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msg("Error deleting student")
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Statistics counts total, completed and active students
func (r *StudentRepository) Statistics(ctx context.Context) (*models.StudentStatistics, error) {
	sql, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE is_completed)",
	).From(studentsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics query: %w", err)
	}

	var stats models.StudentStatistics
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&stats.Total, &stats.Completed); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	stats.Active = stats.Total - stats.Completed
	return &stats, nil
}

// ReplaceAll deletes every student and inserts students in batches of batchSize,
// all inside one transaction. Incoming IDs are ignored. A failing batch is
// reported as *BatchInsertError and nothing is changed.
func (r *StudentRepository) ReplaceAll(ctx context.Context, students []models.Student, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	now := time.Now().UTC()

	inserted := 0
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+studentsTable); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}

		for start, batch := 0, 1; start < len(students); start, batch = start+batchSize, batch+1 {
			end := min(start+batchSize, len(students))

			q := r.sb.Insert(studentsTable)
			for i := start; i < end; i++ {
				cols, vals := insertValues(&students[i], now)
				if i == start {
					q = q.Columns(cols...)
				}
				q = q.Values(vals...)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				return &BatchInsertError{Batch: batch, Err: err}
			}
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return &BatchInsertError{Batch: batch, Err: err}
			}
			inserted += end - start
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int("students", len(students)).Msg("Error replacing students")
		return 0, err
	}
	return inserted, nil
}

// Analyze refreshes planner statistics for the application tables
func (r *StudentRepository) Analyze(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "ANALYZE "+studentsTable+", "+dosenTable); err != nil {
		return fmt.Errorf("failed to analyze tables: %w", err)
	}
	return nil
}
