package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/dberrors"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

const (
	dosenTable          = "dosen_list"
	dosenNameConstraint = "dosen_list_name_key"
)

// DosenRepository handles the dosen name registry
type DosenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewDosenRepository creates a new DosenRepository
func NewDosenRepository(db *pgxpool.Pool) *DosenRepository {
	return &DosenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns all dosen names in alphabetical order
func (r *DosenRepository) List(ctx context.Context) ([]models.Dosen, error) {
	sql, args, err := r.sb.Select("id", "name").
		From(dosenTable).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying dosen list")
		return nil, fmt.Errorf("failed to query dosen list: %w", err)
	}
	defer rows.Close()

	list := []models.Dosen{}
	for rows.Next() {
		var d models.Dosen
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan dosen row: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dosen rows: %w", err)
	}
	return list, nil
}

// Create adds a name to the registry
func (r *DosenRepository) Create(ctx context.Context, name string) (*models.Dosen, error) {
	sql, args, err := r.sb.Insert(dosenTable).
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	var d models.Dosen
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&d.ID, &d.Name); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dosenNameConstraint) {
			return nil, apperrors.ErrDosenAlreadyExists
		}
		logger.Error().Err(err).Str("name", name).Msg("Error creating dosen")
		return nil, fmt.Errorf("failed to create dosen: %w", err)
	}
	return &d, nil
}

// Delete removes a name from the registry
func (r *DosenRepository) Delete(ctx context.Context, name string) error {
	sql, args, err := r.sb.Delete(dosenTable).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("name", name).Msg("Error deleting dosen")
		return fmt.Errorf("failed to delete dosen: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrDosenNotFound
	}
	return nil
}
