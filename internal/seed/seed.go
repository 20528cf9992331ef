package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

// DosenRegistry is the part of the dosen repository the seeder writes through.
type DosenRegistry interface {
	List(ctx context.Context) ([]models.Dosen, error)
	Create(ctx context.Context, name string) (*models.Dosen, error)
}

// CreateDefaultDosen fills an empty dosen registry with the configured names.
// A registry that already holds names is left alone.
func CreateDefaultDosen(ctx context.Context, registry DosenRegistry, names []string, lgr zerolog.Logger) error {
	if len(names) == 0 {
		return nil
	}

	existing, err := registry.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		lgr.Debug().Int("count", len(existing)).Msg("Dosen registry already populated, skipping seed")
		return nil
	}

	lgr.Info().Int("count", len(names)).Msg("Seeding default dosen names...")
	var finalErr error
	created := 0
	for _, name := range names {
		if _, err := registry.Create(ctx, name); err != nil {
			if errors.Is(err, apperrors.ErrDosenAlreadyExists) {
				continue
			}
			lgr.Error().Err(err).Str("name", name).Msg("Error creating default dosen")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		created++
	}

	lgr.Info().Int("created", created).Msg("Default dosen seeding finished")
	return finalErr
}
