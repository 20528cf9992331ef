package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/validation"
)

// DosenService manages the registry of lecturer names offered in the student form.
type DosenService interface {
	List(ctx context.Context) ([]models.Dosen, error)
	Create(ctx context.Context, name string) (*models.Dosen, error)
	Delete(ctx context.Context, name string) error
}

type dosenServiceImpl struct {
	dosen  DosenStore
	logger zerolog.Logger
}

// NewDosenService creates a new dosen service
func NewDosenService(dosen DosenStore, logger zerolog.Logger) DosenService {
	return &dosenServiceImpl{dosen: dosen, logger: logger}
}

func (s *dosenServiceImpl) List(ctx context.Context) ([]models.Dosen, error) {
	list, err := s.dosen.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Dosen{}
	}
	return list, nil
}

func (s *dosenServiceImpl) Create(ctx context.Context, name string) (*models.Dosen, error) {
	name = strings.TrimSpace(name)
	if !validation.ValidName(name) {
		return nil, apperrors.NewValidationError("Nama dosen tidak boleh kosong")
	}
	d, err := s.dosen.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("name", name).Msg("Dosen added")
	return d, nil
}

func (s *dosenServiceImpl) Delete(ctx context.Context, name string) error {
	if err := s.dosen.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info().Str("name", name).Msg("Dosen removed")
	return nil
}
