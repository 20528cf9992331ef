package services

import (
	"context"

	"github.com/yigit/examprogress/internal/app/models"
)

// StudentStore is the persistence the services need for student records.
// *repositories.StudentRepository implements it.
type StudentStore interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByNIM(ctx context.Context, nim string) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	ListByCompletion(ctx context.Context, completed bool) ([]models.Student, error)
	Update(ctx context.Context, id int64, update models.StudentUpdate) (*models.Student, error)
	MarkCompleted(ctx context.Context, id int64) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (*models.StudentStatistics, error)
	ReplaceAll(ctx context.Context, students []models.Student, batchSize int) (int, error)
	Analyze(ctx context.Context) error
}

// DosenStore is the persistence of the dosen name registry.
// *repositories.DosenRepository implements it.
type DosenStore interface {
	List(ctx context.Context) ([]models.Dosen, error)
	Create(ctx context.Context, name string) (*models.Dosen, error)
	Delete(ctx context.Context, name string) error
}
