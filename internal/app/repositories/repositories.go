package repositories

import (
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository *StudentRepository
	DosenRepository   *DosenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		StudentRepository: NewStudentRepository(db),
		DosenRepository:   NewDosenRepository(db),
	}
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
