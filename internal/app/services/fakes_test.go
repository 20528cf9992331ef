package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/repositories"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

var (
	testLogger = zerolog.Nop()
	testNow    = time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)
)

// memStudentStore is an in-memory StudentStore.
type memStudentStore struct {
	mu       sync.Mutex
	students []models.Student
	nextID   int64

	listErr    error
	analyzeErr error
	createErr  map[string]error
	failBatch  int
	analyzed   int
}

func newMemStudentStore(students ...models.Student) *memStudentStore {
	m := &memStudentStore{createErr: map[string]error{}}
	for i := range students {
		m.insert(students[i])
	}
	return m
}

func (m *memStudentStore) insert(s models.Student) models.Student {
	m.nextID++
	s.ID = m.nextID
	if s.CreatedAt == "" {
		s.CreatedAt = models.FormatTimestamp(time.Date(2024, 1, 1, 0, 0, int(m.nextID), 0, time.UTC))
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = s.CreatedAt
	}
	m.students = append(m.students, s)
	return s
}

func (m *memStudentStore) snapshot() []models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Student{}, m.students...)
}

func (m *memStudentStore) Create(_ context.Context, student *models.Student) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createErr[student.NIM]; err != nil {
		return nil, err
	}
	created := m.insert(*student)
	return &created, nil
}

func (m *memStudentStore) GetByID(_ context.Context, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID == id {
			s := m.students[i]
			return &s, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (m *memStudentStore) GetByNIM(_ context.Context, nim string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].NIM == nim {
			s := m.students[i]
			return &s, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (m *memStudentStore) ListAll(context.Context) ([]models.Student, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.snapshot(), nil
}

func (m *memStudentStore) ListByCompletion(_ context.Context, completed bool) ([]models.Student, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Student
	for _, s := range m.snapshot() {
		if s.IsCompleted == completed {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStudentStore) Update(_ context.Context, id int64, update models.StudentUpdate) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID == id {
			update.Apply(&m.students[i])
			m.students[i].UpdatedAt = models.FormatTimestamp(time.Now())
			s := m.students[i]
			return &s, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (m *memStudentStore) MarkCompleted(ctx context.Context, id int64) (*models.Student, error) {
	done := true
	return m.Update(ctx, id, models.StudentUpdate{IsCompleted: &done})
}

func (m *memStudentStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID == id {
			m.students = append(m.students[:i], m.students[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrStudentNotFound
}

func (m *memStudentStore) Statistics(context.Context) (*models.StudentStatistics, error) {
	stats := &models.StudentStatistics{}
	for _, s := range m.snapshot() {
		stats.Total++
		if s.IsCompleted {
			stats.Completed++
		}
	}
	stats.Active = stats.Total - stats.Completed
	return stats, nil
}

// ReplaceAll behaves like the transactional repository: a failing batch leaves
// the previous contents in place.
func (m *memStudentStore) ReplaceAll(_ context.Context, students []models.Student, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batches := (len(students) + batchSize - 1) / batchSize
	if m.failBatch > 0 && m.failBatch <= batches {
		return 0, &repositories.BatchInsertError{Batch: m.failBatch, Err: errors.New("value too long for type character varying(255)")}
	}

	m.students = nil
	for _, s := range students {
		m.insert(s)
	}
	return len(students), nil
}

func (m *memStudentStore) Analyze(context.Context) error {
	m.analyzed++
	return m.analyzeErr
}

// memDosenStore is an in-memory DosenStore.
type memDosenStore struct {
	names []string
}

func (m *memDosenStore) List(context.Context) ([]models.Dosen, error) {
	sorted := append([]string{}, m.names...)
	sort.Strings(sorted)
	out := make([]models.Dosen, 0, len(sorted))
	for i, n := range sorted {
		out = append(out, models.Dosen{ID: int64(i + 1), Name: n})
	}
	return out, nil
}

func (m *memDosenStore) Create(_ context.Context, name string) (*models.Dosen, error) {
	for _, n := range m.names {
		if n == name {
			return nil, apperrors.ErrDosenAlreadyExists
		}
	}
	m.names = append(m.names, name)
	return &models.Dosen{ID: int64(len(m.names)), Name: name}, nil
}

func (m *memDosenStore) Delete(_ context.Context, name string) error {
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrDosenNotFound
}

func student(nim, name string, opts ...func(*models.Student)) models.Student {
	s := models.Student{NIM: nim, Name: name}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withDates(uj3, sup, shp, uk string) func(*models.Student) {
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return models.StrPtr(v)
	}
	return func(s *models.Student) {
		s.UJ3Date, s.SUPDate, s.SHPDate, s.UKDate = set(uj3), set(sup), set(shp), set(uk)
	}
}

func completed(s *models.Student) { s.IsCompleted = true }

func numbered(n int) []models.Student {
	out := make([]models.Student, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, student(fmt.Sprintf("21%05d", i), fmt.Sprintf("Mahasiswa %d", i)))
	}
	return out
}
