package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/state"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

func TestCreateStudentValidates(t *testing.T) {
	store := newMemStudentStore()
	svc := NewStudentService(store, state.NewMemory(), testLogger)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.Student{NIM: "21A001", Name: "Ani"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidNIM)

	_, err = svc.Create(ctx, &models.Student{NIM: "2101001", Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Create(ctx, &models.Student{NIM: "2101001", Name: "Ani", UJ3Date: models.StrPtr("besok")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Create(ctx, &models.Student{NIM: "2101001", Name: "Ani", ProgramStudi: models.StrPtr("Agronomi")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	created, err := svc.Create(ctx, &models.Student{
		NIM:         " 2101001 ",
		Name:        "Ani",
		ThesisTitle: models.StrPtr(""),
		UJ3Date:     models.StrPtr("2024-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2101001", created.NIM)
	assert.Nil(t, created.ThesisTitle)
	assert.Equal(t, "2024-01-15", *created.UJ3Date)
}

func TestUpdateStudentIsPartial(t *testing.T) {
	store := newMemStudentStore(student("2101001", "Ani", withDates("2024-01-10", "", "", "")))
	svc := NewStudentService(store, state.NewMemory(), testLogger)

	update, err := dto.ParseStudentUpdate([]byte(`{"sup_date":"2024-02-20","uj3_date":null,"id":99}`))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, update)
	require.NoError(t, err)
	assert.Equal(t, "Ani", updated.Name)
	assert.Nil(t, updated.UJ3Date)
	assert.Equal(t, "2024-02-20", *updated.SUPDate)
	assert.Equal(t, int64(1), updated.ID)

	bad, err := dto.ParseStudentUpdate([]byte(`{"shp_date":"kemarin"}`))
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 1, bad)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Update(context.Background(), 42, update)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestMarkCompletedKeepsStageDates(t *testing.T) {
	store := newMemStudentStore(student("2101001", "Ani", withDates("2024-01-10", "", "", "")))
	svc := NewStudentService(store, state.NewMemory(), testLogger)

	done, err := svc.MarkCompleted(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.Nil(t, done.UKDate)
	assert.Equal(t, models.StatusKompre, done.Status())
}

func TestListUsesSettingsDefaults(t *testing.T) {
	store := newMemStudentStore(numbered(12)...)
	settings := state.NewMemory()
	_, err := settings.UpdateSettings([]byte(`{"maxStudentsPerPage":5,"defaultSortBy":"nim","defaultSortOrder":"desc"}`))
	require.NoError(t, err)
	svc := NewStudentService(store, settings, testLogger)

	page, err := svc.List(context.Background(), dto.StudentListQuery{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 12, page.Pagination.TotalItems)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2100001", page.Items[0].NIM)
	assert.Equal(t, []string{"2021"}, page.AvailableYears)

	page, err = svc.List(context.Background(), dto.StudentListQuery{Page: 922337203685477581})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Pagination.CurrentPage)
}

func TestListFilters(t *testing.T) {
	store := newMemStudentStore(
		student("2101001", "Ani", withDates("2024-01-10", "", "", "")),
		student("2101002", "Budi", withDates("2024-01-10", "2024-02-10", "2024-03-10", "")),
		student("1921003", "Citra"),
	)
	svc := NewStudentService(store, state.NewMemory(), testLogger)

	out, err := svc.List(context.Background(), dto.StudentListQuery{Stage: "sup"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Ani", out.Items[0].Name)
	assert.Equal(t, 25, out.Items[0].Progress)
	assert.Equal(t, "SUP", out.Items[0].NextStage)

	out, err = svc.List(context.Background(), dto.StudentListQuery{Progress: "pending"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Citra", out.Items[0].Name)
	assert.Equal(t, []string{"2021", "2019"}, out.AvailableYears)

	_, err = svc.List(context.Background(), dto.StudentListQuery{DateFrom: "kemarin"})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestSupervisedBy(t *testing.T) {
	moved := student("2101001", "Ani")
	moved.Supervisor1 = models.StrPtr("Dr. Lama")
	moved.SUPSupervisor1 = models.StrPtr("Dr. Baru")
	stayed := student("2101002", "Budi")
	stayed.Supervisor2 = models.StrPtr("Dr. Lama")
	svc := NewStudentService(newMemStudentStore(moved, stayed), state.NewMemory(), testLogger)

	list, err := svc.SupervisedBy(context.Background(), "Dr. Lama")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Budi", list[0].Name)

	list, err = svc.SupervisedBy(context.Background(), "Dr. Baru")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ani", list[0].Name)
}
