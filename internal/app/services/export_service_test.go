package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/filter"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

func newExportService(store *memStudentStore) ExportService {
	svc := NewExportService(store, testLogger).(*exportServiceImpl)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestCSVExport(t *testing.T) {
	ani := student("2021001", "Ani \"Nana\" Putri", withDates("2024-01-10", "", "", ""))
	ani.ProgramStudi = models.StrPtr(models.ProgramTHP)
	store := newMemStudentStore(ani, student("2021002", "Budi", completed))

	name, content, err := newExportService(store).CSV(context.Background(), ExportAll, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, "data-mahasiswa-2024-05-17.csv", name)

	text := string(content)
	require.True(t, strings.HasPrefix(text, utf8BOM))
	lines := strings.Split(strings.TrimPrefix(text, utf8BOM), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(csvHeaders, ","), lines[0])
	assert.Len(t, csvHeaders, 26)
	assert.Equal(t, "Program Studi", csvHeaders[2])
	assert.Equal(t, len(csvHeaders)-1, strings.Count(lines[2], `","`))
	assert.True(t, strings.HasPrefix(lines[1], `"2021001","Ani ""Nana"" Putri","Teknologi Hasil Pertanian","","","2024-01-10",`), lines[1])
	assert.Contains(t, lines[1], `"Dalam Progress"`)
	assert.Contains(t, lines[2], `"Selesai"`)
}

func TestCSVExportOfEmptyScope(t *testing.T) {
	store := newMemStudentStore(student("2021001", "Ani"))

	_, _, err := newExportService(store).CSV(context.Background(), ExportCompleted, filter.Criteria{})
	assert.ErrorIs(t, err, apperrors.ErrNothingToExport)
	assert.Equal(t, MsgNothingToExport, err.Error())
}

func TestJSONExport(t *testing.T) {
	store := newMemStudentStore(student("2021001", "Ani"), student("2021002", "Budi", completed))
	svc := newExportService(store)

	out, err := svc.JSON(context.Background(), ExportActive, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "active", out.Type)
	assert.Equal(t, "Ani", out.Data[0].Name)

	out, err = svc.JSON(context.Background(), "", filter.Criteria{Search: "bud"})
	require.NoError(t, err)
	assert.Equal(t, "all", out.Type)
	assert.Equal(t, 1, out.Count)

	_, err = svc.JSON(context.Background(), "archived", filter.Criteria{})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestValidateImportFile(t *testing.T) {
	svc := newExportService(newMemStudentStore())

	ok := svc.ValidateImportFile([]byte(`[{"nim":"2021001","name":"Ani"}]`))
	assert.True(t, ok.Valid)
	assert.Equal(t, 1, ok.Count)
	assert.Equal(t, "File is valid with 1 students", ok.Message)

	wrapped := svc.ValidateImportFile([]byte(`{"students":[{"nim":"2021001"},{"name":"Budi"}]}`))
	assert.True(t, wrapped.Success)
	assert.False(t, wrapped.Valid)
	assert.Equal(t, []string{"Row 1: Name is required", "Row 2: NIM is required"}, wrapped.Errors)
	assert.Equal(t, "Found 2 validation errors", wrapped.Message)

	bad := svc.ValidateImportFile([]byte(`{"rows":[]}`))
	assert.False(t, bad.Success)
	assert.Equal(t, "Invalid JSON format", bad.Message)

	rows := strings.TrimSuffix(strings.Repeat(`{},`, 8), ",")
	capped := svc.ValidateImportFile([]byte("[" + rows + "]"))
	assert.Len(t, capped.Errors, 10)
	assert.Equal(t, "Found 16 validation errors", capped.Message)
}
