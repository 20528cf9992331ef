package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/models"
)

var now = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) // a Wednesday

func nims(records []models.Student) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.NIM)
	}
	return out
}

func shpStudent() models.Student {
	return models.Student{
		NIM:     "21001234",
		Name:    "Siti",
		UJ3Date: models.StrPtr("2024-01-01"),
		SUPDate: models.StrPtr("2024-02-01"),
		SHPDate: models.StrPtr("2024-03-01"),
	}
}

func TestStageFilterIsAtOrBelow(t *testing.T) {
	records := []models.Student{shpStudent()}

	assert.Empty(t, Apply(records, Criteria{Stage: "uj3"}, now))
	assert.Empty(t, Apply(records, Criteria{Stage: "sup"}, now))
	assert.Len(t, Apply(records, Criteria{Stage: "shp"}, now), 1)
	assert.Len(t, Apply(records, Criteria{Stage: "uk"}, now), 1)
	assert.Len(t, Apply(records, Criteria{Stage: "all"}, now), 1)
}

func TestStageFilterExcludesRecordsWithoutStage(t *testing.T) {
	records := []models.Student{{NIM: "1", Name: "Nol"}}
	assert.Empty(t, Apply(records, Criteria{Stage: "uk"}, now))
	assert.Len(t, Apply(records, Criteria{}, now), 1)
}

func TestYearFilter(t *testing.T) {
	records := []models.Student{shpStudent()}

	assert.Len(t, Apply(records, Criteria{Year: "2021"}, now), 1)
	assert.Empty(t, Apply(records, Criteria{Year: "2020"}, now))
}

func TestProgressBucketsIgnoreCompletionFlag(t *testing.T) {
	all := models.Student{NIM: "A", UJ3Date: models.StrPtr("x"), SUPDate: models.StrPtr("x"),
		SHPDate: models.StrPtr("x"), UKDate: models.StrPtr("x")}
	partial := models.Student{NIM: "B", SUPDate: models.StrPtr("x")}
	onlyUK := models.Student{NIM: "C", UKDate: models.StrPtr("x")}
	none := models.Student{NIM: "D", IsCompleted: true}
	records := []models.Student{all, partial, onlyUK, none}

	assert.Equal(t, []string{"A"}, nims(Apply(records, Criteria{Progress: ProgressCompleted}, now)))
	assert.Equal(t, []string{"B"}, nims(Apply(records, Criteria{Progress: ProgressInProgress}, now)))
	assert.Equal(t, []string{"D"}, nims(Apply(records, Criteria{Progress: ProgressPending}, now)))
	assert.Len(t, Apply(records, Criteria{Progress: ProgressAll}, now), 4)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	records := []models.Student{
		{NIM: "1", Name: "Andi", ThesisTitle: models.StrPtr("Pengolahan KOPI")},
		{NIM: "2", Name: "Budi", Supervisor2: models.StrPtr("Dr. Kopiah")},
		{NIM: "3", Name: "Citra", UKExaminer1: models.StrPtr("kopi")},
	}

	assert.Equal(t, []string{"1", "2"}, nims(Apply(records, Criteria{Search: " kopi "}, now)))
	assert.Equal(t, []string{"3"},
		nims(Apply(records, Criteria{Search: "KOPI", SearchFields: []string{"uk_examiner_1"}}, now)))
}

func TestProgramFilter(t *testing.T) {
	records := []models.Student{
		{NIM: "1", ProgramStudi: models.StrPtr(models.ProgramTHP)},
		{NIM: "2", ProgramStudi: models.StrPtr(models.ProgramTIP)},
		{NIM: "3"},
	}
	assert.Equal(t, []string{"2"}, nims(Apply(records, Criteria{ProgramStudi: models.ProgramTIP}, now)))
}

func TestQuickRangeClearsExplicitRange(t *testing.T) {
	from := now.AddDate(-5, 0, 0)
	to := now.AddDate(-4, 0, 0)
	c := Criteria{QuickRange: RangeThisMonth, DateFrom: &from, DateTo: &to}.Normalize()
	assert.Nil(t, c.DateFrom)
	assert.Nil(t, c.DateTo)

	records := []models.Student{
		{NIM: "new", CreatedAt: "2025-03-02T08:00:00Z"},
		{NIM: "old", CreatedAt: "2025-01-02T08:00:00Z"},
		{NIM: "bad", CreatedAt: "yesterday"},
	}
	assert.Equal(t, []string{"new"}, nims(Apply(records, Criteria{QuickRange: RangeThisMonth, DateFrom: &from, DateTo: &to}, now)))
}

func TestExplicitRangeOnDateField(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	records := []models.Student{
		{NIM: "in", SUPDate: models.StrPtr("2024-02-10")},
		{NIM: "out", SUPDate: models.StrPtr("2024-04-10")},
		{NIM: "none"},
	}
	got := Apply(records, Criteria{DateField: "sup_date", DateFrom: &from, DateTo: &to}, now)
	assert.Equal(t, []string{"in"}, nims(got))
}

func TestQuickRangeStart(t *testing.T) {
	start, ok := QuickRangeStart(RangeThisWeek, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), start)

	start, ok = QuickRangeStart(RangeThisYear, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)

	_, ok = QuickRangeStart(RangeAll, now)
	assert.False(t, ok)
}

func TestPredicatesAreANDed(t *testing.T) {
	records := []models.Student{
		shpStudent(),
		{NIM: "20001111", Name: "Siti Lain", SHPDate: models.StrPtr("2024-03-01")},
	}
	got := Apply(records, Criteria{Search: "siti", Year: "2021", Stage: "shp"}, now)
	assert.Equal(t, []string{"21001234"}, nims(got))
}

func TestSortStableAndDirections(t *testing.T) {
	records := []models.Student{
		{NIM: "3", Name: "budi", UJ3Date: models.StrPtr("x")},
		{NIM: "1", Name: "Andi"},
		{NIM: "2", Name: "Budi", UJ3Date: models.StrPtr("x"), SUPDate: models.StrPtr("x")},
	}

	Sort(records, SortByName, false)
	assert.Equal(t, []string{"1", "3", "2"}, nims(records))

	Sort(records, SortByNIM, true)
	assert.Equal(t, []string{"3", "2", "1"}, nims(records))

	Sort(records, SortByProgress, true)
	assert.Equal(t, []string{"2", "3", "1"}, nims(records))
}

func TestAvailableYearsAndPrograms(t *testing.T) {
	records := []models.Student{
		{NIM: "21001", ProgramStudi: models.StrPtr(models.ProgramTIP)},
		{NIM: "19001", ProgramStudi: models.StrPtr(models.ProgramTHP)},
		{NIM: "21002"},
		{NIM: "x"},
	}
	assert.Equal(t, []string{"2021", "2019"}, AvailableYears(records))
	assert.Equal(t, []string{models.ProgramTHP, models.ProgramTIP}, AvailablePrograms(records))
}
