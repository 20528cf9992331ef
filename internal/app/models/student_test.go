package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighestStageAndProgress(t *testing.T) {
	s := &Student{NIM: "2101", Name: "A"}
	assert.Equal(t, StageNone, s.HighestStage())
	assert.Equal(t, 0, s.ProgressPercent())
	assert.Equal(t, StatusNotStarted, s.Status())
	assert.Equal(t, "UJ3", s.NextStage())

	s.UJ3Date = StrPtr("2024-01-10")
	s.SHPDate = StrPtr("2024-05-01")
	assert.Equal(t, StageSHP, s.HighestStage())
	assert.Equal(t, 50, s.ProgressPercent())
	assert.Equal(t, StatusInProgress, s.Status())
	assert.Equal(t, "SUP", s.NextStage())

	s.SUPDate = StrPtr("2024-03-01")
	s.UKDate = StrPtr("2024-07-01")
	assert.Equal(t, 100, s.ProgressPercent())
	assert.Equal(t, StatusReadyKompre, s.Status())
	assert.Equal(t, NextStageAfterFinal, s.NextStage())

	s.IsCompleted = true
	assert.Equal(t, StatusKompre, s.Status())
}

func TestEmptyStringIsNotAStage(t *testing.T) {
	s := &Student{UJ3Date: StrPtr("")}
	assert.False(t, s.HasStage(StageUJ3))
	assert.Equal(t, StageNone, s.HighestStage())
}

func TestAcademicYear(t *testing.T) {
	cases := map[string]string{
		"21001234": "2021",
		"2021001":  "2020",
		"49123":    "2049",
		"50123":    "1950",
		"99001":    "1999",
	}
	for nim, want := range cases {
		got, ok := (&Student{NIM: nim}).AcademicYear()
		assert.True(t, ok, nim)
		assert.Equal(t, want, got, nim)
	}

	_, ok := (&Student{NIM: "A1"}).AcademicYear()
	assert.False(t, ok)
	_, ok = (&Student{NIM: "2"}).AcademicYear()
	assert.False(t, ok)
}

func TestCurrentSupervisorFallsBack(t *testing.T) {
	s := &Student{
		Supervisor1:    StrPtr("Dr. UJ3"),
		Supervisor2:    StrPtr("Dr. UJ3 Two"),
		SUPSupervisor1: StrPtr("Dr. SUP"),
		SHPSupervisor1: StrPtr(""),
	}
	assert.Equal(t, "Dr. SUP", *s.CurrentSupervisor1())
	assert.Equal(t, "Dr. UJ3 Two", *s.CurrentSupervisor2())
	assert.Nil(t, (&Student{}).CurrentSupervisor1())
}

func TestFieldValueAndUpdate(t *testing.T) {
	s := &Student{NIM: "2101", Name: "Budi", ThesisTitle: StrPtr("Kopi")}

	v, ok := s.FieldValue("thesis_title")
	assert.True(t, ok)
	assert.Equal(t, "Kopi", v)

	v, ok = s.FieldValue("uk_examiner_4")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = s.FieldValue("password")
	assert.False(t, ok)

	done := true
	StudentUpdate{
		IsCompleted: &done,
		Fields:      map[string]*string{"thesis_title": nil, "uk_date": StrPtr("2024-08-01")},
	}.Apply(s)
	assert.True(t, s.IsCompleted)
	assert.Nil(t, s.ThesisTitle)
	assert.Equal(t, "2024-08-01", *s.UKDate)
	assert.Equal(t, "Budi", s.Name)
}

func TestParseDate(t *testing.T) {
	valid := []string{
		"2024-01-15",
		"2024-01-15T10:20:30Z",
		"2024-01-15T10:20:30.123456+07:00",
		"2024-01-15 10:20:30",
		"2024-01-15T10:20:30",
		"2024-01-15T10:20:30.5",
		"2024-01-15 10:20:30+07",
	}
	for _, v := range valid {
		_, ok := ParseDate(v)
		assert.True(t, ok, v)
	}

	for _, v := range []string{"", "not-a-date", "2024-13-01", "15/01/2024"} {
		_, ok := ParseDate(v)
		assert.False(t, ok, v)
	}
}

func TestSettingsIntervals(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 24, int(s.SessionTTL().Hours()))
	assert.Equal(t, 7*24, int(s.BackupInterval().Hours()))
	s.BackupFrequency = BackupDaily
	assert.Equal(t, 24, int(s.BackupInterval().Hours()))
}
