package models

import (
	"math"
	"strconv"
)

// Program studi values accepted on StudentRecord.ProgramStudi.
const (
	ProgramTHP = "Teknologi Hasil Pertanian"
	ProgramTIP = "Teknologi Industri Pertanian"
)

// ProgramStudiOptions lists the known study programs in display order.
var ProgramStudiOptions = []string{ProgramTHP, ProgramTIP}

// Stage is one milestone of the final-exam pipeline
type Stage string

const (
	StageNone Stage = "none"
	StageUJ3  Stage = "uj3"
	StageSUP  Stage = "sup"
	StageSHP  Stage = "shp"
	StageUK   Stage = "uk"
)

// Stages lists the pipeline milestones in the order they are acquired.
var Stages = []Stage{StageUJ3, StageSUP, StageSHP, StageUK}

// Index returns the position of s in Stages, or -1 for StageNone and unknown values.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Label is the upper-case display name used in the UI and in NextStage.
func (s Stage) Label() string {
	switch s {
	case StageUJ3:
		return "UJ3"
	case StageSUP:
		return "SUP"
	case StageSHP:
		return "SHP"
	case StageUK:
		return "UK"
	default:
		return ""
	}
}

// Student status labels
const (
	StatusKompre        = "Kompre"
	StatusNotStarted    = "Belum Mulai"
	StatusReadyKompre   = "Siap Kompre"
	StatusInProgress    = "Dalam Progress"
	NextStageAfterFinal = "Kompre"
)

// Student is a student's record through the UJ3, SUP, SHP and UK milestones.
// Date fields are kept as the text the administrator entered.
type Student struct {
	ID             int64   `json:"id"`
	NIM            string  `json:"nim"`
	Name           string  `json:"name"`
	ProgramStudi   *string `json:"program_studi"`
	ThesisTitle    *string `json:"thesis_title"`
	ResearchPermit *string `json:"research_permit"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	IsCompleted    bool    `json:"is_completed"`

	UJ3Date     *string `json:"uj3_date"`
	Supervisor1 *string `json:"supervisor_1"`
	Supervisor2 *string `json:"supervisor_2"`

	SUPDate        *string `json:"sup_date"`
	SUPSupervisor1 *string `json:"sup_supervisor_1"`
	SUPSupervisor2 *string `json:"sup_supervisor_2"`
	SUPExaminer1   *string `json:"sup_examiner_1"`
	SUPExaminer2   *string `json:"sup_examiner_2"`

	SHPDate        *string `json:"shp_date"`
	SHPSupervisor1 *string `json:"shp_supervisor_1"`
	SHPSupervisor2 *string `json:"shp_supervisor_2"`
	SHPExaminer1   *string `json:"shp_examiner_1"`
	SHPExaminer2   *string `json:"shp_examiner_2"`

	UKDate      *string `json:"uk_date"`
	UKExaminer1 *string `json:"uk_examiner_1"`
	UKExaminer2 *string `json:"uk_examiner_2"`
	UKExaminer3 *string `json:"uk_examiner_3"`
	UKExaminer4 *string `json:"uk_examiner_4"`
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// StageDate returns the date recorded for a stage.
func (s *Student) StageDate(stage Stage) *string {
	switch stage {
	case StageUJ3:
		return s.UJ3Date
	case StageSUP:
		return s.SUPDate
	case StageSHP:
		return s.SHPDate
	case StageUK:
		return s.UKDate
	default:
		return nil
	}
}

// HasStage reports whether the stage date is filled in.
func (s *Student) HasStage(stage Stage) bool {
	return present(s.StageDate(stage))
}

// HighestStage returns the furthest milestone with a date, by precedence uk > shp > sup > uj3.
func (s *Student) HighestStage() Stage {
	for i := len(Stages) - 1; i >= 0; i-- {
		if s.HasStage(Stages[i]) {
			return Stages[i]
		}
	}
	return StageNone
}

// CompletedStages counts the milestones that have a date.
func (s *Student) CompletedStages() int {
	n := 0
	for _, stage := range Stages {
		if s.HasStage(stage) {
			n++
		}
	}
	return n
}

// ProgressPercent is the share of milestones with a date, rounded to a whole percent.
func (s *Student) ProgressPercent() int {
	return int(math.Round(float64(s.CompletedStages()) / float64(len(Stages)) * 100))
}

// Status summarises the record for list views.
func (s *Student) Status() string {
	if s.IsCompleted {
		return StatusKompre
	}
	switch s.ProgressPercent() {
	case 0:
		return StatusNotStarted
	case 100:
		return StatusReadyKompre
	default:
		return StatusInProgress
	}
}

// NextStage names the first milestone still missing, or "Kompre" when all four are done.
func (s *Student) NextStage() string {
	for _, stage := range Stages {
		if !s.HasStage(stage) {
			return stage.Label()
		}
	}
	return NextStageAfterFinal
}

// CurrentSupervisor1 is the first supervisor of the latest stage that names one.
func (s *Student) CurrentSupervisor1() *string {
	return firstPresent(s.SHPSupervisor1, s.SUPSupervisor1, s.Supervisor1)
}

// CurrentSupervisor2 is the second supervisor of the latest stage that names one.
func (s *Student) CurrentSupervisor2() *string {
	return firstPresent(s.SHPSupervisor2, s.SUPSupervisor2, s.Supervisor2)
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if present(v) {
			return v
		}
	}
	return nil
}

// AcademicYear derives the intake year from the first two NIM digits.
// Prefixes below 50 map to 20xx, the rest to 19xx.
func (s *Student) AcademicYear() (string, bool) {
	if len(s.NIM) < 2 {
		return "", false
	}
	prefix, err := strconv.Atoi(s.NIM[:2])
	if err != nil || prefix < 0 {
		return "", false
	}
	if prefix < 50 {
		return strconv.Itoa(2000 + prefix), true
	}
	return strconv.Itoa(1900 + prefix), true
}

// FieldValue returns the text of a column by its snake_case name. ok is false for
// unknown names; a known but empty field yields ("", true).
func (s *Student) FieldValue(field string) (string, bool) {
	switch field {
	case "nim":
		return s.NIM, true
	case "name":
		return s.Name, true
	case "created_at":
		return s.CreatedAt, true
	case "updated_at":
		return s.UpdatedAt, true
	case "is_completed":
		return strconv.FormatBool(s.IsCompleted), true
	}
	if p, ok := s.textFields()[field]; ok {
		if *p == nil {
			return "", true
		}
		return **p, true
	}
	return "", false
}

// textFields maps every nullable text column to its field.
func (s *Student) textFields() map[string]**string {
	return map[string]**string{
		"program_studi":    &s.ProgramStudi,
		"thesis_title":     &s.ThesisTitle,
		"research_permit":  &s.ResearchPermit,
		"uj3_date":         &s.UJ3Date,
		"supervisor_1":     &s.Supervisor1,
		"supervisor_2":     &s.Supervisor2,
		"sup_date":         &s.SUPDate,
		"sup_supervisor_1": &s.SUPSupervisor1,
		"sup_supervisor_2": &s.SUPSupervisor2,
		"sup_examiner_1":   &s.SUPExaminer1,
		"sup_examiner_2":   &s.SUPExaminer2,
		"shp_date":         &s.SHPDate,
		"shp_supervisor_1": &s.SHPSupervisor1,
		"shp_supervisor_2": &s.SHPSupervisor2,
		"shp_examiner_1":   &s.SHPExaminer1,
		"shp_examiner_2":   &s.SHPExaminer2,
		"uk_date":          &s.UKDate,
		"uk_examiner_1":    &s.UKExaminer1,
		"uk_examiner_2":    &s.UKExaminer2,
		"uk_examiner_3":    &s.UKExaminer3,
		"uk_examiner_4":    &s.UKExaminer4,
	}
}

// NullableColumns lists the optional text columns in table order.
var NullableColumns = []string{
	"program_studi", "thesis_title", "research_permit",
	"uj3_date", "supervisor_1", "supervisor_2",
	"sup_date", "sup_supervisor_1", "sup_supervisor_2", "sup_examiner_1", "sup_examiner_2",
	"shp_date", "shp_supervisor_1", "shp_supervisor_2", "shp_examiner_1", "shp_examiner_2",
	"uk_date", "uk_examiner_1", "uk_examiner_2", "uk_examiner_3", "uk_examiner_4",
}

// StageDateColumns are the columns holding milestone dates.
var StageDateColumns = []string{"uj3_date", "sup_date", "shp_date", "uk_date"}

// Text returns the pointer held by a nullable text column, or nil for unknown names.
func (s *Student) Text(column string) *string {
	if p, ok := s.textFields()[column]; ok {
		return *p
	}
	return nil
}

// SetText assigns a nullable text column and reports whether the column exists.
func (s *Student) SetText(column string, value *string) bool {
	p, ok := s.textFields()[column]
	if ok {
		*p = value
	}
	return ok
}

// StudentUpdate carries a partial update. Only columns present in Fields change;
// a nil value clears the column.
type StudentUpdate struct {
	Name        *string
	NIM         *string
	IsCompleted *bool
	Fields      map[string]*string
}

// Empty reports whether the update touches no column.
func (u StudentUpdate) Empty() bool {
	return u.Name == nil && u.NIM == nil && u.IsCompleted == nil && len(u.Fields) == 0
}

// Apply writes the update onto s.
func (u StudentUpdate) Apply(s *Student) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.NIM != nil {
		s.NIM = *u.NIM
	}
	if u.IsCompleted != nil {
		s.IsCompleted = *u.IsCompleted
	}
	for column, value := range u.Fields {
		s.SetText(column, value)
	}
}

// StudentStatistics holds the dashboard counters.
type StudentStatistics struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

// StrPtr returns a pointer to v.
func StrPtr(v string) *string {
	return &v
}
