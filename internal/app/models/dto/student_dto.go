package dto

import (
	"encoding/json"
	"fmt"

	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

// CreateStudentRequest is the add-student form. Stage fields are optional.
type CreateStudentRequest struct {
	NIM            string  `json:"nim" binding:"required,numeric,max=32" example:"2021001"`
	Name           string  `json:"name" binding:"required,max=255" example:"Siti Aminah"`
	ProgramStudi   *string `json:"program_studi" binding:"omitempty,oneof='Teknologi Hasil Pertanian' 'Teknologi Industri Pertanian'"`
	ThesisTitle    *string `json:"thesis_title"`
	ResearchPermit *string `json:"research_permit"`

	UJ3Date     *string `json:"uj3_date" example:"2024-01-15"`
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

// ToModel converts the request into a new student record
func (r *CreateStudentRequest) ToModel() *models.Student {
	return &models.Student{
		NIM:            r.NIM,
		Name:           r.Name,
		ProgramStudi:   r.ProgramStudi,
		ThesisTitle:    r.ThesisTitle,
		ResearchPermit: r.ResearchPermit,
		UJ3Date:        r.UJ3Date,
		Supervisor1:    r.Supervisor1,
		Supervisor2:    r.Supervisor2,
		SUPDate:        r.SUPDate,
		SUPSupervisor1: r.SUPSupervisor1,
		SUPSupervisor2: r.SUPSupervisor2,
		SUPExaminer1:   r.SUPExaminer1,
		SUPExaminer2:   r.SUPExaminer2,
		SHPDate:        r.SHPDate,
		SHPSupervisor1: r.SHPSupervisor1,
		SHPSupervisor2: r.SHPSupervisor2,
		SHPExaminer1:   r.SHPExaminer1,
		SHPExaminer2:   r.SHPExaminer2,
		UKDate:         r.UKDate,
		UKExaminer1:    r.UKExaminer1,
		UKExaminer2:    r.UKExaminer2,
		UKExaminer3:    r.UKExaminer3,
		UKExaminer4:    r.UKExaminer4,
	}
}

// StudentResponse is a student record plus the values derived from its stages
type StudentResponse struct {
	models.Student
	Progress     int          `json:"progress" example:"75"`
	Status       string       `json:"status" example:"Dalam Progress"`
	NextStage    string       `json:"next_stage" example:"UK"`
	HighestStage models.Stage `json:"highest_stage" example:"shp"`
	AcademicYear string       `json:"academic_year,omitempty" example:"2021"`
}

// NewStudentResponse builds the response for one student
func NewStudentResponse(s *models.Student) StudentResponse {
	year, _ := s.AcademicYear()
	return StudentResponse{
		Student:      *s,
		Progress:     s.ProgressPercent(),
		Status:       s.Status(),
		NextStage:    s.NextStage(),
		HighestStage: s.HighestStage(),
		AcademicYear: year,
	}
}

// NewStudentResponses builds responses for a list of students
func NewStudentResponses(students []models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, NewStudentResponse(&students[i]))
	}
	return out
}

// StudentListQuery holds the filter, sort and paging parameters of GET /students
type StudentListQuery struct {
	Search       string `form:"search"`
	SearchFields string `form:"fields"`
	Stage        string `form:"stage" binding:"omitempty,oneof=all uj3 sup shp uk"`
	Progress     string `form:"progress" binding:"omitempty,oneof=all completed in_progress pending"`
	Year         string `form:"year" binding:"omitempty,numeric,len=4"`
	ProgramStudi string `form:"program"`
	QuickRange   string `form:"range" binding:"omitempty,oneof=all today this_week this_month last_30_days this_year 7days 30days 3months 6months 1year"`
	DateFrom     string `form:"from"`
	DateTo       string `form:"to"`
	DateField    string `form:"dateField"`
	SortBy       string `form:"sortBy" binding:"omitempty,oneof=name nim created_at updated_at progress"`
	SortOrder    string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	Size         int    `form:"size" binding:"omitempty,min=1,max=100"`
}

// StudentListResponse is a filtered, sorted page of students
type StudentListResponse struct {
	Items             []StudentResponse `json:"items"`
	Pagination        PaginationInfo    `json:"pagination"`
	AvailableYears    []string          `json:"availableYears"`
	AvailablePrograms []string          `json:"availablePrograms"`
}

// CreateDosenRequest adds a name to the dosen registry
type CreateDosenRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"Dr. Ir. Budi Santoso, M.Si."`
}

// ParseStudentUpdate reads a partial update body. Absent keys are left unchanged,
// null clears an optional column, and identity or timestamp keys are ignored.
func ParseStudentUpdate(body []byte) (models.StudentUpdate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.StudentUpdate{}, fmt.Errorf("%w: invalid update payload", apperrors.ErrValidationFailed)
	}

	update := models.StudentUpdate{Fields: map[string]*string{}}
	for key, value := range raw {
		switch key {
		case "name", "nim":
			var v string
			if err := json.Unmarshal(value, &v); err != nil {
				return models.StudentUpdate{}, fmt.Errorf("%w: %s must be a string", apperrors.ErrValidationFailed, key)
			}
			if key == "name" {
				update.Name = &v
			} else {
				update.NIM = &v
			}
		case "is_completed":
			var v bool
			if err := json.Unmarshal(value, &v); err != nil {
				return models.StudentUpdate{}, fmt.Errorf("%w: is_completed must be a boolean", apperrors.ErrValidationFailed)
			}
			update.IsCompleted = &v
		default:
			if !isNullableColumn(key) {
				continue
			}
			var v *string
			if err := json.Unmarshal(value, &v); err != nil {
				return models.StudentUpdate{}, fmt.Errorf("%w: %s must be a string or null", apperrors.ErrValidationFailed, key)
			}
			update.Fields[key] = v
		}
	}
	return update, nil
}

func isNullableColumn(column string) bool {
	for _, c := range models.NullableColumns {
		if c == column {
			return true
		}
	}
	return false
}
