package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/middleware"
)

// StudentController handles student records
type StudentController struct {
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

func parseStudentID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		errorDetail = errorDetail.WithDetails("Student ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// ListStudents retrieves a filtered, sorted page of students
// @Summary List students
// @Description Filters, sorts and pages the student records. Page size and sort order default to the administrator settings.
// @Tags students
// @Produce json
// @Param search query string false "Search term"
// @Param fields query string false "Comma separated fields to search"
// @Param stage query string false "Highest stage reached at most" Enums(all, uj3, sup, shp, uk)
// @Param progress query string false "Progress bucket" Enums(all, completed, in_progress, pending)
// @Param year query string false "Academic year derived from the NIM"
// @Param program query string false "Program studi"
// @Param range query string false "Quick date range"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param dateField query string false "Column the date range applies to"
// @Param sortBy query string false "Sort key" Enums(name, nim, created_at, updated_at, progress)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse} "Students retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	var query dto.StudentListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	list, err := c.studentService.List(ctx, query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list, ""))
}

// GetStatistics returns the dashboard counters
// @Summary Student statistics
// @Tags students
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.StudentStatistics}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/statistics [get]
func (c *StudentController) GetStatistics(ctx *gin.Context) {
	stats, err := c.studentService.Statistics(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}

// GetArchive lists the completed students
// @Summary Completed students
// @Description Lists students marked as completed, latest UK first
// @Tags students
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/archive [get]
func (c *StudentController) GetArchive(ctx *gin.Context) {
	students, err := c.studentService.Archive(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponses(students), ""))
}

// GetStudent retrieves a student by ID
// @Summary Get student by ID
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.Get(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), ""))
}

// CreateStudent adds a student
// @Summary Create a student
// @Description Adds a student. Stage dates and examiners may be supplied up front.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student data"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse} "Student created"
// @Failure 400 {object} dto.ErrorResponse "Invalid student data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.Create(ctx, req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewStudentResponse(student), "Student created"))
}

// UpdateStudent applies a partial update
// @Summary Update a student
// @Description Only the supplied keys change; null clears an optional column
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.CreateStudentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Student updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid student data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	update, err := dto.ParseStudentUpdate(body)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if update.Empty() {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "No fields to update")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	student, err := c.studentService.Update(ctx, id, update)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), "Student updated"))
}

// CompleteStudent marks a student as completed
// @Summary Mark a student as completed
// @Description Sets the completion flag. Stage dates are not checked; the integrity validator reports inconsistencies.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/complete [post]
func (c *StudentController) CompleteStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.MarkCompleted(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), "Student marked as completed"))
}

// DeleteStudent removes a student
// @Summary Delete a student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse "Student deleted"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	if err := c.studentService.Delete(ctx, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Student deleted"))
}
