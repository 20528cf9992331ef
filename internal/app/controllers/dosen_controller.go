package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/middleware"
)

// DosenController handles the lecturer name registry
type DosenController struct {
	dosenService   services.DosenService
	studentService services.StudentService
}

// NewDosenController creates a new DosenController
func NewDosenController(dosenService services.DosenService, studentService services.StudentService) *DosenController {
	return &DosenController{
		dosenService:   dosenService,
		studentService: studentService,
	}
}

// ListDosen returns every registered name
// @Summary List dosen
// @Tags dosen
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Dosen}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dosen [get]
func (c *DosenController) ListDosen(ctx *gin.Context) {
	list, err := c.dosenService.List(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list, ""))
}

// CreateDosen registers a name
// @Summary Add a dosen
// @Tags dosen
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateDosenRequest true "Dosen name"
// @Success 201 {object} dto.APIResponse{data=models.Dosen}
// @Failure 400 {object} dto.ErrorResponse "Invalid name"
// @Failure 409 {object} dto.ErrorResponse "Dosen already exists"
// @Router /dosen [post]
func (c *DosenController) CreateDosen(ctx *gin.Context) {
	var req dto.CreateDosenRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	d, err := c.dosenService.Create(ctx, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(d, "Dosen added"))
}

// DeleteDosen removes a name
// @Summary Delete a dosen
// @Tags dosen
// @Produce json
// @Security BearerAuth
// @Param name path string true "Dosen name"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Dosen not found"
// @Router /dosen/{name} [delete]
func (c *DosenController) DeleteDosen(ctx *gin.Context) {
	if err := c.dosenService.Delete(ctx, ctx.Param("name")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Dosen removed"))
}

// GetSupervisedStudents lists the students a dosen currently supervises
// @Summary Students supervised by a dosen
// @Description Uses the supervisors of each student's latest stage
// @Tags dosen
// @Produce json
// @Param name path string true "Dosen name"
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dosen/{name}/students [get]
func (c *DosenController) GetSupervisedStudents(ctx *gin.Context) {
	students, err := c.studentService.SupervisedBy(ctx, ctx.Param("name"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponses(students), ""))
}
