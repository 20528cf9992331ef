package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/middleware"
)

// SettingsController handles the administrator preferences
type SettingsController struct {
	settingsService services.SettingsService
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(settingsService services.SettingsService) *SettingsController {
	return &SettingsController{settingsService: settingsService}
}

// GetSettings returns the current settings
// @Summary Get settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.AppSettings}
// @Router /settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.settingsService.Get(), ""))
}

// UpdateSettings merges a partial settings object
// @Summary Update settings
// @Description Keys not present keep their current value. Changing the backup schedule restarts the auto-backup timer.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AppSettings true "Settings to change"
// @Success 200 {object} dto.APIResponse{data=models.AppSettings} "Settings saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid settings"
// @Router /settings [put]
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	patch, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	settings, err := c.settingsService.Update(patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings, "Settings saved"))
}

// ResetSettings restores the defaults
// @Summary Reset settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.AppSettings} "Settings reset"
// @Router /settings/reset [post]
func (c *SettingsController) ResetSettings(ctx *gin.Context) {
	settings, err := c.settingsService.Reset()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings, "Settings reset to defaults"))
}
