package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/app/syncprofile"
	"github.com/yigit/examprogress/internal/middleware"
)

// maxUploadSize bounds backup and import uploads.
const maxUploadSize = 32 << 20

// defaultCleanupMaxAge is how long cleanup keeps stored auto-backups.
const defaultCleanupMaxAge = 30 * 24 * time.Hour

// AutoBackups is the stored snapshot side of the auto-backup scheduler.
type AutoBackups interface {
	RunOnce(ctx context.Context) (*models.StoredBackup, error)
	List() ([]models.StoredBackup, error)
	Read(key string) ([]byte, error)
	Cleanup(maxAge time.Duration) (int, error)
}

// DataController handles backup, export, maintenance and sync
type DataController struct {
	backupService      services.BackupService
	autoBackups        AutoBackups
	exportService      services.ExportService
	maintenanceService services.MaintenanceService
	syncService        services.SyncService
	cleanupMaxAge      time.Duration
}

// NewDataController creates a new DataController
func NewDataController(
	backupService services.BackupService,
	autoBackups AutoBackups,
	exportService services.ExportService,
	maintenanceService services.MaintenanceService,
	syncService services.SyncService,
	cleanupMaxAge time.Duration,
) *DataController {
	if cleanupMaxAge <= 0 {
		cleanupMaxAge = defaultCleanupMaxAge
	}
	return &DataController{
		backupService:      backupService,
		autoBackups:        autoBackups,
		exportService:      exportService,
		maintenanceService: maintenanceService,
		syncService:        syncService,
		cleanupMaxAge:      cleanupMaxAge,
	}
}

func badRequest(ctx *gin.Context, message string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

func attachment(ctx *gin.Context, fileName, contentType string, content []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	ctx.Data(http.StatusOK, contentType, content)
}

var (
	errNoUpload       = errors.New("no file uploaded")
	errUploadTooLarge = fmt.Errorf("file exceeds the %d MiB upload limit", maxUploadSize>>20)
)

// readUpload reads a multipart file field of at most maxUploadSize bytes.
func readUpload(ctx *gin.Context, field string) ([]byte, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		return nil, errNoUpload
	}
	if header.Size > maxUploadSize {
		return nil, errUploadTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, errNoUpload
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, errNoUpload
	}
	if len(content) > maxUploadSize {
		return nil, errUploadTooLarge
	}
	return content, nil
}

// uploadFailed writes the 400 for a readUpload error.
func uploadFailed(ctx *gin.Context, err error, missing string) {
	if errors.Is(err, errUploadTooLarge) {
		badRequest(ctx, "Uploaded "+err.Error())
		return
	}
	badRequest(ctx, missing)
}

// GetBackup creates, downloads or lists backups
// @Summary Create or list backups
// @Description action=create returns a snapshot, action=download returns it as a file, action=list lists the stored auto-backups
// @Tags data
// @Produce json
// @Security BearerAuth
// @Param action query string true "Backup action" Enums(create, download, list)
// @Success 200 {object} dto.BackupResponse "Backup created"
// @Failure 400 {object} dto.ErrorResponse "Invalid action parameter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Failed to create backup"
// @Router /data/backup [get]
func (c *DataController) GetBackup(ctx *gin.Context) {
	switch ctx.Query("action") {
	case "create":
		snapshot, err := c.backupService.Create(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		// snapshot data must reach the client without HTML escaping
		ctx.PureJSON(http.StatusOK, dto.BackupResponse{
			Success: true,
			Data:    snapshot,
			Message: fmt.Sprintf("Backup created with %d students", snapshot.Metadata.TotalStudents),
		})
	case "download":
		fileName, content, err := c.backupService.Export(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		attachment(ctx, fileName, "application/json", content)
	case "list":
		backups, err := c.autoBackups.List()
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.StoredBackupsResponse{Success: true, Backups: backups})
	default:
		badRequest(ctx, "Invalid action parameter")
	}
}

// GetAutoBackup downloads a stored auto-backup
// @Summary Download an auto-backup
// @Tags data
// @Produce json
// @Security BearerAuth
// @Param key path string true "Backup key, e.g. autoBackup_1715934600000.json"
// @Success 200 {file} file "Snapshot file"
// @Failure 404 {object} dto.ErrorResponse "Backup not found"
// @Router /data/backup/auto/{key} [get]
func (c *DataController) GetAutoBackup(ctx *gin.Context) {
	key := ctx.Param("key")
	content, err := c.autoBackups.Read(key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	attachment(ctx, key, "application/json", content)
}

// RunAutoBackup stores a snapshot now
// @Summary Run an auto-backup now
// @Tags data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.APIResponse{data=models.StoredBackup}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /data/backup/auto [post]
func (c *DataController) RunAutoBackup(ctx *gin.Context) {
	stored, err := c.autoBackups.RunOnce(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(stored, "Auto-backup stored"))
}

// CleanupBackups removes old and unreadable auto-backups
// @Summary Clean up stored auto-backups
// @Description Removes auto-backups older than the configured age (30 days by default) and files that are not valid JSON
// @Tags data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Router /data/backup/cleanup [post]
func (c *DataController) CleanupBackups(ctx *gin.Context) {
	removed, err := c.autoBackups.Cleanup(c.cleanupMaxAge)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"removed": removed}, fmt.Sprintf("Removed %d stored backups", removed)))
}

// RestoreBackup replaces every student with the uploaded snapshot
// @Summary Restore from a backup
// @Description Verifies the checksum and every record, then replaces the student table in one transaction. confirm must be true.
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param backup formData file true "Backup file"
// @Param confirm formData bool true "Confirm replacing all students"
// @Success 200 {object} dto.RestoreResponse "Restore applied"
// @Failure 400 {object} dto.RestoreFailureResponse "Restore rejected"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /data/backup [post]
func (c *DataController) RestoreBackup(ctx *gin.Context) {
	content, err := readUpload(ctx, "backup")
	if err != nil {
		uploadFailed(ctx, err, "No backup file provided")
		return
	}
	confirmed, _ := strconv.ParseBool(ctx.DefaultPostForm("confirm", ctx.Query("confirm")))

	result := c.backupService.Restore(ctx, content, confirmed)
	if !result.Success {
		ctx.JSON(http.StatusBadRequest, dto.RestoreFailureResponse{
			Success:    false,
			Error:      result.Message,
			Errors:     result.Errors,
			ErrorCount: result.ErrorCount,
		})
		return
	}
	ctx.JSON(http.StatusOK, dto.RestoreResponse{
		Success:       true,
		Message:       result.Message,
		ImportedCount: result.ImportedCount,
	})
}

// Export downloads the students as CSV or returns them as JSON
// @Summary Export students
// @Description format=excel or csv returns a CSV attachment with a UTF-8 byte order mark, format=json returns the records. The student list filters apply.
// @Tags data
// @Produce json
// @Produce text/csv
// @Security BearerAuth
// @Param format query string false "Export format" Enums(excel, csv, json) default(excel)
// @Param type query string false "Students to include" Enums(all, active, completed) default(all)
// @Success 200 {object} dto.ExportJSONResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid parameters or nothing to export"
// @Router /data/export [get]
func (c *DataController) Export(ctx *gin.Context) {
	format := ctx.DefaultQuery("format", "excel")
	scope := ctx.DefaultQuery("type", services.ExportAll)
	if !services.ValidExportScope(scope) {
		badRequest(ctx, "Invalid type parameter. Use: all, active, or completed")
		return
	}

	var query dto.StudentListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	criteria, err := services.CriteriaFromQuery(query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	switch format {
	case "excel", "csv":
		fileName, content, err := c.exportService.CSV(ctx, scope, criteria)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		attachment(ctx, fileName, "text/csv; charset=utf-8", content)
	case "json":
		out, err := c.exportService.JSON(ctx, scope, criteria)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, out)
	default:
		badRequest(ctx, "Invalid format parameter. Use: excel, csv, or json")
	}
}

// ValidateImport checks an import file without applying it
// @Summary Validate an import file
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param data formData file true "JSON file with a students array"
// @Param action formData string true "Must be validate" Enums(validate)
// @Success 200 {object} dto.ImportValidationResponse
// @Failure 400 {object} dto.ErrorResponse "No data file provided"
// @Router /data/export [post]
func (c *DataController) ValidateImport(ctx *gin.Context) {
	content, err := readUpload(ctx, "data")
	if err != nil {
		uploadFailed(ctx, err, "No data file provided")
		return
	}
	if ctx.PostForm("action") != "validate" {
		badRequest(ctx, "Invalid action parameter")
		return
	}
	ctx.JSON(http.StatusOK, c.exportService.ValidateImportFile(content))
}

// GetMaintenance validates or optimizes the database
// @Summary Validate or optimize
// @Tags data
// @Produce json
// @Security BearerAuth
// @Param action query string true "Maintenance action" Enums(validate, optimize)
// @Success 200 {object} dto.ValidationResponse "Validation report"
// @Success 200 {object} models.OptimizeResult "Optimization actions"
// @Failure 400 {object} dto.ErrorResponse "Invalid action parameter"
// @Router /data/maintenance [get]
func (c *DataController) GetMaintenance(ctx *gin.Context) {
	switch ctx.Query("action") {
	case "validate":
		ctx.JSON(http.StatusOK, dto.ValidationResponse{
			Success:    true,
			Validation: c.maintenanceService.Validate(ctx),
		})
	case "optimize":
		ctx.JSON(http.StatusOK, c.maintenanceService.Optimize(ctx))
	default:
		badRequest(ctx, "Invalid action parameter. Use: validate, optimize")
	}
}

// RepairIssues attempts automatic repair of reported issues
// @Summary Repair issues
// @Tags data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RepairRequest true "Issues from a validation report"
// @Success 200 {object} dto.RepairResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid action or missing issues"
// @Router /data/maintenance [post]
func (c *DataController) RepairIssues(ctx *gin.Context) {
	var req dto.RepairRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if req.Action != "repair" {
		badRequest(ctx, "Invalid action. Use: repair")
		return
	}
	if req.Issues == nil {
		badRequest(ctx, "Issues array is required for repair operation")
		return
	}

	result := c.maintenanceService.Repair(ctx, req.Issues)
	message := "Some issues could not be repaired automatically"
	if result.Success {
		message = fmt.Sprintf("Repaired %d issues", len(result.Repaired))
	}
	ctx.JSON(http.StatusOK, dto.RepairResponse{
		Success:  result.Success,
		Repaired: result.Repaired,
		Failed:   result.Failed,
		Message:  message,
	})
}

// Sync exchanges data with an external system
// @Summary Sync with an external system
// @Description Checks the external health endpoint, then exports and/or imports students. Existing NIMs are reported as conflicts and left untouched.
// @Tags data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SyncRequest true "External system"
// @Success 200 {object} dto.SyncResponse
// @Failure 400 {object} dto.SyncFailureResponse "Sync failed"
// @Router /data/sync [post]
func (c *DataController) Sync(ctx *gin.Context) {
	var req dto.SyncRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if req.APIURL == "" || req.SyncDirection == "" {
		badRequest(ctx, services.MsgSyncMissingParams)
		return
	}
	direction := models.SyncDirection(req.SyncDirection)
	if !direction.Valid() {
		badRequest(ctx, "Invalid syncDirection. Use: import, export, or bidirectional")
		return
	}

	result := c.syncService.Sync(ctx, services.SyncRequest{
		APIURL:     req.APIURL,
		APIKey:     req.APIKey,
		Direction:  direction,
		SystemType: req.SystemType,
	})
	if !result.Success {
		conflicts := result.Conflicts
		if conflicts == nil {
			conflicts = []models.SyncConflict{}
		}
		ctx.JSON(http.StatusBadRequest, dto.SyncFailureResponse{Success: false, Error: result.Message, Conflicts: conflicts})
		return
	}

	systemType := req.SystemType
	if systemType == "" {
		systemType = "unknown"
	}
	ctx.JSON(http.StatusOK, dto.SyncResponse{
		Success:    true,
		Message:    result.Message,
		Synced:     result.Synced,
		SystemType: systemType,
	})
}

// GetSync returns the sync status or history
// @Summary Sync status and history
// @Tags data
// @Produce json
// @Security BearerAuth
// @Param action query string true "What to return" Enums(status, history)
// @Success 200 {object} dto.SyncStatusResponse
// @Success 200 {object} dto.SyncHistoryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid action parameter"
// @Router /data/sync [get]
func (c *DataController) GetSync(ctx *gin.Context) {
	switch ctx.Query("action") {
	case "status":
		var lastSync *string
		if last := c.syncService.LastSyncTime(); last != "" {
			lastSync = &last
		}
		directions := make([]string, 0, len(models.SyncDirections))
		for _, d := range models.SyncDirections {
			directions = append(directions, string(d))
		}
		ctx.JSON(http.StatusOK, dto.SyncStatusResponse{
			Success: true,
			Status: dto.SyncStatus{
				LastSync:            lastSync,
				SyncEnabled:         true,
				SupportedSystems:    syncprofile.SupportedSystems(),
				SupportedDirections: directions,
			},
		})
	case "history":
		history := c.syncService.History()
		if history == nil {
			history = []models.SyncRecord{}
		}
		ctx.JSON(http.StatusOK, dto.SyncHistoryResponse{Success: true, History: history})
	default:
		badRequest(ctx, "Invalid action parameter")
	}
}
