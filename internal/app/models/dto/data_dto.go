package dto

import (
	"github.com/yigit/examprogress/internal/app/models"
)

// BackupResponse returns a freshly built snapshot
type BackupResponse struct {
	Success bool                   `json:"success" example:"true"`
	Data    *models.BackupSnapshot `json:"data"`
	Message string                 `json:"message" example:"Backup created with 42 students"`
}

// StoredBackupsResponse lists the automatic snapshots kept on disk
type StoredBackupsResponse struct {
	Success bool                  `json:"success" example:"true"`
	Backups []models.StoredBackup `json:"backups"`
}

// ValidationResponse wraps an integrity report
type ValidationResponse struct {
	Success    bool                    `json:"success" example:"true"`
	Validation models.ValidationReport `json:"validation"`
}

// RestoreResponse reports a successful restore
type RestoreResponse struct {
	Success       bool   `json:"success" example:"true"`
	Message       string `json:"message" example:"Successfully imported 42 students from backup"`
	ImportedCount int    `json:"importedCount" example:"42"`
}

// RestoreFailureResponse reports why a restore was not applied
type RestoreFailureResponse struct {
	Success    bool     `json:"success" example:"false"`
	Error      string   `json:"error" example:"Backup file integrity check failed (corrupted data)"`
	Errors     []string `json:"errors,omitempty"`
	ErrorCount int      `json:"errorCount,omitempty"`
}

// RepairResponse reports the outcome of an automatic repair
type RepairResponse struct {
	Success  bool     `json:"success"`
	Repaired []string `json:"repaired"`
	Failed   []string `json:"failed"`
	Message  string   `json:"message" example:"Some issues could not be repaired automatically"`
}

// RepairRequest lists the issues to attempt to repair
type RepairRequest struct {
	Action string   `json:"action" example:"repair"`
	Issues []string `json:"issues"`
}

// SyncRequest starts an external sync
type SyncRequest struct {
	APIURL        string `json:"apiUrl" example:"https://siakad.example.ac.id/api"`
	APIKey        string `json:"apiKey"`
	SyncDirection string `json:"syncDirection" example:"bidirectional" enums:"import,export,bidirectional"`
	SystemType    string `json:"systemType" example:"siakad"`
}

// SyncStatus describes the sync capabilities and last run
type SyncStatus struct {
	LastSync            *string  `json:"lastSync"`
	SyncEnabled         bool     `json:"syncEnabled" example:"true"`
	SupportedSystems    []string `json:"supportedSystems"`
	SupportedDirections []string `json:"supportedDirections"`
}

// SyncStatusResponse wraps SyncStatus
type SyncStatusResponse struct {
	Success bool       `json:"success" example:"true"`
	Status  SyncStatus `json:"status"`
}

// SyncResponse reports a successful sync
type SyncResponse struct {
	Success    bool   `json:"success" example:"true"`
	Message    string `json:"message" example:"Data synchronization completed successfully. Synced: 12 records"`
	Synced     int    `json:"synced" example:"12"`
	SystemType string `json:"systemType" example:"siakad"`
}

// SyncFailureResponse reports a failed sync with the records it skipped
type SyncFailureResponse struct {
	Success   bool                  `json:"success" example:"false"`
	Error     string                `json:"error" example:"Connection test failed: HTTP 503: Service Unavailable"`
	Conflicts []models.SyncConflict `json:"conflicts"`
}

// SyncHistoryResponse lists recent sync attempts, newest last
type SyncHistoryResponse struct {
	Success bool                `json:"success" example:"true"`
	History []models.SyncRecord `json:"history"`
}

// ExportJSONResponse is the json export format
type ExportJSONResponse struct {
	Success    bool             `json:"success" example:"true"`
	Data       []models.Student `json:"data"`
	Count      int              `json:"count" example:"42"`
	Type       string           `json:"type" example:"all"`
	ExportedAt string           `json:"exportedAt"`
}

// ImportValidationResponse reports whether an import file is acceptable
type ImportValidationResponse struct {
	Success bool     `json:"success"`
	Valid   bool     `json:"valid"`
	Count   int      `json:"studentsCount"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message"`
}
