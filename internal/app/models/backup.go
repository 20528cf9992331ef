package models

import "encoding/json"

// Snapshot labels
const (
	BackupVersion      = "1.0.0"
	ApplicationVersion = "1.0.0"
	BackupExportedBy   = "admin"
	DatabaseVersion    = "postgres"
)

// BackupMetadata describes where a snapshot came from.
type BackupMetadata struct {
	TotalStudents      int    `json:"totalStudents"`
	ExportedBy         string `json:"exportedBy"`
	DatabaseVersion    string `json:"databaseVersion"`
	ApplicationVersion string `json:"applicationVersion"`
}

// BackupData is the checksummed payload of a snapshot.
type BackupData struct {
	Students []Student `json:"students"`
}

// BackupSnapshot is a full copy of the student table.
type BackupSnapshot struct {
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Metadata  BackupMetadata `json:"metadata"`
	Data      BackupData     `json:"data"`
	Checksum  string         `json:"checksum"`
}

// RawBackup is a snapshot as uploaded, with data left undecoded so the checksum
// can be recomputed over the exact bytes that were written.
type RawBackup struct {
	Version  *string         `json:"version"`
	Data     json.RawMessage `json:"data"`
	Checksum *string         `json:"checksum"`
}

// ImportResult is the outcome of a restore. Failures are reported here, not as errors.
type ImportResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ImportedCount int      `json:"importedCount,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	ErrorCount    int      `json:"errorCount,omitempty"`
}

// StoredBackup describes an automatic snapshot kept on disk.
type StoredBackup struct {
	Key           string `json:"key"`
	Timestamp     string `json:"timestamp"`
	TotalStudents int    `json:"totalStudents"`
	Size          int64  `json:"size"`
}
