package models

import "time"

// Backup frequencies for the automatic snapshot scheduler
const (
	BackupDaily   = "daily"
	BackupWeekly  = "weekly"
	BackupMonthly = "monthly"
)

// AppSettings holds the administrator preferences.
type AppSettings struct {
	AppName           string `json:"appName" validate:"required,max=120"`
	AppDescription    string `json:"appDescription" validate:"max=500"`
	EnablePublicStats bool   `json:"enablePublicStats"`
	MaintenanceMode   bool   `json:"maintenanceMode"`

	SessionDuration       int  `json:"sessionDuration" validate:"min=1,max=720"`
	RequireStrongPassword bool `json:"requireStrongPassword"`
	EnableTwoFactor       bool `json:"enableTwoFactor"`

	EnableNotifications          bool `json:"enableNotifications"`
	EnableExport                 bool `json:"enableExport"`
	EnableAutoBackup             bool `json:"enableAutoBackup"`
	AutoArchiveCompletedStudents bool `json:"autoArchiveCompletedStudents"`
	EnableEmailReports           bool `json:"enableEmailReports"`

	Theme              string `json:"theme" validate:"oneof=light dark auto"`
	Language           string `json:"language" validate:"oneof=id en"`
	MaxStudentsPerPage int    `json:"maxStudentsPerPage" validate:"min=1,max=100"`
	DefaultSortBy      string `json:"defaultSortBy" validate:"oneof=name nim updated_at progress"`
	DefaultSortOrder   string `json:"defaultSortOrder" validate:"oneof=asc desc"`
	ShowProgressBars   bool   `json:"showProgressBars"`
	EnableAnimations   bool   `json:"enableAnimations"`

	ExportFormat    string `json:"exportFormat" validate:"oneof=excel pdf both"`
	BackupFrequency string `json:"backupFrequency" validate:"oneof=daily weekly monthly"`
	BackupRetention int    `json:"backupRetention" validate:"min=1,max=3650"`

	EnableCaching bool `json:"enableCaching"`
	CacheTimeout  int  `json:"cacheTimeout" validate:"min=0,max=1440"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings() AppSettings {
	return AppSettings{
		AppName:           "Progress Ujian Akhir Mahasiswa",
		AppDescription:    "Sistem monitoring progress ujian akhir mahasiswa",
		EnablePublicStats: true,

		SessionDuration: 24,

		EnableNotifications: true,
		EnableExport:        true,

		Theme:              "light",
		Language:           "id",
		MaxStudentsPerPage: 10,
		DefaultSortBy:      "name",
		DefaultSortOrder:   "asc",
		ShowProgressBars:   true,
		EnableAnimations:   true,

		ExportFormat:    "excel",
		BackupFrequency: BackupWeekly,
		BackupRetention: 30,

		EnableCaching: true,
		CacheTimeout:  5,
	}
}

// SessionTTL is the lifetime of an admin session token.
func (s AppSettings) SessionTTL() time.Duration {
	return time.Duration(s.SessionDuration) * time.Hour
}

// BackupInterval is the period of the automatic snapshot scheduler.
func (s AppSettings) BackupInterval() time.Duration {
	switch s.BackupFrequency {
	case BackupDaily:
		return 24 * time.Hour
	case BackupMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// AppState is everything the service persists outside the database.
type AppState struct {
	Settings          AppSettings  `json:"settings"`
	AdminPasswordHash string       `json:"adminPasswordHash,omitempty"`
	SyncHistory       []SyncRecord `json:"syncHistory"`
	LastSyncTime      string       `json:"lastSyncTime,omitempty"`
}
