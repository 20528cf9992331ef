package models

// SyncDirection selects which legs of a sync run.
type SyncDirection string

const (
	SyncImport        SyncDirection = "import"
	SyncExport        SyncDirection = "export"
	SyncBidirectional SyncDirection = "bidirectional"
)

// SyncDirections lists the accepted directions.
var SyncDirections = []SyncDirection{SyncImport, SyncExport, SyncBidirectional}

// Valid reports whether d is a known direction.
func (d SyncDirection) Valid() bool {
	for _, known := range SyncDirections {
		if d == known {
			return true
		}
	}
	return false
}

// Exports reports whether the export leg runs.
func (d SyncDirection) Exports() bool {
	return d == SyncExport || d == SyncBidirectional
}

// Imports reports whether the import leg runs.
func (d SyncDirection) Imports() bool {
	return d == SyncImport || d == SyncBidirectional
}

// Sync record statuses
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// Conflict types raised by the import leg
const (
	ConflictDuplicate    = "duplicate"
	ConflictInsertError  = "insert_error"
	ConflictProcessError = "process_error"
)

// SyncConflict is an incoming record that was not imported.
type SyncConflict struct {
	NIM      string   `json:"nim"`
	Type     string   `json:"type"`
	Local    *Student `json:"local,omitempty"`
	External *Student `json:"external,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SyncRecord is one entry of the sync history. APIURL is always masked.
type SyncRecord struct {
	ID          string        `json:"id"`
	Timestamp   string        `json:"timestamp"`
	Direction   SyncDirection `json:"direction"`
	APIURL      string        `json:"apiUrl"`
	SystemType  string        `json:"systemType"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	SyncedCount int           `json:"syncedCount"`
	Conflicts   int           `json:"conflicts"`
	DurationMs  int64         `json:"duration"`
}

// SyncResult is the outcome of a sync attempt.
type SyncResult struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Synced     int            `json:"synced"`
	Conflicts  []SyncConflict `json:"conflicts,omitempty"`
	SystemType string         `json:"systemType"`
}
