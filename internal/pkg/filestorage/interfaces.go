package filestorage

import "time"

// FileInfo describes a stored file
type FileInfo struct {
	Name     string
	FileSize int64
	ModTime  time.Time
}

// FileStorage is a flat store of named files
type FileStorage interface {
	// SaveFile writes data under name, replacing any previous content
	SaveFile(name string, data []byte) error

	// ReadFile returns the content stored under name
	ReadFile(name string) ([]byte, error)

	// ListFiles returns the files whose name starts with prefix, sorted by name
	ListFiles(prefix string) ([]FileInfo, error)

	// DeleteFile removes a file; deleting a missing file is not an error
	DeleteFile(name string) error
}
