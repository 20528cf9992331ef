package filestorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

// ErrFileNotFound is returned by ReadFile for unknown names.
var ErrFileNotFound = errors.New("file not found")

// LocalStorage keeps files in a single directory on the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// resolve maps a name to a path inside basePath, rejecting anything that would escape it.
func (ls *LocalStorage) resolve(name string) (string, error) {
	filename := filepath.Base(name)
	if filename != name || filename == "." || filename == ".." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(ls.basePath, filename), nil
}

// SaveFile writes through a temporary file so readers never see partial content.
func (ls *LocalStorage) SaveFile(name string, data []byte) error {
	dstPath, err := ls.resolve(name)
	if err != nil {
		return err
	}

	tmpPath := dstPath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		logger.Error().Err(err).Str("path", tmpPath).Msg("Failed to write file")
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to move file into place")
		return fmt.Errorf("failed to save file: %w", err)
	}

	logger.Debug().Str("path", dstPath).Int("bytes", len(data)).Msg("File saved")
	return nil
}

// ReadFile returns the content of a stored file
func (ls *LocalStorage) ReadFile(name string) ([]byte, error) {
	path, err := ls.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// ListFiles returns regular files starting with prefix. Temporary files are skipped.
func (ls *LocalStorage) ListFiles(prefix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	files := []FileInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: name, FileSize: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// DeleteFile removes a file from the storage directory.
func (ls *LocalStorage) DeleteFile(name string) error {
	path, err := ls.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", path).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Debug().Str("path", path).Msg("File deleted")
	return nil
}
