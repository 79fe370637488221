package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-studio/internal/application/port"
)

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// LocalFolderManager implements port.FolderManager for local filesystem
type LocalFolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFolderManager creates a new LocalFolderManager
func NewLocalFolderManager(baseDir string, logger *zap.Logger) *LocalFolderManager {
	return &LocalFolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CreateFolder creates the named folder if needed and returns its full path
func (m *LocalFolderManager) CreateFolder(ctx context.Context, name string) (string, error) {
	safeName := m.SanitizeName(name)
	if safeName == "" {
		return "", fmt.Errorf("cannot create folder: empty name")
	}

	folderPath := filepath.Join(m.baseDir, safeName)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create folder",
			zap.String("name", name),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	return folderPath, nil
}

// GetPath returns the path for a folder without creating it
func (m *LocalFolderManager) GetPath(name string) string {
	return filepath.Join(m.baseDir, m.SanitizeName(name))
}

// Exists checks if the folder already exists
func (m *LocalFolderManager) Exists(name string) bool {
	info, err := os.Stat(m.GetPath(name))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Delete removes a folder and everything in it
func (m *LocalFolderManager) Delete(ctx context.Context, name string) error {
	safeName := m.SanitizeName(name)
	if safeName == "" {
		return fmt.Errorf("cannot delete folder: empty name")
	}

	folderPath := filepath.Join(m.baseDir, safeName)
	if err := os.RemoveAll(folderPath); err != nil {
		m.logger.Error("Failed to delete folder",
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	m.logger.Debug("Deleted folder", zap.String("folder_path", folderPath))
	return nil
}

// SanitizeName keeps letters, digits, hyphens and underscores
func (m *LocalFolderManager) SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeFolderChars.ReplaceAllString(name, "")
}

var _ port.FolderManager = (*LocalFolderManager)(nil)
