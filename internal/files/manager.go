package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"asvco2cli/internal/config"
)

// Manager writes run outputs under the configured output directory.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// Create creates or truncates a file, creating parent directories.
func (m *Manager) Create(path string) (*os.File, error) {
	fullPath := m.resolvePath(path)
	if err := m.EnsureDirectory(filepath.Dir(fullPath)); err != nil {
		return nil, err
	}

	m.logger.Debug("Creating file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", fullPath, err)
	}
	return f, nil
}

// WriteFile writes data through a temporary file renamed into place, so a
// reader never sees a partial file.
func (m *Manager) WriteFile(path string, data []byte) error {
	fullPath := m.resolvePath(path)
	dir := filepath.Dir(fullPath)
	if err := m.EnsureDirectory(dir); err != nil {
		return err
	}

	m.logger.Info("Writing file",
		slog.String("path", fullPath),
		slog.Int("size_bytes", len(data)))

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(fullPath))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close %s: %w", fullPath, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}
	return nil
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(m.resolvePath(path))
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	if err := os.MkdirAll(m.resolvePath(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// resolvePath resolves a relative path against the output directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return m.paths.GetOutputPath(path)
}
