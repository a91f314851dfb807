package validation

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LogFilePattern is the glob matched by instrument log names.
const LogFilePattern = "*_*.txt"

var logNamePattern = regexp.MustCompile(`^\d{8}_\d{6}\.txt$`)

// referenceColumns are the columns a calibration reference CSV must declare.
var referenceColumns = []string{"serialnum", "co2kspan2", "celltemp", "slope"}

// FileValidator checks the files and directories a validation run reads and writes.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that dir exists and reports how many
// instrument logs it holds. A directory without logs is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	count, err := v.CountLogs(dir)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		v.logger.Warn("No instrument logs found",
			slog.String("directory", dir),
			slog.String("pattern", LogFilePattern))
		return 0, nil
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("logs_found", count))
	return count, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateLogFile checks that path is a non-empty regular file named
// YYYYMMDD_HHMMSS.txt.
func (v *FileValidator) ValidateLogFile(path string) error {
	if !logNamePattern.MatchString(filepath.Base(path)) {
		return fmt.Errorf("%s is not named YYYYMMDD_HHMMSS.txt", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat log file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat log file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		v.logger.Warn("Log file is empty",
			slog.String("file", path))
		return fmt.Errorf("log file %s is empty", path)
	}
	return nil
}

// CountLogs counts the instrument logs directly inside dir.
func (v *FileValidator) CountLogs(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	count := 0
	for _, m := range matches {
		if logNamePattern.MatchString(filepath.Base(m)) {
			count++
		}
	}
	return count, nil
}

// ValidateReferenceCSV checks that a calibration reference CSV exists and its
// header declares the required columns.
func (v *FileValidator) ValidateReferenceCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open calibration reference %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		v.logger.Error("Failed to read calibration reference header",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.ToLower(strings.TrimSpace(col))] = true
	}
	var missing []string
	for _, col := range referenceColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("calibration reference %s is missing columns: %s", path, strings.Join(missing, ", "))
	}

	v.logger.Debug("Calibration reference validated",
		slog.String("file", path))
	return nil
}
