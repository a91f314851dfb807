package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// logTimestampLayout is the timestamp embedded in instrument log names.
const logTimestampLayout = "20060102_150405"

var logNamePattern = regexp.MustCompile(`^(\d{8}_\d{6})\.txt$`)

// FileInfo represents information about a discovered log file
type FileInfo struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	Timestamp time.Time // from the file name, UTC
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// ParseLogTimestamp extracts the timestamp of a YYYYMMDD_HHMMSS.txt name.
func ParseLogTimestamp(name string) (time.Time, bool) {
	m := logNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(logTimestampLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// FindLogs lists the instrument logs directly inside dir, ordered by the
// timestamp in their names. Other files and subdirectories are ignored.
func (d *Discovery) FindLogs(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) && d.basePath != "" {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := ParseLogTimestamp(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:      filepath.Join(fullPath, entry.Name()),
			Name:      entry.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Timestamp: ts,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Timestamp.Equal(files[j].Timestamp) {
			return files[i].Timestamp.Before(files[j].Timestamp)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// GetLatestLog returns the log with the latest name timestamp
func GetLatestLog(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, file := range files[1:] {
		if file.Timestamp.After(latest.Timestamp) {
			latest = file
		}
	}
	return latest, true
}

// FilterLogsByDateRange keeps logs whose name timestamp lies in [start, end).
// A zero bound is open.
func FilterLogsByDateRange(files []FileInfo, start, end time.Time) []FileInfo {
	var filtered []FileInfo
	for _, file := range files {
		if !start.IsZero() && file.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && !file.Timestamp.Before(end) {
			continue
		}
		filtered = append(filtered, file)
	}
	return filtered
}

// Paths returns the file paths in order.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
