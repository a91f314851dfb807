package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	validator := NewFileValidator(nil)

	tests := []struct {
		name      string
		setup     func(t *testing.T) string
		wantCount int
		wantErr   bool
	}{
		{
			name: "directory with logs",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				for _, name := range []string{"20210825_120000.txt", "20210826_120000.txt", "notes_x.txt", "readme.md"} {
					require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
				}
				return dir
			},
			wantCount: 2,
		},
		{
			name:  "empty directory",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:    "missing directory",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			wantErr: true,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file.txt")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := validator.ValidateInputDirectory(tt.setup(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	validator := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	require.NoError(t, validator.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
}

func TestFileValidator_ValidateLogFile(t *testing.T) {
	validator := NewFileValidator(nil)
	dir := t.TempDir()

	good := filepath.Join(dir, "20210825_120000.txt")
	require.NoError(t, os.WriteFile(good, []byte("COEFF:CO2kzero:0.96\n"), 0644))
	empty := filepath.Join(dir, "20210825_130000.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	badName := filepath.Join(dir, "log.txt")
	require.NoError(t, os.WriteFile(badName, []byte("x"), 0644))

	assert.NoError(t, validator.ValidateLogFile(good))
	assert.Error(t, validator.ValidateLogFile(empty))
	assert.Error(t, validator.ValidateLogFile(badName))
	assert.Error(t, validator.ValidateLogFile(filepath.Join(dir, "20210825_140000.txt")))
}

func TestFileValidator_ValidateReferenceCSV(t *testing.T) {
	validator := NewFileValidator(nil)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "all columns", content: "serialnum,co2kspan2,celltemp,slope,notes\n"},
		{name: "mixed case", content: "SerialNum, CO2kspan2 ,celltemp,slope\n"},
		{name: "missing slope", content: "serialnum,co2kspan2,celltemp\n", wantErr: "slope"},
		{name: "empty file", content: "", wantErr: "header"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "ref"+string(rune('a'+i))+".csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			err := validator.ValidateReferenceCSV(path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
