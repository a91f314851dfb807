package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asvco2cli/internal/config"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCSVWriter(&config.Paths{OutputDir: dir}, nil), dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, bom)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{OutputDir: "out"}
	writer := NewCSVWriter(paths, nil)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
	assert.NotNil(t, writer.logger)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, dir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, path string)
	}{
		{
			name:     "basic write with headers",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers: []string{"file", "mode", "corrected_dry"},
				Records: [][]string{
					{"20210825_120000.txt", "APOFF", "350.5758"},
					{"20210825_120000.txt", "EPOFF", "497.4419"},
				},
			},
			validate: func(t *testing.T, path string) {
				lines := readLines(t, path)
				assert.Equal(t, []string{
					"file,mode,corrected_dry",
					"20210825_120000.txt,APOFF,350.5758",
					"20210825_120000.txt,EPOFF,497.4419",
				}, lines)
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"check"},
				Records:   [][]string{{"pump_pressure"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, path string) {
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, bom))
			},
		},
		{
			name:     "fields with commas are quoted",
			filePath: "quoted.csv",
			options: WriteOptions{
				Records: [][]string{{"a.txt", "mean 0.5, stdev 0.2"}},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{`a.txt,"mean 0.5, stdev 0.2"`}, readLines(t, path))
			},
		},
		{
			name:     "empty records",
			filePath: "empty.csv",
			options: WriteOptions{
				Headers: []string{"run_id", "file"},
				Records: [][]string{},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{"run_id,file"}, readLines(t, path))
			},
		},
		{
			name:     "nested relative path",
			filePath: "nested/dir/out.csv",
			options: WriteOptions{
				Records: [][]string{{"x"}},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{"x"}, readLines(t, path))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))
			tt.validate(t, filepath.Join(dir, tt.filePath))
		})
	}
}

func TestCSVWriter_WriteSimpleCSVAndAppend(t *testing.T) {
	writer, dir := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("faults.csv",
		[]string{"file", "check"},
		[][]string{{"a.txt", "humidity"}}))
	require.NoError(t, writer.AppendToCSV("faults.csv",
		[][]string{{"b.txt", "flags"}}))

	content, err := os.ReadFile(filepath.Join(dir, "faults.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, bom))
	assert.Equal(t, []string{"file,check", "a.txt,humidity", "b.txt,flags"},
		readLines(t, filepath.Join(dir, "faults.csv")))
}

func TestCSVWriter_WriteOverwrites(t *testing.T) {
	writer, dir := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("samples.csv", []string{"h"}, [][]string{{"old"}}))
	require.NoError(t, writer.WriteSimpleCSV("samples.csv", []string{"h"}, [][]string{{"new"}}))

	assert.Equal(t, []string{"h", "new"}, readLines(t, filepath.Join(dir, "samples.csv")))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	writer, dir := setupTestEnv(t)

	abs := filepath.Join(t.TempDir(), "elsewhere.csv")
	assert.Equal(t, abs, writer.resolvePath(abs))
	assert.Equal(t, filepath.Join(dir, "groups.csv"), writer.resolvePath("groups.csv"))

	bare := NewCSVWriter(nil, nil)
	assert.Equal(t, "groups.csv", bare.resolvePath("groups.csv"))
}
