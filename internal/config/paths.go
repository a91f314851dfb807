package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the files a run writes under the output directory.
type Paths struct {
	OutputDir string
}

// GetPaths returns the output layout of c with an absolute output directory.
func (c *Config) GetPaths() (*Paths, error) {
	dir, err := filepath.Abs(c.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &Paths{OutputDir: dir}, nil
}

// EnsureDirectories creates the output directory.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// GetOutputPath joins filename onto the output directory.
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

func (p *Paths) SamplesCSVPath() string      { return p.GetOutputPath(SamplesFileName) }
func (p *Paths) GroupsCSVPath() string       { return p.GetOutputPath(GroupsFileName) }
func (p *Paths) GasStandardsCSVPath() string { return p.GetOutputPath(GasStandardsFileName) }
func (p *Paths) FailuresCSVPath() string     { return p.GetOutputPath(FailuresFileName) }
func (p *Paths) FaultsCSVPath() string       { return p.GetOutputPath(FaultsFileName) }
func (p *Paths) WorkbookPath() string        { return p.GetOutputPath(WorkbookFileName) }

// MetricsPath returns Telemetry.MetricsFile, or metrics.prom in the output
// directory when unset.
func (p *Paths) MetricsPath(c *Config) string {
	if c.Telemetry.MetricsFile != "" {
		return c.Telemetry.MetricsFile
	}
	return p.GetOutputPath(MetricsFileName)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
