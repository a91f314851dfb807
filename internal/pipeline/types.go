package pipeline

import (
	"time"

	"asvco2cli/internal/calibration"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/internal/tolerance"
	"asvco2cli/internal/validation"
	"asvco2cli/pkg/contracts/domain"
)

// Input is one log to process: in-memory content, or a path read when
// Content is nil.
type Input struct {
	Name    string
	Content []byte
	Path    string
}

// PathInput names a log on disk.
func PathInput(path string) Input {
	return Input{Path: path}
}

// LabSource resolves lab calibration constants for an ASVCO2 unit serial.
// *calibration.ReferenceTable implements it.
type LabSource interface {
	Constants(unitSerial string) (calibration.LabConstants, error)
}

// FixedLab serves the same constants for every unit.
type FixedLab calibration.LabConstants

// Constants implements LabSource
func (f FixedLab) Constants(string) (calibration.LabConstants, error) {
	return calibration.LabConstants(f), nil
}

// Options configures a Processor.
type Options struct {
	Workers int
	// Modes are the target windows corrected and matched per file.
	Modes []domain.Mode
	// Revision selects the tolerance tables. It is required.
	Revision tolerance.Revision
	// CombinedStdDevs is n in |mean| + n·stdev for combined verdicts.
	CombinedStdDevs float64
}

// Mismatch is a sample whose corrected dry value had no reference gas within
// calibration.MatchTolerance.
type Mismatch struct {
	File     string      `json:"file"`
	Mode     domain.Mode `json:"mode"`
	Value    float64     `json:"value"`
	Nearest  float64     `json:"nearest"`
	Distance float64     `json:"distance"`
}

// FileResult is everything computed for one successfully processed log.
type FileResult struct {
	Name       string                     `json:"name"`
	Date       time.Time                  `json:"date"`
	Span       calibration.SpanCorrection `json:"span"`
	Results    []calibration.Result       `json:"results"`
	Samples    []domain.GasStandardSample `json:"samples"`
	Mismatches []Mismatch                 `json:"mismatches"`
	Faults     validation.FaultReport     `json:"faults"`
}

// FileFailure records a log that could not be processed.
type FileFailure struct {
	Name    string              `json:"name"`
	Type    apperrors.ErrorType `json:"type"`
	Message string              `json:"message"`
	Err     error               `json:"-"`
}

// BatchResult is the merged outcome of a run, in input order.
type BatchResult struct {
	RunID    string             `json:"run_id"`
	Revision tolerance.Revision `json:"revision"`
	Files    []FileResult       `json:"files"`
	// Samples holds every sample, matched or not.
	Samples    []domain.GasStandardSample `json:"samples"`
	Mismatches []Mismatch                 `json:"mismatches"`
	// Summaries are the range groups of matched samples.
	Summaries []domain.GroupSummary `json:"summaries"`
	// Groups carries verdicts when Revision has grouped tables.
	Groups               []domain.GroupVerdict       `json:"groups,omitempty"`
	GasStandardSummaries []domain.GasStandardSummary `json:"gas_standard_summaries"`
	// GasStandards carries verdicts when Revision has single-concentration tables.
	GasStandards []tolerance.GasStandardVerdict `json:"gas_standards,omitempty"`
	Faults       []validation.FaultReport       `json:"faults"`
	Failures     []FileFailure                  `json:"failures"`
	Skipped      []string                       `json:"skipped"`
}
