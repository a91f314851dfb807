package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/cast"

	"asvco2cli/internal/config"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/internal/pipeline"
	"asvco2cli/pkg/contracts/domain"
)

// Format selects which files Export writes.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatBoth Format = "both"
)

// ParseFormat resolves a configured output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatBoth:
		return f, nil
	}
	return "", apperrors.NewConfigError(fmt.Sprintf("unknown output format %q", s), nil)
}

// concentration is a reference gas value, written without rounding.
type concentration float64

// Table is one flat result table. Cells hold string, int, bool, float64 or
// concentration values.
type Table struct {
	Name    string
	File    string
	Headers []string
	Rows    [][]any
}

// Tables flattens result into the tables Export writes, in sheet order.
func Tables(result *pipeline.BatchResult) []Table {
	return []Table{
		samplesTable(result),
		groupsTable(result),
		gasStandardsTable(result),
		failuresTable(result),
		faultsTable(result),
	}
}

func samplesTable(result *pipeline.BatchResult) Table {
	t := Table{
		Name: "Samples",
		File: config.SamplesFileName,
		Headers: []string{
			"run_id", "file", "mode", "measured", "corrected", "corrected_dry",
			"gas_standard", "matched", "measured_residual", "corrected_residual",
		},
	}
	for _, s := range result.Samples {
		t.Rows = append(t.Rows, []any{
			result.RunID, s.File, string(s.Mode), s.Measured, s.Corrected, s.CorrectedDry,
			concentration(s.GasStandard), s.Matched, s.MeasuredResidual, s.CorrectedResidual,
		})
	}
	return t
}

func groupsTable(result *pipeline.BatchResult) Table {
	t := Table{
		Name: "Groups",
		File: config.GroupsFileName,
		Headers: []string{
			"run_id", "revision", "mode", "calc_type", "lower", "upper", "count",
			"mean", "stdev", "max", "ci_half_width",
			"mean_limit", "mean_outcome", "stdev_limit", "stdev_outcome",
			"max_limit", "max_outcome", "outcome",
		},
	}
	if len(result.Groups) > 0 {
		for _, g := range result.Groups {
			row := groupSummaryCells(result, g.Summary)
			for _, v := range []domain.StatVerdict{g.Mean, g.Stdev, g.Max} {
				row = append(row, v.Limit, string(v.Outcome))
			}
			t.Rows = append(t.Rows, append(row, string(g.Outcome())))
		}
		return t
	}
	for _, s := range result.Summaries {
		row := groupSummaryCells(result, s)
		t.Rows = append(t.Rows, append(row, math.NaN(), "", math.NaN(), "", math.NaN(), "", ""))
	}
	return t
}

func groupSummaryCells(result *pipeline.BatchResult, s domain.GroupSummary) []any {
	return []any{
		result.RunID, string(result.Revision), string(s.Mode), string(s.CalcType),
		concentration(s.Range.Lower), concentration(s.Range.Upper), s.Count,
		s.Mean, s.Stdev, s.Max, s.ConfidenceHalfWidth,
	}
}

func gasStandardsTable(result *pipeline.BatchResult) Table {
	t := Table{
		Name: "GasStandards",
		File: config.GasStandardsFileName,
		Headers: []string{
			"run_id", "revision", "mode", "calc_type", "gas_standard", "count",
			"mean", "stdev", "standard_error", "ci_half_width",
			"combined_value", "combined_limit", "combined_outcome",
			"mean_limit", "mean_outcome", "stdev_limit", "stdev_outcome",
		},
	}
	if len(result.GasStandards) > 0 {
		for _, v := range result.GasStandards {
			row := gasSummaryCells(result, v.Summary)
			row = append(row, verdictValue(v.Combined))
			for _, sv := range []*domain.StatVerdict{v.Combined, v.Mean, v.Stdev} {
				row = append(row, verdictCells(sv)...)
			}
			t.Rows = append(t.Rows, row)
		}
		return t
	}
	for _, s := range result.GasStandardSummaries {
		row := gasSummaryCells(result, s)
		row = append(row, math.NaN())
		for i := 0; i < 3; i++ {
			row = append(row, verdictCells(nil)...)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func gasSummaryCells(result *pipeline.BatchResult, s domain.GasStandardSummary) []any {
	return []any{
		result.RunID, string(result.Revision), string(s.Mode), string(s.CalcType),
		concentration(s.GasStandard), s.Count,
		s.Mean, s.Stdev, s.StandardError, s.ConfidenceHalfWidth,
	}
}

func verdictValue(v *domain.StatVerdict) any {
	if v == nil {
		return math.NaN()
	}
	return v.Value
}

// verdictCells returns limit and outcome, blank when the revision does not
// apply the statistic.
func verdictCells(v *domain.StatVerdict) []any {
	if v == nil {
		return []any{math.NaN(), ""}
	}
	return []any{v.Limit, string(v.Outcome)}
}

func failuresTable(result *pipeline.BatchResult) Table {
	t := Table{
		Name:    "Failures",
		File:    config.FailuresFileName,
		Headers: []string{"run_id", "file", "status", "error_type", "message"},
	}
	for _, f := range result.Failures {
		t.Rows = append(t.Rows, []any{result.RunID, f.Name, "failed", string(f.Type), f.Message})
	}
	for _, name := range result.Skipped {
		t.Rows = append(t.Rows, []any{result.RunID, name, "skipped", "", "no calibration coefficients"})
	}
	for _, m := range result.Mismatches {
		msg := fmt.Sprintf("%s dry value %.2f is %.2f ppm from the nearest reference gas %s",
			m.Mode, m.Value, m.Distance, formatGas(m.Nearest))
		t.Rows = append(t.Rows, []any{result.RunID, m.File, "mismatch", string(apperrors.ErrTypeReferenceGasMismatch), msg})
	}
	return t
}

func faultsTable(result *pipeline.BatchResult) Table {
	t := Table{
		Name:    "Faults",
		File:    config.FaultsFileName,
		Headers: []string{"run_id", "file", "check", "message"},
	}
	for _, report := range result.Faults {
		for _, f := range report.Faults {
			t.Rows = append(t.Rows, []any{result.RunID, report.File, f.Check, f.Message})
		}
	}
	return t
}

// formatCell renders a table cell for CSV.
func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case concentration:
		return formatGas(float64(x))
	case int:
		return formatInt(x)
	case bool:
		return formatBool(x)
	default:
		return cast.ToString(x)
	}
}

// ReportExporter writes the tables of a run into the output directory.
type ReportExporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates an exporter writing under paths.OutputDir.
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		paths:  paths,
		csv:    NewCSVWriter(paths, logger),
		logger: logger,
	}
}

// Export writes result in format and returns the paths written.
func (e *ReportExporter) Export(result *pipeline.BatchResult, format Format) ([]string, error) {
	if result == nil {
		return nil, apperrors.NewValidationError("no batch result to export", nil)
	}
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	tables := Tables(result)
	var written []string

	if format == FormatCSV || format == FormatBoth {
		for _, t := range tables {
			records := make([][]string, len(t.Rows))
			for i, row := range t.Rows {
				rec := make([]string, len(row))
				for j, cell := range row {
					rec[j] = formatCell(cell)
				}
				records[i] = rec
			}
			if err := e.csv.WriteSimpleCSV(t.File, t.Headers, records); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", t.File, err)
			}
			written = append(written, e.paths.GetOutputPath(t.File))
		}
	}

	if format == FormatXLSX || format == FormatBoth {
		path := e.paths.WorkbookPath()
		if err := WriteWorkbook(path, result, tables); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.logger.Info("Exported run results",
		slog.String("run_id", result.RunID),
		slog.String("format", string(format)),
		slog.Int("files", len(written)))

	return written, nil
}
