package exporter

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"asvco2cli/internal/pipeline"
)

const runSheet = "Run"

// WriteWorkbook saves tables as sheets of one XLSX file, preceded by a Run
// sheet with the batch totals. Non-finite numbers are left blank.
func WriteWorkbook(path string, result *pipeline.BatchResult, tables []Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", runSheet); err != nil {
		return fmt.Errorf("failed to name run sheet: %w", err)
	}
	summary := [][]any{
		{"run_id", result.RunID},
		{"revision", string(result.Revision)},
		{"files", len(result.Files)},
		{"samples", len(result.Samples)},
		{"mismatches", len(result.Mismatches)},
		{"failures", len(result.Failures)},
		{"skipped", len(result.Skipped)},
	}
	for i, row := range summary {
		if err := setRow(f, runSheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(runSheet, "A", header); err != nil {
		return fmt.Errorf("failed to style run sheet: %w", err)
	}

	for _, t := range tables {
		if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		headers := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = h
		}
		if err := setRow(f, t.Name, 1, headers); err != nil {
			return err
		}
		if err := f.SetRowStyle(t.Name, 1, 1, header); err != nil {
			return fmt.Errorf("failed to style %s header: %w", t.Name, err)
		}
		for i, row := range t.Rows {
			if err := setRow(f, t.Name, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = workbookCell(v)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func workbookCell(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case concentration:
		return float64(x)
	default:
		return x
	}
}
