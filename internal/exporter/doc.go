// Package exporter writes the results of a validation run.
//
// CSVWriter is the low level writer. Relative paths land in the configured
// output directory.
//
// ReportExporter turns a pipeline.BatchResult into flat tables: samples, range
// groups with their verdicts, gas standard summaries, per-file failures and
// range check faults. Each table is written as a CSV file, as a sheet of one
// XLSX workbook, or both.
//
// Example usage:
//
//	exp := exporter.NewReportExporter(paths, logger)
//	written, err := exp.Export(result, exporter.FormatBoth)
package exporter
