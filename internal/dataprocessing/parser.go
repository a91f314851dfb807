package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"asvco2cli/internal/calibration"
	"asvco2cli/pkg/contracts/domain"
)

// ParsedLog holds every typed record extracted from one log file.
type ParsedLog struct {
	Name         string
	Date         time.Time
	Coefficients domain.CoefficientSet
	Flags        domain.FlagRecord
	Rows         []domain.ModeDataRow
	Stats        domain.StatsBlock
	Dry          domain.DryReferencePair
}

// RowsFor returns the DATA rows of mode.
func (p *ParsedLog) RowsFor(mode domain.Mode) []domain.ModeDataRow {
	return FilterMode(p.Rows, mode)
}

// Parser turns log text into typed records.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a log parser
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse extracts coefficients, flags, DATA rows, STATS and DRY records. The
// log name must carry the YYYYMMDD_HHMMSS.txt timestamp.
func (p *Parser) Parse(ctx context.Context, l *Log) (*ParsedLog, error) {
	date, err := calibration.LogDate(l.Name)
	if err != nil {
		return nil, err
	}

	out := &ParsedLog{Name: l.Name, Date: date}

	if out.Coefficients, err = ParseCoefficients(l); err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}

	out.Flags = ParseFlags(l)
	if !out.Flags.Found {
		p.logger.WarnContext(ctx, "no usable FLAGS line, flags marked unknown", "file", l.Name)
	}

	if out.Rows, err = ParseModeData(l); err != nil {
		return nil, fmt.Errorf("mode data: %w", err)
	}
	if out.Stats, err = ParseStats(l); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if out.Dry, err = ParseDry(l, out.Stats); err != nil {
		return nil, fmt.Errorf("dry: %w", err)
	}
	if !out.Dry.Found {
		p.logger.WarnContext(ctx, "no DRY block, dry values marked unknown", "file", l.Name)
	}

	p.logger.DebugContext(ctx, "log parsed",
		"file", l.Name,
		"lines", len(l.Lines),
		"data_rows", len(out.Rows),
		"stats_rows", len(out.Stats.Rows),
	)
	return out, nil
}
