package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

const (
	tagCoeff = "COEFF"
	tagFlags = "FLAGS"
	tagData  = "DATA"
	tagStats = "STATS"
	tagDry   = "DRY"

	coefficientCount = 7
	dataFieldCount   = 14
)

var (
	numberPattern    = regexp.MustCompile(`^(?:[+-]?\d+\.?\d*[eE][+-]?\d+|-?\d+\.\d+|-?\d+)$`)
	isoTimePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d*)?Z$`)
	flagGroupPattern = regexp.MustCompile(`\b[0-9A-Fa-f]{4}\b`)
	dataSplit        = regexp.MustCompile(`[:,]`)
)

// isNumber reports whether the whole of s is a number in one of the notations
// firmware writes. ISO timestamps never qualify.
func isNumber(s string) bool {
	return numberPattern.MatchString(s) && !isoTimePattern.MatchString(s)
}

// ParseCoefficients extracts the calibration coefficient block. Only COEFF
// entries whose label contains "k" are coefficients; the first seven of them
// form the set.
func ParseCoefficients(l *Log) (domain.CoefficientSet, error) {
	var set domain.CoefficientSet
	err := l.tagged(tagCoeff, func(lineNo int, line string) error {
		if len(set.Entries) == coefficientCount {
			return nil
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 {
			return apperrors.NewMalformedLogError(l.Name, lineNo, "COEFF line has no label and value", nil)
		}
		label := strings.TrimSpace(parts[1])
		if !strings.Contains(label, "k") {
			return nil
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return apperrors.NewMalformedLogError(l.Name, lineNo, fmt.Sprintf("COEFF %s value", label), err)
		}
		set.Entries = append(set.Entries, domain.Coefficient{Label: label, Value: value, Line: lineNo})
		return nil
	})
	if err != nil {
		return domain.CoefficientSet{}, err
	}
	if len(set.Entries) < coefficientCount {
		return domain.CoefficientSet{}, apperrors.NewMalformedLogError(l.Name, 0,
			fmt.Sprintf("found %d COEFF entries, need %d", len(set.Entries), coefficientCount), nil)
	}
	return set, nil
}

// ParseFlags reads the last FLAGS line. Anything other than exactly eight
// 4-digit hex groups yields the all-unknown record.
func ParseFlags(l *Log) domain.FlagRecord {
	_, lines := l.lastTagged(tagFlags, 1)
	if len(lines) == 0 {
		return domain.UnknownFlags()
	}

	rest := lines[0][strings.Index(lines[0], tagFlags)+len(tagFlags):]
	groups := flagGroupPattern.FindAllString(rest, -1)
	if len(groups) != len(domain.FlagCategories) {
		return domain.UnknownFlags()
	}

	rec := domain.FlagRecord{Values: make(map[string]int, len(groups)), Found: true}
	for i, g := range groups {
		v, err := strconv.ParseUint(g, 16, 16)
		if err != nil {
			return domain.UnknownFlags()
		}
		rec.Values[domain.FlagCategories[i]] = int(v)
	}
	return rec
}

// ParseModeData parses every DATA line. A DATA line splits on ':' and ','
// into the tag, the mode, three timestamp pieces and nine measurements. The
// mode label must name one of the ten operating states.
func ParseModeData(l *Log) ([]domain.ModeDataRow, error) {
	var rows []domain.ModeDataRow
	err := l.tagged(tagData, func(lineNo int, line string) error {
		row, err := parseDataLine(line)
		if err != nil {
			return apperrors.NewMalformedLogError(l.Name, lineNo, "DATA line", err)
		}
		row.Line = lineNo
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// ParseModeDataFor returns the DATA rows whose mode label contains mode.
func ParseModeDataFor(l *Log, mode domain.Mode) ([]domain.ModeDataRow, error) {
	rows, err := ParseModeData(l)
	if err != nil {
		return nil, err
	}
	return FilterMode(rows, mode), nil
}

// FilterMode keeps the rows whose mode label contains mode.
func FilterMode(rows []domain.ModeDataRow, mode domain.Mode) []domain.ModeDataRow {
	var out []domain.ModeDataRow
	for _, r := range rows {
		if mode.Matches(r.Mode) {
			out = append(out, r)
		}
	}
	return out
}

func parseDataLine(line string) (domain.ModeDataRow, error) {
	f := dataSplit.Split(line, -1)
	if len(f) != dataFieldCount {
		return domain.ModeDataRow{}, fmt.Errorf("expected %d fields, got %d", dataFieldCount, len(f))
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}

	var (
		row domain.ModeDataRow
		err error
	)
	if _, ok := domain.ModeOf(f[1]); !ok {
		return domain.ModeDataRow{}, fmt.Errorf("unknown mode %q", f[1])
	}
	row.Mode = f[1]
	stamp := f[2] + ":" + f[3] + ":" + f[4]
	if row.Timestamp, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
		return row, fmt.Errorf("timestamp %q: %w", stamp, err)
	}
	row.Serial = f[5]

	floats := []struct {
		name string
		dst  *float64
		src  string
	}{
		{"CO2", &row.CO2, f[6]},
		{"Temp", &row.Temp, f[7]},
		{"Pres", &row.Pres, f[8]},
		{"RHperc", &row.RHPerc, f[11]},
		{"RH_T", &row.RHTemp, f[12]},
		{"O2perc", &row.O2Perc, f[13]},
	}
	for _, fl := range floats {
		if *fl.dst, err = strconv.ParseFloat(fl.src, 64); err != nil {
			return row, fmt.Errorf("%s: %w", fl.name, err)
		}
	}
	if row.LiRaw, err = strconv.ParseInt(f[9], 10, 64); err != nil {
		return row, fmt.Errorf("Li_Raw: %w", err)
	}
	if row.LiRef, err = strconv.ParseInt(f[10], 10, 64); err != nil {
		return row, fmt.Errorf("Li_ref: %w", err)
	}
	return row, nil
}

// ParseStats builds the STATS table. A line whose remainder after "STATS:"
// is mostly letters is a header; the first header names the columns and
// later ones are ignored.
func ParseStats(l *Log) (domain.StatsBlock, error) {
	var block domain.StatsBlock
	err := l.tagged(tagStats, func(lineNo int, line string) error {
		idx := strings.Index(line, tagStats+":")
		if idx < 0 {
			return apperrors.NewUnexpectedFormatError(l.Name, lineNo, line)
		}
		rest := line[idx+len(tagStats)+1:]
		if strings.TrimSpace(rest) == "" {
			return apperrors.NewUnexpectedFormatError(l.Name, lineNo, line)
		}

		fields := strings.Split(rest, ",")
		for i := range fields {
			fields[i] = removeSpaces(fields[i])
		}

		if letterRatio(rest) > 0.5 {
			if block.Columns == nil {
				block.Columns = fields
			}
			return nil
		}
		if block.Columns == nil {
			return apperrors.NewUnexpectedFormatError(l.Name, lineNo, line)
		}
		if len(fields) != len(block.Columns) {
			return apperrors.NewMalformedLogError(l.Name, lineNo,
				fmt.Sprintf("STATS row has %d fields, header has %d", len(fields), len(block.Columns)), nil)
		}

		row := domain.StatsRow{Line: lineNo, Fields: make(map[string]domain.StatsValue, len(fields))}
		for i, col := range block.Columns {
			row.Fields[col] = statsValue(fields[i])
		}
		block.Rows = append(block.Rows, row)
		return nil
	})
	if err != nil {
		return domain.StatsBlock{}, err
	}
	return block, nil
}

func statsValue(raw string) domain.StatsValue {
	v := domain.StatsValue{Raw: raw}
	if isNumber(raw) {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			v.Num, v.IsNum = n, true
		}
	}
	return v
}

// Column names of the DRY block.
const (
	DryTimestampColumn    = "TS"
	DryEquilibratorColumn = "SW_xCO2(dry)"
	DryAirColumn          = "Atm_xCO2(dry)"
)

// ParseDry reads the last DRY header and data line and places the two dry
// values at the timestamps of the first EPOFF and APOFF STATS rows. A log
// without DRY lines yields the NaN sentinel pair.
func ParseDry(l *Log, stats domain.StatsBlock) (domain.DryReferencePair, error) {
	lineNos, lines := l.lastTagged(tagDry, 2)
	switch len(lines) {
	case 0:
		return domain.UnknownDry(), nil
	case 1:
		return domain.DryReferencePair{}, apperrors.NewMalformedLogError(l.Name, lineNos[0],
			"DRY block needs a header and a data line", nil)
	}

	var cells [2][]string
	for i, line := range lines {
		idx := strings.Index(line, tagDry+":")
		if idx < 0 {
			return domain.DryReferencePair{}, apperrors.NewMalformedLogError(l.Name, lineNos[i], "DRY line without DRY: tag", nil)
		}
		cells[i] = strings.Split(removeSpaces(line[idx+len(tagDry)+1:]), ",")
	}

	values := make(map[string]string, len(cells[0]))
	for i, col := range cells[0] {
		if i < len(cells[1]) {
			values[col] = cells[1][i]
		}
	}

	dryValue := func(col string) (float64, error) {
		s, ok := values[col]
		if !ok {
			return 0, apperrors.NewMalformedLogError(l.Name, lineNos[1], fmt.Sprintf("DRY block has no %s column", col), nil)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, apperrors.NewMalformedLogError(l.Name, lineNos[1], col, err)
		}
		return v, nil
	}
	sw, err := dryValue(DryEquilibratorColumn)
	if err != nil {
		return domain.DryReferencePair{}, err
	}
	atm, err := dryValue(DryAirColumn)
	if err != nil {
		return domain.DryReferencePair{}, err
	}

	eq, err := syncDry(l, stats, domain.ModeEPOFF, sw)
	if err != nil {
		return domain.DryReferencePair{}, err
	}
	air, err := syncDry(l, stats, domain.ModeAPOFF, atm)
	if err != nil {
		return domain.DryReferencePair{}, err
	}
	return domain.DryReferencePair{Equilibrator: eq, Air: air, Found: true}, nil
}

func syncDry(l *Log, stats domain.StatsBlock, mode domain.Mode, xco2 float64) (domain.DryReference, error) {
	row, ok := stats.FirstInState(mode)
	if !ok {
		return domain.DryReference{}, apperrors.NewMalformedLogError(l.Name, 0,
			fmt.Sprintf("no STATS row in state %s to place the DRY value", mode), nil)
	}
	ts, err := time.Parse(time.RFC3339Nano, row.Timestamp())
	if err != nil {
		return domain.DryReference{}, apperrors.NewMalformedLogError(l.Name, row.Line, "STATS timestamp", err)
	}
	if math.IsInf(xco2, 0) {
		return domain.DryReference{}, apperrors.NewMalformedLogError(l.Name, 0, "DRY value is infinite", nil)
	}
	return domain.DryReference{Mode: mode, Timestamp: ts, XCO2: xco2}, nil
}
