package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "asvco2cli/internal/errors"
)

// DefaultInstrumentSerials maps ASVCO2 unit serials to the LI-COR analyzer
// installed in them.
var DefaultInstrumentSerials = map[string]string{
	"1004":      "cga-5272",
	"1005":      "cga-5030",
	"1006":      "cga-5270",
	"1008":      "cga-5176",
	"1009":      "cga-5178",
	"3CA8A2533": "cga-5375",
	"3CA8A2535": "cga-5353",
	"3CA8A2538": "cga-5379",
	"3CADC7571": "cga-5354",
	"3CADC7573": "cga-5177",
	"3CADC7565": "cga-5377",
	"3CB942928": "cga-5378",
	"XYXYXYXY":  "cga-5378",
	"3CB94292E": "cga-5380",
	"3CD6D1DD5": "cga-5376",
	"3CD94292C": "cga-5352",
}

var referenceColumns = []string{"serialnum", "co2kspan2", "celltemp", "slope"}

// ReferenceRow is one analyzer in the lab calibration reference table.
type ReferenceRow struct {
	Serial           string  `validate:"required"`
	SpanCoefficient  float64 `validate:"required"`
	SpanTemperature  float64 `validate:"gte=-5,lte=60"`
	TemperatureSlope float64
}

// ReferenceTable holds lab constants keyed by LI-COR serial.
type ReferenceTable struct {
	rows        map[string]ReferenceRow
	instruments map[string]string
	logger      *slog.Logger
}

// LoadReferenceTable reads a calibration reference CSV with the columns
// serialnum, co2kspan2, celltemp and slope. Extra columns are ignored.
func LoadReferenceTable(r io.Reader, instruments map[string]string, logger *slog.Logger) (*ReferenceTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if instruments == nil {
		instruments = DefaultInstrumentSerials
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewConfigError("read calibration reference header", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range referenceColumns {
		if _, ok := index[col]; !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("calibration reference is missing column %q", col), nil)
		}
	}

	validate := validator.New()
	table := &ReferenceTable{
		rows:        make(map[string]ReferenceRow),
		instruments: instruments,
		logger:      logger,
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("calibration reference line %d", line), err)
		}

		row, err := parseReferenceRow(record, index)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("calibration reference line %d", line), err)
		}
		if err := validate.Struct(row); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("calibration reference line %d", line), err)
		}
		table.rows[strings.ToLower(row.Serial)] = row
	}

	logger.Debug("calibration reference loaded", "analyzers", len(table.rows))
	return table, nil
}

func parseReferenceRow(record []string, index map[string]int) (ReferenceRow, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(record) {
			return "", fmt.Errorf("missing %s", col)
		}
		return strings.TrimSpace(record[i]), nil
	}
	number := func(col string) (float64, error) {
		s, err := field(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		return v, nil
	}

	var row ReferenceRow
	var err error
	if row.Serial, err = field("serialnum"); err != nil {
		return row, err
	}
	if row.SpanCoefficient, err = number("co2kspan2"); err != nil {
		return row, err
	}
	if row.SpanTemperature, err = number("celltemp"); err != nil {
		return row, err
	}
	if row.TemperatureSlope, err = number("slope"); err != nil {
		return row, err
	}
	return row, nil
}

// Analyzer returns the LI-COR serial installed in an ASVCO2 unit.
func (t *ReferenceTable) Analyzer(unitSerial string) (string, bool) {
	s, ok := t.instruments[unitSerial]
	return s, ok
}

// Constants returns the lab constants for an ASVCO2 unit serial. A LI-COR
// serial is accepted directly.
func (t *ReferenceTable) Constants(unitSerial string) (LabConstants, error) {
	analyzer := unitSerial
	if s, ok := t.Analyzer(unitSerial); ok {
		analyzer = s
	}
	row, ok := t.rows[strings.ToLower(analyzer)]
	if !ok {
		return LabConstants{}, apperrors.NewNotFoundError(
			fmt.Sprintf("calibration reference for unit %s (analyzer %s)", unitSerial, analyzer))
	}
	return LabConstants{
		Serial:           row.Serial,
		SpanCoefficient:  row.SpanCoefficient,
		SpanTemperature:  row.SpanTemperature,
		TemperatureSlope: row.TemperatureSlope,
	}, nil
}

// Len returns the number of analyzers in the table.
func (t *ReferenceTable) Len() int {
	return len(t.rows)
}
