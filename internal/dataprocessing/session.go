package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	apperrors "asvco2cli/internal/errors"
)

// LineKind classifies one line of a validation session transcript.
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineHeader
	LineDataRow
	LineAssignment
	LineCompositeMode
	LineCompositeStat
)

func (k LineKind) String() string {
	switch k {
	case LineHeader:
		return "Header"
	case LineDataRow:
		return "DataRow"
	case LineAssignment:
		return "Assignment"
	case LineCompositeMode:
		return "CompositeMode"
	case LineCompositeStat:
		return "CompositeStat"
	default:
		return "Unrecognized"
	}
}

// TimestampMode selects how the datetime column of session rows is written.
type TimestampMode string

const (
	TimestampISO       TimestampMode = "iso8601"
	TimestampEpochDays TimestampMode = "epoch-days"
)

const (
	sessionSeparator    = "ASVCO2v2"
	gasStandardColumn   = "gas_standard"
	datetimeColumn      = "datetime"
	reportTimeKey       = "time_of_report_command"
	flushTimeKey        = "flush_time"
	referenceGasLabel   = "Validation with reference gas:"
	referenceGasCompact = "Validationwithreferencegas"
	isoSecondsLayout    = "2006-01-02T15:04:05Z"
)

var (
	csvLikePattern = regexp.MustCompile(`^([\w.:+\-]+,)+`)
	sessionTimeRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`)
	firstNumberRe  = regexp.MustCompile(`[+-]?\d+\.?\d*[eE][+-]?\d+|-?\d+\.\d+|-?\d+`)
	flushPattern   = regexp.MustCompile(`Flushing valid(?:ation|aiton) gas for (\d+\.\d+|\d+) seconds`)
	sessionKeyRe   = regexp.MustCompile(`time=(.*)`)
	referenceGasRe = regexp.MustCompile(`Validation with reference gas:(.*)`)
)

// SessionRow is one CSV row of a session keyed by header column.
type SessionRow map[string]any

// Float returns a numeric cell.
func (r SessionRow) Float(column string) (float64, bool) {
	v, ok := r[column]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String returns a cell as text.
func (r SessionRow) String(column string) string {
	return cast.ToString(r[column])
}

// Session is one validation command transcript.
type Session struct {
	Key          string
	ReferenceGas float64
	Settings     map[string]any
	Modes        map[string]map[string]any
	Flush        map[string]any
	Columns      []string
	Rows         []SessionRow
	Unrecognized int
}

// Setting returns a numeric setting.
func (s *Session) Setting(key string) (float64, bool) {
	v, ok := s.Settings[key]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// SettingString returns a setting as text.
func (s *Session) SettingString(key string) string {
	return cast.ToString(s.Settings[key])
}

// ModeValue returns a numeric value recorded for mode.
func (s *Session) ModeValue(mode, key string) (float64, bool) {
	m, ok := s.Modes[mode]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(m[key])
	return f, err == nil
}

// Column returns the numeric values of column across all rows. Non-numeric
// cells are NaN.
func (s *Session) Column(column string) []float64 {
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		v, ok := row.Float(column)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// ClassifyLine returns the kind of a transcript line. raw is the line as
// written; classification works on the line with spaces removed.
func ClassifyLine(raw string) LineKind {
	line := strings.ReplaceAll(raw, " ", "")
	hasISO := sessionTimeRe.MatchString(line)

	switch {
	case line == "":
		return LineUnrecognized
	case strings.Contains(line, "="):
		return LineAssignment
	case strings.Contains(line, ":") && !hasISO && !strings.Contains(line, "Mode") &&
		(strings.Contains(line, "CO2k") || strings.Contains(line, "CO2L")) &&
		!strings.Contains(line, referenceGasCompact):
		return LineAssignment
	case strings.Contains(line, ":") && !hasISO && strings.Contains(line, "Mode") &&
		strings.Contains(line, "OFF") && !strings.Contains(line, "CO2k") &&
		!strings.Contains(line, "CO2L") && !strings.Contains(line, referenceGasCompact):
		return LineCompositeMode
	case strings.Contains(line, ":") && !hasISO && strings.Contains(line, "Mean") &&
		strings.Contains(line, "STD") && !strings.Contains(line, "OFF") &&
		!strings.Contains(line, referenceGasCompact):
		return LineCompositeStat
	case flushPattern.MatchString(raw):
		return LineCompositeStat
	case strings.Contains(line, "Mode:"):
		return LineUnrecognized
	case csvLikePattern.MatchString(line):
		if letterRatio(line) > 0.5 {
			return LineHeader
		}
		return LineDataRow
	}
	return LineUnrecognized
}

// SessionParser parses validation session transcripts.
type SessionParser struct {
	Mode TimestampMode
}

// NewSessionParser creates a session parser for the given timestamp mode.
func NewSessionParser(mode TimestampMode) *SessionParser {
	if mode == "" {
		mode = TimestampISO
	}
	return &SessionParser{Mode: mode}
}

// ParseSessions splits a transcript on ASVCO2v2 lines and parses each
// session. Text before the first separator is ignored.
func (p *SessionParser) ParseSessions(l *Log) ([]*Session, error) {
	if p.Mode != TimestampISO && p.Mode != TimestampEpochDays {
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown timestamp mode %q", p.Mode), nil)
	}

	var (
		sessions []*Session
		start    = -1
	)
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		s, err := p.parseSession(l, start, end)
		if err != nil {
			return err
		}
		sessions = append(sessions, s)
		return nil
	}

	for i, line := range l.Lines {
		if strings.TrimSpace(line) != sessionSeparator {
			continue
		}
		if err := flush(i); err != nil {
			return nil, err
		}
		start = i + 1
	}
	if err := flush(len(l.Lines)); err != nil {
		return nil, err
	}
	return sessions, nil
}

// parseSession parses lines [start, end) of l.
func (p *SessionParser) parseSession(l *Log, start, end int) (*Session, error) {
	lines := l.Lines[start:end]
	s := &Session{
		Settings: make(map[string]any),
		Modes:    make(map[string]map[string]any),
		Flush:    make(map[string]any),
	}

	for _, line := range lines {
		if m := sessionKeyRe.FindStringSubmatch(line); m != nil && s.Key == "" {
			s.Key = strings.TrimSpace(m[1])
		}
		if m := referenceGasRe.FindStringSubmatch(line); m != nil {
			gas, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
			if err != nil {
				return nil, apperrors.NewMalformedLogError(l.Name, start+1, "reference gas", err)
			}
			s.ReferenceGas = gas
		}
	}
	if s.Key == "" {
		return nil, apperrors.NewMalformedLogError(l.Name, start+1, "session has no time= line", nil)
	}
	if !strings.Contains(strings.Join(lines, "\n"), referenceGasLabel) {
		return nil, apperrors.NewMalformedLogError(l.Name, start+1, "session has no reference gas line", nil)
	}

	var mode string
	for i, raw := range lines {
		lineNo := start + i + 1
		line := strings.ReplaceAll(raw, " ", "")

		switch ClassifyLine(raw) {
		case LineHeader:
			if s.Columns == nil {
				s.Columns = append(strings.Split(line, ","), gasStandardColumn)
			}
		case LineDataRow:
			if s.Columns == nil {
				return nil, apperrors.NewUnexpectedFormatError(l.Name, lineNo, raw)
			}
			row, err := p.dataRow(s, line)
			if err != nil {
				return nil, apperrors.NewMalformedLogError(l.Name, lineNo, "session data row", err)
			}
			s.Rows = append(s.Rows, row)
		case LineAssignment:
			s.assign(line)
		case LineCompositeMode:
			mode = s.compositeMode(line, mode)
		case LineCompositeStat:
			s.compositeStat(raw, line)
		default:
			if line != "" {
				s.Unrecognized++
			}
		}
	}
	return s, nil
}

func (p *SessionParser) dataRow(s *Session, line string) (SessionRow, error) {
	cells := strings.Split(line, ",")
	cells = append(cells, strconv.FormatFloat(s.ReferenceGas, 'f', -1, 64))
	if len(cells) != len(s.Columns) {
		return nil, fmt.Errorf("row has %d fields, header has %d", len(cells)-1, len(s.Columns)-1)
	}

	row := make(SessionRow, len(cells))
	for i, col := range s.Columns {
		cell := cells[i]
		if col == datetimeColumn {
			ts, err := p.timestamp(cell)
			if err != nil {
				return nil, err
			}
			row[col] = ts
			continue
		}
		row[col] = sessionValue(cell)
	}
	return row, nil
}

func (p *SessionParser) timestamp(cell string) (string, error) {
	if p.Mode == TimestampISO {
		if !sessionTimeRe.MatchString(cell) {
			return "", fmt.Errorf("unrecognized timestamp %q", cell)
		}
		return cell, nil
	}

	days, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return "", fmt.Errorf("epoch days %q: %w", cell, err)
	}
	return EpochDaysToISO(days), nil
}

// EpochDaysToISO converts fractional days since the Unix epoch to an ISO-8601
// string. Sub-second parts above half a second round up.
func EpochDaysToISO(days float64) string {
	t := time.Unix(0, 0).UTC().Add(time.Duration(days * 24 * float64(time.Hour)))
	if t.Nanosecond()/1000 > 500_000 {
		t = t.Add(time.Second)
	}
	return t.Truncate(time.Second).Format(isoSecondsLayout)
}

func sessionValue(cell string) any {
	if strings.EqualFold(cell, "nan") {
		return math.NaN()
	}
	if isNumber(cell) {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	}
	return cell
}

func (s *Session) assign(line string) {
	sep := "="
	if !strings.Contains(line, "=") {
		sep = ":"
	}
	parts := strings.SplitN(line, sep, 3)
	if len(parts) < 2 {
		return
	}
	key, value := parts[0], parts[1]
	switch {
	case isNumber(value):
		s.Settings[key] = cast.ToFloat64(value)
	case sep == "=" && strings.Contains(line, "time") && sessionTimeRe.MatchString(value):
		s.Settings[reportTimeKey] = value
	default:
		s.Settings[key] = value
	}
}

// compositeMode records Mode:<name>,key:value pairs and returns the mode in
// effect after the line.
func (s *Session) compositeMode(line, mode string) string {
	for _, part := range strings.Split(line, ",") {
		kv := strings.Split(part, ":")
		if len(kv) != 2 {
			continue
		}
		key, value := kv[0], kv[1]
		if strings.Contains(key, "Mode") {
			mode = value
			if _, ok := s.Modes[mode]; !ok {
				s.Modes[mode] = make(map[string]any)
			}
			continue
		}
		if mode == "" {
			continue
		}
		values := s.Modes[mode]
		_, seen := values[key]
		switch {
		case isNumber(value):
			values[key] = cast.ToFloat64(value)
		case !seen && firstNumberRe.MatchString(value):
			values[key] = cast.ToFloat64(firstNumberRe.FindString(value))
		default:
			values[key] = value
		}
	}
	return mode
}

func (s *Session) compositeStat(raw, line string) {
	if m := flushPattern.FindStringSubmatch(raw); m != nil {
		s.Flush[flushTimeKey] = cast.ToFloat64(m[1])
		return
	}
	for _, part := range strings.Split(line, ",") {
		kv := strings.Split(part, ":")
		if len(kv) != 2 {
			continue
		}
		key, value := kv[0], kv[1]
		if !strings.Contains(key, "Mean") && !strings.Contains(key, "STD") {
			continue
		}
		if _, seen := s.Flush[key]; !seen && firstNumberRe.MatchString(value) {
			s.Flush[key] = cast.ToFloat64(firstNumberRe.FindString(value))
			continue
		}
		s.Flush[key] = value
	}
}
