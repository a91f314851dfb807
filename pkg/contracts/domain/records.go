package domain

import (
	"math"
	"time"
)

// FlagsUnknown is stored for every flag category when the log has no usable
// FLAGS line. It is larger than any 16-bit flag value.
const FlagsUnknown = 0x10000

// FlagCategories lists the eight FLAGS groups in the order firmware writes them.
var FlagCategories = []string{
	"ASVCO2_GENERAL_ERROR_FLAGS",
	"ASVCO2_ZERO_ERROR_FLAGS",
	"ASVCO2_SPAN_ERROR_FLAGS",
	"ASVCO2_SECONDARYSPAN_ERROR_FLAGS",
	"ASVCO2_EQUILIBRATEANDAIR_ERROR_FLAGS",
	"ASVCO2_RTC_ERROR_FLAGS",
	"ASVCO2_FLOWCONTROLLER_FLAGS",
	"ASVCO2_LICOR_FLAGS",
}

// Coefficient is one named calibration coefficient from a COEFF line.
type Coefficient struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Line  int     `json:"line"`
}

// CoefficientSet is the ordered block of calibration coefficients of one log.
type CoefficientSet struct {
	Entries []Coefficient `json:"entries"`
}

// Zero returns the zero coefficient.
func (c CoefficientSet) Zero() float64 { return c.at(0) }

// SpanOffset returns S0, the middle span coefficient.
func (c CoefficientSet) SpanOffset() float64 { return c.at(1) }

// HighSpan returns S1, the high span coefficient.
func (c CoefficientSet) HighSpan() float64 { return c.at(2) }

// Lookup returns the coefficient with the given label.
func (c CoefficientSet) Lookup(label string) (float64, bool) {
	for _, e := range c.Entries {
		if e.Label == label {
			return e.Value, true
		}
	}
	return 0, false
}

func (c CoefficientSet) at(i int) float64 {
	if i >= len(c.Entries) {
		return math.NaN()
	}
	return c.Entries[i].Value
}

// FlagRecord maps each flag category to its 16-bit value, or FlagsUnknown.
type FlagRecord struct {
	Values map[string]int `json:"values"`
	Found  bool           `json:"found"`
}

// UnknownFlags returns a record with every category set to FlagsUnknown.
func UnknownFlags() FlagRecord {
	values := make(map[string]int, len(FlagCategories))
	for _, name := range FlagCategories {
		values[name] = FlagsUnknown
	}
	return FlagRecord{Values: values}
}

// Faulted returns the categories whose value is neither zero nor FlagsUnknown,
// in category order.
func (f FlagRecord) Faulted() []string {
	var faulted []string
	for _, name := range FlagCategories {
		v := f.Values[name]
		if v != 0 && v != FlagsUnknown {
			faulted = append(faulted, name)
		}
	}
	return faulted
}

// ModeDataRow is one DATA sample.
type ModeDataRow struct {
	Line      int       `json:"line"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
	Serial    string    `json:"serial"`
	CO2       float64   `json:"co2"`
	Temp      float64   `json:"temp"`
	Pres      float64   `json:"pres"`
	LiRaw     int64     `json:"li_raw"`
	LiRef     int64     `json:"li_ref"`
	RHPerc    float64   `json:"rh_perc"`
	RHTemp    float64   `json:"rh_temp"`
	O2Perc    float64   `json:"o2_perc"`
}

// StatsValue is one STATS cell. Numeric cells carry Num with IsNum set.
type StatsValue struct {
	Raw   string  `json:"raw"`
	Num   float64 `json:"num,omitempty"`
	IsNum bool    `json:"is_num"`
}

// StatsRow is one STATS data line keyed by column name.
type StatsRow struct {
	Line   int                   `json:"line"`
	Fields map[string]StatsValue `json:"fields"`
}

// State returns the State column.
func (r StatsRow) State() string { return r.Fields["State"].Raw }

// Timestamp returns the raw Timestamp column.
func (r StatsRow) Timestamp() string { return r.Fields["Timestamp"].Raw }

// Float returns a numeric column value.
func (r StatsRow) Float(column string) (float64, bool) {
	v, ok := r.Fields[column]
	if !ok || !v.IsNum {
		return 0, false
	}
	return v.Num, true
}

// StatsBlock is the table discovered from STATS lines.
type StatsBlock struct {
	Columns []string   `json:"columns"`
	Rows    []StatsRow `json:"rows"`
}

// HasColumn reports whether the header declared column.
func (s StatsBlock) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// FirstInState returns the first row whose State contains mode.
func (s StatsBlock) FirstInState(mode Mode) (StatsRow, bool) {
	for _, row := range s.Rows {
		if mode.Matches(row.State()) {
			return row, true
		}
	}
	return StatsRow{}, false
}

// DryReference is one dry xCO2 value placed at the STATS timestamp of its mode.
type DryReference struct {
	Mode      Mode      `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
	XCO2      float64   `json:"xco2"`
}

// DryReferencePair holds the equilibrator and air dry values of the last DRY block.
// Found is false when the log had no DRY block, in which case both values are NaN
// at the zero time.
type DryReferencePair struct {
	Equilibrator DryReference `json:"equilibrator"`
	Air          DryReference `json:"air"`
	Found        bool         `json:"found"`
}

// UnknownDry returns the sentinel pair used when a log has no DRY block.
func UnknownDry() DryReferencePair {
	return DryReferencePair{
		Equilibrator: DryReference{Mode: ModeEPOFF, XCO2: math.NaN()},
		Air:          DryReference{Mode: ModeAPOFF, XCO2: math.NaN()},
	}
}

// ForMode returns the dry value measured in mode. Only EPOFF and APOFF carry one.
func (d DryReferencePair) ForMode(mode Mode) (DryReference, bool) {
	switch mode {
	case ModeEPOFF:
		return d.Equilibrator, true
	case ModeAPOFF:
		return d.Air, true
	default:
		return DryReference{}, false
	}
}
