package testutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StandardLogName carries the 2021-08-25 date, so the 2021-08-01 gas list
// (span gas 494.72) applies.
const StandardLogName = "20210825_120000.txt"

// StandardSerial is the unit serial written in DATA lines of StandardLog.
const StandardSerial = "1005"

// DataRow is one DATA line.
type DataRow struct {
	Mode   string
	Time   time.Time
	Serial string
	CO2    float64
	Temp   float64
	Pres   float64
	LiRaw  int64
	LiRef  int64
	RHPerc float64
	RHTemp float64
	O2Perc float64
}

// StatsRow is one STATS data line under the builder's fixed header.
type StatsRow struct {
	State string
	Time  time.Time
	CO2   float64
	CO2SD float64
	Temp  float64
	Pres  float64
}

// LogBuilder assembles synthetic ASVCO2 log text.
type LogBuilder struct {
	name   string
	coeffs []string
	data   []DataRow
	stats  []StatsRow
	flags  string
	dry    []string
	extra  []string
}

// NewLogBuilder starts an empty log.
func NewLogBuilder(name string) *LogBuilder {
	return &LogBuilder{name: name}
}

// Name returns the log file name.
func (b *LogBuilder) Name() string { return b.name }

// Coefficient appends a COEFF line.
func (b *LogBuilder) Coefficient(label string, value float64) *LogBuilder {
	b.coeffs = append(b.coeffs, fmt.Sprintf("COEFF:%s:%s", label, num(value)))
	return b
}

// CoefficientLine appends a raw COEFF line.
func (b *LogBuilder) CoefficientLine(line string) *LogBuilder {
	b.coeffs = append(b.coeffs, line)
	return b
}

// Flags sets the FLAGS line from values written as 4-digit hex groups.
func (b *LogBuilder) Flags(values ...uint16) *LogBuilder {
	groups := make([]string, len(values))
	for i, v := range values {
		groups[i] = fmt.Sprintf("%04X", v)
	}
	b.flags = "FLAGS: " + strings.Join(groups, " ")
	return b
}

// FlagsLine sets a raw FLAGS line.
func (b *LogBuilder) FlagsLine(line string) *LogBuilder {
	b.flags = line
	return b
}

// Data appends DATA rows.
func (b *LogBuilder) Data(rows ...DataRow) *LogBuilder {
	b.data = append(b.data, rows...)
	return b
}

// Stats appends STATS rows.
func (b *LogBuilder) Stats(rows ...StatsRow) *LogBuilder {
	b.stats = append(b.stats, rows...)
	return b
}

// Dry sets the DRY block.
func (b *LogBuilder) Dry(ts time.Time, sw, atm float64) *LogBuilder {
	b.dry = []string{
		"DRY:TS, SW_xCO2(dry), Atm_xCO2(dry)",
		fmt.Sprintf("DRY:%s, %s, %s", ts.Format(time.RFC3339), num(sw), num(atm)),
	}
	return b
}

// Line appends a free text line after the other blocks.
func (b *LogBuilder) Line(line string) *LogBuilder {
	b.extra = append(b.extra, line)
	return b
}

// WithoutCoefficients drops all COEFF lines.
func (b *LogBuilder) WithoutCoefficients() *LogBuilder {
	b.coeffs = nil
	return b
}

// WithoutFlags drops the FLAGS line.
func (b *LogBuilder) WithoutFlags() *LogBuilder {
	b.flags = ""
	return b
}

// WithoutDry drops the DRY block.
func (b *LogBuilder) WithoutDry() *LogBuilder {
	b.dry = nil
	return b
}

// WithoutMode drops the DATA rows of mode.
func (b *LogBuilder) WithoutMode(mode string) *LogBuilder {
	kept := b.data[:0]
	for _, r := range b.data {
		if r.Mode != mode {
			kept = append(kept, r)
		}
	}
	b.data = kept
	return b
}

// MapData rewrites every DATA row of mode with fn.
func (b *LogBuilder) MapData(mode string, fn func(DataRow) DataRow) *LogBuilder {
	for i, r := range b.data {
		if r.Mode == mode {
			b.data[i] = fn(r)
		}
	}
	return b
}

// MapStats rewrites every STATS row with fn.
func (b *LogBuilder) MapStats(fn func(StatsRow) StatsRow) *LogBuilder {
	for i, r := range b.stats {
		b.stats[i] = fn(r)
	}
	return b
}

// Build renders the log text.
func (b *LogBuilder) Build() []byte {
	var sb strings.Builder
	w := func(line string) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	w("ASVCO2 validation run " + strings.TrimSuffix(b.name, ".txt"))
	for _, c := range b.coeffs {
		w(c)
	}
	for _, r := range b.data {
		w(fmt.Sprintf("DATA:%s,%s,%s,%s,%s,%s,%d,%d,%s,%s,%s",
			r.Mode, r.Time.UTC().Format(time.RFC3339), r.Serial,
			num(r.CO2), num(r.Temp), num(r.Pres), r.LiRaw, r.LiRef,
			num(r.RHPerc), num(r.RHTemp), num(r.O2Perc)))
	}
	if len(b.stats) > 0 {
		w("STATS:State,Timestamp,CO2,CO2_SD,Temp,Pres")
		for _, s := range b.stats {
			w(fmt.Sprintf("STATS:%s,%s,%s,%s,%s,%s",
				s.State, s.Time.UTC().Format(time.RFC3339), num(s.CO2), num(s.CO2SD), num(s.Temp), num(s.Pres)))
		}
	}
	if b.flags != "" {
		w(b.flags)
	}
	for _, d := range b.dry {
		w(d)
	}
	for _, e := range b.extra {
		w(e)
	}
	return []byte(sb.String())
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Reference values of StandardLog.
const (
	StandardDryEquilibrator = 497.10
	StandardDryAir          = 350.90
)

var standardStart = time.Date(2021, time.August, 25, 12, 0, 0, 0, time.UTC)

// StandardLog returns a well-formed log with all ten modes that passes every
// range check. Its APOFF window corrects to about 350.58 ppm dry (gas 349.79)
// and its EPOFF window to about 497.44 ppm dry (gas 494.72).
func StandardLog() *LogBuilder {
	b := NewLogBuilder(StandardLogName).
		CoefficientLine("COEFF:SERIAL:cga-5030").
		Coefficient("CO2kzero", 0.9602).
		Coefficient("CO2kspan", 1.0013).
		Coefficient("CO2kspan2", -0.0053).
		Coefficient("CO2kzerot", 0.0012).
		Coefficient("CO2kspant", 0.0001).
		Coefficient("CO2kspan2t", 0).
		Coefficient("H2Okzero", 0.885).
		Coefficient("H2Okspan", 1.0021)

	offset := 0
	add := func(mode string, co2 float64, raw []int64, pres, temp, rh, rht []float64) {
		for i := range raw {
			b.Data(DataRow{
				Mode:   mode,
				Time:   standardStart.Add(time.Duration(offset) * 5 * time.Second),
				Serial: StandardSerial,
				CO2:    co2,
				Temp:   temp[i],
				Pres:   pres[i],
				LiRaw:  raw[i],
				LiRef:  3600000,
				RHPerc: rh[i],
				RHTemp: rht[i],
				O2Perc: 20.9,
			})
			offset++
		}
	}
	flat := func(n int, v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	counts := func(n int, v int64) []int64 {
		out := make([]int64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	add("ZPON", 0.4, counts(3, 3749000), flat(3, 103.5), flat(3, 30.0), flat(3, 5.2), flat(3, 30.4))
	add("ZPOFF", 0.2, counts(3, 3749200), flat(3, 101.3), flat(3, 30.0), flat(3, 5.2), flat(3, 30.4))
	add("ZPPCAL", 0.3, counts(3, 3749100), flat(3, 101.3), flat(3, 30.0), flat(3, 5.1), flat(3, 30.4))
	add("SPON", 494.1, counts(3, 3405000), flat(3, 104.0), flat(3, 30.1), flat(3, 5.1), flat(3, 30.5))
	add("SPOFF", 494.5,
		[]int64{3405000, 3405100, 3404900, 3405000},
		[]float64{101.30, 101.32, 101.28, 101.30},
		[]float64{30.1, 30.2, 30.0, 30.1},
		[]float64{5.1, 5.2, 5.0, 5.1},
		flat(4, 30.5))
	add("SPPCAL", 494.9, counts(3, 3405000), flat(3, 101.3), flat(3, 30.1), flat(3, 5.1), flat(3, 30.5))
	add("EPON", 496.8, counts(3, 3448100), flat(3, 104.3), flat(3, 30.3), flat(3, 5.5), flat(3, 30.8))
	add("EPOFF", 497.0,
		[]int64{3448100, 3448000, 3448200, 3448100},
		[]float64{101.28, 101.30, 101.29, 101.29},
		[]float64{30.3, 30.3, 30.4, 30.2},
		[]float64{5.5, 5.6, 5.4, 5.5},
		[]float64{30.8, 30.8, 30.9, 30.7})
	add("APON", 350.6, counts(3, 3514700), flat(3, 104.2), flat(3, 30.2), flat(3, 5.3), flat(3, 30.6))
	add("APOFF", 350.8,
		[]int64{3514700, 3514800, 3514600, 3514700, 3514700, 3514800, 3514600, 3514700, 3514650, 3514750},
		[]float64{101.31, 101.29, 101.30, 101.30, 101.31, 101.29, 101.30, 101.30, 101.30, 101.30},
		[]float64{30.2, 30.3, 30.1, 30.2, 30.2, 30.3, 30.1, 30.2, 30.2, 30.2},
		[]float64{5.3, 5.4, 5.2, 5.3, 5.3, 5.4, 5.2, 5.3, 5.3, 5.3},
		[]float64{30.6, 30.7, 30.5, 30.6, 30.6, 30.7, 30.5, 30.6, 30.6, 30.6})

	at := func(minute int) time.Time { return standardStart.Add(time.Duration(minute) * time.Minute) }
	b.Stats(
		StatsRow{State: "ZPOFF", Time: at(1), CO2: 0.2, CO2SD: 0.4, Temp: 30.0, Pres: 101.3},
		StatsRow{State: "ZPPCAL", Time: at(2), CO2: 0.3, CO2SD: 0.3, Temp: 30.0, Pres: 101.3},
		StatsRow{State: "SPOFF", Time: at(3), CO2: 494.5, CO2SD: 0.6, Temp: 30.1, Pres: 101.3},
		StatsRow{State: "SPPCAL", Time: at(4), CO2: 494.9, CO2SD: 0.5, Temp: 30.1, Pres: 101.3},
		StatsRow{State: "EPOFF", Time: at(6), CO2: 497.0, CO2SD: 0.9, Temp: 30.3, Pres: 101.29},
		StatsRow{State: "APOFF", Time: at(8), CO2: 350.8, CO2SD: 0.7, Temp: 30.2, Pres: 101.30},
	)

	return b.Flags(0, 0, 0, 0, 0, 0, 0, 0).
		Dry(at(9), StandardDryEquilibrator, StandardDryAir)
}
