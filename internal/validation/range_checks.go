package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"asvco2cli/pkg/contracts/domain"
)

// Range check names.
const (
	CheckPumpPressure = "pump_pressure"
	CheckHumidity     = "humidity"
	CheckFlags        = "flags"
	CheckCO2Stdev     = "co2_stdev"
	CheckZeroGas      = "zero_gas"
	CheckSpanGas      = "span_gas"
)

// Thresholds of the range checks.
const (
	HumidityTolerance = 3.0  // percent RH from the run mean
	CO2StdevLimit     = 2.0  // ppm
	CalibrationLimit  = 2.0  // ppm from the zero or span gas
	co2StdevColumn    = "CO2_SD"
)

// PumpPair is a pump-on state and the pump-off state it must exceed in
// mean pressure by more than Threshold kPa.
type PumpPair struct {
	On        domain.Mode
	Off       domain.Mode
	Threshold float64
}

// PumpPairs are checked in this order.
var PumpPairs = []PumpPair{
	{On: domain.ModeZPON, Off: domain.ModeZPOFF, Threshold: 0.0},
	{On: domain.ModeSPON, Off: domain.ModeSPOFF, Threshold: 2.0},
	{On: domain.ModeAPON, Off: domain.ModeAPOFF, Threshold: 2.5},
	{On: domain.ModeEPON, Off: domain.ModeEPOFF, Threshold: 2.5},
}

// RangeInput is what the range checks read from one parsed log.
type RangeInput struct {
	File    string
	Rows    []domain.ModeDataRow
	Flags   domain.FlagRecord
	Stats   domain.StatsBlock
	SpanGas float64
}

// Fault is one failed range check.
type Fault struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// FaultReport lists the failed range checks of one file.
type FaultReport struct {
	File   string  `json:"file"`
	Faults []Fault `json:"faults"`
}

// OK reports whether no check failed.
func (r FaultReport) OK() bool {
	return len(r.Faults) == 0
}

// String renders the report as one sentence per fault.
func (r FaultReport) String() string {
	if r.OK() {
		return "No problems were found in " + r.File
	}
	var sb strings.Builder
	sb.WriteString("The following problems were found in ")
	sb.WriteString(r.File)
	for _, f := range r.Faults {
		sb.WriteByte('\n')
		sb.WriteString(f.Message)
	}
	return sb.String()
}

// RangeCheckValidator cross-checks auxiliary measurements of a log. Every
// check runs; none short-circuits the others.
type RangeCheckValidator struct {
	logger *slog.Logger
}

// NewRangeCheckValidator creates a range check validator
func NewRangeCheckValidator(logger *slog.Logger) *RangeCheckValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RangeCheckValidator{logger: logger}
}

// Check runs all range checks.
func (v *RangeCheckValidator) Check(ctx context.Context, in RangeInput) FaultReport {
	report := FaultReport{File: in.File}
	add := func(check, msg string) {
		report.Faults = append(report.Faults, Fault{Check: check, Message: msg})
	}

	for _, pair := range PumpPairs {
		if msg, ok := checkPump(in.Rows, pair); !ok {
			add(CheckPumpPressure, msg)
		}
	}
	if !checkHumidity(in.Rows) {
		add(CheckHumidity, "A relative humidity measurement was greater than 3% away from the mean.")
	}
	if len(in.Flags.Faulted()) > 0 {
		add(CheckFlags, "A non-zero flag indicating a fault was found.")
	}
	if msg, ok := checkCO2Stdev(in.Stats); !ok {
		add(CheckCO2Stdev, msg)
	}
	if !checkCalibration(in.Rows, domain.ModeZPPCAL, 0) {
		add(CheckZeroGas, "A CO2 measurement exceeded 2ppm away from the zero gas during ZPPCAL.")
	}
	if !checkCalibration(in.Rows, domain.ModeSPPCAL, in.SpanGas) {
		add(CheckSpanGas, "A CO2 measurement exceeded 2ppm away from the span gas during SPPCAL.")
	}

	if report.OK() {
		v.logger.DebugContext(ctx, "range checks passed", "file", in.File)
	} else {
		v.logger.InfoContext(ctx, "range checks found problems", "file", in.File, "faults", len(report.Faults))
	}
	return report
}

func meanPressure(rows []domain.ModeDataRow, mode domain.Mode) (float64, bool) {
	sum, n := 0.0, 0
	for _, r := range rows {
		if mode.Matches(r.Mode) {
			sum += r.Pres
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func checkPump(rows []domain.ModeDataRow, pair PumpPair) (string, bool) {
	on, okOn := meanPressure(rows, pair.On)
	off, okOff := meanPressure(rows, pair.Off)
	if !okOn || !okOff {
		return fmt.Sprintf("The mean pressure for %s could not be compared with %s because one of them has no measurements.",
			pair.On, pair.Off), false
	}
	if math.Abs(on-off) <= pair.Threshold {
		return fmt.Sprintf("The mean pressure for %s was not greater than the mean pressure for %s by %.1fkPa.",
			pair.On, pair.Off, pair.Threshold), false
	}
	return "", true
}

// checkHumidity compares every RH value of the ten modes with their mean.
func checkHumidity(rows []domain.ModeDataRow) bool {
	var values []float64
	for _, mode := range domain.AllModes {
		for _, r := range rows {
			if mode.Matches(r.Mode) {
				values = append(values, r.RHPerc)
			}
		}
	}
	if len(values) == 0 {
		return true
	}
	mean := 0.0
	for _, x := range values {
		mean += x
	}
	mean /= float64(len(values))
	for _, x := range values {
		if math.Abs(x-mean) > HumidityTolerance {
			return false
		}
	}
	return true
}

func checkCO2Stdev(stats domain.StatsBlock) (string, bool) {
	if !stats.HasColumn(co2StdevColumn) {
		return "No CO2 standard deviation column was found in the STATS block.", false
	}
	for _, row := range stats.Rows {
		if sd, ok := row.Float(co2StdevColumn); ok && sd >= CO2StdevLimit {
			return "A CO2 standard deviation was found greater than or equal to 2ppm.", false
		}
	}
	return "", true
}

func checkCalibration(rows []domain.ModeDataRow, mode domain.Mode, gas float64) bool {
	for _, r := range rows {
		if mode.Matches(r.Mode) && math.Abs(r.CO2-gas) > CalibrationLimit {
			return false
		}
	}
	return true
}
