package domain

import "math"

// CalcType distinguishes the temperature-corrected calculation from the
// instrument's own uncorrected value.
type CalcType string

const (
	CalcTempCorrected CalcType = "Tcorr"
	CalcUncorrected   CalcType = "not_Tcorr"
)

// CalcTypes lists both calculation types in report order.
var CalcTypes = []CalcType{CalcTempCorrected, CalcUncorrected}

// IsValid reports whether c is a known calculation type
func (c CalcType) IsValid() bool {
	return c == CalcTempCorrected || c == CalcUncorrected
}

// Statistic names the statistic a tolerance table limits.
type Statistic string

const (
	StatMean     Statistic = "mean"
	StatStdev    Statistic = "stdev"
	StatMax      Statistic = "max"
	StatCombined Statistic = "combined"
)

// IsValid reports whether s is a known statistic
func (s Statistic) IsValid() bool {
	switch s {
	case StatMean, StatStdev, StatMax, StatCombined:
		return true
	}
	return false
}

// Outcome is a verdict result.
type Outcome string

const (
	OutcomePass   Outcome = "PASS"
	OutcomeFail   Outcome = "FAIL"
	OutcomeNoData Outcome = "NO_DATA"
)

// GasStandardSample is the result of one averaging window: one mode of one log file.
type GasStandardSample struct {
	File              string  `json:"file"`
	Mode              Mode    `json:"mode"`
	Measured          float64 `json:"measured"`
	Corrected         float64 `json:"corrected"`
	CorrectedDry      float64 `json:"corrected_dry"`
	GasStandard       float64 `json:"gas_standard"`
	Matched           bool    `json:"matched"`
	MeasuredResidual  float64 `json:"measured_residual"`
	CorrectedResidual float64 `json:"corrected_residual"`
}

// Residual returns the residual used for calcType.
func (s GasStandardSample) Residual(calcType CalcType) float64 {
	if calcType == CalcTempCorrected {
		return s.CorrectedResidual
	}
	return s.MeasuredResidual
}

// GroupRange is a half-open reference gas range [Lower, Upper) in ppm.
type GroupRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether x lies in the range.
func (g GroupRange) Contains(x float64) bool {
	return g.Lower <= x && x < g.Upper
}

// Midpoint returns the concentration the grouped tolerance tables are read at.
func (g GroupRange) Midpoint() float64 {
	return (g.Lower + g.Upper) / 2
}

// GroupRanges are the fixed reference gas ranges used for summaries.
var GroupRanges = []GroupRange{
	{Lower: 0, Upper: 750},
	{Lower: 0, Upper: 2},
	{Lower: 2, Upper: 300},
	{Lower: 300, Upper: 775},
	{Lower: 775, Upper: 1075},
	{Lower: 1075, Upper: 2575},
}

// GroupSummary summarizes residuals of one mode and calculation type within one range.
type GroupSummary struct {
	Mode                Mode       `json:"mode"`
	CalcType            CalcType   `json:"calc_type"`
	Range               GroupRange `json:"range"`
	Count               int        `json:"count"`
	Mean                float64    `json:"mean"`
	Stdev               float64    `json:"stdev"`
	Max                 float64    `json:"max"`
	ConfidenceHalfWidth float64    `json:"confidence_half_width"`
}

// Empty reports whether no finite residual fell in the range.
func (g GroupSummary) Empty() bool {
	return g.Count == 0
}

// GasStandardSummary summarizes residuals sharing one exact reference gas.
type GasStandardSummary struct {
	Mode                Mode     `json:"mode"`
	CalcType            CalcType `json:"calc_type"`
	GasStandard         float64  `json:"gas_standard"`
	Count               int      `json:"count"`
	Mean                float64  `json:"mean"`
	Stdev               float64  `json:"stdev"`
	StandardError       float64  `json:"standard_error"`
	ConfidenceHalfWidth float64  `json:"confidence_half_width"`
}

// StatVerdict is one statistic tested against its limit.
type StatVerdict struct {
	Statistic Statistic `json:"statistic"`
	Value     float64   `json:"value"`
	Limit     float64   `json:"limit"`
	Margin    float64   `json:"margin"`
	Outcome   Outcome   `json:"outcome"`
}

// NoDataVerdict returns the verdict used when a statistic has no samples.
func NoDataVerdict(stat Statistic) StatVerdict {
	return StatVerdict{Statistic: stat, Value: math.NaN(), Limit: math.NaN(), Margin: math.NaN(), Outcome: OutcomeNoData}
}

// GroupVerdict attaches grouped verdicts to a summary.
type GroupVerdict struct {
	Summary  GroupSummary `json:"summary"`
	Revision string       `json:"revision"`
	Mean     StatVerdict  `json:"mean"`
	Stdev    StatVerdict  `json:"stdev"`
	Max      StatVerdict  `json:"max"`
}

// Outcome is FAIL if any statistic failed, NO_DATA if the group was empty,
// PASS otherwise.
func (g GroupVerdict) Outcome() Outcome {
	if g.Summary.Empty() {
		return OutcomeNoData
	}
	for _, v := range []StatVerdict{g.Mean, g.Stdev, g.Max} {
		if v.Outcome == OutcomeFail {
			return OutcomeFail
		}
	}
	return OutcomePass
}
