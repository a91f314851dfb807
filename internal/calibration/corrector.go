package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

// Calibration function constants.
const (
	a1 = 0.3989974
	a2 = 18.249359
	a3 = 0.097101984
	a4 = 1.8458913

	// pressure correction constants a, b, c, d
	b1 = 1.10158
	b2 = -0.00612178
	b3 = -0.266278
	b4 = 3.69895

	// StandardPressure is the pressure the span polynomial refers to, in kPa.
	StandardPressure = 99.0

	kelvinOffset = 273.15
)

var (
	polyN  = a2*a3 + a1*a4
	polyO  = a2 + a4
	polyQ1 = (a2 - a4) * (a2 - a4)
	polyR1 = (a2*a3 + a1*a4) * (a2*a3 + a1*a4)
	polyD  = 2 * (a2 - a4) * (a1*a4 - a2*a3)
	polyZ  = a1 + a3
)

// LabConstants are the per-analyzer values measured in the lab.
type LabConstants struct {
	Serial           string  `json:"serial"`
	SpanCoefficient  float64 `json:"span_coefficient"`
	SpanTemperature  float64 `json:"span_temperature"`
	TemperatureSlope float64 `json:"temperature_slope"`
}

// Averages are window means of the DATA rows of one mode.
type Averages struct {
	Count       int     `json:"count"`
	Raw         float64 `json:"raw"`
	Ref         float64 `json:"ref"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
	RHPerc      float64 `json:"rh_perc"`
	RHTemp      float64 `json:"rh_temp"`
}

// Average computes the window means of rows.
func Average(rows []domain.ModeDataRow) (Averages, error) {
	if len(rows) == 0 {
		return Averages{}, apperrors.NewCalibrationError("no DATA rows to average", nil)
	}
	var raw, ref int64
	var avg Averages
	for _, r := range rows {
		raw += r.LiRaw
		ref += r.LiRef
		avg.Pressure += r.Pres
		avg.Temperature += r.Temp
		avg.RHPerc += r.RHPerc
		avg.RHTemp += r.RHTemp
	}
	n := float64(len(rows))
	avg.Count = len(rows)
	avg.Raw = float64(raw) / n
	avg.Ref = float64(ref) / n
	avg.Pressure /= n
	avg.Temperature /= n
	avg.RHPerc /= n
	avg.RHTemp /= n
	return avg, nil
}

// Absorptance returns alphaC = 1 - (w/w0)·zero for the window means.
func (a Averages) Absorptance(zero float64) (float64, error) {
	if a.Ref == 0 {
		return 0, apperrors.NewCalibrationError("reference count mean is zero", nil)
	}
	return 1 - (a.Raw/a.Ref)*zero, nil
}

// SpanCorrection holds the temperature-corrected span polynomial.
type SpanCorrection struct {
	Zero            float64  `json:"zero"`
	S0              float64  `json:"s0"`
	S1              float64  `json:"s1"`
	AlphaC          float64  `json:"alpha_c"`
	S0TCorr         float64  `json:"s0_tcorr"`
	S1TCorr         float64  `json:"s1_tcorr"`
	SpanTemperature float64  `json:"span_temperature"`
	SpanRHPerc      float64  `json:"span_rh_perc"`
	Span            Averages `json:"span"`
}

// Result is the corrected concentration of one target window.
type Result struct {
	Mode        domain.Mode `json:"mode"`
	Window      Averages    `json:"window"`
	AlphaC      float64     `json:"alpha_c"`
	AlphaCPrime float64     `json:"alpha_c_prime"`
	Pressure    float64     `json:"pressure_correction"`
	XCO2        float64     `json:"xco2"`
	XCO2Dry     float64     `json:"xco2_dry"`
}

// Corrector applies the calibration equations.
type Corrector struct {
	logger *slog.Logger
}

// NewCorrector creates a corrector
func NewCorrector(logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{logger: logger}
}

// SpanCorrection derives S0_tcorr and S1_tcorr from the SPOFF window.
func (c *Corrector) SpanCorrection(ctx context.Context, coeffs domain.CoefficientSet, spoff []domain.ModeDataRow, lab LabConstants) (SpanCorrection, error) {
	if len(coeffs.Entries) < 3 {
		return SpanCorrection{}, apperrors.NewCalibrationError(
			fmt.Sprintf("need zero, S0 and S1 coefficients, got %d", len(coeffs.Entries)), nil)
	}
	span, err := Average(spoff)
	if err != nil {
		return SpanCorrection{}, fmt.Errorf("span window: %w", err)
	}

	sc := SpanCorrection{
		Zero: coeffs.Zero(),
		S0:   coeffs.SpanOffset(),
		S1:   coeffs.HighSpan(),
		Span: span,
	}
	sc.AlphaC, err = span.Absorptance(sc.Zero)
	if err != nil {
		return SpanCorrection{}, fmt.Errorf("span window: %w", err)
	}
	if sc.AlphaC == 0 {
		return SpanCorrection{}, apperrors.NewCalibrationError("span absorptance is zero", nil)
	}

	betaC := sc.AlphaC * (sc.S0 + sc.S1*sc.AlphaC)
	sc.SpanTemperature = span.Temperature
	sc.SpanRHPerc = span.RHPerc
	sc.S1TCorr = lab.SpanCoefficient + lab.TemperatureSlope*(span.Temperature-lab.SpanTemperature)
	sc.S0TCorr = betaC/sc.AlphaC - sc.S1TCorr*sc.AlphaC

	c.logger.DebugContext(ctx, "span correction",
		"alpha_c", sc.AlphaC,
		"s0_tcorr", sc.S0TCorr,
		"s1_tcorr", sc.S1TCorr,
		"span_temperature", sc.SpanTemperature,
	)
	return sc, nil
}

// Correct computes the wet and dry corrected concentration of a target window.
func (c *Corrector) Correct(ctx context.Context, mode domain.Mode, span SpanCorrection, rows []domain.ModeDataRow) (Result, error) {
	window, err := Average(rows)
	if err != nil {
		return Result{}, fmt.Errorf("%s window: %w", mode, err)
	}

	res := Result{Mode: mode, Window: window}
	res.AlphaC, err = window.Absorptance(span.Zero)
	if err != nil {
		return Result{}, fmt.Errorf("%s window: %w", mode, err)
	}
	res.AlphaCPrime = res.AlphaC*span.S0TCorr + res.AlphaC*res.AlphaC*span.S1TCorr
	res.Pressure = PressureCorrection(res.AlphaC, window.Pressure)
	res.XCO2 = MoleFraction(res.AlphaCPrime*res.Pressure, window.Temperature)
	res.XCO2Dry = DryCorrection(res.XCO2, window.RHTemp, window.Pressure, window.RHPerc, span.SpanRHPerc)

	if math.IsNaN(res.XCO2) || math.IsInf(res.XCO2, 0) || math.IsNaN(res.XCO2Dry) || math.IsInf(res.XCO2Dry, 0) {
		return Result{}, apperrors.NewCalibrationError(
			fmt.Sprintf("%s correction produced a non-finite concentration", mode), nil).
			WithContext("alpha_c", res.AlphaC).
			WithContext("pressure", window.Pressure)
	}

	c.logger.DebugContext(ctx, "corrected window",
		"mode", mode,
		"rows", window.Count,
		"xco2", res.XCO2,
		"xco2_dry", res.XCO2Dry,
	)
	return res, nil
}

// PressureCorrection returns g, the empirical correction applied to absorptance
// measured at pressure (kPa).
func PressureCorrection(alphaC, pressure float64) float64 {
	ratio := pressure / StandardPressure
	above := ratio > 1
	p := ratio
	if !above {
		p = StandardPressure / pressure
	}

	A := 1 / (b1 * (p - 1))
	B := 1 / ((1 / (b2 + b3*p)) + b4)
	X := 1 + (1 / (A + B*((1/(polyZ-alphaC))-(1/polyZ))))
	if above {
		return 1 / X
	}
	return X
}

// MoleFraction solves the calibration polynomial for pressure-corrected
// absorptance and scales by the absolute window temperature (°C).
func MoleFraction(alphaPC, temperature float64) float64 {
	numr := (polyN - polyO*alphaPC) - math.Sqrt(polyQ1*alphaPC*alphaPC+polyD*alphaPC+polyR1)
	denom := 2 * (alphaPC - a1 - a3)
	return numr / denom * (temperature + kelvinOffset)
}
