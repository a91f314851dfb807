package calibration

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

func testCoefficients() domain.CoefficientSet {
	return domain.CoefficientSet{Entries: []domain.Coefficient{
		{Label: "CO2kzero", Value: 0.9602},
		{Label: "CO2kspan", Value: 1.0013},
		{Label: "CO2kspan2", Value: -0.0053},
	}}
}

func testLab() LabConstants {
	return LabConstants{Serial: "cga-5030", SpanCoefficient: -0.0055, SpanTemperature: 20.0, TemperatureSlope: 0.0001}
}

func rows(mode string, raw []int64, ref int64, pres, temp, rh, rht []float64) []domain.ModeDataRow {
	out := make([]domain.ModeDataRow, len(raw))
	for i := range raw {
		out[i] = domain.ModeDataRow{
			Mode:   mode,
			LiRaw:  raw[i],
			LiRef:  ref,
			Pres:   pres[i],
			Temp:   temp[i],
			RHPerc: rh[i],
			RHTemp: rht[i],
		}
	}
	return out
}

func spoffRows() []domain.ModeDataRow {
	return rows("SPOFF",
		[]int64{3405000, 3405100, 3404900, 3405000}, 3600000,
		[]float64{101.30, 101.32, 101.28, 101.30},
		[]float64{30.1, 30.2, 30.0, 30.1},
		[]float64{5.1, 5.2, 5.0, 5.1},
		[]float64{30.5, 30.5, 30.5, 30.5})
}

func apoffRows() []domain.ModeDataRow {
	return rows("APOFF",
		[]int64{3514700, 3514800, 3514600, 3514700}, 3600000,
		[]float64{101.31, 101.29, 101.30, 101.30},
		[]float64{30.2, 30.3, 30.1, 30.2},
		[]float64{5.3, 5.4, 5.2, 5.3},
		[]float64{30.6, 30.7, 30.5, 30.6})
}

func epoffRows() []domain.ModeDataRow {
	return rows("EPOFF",
		[]int64{3448100, 3448000, 3448200, 3448100}, 3600000,
		[]float64{101.28, 101.30, 101.29, 101.29},
		[]float64{30.3, 30.3, 30.4, 30.2},
		[]float64{5.5, 5.6, 5.4, 5.5},
		[]float64{30.8, 30.8, 30.9, 30.7})
}

func TestAverage(t *testing.T) {
	avg, err := Average(spoffRows())
	require.NoError(t, err)

	assert.Equal(t, 4, avg.Count)
	assert.InDelta(t, 3405000.0, avg.Raw, 1e-9)
	assert.InDelta(t, 3600000.0, avg.Ref, 1e-9)
	assert.InDelta(t, 101.30, avg.Pressure, 1e-9)
	assert.InDelta(t, 30.1, avg.Temperature, 1e-9)
	assert.InDelta(t, 5.1, avg.RHPerc, 1e-9)

	_, err = Average(nil)
	assert.Equal(t, apperrors.ErrTypeCalibration, apperrors.TypeOf(err))
}

func TestCorrector_SpanCorrection(t *testing.T) {
	c := NewCorrector(nil)

	span, err := c.SpanCorrection(context.Background(), testCoefficients(), spoffRows(), testLab())
	require.NoError(t, err)

	assert.InDelta(t, 0.09181083333333329, span.AlphaC, 1e-12)
	assert.InDelta(t, -0.00449, span.S1TCorr, 1e-12)
	assert.InDelta(t, 1.001225633225, span.S0TCorr, 1e-10)
	assert.InDelta(t, 30.1, span.SpanTemperature, 1e-9)
	assert.InDelta(t, 5.1, span.SpanRHPerc, 1e-9)
}

func TestCorrector_SpanCorrectionErrors(t *testing.T) {
	c := NewCorrector(nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		coeffs domain.CoefficientSet
		rows   []domain.ModeDataRow
	}{
		{name: "missing coefficients", coeffs: domain.CoefficientSet{Entries: testCoefficients().Entries[:2]}, rows: spoffRows()},
		{name: "no rows", coeffs: testCoefficients(), rows: nil},
		{name: "zero reference counts", coeffs: testCoefficients(), rows: []domain.ModeDataRow{{LiRaw: 10, LiRef: 0}}},
		{name: "zero absorptance", coeffs: domain.CoefficientSet{Entries: []domain.Coefficient{{Value: 1}, {Value: 1}, {Value: 0}}},
			rows: []domain.ModeDataRow{{LiRaw: 100, LiRef: 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SpanCorrection(ctx, tt.coeffs, tt.rows, testLab())
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrTypeCalibration, apperrors.TypeOf(err))
		})
	}
}

func TestCorrector_Correct(t *testing.T) {
	c := NewCorrector(nil)
	ctx := context.Background()

	span, err := c.SpanCorrection(ctx, testCoefficients(), spoffRows(), testLab())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mode    domain.Mode
		rows    []domain.ModeDataRow
		wantWet float64
		wantDry float64
	}{
		{name: "air", mode: domain.ModeAPOFF, rows: apoffRows(), wantWet: 350.54531788417466, wantDry: 350.5758384249509},
		{name: "equilibrator", mode: domain.ModeEPOFF, rows: epoffRows(), wantWet: 497.3542871136987, wantDry: 497.4419042203075},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Correct(ctx, tt.mode, span, tt.rows)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, res.Mode)
			assert.InDelta(t, tt.wantWet, res.XCO2, 1e-6)
			assert.InDelta(t, tt.wantDry, res.XCO2Dry, 1e-6)
			assert.Greater(t, res.XCO2Dry, res.XCO2, "sample wetter than span raises the dry value")
		})
	}
}

func TestCorrector_CorrectNonFinite(t *testing.T) {
	c := NewCorrector(nil)
	span := SpanCorrection{Zero: 0.96, S0TCorr: 1, S1TCorr: 0}

	_, err := c.Correct(context.Background(), domain.ModeAPOFF, span,
		[]domain.ModeDataRow{{LiRaw: 1, LiRef: 1, Pres: 0, Temp: 30}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeCalibration, apperrors.TypeOf(err))
}

func TestPressureCorrection(t *testing.T) {
	t.Run("standard pressure is neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, PressureCorrection(0.05, StandardPressure))
	})

	t.Run("above and below bracket one", func(t *testing.T) {
		above := PressureCorrection(0.05, 101.3)
		below := PressureCorrection(0.05, 95.0)
		assert.Less(t, above, 1.0)
		assert.Greater(t, below, 1.0)
		assert.False(t, math.IsNaN(above))
	})
}

func TestMoleFraction_ZeroAbsorptance(t *testing.T) {
	assert.InDelta(t, 0.0, MoleFraction(0, 25), 1e-9)
}

func TestDryCorrection(t *testing.T) {
	t.Run("equal humidity leaves value unchanged", func(t *testing.T) {
		assert.InDelta(t, 400.0, DryCorrection(400, 30, 101.3, 5, 5), 1e-12)
	})

	t.Run("matches closed form", func(t *testing.T) {
		es := 0.61365 * math.Exp(17.502*25/(240.97+25))
		want := 400 * 101.3 / (101.3 - es*(10-2)/100)
		assert.InDelta(t, want, DryCorrection(400, 25, 101.3, 10, 2), 1e-12)
	})

	t.Run("saturation vapour pressure at 20C", func(t *testing.T) {
		assert.InDelta(t, 2.3466, SaturationVaporPressure(20), 1e-3)
	})
}
