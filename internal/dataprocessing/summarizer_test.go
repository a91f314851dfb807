package dataprocessing

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asvco2cli/internal/calibration"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

var augustGases = calibration.ReferenceGasesFor(time.Date(2021, 8, 25, 0, 0, 0, 0, time.UTC))

func dryPair(sw, atm float64) domain.DryReferencePair {
	return domain.DryReferencePair{
		Equilibrator: domain.DryReference{Mode: domain.ModeEPOFF, XCO2: sw},
		Air:          domain.DryReference{Mode: domain.ModeAPOFF, XCO2: atm},
		Found:        true,
	}
}

func TestBuildSample(t *testing.T) {
	t.Run("matched", func(t *testing.T) {
		res := calibration.Result{Mode: domain.ModeAPOFF, XCO2: 350.4, XCO2Dry: 350.6}

		s, err := BuildSample("a.txt", res, dryPair(497.1, 350.9), augustGases)
		require.NoError(t, err)
		assert.True(t, s.Matched)
		assert.Equal(t, 349.79, s.GasStandard)
		assert.Equal(t, 350.9, s.Measured)
		assert.InDelta(t, 350.9-349.79, s.MeasuredResidual, 1e-12)
		assert.InDelta(t, 350.6-349.79, s.CorrectedResidual, 1e-12)
		assert.Equal(t, s.CorrectedResidual, s.Residual(domain.CalcTempCorrected))
		assert.Equal(t, s.MeasuredResidual, s.Residual(domain.CalcUncorrected))
	})

	t.Run("equilibrator uses SW value", func(t *testing.T) {
		res := calibration.Result{Mode: domain.ModeEPOFF, XCO2: 497.3, XCO2Dry: 497.4}
		s, err := BuildSample("a.txt", res, dryPair(497.1, 350.9), augustGases)
		require.NoError(t, err)
		assert.Equal(t, 497.1, s.Measured)
		assert.Equal(t, 494.72, s.GasStandard)
	})

	t.Run("mismatch keeps sample", func(t *testing.T) {
		res := calibration.Result{Mode: domain.ModeAPOFF, XCO2: 420, XCO2Dry: 420}
		s, err := BuildSample("a.txt", res, dryPair(497.1, 350.9), augustGases)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrTypeReferenceGasMismatch, apperrors.TypeOf(err))
		assert.False(t, s.Matched)
		assert.Equal(t, "a.txt", s.File)
		assert.True(t, math.IsNaN(s.GasStandard))
		assert.True(t, math.IsNaN(s.CorrectedResidual))
	})

	t.Run("mode without dry value", func(t *testing.T) {
		res := calibration.Result{Mode: domain.ModeSPOFF, XCO2: 494, XCO2Dry: 494}
		_, err := BuildSample("a.txt", res, dryPair(497.1, 350.9), augustGases)
		assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
	})

	t.Run("unknown dry propagates NaN", func(t *testing.T) {
		res := calibration.Result{Mode: domain.ModeAPOFF, XCO2: 350, XCO2Dry: 350}
		s, err := BuildSample("a.txt", res, domain.UnknownDry(), augustGases)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(s.MeasuredResidual))
		assert.False(t, math.IsNaN(s.CorrectedResidual))
	})
}

func sample(mode domain.Mode, gas, corrected, measured float64) domain.GasStandardSample {
	return domain.GasStandardSample{
		Mode:              mode,
		GasStandard:       gas,
		Matched:           true,
		CorrectedResidual: corrected,
		MeasuredResidual:  measured,
	}
}

func findGroup(t *testing.T, groups []domain.GroupSummary, mode domain.Mode, calc domain.CalcType, lower, upper float64) domain.GroupSummary {
	t.Helper()
	for _, g := range groups {
		if g.Mode == mode && g.CalcType == calc && g.Range.Lower == lower && g.Range.Upper == upper {
			return g
		}
	}
	t.Fatalf("group %s %s [%v,%v) not found", mode, calc, lower, upper)
	return domain.GroupSummary{}
}

func TestAggregator_SummarizeGroups(t *testing.T) {
	agg := NewAggregator(nil)
	ctx := context.Background()

	samples := []domain.GasStandardSample{
		sample(domain.ModeAPOFF, 349.79, 1.0, 0.5),
		sample(domain.ModeAPOFF, 349.79, -0.5, 0.5),
		sample(domain.ModeAPOFF, 349.79, 2.0, math.NaN()),
		sample(domain.ModeAPOFF, 0, 0.3, 0.2),
		sample(domain.ModeAPOFF, 1961.39, -4.0, -3.0),
		sample(domain.ModeEPOFF, 494.72, 0.7, 0.9),
		{Mode: domain.ModeAPOFF, GasStandard: math.NaN(), CorrectedResidual: math.NaN(), MeasuredResidual: math.NaN()},
	}

	groups := agg.SummarizeGroups(ctx, samples, []domain.Mode{domain.ModeAPOFF, domain.ModeEPOFF})
	require.Len(t, groups, 2*2*6)

	t.Run("mid range statistics", func(t *testing.T) {
		g := findGroup(t, groups, domain.ModeAPOFF, domain.CalcTempCorrected, 300, 775)
		assert.Equal(t, 3, g.Count)
		assert.InDelta(t, 0.8333333333333334, g.Mean, 1e-12)
		assert.InDelta(t, 1.0274023338281628, g.Stdev, 1e-12)
		assert.Equal(t, 2.0, g.Max)
		assert.InDelta(t, 3.125804739805442, g.ConfidenceHalfWidth, 1e-6)
	})

	t.Run("NaN residuals are skipped", func(t *testing.T) {
		g := findGroup(t, groups, domain.ModeAPOFF, domain.CalcUncorrected, 300, 775)
		assert.Equal(t, 2, g.Count)
		assert.Equal(t, 0.5, g.Mean)
		assert.Equal(t, 0.0, g.Stdev)
	})

	t.Run("overlapping wide range", func(t *testing.T) {
		g := findGroup(t, groups, domain.ModeAPOFF, domain.CalcTempCorrected, 0, 750)
		assert.Equal(t, 4, g.Count)
	})

	t.Run("half-open bounds", func(t *testing.T) {
		g := findGroup(t, groups, domain.ModeAPOFF, domain.CalcTempCorrected, 0, 2)
		assert.Equal(t, 1, g.Count)
		assert.Equal(t, 0.3, g.Max)
		assert.True(t, math.IsNaN(g.ConfidenceHalfWidth), "single value has no interval")

		g = findGroup(t, groups, domain.ModeAPOFF, domain.CalcTempCorrected, 1075, 2575)
		assert.Equal(t, 4.0, g.Max, "max is absolute")
	})

	t.Run("empty group", func(t *testing.T) {
		g := findGroup(t, groups, domain.ModeEPOFF, domain.CalcTempCorrected, 775, 1075)
		assert.True(t, g.Empty())
		assert.True(t, math.IsNaN(g.Mean))
		assert.True(t, math.IsNaN(g.Stdev))
		assert.True(t, math.IsNaN(g.Max))
	})

	t.Run("idempotent and order independent", func(t *testing.T) {
		again := agg.SummarizeGroups(ctx, samples, []domain.Mode{domain.ModeAPOFF, domain.ModeEPOFF})

		shuffled := append([]domain.GasStandardSample(nil), samples...)
		rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		reordered := agg.SummarizeGroups(ctx, shuffled, []domain.Mode{domain.ModeAPOFF, domain.ModeEPOFF})

		opt := cmpopts.EquateNaNs()
		if diff := cmp.Diff(groups, again, opt); diff != "" {
			t.Errorf("second pass differs (-first +second):\n%s", diff)
		}
		if diff := cmp.Diff(groups, reordered, opt); diff != "" {
			t.Errorf("shuffled input differs (-first +shuffled):\n%s", diff)
		}
	})
}

func TestAggregator_SummarizeByGasStandard(t *testing.T) {
	agg := NewAggregator(nil)
	samples := []domain.GasStandardSample{
		sample(domain.ModeAPOFF, 349.79, 1.0, 0.5),
		sample(domain.ModeAPOFF, 349.79, -0.5, 0.5),
		sample(domain.ModeAPOFF, 349.79, 2.0, 0.5),
		sample(domain.ModeAPOFF, 104.25, 0.1, 0.2),
	}

	rows := agg.SummarizeByGasStandard(context.Background(), samples, []domain.Mode{domain.ModeAPOFF})
	require.Len(t, rows, 4)

	assert.Equal(t, 104.25, rows[0].GasStandard, "gases ascend")
	assert.Equal(t, 1, rows[0].Count)
	assert.True(t, math.IsNaN(rows[0].Stdev))

	r := rows[1]
	assert.Equal(t, domain.CalcTempCorrected, r.CalcType)
	assert.Equal(t, 349.79, r.GasStandard)
	assert.Equal(t, 3, r.Count)
	assert.InDelta(t, 1.2583057392117916, r.Stdev, 1e-12)
	assert.InDelta(t, 0.7264831572567789, r.StandardError, 1e-12)
	assert.InDelta(t, 3.125804739805442, r.ConfidenceHalfWidth, 1e-6)

	assert.Equal(t, domain.CalcUncorrected, rows[3].CalcType)
	assert.Equal(t, 0.0, rows[3].Stdev)
}
