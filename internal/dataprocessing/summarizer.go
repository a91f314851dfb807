package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"asvco2cli/internal/calibration"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

// confidenceLevel is the two-sided confidence of the reported half-widths.
const confidenceLevel = 0.95

// BuildSample turns the corrected result of one mode into a sample matched
// against the reference gases of the run date. The measured value is the
// instrument's own dry value for the mode.
//
// When no gas lies within calibration.MatchTolerance the sample is still
// returned, unmatched with NaN residuals, together with a
// REFERENCE_GAS_MISMATCH error. Any other error means no sample.
func BuildSample(file string, res calibration.Result, dry domain.DryReferencePair, gases calibration.GasList) (domain.GasStandardSample, error) {
	measured, ok := dry.ForMode(res.Mode)
	if !ok {
		return domain.GasStandardSample{}, apperrors.NewValidationError(
			"only APOFF and EPOFF carry a measured dry value, got "+res.Mode.String(), nil)
	}

	sample := domain.GasStandardSample{
		File:              file,
		Mode:              res.Mode,
		Measured:          measured.XCO2,
		Corrected:         res.XCO2,
		CorrectedDry:      res.XCO2Dry,
		GasStandard:       math.NaN(),
		MeasuredResidual:  math.NaN(),
		CorrectedResidual: math.NaN(),
	}

	gas, distance, ok := gases.Nearest(res.XCO2Dry)
	if !ok {
		return sample, apperrors.NewReferenceGasMismatchError(file, res.Mode.String(), res.XCO2Dry, gas, distance)
	}
	sample.GasStandard = gas
	sample.Matched = true
	sample.MeasuredResidual = sample.Measured - gas
	sample.CorrectedResidual = sample.CorrectedDry - gas
	return sample, nil
}

// Aggregator rolls matched samples into range and gas-standard summaries.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates a residual aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// SummarizeGroups summarizes residuals for every mode, calculation type and
// fixed range, in that order. Unmatched samples and NaN residuals are left
// out. Empty groups are returned with a zero count and NaN statistics.
func (a *Aggregator) SummarizeGroups(ctx context.Context, samples []domain.GasStandardSample, modes []domain.Mode) []domain.GroupSummary {
	out := make([]domain.GroupSummary, 0, len(modes)*len(domain.CalcTypes)*len(domain.GroupRanges))
	for _, mode := range modes {
		for _, calc := range domain.CalcTypes {
			for _, rng := range domain.GroupRanges {
				values := residuals(samples, mode, calc, rng.Contains)
				s := summarizeRange(values)
				s.Mode, s.CalcType, s.Range = mode, calc, rng
				out = append(out, s)
			}
		}
	}
	a.logger.DebugContext(ctx, "group summaries built", "samples", len(samples), "groups", len(out))
	return out
}

// SummarizeByGasStandard summarizes residuals per exact reference gas, with
// sample standard deviation, standard error and confidence half-width.
func (a *Aggregator) SummarizeByGasStandard(ctx context.Context, samples []domain.GasStandardSample, modes []domain.Mode) []domain.GasStandardSummary {
	var out []domain.GasStandardSummary
	for _, mode := range modes {
		gases := matchedGases(samples, mode)
		for _, calc := range domain.CalcTypes {
			for _, gas := range gases {
				values := residuals(samples, mode, calc, func(x float64) bool { return x == gas })
				out = append(out, summarizeGas(mode, calc, gas, values))
			}
		}
	}
	a.logger.DebugContext(ctx, "gas standard summaries built", "rows", len(out))
	return out
}

// residuals collects the sorted finite residuals of matched samples of mode
// whose reference gas satisfies keep.
func residuals(samples []domain.GasStandardSample, mode domain.Mode, calc domain.CalcType, keep func(float64) bool) []float64 {
	var values []float64
	for _, s := range samples {
		if s.Mode != mode || !s.Matched || !keep(s.GasStandard) {
			continue
		}
		r := s.Residual(calc)
		if math.IsNaN(r) {
			continue
		}
		values = append(values, r)
	}
	sort.Float64s(values)
	return values
}

func matchedGases(samples []domain.GasStandardSample, mode domain.Mode) []float64 {
	seen := make(map[float64]bool)
	var gases []float64
	for _, s := range samples {
		if s.Mode == mode && s.Matched && !seen[s.GasStandard] {
			seen[s.GasStandard] = true
			gases = append(gases, s.GasStandard)
		}
	}
	sort.Float64s(gases)
	return gases
}

func summarizeRange(values []float64) domain.GroupSummary {
	s := domain.GroupSummary{
		Count:               len(values),
		Mean:                math.NaN(),
		Stdev:               math.NaN(),
		Max:                 math.NaN(),
		ConfidenceHalfWidth: math.NaN(),
	}
	if len(values) == 0 {
		return s
	}
	s.Mean, s.Stdev = stat.PopMeanStdDev(values, nil)
	s.Max = maxAbs(values)
	s.ConfidenceHalfWidth = confidenceHalfWidth(values)
	return s
}

func summarizeGas(mode domain.Mode, calc domain.CalcType, gas float64, values []float64) domain.GasStandardSummary {
	s := domain.GasStandardSummary{
		Mode:                mode,
		CalcType:            calc,
		GasStandard:         gas,
		Count:               len(values),
		Mean:                math.NaN(),
		Stdev:               math.NaN(),
		StandardError:       math.NaN(),
		ConfidenceHalfWidth: math.NaN(),
	}
	if len(values) == 0 {
		return s
	}
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Stdev = stat.StdDev(values, nil)
		s.StandardError = stat.StdErr(s.Stdev, float64(len(values)))
		s.ConfidenceHalfWidth = confidenceHalfWidth(values)
	}
	return s
}

func maxAbs(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// confidenceHalfWidth is t(0.975, n-1)·s/√n with the sample standard
// deviation s. It is NaN below two values.
func confidenceHalfWidth(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(1 - (1-confidenceLevel)/2)
	return t * stat.StdDev(values, nil) / math.Sqrt(float64(n))
}
