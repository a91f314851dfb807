package tolerance

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"asvco2cli/pkg/contracts/domain"
)

// Engine evaluates residual statistics against registered tables. It holds no
// per-run state.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine creates an engine over registry. A nil registry uses the built-ins.
func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// Registry returns the engine's table registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Limit returns the interpolated limit at concentration.
func (e *Engine) Limit(rev Revision, calcType domain.CalcType, stat domain.Statistic, concentration float64) (float64, error) {
	t, err := e.registry.Table(rev, calcType, stat)
	if err != nil {
		return 0, err
	}
	return t.Limit(concentration)
}

// Combined tests |mean| + n·stdev against the combined limit at concentration.
func (e *Engine) Combined(rev Revision, calcType domain.CalcType, mean, stdev, n, concentration float64) (domain.StatVerdict, error) {
	limit, err := e.Limit(rev, calcType, domain.StatCombined, concentration)
	if err != nil {
		return domain.StatVerdict{}, err
	}
	value := math.Abs(mean) + n*stdev
	return verdict(domain.StatCombined, value, limit), nil
}

// Separate tests |mean| and |stdev| against their own tables. Each verdict is
// independent of the other.
func (e *Engine) Separate(rev Revision, calcType domain.CalcType, mean, stdev, concentration float64) (domain.StatVerdict, domain.StatVerdict, error) {
	meanLimit, err := e.Limit(rev, calcType, domain.StatMean, concentration)
	if err != nil {
		return domain.StatVerdict{}, domain.StatVerdict{}, fmt.Errorf("mean limit: %w", err)
	}
	stdevLimit, err := e.Limit(rev, calcType, domain.StatStdev, concentration)
	if err != nil {
		return domain.StatVerdict{}, domain.StatVerdict{}, fmt.Errorf("stdev limit: %w", err)
	}
	return verdict(domain.StatMean, math.Abs(mean), meanLimit),
		verdict(domain.StatStdev, math.Abs(stdev), stdevLimit), nil
}

// EvaluateGroup tests a range summary's mean, stdev and max at the range
// midpoint. Empty groups get NO_DATA verdicts.
func (e *Engine) EvaluateGroup(ctx context.Context, rev Revision, summary domain.GroupSummary) (domain.GroupVerdict, error) {
	out := domain.GroupVerdict{Summary: summary, Revision: string(rev)}
	if info, ok := e.registry.Revision(rev); ok && !info.Grouped {
		return out, fmt.Errorf("revision %q has no grouped tables", rev)
	}
	if summary.Empty() {
		out.Mean = domain.NoDataVerdict(domain.StatMean)
		out.Stdev = domain.NoDataVerdict(domain.StatStdev)
		out.Max = domain.NoDataVerdict(domain.StatMax)
		return out, nil
	}

	mid := summary.Range.Midpoint()
	values := []struct {
		stat  domain.Statistic
		value float64
		dst   *domain.StatVerdict
	}{
		{domain.StatMean, summary.Mean, &out.Mean},
		{domain.StatStdev, summary.Stdev, &out.Stdev},
		{domain.StatMax, summary.Max, &out.Max},
	}
	for _, v := range values {
		limit, err := e.Limit(rev, summary.CalcType, v.stat, mid)
		if err != nil {
			return out, fmt.Errorf("%s limit at %g ppm: %w", v.stat, mid, err)
		}
		*v.dst = verdict(v.stat, math.Abs(v.value), limit)
	}

	e.logger.DebugContext(ctx, "evaluated group",
		"mode", summary.Mode,
		"calc_type", summary.CalcType,
		"lower", summary.Range.Lower,
		"upper", summary.Range.Upper,
		"outcome", out.Outcome(),
	)
	return out, nil
}

// EvaluateGroups evaluates every summary. The first lookup failure aborts.
func (e *Engine) EvaluateGroups(ctx context.Context, rev Revision, summaries []domain.GroupSummary) ([]domain.GroupVerdict, error) {
	out := make([]domain.GroupVerdict, 0, len(summaries))
	for _, s := range summaries {
		v, err := e.EvaluateGroup(ctx, rev, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GasStandardVerdict holds the single-concentration verdicts of one reference gas.
type GasStandardVerdict struct {
	Summary  domain.GasStandardSummary `json:"summary"`
	Revision string                    `json:"revision"`
	Combined *domain.StatVerdict       `json:"combined,omitempty"`
	Mean     *domain.StatVerdict       `json:"mean,omitempty"`
	Stdev    *domain.StatVerdict       `json:"stdev,omitempty"`
}

// EvaluateGasStandard applies whichever single-concentration modes rev supports
// at the summary's reference gas.
func (e *Engine) EvaluateGasStandard(rev Revision, summary domain.GasStandardSummary, n float64) (GasStandardVerdict, error) {
	out := GasStandardVerdict{Summary: summary, Revision: string(rev)}
	conc := summary.GasStandard
	stdev := summary.Stdev
	if math.IsNaN(stdev) {
		stdev = 0
	}

	if _, err := e.registry.Table(rev, summary.CalcType, domain.StatCombined); err == nil {
		v, err := e.Combined(rev, summary.CalcType, summary.Mean, stdev, n, conc)
		if err != nil {
			return out, err
		}
		out.Combined = &v
	}
	if _, err := e.registry.Table(rev, summary.CalcType, domain.StatMean); err == nil {
		m, s, err := e.Separate(rev, summary.CalcType, summary.Mean, stdev, conc)
		if err != nil {
			return out, err
		}
		out.Mean, out.Stdev = &m, &s
	}
	if out.Combined == nil && out.Mean == nil {
		return out, fmt.Errorf("revision %q has no single-concentration tables for %s", rev, summary.CalcType)
	}
	return out, nil
}

func verdict(stat domain.Statistic, value, limit float64) domain.StatVerdict {
	v := domain.StatVerdict{
		Statistic: stat,
		Value:     value,
		Limit:     limit,
		Margin:    limit - value,
		Outcome:   domain.OutcomePass,
	}
	if math.IsNaN(value) {
		v.Outcome = domain.OutcomeNoData
		return v
	}
	if value > limit {
		v.Outcome = domain.OutcomeFail
	}
	return v
}
