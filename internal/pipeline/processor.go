package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"asvco2cli/internal/calibration"
	"asvco2cli/internal/dataprocessing"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/internal/infrastructure"
	"asvco2cli/internal/tolerance"
	"asvco2cli/internal/validation"
	"asvco2cli/pkg/contracts/domain"
)

// Processor validates batches of instrument logs. Files are independent: each
// is parsed, corrected, matched and range checked on its own, and the batch
// aggregates afterwards.
type Processor struct {
	opts       Options
	lab        LabSource
	parser     *dataprocessing.Parser
	corrector  *calibration.Corrector
	aggregator *dataprocessing.Aggregator
	checker    *validation.RangeCheckValidator
	engine     *tolerance.Engine
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *infrastructure.PipelineMetrics
}

// NewProcessor creates a batch processor. A nil engine uses the built-in
// tolerance tables.
func NewProcessor(opts Options, lab LabSource, engine *tolerance.Engine, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Modes) == 0 {
		opts.Modes = []domain.Mode{domain.ModeAPOFF, domain.ModeEPOFF}
	}
	if engine == nil {
		engine = tolerance.NewEngine(nil, logger)
	}
	return &Processor{
		opts:       opts,
		lab:        lab,
		parser:     dataprocessing.NewParser(logger),
		corrector:  calibration.NewCorrector(logger),
		aggregator: dataprocessing.NewAggregator(logger),
		checker:    validation.NewRangeCheckValidator(logger),
		engine:     engine,
		logger:     logger,
		tracer:     tracenoop.NewTracerProvider().Tracer("pipeline"),
	}
}

// WithTelemetry sets the tracer and metrics used by subsequent runs.
func (p *Processor) WithTelemetry(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *Processor {
	if tracer != nil {
		p.tracer = tracer
	}
	p.metrics = metrics
	return p
}

// fileOutcome is exactly one of result, failure or skipped.
type fileOutcome struct {
	result  *FileResult
	failure *FileFailure
	skipped bool
	name    string
}

// Run processes inputs with at most Options.Workers files in flight. Per-file
// errors are reported in BatchResult.Failures; the returned error is set only
// for cancellation, an unknown revision or a tolerance lookup failure.
func (p *Processor) Run(ctx context.Context, inputs []Input) (*BatchResult, error) {
	info, ok := p.engine.Registry().Revision(p.opts.Revision)
	if !ok {
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown tolerance revision %q", p.opts.Revision), nil)
	}

	ctx, runID := infrastructure.EnsureRunID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.batch", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("files", len(inputs)),
		attribute.String("revision", string(p.opts.Revision)),
	))
	defer span.End()

	p.logger.InfoContext(ctx, "batch started",
		"files", len(inputs),
		"workers", p.opts.Workers,
		"revision", p.opts.Revision,
	)
	start := time.Now()

	outcomes := make([]fileOutcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.processFile(gctx, inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	result := &BatchResult{
		RunID:    runID,
		Revision: p.opts.Revision,
		Files:    []FileResult{},
		Samples:  []domain.GasStandardSample{},
		Faults:   []validation.FaultReport{},
		Failures: []FileFailure{},
		Skipped:  []string{},
	}
	for _, o := range outcomes {
		switch {
		case o.skipped:
			result.Skipped = append(result.Skipped, o.name)
		case o.failure != nil:
			result.Failures = append(result.Failures, *o.failure)
		default:
			result.Files = append(result.Files, *o.result)
			result.Samples = append(result.Samples, o.result.Samples...)
			result.Mismatches = append(result.Mismatches, o.result.Mismatches...)
			result.Faults = append(result.Faults, o.result.Faults)
		}
	}

	if err := p.evaluate(ctx, info, result); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("samples", len(result.Samples)),
		attribute.Int("failures", len(result.Failures)),
	)
	p.logger.InfoContext(ctx, "batch finished",
		"processed", len(result.Files),
		"failed", len(result.Failures),
		"skipped", len(result.Skipped),
		"samples", len(result.Samples),
		"mismatches", len(result.Mismatches),
		"duration", time.Since(start),
		"trace_id", infrastructure.TraceIDFromContext(ctx),
	)
	return result, nil
}

// evaluate summarizes matched samples and attaches the verdicts the revision
// supports.
func (p *Processor) evaluate(ctx context.Context, info tolerance.RevisionInfo, result *BatchResult) error {
	result.Summaries = p.aggregator.SummarizeGroups(ctx, result.Samples, p.opts.Modes)
	result.GasStandardSummaries = p.aggregator.SummarizeByGasStandard(ctx, result.Samples, p.opts.Modes)

	if info.Grouped {
		verdicts, err := p.engine.EvaluateGroups(ctx, p.opts.Revision, result.Summaries)
		if err != nil {
			return fmt.Errorf("evaluate groups: %w", err)
		}
		result.Groups = verdicts
		return nil
	}

	for _, s := range result.GasStandardSummaries {
		v, err := p.engine.EvaluateGasStandard(p.opts.Revision, s, p.opts.CombinedStdDevs)
		if err != nil {
			return fmt.Errorf("evaluate %s %s at %g ppm: %w", s.Mode, s.CalcType, s.GasStandard, err)
		}
		result.GasStandards = append(result.GasStandards, v)
	}
	return nil
}

func (p *Processor) processFile(ctx context.Context, in Input) fileOutcome {
	name := in.Name
	if name == "" {
		name = filepath.Base(in.Path)
	}
	ctx, span := p.tracer.Start(ctx, "pipeline.file", trace.WithAttributes(attribute.String("file", name)))
	defer span.End()
	start := time.Now()

	fail := func(err error) fileOutcome {
		errType := apperrors.TypeOf(err)
		infrastructure.RecordError(ctx, err)
		p.metrics.RecordFile(ctx, infrastructure.FileStatusFailed, time.Since(start), string(errType))
		p.logger.WarnContext(ctx, "file failed", "file", name, "error_type", errType, "error", err)
		return fileOutcome{name: name, failure: &FileFailure{Name: name, Type: errType, Message: err.Error(), Err: err}}
	}

	l, err := load(name, in)
	if err != nil {
		return fail(err)
	}
	if !l.HasCoefficients() {
		p.metrics.RecordFile(ctx, infrastructure.FileStatusSkipped, time.Since(start), "")
		p.logger.InfoContext(ctx, "file skipped, no COEFF lines", "file", name)
		return fileOutcome{name: name, skipped: true}
	}

	res, err := p.validateLog(ctx, l)
	if err != nil {
		return fail(err)
	}

	p.metrics.RecordFile(ctx, infrastructure.FileStatusProcessed, time.Since(start), "")
	for _, s := range res.Samples {
		mismatches := 0
		if !s.Matched {
			mismatches = 1
		}
		p.metrics.RecordSamples(ctx, s.Mode.String(), 1, mismatches)
	}
	p.metrics.RecordFaults(ctx, len(res.Faults.Faults))
	return fileOutcome{name: name, result: res}
}

func load(name string, in Input) (*dataprocessing.Log, error) {
	if in.Content != nil || in.Path == "" {
		return dataprocessing.NewLog(name, in.Content), nil
	}
	l, err := dataprocessing.OpenLog(in.Path)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "log file "+in.Path, err)
	}
	l.Name = name
	return l, nil
}

// validateLog runs parse, span correction, target correction, reference
// matching and range checks for one log.
func (p *Processor) validateLog(ctx context.Context, l *dataprocessing.Log) (*FileResult, error) {
	parsed, err := p.parser.Parse(ctx, l)
	if err != nil {
		return nil, err
	}

	spoff := parsed.RowsFor(domain.ModeSPOFF)
	if len(spoff) == 0 {
		return nil, apperrors.NewCalibrationError("log has no SPOFF rows for span correction", nil)
	}
	lab, err := p.lab.Constants(spoff[0].Serial)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateLabConstants(lab); err != nil {
		return nil, apperrors.NewValidationError("lab constants for unit "+spoff[0].Serial, err)
	}

	span, err := p.corrector.SpanCorrection(ctx, parsed.Coefficients, spoff, lab)
	if err != nil {
		return nil, err
	}

	gases := calibration.ReferenceGasesFor(parsed.Date)
	out := &FileResult{Name: parsed.Name, Date: parsed.Date, Span: span}

	for _, mode := range p.opts.Modes {
		rows := parsed.RowsFor(mode)
		if len(rows) == 0 {
			p.logger.WarnContext(ctx, "no rows for target mode", "file", parsed.Name, "mode", mode)
			continue
		}
		res, err := p.corrector.Correct(ctx, mode, span, rows)
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, res)

		sample, err := dataprocessing.BuildSample(parsed.Name, res, parsed.Dry, gases)
		if err != nil && !errors.Is(err, apperrors.ErrReferenceGasMismatch) {
			return nil, err
		}
		if !sample.Matched {
			nearest, distance, _ := gases.Nearest(sample.CorrectedDry)
			out.Mismatches = append(out.Mismatches, Mismatch{
				File:     parsed.Name,
				Mode:     mode,
				Value:    sample.CorrectedDry,
				Nearest:  nearest,
				Distance: distance,
			})
			p.logger.WarnContext(ctx, "no reference gas within tolerance",
				"file", parsed.Name, "mode", mode, "value", sample.CorrectedDry, "nearest", nearest)
		}
		out.Samples = append(out.Samples, sample)
	}

	out.Faults = p.checker.Check(ctx, validation.RangeInput{
		File:    parsed.Name,
		Rows:    parsed.Rows,
		Flags:   parsed.Flags,
		Stats:   parsed.Stats,
		SpanGas: gases.Span,
	})
	return out, nil
}

// Check parses one log and runs only the range checks.
func (p *Processor) Check(ctx context.Context, in Input) (validation.FaultReport, error) {
	name := in.Name
	if name == "" {
		name = filepath.Base(in.Path)
	}
	l, err := load(name, in)
	if err != nil {
		return validation.FaultReport{}, err
	}
	parsed, err := p.parser.Parse(ctx, l)
	if err != nil {
		return validation.FaultReport{}, err
	}
	return p.checker.Check(ctx, validation.RangeInput{
		File:    parsed.Name,
		Rows:    parsed.Rows,
		Flags:   parsed.Flags,
		Stats:   parsed.Stats,
		SpanGas: calibration.ReferenceGasesFor(parsed.Date).Span,
	}), nil
}
