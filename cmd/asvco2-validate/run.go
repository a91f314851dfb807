package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"asvco2cli/internal/calibration"
	"asvco2cli/internal/config"
	apperrors "asvco2cli/internal/errors"
	"asvco2cli/internal/exporter"
	"asvco2cli/internal/files"
	"asvco2cli/internal/infrastructure"
	"asvco2cli/internal/pipeline"
	"asvco2cli/internal/tolerance"
	"asvco2cli/internal/validation"
	"asvco2cli/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

type runOptions struct {
	inDir    string
	outDir   string
	from     string
	to       string
	revision string
	workers  int
	format   string
	latest   bool
	strict   bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [log files...]",
		Short: "Correct, aggregate and judge a batch of logs",
		Long: "Runs the full validation over the given log files, or over every\n" +
			"YYYYMMDD_HHMMSS.txt log in --in, and writes the result tables to the\n" +
			"output directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := root.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			opts.apply(cfg)
			return runValidation(cmd.Context(), cmd.OutOrStdout(), cfg, opts, args, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.inDir, "in", "i", "", "Directory of logs (used when no files are given)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Override output.dir")
	cmd.Flags().StringVar(&opts.from, "from", "", "First log date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last log date to include (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.revision, "revision", "r", "", "Override tolerance.revision")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Override pipeline.workers")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Override output.format: csv|xlsx|both")
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "Only process the newest log of --in")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any file fails or any verdict is FAIL")
	return cmd
}

func (o *runOptions) apply(cfg *config.Config) {
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.revision != "" {
		cfg.Tolerance.Revision = o.revision
	}
	if o.workers > 0 {
		cfg.Pipeline.Workers = o.workers
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
}

func runValidation(ctx context.Context, out io.Writer, cfg *config.Config, opts *runOptions, args []string, logger *slog.Logger) error {
	format, err := exporter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	modes, err := parseModes(cfg.Pipeline.Modes)
	if err != nil {
		return err
	}
	inputs, err := collectInputs(opts, args, logger)
	if err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: infrastructure.ServiceVersion,
		TraceExporter:  cfg.Telemetry.Tracing,
		EnableMetrics:  true,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg.Tolerance, logger)
	if err != nil {
		return err
	}
	lab, err := buildLabSource(cfg.Calibration, logger)
	if err != nil {
		return err
	}

	proc := pipeline.NewProcessor(pipeline.Options{
		Workers:         cfg.Pipeline.Workers,
		Modes:           modes,
		Revision:        tolerance.Revision(cfg.Tolerance.Revision),
		CombinedStdDevs: cfg.Tolerance.CombinedStdDevs,
	}, lab, engine, infrastructure.WithComponent(logger, "pipeline")).WithTelemetry(providers.Tracer, metrics)

	result, err := proc.Run(ctx, inputs)
	if err != nil {
		return err
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		return apperrors.NewConfigError("resolve output directory", err)
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.OutputDir); err != nil {
		return err
	}
	written, err := exporter.NewReportExporter(paths, infrastructure.WithComponent(logger, "exporter")).Export(result, format)
	if err != nil {
		return err
	}
	if err := providers.WriteMetrics(paths.MetricsPath(cfg)); err != nil {
		logger.Warn("Failed to write metrics file", slog.String("error", err.Error()))
	}

	var summary bytes.Buffer
	failed := printRunSummary(&summary, result, written)
	if err := files.NewManager(paths, logger).WriteFile(config.SummaryFileName, summary.Bytes()); err != nil {
		logger.Warn("Failed to write run summary", slog.String("error", err.Error()))
	}
	if _, err := io.Copy(out, &summary); err != nil {
		return err
	}
	if opts.strict && failed > 0 {
		return fmt.Errorf("validation failed (%d failing file(s) or verdict(s))", failed)
	}
	return nil
}

func parseModes(names []string) ([]domain.Mode, error) {
	modes := make([]domain.Mode, 0, len(names))
	for _, name := range names {
		m, ok := domain.ParseMode(name)
		if !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("unknown mode %q", name), nil)
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// collectInputs prefers explicit files, then the logs of --in filtered by
// --from and --to.
func collectInputs(opts *runOptions, args []string, logger *slog.Logger) ([]pipeline.Input, error) {
	validator := validation.NewFileValidator(logger)
	if len(args) > 0 {
		inputs := make([]pipeline.Input, len(args))
		for i, path := range args {
			if err := validator.ValidateLogFile(path); err != nil {
				logger.Warn("Unexpected log file", slog.String("file", path), slog.String("error", err.Error()))
			}
			inputs[i] = pipeline.PathInput(path)
		}
		return inputs, nil
	}
	if opts.inDir == "" {
		return nil, apperrors.NewValidationError("give log files or --in", nil)
	}
	if _, err := validator.ValidateInputDirectory(opts.inDir); err != nil {
		return nil, apperrors.NewValidationError("invalid input directory", err)
	}

	start, err := parseDate(opts.from)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(opts.to)
	if err != nil {
		return nil, err
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1)
	}

	logs, err := files.NewDiscovery("").FindLogs(opts.inDir)
	if err != nil {
		return nil, err
	}
	logs = files.FilterLogsByDateRange(logs, start, end)
	if opts.latest {
		newest, ok := files.GetLatestLog(logs)
		logs = nil
		if ok {
			logs = []files.FileInfo{newest}
		}
	}
	logger.Info("Discovered logs",
		slog.String("dir", opts.inDir),
		slog.Int("count", len(logs)))

	inputs := make([]pipeline.Input, 0, len(logs))
	for _, path := range files.Paths(logs) {
		inputs = append(inputs, pipeline.PathInput(path))
	}
	return inputs, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("date %q is not YYYY-MM-DD", s), err)
	}
	return t, nil
}

// buildEngine registers any revisions file on top of the built-in tables.
func buildEngine(cfg config.ToleranceConfig, logger *slog.Logger) (*tolerance.Engine, error) {
	registry := tolerance.NewRegistry()
	if cfg.RevisionsFile != "" {
		f, err := os.Open(cfg.RevisionsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("open tolerance revisions file", err)
		}
		defer f.Close()
		added, err := registry.LoadRevisionYAML(f)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded tolerance revisions",
			slog.String("file", cfg.RevisionsFile),
			slog.Int("count", len(added)))
	}
	return tolerance.NewEngine(registry, logger), nil
}

func buildLabSource(cfg config.CalibrationConfig, logger *slog.Logger) (pipeline.LabSource, error) {
	if cfg.ReferenceTable == "" {
		return pipeline.FixedLab(cfg.Lab.Constants()), nil
	}
	if !config.FileExists(cfg.ReferenceTable) {
		return nil, apperrors.NewConfigError(fmt.Sprintf("calibration reference table %s not found", cfg.ReferenceTable), nil)
	}
	if err := validation.NewFileValidator(logger).ValidateReferenceCSV(cfg.ReferenceTable); err != nil {
		return nil, apperrors.NewConfigError("invalid calibration reference table", err)
	}
	f, err := os.Open(cfg.ReferenceTable)
	if err != nil {
		return nil, apperrors.NewConfigError("open calibration reference table", err)
	}
	defer f.Close()
	table, err := calibration.LoadReferenceTable(f, cfg.InstrumentSerials, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded calibration reference table",
		slog.String("file", cfg.ReferenceTable),
		slog.Int("analyzers", table.Len()))
	return table, nil
}

// printRunSummary writes totals and returns the number of failed files plus
// FAIL verdicts.
func printRunSummary(w io.Writer, result *pipeline.BatchResult, written []string) int {
	failedVerdicts := 0
	for _, g := range result.Groups {
		if g.Outcome() == domain.OutcomeFail {
			failedVerdicts++
		}
	}
	for _, v := range result.GasStandards {
		for _, sv := range []*domain.StatVerdict{v.Combined, v.Mean, v.Stdev} {
			if sv != nil && sv.Outcome == domain.OutcomeFail {
				failedVerdicts++
				break
			}
		}
	}
	faulted := 0
	for _, r := range result.Faults {
		if !r.OK() {
			faulted++
		}
	}

	fmt.Fprintf(w, "Run ID:     %s\n", result.RunID)
	fmt.Fprintf(w, "Revision:   %s\n", result.Revision)
	fmt.Fprintf(w, "Files:      %d processed, %d failed, %d skipped\n",
		len(result.Files), len(result.Failures), len(result.Skipped))
	fmt.Fprintf(w, "Samples:    %d (%d without a reference gas)\n", len(result.Samples), len(result.Mismatches))
	fmt.Fprintf(w, "Faults:     %d file(s) with range check faults\n", faulted)
	fmt.Fprintf(w, "Verdicts:   %d FAIL\n", failedVerdicts)
	for _, f := range result.Failures {
		fmt.Fprintf(w, "- [%s] %s: %s\n", f.Type, f.Name, f.Message)
	}
	for _, p := range written {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
	return len(result.Failures) + failedVerdicts
}
