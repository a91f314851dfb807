package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName    = "asvco2-validate"
	ServiceVersion = "1.0.0"
	MeterName      = "asvco2cli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string    // "stdout", "none"
	TraceWriter    io.Writer // stdout exporter target, os.Stderr when nil
	EnableMetrics  bool
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry receives the metrics of this process only.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// DefaultOTelConfig returns a configuration with metrics and no span export.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		TraceExporter:  "none",
		EnableMetrics:  true,
	}
}

// InitializeOTel builds tracer and meter providers. Disabled signals get
// no-op implementations so callers never check for nil.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if cfg.EnableMetrics {
		if err := initializeMetrics(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))
	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "", "none":
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	w := cfg.TraceWriter
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	return nil
}

// initializeMetrics backs the meter with a Prometheus exporter bound to a
// dedicated registry.
func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	return nil
}

// WriteMetrics writes the collected metrics to path in the Prometheus text
// exposition format, for pickup by a node_exporter textfile collector.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p.Registry == nil {
		return fmt.Errorf("metrics are disabled")
	}
	if err := prom.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	p.Logger.Debug("metrics written", slog.String("file", path))
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// PipelineMetrics are the batch counters and histograms.
type PipelineMetrics struct {
	FilesProcessed metric.Int64Counter
	FilesFailed    metric.Int64Counter
	FilesSkipped   metric.Int64Counter
	Samples        metric.Int64Counter
	Mismatches     metric.Int64Counter
	Faults         metric.Int64Counter
	FileDuration   metric.Float64Histogram
}

// CreatePipelineMetrics registers the batch instruments on meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.FilesProcessed, "asvco2_files_processed", "Log files processed successfully"},
		{&m.FilesFailed, "asvco2_files_failed", "Log files that failed processing"},
		{&m.FilesSkipped, "asvco2_files_skipped", "Log files skipped for lacking coefficients"},
		{&m.Samples, "asvco2_samples", "Gas standard samples produced"},
		{&m.Mismatches, "asvco2_reference_mismatch", "Samples with no reference gas within tolerance"},
		{&m.Faults, "asvco2_range_faults", "Range check faults found"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	m.FileDuration, err = meter.Float64Histogram("asvco2_file_duration",
		metric.WithDescription("Time to process one log file"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create asvco2_file_duration: %w", err)
	}
	return &m, nil
}

// File outcome labels.
const (
	FileStatusProcessed = "processed"
	FileStatusFailed    = "failed"
	FileStatusSkipped   = "skipped"
)

// RecordFile records one file's outcome. A nil receiver records nothing.
func (m *PipelineMetrics) RecordFile(ctx context.Context, status string, duration time.Duration, errType string) {
	if m == nil {
		return
	}
	switch status {
	case FileStatusProcessed:
		m.FilesProcessed.Add(ctx, 1)
	case FileStatusFailed:
		m.FilesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("error_type", errType)))
	case FileStatusSkipped:
		m.FilesSkipped.Add(ctx, 1)
	}
	m.FileDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordSamples records the samples of one mode, of which mismatches had no
// reference gas within tolerance.
func (m *PipelineMetrics) RecordSamples(ctx context.Context, mode string, samples, mismatches int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.Samples.Add(ctx, int64(samples), attrs)
	if mismatches > 0 {
		m.Mismatches.Add(ctx, int64(mismatches), attrs)
	}
}

// RecordFaults records range check faults.
func (m *PipelineMetrics) RecordFaults(ctx context.Context, faults int) {
	if m == nil || faults == 0 {
		return
	}
	m.Faults.Add(ctx, int64(faults))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
