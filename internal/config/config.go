package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"asvco2cli/internal/calibration"
	apperrors "asvco2cli/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. ASVCO2_PIPELINE_WORKERS.
const EnvPrefix = "ASVCO2"

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Calibration CalibrationConfig `yaml:"calibration" envconfig:"CALIBRATION"`
	Tolerance   ToleranceConfig   `yaml:"tolerance" envconfig:"TOLERANCE"`
	Pipeline    PipelineConfig    `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
	Output      OutputConfig      `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// CalibrationConfig selects where lab calibration constants come from.
type CalibrationConfig struct {
	// ReferenceTable is the calibration reference CSV. When empty, Lab is used
	// for every unit.
	ReferenceTable    string            `yaml:"reference_table" envconfig:"REFERENCE_TABLE"`
	InstrumentSerials map[string]string `yaml:"instrument_serials" envconfig:"INSTRUMENT_SERIALS"`
	Lab               LabConfig         `yaml:"lab" envconfig:"LAB"`
}

// LabConfig holds fixed lab constants.
type LabConfig struct {
	Serial           string  `yaml:"serial" envconfig:"SERIAL"`
	SpanCoefficient  float64 `yaml:"span_coefficient" envconfig:"SPAN_COEFFICIENT"`
	SpanTemperature  float64 `yaml:"span_temperature" envconfig:"SPAN_TEMPERATURE"`
	TemperatureSlope float64 `yaml:"temperature_slope" envconfig:"TEMPERATURE_SLOPE"`
}

// Constants converts the configured values.
func (l LabConfig) Constants() calibration.LabConstants {
	return calibration.LabConstants{
		Serial:           l.Serial,
		SpanCoefficient:  l.SpanCoefficient,
		SpanTemperature:  l.SpanTemperature,
		TemperatureSlope: l.TemperatureSlope,
	}
}

// ToleranceConfig selects the tolerance table revision.
type ToleranceConfig struct {
	Revision        string  `yaml:"revision" envconfig:"REVISION" validate:"required"`
	RevisionsFile   string  `yaml:"revisions_file" envconfig:"REVISIONS_FILE"`
	CombinedStdDevs float64 `yaml:"combined_std_devs" envconfig:"COMBINED_STD_DEVS" validate:"gte=0"`
}

// PipelineConfig contains batch processing configuration
type PipelineConfig struct {
	Workers int      `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	Modes   []string `yaml:"modes" envconfig:"MODES" validate:"min=1,dive,oneof=APOFF EPOFF"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing     string `yaml:"tracing" envconfig:"TRACING" validate:"oneof=stdout none"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// OutputConfig contains export configuration
type OutputConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx both"`
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty) and ASVCO2_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err)
		}
	}

	// No envconfig defaults: unset variables leave file values in place.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto c.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// validate validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	for i, m := range c.Pipeline.Modes {
		c.Pipeline.Modes[i] = strings.ToUpper(strings.TrimSpace(m))
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Calibration.ReferenceTable == "" && c.Calibration.Lab.SpanCoefficient == 0 {
		return fmt.Errorf("either calibration.reference_table or calibration.lab must be set")
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	serials := make(map[string]string, len(calibration.DefaultInstrumentSerials))
	for k, v := range calibration.DefaultInstrumentSerials {
		serials[k] = v
	}
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Calibration: CalibrationConfig{
			InstrumentSerials: serials,
		},
		Tolerance: ToleranceConfig{
			Revision:        DefaultRevision,
			CombinedStdDevs: 1,
		},
		Pipeline: PipelineConfig{
			Workers: DefaultWorkers,
			Modes:   []string{"APOFF", "EPOFF"},
		},
		Telemetry: TelemetryConfig{
			Tracing: "none",
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Format: "csv",
		},
	}
}
