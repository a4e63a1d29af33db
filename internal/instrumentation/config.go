package instrumentation

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Config holds the configuration for OpenTelemetry instrumentation.
// Fields are read from the standard OTEL_* variables plus a few mailauth
// specific ones.
type Config struct {
	// ServiceName is the name of the service (default: mailauth).
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"mailauth"`

	// ServiceVersion is set by the binary, not the environment.
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname when empty.
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// Enabled turns instrumentation on. mailauth is a one-shot CLI, so
	// nothing is recorded unless asked for.
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"false"`

	// MetricsExporter is one of prometheus, otlp or console.
	// An empty value means prometheus.
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	// TracingExporter is one of otlp, console or none.
	// An empty value means none.
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is the collector address without scheme, e.g. localhost:4318.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure sends OTLP over plain HTTP.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TraceSamplingRate is the ratio of sampled root spans (0.0 to 1.0).
	TraceSamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`
}

// LoadConfig reads the instrumentation settings from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse instrumentation env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFrom reads the instrumentation settings from environ.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse instrumentation env: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, console", c.MetricsExporter)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, console, none", c.TracingExporter)
	}

	if (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when an OTLP exporter is selected")
	}

	return nil
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// OAuth refresh result values
	RefreshResultSuccess = "success"
	RefreshResultFailure = "failure"

	// Secret store operations
	SecretOperationGet = "get"
	SecretOperationSet = "set"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterConsole    = "console"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterConsole}
	tracingExporters = []string{ExporterOTLP, ExporterConsole, ExporterNone}
)
