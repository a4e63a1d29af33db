package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "mailauth", cfg.ServiceName)
	assert.False(t, cfg.Enabled, "instrumentation is opt-in")
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
	assert.Empty(t, cfg.ServiceVersion)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFrom_Environment(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"OTEL_SERVICE_NAME":           "mailauth-cron",
		"INSTRUMENTATION_ENABLED":     "true",
		"METRICS_EXPORTER":            "otlp",
		"TRACING_EXPORTER":            "console",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
		"OTEL_EXPORTER_OTLP_INSECURE": "true",
		"OTEL_TRACES_SAMPLER_ARG":     "1",
	})
	require.NoError(t, err)

	assert.Equal(t, Config{
		ServiceName:       "mailauth-cron",
		Enabled:           true,
		MetricsExporter:   ExporterOTLP,
		TracingExporter:   ExporterConsole,
		OTLPEndpoint:      "collector:4318",
		OTLPInsecure:      true,
		TraceSamplingRate: 1,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFrom_Malformed(t *testing.T) {
	tests := map[string]map[string]string{
		"enabled":       {"INSTRUMENTATION_ENABLED": "maybe"},
		"sampling rate": {"OTEL_TRACES_SAMPLER_ARG": "half"},
		"otlp insecure": {"OTEL_EXPORTER_OTLP_INSECURE": "yes please"},
	}

	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFrom(environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse instrumentation env")
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "empty exporters fall back to prometheus and none",
			config: Config{},
		},
		{
			name:   "console on both",
			config: Config{MetricsExporter: ExporterConsole, TracingExporter: ExporterConsole, TraceSamplingRate: 1},
		},
		{
			name:   "otlp with endpoint",
			config: Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:    "sampling rate below zero",
			config:  Config{TraceSamplingRate: -0.5},
			wantErr: "sampling rate",
		},
		{
			name:    "sampling rate above one",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "stdout is not a metrics exporter",
			config:  Config{MetricsExporter: "stdout"},
			wantErr: `invalid metrics exporter "stdout"`,
		},
		{
			name:    "prometheus is not a tracing exporter",
			config:  Config{TracingExporter: ExporterPrometheus},
			wantErr: `invalid tracing exporter "prometheus"`,
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
