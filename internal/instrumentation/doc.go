// Package instrumentation provides OpenTelemetry instrumentation for mailauth.
//
// This package enables observability of the OAuth2 flow through:
//   - OpenTelemetry metrics for token endpoint calls, token refreshes and
//     secret store operations
//   - Distributed tracing for token endpoint and secret store calls
//   - Prometheus export, including a textfile dump for node-exporter's
//     textfile collector (mailauth usually runs as a one-shot job)
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Token endpoint metrics:
//   - token_endpoint_requests_total: Counter of token endpoint POSTs by provider, grant type and status
//   - token_endpoint_duration_seconds: Histogram of token endpoint call durations
//
// OAuth metrics:
//   - oauth_token_refresh_total: Counter of token refresh events by result
//
// Secret store metrics:
//   - secret_store_operations_total: Counter of secret store reads/writes by backend, operation and status
//
// # Tracing
//
// Client spans are created for:
//   - token endpoint calls (token_endpoint.<grant_type>)
//   - secret store calls (secret_store.<operation>)
//
// Outgoing HTTP requests are traced by otelhttp (see NewHTTPClient).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, console, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, console, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mailauth)
//
// The console exporters print JSON to standard error on Shutdown, so the
// command output on standard output stays parseable.
//
// # Example Usage
//
//	cfg, err := instrumentation.LoadConfig()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordTokenEndpointRequest(ctx, "google", "refresh_token", "success", time.Since(start))
package instrumentation
