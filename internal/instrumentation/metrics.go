package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrProvider  = "provider"
	attrGrantType = "grant_type"
	attrStatus    = "status"
	attrResult    = "result"
	attrBackend   = "backend"
	attrOperation = "operation"
)

// Metrics provides methods for recording observability metrics.
// A zero or nil Metrics records nothing.
type Metrics struct {
	tokenEndpointRequestsTotal metric.Int64Counter
	tokenEndpointDuration      metric.Float64Histogram

	oauthTokenRefreshTotal metric.Int64Counter

	secretStoreOperationsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.tokenEndpointRequestsTotal, err = meter.Int64Counter(
		"token_endpoint_requests_total",
		metric.WithDescription("Total number of token endpoint requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_endpoint_requests_total counter: %w", err)
	}

	m.tokenEndpointDuration, err = meter.Float64Histogram(
		"token_endpoint_duration_seconds",
		metric.WithDescription("Token endpoint request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_endpoint_duration_seconds histogram: %w", err)
	}

	m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh events"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	m.secretStoreOperationsTotal, err = meter.Int64Counter(
		"secret_store_operations_total",
		metric.WithDescription("Total number of secret store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret_store_operations_total counter: %w", err)
	}

	return m, nil
}

// RecordTokenEndpointRequest records a token endpoint call.
//
// Parameters:
//   - provider: provider identifier (google, microsoft)
//   - grantType: OAuth grant type (authorization_code, refresh_token)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the call
func (m *Metrics) RecordTokenEndpointRequest(ctx context.Context, provider, grantType, status string, duration time.Duration) {
	if m == nil || m.tokenEndpointRequestsTotal == nil || m.tokenEndpointDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrGrantType, grantType),
		attribute.String(attrStatus, status),
	)

	m.tokenEndpointRequestsTotal.Add(ctx, 1, attrs)
	m.tokenEndpointDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthTokenRefresh records a token refresh event with result.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.oauthTokenRefreshTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordSecretStoreOperation records a secret store read or write.
func (m *Metrics) RecordSecretStoreOperation(ctx context.Context, backend, operation, status string) {
	if m == nil || m.secretStoreOperationsTotal == nil {
		return // Instrumentation not initialized
	}

	m.secretStoreOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	))
}

// StatusFromError maps an error to a status label value.
func StatusFromError(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
