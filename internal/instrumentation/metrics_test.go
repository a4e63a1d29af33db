package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMetrics_Record(t *testing.T) {
	provider := newTestProvider(t, Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone})
	metrics := provider.Metrics()
	ctx := context.Background()

	// Should not panic
	metrics.RecordTokenEndpointRequest(ctx, "google", "authorization_code", StatusSuccess, 200*time.Millisecond)
	metrics.RecordTokenEndpointRequest(ctx, "microsoft", "authorization_code", StatusError, 50*time.Millisecond)
	metrics.RecordOAuthTokenRefresh(ctx, RefreshResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, RefreshResultFailure)
	metrics.RecordSecretStoreOperation(ctx, "redis", SecretOperationGet, StatusSuccess)
}

func TestMetrics_NilAndZero(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordTokenEndpointRequest(ctx, "google", "refresh_token", StatusSuccess, time.Second)
	nilMetrics.RecordOAuthTokenRefresh(ctx, RefreshResultSuccess)
	nilMetrics.RecordSecretStoreOperation(ctx, "file", SecretOperationSet, StatusSuccess)

	zero := &Metrics{}
	zero.RecordTokenEndpointRequest(ctx, "google", "refresh_token", StatusSuccess, time.Second)
	zero.RecordOAuthTokenRefresh(ctx, RefreshResultSuccess)
	zero.RecordSecretStoreOperation(ctx, "file", SecretOperationSet, StatusSuccess)
}

func TestStatusFromError(t *testing.T) {
	if got := StatusFromError(nil); got != StatusSuccess {
		t.Errorf("StatusFromError(nil) = %q, want %q", got, StatusSuccess)
	}
	if got := StatusFromError(errors.New("boom")); got != StatusError {
		t.Errorf("StatusFromError(err) = %q, want %q", got, StatusError)
	}
}
