package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the mailauth packages.
const TracerName = "github.com/teemow/mailauth"

// Span attribute keys.
const (
	SpanAttrProvider  = "oauth.provider"
	SpanAttrGrantType = "oauth.grant_type"
	SpanAttrEndpoint  = "oauth.token_endpoint"
	SpanAttrBackend   = "secret.backend"
	SpanAttrSecret    = "secret.name"
	SpanAttrOperation = "secret.operation"
)

// StartTokenEndpointSpan starts a client span for a token endpoint call.
func StartTokenEndpointSpan(ctx context.Context, provider, grantType, endpoint string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "token_endpoint."+grantType,
		trace.WithAttributes(
			attribute.String(SpanAttrProvider, provider),
			attribute.String(SpanAttrGrantType, grantType),
			attribute.String(SpanAttrEndpoint, endpoint),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartSecretStoreSpan starts a client span for a secret store call.
func StartSecretStoreSpan(ctx context.Context, backend, operation, name string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "secret_store."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrBackend, backend),
			attribute.String(SpanAttrOperation, operation),
			attribute.String(SpanAttrSecret, name),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan sets the span status from err and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	span.End()
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
