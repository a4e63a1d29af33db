package secrets

import (
	"context"
	"log/slog"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
)

// InstrumentedStore records a span, a metric and a debug log line for every
// operation of the wrapped Store.
type InstrumentedStore struct {
	next    Store
	backend string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Instrument wraps next. metrics and logger may be nil.
func Instrument(next Store, backend string, metrics *instrumentation.Metrics, logger *slog.Logger) *InstrumentedStore {
	return &InstrumentedStore{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  logging.OrDefault(logger),
	}
}

// GetSecret implements Store.
func (s *InstrumentedStore) GetSecret(ctx context.Context, name string) (secret *Secret, err error) {
	ctx, done := s.start(ctx, instrumentation.SecretOperationGet, name)
	defer func() { done(err) }()

	return s.next.GetSecret(ctx, name)
}

// SetSecret implements Store.
func (s *InstrumentedStore) SetSecret(ctx context.Context, secret *Secret) (err error) {
	var name string
	if secret != nil {
		name = secret.Name
	}
	ctx, done := s.start(ctx, instrumentation.SecretOperationSet, name)
	defer func() { done(err) }()

	return s.next.SetSecret(ctx, secret)
}

func (s *InstrumentedStore) start(ctx context.Context, operation, name string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartSecretStoreSpan(ctx, s.backend, operation, name)
	return ctx, func(err error) {
		status := instrumentation.StatusFromError(err)
		s.metrics.RecordSecretStoreOperation(ctx, s.backend, operation, status)
		instrumentation.EndSpan(span, err)

		s.logger.Debug("secret store operation",
			logging.Backend(s.backend),
			logging.Operation(operation),
			slog.String(logging.KeySecret, name),
			logging.Status(status),
			logging.Err(err))
	}
}
