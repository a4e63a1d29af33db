package refresh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/mailauth/internal/auth"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/secrets"
)

// TokenKey is the secret value that receives the refreshed token.
const TokenKey = "token"

// OperationPersist names the bridge in logs.
const OperationPersist = "persist_token"

// Bridge writes refreshed tokens into a named secret.
type Bridge struct {
	store      secrets.Store
	secretName string
	logger     *slog.Logger
}

var _ auth.TokenRefreshHandler = (*Bridge)(nil)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge creates a Bridge persisting into the secret named secretName.
func NewBridge(store secrets.Store, secretName string, opts ...Option) *Bridge {
	b := &Bridge{store: store, secretName: secretName}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.WithOperation(logging.WithSecret(logging.OrDefault(b.logger), secretName), OperationPersist)
	return b
}

// SecretName returns the name of the target secret.
func (b *Bridge) SecretName() string {
	return b.secretName
}

// OnTokenRefresh reads the secret, replaces its "token" value with a plain
// copy of token and writes the secret back. Other values are left as they
// are. A missing secret is an error.
func (b *Bridge) OnTokenRefresh(ctx context.Context, token auth.Token) error {
	secret, err := b.store.GetSecret(ctx, b.secretName)
	if err != nil {
		return fmt.Errorf("failed to load secret %q: %w", b.secretName, err)
	}

	if secret.Values == nil {
		secret.Values = map[string]any{}
	}
	secret.Values[TokenKey] = token.Clone()

	if err := b.store.SetSecret(ctx, secret); err != nil {
		return fmt.Errorf("failed to store secret %q: %w", b.secretName, err)
	}

	b.logger.Info("refreshed token persisted", logging.Status(logging.StatusSuccess))
	return nil
}
