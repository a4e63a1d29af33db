package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
)

// TokenRefreshHandler receives Token records obtained through a refresh.
// It is the token-refresh event of the mail client.
type TokenRefreshHandler interface {
	OnTokenRefresh(ctx context.Context, token Token) error
}

// TokenRefreshFunc adapts a function to TokenRefreshHandler.
type TokenRefreshFunc func(ctx context.Context, token Token) error

// OnTokenRefresh implements TokenRefreshHandler.
func (f TokenRefreshFunc) OnTokenRefresh(ctx context.Context, token Token) error {
	return f(ctx, token)
}

// Helper runs the OAuth2 flow against the registered providers.
// It is safe for concurrent use.
type Helper struct {
	registry       *provider.Registry
	httpClient     *http.Client
	decoder        ClaimsDecoder
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
	refreshHandler TokenRefreshHandler

	mu    sync.Mutex
	cache map[cacheKey]*oauth2.Token
}

type cacheKey struct {
	clientID     string
	refreshToken string
}

// Option configures a Helper.
type Option func(*Helper)

// WithRegistry sets the provider registry (default: built-in providers).
func WithRegistry(r *provider.Registry) Option {
	return func(h *Helper) { h.registry = r }
}

// WithHTTPClient sets the HTTP client used for token endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Helper) { h.httpClient = c }
}

// WithClaimsDecoder sets the JWT claims decoder (default: UnverifiedDecoder).
func WithClaimsDecoder(d ClaimsDecoder) Option {
	return func(h *Helper) { h.decoder = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Helper) { h.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(h *Helper) { h.metrics = m }
}

// WithTokenRefreshHandler sets the handler notified after every network refresh.
func WithTokenRefreshHandler(th TokenRefreshHandler) Option {
	return func(h *Helper) { h.refreshHandler = th }
}

// New creates a Helper.
func New(opts ...Option) *Helper {
	h := &Helper{
		cache: make(map[cacheKey]*oauth2.Token),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registry == nil {
		h.registry = provider.NewRegistry()
	}
	if h.httpClient == nil {
		h.httpClient = instrumentation.NewHTTPClient(0)
	}
	if h.decoder == nil {
		h.decoder = NewUnverifiedDecoder()
	}
	h.logger = logging.OrDefault(h.logger)
	return h
}

// Registry returns the provider registry in use.
func (h *Helper) Registry() *provider.Registry {
	return h.registry
}

// PermissionURL returns the consent URL the user opens in a browser.
// tenant only matters for providers with a tenant-scoped endpoint; empty
// selects provider.DefaultTenant.
func (h *Helper) PermissionURL(clientID, kind, tenant string) (string, error) {
	cfg, err := h.registry.Lookup(kind)
	if err != nil {
		return "", err
	}

	conf := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    cfg.Endpoint(tenant),
		RedirectURL: cfg.RedirectURI,
		Scopes:      []string{cfg.Scope},
	}

	// AuthCodeURL omits the state parameter when it is empty.
	return conf.AuthCodeURL(""), nil
}
