package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
)

// Grant types.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// ExchangeRequest holds the inputs of an authorization code exchange.
type ExchangeRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
	Provider     string
	// Tenant is only used by tenant-scoped providers; empty means "common".
	Tenant string
}

// ExchangeCode exchanges an authorization code for a normalized Token record.
//
// Microsoft records get an expires_at field copied from the access token's
// exp claim. Google records must carry a refresh_token.
func (h *Helper) ExchangeCode(ctx context.Context, req ExchangeRequest) (Token, error) {
	cfg, err := h.registry.Lookup(req.Provider)
	if err != nil {
		return nil, err
	}

	tokenURL := cfg.TokenURL(req.Tenant)
	form := url.Values{
		"client_id":     {req.ClientID},
		"client_secret": {req.ClientSecret},
		"redirect_uri":  {cfg.RedirectURI},
		"code":          {req.Code},
		"grant_type":    {GrantAuthorizationCode},
	}

	token, err := h.postForm(ctx, req.Provider, tokenURL, form)
	if err != nil {
		return nil, err
	}

	if err := h.normalize(provider.Kind(req.Provider), tokenURL, token); err != nil {
		return nil, err
	}

	h.logger.Info("authorization code exchanged",
		logging.Provider(req.Provider),
		logging.Tenant(req.Tenant),
		logging.Status(logging.StatusSuccess))

	return token, nil
}

// postForm sends a form-encoded POST to a token endpoint and decodes the JSON answer.
func (h *Helper) postForm(ctx context.Context, providerName, tokenURL string, form url.Values) (token Token, err error) {
	grantType := form.Get("grant_type")
	ctx, span := instrumentation.StartTokenEndpointSpan(ctx, providerName, grantType, tokenURL)
	start := time.Now()
	defer func() {
		h.metrics.RecordTokenEndpointRequest(ctx, providerName, grantType, instrumentation.StatusFromError(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	fail := func(kind error, status int, cause error) *EndpointError {
		return &EndpointError{
			Provider:   providerName,
			Operation:  OperationExchange,
			Endpoint:   tokenURL,
			StatusCode: status,
			Kind:       kind,
			Err:        cause,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fail(ErrTransport, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	logger := logging.WithOperation(logging.WithProvider(h.logger, providerName), OperationExchange)
	logger.Debug("calling token endpoint",
		logging.Endpoint(tokenURL),
		logging.TraceID(instrumentation.GetTraceID(ctx)))

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fail(ErrTransport, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := fail(ErrTransport, resp.StatusCode, nil)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var oauthErr oauthErrorBody
		if json.Unmarshal(body, &oauthErr) == nil {
			e.Code = oauthErr.Error
			e.Description = oauthErr.ErrorDescription
		}
		return nil, e
	}

	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fail(ErrMalformedResponse, resp.StatusCode, fmt.Errorf("decode token response: %w", err))
	}
	if token == nil {
		return nil, fail(ErrMalformedResponse, resp.StatusCode, errors.New("empty token response"))
	}

	accessToken, _ := token.AccessToken()
	logger.Debug("token endpoint answered",
		slog.Int("status_code", resp.StatusCode),
		logging.AccessToken(accessToken))

	return token, nil
}

// normalize applies the provider-specific token shape rules.
func (h *Helper) normalize(kind provider.Kind, tokenURL string, token Token) error {
	malformed := func(format string, args ...any) error {
		return &EndpointError{
			Provider:  string(kind),
			Operation: OperationExchange,
			Endpoint:  tokenURL,
			Kind:      ErrMalformedResponse,
			Err:       fmt.Errorf(format, args...),
		}
	}

	switch kind {
	case provider.KindMicrosoft:
		accessToken, ok := token.AccessToken()
		if !ok {
			return malformed("response has no %s", FieldAccessToken)
		}
		claims, err := h.decoder.Decode(accessToken)
		if err != nil {
			return malformed("decode %s: %w", FieldAccessToken, err)
		}
		exp, err := claims.GetExpirationTime()
		if err != nil {
			return malformed("read exp claim: %w", err)
		}
		if exp == nil {
			return malformed("%s has no exp claim", FieldAccessToken)
		}
		token[FieldExpiresAt] = exp.Unix()

	case provider.KindGoogle:
		if _, ok := token.RefreshToken(); !ok {
			return malformed("response has no %s", FieldRefreshToken)
		}
	}

	return nil
}
