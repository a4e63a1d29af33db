package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/emersion/go-sasl"
	"golang.org/x/oauth2"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
)

// XOAUTH2 is the SASL mechanism name.
const XOAUTH2 = "XOAUTH2"

// SASLRequest holds the inputs of OAuth2String.
type SASLRequest struct {
	ClientID     string
	ClientSecret string
	// Token must carry a refresh_token.
	Token    Token
	Username string
}

// OAuth2String returns the base64 encoded XOAUTH2 string for a Google mailbox.
//
// The refresh_token of req.Token is exchanged for an access token. Access
// tokens are cached per client and refresh token, so only the first call
// (and the first call after expiry) hits the token endpoint.
func (h *Helper) OAuth2String(ctx context.Context, req SASLRequest) (string, error) {
	accessToken, err := h.googleAccessToken(ctx, req)
	if err != nil {
		return "", err
	}

	_, ir, err := NewXOAUTH2Client(req.Username, accessToken).Start()
	if err != nil {
		return "", err
	}

	h.logger.Debug("built sasl string",
		logging.Provider(string(provider.KindGoogle)),
		logging.UserHash(req.Username),
		logging.Domain(req.Username))

	return base64.StdEncoding.EncodeToString(ir), nil
}

// XOAUTH2String formats the raw (not base64 encoded) XOAUTH2 initial response.
func XOAUTH2String(username, accessToken string) string {
	return "user=" + username + "\x01auth=Bearer " + accessToken + "\x01\x01"
}

func (h *Helper) googleAccessToken(ctx context.Context, req SASLRequest) (string, error) {
	cfg, err := h.registry.Lookup(string(provider.KindGoogle))
	if err != nil {
		return "", err
	}

	refreshToken, ok := req.Token.RefreshToken()
	if !ok {
		return "", fmt.Errorf("%w: token record has no %s", ErrMalformedResponse, FieldRefreshToken)
	}

	key := cacheKey{clientID: req.ClientID, refreshToken: refreshToken}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cached, ok := h.cache[key]; ok && cached.Valid() {
		return cached.AccessToken, nil
	}

	tok, err := h.refresh(ctx, cfg, req.ClientID, req.ClientSecret, refreshToken)
	if err != nil {
		return "", err
	}

	// Only tokens the handler accepted are cached.
	if h.refreshHandler != nil {
		if err := h.refreshHandler.OnTokenRefresh(ctx, TokenFromOAuth2(tok)); err != nil {
			return "", fmt.Errorf("token refresh handler: %w", err)
		}
	}
	h.cache[key] = tok

	return tok.AccessToken, nil
}

// refresh trades a refresh token for a new access token.
func (h *Helper) refresh(ctx context.Context, cfg provider.Config, clientID, clientSecret, refreshToken string) (tok *oauth2.Token, err error) {
	providerName := string(provider.KindGoogle)
	endpoint := cfg.Endpoint("")

	ctx, span := instrumentation.StartTokenEndpointSpan(ctx, providerName, GrantRefreshToken, endpoint.TokenURL)
	start := time.Now()
	defer func() {
		h.metrics.RecordTokenEndpointRequest(ctx, providerName, GrantRefreshToken, instrumentation.StatusFromError(err), time.Since(start))
		if err != nil {
			h.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.RefreshResultFailure)
		} else {
			h.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.RefreshResultSuccess)
		}
		instrumentation.EndSpan(span, err)
	}()

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
	}

	logger := logging.WithOperation(logging.WithProvider(h.logger, providerName), OperationRefresh)
	logger.Debug("calling token endpoint",
		logging.Endpoint(endpoint.TokenURL),
		logging.TraceID(instrumentation.GetTraceID(ctx)))

	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	tok, err = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classifyRefreshError(providerName, endpoint.TokenURL, err)
	}

	logger.Debug("access token refreshed",
		logging.AccessToken(tok.AccessToken),
		slog.Time("expiry", tok.Expiry))

	return tok, nil
}

func classifyRefreshError(providerName, tokenURL string, err error) error {
	e := &EndpointError{
		Provider:  providerName,
		Operation: OperationRefresh,
		Endpoint:  tokenURL,
		Kind:      ErrMalformedResponse,
		Err:       err,
	}

	var retrieveErr *oauth2.RetrieveError
	var urlErr *url.Error
	switch {
	case errors.As(err, &retrieveErr):
		e.Kind = ErrTransport
		if retrieveErr.Response != nil {
			e.StatusCode = retrieveErr.Response.StatusCode
		}
		e.Code = retrieveErr.ErrorCode
		e.Description = retrieveErr.ErrorDescription
	case errors.As(err, &urlErr):
		e.Kind = ErrTransport
	}
	return e
}

// NewXOAUTH2Client returns a SASL client authenticating with an access token.
// Its initial response is the raw XOAUTH2 string.
func NewXOAUTH2Client(username, accessToken string) sasl.Client {
	return &xoauth2Client{username: username, token: accessToken}
}

type xoauth2Client struct {
	username string
	token    string
}

func (c *xoauth2Client) Start() (mech string, ir []byte, err error) {
	return XOAUTH2, []byte(XOAUTH2String(c.username, c.token)), nil
}

// Next handles the error challenge a server sends on failed XOAUTH2 logins.
// Answering with an empty response makes the server finish the exchange with
// a proper failure status.
func (c *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	if len(challenge) == 0 {
		return nil, sasl.ErrUnexpectedServerChallenge
	}
	return []byte{}, nil
}
