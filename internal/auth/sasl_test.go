package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/emersion/go-sasl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
)

func TestOAuth2String(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "AT",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})

	var refreshed []Token
	h := newTestHelper(ts, WithTokenRefreshHandler(TokenRefreshFunc(func(_ context.Context, tok Token) error {
		refreshed = append(refreshed, tok)
		return nil
	})))

	req := SASLRequest{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		Token:        Token{FieldRefreshToken: "R"},
		Username:     "u@example.com",
	}

	got, err := h.OAuth2String(context.Background(), req)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, "user=u@example.com\x01auth=Bearer AT\x01\x01", string(raw))

	reqs := ts.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/google/token", reqs[0].Path)
	assert.Equal(t, "refresh_token", reqs[0].Form.Get("grant_type"))
	assert.Equal(t, "R", reqs[0].Form.Get("refresh_token"))
	assert.Equal(t, "client-1", reqs[0].Form.Get("client_id"))
	assert.Equal(t, "secret-1", reqs[0].Form.Get("client_secret"))

	require.Len(t, refreshed, 1)
	assert.Equal(t, "AT", refreshed[0][FieldAccessToken])
	assert.Equal(t, "Bearer", refreshed[0][FieldTokenType])
	assert.Contains(t, refreshed[0], FieldExpiresAt)

	// A second call is served from the cache.
	again, err := h.OAuth2String(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, ts.Requests(), 1)
	assert.Len(t, refreshed, 1)
}

func TestOAuth2String_CacheKeyedByRefreshToken(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "AT",
		"expires_in":   3600,
	})
	h := newTestHelper(ts)

	for _, rt := range []string{"R1", "R2", "R1"} {
		_, err := h.OAuth2String(context.Background(), SASLRequest{
			ClientID: "c",
			Token:    Token{FieldRefreshToken: rt},
			Username: "u@example.com",
		})
		require.NoError(t, err)
	}

	assert.Len(t, ts.Requests(), 2)
}

func TestOAuth2String_ExpiredCacheRefreshes(t *testing.T) {
	// expires_in below the x/oauth2 expiry delta makes the token stale at once.
	ts := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "AT",
		"expires_in":   1,
	})
	h := newTestHelper(ts)

	req := SASLRequest{ClientID: "c", Token: Token{FieldRefreshToken: "R"}, Username: "u"}
	for i := 0; i < 2; i++ {
		_, err := h.OAuth2String(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Len(t, ts.Requests(), 2)
}

func TestOAuth2String_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		token     Token
		wantErr   error
		wantCalls int
	}{
		{
			name:      "missing refresh token",
			status:    http.StatusOK,
			body:      map[string]any{"access_token": "AT"},
			token:     Token{FieldAccessToken: "old"},
			wantErr:   ErrMalformedResponse,
			wantCalls: 0,
		},
		{
			name:      "endpoint rejects refresh token",
			status:    http.StatusBadRequest,
			body:      map[string]any{"error": "invalid_grant"},
			token:     Token{FieldRefreshToken: "R"},
			wantErr:   ErrTransport,
			wantCalls: 1,
		},
		{
			name:      "response without access token",
			status:    http.StatusOK,
			body:      map[string]any{"token_type": "Bearer"},
			token:     Token{FieldRefreshToken: "R"},
			wantErr:   ErrMalformedResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.status, tt.body)
			h := newTestHelper(ts)

			_, err := h.OAuth2String(context.Background(), SASLRequest{
				ClientID: "c",
				Token:    tt.token,
				Username: "u@example.com",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, ts.Requests(), tt.wantCalls)
		})
	}
}

func TestOAuth2String_TransportErrorNamesEndpoint(t *testing.T) {
	ts := newTokenServer(t, http.StatusUnauthorized, map[string]any{
		"error":             "invalid_client",
		"error_description": "bad secret",
	})
	h := newTestHelper(ts)

	_, err := h.OAuth2String(context.Background(), SASLRequest{
		ClientID: "c",
		Token:    Token{FieldRefreshToken: "R"},
	})
	require.Error(t, err)

	var endpointErr *EndpointError
	require.ErrorAs(t, err, &endpointErr)
	assert.Equal(t, OperationRefresh, endpointErr.Operation)
	assert.Equal(t, http.StatusUnauthorized, endpointErr.StatusCode)
	assert.Equal(t, "invalid_client", endpointErr.Code)
	assert.Contains(t, err.Error(), ts.URL+"/google/token")
}

func TestOAuth2String_RefreshHandlerError(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "AT", "expires_in": 3600})
	handlerErr := errors.New("vault unavailable")
	h := newTestHelper(ts, WithTokenRefreshHandler(TokenRefreshFunc(func(context.Context, Token) error {
		return handlerErr
	})))

	_, err := h.OAuth2String(context.Background(), SASLRequest{
		ClientID: "c",
		Token:    Token{FieldRefreshToken: "R"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, handlerErr)
}

func TestOAuth2String_RefreshHandlerRetried(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "AT", "expires_in": 3600})
	handlerErr := errors.New("vault unavailable")

	var calls int
	h := newTestHelper(ts, WithTokenRefreshHandler(TokenRefreshFunc(func(context.Context, Token) error {
		calls++
		if calls == 1 {
			return handlerErr
		}
		return nil
	})))

	req := SASLRequest{ClientID: "c", Token: Token{FieldRefreshToken: "R"}, Username: "u@example.com"}

	_, err := h.OAuth2String(context.Background(), req)
	require.ErrorIs(t, err, handlerErr)

	// The rejected token was not cached, so the second call refreshes again
	// and the handler gets to store the result.
	got, err := h.OAuth2String(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, 2, calls)
	assert.Len(t, ts.Requests(), 2)

	// Once stored, the token is served from the cache.
	_, err = h.OAuth2String(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, ts.Requests(), 2)
}

func TestOAuth2String_LogsMaskedToken(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "ya29.secret", "expires_in": 3600})

	var buf bytes.Buffer
	h := newTestHelper(ts, WithLogger(logging.New(&buf, true)))

	_, err := h.OAuth2String(context.Background(), SASLRequest{
		ClientID: "c",
		Token:    Token{FieldRefreshToken: "R"},
		Username: "u@example.com",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "provider=google")
	assert.Contains(t, out, "operation=refresh")
	assert.Contains(t, out, `access_token="[token:11 chars]"`)
	assert.Contains(t, out, "user_domain=example.com")
	assert.NotContains(t, out, "ya29.secret")
	assert.NotContains(t, out, "u@example.com")
}

func TestOAuth2String_GoogleNotRegistered(t *testing.T) {
	h := New(WithRegistry(provider.NewRegistryWith(map[provider.Kind]provider.Config{
		provider.KindMicrosoft: provider.DefaultConfigs()[provider.KindMicrosoft],
	})))

	_, err := h.OAuth2String(context.Background(), SASLRequest{Token: Token{FieldRefreshToken: "R"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownProviderKind)
}

func TestXOAUTH2String(t *testing.T) {
	assert.Equal(t, "user=a@b.c\x01auth=Bearer tok\x01\x01", XOAUTH2String("a@b.c", "tok"))
}

func TestXOAUTH2Client(t *testing.T) {
	var client sasl.Client = NewXOAUTH2Client("a@b.c", "tok")

	mech, ir, err := client.Start()
	require.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=a@b.c\x01auth=Bearer tok\x01\x01", string(ir))

	resp, err := client.Next([]byte(`{"status":"401"}`))
	require.NoError(t, err)
	assert.Empty(t, resp)

	_, err = client.Next(nil)
	assert.ErrorIs(t, err, sasl.ErrUnexpectedServerChallenge)
}
