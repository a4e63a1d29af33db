package auth

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// Token record field names.
const (
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldExpiresAt    = "expires_at"
	FieldScope        = "scope"
	FieldIDToken      = "id_token"
)

// Token is the JSON object returned by a token endpoint, after normalization.
// Its shape varies by provider.
type Token map[string]any

// AccessToken returns the access_token field.
func (t Token) AccessToken() (string, bool) {
	return t.stringField(FieldAccessToken)
}

// RefreshToken returns the refresh_token field.
func (t Token) RefreshToken() (string, bool) {
	return t.stringField(FieldRefreshToken)
}

// ExpiresAt returns the expires_at field as a time.
func (t Token) ExpiresAt() (time.Time, bool) {
	var secs int64
	switch v := t[FieldExpiresAt].(type) {
	case int64:
		secs = v
	case int:
		secs = int64(v)
	case float64:
		secs = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		secs = n
	default:
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// Clone returns a shallow copy of the record as a plain map.
func (t Token) Clone() map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t Token) stringField(key string) (string, bool) {
	v, ok := t[key].(string)
	return v, ok && v != ""
}

// TokenFromOAuth2 converts an x/oauth2 token into a Token record.
func TokenFromOAuth2(tok *oauth2.Token) Token {
	record := Token{
		FieldAccessToken: tok.AccessToken,
	}
	if tok.TokenType != "" {
		record[FieldTokenType] = tok.TokenType
	}
	if tok.RefreshToken != "" {
		record[FieldRefreshToken] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		record[FieldExpiresAt] = tok.Expiry.Unix()
	}
	for _, key := range []string{FieldScope, FieldIDToken, FieldExpiresIn} {
		if v := tok.Extra(key); v != nil && v != "" {
			record[key] = v
		}
	}
	return record
}
