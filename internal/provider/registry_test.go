package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestRegistry_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"google", "google", false},
		{"microsoft", "microsoft", false},
		{"unknown", "yahoo", true},
		{"empty", "", true},
		{"wrong case", "Google", true},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := r.Lookup(tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownProviderKind))
				assert.Contains(t, err.Error(), "google, microsoft")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.AuthURLTemplate)
			assert.NotEmpty(t, cfg.TokenURLTemplate)
			assert.NotEmpty(t, cfg.RedirectURI)
			assert.NotEmpty(t, cfg.Scope)
		})
	}
}

func TestConfig_TenantSubstitution(t *testing.T) {
	r := NewRegistry()

	ms, err := r.Lookup("microsoft")
	require.NoError(t, err)

	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/authorize", ms.AuthURL(""))
	assert.Equal(t, "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token",
		ms.TokenURL("contoso.onmicrosoft.com"))

	google, err := r.Lookup("google")
	require.NoError(t, err)

	// No placeholder: tenant is ignored.
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth", google.AuthURL("contoso"))
	assert.Equal(t, "https://accounts.google.com/o/oauth2/token", google.TokenURL(""))
}

func TestConfig_Endpoint(t *testing.T) {
	cfg := Config{
		AuthURLTemplate:  "https://example.com/{tenant}/auth",
		TokenURLTemplate: "https://example.com/{tenant}/token",
	}

	ep := cfg.Endpoint("acme")
	assert.Equal(t, "https://example.com/acme/auth", ep.AuthURL)
	assert.Equal(t, "https://example.com/acme/token", ep.TokenURL)
	assert.Equal(t, oauth2.AuthStyleInParams, ep.AuthStyle)
}

func TestRegistry_Kinds(t *testing.T) {
	assert.Equal(t, []Kind{KindGoogle, KindMicrosoft}, NewRegistry().Kinds())
}

func TestNewRegistryWith_IgnoresUnsupportedKinds(t *testing.T) {
	r := NewRegistryWith(map[Kind]Config{
		KindGoogle: {AuthURLTemplate: "http://127.0.0.1/auth"},
		"yahoo":    {AuthURLTemplate: "http://127.0.0.1/yahoo"},
	})

	assert.Equal(t, []Kind{KindGoogle}, r.Kinds())

	_, err := r.Lookup("yahoo")
	assert.ErrorIs(t, err, ErrUnknownProviderKind)

	_, err = r.Lookup("microsoft")
	assert.ErrorIs(t, err, ErrUnknownProviderKind)
}
