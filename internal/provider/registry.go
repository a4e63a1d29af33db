package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/oauth2"
)

// Kind identifies a mailbox provider.
type Kind string

const (
	// KindGoogle is the consumer provider (Gmail).
	KindGoogle Kind = "google"
	// KindMicrosoft is the enterprise provider (Exchange Online / Office 365).
	KindMicrosoft Kind = "microsoft"
)

// DefaultTenant is substituted for the {tenant} placeholder when no tenant is given.
const DefaultTenant = "common"

// tenantPlaceholder is replaced in URL templates.
const tenantPlaceholder = "{tenant}"

// ErrUnknownProviderKind is returned when a provider identifier is not registered.
var ErrUnknownProviderKind = errors.New("unknown provider kind")

// Config describes the OAuth2 endpoints of a provider.
type Config struct {
	// AuthURLTemplate is the authorization endpoint; may contain {tenant}.
	AuthURLTemplate string
	// RedirectURI is sent with the consent request and the code exchange.
	RedirectURI string
	// Scope is the space separated scope string requested at consent time.
	Scope string
	// TokenURLTemplate is the token endpoint; may contain {tenant}.
	TokenURLTemplate string
}

// AuthURL renders the authorization endpoint for the given tenant.
func (c Config) AuthURL(tenant string) string {
	return renderTemplate(c.AuthURLTemplate, tenant)
}

// TokenURL renders the token endpoint for the given tenant.
func (c Config) TokenURL(tenant string) string {
	return renderTemplate(c.TokenURLTemplate, tenant)
}

// Endpoint returns the rendered endpoints in x/oauth2 form.
// Client credentials are always sent in the request body.
func (c Config) Endpoint(tenant string) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   c.AuthURL(tenant),
		TokenURL:  c.TokenURL(tenant),
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func renderTemplate(tmpl, tenant string) string {
	if tenant == "" {
		tenant = DefaultTenant
	}
	return strings.ReplaceAll(tmpl, tenantPlaceholder, tenant)
}

// Google OAuth constants.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://accounts.google.com/o/oauth2/token" //nolint:gosec // G101: Not credentials, OAuth endpoint URL
	googleRedirectURI = "urn:ietf:wg:oauth:2.0:oob"
	googleScope       = "https://mail.google.com"
)

// Microsoft OAuth constants.
const (
	microsoftAuthURL = "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	microsoftTokenURL    = "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token"
	microsoftRedirectURI = "https://login.microsoftonline.com/common/oauth2/nativeclient"
	microsoftScope       = "offline_access https://outlook.office365.com/.default"
)

// DefaultConfigs returns the built-in provider configurations.
func DefaultConfigs() map[Kind]Config {
	return map[Kind]Config{
		KindGoogle: {
			AuthURLTemplate:  googleAuthURL,
			RedirectURI:      googleRedirectURI,
			Scope:            googleScope,
			TokenURLTemplate: googleTokenURL,
		},
		KindMicrosoft: {
			AuthURLTemplate:  microsoftAuthURL,
			RedirectURI:      microsoftRedirectURI,
			Scope:            microsoftScope,
			TokenURLTemplate: microsoftTokenURL,
		},
	}
}

// Registry maps provider identifiers to their configuration.
type Registry struct {
	providers map[Kind]Config
}

// NewRegistry creates a registry holding the built-in provider configurations.
func NewRegistry() *Registry {
	return NewRegistryWith(DefaultConfigs())
}

// NewRegistryWith creates a registry from the given configurations.
// Only the google and microsoft kinds are accepted; other entries are ignored.
func NewRegistryWith(configs map[Kind]Config) *Registry {
	providers := make(map[Kind]Config, len(configs))
	for kind, cfg := range configs {
		if kind != KindGoogle && kind != KindMicrosoft {
			continue
		}
		providers[kind] = cfg
	}
	return &Registry{providers: providers}
}

// Lookup returns the configuration for the given provider identifier.
func (r *Registry) Lookup(kind string) (Config, error) {
	cfg, ok := r.providers[Kind(kind)]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnknownProviderKind, kind, strings.Join(r.kindNames(), ", "))
	}
	return cfg, nil
}

// Kinds returns the registered provider identifiers in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r *Registry) kindNames() []string {
	kinds := r.Kinds()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return names
}
