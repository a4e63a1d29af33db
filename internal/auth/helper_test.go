package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
)

// tokenServer is a fake token endpoint that records every form it receives.
type tokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     any
	raw      string
}

type recordedRequest struct {
	Path        string
	ContentType string
	Form        url.Values
}

func newTokenServer(t *testing.T, status int, body any) *tokenServer {
	t.Helper()

	ts := &tokenServer{status: status, body: body}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Form:        r.PostForm,
		})
		status, body, raw := ts.status, ts.body, ts.raw
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if raw != "" {
			_, _ = w.Write([]byte(raw))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) Requests() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.requests...)
}

// testRegistry points both providers at the fake server.
func testRegistry(serverURL string) *provider.Registry {
	return provider.NewRegistryWith(map[provider.Kind]provider.Config{
		provider.KindGoogle: {
			AuthURLTemplate:  serverURL + "/google/auth",
			RedirectURI:      "urn:ietf:wg:oauth:2.0:oob",
			Scope:            "https://mail.google.com",
			TokenURLTemplate: serverURL + "/google/token",
		},
		provider.KindMicrosoft: {
			AuthURLTemplate:  serverURL + "/{tenant}/authorize",
			RedirectURI:      "https://login.microsoftonline.com/common/oauth2/nativeclient",
			Scope:            "offline_access https://outlook.office365.com/.default",
			TokenURLTemplate: serverURL + "/{tenant}/token",
		},
	})
}

func newTestHelper(ts *tokenServer, opts ...Option) *Helper {
	base := []Option{
		WithRegistry(testRegistry(ts.URL)),
		WithHTTPClient(ts.Client()),
		WithLogger(logging.Discard()),
	}
	return New(append(base, opts...)...)
}

func TestNew_Defaults(t *testing.T) {
	h := New()
	require.NotNil(t, h.Registry())
	require.NotNil(t, h.httpClient)
	require.NotNil(t, h.decoder)
	require.NotNil(t, h.logger)
	require.Equal(t, []provider.Kind{provider.KindGoogle, provider.KindMicrosoft}, h.Registry().Kinds())
}
