package kibana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

func TestAuthenticateWithCertificate_CapturesRedirectIssuedCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/security/cert_auth", http.StatusFound)
	})
	mux.HandleFunc("/security/cert_auth", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "issued-by-handshake", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := testClient(t, server.URL)
	cred, err := c.AuthenticateWithCertificate(context.Background(), testExportedCredential(t))
	require.NoError(t, err)

	assert.Equal(t, domain.KindCertificate, cred.Kind)
	assert.Equal(t, "sid=issued-by-handshake", cred.Cookie)
	assert.False(t, cred.IssuedAt.IsZero())
}

func TestAuthenticateWithCertificate_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel *errors.DomainError
	}{
		{"401 means rejected", http.StatusUnauthorized, errors.ErrCertificateRejected},
		{"403 means rejected", http.StatusForbidden, errors.ErrCertificateRejected},
		{"500 is a backend error", http.StatusInternalServerError, errors.ErrBackendQueryError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := testClient(t, server.URL)
			_, err := c.AuthenticateWithCertificate(context.Background(), testExportedCredential(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestAuthenticateWithCertificate_NoCookieIsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.AuthenticateWithCertificate(context.Background(), testExportedCredential(t))
	assert.True(t, errors.Is(err, errors.ErrCertificateRejected))
}

func TestAuthenticateWithCertificate_UnreachableBackend(t *testing.T) {
	c := testClient(t, "http://127.0.0.1:1")
	_, err := c.AuthenticateWithCertificate(context.Background(), testExportedCredential(t))
	assert.True(t, errors.Is(err, errors.ErrNetworkUnreachable))
}

func TestAuthenticateWithCookie_ProbesWithNormalizedCookie(t *testing.T) {
	var gotCookie, gotXSRF string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, probePath, r.URL.Path)
		gotCookie = r.Header.Get("Cookie")
		gotXSRF = r.Header.Get(xsrfHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	// A bare cookie value is normalized to the session cookie name.
	cred, err := c.AuthenticateWithCookie(context.Background(), "rawvalue")
	require.NoError(t, err)
	assert.Equal(t, "sid=rawvalue", gotCookie)
	assert.Equal(t, "true", gotXSRF)
	assert.Equal(t, domain.KindCookie, cred.Kind)
	assert.Equal(t, "sid=rawvalue", cred.Cookie)

	// A fully-formed cookie passes through untouched.
	_, err = c.AuthenticateWithCookie(context.Background(), "sid=already-formed")
	require.NoError(t, err)
	assert.Equal(t, "sid=already-formed", gotCookie)
}

func TestAuthenticateWithCookie_StaleCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.AuthenticateWithCookie(context.Background(), "sid=stale")
	assert.True(t, errors.Is(err, errors.ErrSessionExpired))
}

func TestAuthenticateWithPassword_NegotiatesProvider(t *testing.T) {
	var got loginRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, loginPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "true", r.Header.Get(xsrfHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "issued-by-login", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	cred, err := c.AuthenticateWithPassword(context.Background(), "operator", "hunter2", "basic", "basic")
	require.NoError(t, err)

	assert.Equal(t, "basic", got.ProviderType)
	assert.Equal(t, "basic", got.ProviderName)
	assert.Equal(t, "/", got.CurrentURL)
	assert.Equal(t, "operator", got.Params.Username)
	assert.Equal(t, "hunter2", got.Params.Password)

	assert.Equal(t, domain.KindPassword, cred.Kind)
	assert.Equal(t, "sid=issued-by-login", cred.Cookie)
	assert.Equal(t, "basic", cred.ProviderType)
}

func TestAuthenticateWithPassword_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel *errors.DomainError
	}{
		{"401 means bad credentials", http.StatusUnauthorized, errors.ErrInvalidCredentials},
		{"403 means bad credentials", http.StatusForbidden, errors.ErrInvalidCredentials},
		{"400 means unknown provider", http.StatusBadRequest, errors.ErrProviderNotConfigured},
		{"500 is a backend error", http.StatusInternalServerError, errors.ErrBackendQueryError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := testClient(t, server.URL)
			_, err := c.AuthenticateWithPassword(context.Background(), "operator", "wrong", "basic", "basic")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestAuthenticateWithPassword_MissingCookieIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.AuthenticateWithPassword(context.Background(), "operator", "hunter2", "basic", "basic")
	assert.True(t, errors.Is(err, errors.ErrBackendQueryError))
}
