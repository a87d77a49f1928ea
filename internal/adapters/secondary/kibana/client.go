// Package kibana adapts the log backend's HTTP surface: session
// authentication (certificate single-sign-on, cookie probe, password login
// provider negotiation) and the search endpoint used for token extraction.
package kibana

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

const (
	xsrfHeader  = "kbn-xsrf"
	probePath   = "/internal/security/me"
	loginPath   = "/internal/security/login"
	proxyPath   = "/api/console/proxy"
	searchIndex = "logs-*,filebeat-*"

	// Name of the session cookie the backend issues.
	sessionCookieName = "sid"

	defaultTimeout = 60 * time.Second
)

// Client talks to the log backend. It implements both
// ports.SessionAuthenticator and ports.LogSearcher over one underlying
// HTTP client, so the mutual-TLS client certificate installed during
// certificate authentication is also presented on subsequent queries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	searchSize int

	mu         sync.RWMutex
	clientCert *tls.Certificate
}

// NewClient creates a backend client from configuration.
func NewClient(config *ports.Configuration, logger *slog.Logger) (*Client, error) {
	if config == nil {
		return nil, &errors.ValidationError{
			Field:   "config",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(strings.TrimRight(config.Backend.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", config.Backend.URL, err)
	}

	timeout := config.Backend.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    base,
		logger:     logger,
		searchSize: config.Query.Size,
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c.httpClient = &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion:           tls.VersionTLS12,
				InsecureSkipVerify:   config.Backend.InsecureSkipVerify, //nolint:gosec // operator-controlled debugging toggle
				GetClientCertificate: c.getClientCertificate,
			},
		},
	}

	return c, nil
}

// getClientCertificate presents the installed client certificate when the
// backend requests one during the TLS handshake. Returning an empty
// certificate when none is installed lets the handshake proceed without
// client auth, which the backend answers with its regular login redirect.
func (c *Client) getClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.clientCert != nil {
		return c.clientCert, nil
	}
	return &tls.Certificate{}, nil
}

func (c *Client) setClientCertificate(cert tls.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientCert = &cert
}

// ClearClientCertificate drops the working certificate copy, e.g. after the
// session it served is invalidated.
func (c *Client) ClearClientCertificate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientCert = nil
}

// resetCookies expires the cookies accumulated for the backend so a new
// authentication flow starts clean. The jar itself stays in place for the
// client's lifetime; requests already in flight keep a consistent view.
func (c *Client) resetCookies() {
	jar := c.httpClient.Jar
	cookies := jar.Cookies(c.baseURL)
	expired := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		expired = append(expired, &http.Cookie{
			Name:   cookie.Name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
	jar.SetCookies(c.baseURL, expired)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// sessionCookie finds the backend session cookie accumulated in the jar.
func (c *Client) sessionCookie() (string, bool) {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == sessionCookieName {
			return cookie.Name + "=" + cookie.Value, true
		}
	}
	return "", false
}

// asNetworkError wraps connection-level failures as the unreachable
// sentinel. HTTP status failures never take this path.
func asNetworkError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errors.NewDomainError(errors.ErrNetworkUnreachable, urlErr)
	}
	return errors.NewDomainError(errors.ErrNetworkUnreachable, err)
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
