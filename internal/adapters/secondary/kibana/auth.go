package kibana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

// AuthenticateWithCertificate performs the redirect-negotiated certificate
// handshake: an unauthenticated request to the backend root is redirected
// to the certificate-auth endpoint, the mutual-TLS handshake presents the
// exported certificate, and the backend issues a session cookie that the
// redirect chain deposits in the jar.
func (c *Client) AuthenticateWithCertificate(ctx context.Context, cred *domain.ExportedCredential) (*domain.SessionCredential, error) {
	tlsCert, err := cred.TLSCertificate()
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible, err)
	}
	c.setClientCertificate(tlsCert)
	c.resetCookies()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build handshake request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.ClearClientCertificate()
		return nil, asNetworkError(err)
	}
	defer drainAndClose(resp)

	if isAuthStatus(resp.StatusCode) {
		c.ClearClientCertificate()
		return nil, errors.NewDomainError(errors.ErrCertificateRejected,
			fmt.Errorf("backend answered %d after certificate handshake", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		c.ClearClientCertificate()
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("unexpected status %d during certificate handshake", resp.StatusCode))
	}

	cookie, ok := c.sessionCookie()
	if !ok {
		c.ClearClientCertificate()
		return nil, errors.NewDomainError(errors.ErrCertificateRejected,
			fmt.Errorf("handshake completed but backend issued no session cookie"))
	}

	c.logger.Info("certificate handshake established backend session")
	return &domain.SessionCredential{
		Kind:     domain.KindCertificate,
		Cookie:   cookie,
		IssuedAt: time.Now(),
	}, nil
}

// AuthenticateWithCookie validates a pre-supplied cookie with a lightweight
// authenticated probe.
func (c *Client) AuthenticateWithCookie(ctx context.Context, rawCookie string) (*domain.SessionCredential, error) {
	cookie := strings.TrimSpace(rawCookie)
	if !strings.Contains(cookie, "=") {
		cookie = sessionCookieName + "=" + cookie
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(probePath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set(xsrfHeader, "true")
	req.Header.Set("Cookie", cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, asNetworkError(err)
	}
	defer drainAndClose(resp)

	if isAuthStatus(resp.StatusCode) {
		return nil, errors.NewDomainError(errors.ErrSessionExpired,
			fmt.Errorf("backend rejected the supplied cookie with status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("unexpected status %d from session probe", resp.StatusCode))
	}

	c.logger.Info("pre-supplied cookie validated against backend")
	return &domain.SessionCredential{
		Kind:     domain.KindCookie,
		Cookie:   cookie,
		IssuedAt: time.Now(),
	}, nil
}

// loginRequest is the backend's login-provider negotiation payload. The
// provider type and name select which of potentially several configured
// authentication providers handles the credentials.
type loginRequest struct {
	ProviderType string      `json:"providerType"`
	ProviderName string      `json:"providerName"`
	CurrentURL   string      `json:"currentURL"`
	Params       loginParams `json:"params"`
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateWithPassword performs provider-negotiated password login.
func (c *Client) AuthenticateWithPassword(ctx context.Context, username, password, providerType, providerName string) (*domain.SessionCredential, error) {
	body, err := json.Marshal(loginRequest{
		ProviderType: providerType,
		ProviderName: providerName,
		CurrentURL:   "/",
		Params:       loginParams{Username: username, Password: password},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	c.resetCookies()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(loginPath), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set(xsrfHeader, "true")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, asNetworkError(err)
	}
	defer drainAndClose(resp)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		// fallthrough to cookie capture
	case isAuthStatus(resp.StatusCode):
		return nil, errors.NewDomainError(errors.ErrInvalidCredentials,
			fmt.Errorf("backend rejected credentials with status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest:
		return nil, errors.NewDomainError(errors.ErrProviderNotConfigured,
			fmt.Errorf("backend rejected login provider %s/%s", providerType, providerName))
	default:
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("unexpected status %d from login", resp.StatusCode))
	}

	cookie, ok := c.sessionCookie()
	if !ok {
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("login succeeded but backend issued no session cookie"))
	}

	c.logger.Info("password login established backend session",
		"provider_type", providerType,
		"provider_name", providerName,
	)
	return &domain.SessionCredential{
		Kind:         domain.KindPassword,
		Cookie:       cookie,
		IssuedAt:     time.Now(),
		ProviderType: providerType,
		ProviderName: providerName,
	}, nil
}

// drainAndClose releases the connection for reuse.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
