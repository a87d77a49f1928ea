package ports

import (
	"context"

	"github.com/tealgate/instacred/internal/core/domain"
)

// SessionAuthenticator performs the backend's authentication flows and
// returns the issued session credential. Implementations talk HTTPS to the
// log backend; the core never touches the wire directly.
type SessionAuthenticator interface {
	// AuthenticateWithCertificate runs the redirect-negotiated certificate
	// handshake with the exported material and captures the session cookie
	// the backend issues. Fails with ErrCertificateRejected on an
	// authentication-failure response and ErrNetworkUnreachable on
	// connection failure.
	AuthenticateWithCertificate(ctx context.Context, cred *domain.ExportedCredential) (*domain.SessionCredential, error)

	// AuthenticateWithCookie validates a pre-supplied cookie with a
	// lightweight authenticated probe. Fails with ErrSessionExpired when
	// the backend rejects it.
	AuthenticateWithCookie(ctx context.Context, rawCookie string) (*domain.SessionCredential, error)

	// AuthenticateWithPassword performs the backend's login-provider
	// negotiation. Fails with ErrInvalidCredentials or
	// ErrProviderNotConfigured.
	AuthenticateWithPassword(ctx context.Context, username, password, providerType, providerName string) (*domain.SessionCredential, error)
}
