package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

// SessionManager owns the single active backend session credential and its
// lifecycle: Unauthenticated -> Authenticating -> Authenticated ->
// (Expired | Invalidated) -> Authenticating.
//
// All state mutation is serialized. Concurrent callers needing a session
// join one in-flight establishment attempt instead of each starting their
// own, and a caller cancelling mid-flight does not abort the attempt for
// the others: establishment runs under a detached context, so a session
// that completes stays valid for reuse.
type SessionManager struct {
	store   ports.CertificateStore
	auth    ports.SessionAuthenticator
	config  *ports.Configuration
	logger  *slog.Logger
	metrics MetricsReporter

	group singleflight.Group

	mu         sync.Mutex
	state      domain.SessionState
	credential *domain.SessionCredential
}

// NewSessionManager creates a SessionManager. The certificate store may be
// nil when no certificate source is configured.
func NewSessionManager(
	store ports.CertificateStore,
	auth ports.SessionAuthenticator,
	config *ports.Configuration,
	logger *slog.Logger,
	metrics MetricsReporter,
) (*SessionManager, error) {
	if auth == nil {
		return nil, &errors.ValidationError{
			Field:   "auth",
			Value:   nil,
			Message: "session authenticator cannot be nil",
		}
	}
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
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &SessionManager{
		store:   store,
		auth:    auth,
		config:  config,
		logger:  logger,
		metrics: metrics,
		state:   domain.StateUnauthenticated,
	}, nil
}

// State returns the current lifecycle state.
func (m *SessionManager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentSession returns the active credential, or nil when none.
func (m *SessionManager) CurrentSession() *domain.SessionCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.StateAuthenticated {
		return nil
	}
	return m.credential
}

// MarkExpired transitions Authenticated -> Expired. Called by the
// orchestrator when a query comes back with an authentication failure.
func (m *SessionManager) MarkExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == domain.StateAuthenticated {
		m.state = domain.StateExpired
		m.logger.Info("backend session marked expired")
	}
}

// Invalidate clears the credential and transitions to Invalidated. Used for
// explicit operator-triggered re-authentication.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = nil
	m.state = domain.StateInvalidated
	m.logger.Info("backend session invalidated")
}

// Ensure returns the active credential, establishing a session first when
// none exists or the previous one expired or was invalidated. Concurrent
// callers share one establishment attempt.
func (m *SessionManager) Ensure(ctx context.Context) (*domain.SessionCredential, error) {
	if cred := m.CurrentSession(); cred != nil {
		return cred, nil
	}

	flight := context.WithoutCancel(ctx)
	ch := m.group.DoChan("session", func() (interface{}, error) {
		return m.establish(flight)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.SessionCredential), nil
	case <-ctx.Done():
		// The flight keeps running; a session it establishes stays
		// available for the next caller.
		return nil, fmt.Errorf("session establishment abandoned: %w", ctx.Err())
	}
}

// establish drives the configured credential sources in the documented
// priority order: certificate, then cookie, then password. A source that is
// not configured, or a certificate store with no usable candidates, is
// skipped; a source that actively fails surfaces its typed error, except
// that a stale pre-supplied cookie falls through to password login when one
// is configured.
func (m *SessionManager) establish(ctx context.Context) (*domain.SessionCredential, error) {
	m.setState(domain.StateAuthenticating)

	if m.config.HasCertificateSource() && m.store != nil {
		cred, err := m.establishWithCertificate(ctx)
		if err == nil {
			m.adopt(cred)
			return cred, nil
		}
		if !errors.Is(err, errNoCandidates) {
			m.setState(domain.StateUnauthenticated)
			return nil, err
		}
		m.logger.Info("no usable certificate candidates, trying next credential source")
	}

	if m.config.HasCookieSource() {
		cred, err := m.authenticate(ctx, domain.KindCookie, func(ctx context.Context) (*domain.SessionCredential, error) {
			return m.auth.AuthenticateWithCookie(ctx, m.config.Auth.Cookie)
		})
		if err == nil {
			m.adopt(cred)
			return cred, nil
		}
		if !errors.Is(err, errors.ErrSessionExpired) || !m.config.HasPasswordSource() {
			m.setState(domain.StateUnauthenticated)
			return nil, err
		}
		m.logger.Info("pre-supplied cookie rejected, falling back to password login")
	}

	if m.config.HasPasswordSource() {
		cred, err := m.authenticate(ctx, domain.KindPassword, func(ctx context.Context) (*domain.SessionCredential, error) {
			return m.auth.AuthenticateWithPassword(ctx,
				m.config.Auth.Username, m.config.Auth.Password,
				m.config.Auth.ProviderType, m.config.Auth.ProviderName)
		})
		if err != nil {
			m.setState(domain.StateUnauthenticated)
			return nil, err
		}
		m.adopt(cred)
		return cred, nil
	}

	m.setState(domain.StateUnauthenticated)
	return nil, errors.ErrNoCredentialSource
}

// errNoCandidates signals that the certificate source is configured but has
// nothing usable, so establishment should fall through to the next source.
var errNoCandidates = &errors.DomainError{
	Code:    "NO_CERTIFICATE_CANDIDATES",
	Message: "certificate store has no usable candidates",
}

func (m *SessionManager) establishWithCertificate(ctx context.Context) (*domain.SessionCredential, error) {
	handles, err := m.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, errNoCandidates
	}

	// Deterministic store ordering puts the preferred candidate first.
	handle := handles[0]
	exported, err := m.store.Export(ctx, handle)
	if err != nil {
		m.metrics.RecordAuthAttempt(domain.KindCertificate.String(), "failure")
		return nil, err
	}
	// The authenticator keeps its own parsed working copy for the session;
	// the raw export is destroyed as soon as the handshake is over.
	defer exported.Destroy()

	return m.authenticate(ctx, domain.KindCertificate, func(ctx context.Context) (*domain.SessionCredential, error) {
		return m.auth.AuthenticateWithCertificate(ctx, exported)
	})
}

func (m *SessionManager) authenticate(
	ctx context.Context,
	kind domain.CredentialKind,
	fn func(context.Context) (*domain.SessionCredential, error),
) (*domain.SessionCredential, error) {
	cred, err := fn(ctx)
	if err != nil {
		m.metrics.RecordAuthAttempt(kind.String(), "failure")
		m.logger.Warn("authentication attempt failed",
			"method", kind.String(),
			"error", err.Error(),
		)
		return nil, err
	}
	m.metrics.RecordAuthAttempt(kind.String(), "success")
	m.logger.Info("authenticated to log backend", "method", kind.String())
	return cred, nil
}

// adopt atomically replaces the active credential.
func (m *SessionManager) adopt(cred *domain.SessionCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = cred
	m.state = domain.StateAuthenticated
}

func (m *SessionManager) setState(s domain.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}
