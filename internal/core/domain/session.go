package domain

import "time"

// SessionState models the session manager's lifecycle.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
	StateInvalidated
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// CredentialKind identifies which source produced a session credential.
type CredentialKind int

const (
	KindCertificate CredentialKind = iota
	KindCookie
	KindPassword
)

func (k CredentialKind) String() string {
	switch k {
	case KindCertificate:
		return "certificate"
	case KindCookie:
		return "cookie"
	case KindPassword:
		return "password"
	default:
		return "unknown"
	}
}

// SessionCredential is the backend-issued proof of authentication. At most
// one is active per backend per process; replacement is atomic and driven
// exclusively by the session manager.
type SessionCredential struct {
	Kind         CredentialKind
	Cookie       string
	IssuedAt     time.Time
	ExpiresAt    time.Time // zero when the backend gave no estimate
	ProviderType string
	ProviderName string
}

// HasExpiryEstimate reports whether the backend communicated an expiry.
func (c *SessionCredential) HasExpiryEstimate() bool {
	return !c.ExpiresAt.IsZero()
}

// LikelyExpired reports whether the expiry estimate, when present, has passed.
func (c *SessionCredential) LikelyExpired(now time.Time) bool {
	return c.HasExpiryEstimate() && now.After(c.ExpiresAt)
}
