// Package errors defines the typed failure taxonomy for instacred.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Is and As re-export the standard helpers so callers matching pipeline
// failures do not need a second errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// DomainError represents errors in the resolution pipeline.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so wrapped instances
// created with NewDomainError compare equal to their sentinel via errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for every failure the pipeline can surface.
var (
	ErrCertificateUnavailable = &DomainError{
		Code:    "CERTIFICATE_UNAVAILABLE",
		Message: "certificate is no longer present in the store",
	}

	ErrPrivateKeyInaccessible = &DomainError{
		Code:    "PRIVATE_KEY_INACCESSIBLE",
		Message: "private key cannot be exported",
	}

	ErrCertificateRejected = &DomainError{
		Code:    "CERTIFICATE_REJECTED",
		Message: "backend rejected the client certificate",
	}

	ErrNetworkUnreachable = &DomainError{
		Code:    "NETWORK_UNREACHABLE",
		Message: "backend could not be reached",
	}

	ErrSessionExpired = &DomainError{
		Code:    "SESSION_EXPIRED",
		Message: "backend session is no longer valid",
	}

	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "username or password was rejected",
	}

	ErrProviderNotConfigured = &DomainError{
		Code:    "PROVIDER_NOT_CONFIGURED",
		Message: "login provider is not configured on the backend",
	}

	ErrTokenNotFound = &DomainError{
		Code:    "TOKEN_NOT_FOUND",
		Message: "no log record yielded an api token for the instance",
	}

	ErrBackendQueryError = &DomainError{
		Code:    "BACKEND_QUERY_ERROR",
		Message: "backend query failed or returned a malformed response",
	}

	ErrNoCredentialSource = &DomainError{
		Code:    "NO_CREDENTIAL_SOURCE",
		Message: "no certificate, cookie, or password source is available",
	}
)

// NewDomainError creates a new domain error with context.
func NewDomainError(base *DomainError, err error) error {
	return &DomainError{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// IsAuthFailure reports whether err belongs to the authentication category.
// Only these codes qualify for the orchestrator's single silent re-authentication.
func IsAuthFailure(err error) bool {
	var de *DomainError
	if !As(err, &de) {
		return false
	}
	switch de.Code {
	case ErrCertificateRejected.Code,
		ErrInvalidCredentials.Code,
		ErrProviderNotConfigured.Code,
		ErrSessionExpired.Code:
		return true
	}
	return false
}

// ValidationError represents input validation errors.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}
