package cli

import (
	"fmt"
	"os"

	"github.com/tealgate/instacred/internal/core/errors"
)

// Exit codes for scripting callers. Auth failures and missing tokens get
// distinct codes so wrappers can react without parsing stderr.
const (
	exitGeneral  = 1
	exitAuth     = 2
	exitNotFound = 3
	exitNetwork  = 4
)

// reportError prints a one-line operator-facing message for err.
func reportError(err error) {
	var domainErr *errors.DomainError
	if !errors.As(err, &domainErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	switch domainErr.Code {
	case "CERTIFICATE_UNAVAILABLE":
		fmt.Fprintln(os.Stderr, "Error: no usable client certificate was found; check the certificate store or configure cookie/password auth")
	case "PRIVATE_KEY_INACCESSIBLE":
		fmt.Fprintln(os.Stderr, "Error: the client certificate's private key could not be exported; it may be marked non-exportable")
	case "CERTIFICATE_REJECTED":
		fmt.Fprintln(os.Stderr, "Error: the log backend rejected the client certificate")
	case "INVALID_CREDENTIALS":
		fmt.Fprintln(os.Stderr, "Error: the log backend rejected the configured username/password")
	case "PROVIDER_NOT_CONFIGURED":
		fmt.Fprintln(os.Stderr, "Error: the configured login provider is not known to the log backend; check auth.provider_type/auth.provider_name")
	case "SESSION_EXPIRED":
		fmt.Fprintln(os.Stderr, "Error: the backend session expired and could not be re-established")
	case "NO_CREDENTIAL_SOURCE":
		fmt.Fprintln(os.Stderr, "Error: no authentication source is configured; set up a certificate, cookie, or username/password")
	case "TOKEN_NOT_FOUND":
		fmt.Fprintln(os.Stderr, "Error: no API token was found in the instance's recent log records; the instance may be idle or the id may be wrong")
	case "NETWORK_UNREACHABLE":
		fmt.Fprintf(os.Stderr, "Error: the log backend is unreachable: %v\n", domainErr.Unwrap())
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func exitCode(err error) int {
	var domainErr *errors.DomainError
	if !errors.As(err, &domainErr) {
		return exitGeneral
	}
	switch {
	case errors.IsAuthFailure(err),
		errors.Is(err, errors.ErrCertificateUnavailable),
		errors.Is(err, errors.ErrPrivateKeyInaccessible),
		errors.Is(err, errors.ErrNoCredentialSource):
		return exitAuth
	case errors.Is(err, errors.ErrTokenNotFound):
		return exitNotFound
	case errors.Is(err, errors.ErrNetworkUnreachable):
		return exitNetwork
	default:
		return exitGeneral
	}
}
