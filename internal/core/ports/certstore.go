package ports

import (
	"context"

	"github.com/tealgate/instacred/internal/core/domain"
)

// CertificateStore abstracts the platform certificate store. Production
// implementations bind to the operating system's store; tests use the
// in-memory implementation.
type CertificateStore interface {
	// ListCandidates enumerates certificates that carry a usable private
	// key and are not expired. Ordering is deterministic: expiry
	// descending, thumbprint as the final tie-break.
	ListCandidates(ctx context.Context) ([]domain.CertificateHandle, error)

	// Export produces the certificate and private key material for a
	// handle, fresh on every call. Fails with ErrCertificateUnavailable
	// when the handle no longer resolves and ErrPrivateKeyInaccessible
	// when the key cannot be exported.
	Export(ctx context.Context, handle domain.CertificateHandle) (*domain.ExportedCredential, error)
}
