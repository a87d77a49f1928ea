// Package certstore provides certificate store implementations behind the
// ports.CertificateStore interface: an in-memory store for tests and
// pre-exported material, a PEM directory store, and the Windows user store
// driven through certutil.
package certstore

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sort"
	"time"

	"github.com/tealgate/instacred/internal/core/domain"
)

// sortHandles orders candidates deterministically: expiry descending (the
// certificate with the most remaining lifetime first), thumbprint as the
// final tie-break.
func sortHandles(handles []domain.CertificateHandle) {
	sort.Slice(handles, func(i, j int) bool {
		if !handles[i].NotAfter.Equal(handles[j].NotAfter) {
			return handles[i].NotAfter.After(handles[j].NotAfter)
		}
		return handles[i].Thumbprint < handles[j].Thumbprint
	})
}

// usable reports whether a handle qualifies as a candidate: it must carry a
// private key and must not be expired.
func usable(h domain.CertificateHandle, now time.Time) bool {
	return h.HasPrivateKey && !h.IsExpired(now) && !h.NotAfter.IsZero()
}

// parseCertificatePEM decodes the first CERTIFICATE block.
func parseCertificatePEM(certPEM []byte) (*x509.Certificate, error) {
	for rest := certPEM; len(rest) > 0; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		return cert, nil
	}
	return nil, fmt.Errorf("no CERTIFICATE block found")
}
