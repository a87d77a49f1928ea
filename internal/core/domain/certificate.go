package domain

import (
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CertificateHandle is an opaque reference to a store-resident certificate.
// Handles are enumerated at selection time and never persisted; the raw key
// material is only materialized by a Store.Export call.
type CertificateHandle struct {
	Subject       string
	Issuer        string
	NotAfter      time.Time
	HasPrivateKey bool
	Thumbprint    string
}

// HandleFromCertificate builds a handle from a parsed certificate.
// The thumbprint is the lower-case hex SHA-1 of the DER bytes, matching the
// identifier the platform store uses.
func HandleFromCertificate(cert *x509.Certificate, hasPrivateKey bool) CertificateHandle {
	sum := sha1.Sum(cert.Raw)
	return CertificateHandle{
		Subject:       cert.Subject.String(),
		Issuer:        cert.Issuer.String(),
		NotAfter:      cert.NotAfter,
		HasPrivateKey: hasPrivateKey,
		Thumbprint:    hex.EncodeToString(sum[:]),
	}
}

// IsExpired reports whether the certificate behind the handle has expired.
func (h CertificateHandle) IsExpired(now time.Time) bool {
	return now.After(h.NotAfter)
}

// ExportedCredential holds freshly exported certificate and key material for
// the duration of a mutual-TLS handshake. The material lives only in process
// memory and is zeroed by Destroy when the session ends.
type ExportedCredential struct {
	mu        sync.Mutex
	certPEM   []byte
	keyPEM    []byte
	destroyed bool
}

// NewExportedCredential wraps PEM-encoded certificate and key bytes.
// The bytes are copied so the caller's slices can be discarded.
func NewExportedCredential(certPEM, keyPEM []byte) (*ExportedCredential, error) {
	if len(certPEM) == 0 {
		return nil, fmt.Errorf("certificate bytes cannot be empty")
	}
	if len(keyPEM) == 0 {
		return nil, fmt.Errorf("private key bytes cannot be empty")
	}
	c := &ExportedCredential{
		certPEM: make([]byte, len(certPEM)),
		keyPEM:  make([]byte, len(keyPEM)),
	}
	copy(c.certPEM, certPEM)
	copy(c.keyPEM, keyPEM)
	return c, nil
}

// TLSCertificate assembles a tls.Certificate for handshake use.
func (c *ExportedCredential) TLSCertificate() (tls.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return tls.Certificate{}, fmt.Errorf("exported credential has been destroyed")
	}
	cert, err := tls.X509KeyPair(c.certPEM, c.keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to assemble key pair: %w", err)
	}
	return cert, nil
}

// Destroyed reports whether the material has been wiped.
func (c *ExportedCredential) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Destroy zeroes the key material. Safe to call more than once.
func (c *ExportedCredential) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	for i := range c.keyPEM {
		c.keyPEM[i] = 0
	}
	for i := range c.certPEM {
		c.certPEM[i] = 0
	}
	c.keyPEM = nil
	c.certPEM = nil
	c.destroyed = true
}
