package certstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

// MemoryStore is an in-memory certificate store. Tests use it as the store
// fake; production code can seed it with material exported ahead of time.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	handle  domain.CertificateHandle
	certPEM []byte
	keyPEM  []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// SetClock injects a clock for expiry tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddPEM registers a certificate with optional key material and returns its
// handle. An empty key registers a certificate without a usable private
// key, which ListCandidates will skip.
func (s *MemoryStore) AddPEM(certPEM, keyPEM []byte) (domain.CertificateHandle, error) {
	cert, err := parseCertificatePEM(certPEM)
	if err != nil {
		return domain.CertificateHandle{}, fmt.Errorf("invalid certificate material: %w", err)
	}
	handle := domain.HandleFromCertificate(cert, len(keyPEM) > 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[handle.Thumbprint] = memEntry{
		handle:  handle,
		certPEM: append([]byte(nil), certPEM...),
		keyPEM:  append([]byte(nil), keyPEM...),
	}
	return handle, nil
}

// Remove deletes a certificate, simulating removal from the platform store
// between enumeration and export.
func (s *MemoryStore) Remove(thumbprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, thumbprint)
}

// ListCandidates implements ports.CertificateStore.
func (s *MemoryStore) ListCandidates(_ context.Context) ([]domain.CertificateHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	handles := make([]domain.CertificateHandle, 0, len(s.entries))
	for _, entry := range s.entries {
		if usable(entry.handle, now) {
			handles = append(handles, entry.handle)
		}
	}
	sortHandles(handles)
	return handles, nil
}

// Export implements ports.CertificateStore. Material is produced fresh on
// every call; nothing is cached across calls.
func (s *MemoryStore) Export(_ context.Context, handle domain.CertificateHandle) (*domain.ExportedCredential, error) {
	s.mu.Lock()
	entry, ok := s.entries[handle.Thumbprint]
	s.mu.Unlock()

	if !ok {
		return nil, errors.NewDomainError(errors.ErrCertificateUnavailable,
			fmt.Errorf("no certificate with thumbprint %s", handle.Thumbprint))
	}
	if len(entry.keyPEM) == 0 {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible,
			fmt.Errorf("certificate %s has no exportable key", handle.Thumbprint))
	}
	return domain.NewExportedCredential(entry.certPEM, entry.keyPEM)
}
