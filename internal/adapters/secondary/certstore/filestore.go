package certstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

// FileStore serves certificates from a directory of PEM pairs: <name>.crt
// (or <name>.pem) next to <name>.key. Operators use it with material they
// exported from the platform store themselves.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over a PEM directory.
func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("certificate directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("certificate path %s is not a directory", dir)
	}
	return &FileStore{dir: dir}, nil
}

// ListCandidates implements ports.CertificateStore.
func (s *FileStore) ListCandidates(_ context.Context) ([]domain.CertificateHandle, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate directory: %w", err)
	}

	now := time.Now()
	var handles []domain.CertificateHandle
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".crt" && ext != ".pem" {
			continue
		}

		certPEM, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		cert, err := parseCertificatePEM(certPEM)
		if err != nil {
			continue
		}

		_, keyErr := os.Stat(s.keyPath(entry.Name()))
		handle := domain.HandleFromCertificate(cert, keyErr == nil)
		if usable(handle, now) {
			handles = append(handles, handle)
		}
	}
	sortHandles(handles)
	return handles, nil
}

// Export implements ports.CertificateStore. Files are re-read on every call
// so removed or replaced material is noticed.
func (s *FileStore) Export(ctx context.Context, handle domain.CertificateHandle) (*domain.ExportedCredential, error) {
	certFile, err := s.findByThumbprint(handle.Thumbprint)
	if err != nil {
		return nil, err
	}

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrCertificateUnavailable, err)
	}
	keyPEM, err := os.ReadFile(s.keyPath(filepath.Base(certFile)))
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible, err)
	}
	return domain.NewExportedCredential(certPEM, keyPEM)
}

// findByThumbprint rescans the directory for the certificate behind a
// handle, so a file removed between enumeration and export surfaces as
// unavailable rather than as a read error on a stale path.
func (s *FileStore) findByThumbprint(thumbprint string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read certificate directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".crt" && ext != ".pem" {
			continue
		}
		certPEM, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		cert, err := parseCertificatePEM(certPEM)
		if err != nil {
			continue
		}
		if domain.HandleFromCertificate(cert, false).Thumbprint == thumbprint {
			return filepath.Join(s.dir, entry.Name()), nil
		}
	}
	return "", errors.NewDomainError(errors.ErrCertificateUnavailable,
		fmt.Errorf("no certificate with thumbprint %s in %s", thumbprint, s.dir))
}

func (s *FileStore) keyPath(certName string) string {
	base := strings.TrimSuffix(certName, filepath.Ext(certName))
	return filepath.Join(s.dir, base+".key")
}
