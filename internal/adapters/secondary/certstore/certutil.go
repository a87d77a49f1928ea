package certstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

// commandRunner executes an external command and returns its combined
// output. Tests inject a fake to exercise the certutil parsing without a
// Windows certificate store.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CertutilStore binds to the Windows current-user MY store through
// certutil.exe. Enumeration parses `certutil -user -store My`; export goes
// through `-exportPFX` by thumbprint into a transient owner-only directory,
// with the PFX decoded to PEM in memory and the directory removed before
// Export returns.
type CertutilStore struct {
	run    commandRunner
	logger *slog.Logger
}

// NewCertutilStore creates the platform store adapter. Fails when
// certutil.exe is not available on the PATH.
func NewCertutilStore(logger *slog.Logger) (*CertutilStore, error) {
	if _, err := exec.LookPath("certutil"); err != nil {
		return nil, fmt.Errorf("certutil is not available: %w", err)
	}
	return newCertutilStore(logger, runCertutil), nil
}

func newCertutilStore(logger *slog.Logger, run commandRunner) *CertutilStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CertutilStore{run: run, logger: logger}
}

func runCertutil(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// ListCandidates implements ports.CertificateStore.
func (s *CertutilStore) ListCandidates(ctx context.Context) ([]domain.CertificateHandle, error) {
	out, err := s.run(ctx, "certutil", "-user", "-store", "My")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate certificate store: %w", err)
	}

	now := time.Now()
	var handles []domain.CertificateHandle
	for _, block := range strings.Split(string(out), "================") {
		handle, ok := parseStoreBlock(block)
		if !ok {
			continue
		}
		if usable(handle, now) {
			handles = append(handles, handle)
		}
	}
	sortHandles(handles)

	s.logger.Debug("enumerated platform certificate store", "candidates", len(handles))
	return handles, nil
}

// Export implements ports.CertificateStore.
func (s *CertutilStore) Export(ctx context.Context, handle domain.CertificateHandle) (*domain.ExportedCredential, error) {
	password, err := onetimePassword()
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "instacred-")
	if err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	defer os.RemoveAll(tempDir)
	if err := os.Chmod(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to restrict export directory: %w", err)
	}

	pfxFile := filepath.Join(tempDir, "export.pfx")
	out, err := s.run(ctx, "certutil",
		"-user", "-p", password, "-exportPFX", "-f", "My", handle.Thumbprint, pfxFile)
	if err != nil {
		return nil, classifyExportFailure(handle, out, err)
	}

	pfxData, err := os.ReadFile(pfxFile)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible,
			fmt.Errorf("export produced no readable PFX: %w", err))
	}

	blocks, err := pkcs12.ToPEM(pfxData, password)
	if err != nil {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible,
			fmt.Errorf("failed to decode exported PFX: %w", err))
	}

	var certPEM, keyPEM []byte
	for _, block := range blocks {
		encoded := pem.EncodeToMemory(block)
		switch block.Type {
		case "CERTIFICATE":
			if certPEM == nil {
				certPEM = encoded
			}
		case "PRIVATE KEY":
			keyPEM = encoded
		}
	}
	if keyPEM == nil {
		return nil, errors.NewDomainError(errors.ErrPrivateKeyInaccessible,
			fmt.Errorf("exported PFX contained no private key"))
	}
	if certPEM == nil {
		return nil, errors.NewDomainError(errors.ErrCertificateUnavailable,
			fmt.Errorf("exported PFX contained no certificate"))
	}

	return domain.NewExportedCredential(certPEM, keyPEM)
}

// classifyExportFailure distinguishes a removed certificate from a key the
// platform refuses to export.
func classifyExportFailure(handle domain.CertificateHandle, out []byte, err error) error {
	text := strings.ToLower(string(out))
	if strings.Contains(text, "cannot find object") || strings.Contains(text, "not found") {
		return errors.NewDomainError(errors.ErrCertificateUnavailable,
			fmt.Errorf("certificate %s no longer in store: %w", handle.Thumbprint, err))
	}
	return errors.NewDomainError(errors.ErrPrivateKeyInaccessible,
		fmt.Errorf("certutil export failed for %s: %w", handle.Thumbprint, err))
}

// parseStoreBlock extracts one handle from a certutil store listing block.
// Fields that fail to parse leave their zero value; blocks without a
// thumbprint are discarded.
func parseStoreBlock(block string) (domain.CertificateHandle, bool) {
	var handle domain.CertificateHandle
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Subject:"):
			handle.Subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "Issuer:"):
			handle.Issuer = strings.TrimSpace(strings.TrimPrefix(line, "Issuer:"))
		case strings.HasPrefix(line, "NotAfter:"):
			handle.NotAfter = parseCertutilTime(strings.TrimSpace(strings.TrimPrefix(line, "NotAfter:")))
		case strings.HasPrefix(line, "Cert Hash(sha1):"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Cert Hash(sha1):"))
			handle.Thumbprint = strings.ToLower(strings.ReplaceAll(raw, " ", ""))
		case strings.HasPrefix(line, "Key Container"):
			handle.HasPrivateKey = true
		}
	}
	return handle, handle.Thumbprint != ""
}

// certutil prints NotAfter in the system locale; the formats below cover
// the deployments we support. An unparsable date yields a zero time, which
// disqualifies the candidate rather than guessing.
var certutilTimeLayouts = []string{
	"1/2/2006 3:04 PM",
	"02.01.2006 15:04",
	"2006-01-02 15:04",
}

func parseCertutilTime(raw string) time.Time {
	for _, layout := range certutilTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// onetimePassword generates the throwaway PFX password for one export.
func onetimePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate export password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
