package certstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
)

const certutilListing = `My "Personal"
================ Certificate 0 ================
Serial Number: 01
Issuer: CN=corp-ca, O=Corp
 NotBefore: 1/1/2024 9:00 AM
 NotAfter: 1/1/2031 9:00 AM
Subject: CN=support-operator, O=Corp
Cert Hash(sha1): AA BB CC DD EE FF 00 11 22 33 44 55 66 77 88 99 AA BB CC DD
  Key Container = le-support-operator
  Provider = Microsoft Software Key Storage Provider
Signature matches Public Key

================ Certificate 1 ================
Serial Number: 02
Issuer: CN=corp-ca, O=Corp
 NotBefore: 1/1/2024 9:00 AM
 NotAfter: 1/1/2030 9:00 AM
Subject: CN=no-key-here, O=Corp
Cert Hash(sha1): 11 22 33 44 55 66 77 88 99 AA BB CC DD EE FF 00 11 22 33 44
Signature matches Public Key

================ Certificate 2 ================
Serial Number: 03
Issuer: CN=corp-ca, O=Corp
 NotBefore: 1/1/2015 9:00 AM
 NotAfter: 1/1/2020 9:00 AM
Subject: CN=long-expired, O=Corp
Cert Hash(sha1): 99 88 77 66 55 44 33 22 11 00 99 88 77 66 55 44 33 22 11 00
  Key Container = le-long-expired
CertUtil: -store command completed successfully.
`

func fakeRunner(output string, err error) commandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(output), err
	}
}

func testCertutilStore(run commandRunner) *CertutilStore {
	return newCertutilStore(slog.New(slog.NewTextHandler(io.Discard, nil)), run)
}

func TestCertutilStore_ListCandidates(t *testing.T) {
	store := testCertutilStore(fakeRunner(certutilListing, nil))

	handles, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 1, "keyless and expired entries are filtered out")

	h := handles[0]
	assert.Equal(t, "CN=support-operator, O=Corp", h.Subject)
	assert.Equal(t, "CN=corp-ca, O=Corp", h.Issuer)
	assert.Equal(t, "aabbccddeeff00112233445566778899aabbccdd", h.Thumbprint)
	assert.True(t, h.HasPrivateKey)
	assert.Equal(t, 2031, h.NotAfter.Year())
}

func TestCertutilStore_ListFailure(t *testing.T) {
	store := testCertutilStore(fakeRunner("", fmt.Errorf("exit status 1")))

	_, err := store.ListCandidates(context.Background())
	assert.Error(t, err)
}

func TestCertutilStore_ExportFailureClassification(t *testing.T) {
	handle := domain.CertificateHandle{
		Thumbprint:    "aabbccddeeff00112233445566778899aabbccdd",
		HasPrivateKey: true,
		NotAfter:      time.Now().Add(time.Hour),
	}

	t.Run("removed certificate", func(t *testing.T) {
		store := testCertutilStore(fakeRunner("CertUtil: -exportPFX command FAILED: Cannot find object or property.", fmt.Errorf("exit status 1")))
		_, err := store.Export(context.Background(), handle)
		assert.True(t, errors.Is(err, errors.ErrCertificateUnavailable))
	})

	t.Run("non-exportable key", func(t *testing.T) {
		store := testCertutilStore(fakeRunner("CertUtil: -exportPFX command FAILED: Key not valid for use in specified state.", fmt.Errorf("exit status 1")))
		_, err := store.Export(context.Background(), handle)
		assert.True(t, errors.Is(err, errors.ErrPrivateKeyInaccessible))
	})

	t.Run("command succeeded but wrote nothing", func(t *testing.T) {
		store := testCertutilStore(fakeRunner("CertUtil: -exportPFX command completed successfully.", nil))
		_, err := store.Export(context.Background(), handle)
		assert.True(t, errors.Is(err, errors.ErrPrivateKeyInaccessible))
	})
}

func TestParseCertutilTime(t *testing.T) {
	tests := []struct {
		raw      string
		wantZero bool
		wantYear int
	}{
		{"1/2/2026 3:04 PM", false, 2026},
		{"02.01.2026 15:04", false, 2026},
		{"2026-01-02 15:04", false, 2026},
		{"sometime next year", true, 0},
	}

	for _, tt := range tests {
		ts := parseCertutilTime(tt.raw)
		if tt.wantZero {
			assert.True(t, ts.IsZero(), "raw %q", tt.raw)
			continue
		}
		assert.Equal(t, tt.wantYear, ts.Year(), "raw %q", tt.raw)
	}
}

func TestOnetimePassword(t *testing.T) {
	a, err := onetimePassword()
	require.NoError(t, err)
	b, err := onetimePassword()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
