package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealgate/instacred/internal/core/errors"
)

func validConfiguration() *Configuration {
	return &Configuration{
		Backend: BackendConfig{
			URL:     "https://elk.prod.greenapi.org",
			Timeout: 60 * time.Second,
		},
		Auth: AuthConfig{
			CertSource:   "store",
			ProviderType: "basic",
			ProviderName: "basic",
		},
		Query: QueryConfig{
			Window:     "now-24h",
			WideWindow: "now-7d",
			Size:       50,
		},
		Cache:     CacheConfig{TTL: 10 * time.Minute},
		Endpoints: EndpointConfig{PreferDirect: true},
	}
}

func TestConfiguration_Validate(t *testing.T) {
	t.Run("valid configuration passes", func(t *testing.T) {
		require.NoError(t, validConfiguration().Validate())
	})

	t.Run("nil configuration rejected", func(t *testing.T) {
		var cfg *Configuration
		err := cfg.Validate()
		var verr *errors.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"missing backend url", func(c *Configuration) { c.Backend.URL = "" }},
		{"malformed backend url", func(c *Configuration) { c.Backend.URL = "not a url" }},
		{"unknown cert source", func(c *Configuration) { c.Auth.CertSource = "registry" }},
		{"files source without cert_dir", func(c *Configuration) { c.Auth.CertSource = "files"; c.Auth.CertDir = "" }},
		{"absolute window rejected", func(c *Configuration) { c.Query.Window = "2026-08-20" }},
		{"garbage window rejected", func(c *Configuration) { c.Query.Window = "yesterday" }},
		{"bad wide window rejected", func(c *Configuration) { c.Query.WideWindow = "now+7d" }},
		{"zero search size", func(c *Configuration) { c.Query.Size = 0 }},
		{"oversized search size", func(c *Configuration) { c.Query.Size = 100000 }},
		{"zero cache ttl", func(c *Configuration) { c.Cache.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfiguration()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verr *errors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestConfiguration_RelativeWindows(t *testing.T) {
	valid := []string{"now", "now-15m", "now-24h", "now-7d", "now-1w", "now-30s"}
	for _, w := range valid {
		cfg := validConfiguration()
		cfg.Query.Window = w
		assert.NoError(t, cfg.Validate(), "window %q should be accepted", w)
	}
}

func TestConfiguration_SourcePredicates(t *testing.T) {
	cfg := validConfiguration()
	assert.True(t, cfg.HasCertificateSource())
	assert.False(t, cfg.HasCookieSource())
	assert.False(t, cfg.HasPasswordSource())

	cfg.Auth.CertSource = "none"
	assert.False(t, cfg.HasCertificateSource())

	cfg.Auth.Cookie = "sid=abc"
	assert.True(t, cfg.HasCookieSource())

	cfg.Auth.Username = "operator"
	assert.False(t, cfg.HasPasswordSource(), "username alone is not a password source")
	cfg.Auth.Password = "hunter2"
	assert.True(t, cfg.HasPasswordSource())
}
