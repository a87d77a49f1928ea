// Package ports defines interfaces and boundary types for the core services.
package ports

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tealgate/instacred/internal/core/errors"
)

// Relative time expressions accepted by the log backend's range filter,
// e.g. "now", "now-24h", "now-7d".
var relativeWindowPattern = regexp.MustCompile(`^now(-[0-9]+[smhdw])?$`)

// Configuration is the complete configuration surface the core reads at
// startup and treats as immutable for the process lifetime.
type Configuration struct {
	// Backend configures the log/observability backend connection.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend" validate:"required"`

	// Auth selects and parameterizes the credential sources, tried in the
	// documented priority order: certificate, cookie, password.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Query bounds the log searches used for token extraction.
	Query QueryConfig `yaml:"query" mapstructure:"query"`

	// Cache bounds how long resolved entries stay fresh.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Endpoints tunes instance base URL resolution.
	Endpoints EndpointConfig `yaml:"endpoints" mapstructure:"endpoints"`
}

// BackendConfig contains the log backend connection settings.
type BackendConfig struct {
	// URL is the backend base URL, e.g. https://elk.prod.greenapi.org.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	// Timeout bounds every backend request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// InsecureSkipVerify disables server certificate verification.
	// Debugging aid for self-signed staging backends only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// AuthConfig contains the credential source settings.
type AuthConfig struct {
	// CertSource selects the certificate store implementation:
	// "store" (platform certificate store), "files" (PEM directory), or
	// "none" to skip certificate authentication.
	CertSource string `yaml:"cert_source" mapstructure:"cert_source" validate:"omitempty,oneof=store files none"`

	// CertDir is the PEM directory used when CertSource is "files".
	CertDir string `yaml:"cert_dir" mapstructure:"cert_dir"`

	// Cookie is an optional pre-supplied backend session cookie.
	Cookie string `yaml:"cookie" mapstructure:"cookie"`

	// Username enables the password fallback; the password itself is never
	// stored in configuration and is collected interactively or from the
	// INSTACRED_AUTH_PASSWORD environment override.
	Username string `yaml:"username" mapstructure:"username"`

	// Password is the password fallback secret. Only sensible via the
	// environment override; keep it out of files.
	Password string `yaml:"password" mapstructure:"password"`

	// ProviderType and ProviderName disambiguate which of the backend's
	// configured login providers handles password credentials.
	ProviderType string `yaml:"provider_type" mapstructure:"provider_type"`
	ProviderName string `yaml:"provider_name" mapstructure:"provider_name"`
}

// QueryConfig bounds the token extraction searches.
type QueryConfig struct {
	// Window is the default search range (relative expression, newest side
	// is always "now").
	Window string `yaml:"window" mapstructure:"window" validate:"required,relwindow"`

	// WideWindow is the single documented escalation used when the default
	// window yields no usable record.
	WideWindow string `yaml:"wide_window" mapstructure:"wide_window" validate:"required,relwindow"`

	// Size is the maximum number of records fetched per search.
	Size int `yaml:"size" mapstructure:"size" validate:"min=1,max=1000"`
}

// CacheConfig bounds resolution entry freshness.
type CacheConfig struct {
	// TTL is the freshness window for cached resolutions.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"required,min=1s"`
}

// EndpointConfig tunes base URL resolution.
type EndpointConfig struct {
	// PreferDirect resolves pools with a dedicated hostname to it instead
	// of the shared entry point.
	PreferDirect bool `yaml:"prefer_direct" mapstructure:"prefer_direct"`
}

// NewValidator returns the struct validator with the custom rules the
// configuration schema uses registered.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("relwindow", func(fl validator.FieldLevel) bool {
		return relativeWindowPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register relwindow validation: %w", err)
	}
	return v, nil
}

// Validate checks the configuration and returns a typed error on the first
// violation found.
func (c *Configuration) Validate() error {
	if c == nil {
		return &errors.ValidationError{
			Field:   "configuration",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}

	v, err := NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return &errors.ValidationError{
				Field:   first.Namespace(),
				Value:   first.Value(),
				Message: fmt.Sprintf("failed %q constraint", first.Tag()),
			}
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if c.Auth.CertSource == "files" && c.Auth.CertDir == "" {
		return &errors.ValidationError{
			Field:   "auth.cert_dir",
			Value:   c.Auth.CertDir,
			Message: "cert_dir is required when cert_source is \"files\"",
		}
	}

	return nil
}

// HasCookieSource reports whether a pre-supplied cookie is configured.
func (c *Configuration) HasCookieSource() bool {
	return c.Auth.Cookie != ""
}

// HasPasswordSource reports whether password login is configured.
func (c *Configuration) HasPasswordSource() bool {
	return c.Auth.Username != "" && c.Auth.Password != ""
}

// HasCertificateSource reports whether a certificate store is configured.
func (c *Configuration) HasCertificateSource() bool {
	return c.Auth.CertSource != "none" && c.Auth.CertSource != ""
}
