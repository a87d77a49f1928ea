// Package config provides configuration loading for instacred.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/tealgate/instacred/internal/core/ports"
)

// Defaults mirror the operational values the tool ships with.
const (
	DefaultBackendURL   = "https://elk.prod.greenapi.org"
	DefaultWindow       = "now-24h"
	DefaultWideWindow   = "now-7d"
	DefaultSearchSize   = 50
	DefaultProviderType = "basic"
	DefaultProviderName = "basic"
)

// FileProvider loads configuration from a YAML file with INSTACRED_*
// environment overrides layered on top.
type FileProvider struct{}

// NewFileProvider creates a provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// LoadConfiguration loads, decodes, and validates configuration. An empty
// path searches the working directory and ~/.instacred for instacred.yaml;
// a missing file is not an error, the defaults plus environment overrides
// then make up the whole configuration.
func (p *FileProvider) LoadConfiguration(ctx context.Context, path string) (*ports.Configuration, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("configuration loading canceled: %w", ctx.Err())
		default:
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INSTACRED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only consults the environment for keys viper already
	// knows about; Unmarshal enumerates known keys. The secret-bearing auth
	// keys deliberately ship without defaults, so they need explicit
	// bindings to be visible as environment overrides.
	for _, key := range []string{"auth.cert_dir", "auth.cookie", "auth.username", "auth.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("instacred")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.instacred")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !asConfigNotFound(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration: %w", err)
			}
		}
	}

	var cfg ports.Configuration
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// GetDefaultConfiguration returns the configuration the tool runs with when
// no file and no environment overrides are present.
func (p *FileProvider) GetDefaultConfiguration(_ context.Context) *ports.Configuration {
	v := viper.New()
	setDefaults(v)

	var cfg ports.Configuration
	// Defaults are statically known to decode.
	_ = v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.timeout", "60s")
	v.SetDefault("backend.insecure_skip_verify", false)
	v.SetDefault("auth.cert_source", "store")
	v.SetDefault("auth.provider_type", DefaultProviderType)
	v.SetDefault("auth.provider_name", DefaultProviderName)
	v.SetDefault("query.window", DefaultWindow)
	v.SetDefault("query.wide_window", DefaultWideWindow)
	v.SetDefault("query.size", DefaultSearchSize)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("endpoints.prefer_direct", true)
}

func asConfigNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}
