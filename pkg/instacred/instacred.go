// Package instacred resolves tenant instance ids into usable (API base
// URL, access token) pairs. Identity comes from the operating system
// certificate store, a pre-supplied backend session cookie, or password
// login against the log backend; tokens are recovered from the instance's
// operational log records instead of being pasted in by the operator.
package instacred

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tealgate/instacred/internal/adapters/logging"
	"github.com/tealgate/instacred/internal/adapters/metrics"
	"github.com/tealgate/instacred/internal/adapters/secondary/certstore"
	configadapter "github.com/tealgate/instacred/internal/adapters/secondary/config"
	"github.com/tealgate/instacred/internal/adapters/secondary/kibana"
	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/ports"
	"github.com/tealgate/instacred/internal/core/services"
)

// Resolution is the caller-facing outcome of a resolve call.
type Resolution struct {
	InstanceID string
	BaseURL    string
	Token      string
	ResolvedAt time.Time
	FromCache  bool
}

// Client is the resolution facade. One client owns one backend session and
// one resolution cache; both live for the process only.
type Client struct {
	config   *ports.Configuration
	logger   *slog.Logger
	resolver *services.Resolver
	backend  *kibana.Client
}

type options struct {
	logger  *slog.Logger
	metrics services.MetricsReporter
	store   ports.CertificateStore
}

// Option customizes client construction.
type Option func(*options)

// WithLogger overrides the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics replaces the default Prometheus reporter, e.g. with
// services.NoopMetrics for embedders that run their own telemetry.
func WithMetrics(m services.MetricsReporter) Option {
	return func(o *options) { o.metrics = m }
}

// WithCertificateStore overrides the configured certificate store, e.g.
// with an in-memory store holding pre-exported material.
func WithCertificateStore(store ports.CertificateStore) Option {
	return func(o *options) { o.store = store }
}

// New loads configuration from path (empty for the default search
// locations) and wires the resolution pipeline.
func New(ctx context.Context, configPath string, opts ...Option) (*Client, error) {
	cfg, err := configadapter.NewFileProvider().LoadConfiguration(ctx, configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfiguration(cfg, opts...)
}

// NewWithConfiguration wires the pipeline from an already-validated
// configuration. Exposed for callers that assemble configuration
// programmatically.
func NewWithConfiguration(cfg *ports.Configuration, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, "info", "text")
	}
	reporter := o.metrics
	if reporter == nil {
		// Pipeline counters land in the default Prometheus registry, where
		// an embedding process's exposition handler picks them up.
		reporter = metrics.NewPrometheusMetrics()
	}

	backend, err := kibana.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = buildStore(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := services.NewSessionManager(store, backend, cfg, logger, reporter)
	if err != nil {
		return nil, err
	}
	extractor, err := services.NewExtractor(backend, cfg, logger, reporter)
	if err != nil {
		return nil, err
	}
	resolver, err := services.NewResolver(sessions, extractor, cfg, logger, reporter)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:   cfg,
		logger:   logger,
		resolver: resolver,
		backend:  backend,
	}, nil
}

// buildStore selects the certificate store implementation the
// configuration asks for. An unavailable platform store is downgraded to a
// warning so the cookie and password sources still work.
func buildStore(cfg *ports.Configuration, logger *slog.Logger) (ports.CertificateStore, error) {
	switch cfg.Auth.CertSource {
	case "files":
		return certstore.NewFileStore(cfg.Auth.CertDir)
	case "none", "":
		return nil, nil
	default: // "store"
		store, err := certstore.NewCertutilStore(logger)
		if err != nil {
			logger.Warn("platform certificate store unavailable, continuing without certificate source",
				"error", err.Error())
			return nil, nil
		}
		return store, nil
	}
}

// Resolve turns an instance id into its (base URL, token) pair, from cache
// when fresh.
func (c *Client) Resolve(ctx context.Context, instanceID string) (Resolution, error) {
	id, err := domain.NewInstanceID(instanceID)
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid instance id: %w", err)
	}

	entry, err := c.resolver.Resolve(ctx, id)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		InstanceID: entry.Instance.String(),
		BaseURL:    entry.BaseURL,
		Token:      entry.Token,
		ResolvedAt: entry.ResolvedAt,
		FromCache:  entry.Source == domain.SourceCache,
	}, nil
}

// ForceReauthenticate invalidates the backend session and clears the
// resolution cache; the next Resolve performs the full authentication flow
// again.
func (c *Client) ForceReauthenticate() {
	c.backend.ClearClientCertificate()
	c.resolver.ForceReauthenticate()
}

// SessionState reports the session lifecycle state for status surfaces.
func (c *Client) SessionState() string {
	return c.resolver.SessionState().String()
}

// Configuration returns the immutable configuration the client runs with.
func (c *Client) Configuration() *ports.Configuration {
	return c.config
}

// ListCertificates enumerates the usable client certificate candidates, in
// the store's deterministic order.
func (c *Client) ListCertificates(ctx context.Context) ([]domain.CertificateHandle, error) {
	store, err := buildStore(c.config, c.logger)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, nil
	}
	return store.ListCandidates(ctx)
}
