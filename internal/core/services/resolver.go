package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

// Resolver is the facade the rest of the application calls: it turns an
// instance id into a (base URL, token) pair, serving fresh cached entries
// without touching the backend and otherwise driving the session manager
// and extractor. It is the only component that writes the cache or swaps
// the active session.
type Resolver struct {
	sessions  *SessionManager
	extractor *Extractor
	config    *ports.Configuration
	logger    *slog.Logger
	metrics   MetricsReporter

	mu    sync.Mutex
	cache map[string]cachedResolution
}

type cachedResolution struct {
	entry     domain.ResolutionEntry
	freshness *domain.CacheEntry
}

// NewResolver creates a Resolver.
func NewResolver(
	sessions *SessionManager,
	extractor *Extractor,
	config *ports.Configuration,
	logger *slog.Logger,
	metrics MetricsReporter,
) (*Resolver, error) {
	if sessions == nil {
		return nil, &errors.ValidationError{
			Field:   "sessions",
			Value:   nil,
			Message: "session manager cannot be nil",
		}
	}
	if extractor == nil {
		return nil, &errors.ValidationError{
			Field:   "extractor",
			Value:   nil,
			Message: "extractor cannot be nil",
		}
	}
	if config == nil {
		return nil, &errors.ValidationError{
			Field:   "config",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Resolver{
		sessions:  sessions,
		extractor: extractor,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		cache:     make(map[string]cachedResolution),
	}, nil
}

// Resolve returns the resolution entry for an instance, from cache when
// fresh. On a miss it ensures an authenticated session, queries the log
// backend, and caches the result. Authentication-category failures of a
// previously good session trigger exactly one silent re-authentication
// before the error surfaces; failures are never cached.
func (r *Resolver) Resolve(ctx context.Context, id domain.InstanceID) (domain.ResolutionEntry, error) {
	started := time.Now()

	if entry, ok := r.cachedFresh(id); ok {
		r.metrics.RecordCacheHit()
		r.logger.Debug("resolution served from cache", "instance", id.String())
		return entry, nil
	}
	r.metrics.RecordCacheMiss()

	session, err := r.sessions.Ensure(ctx)
	if err != nil {
		return domain.ResolutionEntry{}, err
	}

	resolved, err := r.extractor.FindLatestCredentials(ctx, id, session)
	if err != nil && errors.IsAuthFailure(err) {
		// The session was good when we started, so it went stale under
		// us. One silent re-authentication, then the error stands.
		r.logger.Info("query hit an authentication failure, re-authenticating once",
			"instance", id.String())
		r.sessions.MarkExpired()

		session, err = r.sessions.Ensure(ctx)
		if err != nil {
			return domain.ResolutionEntry{}, err
		}
		resolved, err = r.extractor.FindLatestCredentials(ctx, id, session)
	}
	if err != nil {
		return domain.ResolutionEntry{}, err
	}

	entry := domain.ResolutionEntry{
		Instance:   id,
		BaseURL:    resolved.Endpoint.BaseURL(),
		Token:      resolved.Token,
		ResolvedAt: time.Now(),
		Source:     domain.SourceFresh,
	}

	r.mu.Lock()
	r.cache[id.String()] = cachedResolution{
		entry:     entry,
		freshness: domain.NewCacheEntry(r.config.Cache.TTL),
	}
	r.mu.Unlock()

	r.metrics.ObserveResolveDuration(time.Since(started))
	r.logger.Info("instance resolved",
		"instance", id.String(),
		"base_url", entry.BaseURL,
		"record_time", resolved.RecordTime,
	)
	return entry, nil
}

// ForceReauthenticate invalidates the session and clears all cached
// entries in one step, so the next Resolve repeats the full authentication
// flow. The cache swap is a single map replacement; it is never observed
// partially cleared.
func (r *Resolver) ForceReauthenticate() {
	r.mu.Lock()
	r.cache = make(map[string]cachedResolution)
	r.mu.Unlock()
	r.sessions.Invalidate()
	r.logger.Info("forced re-authentication: cache cleared, session invalidated")
}

// SessionState exposes the session lifecycle state for status surfaces.
func (r *Resolver) SessionState() domain.SessionState {
	return r.sessions.State()
}

func (r *Resolver) cachedFresh(id domain.InstanceID) (domain.ResolutionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached, ok := r.cache[id.String()]
	if !ok || !cached.freshness.IsFresh() {
		return domain.ResolutionEntry{}, false
	}
	entry := cached.entry
	entry.Source = domain.SourceCache
	return entry, true
}
