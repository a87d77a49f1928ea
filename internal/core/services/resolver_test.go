package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

func newResolver(t *testing.T, cfg *ports.Configuration, auth *fakeAuthenticator, searcher *fakeSearcher) *Resolver {
	t.Helper()
	sessions, err := NewSessionManager(storeWithOneCandidate(), auth, cfg, testLogger(), nil)
	require.NoError(t, err)
	extractor, err := NewExtractor(searcher, cfg, testLogger(), nil)
	require.NoError(t, err)
	resolver, err := NewResolver(sessions, extractor, cfg, testLogger(), nil)
	require.NoError(t, err)
	return resolver
}

func singleHitSearcher(ts time.Time) *fakeSearcher {
	return &fakeSearcher{
		resultsByWindow: map[string][]domain.LogRecord{
			"now-24h": {accessRecord(ts, testInstance, tokenA)},
		},
	}
}

func TestResolver_ResolveAndCache(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	auth := &fakeAuthenticator{}
	searcher := singleHitSearcher(ts)
	r := newResolver(t, testConfig(), auth, searcher)
	id := domain.NewInstanceIDUnsafe(testInstance)

	first, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFresh, first.Source)
	assert.Equal(t, tokenA, first.Token)
	assert.Equal(t, "https://7103.api.greenapi.com", first.BaseURL)

	second, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, first.Token, second.Token)

	assert.Len(t, searcher.recordedWindows(), 1, "a fresh cached entry must not touch the backend")
	cert, _, _ := auth.calls()
	assert.Equal(t, 1, cert)
}

func TestResolver_ExpiredEntryResolvesAgain(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.Cache.TTL = time.Nanosecond
	searcher := singleHitSearcher(ts)
	r := newResolver(t, cfg, &fakeAuthenticator{}, searcher)
	id := domain.NewInstanceIDUnsafe(testInstance)

	_, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	again, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFresh, again.Source)
	assert.Len(t, searcher.recordedWindows(), 2)
}

func TestResolver_OneSilentReauthenticationOnStaleSession(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	auth := &fakeAuthenticator{}
	searcher := &fakeSearcher{
		errs: []error{errors.NewDomainError(errors.ErrSessionExpired, nil)},
		resultsByWindow: map[string][]domain.LogRecord{
			"now-24h": {accessRecord(ts, testInstance, tokenA)},
		},
	}
	r := newResolver(t, testConfig(), auth, searcher)

	entry, err := r.Resolve(context.Background(), domain.NewInstanceIDUnsafe(testInstance))
	require.NoError(t, err)
	assert.Equal(t, tokenA, entry.Token)

	cert, _, _ := auth.calls()
	assert.Equal(t, 2, cert, "stale session triggers exactly one re-authentication")
	assert.Equal(t, []string{"now-24h", "now-24h"}, searcher.recordedWindows())
}

func TestResolver_SecondAuthFailureSurfaces(t *testing.T) {
	auth := &fakeAuthenticator{}
	searcher := &fakeSearcher{
		errs: []error{
			errors.NewDomainError(errors.ErrSessionExpired, nil),
			errors.NewDomainError(errors.ErrSessionExpired, nil),
			errors.NewDomainError(errors.ErrSessionExpired, nil),
		},
	}
	r := newResolver(t, testConfig(), auth, searcher)

	_, err := r.Resolve(context.Background(), domain.NewInstanceIDUnsafe(testInstance))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSessionExpired))

	cert, _, _ := auth.calls()
	assert.Equal(t, 2, cert, "re-authentication happens once, then the failure stands")
	assert.Len(t, searcher.recordedWindows(), 2)
}

func TestResolver_TokenNotFoundIsNeverCached(t *testing.T) {
	searcher := &fakeSearcher{resultsByWindow: map[string][]domain.LogRecord{}}
	r := newResolver(t, testConfig(), &fakeAuthenticator{}, searcher)
	id := domain.NewInstanceIDUnsafe(testInstance)

	_, err := r.Resolve(context.Background(), id)
	assert.True(t, errors.Is(err, errors.ErrTokenNotFound))

	_, err = r.Resolve(context.Background(), id)
	assert.True(t, errors.Is(err, errors.ErrTokenNotFound))

	// Two resolves, two windows each: the failure was not served from cache.
	assert.Len(t, searcher.recordedWindows(), 4)
}

func TestResolver_ForceReauthenticate(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	auth := &fakeAuthenticator{}
	searcher := singleHitSearcher(ts)
	r := newResolver(t, testConfig(), auth, searcher)
	id := domain.NewInstanceIDUnsafe(testInstance)

	_, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)

	r.ForceReauthenticate()
	assert.Equal(t, domain.StateInvalidated, r.SessionState())

	entry, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFresh, entry.Source, "cache was cleared with the session")

	cert, _, _ := auth.calls()
	assert.Equal(t, 2, cert, "the full authentication flow runs again")
	assert.Len(t, searcher.recordedWindows(), 2)
}

func TestResolver_DistinctInstancesCacheIndependently(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	other := "9903348018"
	searcher := &fakeSearcher{
		resultsByWindow: map[string][]domain.LogRecord{
			"now-24h": {
				accessRecord(ts, testInstance, tokenA),
				accessRecord(ts, other, tokenB),
			},
		},
	}
	r := newResolver(t, testConfig(), &fakeAuthenticator{}, searcher)

	a, err := r.Resolve(context.Background(), domain.NewInstanceIDUnsafe(testInstance))
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), domain.NewInstanceIDUnsafe(other))
	require.NoError(t, err)

	assert.Equal(t, tokenA, a.Token)
	assert.Equal(t, tokenB, b.Token)
	assert.Equal(t, "https://9903.api.green-api.com", b.BaseURL)
}
