package domain

import "time"

// CacheEntry encapsulates freshness-window logic for cached resolutions.
// It separates the expiry policy from the cache implementation and keeps the
// timing predicate testable with an injected clock.
type CacheEntry struct {
	fetchedAt time.Time
	ttl       time.Duration
}

// NewCacheEntry creates a cache entry with the given TTL, fetched now.
func NewCacheEntry(ttl time.Duration) *CacheEntry {
	return NewCacheEntryAt(time.Now(), ttl)
}

// NewCacheEntryAt creates a cache entry with an explicit fetch time.
// Useful for testing with a specific clock.
func NewCacheEntryAt(fetchedAt time.Time, ttl time.Duration) *CacheEntry {
	return &CacheEntry{fetchedAt: fetchedAt, ttl: ttl}
}

// IsFresh reports whether the entry is inside its freshness window.
func (ce *CacheEntry) IsFresh() bool {
	return ce.IsFreshAt(time.Now())
}

// IsFreshAt reports freshness at the given time.
func (ce *CacheEntry) IsFreshAt(now time.Time) bool {
	return now.Sub(ce.fetchedAt) < ce.ttl
}

// IsExpired is the inverse of IsFresh.
func (ce *CacheEntry) IsExpired() bool {
	return !ce.IsFresh()
}

// ExpiresAt returns when the entry leaves its freshness window.
func (ce *CacheEntry) ExpiresAt() time.Time {
	return ce.fetchedAt.Add(ce.ttl)
}

// FetchedAt returns when the entry was created.
func (ce *CacheEntry) FetchedAt() time.Time {
	return ce.fetchedAt
}

// Age returns how long ago the entry was fetched.
func (ce *CacheEntry) Age() time.Duration {
	return time.Since(ce.fetchedAt)
}
