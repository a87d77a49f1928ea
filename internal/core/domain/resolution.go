package domain

import "time"

// ResolutionSource tells callers whether an entry came from cache or from a
// fresh backend resolution.
type ResolutionSource int

const (
	SourceFresh ResolutionSource = iota
	SourceCache
)

func (s ResolutionSource) String() string {
	if s == SourceCache {
		return "cache"
	}
	return "fresh"
}

// ResolvedCredentials is the raw outcome of a log extraction: the endpoint
// serving the instance, the api token recovered from its log records, and
// the timestamp of the record the token came from.
type ResolvedCredentials struct {
	Endpoint   Endpoint
	Token      string
	RecordTime time.Time
}

// ResolutionEntry is the cached, caller-facing resolution for one instance.
// Entries are created and overwritten only by the orchestrator; callers
// receive values and never mutate shared state.
type ResolutionEntry struct {
	Instance   InstanceID
	BaseURL    string
	Token      string
	ResolvedAt time.Time
	Source     ResolutionSource
}
