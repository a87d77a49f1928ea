package ports

import (
	"context"

	"github.com/tealgate/instacred/internal/core/domain"
)

// SearchQuery is one instance-scoped, time-windowed query against the log
// backend's search endpoint.
type SearchQuery struct {
	// Instance filters records to one instance id.
	Instance domain.InstanceID

	// Window is the relative range expression for the oldest record, e.g.
	// "now-24h". The newest side is always "now".
	Window string

	// Size caps the number of records returned.
	Size int

	// RequestID correlates the query across logs and backend traces.
	RequestID string
}

// LogSearcher issues search queries against the log backend. Records come
// back in the backend's returned order (timestamp descending, ingestion
// order stable within equal timestamps). Fails with ErrSessionExpired on an
// authentication-failure status, ErrBackendQueryError on query-level errors
// or malformed responses, and ErrNetworkUnreachable on connection failure.
type LogSearcher interface {
	Search(ctx context.Context, query SearchQuery, session *domain.SessionCredential) ([]domain.LogRecord, error)
}
