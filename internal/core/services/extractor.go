package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

// Extractor turns instance-scoped log searches into (base URL, token)
// pairs. It owns the query window policy: the default window is tried
// first, and widened exactly once when it yields nothing, to accommodate
// infrequently-logged instances.
type Extractor struct {
	searcher ports.LogSearcher
	config   *ports.Configuration
	logger   *slog.Logger
	metrics  MetricsReporter
}

// NewExtractor creates an Extractor.
func NewExtractor(
	searcher ports.LogSearcher,
	config *ports.Configuration,
	logger *slog.Logger,
	metrics MetricsReporter,
) (*Extractor, error) {
	if searcher == nil {
		return nil, &errors.ValidationError{
			Field:   "searcher",
			Value:   nil,
			Message: "log searcher cannot be nil",
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
	return &Extractor{
		searcher: searcher,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// FindLatestCredentials queries the log backend for records belonging to
// the instance and extracts the most recent usable (base URL, token) pair.
// Among matching records the latest timestamp wins; records sharing that
// timestamp resolve to the first one in the backend's returned order, which
// is stable ingestion order. Returns ErrTokenNotFound when neither window
// yields a pair.
func (e *Extractor) FindLatestCredentials(
	ctx context.Context,
	id domain.InstanceID,
	session *domain.SessionCredential,
) (*domain.ResolvedCredentials, error) {
	windows := []string{e.config.Query.Window}
	if wide := e.config.Query.WideWindow; wide != "" && wide != e.config.Query.Window {
		windows = append(windows, wide)
	}

	matcher := domain.NewTokenMatcher(id)

	for i, window := range windows {
		query := ports.SearchQuery{
			Instance:  id,
			Window:    window,
			Size:      e.config.Query.Size,
			RequestID: uuid.NewString(),
		}

		e.metrics.RecordQuery(window)
		records, err := e.searcher.Search(ctx, query, session)
		if err != nil {
			return nil, err
		}

		if found := extractLatest(records, matcher, id, e.config.Endpoints.PreferDirect); found != nil {
			e.logger.Info("resolved credentials from log records",
				"instance", id.String(),
				"window", window,
				"widened", i > 0,
				"request_id", query.RequestID,
			)
			return found, nil
		}

		e.logger.Info("no usable record in window",
			"instance", id.String(),
			"window", window,
			"records", len(records),
			"request_id", query.RequestID,
		)
	}

	return nil, errors.NewDomainError(errors.ErrTokenNotFound, nil)
}

// extractLatest scans all records and keeps the match with the latest
// timestamp. A strictly newer timestamp replaces the current best; an equal
// timestamp keeps the earlier record, so the choice is deterministic even
// when the backend returns unordered results.
func extractLatest(
	records []domain.LogRecord,
	matcher domain.TokenMatcher,
	id domain.InstanceID,
	preferDirect bool,
) *domain.ResolvedCredentials {
	var best *domain.ResolvedCredentials

	for _, rec := range records {
		if rec.Kind == domain.RecordUnrecognized {
			continue
		}
		token, ok := matcher.FindToken(rec)
		if !ok {
			continue
		}
		if best != nil && !rec.Timestamp.After(best.RecordTime) {
			continue
		}
		best = &domain.ResolvedCredentials{
			Endpoint:   domain.ResolveEndpoint(id, preferDirect),
			Token:      token,
			RecordTime: rec.Timestamp,
		}
	}

	return best
}
