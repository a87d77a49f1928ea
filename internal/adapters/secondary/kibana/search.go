package kibana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tealgate/instacred/internal/core/domain"
	"github.com/tealgate/instacred/internal/core/errors"
	"github.com/tealgate/instacred/internal/core/ports"
)

// searchBody is the search request relayed through the backend's console
// proxy to the underlying log indices.
type searchBody struct {
	Size           int                      `json:"size"`
	TrackTotalHits bool                     `json:"track_total_hits"`
	Sort           []map[string]interface{} `json:"sort"`
	Query          map[string]interface{}   `json:"query"`
	Source         []string                 `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search issues one instance-scoped, time-windowed query. Results keep the
// backend's returned order: timestamp descending, ingestion order within
// equal timestamps.
func (c *Client) Search(ctx context.Context, query ports.SearchQuery, session *domain.SessionCredential) ([]domain.LogRecord, error) {
	if session == nil {
		return nil, errors.NewDomainError(errors.ErrSessionExpired,
			fmt.Errorf("no session credential supplied"))
	}

	size := query.Size
	if size <= 0 {
		size = c.searchSize
	}

	body, err := json.Marshal(searchBody{
		Size:           size,
		TrackTotalHits: false,
		Sort: []map[string]interface{}{
			{"@timestamp": map[string]interface{}{"order": "desc"}},
		},
		Query: map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"range": map[string]interface{}{
						"@timestamp": map[string]interface{}{"gte": query.Window},
					}},
					{"query_string": map[string]interface{}{
						"query": "waInstance" + query.Instance.String(),
					}},
				},
			},
		},
		Source: []string{"@timestamp", "uri", "message"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	params := url.Values{}
	params.Set("path", searchIndex+"/_search")
	params.Set("method", "GET")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(proxyPath)+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set(xsrfHeader, "true")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", session.Cookie)
	if query.RequestID != "" {
		req.Header.Set("x-request-id", query.RequestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, asNetworkError(err)
	}
	defer drainAndClose(resp)

	if isAuthStatus(resp.StatusCode) {
		return nil, errors.NewDomainError(errors.ErrSessionExpired,
			fmt.Errorf("search rejected with status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("search failed with status %d", resp.StatusCode))
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&parsed); err != nil {
		return nil, errors.NewDomainError(errors.ErrBackendQueryError,
			fmt.Errorf("malformed search response: %w", err))
	}

	records := make([]domain.LogRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, domain.ParseLogRecord(hit.Source))
	}

	c.logger.Debug("search completed",
		"instance", query.Instance.String(),
		"window", query.Window,
		"records", len(records),
		"request_id", query.RequestID,
	)
	return records, nil
}
