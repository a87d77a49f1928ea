package instacred

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// InstanceAPI is a thin wrapper over the messaging provider's per-instance
// REST endpoints. Calls authenticate with the resolved token only; the
// client certificate is a log-backend concern and is never presented here.
type InstanceAPI struct {
	baseURL    string
	instanceID string
	token      string
	httpClient *http.Client
}

// InstanceAPI resolves the instance and returns a caller for its endpoints.
func (c *Client) InstanceAPI(ctx context.Context, instanceID string) (*InstanceAPI, error) {
	res, err := c.Resolve(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return &InstanceAPI{
		baseURL:    res.BaseURL,
		instanceID: res.InstanceID,
		token:      res.Token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// IsMax reports whether the instance is served from a MAX (/v3) pool.
func (a *InstanceAPI) IsMax() bool {
	return strings.Contains(a.baseURL, "/v3")
}

// call issues one endpoint request: {base}/waInstance{id}/{method}/{token}.
func (a *InstanceAPI) call(ctx context.Context, httpMethod, apiMethod string, body interface{}, query url.Values) (string, error) {
	u := fmt.Sprintf("%s/waInstance%s/%s/%s",
		strings.TrimRight(a.baseURL, "/"), a.instanceID, apiMethod, a.token)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, u, reader)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return string(text), nil
}

// State returns the instance's current state.
func (a *InstanceAPI) State(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "getStateInstance", nil, nil)
}

// Settings returns the instance settings.
func (a *InstanceAPI) Settings(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "getSettings", nil, nil)
}

// SetSettings updates instance settings.
func (a *InstanceAPI) SetSettings(ctx context.Context, settings map[string]interface{}) (string, error) {
	return a.call(ctx, http.MethodPost, "setSettings", settings, nil)
}

// Reboot restarts the instance.
func (a *InstanceAPI) Reboot(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "reboot", nil, nil)
}

// Logout logs the instance's account out.
func (a *InstanceAPI) Logout(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "logout", nil, nil)
}

// LastIncomingMessages returns the incoming message journal.
func (a *InstanceAPI) LastIncomingMessages(ctx context.Context, minutes int) (string, error) {
	return a.call(ctx, http.MethodGet, "lastIncomingMessages", nil, minutesQuery(minutes))
}

// LastOutgoingMessages returns the outgoing message journal.
func (a *InstanceAPI) LastOutgoingMessages(ctx context.Context, minutes int) (string, error) {
	return a.call(ctx, http.MethodGet, "lastOutgoingMessages", nil, minutesQuery(minutes))
}

// MessagesCount returns the send queue length.
func (a *InstanceAPI) MessagesCount(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "getMessagesCount", nil, nil)
}

// MessageQueue returns the messages waiting in the send queue.
func (a *InstanceAPI) MessageQueue(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "showMessagesQueue", nil, nil)
}

// ClearMessageQueue drops the send queue.
func (a *InstanceAPI) ClearMessageQueue(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "clearMessagesQueue", nil, nil)
}

// WebhooksCount returns the webhook queue length.
func (a *InstanceAPI) WebhooksCount(ctx context.Context) (string, error) {
	return a.call(ctx, http.MethodGet, "getWebhooksCount", nil, nil)
}

func minutesQuery(minutes int) url.Values {
	if minutes <= 0 {
		minutes = 1440
	}
	q := url.Values{}
	q.Set("minutes", strconv.Itoa(minutes))
	return q
}
