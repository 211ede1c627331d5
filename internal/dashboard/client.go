// internal/dashboard/client.go
//
// HTTP client for the external dashboard service. The contract is
// informal: three POST endpoints whose responses are ignored, plus two
// GET probes. Callers must treat every returned error as "dashboard
// absent" and carry on; nothing here ever affects a run's outcome.

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClientTimeout bounds each dashboard request.
const DefaultClientTimeout = 5 * time.Second

// Client talks to a coordinator dashboard at a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides the per-request timeout. It applies to whatever
// HTTP client the options settle on, regardless of option order.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient builds a dashboard client for the given coordinator URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// BaseURL returns the coordinator base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type registerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type updateRequest struct {
	AgentID  string `json:"agentId"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
}

type activityRequest struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// RegisterAgent announces an agent to the dashboard. The response body and
// status code are ignored; only transport failures are reported.
func (c *Client) RegisterAgent(ctx context.Context, id, name, role string) error {
	return c.postJSON(ctx, "/api/agent/register", registerRequest{ID: id, Name: name, Role: role})
}

// UpdateAgent posts an agent's current status and activity.
func (c *Client) UpdateAgent(ctx context.Context, agentID, status, activity string) error {
	return c.postJSON(ctx, "/api/agent/update", updateRequest{AgentID: agentID, Status: status, Activity: activity})
}

// PostActivity appends a line to the dashboard's activity feed.
func (c *Client) PostActivity(ctx context.Context, agent, message string) error {
	return c.postJSON(ctx, "/api/activity/post", activityRequest{Agent: agent, Message: message})
}

// Probe checks whether the dashboard page responds. Any non-200 response
// or network failure means "dashboard absent".
func (c *Client) Probe(ctx context.Context) bool {
	return c.getOK(ctx, "/dashboard")
}

// IterationStatus checks the coordinator's iteration status endpoint.
func (c *Client) IterationStatus(ctx context.Context) bool {
	return c.getOK(ctx, "/api/iteration/status")
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dashboard: encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard: post %s: %w", path, err)
	}
	drain(resp)
	return nil
}

func (c *Client) getOK(ctx context.Context, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer drain(resp)
	return resp.StatusCode == http.StatusOK
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
