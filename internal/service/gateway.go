package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/scuti-ai/seocanvas/internal/config"
)

// Gateway is the narrow contract the console needs from the remote agent
// backend. *GatewayClient implements it over HTTP; tests substitute mocks.
type Gateway interface {
	Coordinate(ctx context.Context, command, sessionID string, params map[string]any) (any, error)
	ListSessions(ctx context.Context, ownerID string, limit int) ([]map[string]any, error)
	LoadSession(ctx context.Context, sessionID string) (map[string]any, error)
	CompleteSession(ctx context.Context, sessionID string) error
	SystemStatus(ctx context.Context) (map[string]any, error)
}

// TaskExecutor runs the independent "execute analysis task" family of calls.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, req TaskRequest) (map[string]any, error)
}

type TaskRequest struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Title   string         `json:"title,omitempty"`
	URL     string         `json:"url,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// RateLimitError carries the wait window derived from the Retry-After hint.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %d seconds", int(e.Wait.Seconds()))
}

type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGatewayClient creates a client for the remote agent gateway. The token
// may be empty: calls then go out unauthenticated, which the gateway accepts
// on its public endpoints.
func NewGatewayClient(baseURL, token string) *GatewayClient {
	return &GatewayClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

type coordinateRequest struct {
	Command   string         `json:"command"`
	Action    string         `json:"action"`
	SessionID string         `json:"sessionId,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// Coordinate sends one free-text command and returns the raw, un-normalized
// payload. Shape handling is the normalizer's job, not the transport's.
func (c *GatewayClient) Coordinate(ctx context.Context, command, sessionID string, params map[string]any) (any, error) {
	var raw any
	err := c.postJSON(ctx, "/api/agents/coordinate", coordinateRequest{
		Command:   command,
		Action:    "coordinate",
		SessionID: sessionID,
		Params:    params,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *GatewayClient) ListSessions(ctx context.Context, ownerID string, limit int) ([]map[string]any, error) {
	var resp struct {
		Sessions []map[string]any `json:"sessions"`
		Count    int              `json:"count"`
	}
	body := map[string]any{"ownerId": ownerID, "limit": limit}
	if err := c.postJSON(ctx, "/api/agents/sessions/list", body, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// LoadSession fetches one raw session. The gateway sometimes wraps it one
// level under data or session.
func (c *GatewayClient) LoadSession(ctx context.Context, sessionID string) (map[string]any, error) {
	var raw map[string]any
	body := map[string]any{"sessionId": sessionID}
	if err := c.postJSON(ctx, "/api/agents/sessions/get", body, &raw); err != nil {
		return nil, err
	}
	if inner := childMap(raw, "data", "session"); inner != nil {
		return inner, nil
	}
	return raw, nil
}

func (c *GatewayClient) CompleteSession(ctx context.Context, sessionID string) error {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	body := map[string]any{"sessionId": sessionID}
	if err := c.postJSON(ctx, "/api/agents/sessions/complete", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error != "" {
			return fmt.Errorf("complete session: %s", resp.Error)
		}
		return fmt.Errorf("complete session: gateway refused")
	}
	return nil
}

func (c *GatewayClient) SystemStatus(ctx context.Context) (map[string]any, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, "/api/agents/status", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ExecuteTask runs an SEO-style task. The result arrives under data or
// result, optionally with a further analysis/response wrapper; both are
// unwrapped here so callers see one shape.
func (c *GatewayClient) ExecuteTask(ctx context.Context, req TaskRequest) (map[string]any, error) {
	var raw map[string]any
	if err := c.postJSON(ctx, "/api/agents/task", req, &raw); err != nil {
		return nil, err
	}
	if errText := firstString(raw, "error"); errText != "" && !boolAt(raw, "success") {
		return nil, fmt.Errorf("task failed: %s", errText)
	}

	payload := childMap(raw, "data", "result")
	if payload == nil {
		payload = raw
	}
	if inner := childMap(payload, "analysis", "response"); inner != nil {
		payload = inner
	}
	return payload, nil
}

func (c *GatewayClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *GatewayClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *GatewayClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Wait: retryAfter(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if hint := resp.Header.Get("Retry-After"); hint != "" {
		if secs, err := strconv.Atoi(hint); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return config.RetryAfterFallback
}
