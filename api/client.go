package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/adam/pkg/widget"
)

const defaultClientTimeout = 30 * time.Second

// Client calls a running dashboard server.
type Client struct {
	target     string
	httpClient *http.Client
}

// NewClient returns a Client for the dashboard at target, e.g.
// "http://localhost:8501". A nil httpClient uses a 30s timeout client.
func NewClient(target string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}

	return &Client{
		target:     strings.TrimRight(target, "/"),
		httpClient: httpClient,
	}
}

// StatusError is a non-2xx dashboard response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashboard returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("dashboard returned status %d: %s", e.StatusCode, e.Message)
}

// ListWidgets returns the board, oldest widget first.
func (c *Client) ListWidgets(ctx context.Context) ([]*widget.Widget, error) {
	var resp WidgetListResponse
	if err := c.do(ctx, http.MethodGet, "/api/widgets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Widgets, nil
}

// GetWidget returns one widget.
func (c *Client) GetWidget(ctx context.Context, id string) (*widget.Widget, error) {
	w := &widget.Widget{}
	if err := c.do(ctx, http.MethodGet, "/api/widgets/"+url.PathEscape(id), nil, w); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateWidget submits a prompt and returns the pending widget.
func (c *Client) CreateWidget(ctx context.Context, message string) (*widget.Widget, error) {
	w := &widget.Widget{}
	if err := c.do(ctx, http.MethodPost, "/api/widgets", CreateWidgetRequest{Message: message}, w); err != nil {
		return nil, err
	}
	return w, nil
}

// WaitWidget polls a widget every interval until it leaves the pending state.
func (c *Client) WaitWidget(ctx context.Context, id string, interval time.Duration) (*widget.Widget, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w, err := c.GetWidget(ctx, id)
		if err != nil {
			return nil, err
		}
		if w.Status != widget.StatusPending {
			return w, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DeleteWidget removes one widget.
func (c *Client) DeleteWidget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/widgets/"+url.PathEscape(id), nil, nil)
}

// ClearWidgets removes every widget and returns how many were removed.
func (c *Client) ClearWidgets(ctx context.Context) (int, error) {
	var resp ClearResponse
	if err := c.do(ctx, http.MethodDelete, "/api/widgets", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Stats returns the board summary.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	resp := &StatsResponse{}
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling dashboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&errResp)
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
