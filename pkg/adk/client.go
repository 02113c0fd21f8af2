// Package adk is a client for an ADK style agent service: session creation,
// app discovery and the streaming /run_sse exchange.
package adk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/reconcile"
	"github.com/papercomputeco/adam/pkg/sse"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultAppName = "tradingadvisor"

	DefaultRequestTimeout = 60 * time.Second
	sessionTimeout        = 10 * time.Second
	healthTimeout         = 5 * time.Second

	maxErrorBody = 64 * 1024
)

// Config is the agent client configuration. Nothing is read from the
// environment; callers resolve configuration and pass it here.
type Config struct {
	// BaseURL is the agent service root, e.g. "http://localhost:8000".
	BaseURL string

	// AppName is the agent app messages are routed to.
	AppName string

	// RequestTimeout bounds one SendMessage exchange, stream included.
	RequestTimeout time.Duration

	// HTTPClient defaults to a client without a global timeout; deadlines
	// come from the per-operation contexts.
	HTTPClient *http.Client

	// Transcript, when set, receives the raw bytes of every response stream.
	Transcript io.Writer

	Logger *slog.Logger
}

// Client talks to one agent app on one agent service.
type Client struct {
	baseURL    string
	appName    string
	timeout    time.Duration
	httpClient *http.Client
	transcript io.Writer
	logger     *slog.Logger
}

// Reply is the reconciled answer to one message.
type Reply struct {
	Message string          `json:"message"`
	Stats   reconcile.Stats `json:"stats"`
}

// Session is an agent service session.
type Session struct {
	ID             string  `json:"id"`
	AppName        string  `json:"appName,omitempty"`
	UserID         string  `json:"userId,omitempty"`
	LastUpdateTime float64 `json:"lastUpdateTime,omitempty"`
}

// HealthReport summarizes reachability of the agent service.
type HealthReport struct {
	Connected bool     `json:"connected"`
	Apps      []string `json:"apps"`
	AppName   string   `json:"app_name"`
	AppFound  bool     `json:"app_found"`
	Error     string   `json:"error,omitempty"`
}

type runRequest struct {
	AppName    string         `json:"appName"`
	UserID     string         `json:"userId"`
	SessionID  string         `json:"sessionId"`
	NewMessage *genai.Content `json:"newMessage"`
	Streaming  bool           `json:"streaming"`
}

// NewClient returns a Client for cfg, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appName:    cfg.AppName,
		timeout:    cfg.RequestTimeout,
		httpClient: cfg.HTTPClient,
		transcript: cfg.Transcript,
		logger:     cfg.Logger,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.appName == "" {
		c.appName = DefaultAppName
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	return c
}

// AppName returns the agent app this client targets.
func (c *Client) AppName() string {
	return c.appName
}

// BaseURL returns the agent service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewUserID returns a fresh dashboard user id.
func NewUserID() string {
	return "dashboard_user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// SendMessage posts text to the agent and reconciles the streamed events into
// a single Reply. Failures before or while reading the stream come back as
// *TransportError; a cancelled ctx yields no Reply.
func (c *Client) SendMessage(ctx context.Context, userID, sessionID, text string) (*Reply, error) {
	const op = "send message"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(runRequest{
		AppName:   c.appName,
		UserID:    userID,
		SessionID: sessionID,
		NewMessage: &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: text}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run_sse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("sending message",
		"app_name", c.appName,
		"user_id", userID,
		"session_id", sessionID,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(op, resp.StatusCode, body)
	}

	var lr *sse.LineReader
	if c.transcript != nil {
		lr = sse.NewTeeLineReader(resp.Body, c.transcript)
	} else {
		lr = sse.NewLineReader(resp.Body)
	}

	rec := reconcile.New(reconcile.WithLogger(c.logger))
	answer, err := rec.Run(ctx, lr.All())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &TransportError{
			Op:      op,
			Message: "reading response stream: " + err.Error(),
			Err:     err,
		}
	}

	stats := rec.Stats()
	c.logger.Debug("reply reconciled",
		"session_id", sessionID,
		"lines", stats.Lines,
		"events", stats.Events,
		"skipped", stats.Skipped,
		"thought_parts", stats.ThoughtParts,
		"duration", time.Since(start),
	)

	return &Reply{Message: answer, Stats: stats}, nil
}

// CreateSession creates a new session for userID on the configured app.
func (c *Client) CreateSession(ctx context.Context, userID string) (*Session, error) {
	const op = "create session"

	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/apps/%s/users/%s/sessions",
		c.baseURL, url.PathEscape(c.appName), url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	session := &Session{}
	if err := c.doJSON(op, req, session); err != nil {
		return nil, err
	}

	if session.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, errNoSessionID)
	}

	c.logger.Debug("session created",
		"app_name", c.appName,
		"user_id", userID,
		"session_id", session.ID,
	)

	return session, nil
}

// ListApps returns the apps the agent service hosts.
func (c *Client) ListApps(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list-apps", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var apps []string
	if err := c.doJSON("list apps", req, &apps); err != nil {
		return nil, err
	}

	return apps, nil
}

// Health reports whether the service is reachable and hosts the configured
// app. The report is populated even when an error is returned.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{AppName: c.appName, Apps: []string{}}

	apps, err := c.ListApps(ctx)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	report.Connected = true
	report.Apps = apps
	for _, app := range apps {
		if app == c.appName {
			report.AppFound = true
			break
		}
	}

	return report, nil
}

func (c *Client) doJSON(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(op, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}

	return nil
}
