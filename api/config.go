// Package api provides the dashboard HTTP API: the widget board, agent
// session management and agent service health.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8501")
	ListenAddr string

	// UserID is the agent service user the dashboard acts as. A fresh
	// dashboard user id is generated when empty.
	UserID string

	// SessionID resumes an existing agent session instead of creating one
	// on first use.
	SessionID string
}
