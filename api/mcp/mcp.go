// Package mcp provides an MCP (Model Context Protocol) server for the adam
// dashboard: tools to ask the agent and to read the widget board.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/utils"
	"github.com/papercomputeco/adam/pkg/worker"
)

// SessionFunc returns the agent user and session tool calls send messages on.
type SessionFunc func(ctx context.Context) (userID, sessionID string, err error)

type Config struct {
	// Driver is the widget board answers are stored on
	Driver storage.Driver

	// Sender delivers prompts to the agent
	Sender worker.Sender

	// Session resolves the agent session for ask_agent
	Session SessionFunc

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the board tools.
func NewServer(c Config) (*Server, error) {
	if c.Driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if c.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if c.Session == nil {
		return nil, errors.New("session func is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "adam",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listToolName,
		Description: listDescription,
	}, s.handleList)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getToolName,
		Description: getDescription,
	}, s.handleGet)

	s.mcpServer = mcpServer

	// Stateless streamable HTTP handler: every request is served by the same server
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
