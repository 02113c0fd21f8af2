package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/adam/api/mcp"
	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/worker"
)

// Agent is the agent service as seen by the dashboard. *adk.Client implements it.
type Agent interface {
	AppName() string
	CreateSession(ctx context.Context, userID string) (*adk.Session, error)
	Health(ctx context.Context) (*adk.HealthReport, error)
}

// Enqueuer accepts widget jobs. *worker.Pool implements it.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Server is the dashboard API server.
type Server struct {
	config Config
	driver storage.Driver
	agent  Agent
	jobs   Enqueuer
	logger *slog.Logger
	app    *fiber.App

	// mu guards the agent session the dashboard sends messages on
	mu        sync.Mutex
	userID    string
	sessionID string

	// messages counts prompts accepted since startup
	messages atomic.Int64
}

// NewServer creates a new dashboard API server.
// The driver is injected so the worker pool can share it.
func NewServer(config Config, driver storage.Driver, agent Agent, jobs Enqueuer, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		config:    config,
		driver:    driver,
		agent:     agent,
		jobs:      jobs,
		logger:    log,
		app:       app,
		userID:    config.UserID,
		sessionID: config.SessionID,
	}
	if s.userID == "" {
		s.userID = adk.NewUserID()
	}

	app.Get("/ping", s.handlePing)

	routes := app.Group("/api")
	routes.Get("/health", s.handleHealth)
	routes.Get("/stats", s.handleStats)
	routes.Get("/session", s.handleGetSession)
	routes.Post("/session", s.handleNewSession)
	routes.Get("/widgets", s.handleListWidgets)
	routes.Post("/widgets", s.handleCreateWidget)
	routes.Delete("/widgets", s.handleClearWidgets)
	routes.Get("/widgets/:id", s.handleGetWidget)
	routes.Delete("/widgets/:id", s.handleDeleteWidget)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting dashboard server",
		"listen", s.config.ListenAddr,
		"app_name", s.agent.AppName(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// EnableMCP mounts the MCP server at /mcp. Tool calls share the dashboard's
// agent session and widget board.
func (s *Server) EnableMCP(sender worker.Sender) error {
	mcpServer, err := mcp.NewServer(mcp.Config{
		Driver:  s.driver,
		Sender:  sender,
		Session: s.ensureSession,
		Logger:  s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	s.app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	return nil
}

// Handler exposes the routes as a net/http handler.
func (s *Server) Handler() http.HandlerFunc {
	return adaptor.FiberApp(s.app)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ensureSession returns the current agent session, creating one on first use.
func (s *Server) ensureSession(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID != "" {
		return s.userID, s.sessionID, nil
	}

	session, err := s.agent.CreateSession(ctx, s.userID)
	if err != nil {
		return "", "", err
	}

	s.sessionID = session.ID
	s.logger.Info("agent session created",
		"user_id", s.userID,
		"session_id", s.sessionID,
	)

	return s.userID, s.sessionID, nil
}

// resetSession replaces the current agent session with a new one.
func (s *Server) resetSession(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()

	return s.ensureSession(ctx)
}
