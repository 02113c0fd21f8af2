package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
	"github.com/papercomputeco/adam/pkg/worker"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateWidgetRequest is the body of POST /api/widgets.
type CreateWidgetRequest struct {
	Message string `json:"message"`
}

// SessionResponse describes the agent session the dashboard uses.
type SessionResponse struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	AppName   string `json:"app_name"`
}

// WidgetListResponse is the body of GET /api/widgets.
type WidgetListResponse struct {
	Count   int              `json:"count"`
	Widgets []*widget.Widget `json:"widgets"`
}

// ClearResponse is the body of DELETE /api/widgets.
type ClearResponse struct {
	Removed int `json:"removed"`
}

// StatsResponse is the board summary.
type StatsResponse struct {
	ActiveWidgets int   `json:"active_widgets"`
	TotalMessages int64 `json:"total_messages"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleHealth reports agent service reachability; 503 when it is down.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	report, err := s.agent.Health(c.UserContext())
	if err != nil {
		s.logger.Warn("agent service health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}

	return c.JSON(report)
}

// handleStats returns the number of widgets on the board and accepted prompts.
func (s *Server) handleStats(c *fiber.Ctx) error {
	n, err := s.driver.Count(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count widgets"})
	}

	return c.JSON(StatsResponse{
		ActiveWidgets: n,
		TotalMessages: s.messages.Load(),
	})
}

// handleGetSession returns the current agent session, creating it if needed.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	userID, sessionID, err := s.ensureSession(c.UserContext())
	if err != nil {
		return s.agentError(c, err)
	}

	return c.JSON(SessionResponse{UserID: userID, SessionID: sessionID, AppName: s.agent.AppName()})
}

// handleNewSession starts a new agent session.
func (s *Server) handleNewSession(c *fiber.Ctx) error {
	userID, sessionID, err := s.resetSession(c.UserContext())
	if err != nil {
		return s.agentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{UserID: userID, SessionID: sessionID, AppName: s.agent.AppName()})
}

// handleListWidgets returns the board, oldest widget first.
func (s *Server) handleListWidgets(c *fiber.Ctx) error {
	widgets, err := s.driver.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list widgets"})
	}

	if widgets == nil {
		widgets = []*widget.Widget{}
	}
	return c.JSON(WidgetListResponse{Count: len(widgets), Widgets: widgets})
}

// handleGetWidget returns a single widget by ID.
func (s *Server) handleGetWidget(c *fiber.Ctx) error {
	w, err := s.driver.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.storageError(c, err)
	}

	return c.JSON(w)
}

// handleCreateWidget accepts a prompt and answers it asynchronously. The
// response is the pending widget; poll GET /api/widgets/:id for the result.
func (s *Server) handleCreateWidget(c *fiber.Ctx) error {
	var req CreateWidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	userID, sessionID, err := s.ensureSession(c.UserContext())
	if err != nil {
		return s.agentError(c, err)
	}

	w := widget.NewPending(message)
	w.SessionID = sessionID

	ctx := c.Context()
	if err := s.driver.Put(ctx, w); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store widget"})
	}

	// The worker owns its copy; the response renders the pending state.
	job := *w
	if !s.jobs.Enqueue(worker.Job{Widget: &job, UserID: userID, SessionID: sessionID}) {
		if err := s.driver.Delete(ctx, w.ID); err != nil {
			s.logger.Error("removing unqueued widget failed", "widget_id", w.ID, "error", err)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "dashboard is busy, try again"})
	}

	s.messages.Add(1)
	return c.Status(fiber.StatusAccepted).JSON(w)
}

// handleDeleteWidget removes a widget from the board.
func (s *Server) handleDeleteWidget(c *fiber.Ctx) error {
	if err := s.driver.Delete(c.Context(), c.Params("id")); err != nil {
		return s.storageError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleClearWidgets removes every widget from the board.
func (s *Server) handleClearWidgets(c *fiber.Ctx) error {
	n, err := s.driver.Clear(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear widgets"})
	}

	return c.JSON(ClearResponse{Removed: n})
}

func (s *Server) storageError(c *fiber.Ctx, err error) error {
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "widget not found"})
	}

	s.logger.Error("storage operation failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "storage error"})
}

func (s *Server) agentError(c *fiber.Ctx, err error) error {
	s.logger.Warn("agent service request failed", "error", err)

	var terr *adk.TransportError
	if errors.As(err, &terr) {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: terr.UserMessage()})
	}
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
}
