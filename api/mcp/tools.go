package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
)

var (
	askToolName    = "ask_agent"
	askDescription = "Send a message to the agent and wait for its answer. The reply is reconciled into one final answer with reasoning removed, classified as a text, table, image or error widget, and added to the dashboard board."

	listToolName    = "list_widgets"
	listDescription = "List the widgets on the dashboard board, oldest first. Each widget holds a prompt and the agent's classified answer."

	getToolName    = "get_widget"
	getDescription = "Get one widget from the dashboard board by id."
)

// AskInput represents the input arguments for the ask_agent tool.
type AskInput struct {
	Message string `json:"message" jsonschema:"the message to send to the agent"`
}

// WidgetInput represents the input arguments for the get_widget tool.
type WidgetInput struct {
	ID string `json:"id" jsonschema:"the widget id"`
}

// Widget is the tool view of a board widget.
type Widget struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Status    string           `json:"status"`
	Prompt    string           `json:"prompt"`
	Content   string           `json:"content"`
	Rows      []map[string]any `json:"rows,omitempty"`
	Image     string           `json:"image,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt string           `json:"created_at"`
}

// ListOutput represents the output of the list_widgets tool.
type ListOutput struct {
	Count   int      `json:"count"`
	Widgets []Widget `json:"widgets"`
}

func toolWidget(w *widget.Widget) Widget {
	return Widget{
		ID:        w.ID,
		Type:      string(w.Type),
		Status:    string(w.Status),
		Prompt:    w.Prompt,
		Content:   w.Content,
		Rows:      w.Rows,
		Image:     w.Image,
		Error:     w.Error,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

// handleAsk sends the message synchronously and stores the answer on the board.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, Widget, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return errorResult("message is required"), Widget{}, nil
	}

	userID, sessionID, err := s.config.Session(ctx)
	if err != nil {
		s.config.Logger.Warn("MCP ask: no agent session", "error", err)
		return errorResult("Failed to start agent session: %v", err), Widget{}, nil
	}

	s.config.Logger.Debug("MCP ask request", "session_id", sessionID)

	reply, sendErr := s.config.Sender.SendMessage(ctx, userID, sessionID, message)
	w := widget.FromReply(message, reply, sendErr)
	w.SessionID = sessionID

	if err := s.config.Driver.Put(ctx, w); err != nil {
		s.config.Logger.Error("MCP ask: storing widget failed", "widget_id", w.ID, "error", err)
		return errorResult("Failed to store widget: %v", err), Widget{}, nil
	}

	out := toolWidget(w)
	result, err := jsonResult(out)
	if err != nil {
		return errorResult("Failed to serialize widget: %v", err), Widget{}, nil
	}
	result.IsError = w.Status == widget.StatusFailed
	return result, out, nil
}

func (s *Server) handleList(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListOutput, error) {
	widgets, err := s.config.Driver.List(ctx)
	if err != nil {
		return errorResult("Failed to list widgets: %v", err), ListOutput{Widgets: []Widget{}}, nil
	}

	out := ListOutput{Count: len(widgets), Widgets: make([]Widget, 0, len(widgets))}
	for _, w := range widgets {
		out.Widgets = append(out.Widgets, toolWidget(w))
	}

	result, err := jsonResult(out)
	if err != nil {
		return errorResult("Failed to serialize widgets: %v", err), ListOutput{Widgets: []Widget{}}, nil
	}
	return result, out, nil
}

func (s *Server) handleGet(ctx context.Context, _ *mcp.CallToolRequest, input WidgetInput) (*mcp.CallToolResult, Widget, error) {
	if input.ID == "" {
		return errorResult("id is required"), Widget{}, nil
	}

	w, err := s.config.Driver.Get(ctx, input.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			return errorResult("widget %s not found", input.ID), Widget{}, nil
		}
		return errorResult("Failed to get widget: %v", err), Widget{}, nil
	}

	out := toolWidget(w)
	result, err := jsonResult(out)
	if err != nil {
		return errorResult("Failed to serialize widget: %v", err), Widget{}, nil
	}
	return result, out, nil
}
