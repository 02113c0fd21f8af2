// Package widget turns reconciled agent answers into typed dashboard widgets.
package widget

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/adam/pkg/adk"
)

// Type is how a widget is rendered.
type Type string

const (
	TypeText  Type = "text"
	TypeTable Type = "table"
	TypeImage Type = "image"
	TypeError Type = "error"
)

// Status tracks a widget created asynchronously by the dashboard server.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// DefaultErrorMessage is shown on error widgets whose payload names no error.
const DefaultErrorMessage = "An error occurred"

// Widget is one prompt and the agent's reply to it, ready to render.
type Widget struct {
	ID      string `json:"id"`
	Type    Type   `json:"type"`
	Status  Status `json:"status"`
	Prompt  string `json:"prompt"`
	Content string `json:"content"`

	// Rows holds table data for TypeTable widgets.
	Rows []map[string]any `json:"rows,omitempty"`

	// Image is the image or chart URL for TypeImage widgets.
	Image string `json:"image,omitempty"`

	// Error is the failure text for TypeError widgets.
	Error string `json:"error,omitempty"`

	SessionID   string     `json:"session_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewPending returns a widget for prompt that has not been answered yet.
func NewPending(prompt string) *Widget {
	return &Widget{
		ID:        uuid.NewString(),
		Type:      TypeText,
		Status:    StatusPending,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}
}

// FromReply builds a completed widget for prompt out of a SendMessage result.
func FromReply(prompt string, reply *adk.Reply, err error) *Widget {
	w := NewPending(prompt)
	w.Complete(reply, err)
	return w
}

// Complete fills w from a SendMessage result and marks it done or failed.
// Transport failures become error widgets carrying the user facing message.
func (w *Widget) Complete(reply *adk.Reply, err error) {
	now := time.Now().UTC()
	w.CompletedAt = &now

	if err != nil {
		w.Type = TypeError
		w.Status = StatusFailed
		w.Error = errorMessage(err)
		w.Content = w.Error
		return
	}

	w.Status = StatusDone
	if reply == nil {
		w.Type = TypeText
		return
	}

	c := Classify(reply.Message)
	w.Type = c.Type
	w.Content = reply.Message
	w.Rows = c.Rows
	w.Image = c.Image
	w.Error = c.Error
}

func errorMessage(err error) string {
	var terr *adk.TransportError
	if errors.As(err, &terr) {
		return terr.UserMessage()
	}
	if err.Error() == "" {
		return adk.DefaultErrorMessage
	}
	return err.Error()
}
