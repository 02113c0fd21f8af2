package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/adam/pkg/widget"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeWidgetCompleted is emitted after an asynchronously created
	// widget is answered, successfully or not.
	EventTypeWidgetCompleted = "adam.widget.completed"
)

// WidgetEvent is a transport-neutral event payload for a completed widget.
type WidgetEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	Widget        widget.Widget `json:"widget"`
}

// EventSource identifies the agent conversation the widget came from.
type EventSource struct {
	AppName   string `json:"app_name"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewWidgetCompleted builds a completed event for w.
func NewWidgetCompleted(source EventSource, w *widget.Widget) *WidgetEvent {
	return &WidgetEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeWidgetCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Widget:        *w,
	}
}
