package reconcile

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

const dataPrefix = "data:"

// internalMarkers tag text an agent emits for its own reasoning. They can leak
// into parts that lack the thought flag, so they are matched by prefix too.
var internalMarkers = []string{
	"/*REASONING*/",
	"/*THINKING*/",
	"/*PLANNING*/",
	"/*ACTION*/",
}

var (
	errBlank     = errors.New("blank line")
	errMalformed = errors.New("malformed event payload")
	errNoContent = errors.New("event has no content parts")
)

// Event is a single agent event decoded from one stream line. Only the fields
// the reconciler reads are extracted. Every other field is ignored whatever
// its shape, so a part carrying e.g. thoughtSignature still yields its text.
type Event struct {
	ID           string         `json:"id,omitempty"`
	InvocationID string         `json:"invocationId,omitempty"`
	Author       string         `json:"author,omitempty"`
	Partial      bool           `json:"partial,omitempty"`
	TurnComplete bool           `json:"turnComplete,omitempty"`
	ErrorCode    string         `json:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Content      *genai.Content `json:"content,omitempty"`
}

// ParseEvent decodes a stream line into an Event. It reports false for blank
// lines, undecodable JSON and events that carry no content parts.
func ParseEvent(line string) (*Event, bool) {
	ev, err := decodeEvent(line)
	if err != nil {
		return nil, false
	}
	return ev, true
}

// IsThought reports whether part is internal reasoning that must never reach
// the user, either by flag or by a reserved text prefix.
func IsThought(part *genai.Part) bool {
	if part == nil {
		return false
	}
	if part.Thought {
		return true
	}
	return hasInternalMarker(part.Text)
}

func hasInternalMarker(text string) bool {
	for _, marker := range internalMarkers {
		if strings.HasPrefix(text, marker) {
			return true
		}
	}
	return false
}

// decodeEvent is ParseEvent with the reason for rejection. On errNoContent the
// decoded event is still returned so callers can inspect error fields.
func decodeEvent(line string) (*Event, error) {
	payload := strings.TrimSpace(line)
	if payload == "" {
		return nil, errBlank
	}

	if after, ok := strings.CutPrefix(payload, dataPrefix); ok {
		payload = strings.TrimSpace(after)
	}

	if !gjson.Valid(payload) {
		return nil, errMalformed
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return nil, errMalformed
	}

	ev := &Event{
		ID:           stringField(root, "id"),
		InvocationID: stringField(root, "invocationId"),
		Author:       stringField(root, "author"),
		Partial:      root.Get("partial").Type == gjson.True,
		TurnComplete: root.Get("turnComplete").Type == gjson.True,
		ErrorCode:    scalarField(root, "errorCode"),
		ErrorMessage: scalarField(root, "errorMessage"),
	}

	parts := root.Get("content.parts")
	if !parts.IsArray() || len(parts.Array()) == 0 {
		return ev, errNoContent
	}

	ev.Content = &genai.Content{Role: stringField(root, "content.role")}
	for _, p := range parts.Array() {
		ev.Content.Parts = append(ev.Content.Parts, &genai.Part{
			Text: stringField(p, "text"),
			// Only a literal true marks a thought.
			Thought: p.Get("thought").Type == gjson.True,
		})
	}

	return ev, nil
}

// stringField returns the value at path when it is a JSON string, else "".
func stringField(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// scalarField renders a string or number at path as text. Agents disagree on
// whether error codes are strings or numbers.
func scalarField(r gjson.Result, path string) string {
	v := r.Get(path)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}
