package adk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultErrorMessage is used when a failed exchange gives nothing better to say.
const DefaultErrorMessage = "Failed to send message"

// errorMessagePaths are probed, in order, for a human readable failure in an
// error response body. FastAPI based agent servers use "detail".
var errorMessagePaths = []string{"message", "error.message", "error", "detail"}

// errNoSessionID is returned when the session endpoint answers without an id.
var errNoSessionID = errors.New("no session ID in response")

// TransportError is a failed exchange with the agent service: a non-2xx
// status, or a network failure before or while the response stream is read.
// It is always fatal for the request it belongs to.
type TransportError struct {
	// Op names the client operation, e.g. "send message".
	Op string

	// StatusCode is the HTTP status, zero for network failures.
	StatusCode int

	// Message is the failure description shown to users.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultErrorMessage
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage returns the message without operation or status decoration.
func (e *TransportError) UserMessage() string {
	if e.Message == "" {
		return DefaultErrorMessage
	}
	return e.Message
}

func statusError(op string, status int, body []byte) *TransportError {
	msg := ""
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
				msg = r.String()
				break
			}
		}
	}

	if msg == "" {
		if text := http.StatusText(status); text != "" {
			msg = "agent service returned " + text
		}
	}

	return &TransportError{Op: op, StatusCode: status, Message: msg}
}

func networkError(op string, err error) *TransportError {
	return &TransportError{Op: op, Message: err.Error(), Err: err}
}
