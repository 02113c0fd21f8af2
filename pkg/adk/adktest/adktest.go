// Package adktest runs an in-process agent service for tests. It speaks the
// subset of the ADK HTTP API the adk client uses.
package adktest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Event is one server-sent event written by the run endpoint.
type Event struct {
	Author  string         `json:"author,omitempty"`
	Content *genai.Content `json:"content,omitempty"`
}

// Text returns an agent event carrying one final text part.
func Text(text string) Event {
	return Event{Author: "agent", Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}}
}

// Thought returns an agent event carrying one part flagged as a thought.
func Thought(text string) Event {
	return Event{Author: "agent", Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text, Thought: true}}}}
}

// Server is a fake agent service.
type Server struct {
	*httptest.Server

	// AppName is the only app the service hosts.
	AppName string

	mu       sync.Mutex
	events   []Event
	status   int
	body     string
	sessions int
	messages []string
}

// NewServer starts a fake agent service hosting appName.
func NewServer(appName string) *Server {
	s := &Server{AppName: appName}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /list-apps", s.handleListApps)
	mux.HandleFunc("POST /apps/{app}/users/{user}/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /run_sse", s.handleRun)

	s.Server = httptest.NewServer(mux)
	return s
}

// Reply sets the events streamed for every following message.
func (s *Server) Reply(events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.status = 0
}

// Fail makes every following message return status with body.
func (s *Server) Fail(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// Sessions returns how many sessions were created.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// Messages returns the text of every message received, in order.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func (s *Server) handleListApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []string{s.AppName})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("app") != s.AppName {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "App not found"})
		return
	}

	s.mu.Lock()
	s.sessions++
	id := fmt.Sprintf("session-%d", s.sessions)
	s.mu.Unlock()

	writeJSON(w, map[string]string{"id": id, "appName": s.AppName, "userId": r.PathValue("user")})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewMessage genai.Content `json:"newMessage"`
	}
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &req)

	var text []string
	for _, p := range req.NewMessage.Parts {
		text = append(text, p.Text)
	}

	s.mu.Lock()
	s.messages = append(s.messages, strings.Join(text, ""))
	events, status, failBody := s.events, s.status, s.body
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, failBody)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	for _, ev := range events {
		data, _ := json.Marshal(ev)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
