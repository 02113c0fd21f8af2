// Package cliui provides reusable terminal UI helpers for adam CLI commands:
// spinners, marks, markdown rendering and widget rendering.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner redraws a single status line on w until stopped.
type spinner struct {
	w    io.Writer
	msg  string
	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func startSpinner(w io.Writer, msg string) *spinner {
	s := &spinner{w: w, msg: msg, done: make(chan struct{})}
	s.wg.Go(s.loop)
	return s
}

func (s *spinner) loop() {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), s.msg)
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// stop ends the animation and overwrites the line with the outcome.
func (s *spinner) stop(err error, elapsed time.Duration) {
	close(s.done)
	s.wg.Wait()

	fmt.Fprintf(s.w, "\r  %s %s %s\n", Mark(err), s.msg, DimStyle.Render("("+FormatDuration(elapsed)+")"))
}

// Step shows a spinner labelled msg on w while fn runs, then replaces it with
// a mark and the elapsed time. It returns fn's error.
func Step(w io.Writer, msg string, fn func() error) error {
	s := startSpinner(w, msg)
	start := time.Now()

	err := fn()
	s.stop(err, time.Since(start))
	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdownWidth renders markdown with glamour, wrapped at width columns.
// On failure the content is returned unchanged along with the error.
func RenderMarkdownWidth(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
