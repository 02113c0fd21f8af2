// Package reconcile rebuilds a single user facing answer from the stream of
// agent events that one /run_sse exchange produces.
//
// Thought parts and marker-prefixed text are dropped, malformed lines are
// skipped, and the remaining text parts are concatenated in arrival order.
package reconcile

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/utils"
)

// Fallback is the answer returned when a stream carried no visible text.
const Fallback = "Response received"

const previewLen = 120

// Stats counts what a reconciliation pass saw.
type Stats struct {
	// Lines is every line handed to Add, blank ones included.
	Lines int `json:"lines"`

	// Events is the number of lines that decoded into an event with content parts.
	Events int `json:"events"`

	// Skipped is the number of non-blank lines that were malformed or carried
	// no content parts.
	Skipped int `json:"skipped"`

	// ThoughtParts is the number of parts dropped as internal reasoning.
	ThoughtParts int `json:"thought_parts"`

	// IncludedParts is the number of parts appended to the answer.
	IncludedParts int `json:"included_parts"`

	// AgentErrors collects errorMessage fields reported by the agent.
	AgentErrors []string `json:"agent_errors,omitempty"`
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for skipped and filtered events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// Reconciler accumulates the answer for exactly one exchange. It is not safe
// for concurrent use; every in-flight stream gets its own.
type Reconciler struct {
	answer strings.Builder
	stats  Stats
	logger *slog.Logger
}

// New creates an empty Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add folds one stream line into the answer.
func (r *Reconciler) Add(line string) {
	r.stats.Lines++

	ev, err := decodeEvent(line)
	switch {
	case errors.Is(err, errBlank):
		return

	case errors.Is(err, errNoContent):
		r.stats.Skipped++
		if ev.ErrorMessage != "" {
			r.stats.AgentErrors = append(r.stats.AgentErrors, ev.ErrorMessage)
			r.logger.Warn("agent reported an error",
				"error_code", ev.ErrorCode,
				"error_message", ev.ErrorMessage,
			)
			return
		}
		r.logger.Debug("skipping event without content parts",
			"event_id", ev.ID,
			"author", ev.Author,
		)
		return

	case err != nil:
		r.stats.Skipped++
		r.logger.Debug("skipping malformed event",
			"line", utils.Truncate(line, previewLen),
		)
		return
	}

	r.stats.Events++
	for _, part := range ev.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}

		if IsThought(part) {
			r.stats.ThoughtParts++
			r.logger.Debug("dropping thought part",
				"event_id", ev.ID,
				"author", ev.Author,
				"flagged", part.Thought,
			)
			continue
		}

		r.answer.WriteString(part.Text)
		r.stats.IncludedParts++
	}
}

// Answer returns the trimmed accumulated text, or Fallback when empty.
func (r *Reconciler) Answer() string {
	answer := strings.TrimSpace(r.answer.String())
	if answer == "" {
		return Fallback
	}
	return answer
}

// Stats returns a copy of the counters collected so far.
func (r *Reconciler) Stats() Stats {
	s := r.stats
	s.AgentErrors = append([]string(nil), r.stats.AgentErrors...)
	return s
}

// Run drains lines into the Reconciler and returns the final answer. It
// returns the first line source error, or ctx.Err() when ctx is done; in both
// cases the partial answer is discarded.
func (r *Reconciler) Run(ctx context.Context, lines iter.Seq2[string, error]) (string, error) {
	for line, err := range lines {
		if err != nil {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.Add(line)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return r.Answer(), nil
}

// Reconcile runs a fresh Reconciler over lines.
func Reconcile(ctx context.Context, lines iter.Seq2[string, error], opts ...Option) (string, error) {
	return New(opts...).Run(ctx, lines)
}
