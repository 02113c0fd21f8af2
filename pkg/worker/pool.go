// Package worker provides an asynchronous worker pool that answers pending
// dashboard widgets: each job sends the widget's prompt to the agent,
// reconciles the streamed reply, stores the completed widget using the
// provided storage.Driver and publishes a completion event.
//
// The pool decouples agent round trips from the dashboard's HTTP handlers so
// that widget creation returns immediately.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/eventstream/nop"
	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Sender sends one message to the agent and returns the reconciled reply.
// *adk.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, userID, sessionID, text string) (*adk.Reply, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Widget is the pending widget to answer. Its Prompt is sent as the message.
	Widget *widget.Widget

	UserID    string
	SessionID string
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for completed widgets.
	Driver storage.Driver

	// Sender delivers prompts to the agent.
	Sender Sender

	// Publisher receives a completion event per widget. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// AppName is recorded as the source of published events.
	AppName string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool answers widgets asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}
	if c.Sender == nil {
		return nil, errors.New("worker pool requires a sender")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"widget_id", job.Widget.ID,
			"session_id", job.SessionID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"widget_id", job.Widget.ID,
			"session_id", job.SessionID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the dashboard HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob answers one widget. Every job gets its own stream reader and
// reconciler inside SendMessage, so jobs share no mutable state.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	w := job.Widget

	reply, err := p.config.Sender.SendMessage(ctx, job.UserID, job.SessionID, w.Prompt)
	if err != nil {
		p.logger.Warn("agent request failed",
			"widget_id", w.ID,
			"error", err,
		)
	}
	w.Complete(reply, err)

	// A widget removed while its request was in flight stays removed.
	if err := p.config.Driver.Update(ctx, w); err != nil {
		if storage.IsNotFound(err) {
			p.logger.Debug("widget removed before completion, discarding reply",
				"widget_id", w.ID,
			)
			return
		}
		p.logger.Error("storing completed widget failed",
			"widget_id", w.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("widget completed",
		"widget_id", w.ID,
		"type", string(w.Type),
		"status", string(w.Status),
	)

	event := eventstream.NewWidgetCompleted(eventstream.EventSource{
		AppName:   p.config.AppName,
		UserID:    job.UserID,
		SessionID: job.SessionID,
	}, w)

	if err := p.config.Publisher.PublishWidget(ctx, event); err != nil {
		p.logger.Warn("publishing widget event failed",
			"widget_id", w.ID,
			"event_id", event.EventID,
			"error", err,
		)
	}
}
