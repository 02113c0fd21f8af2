package nop

import (
	"context"

	"github.com/papercomputeco/adam/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishWidget validates input and otherwise does nothing.
func (p *Publisher) PublishWidget(_ context.Context, event *eventstream.WidgetEvent) error {
	if event == nil {
		return eventstream.ErrNilWidgetEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
