// Package eventstream publishes dashboard events to an event stream backend.
package eventstream

import "context"

// Publisher publishes widget events to an event stream backend.
type Publisher interface {
	PublishWidget(ctx context.Context, event *WidgetEvent) error
	Close() error
}
