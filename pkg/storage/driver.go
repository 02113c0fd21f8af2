// Package storage defines how dashboard widgets are persisted.
package storage

import (
	"context"

	"github.com/papercomputeco/adam/pkg/widget"
)

// Driver persists the widget board.
type Driver interface {
	// Put inserts a widget or replaces the stored widget with the same ID.
	Put(ctx context.Context, w *widget.Widget) error

	// Update replaces an existing widget in one step. Returns NotFoundError
	// when no widget with w.ID is stored, and never inserts.
	Update(ctx context.Context, w *widget.Widget) error

	// Get retrieves a widget by ID. Returns NotFoundError when absent.
	Get(ctx context.Context, id string) (*widget.Widget, error)

	// List returns every widget, oldest first.
	List(ctx context.Context) ([]*widget.Widget, error)

	// Delete removes a widget by ID. Returns NotFoundError when absent.
	Delete(ctx context.Context, id string) error

	// Clear removes every widget and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	// Count returns the number of stored widgets.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
