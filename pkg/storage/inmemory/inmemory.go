// Package inmemory provides a map backed storage driver. Widgets are lost
// when the process exits.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the widget map and order
	mu sync.RWMutex

	// widgets maps widget IDs to stored copies
	widgets map[string]*widget.Widget

	// order is widget IDs in insertion order
	order []string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		widgets: make(map[string]*widget.Widget),
	}
}

// Put stores a copy of w, replacing any widget with the same ID.
func (d *Driver) Put(_ context.Context, w *widget.Widget) error {
	if w == nil {
		return storage.ErrNilWidget
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.widgets[w.ID]; !ok {
		d.order = append(d.order, w.ID)
	}
	d.widgets[w.ID] = clone(w)
	return nil
}

// Update replaces a stored widget, failing when it has been removed.
func (d *Driver) Update(_ context.Context, w *widget.Widget) error {
	if w == nil {
		return storage.ErrNilWidget
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.widgets[w.ID]; !ok {
		return storage.NotFoundError{ID: w.ID}
	}
	d.widgets[w.ID] = clone(w)
	return nil
}

// Get retrieves a widget by ID.
func (d *Driver) Get(_ context.Context, id string) (*widget.Widget, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w, ok := d.widgets[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	return clone(w), nil
}

// List returns all widgets oldest first. Widgets created at the same
// instant keep their insertion order.
func (d *Driver) List(_ context.Context) ([]*widget.Widget, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*widget.Widget, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, clone(d.widgets[id]))
	}

	slices.SortStableFunc(out, func(a, b *widget.Widget) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return out, nil
}

// Delete removes a widget by ID.
func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.widgets[id]; !ok {
		return storage.NotFoundError{ID: id}
	}

	delete(d.widgets, id)
	d.order = slices.DeleteFunc(d.order, func(o string) bool { return o == id })
	return nil
}

// Clear removes all widgets.
func (d *Driver) Clear(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.widgets)
	d.widgets = make(map[string]*widget.Widget)
	d.order = nil
	return n, nil
}

// Count returns the number of stored widgets.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.widgets), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// clone copies w so callers never share a stored widget.
func clone(w *widget.Widget) *widget.Widget {
	c := *w
	if w.Rows != nil {
		c.Rows = slices.Clone(w.Rows)
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
