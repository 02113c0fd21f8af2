// Package sqldb implements storage.Driver over database/sql. The sqlite and
// postgres packages open the connection and pick a Dialect; the queries here
// are shared.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
)

// Dialect captures the differences between supported SQL backends.
type Dialect struct {
	// Name is used in error messages, e.g. "sqlite".
	Name string

	// Numbered reports whether placeholders are $1, $2 ... instead of ?.
	Numbered bool

	// Schema creates the widgets table if it doesn't exist.
	Schema string
}

// Driver implements storage.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// New wraps db and runs the dialect's schema migration.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{DB: db, Dialect: dialect}
	if err := d.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate %s database: %w", dialect.Name, err)
	}
	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	_, err := d.DB.ExecContext(ctx, d.Dialect.Schema)
	return err
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (d *Driver) rebind(query string) string {
	if !d.Dialect.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put upserts a widget, keeping its original created_at ordering key.
func (d *Driver) Put(ctx context.Context, w *widget.Widget) error {
	if w == nil {
		return storage.ErrNilWidget
	}

	body, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal widget: %w", err)
	}

	query := d.rebind(`INSERT INTO widgets (id, status, body, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, body = excluded.body`)

	_, err = d.DB.ExecContext(ctx, query, w.ID, string(w.Status), string(body), w.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert widget: %w", err)
	}

	return nil
}

// Update rewrites the status and body of an existing widget. The single
// UPDATE makes a concurrent Delete win: zero affected rows is NotFoundError.
func (d *Driver) Update(ctx context.Context, w *widget.Widget) error {
	if w == nil {
		return storage.ErrNilWidget
	}

	body, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal widget: %w", err)
	}

	res, err := d.DB.ExecContext(ctx, d.rebind(`UPDATE widgets SET status = ?, body = ? WHERE id = ?`),
		string(w.Status), string(body), w.ID)
	if err != nil {
		return fmt.Errorf("failed to update widget: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: w.ID}
	}

	return nil
}

// Get retrieves a widget by ID.
func (d *Driver) Get(ctx context.Context, id string) (*widget.Widget, error) {
	row := d.DB.QueryRowContext(ctx, d.rebind(`SELECT body FROM widgets WHERE id = ?`), id)

	var body string
	err := row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan widget: %w", err)
	}

	return decode(body)
}

// List returns all widgets, oldest first.
func (d *Driver) List(ctx context.Context) ([]*widget.Widget, error) {
	rows, err := d.DB.QueryContext(ctx, `SELECT body FROM widgets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query widgets: %w", err)
	}
	defer rows.Close()

	widgets := []*widget.Widget{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan widget: %w", err)
		}

		w, err := decode(body)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}

	return widgets, rows.Err()
}

// Delete removes a widget by ID.
func (d *Driver) Delete(ctx context.Context, id string) error {
	res, err := d.DB.ExecContext(ctx, d.rebind(`DELETE FROM widgets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete widget: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}

	return nil
}

// Clear removes all widgets.
func (d *Driver) Clear(ctx context.Context) (int, error) {
	res, err := d.DB.ExecContext(ctx, `DELETE FROM widgets`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear widgets: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(n), nil
}

// Count returns the number of stored widgets.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM widgets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count widgets: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func decode(body string) (*widget.Widget, error) {
	w := &widget.Widget{}
	if err := json.Unmarshal([]byte(body), w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal widget: %w", err)
	}
	return w, nil
}
