// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/adam/pkg/storage/sqldb"
)

const schema = `
CREATE TABLE IF NOT EXISTS widgets (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_widgets_created_at ON widgets(created_at);
`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	*sqldb.Driver
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	drv, err := sqldb.New(ctx, db, sqldb.Dialect{Name: "sqlite", Schema: schema})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Driver: drv}, nil
}
