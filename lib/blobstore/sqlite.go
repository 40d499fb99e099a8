// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/cmdsearch/lib/sqlitepool"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLite stores the blob as one row of a "blobs" table keyed by name.
// Several named blobs can share a database file.
type SQLite struct {
	pool *sqlitepool.Pool
	name string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and
// returns a store for the named blob. Close releases the pool.
func OpenSQLite(path, name string, logger *slog.Logger) (*SQLite, error) {
	if name == "" {
		return nil, fmt.Errorf("blobstore: blob name is required")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, blobSchema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &SQLite{pool: pool, name: name, now: time.Now}, nil
}

// Load returns the named blob, or nil, nil when no row exists.
func (s *SQLite) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT data FROM blobs WHERE name = ?", &sqlitex.ExecOptions{
			Args: []any{s.name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, data)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading blob %q: %w", s.name, err)
	}
	return data, nil
}

// Save upserts the named blob.
func (s *SQLite) Save(ctx context.Context, data []byte) error {
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{
				Args: []any{s.name, data, s.now().UnixMilli()},
			})
	})
	if err != nil {
		return fmt.Errorf("saving blob %q: %w", s.name, err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *SQLite) Close() error {
	return s.pool.Close()
}
