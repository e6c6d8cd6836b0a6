package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kayz/facet/internal/facet"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS facets (
	kind       TEXT NOT NULL,
	key        TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	PRIMARY KEY (kind, key)
)`

// SQLiteEngine stores facets in a SQLite table.
type SQLiteEngine struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (or creates) the facet database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteEngine, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create facets table: %w", err)
	}
	return &SQLiteEngine{path: path, db: db}, nil
}

// Close releases the database handle.
func (e *SQLiteEngine) Close() error {
	return e.db.Close()
}

func (e *SQLiteEngine) sourcePath(kind facet.Kind, key string) string {
	return fmt.Sprintf("sqlite://%s#%s/%s", e.path, kind, key)
}

func (e *SQLiteEngine) Resolve(ctx context.Context, kind facet.Kind, key string) (*facet.Content, error) {
	var body string
	row := e.db.QueryRowContext(ctx, `SELECT body FROM facets WHERE kind = ? AND key = ?`, string(kind), key)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load facet %s/%s: %w", kind, key, err)
	}
	return &facet.Content{Body: body, SourcePath: e.sourcePath(kind, key)}, nil
}

func (e *SQLiteEngine) List(ctx context.Context, kind facet.Kind) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT key FROM facets WHERE kind = ? ORDER BY key`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s facets: %w", kind, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan facet key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facet keys: %w", err)
	}
	return keys, nil
}

// Put inserts or replaces a facet body.
func (e *SQLiteEngine) Put(ctx context.Context, kind facet.Kind, key, body string) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO facets (kind, key, body) VALUES (?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET
			body = excluded.body,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
	`, string(kind), key, body)
	if err != nil {
		return fmt.Errorf("store facet %s/%s: %w", kind, key, err)
	}
	return nil
}
