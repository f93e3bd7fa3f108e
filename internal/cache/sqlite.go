// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SCHEMA
// =============================================================================

// Schema is the persistent cache layout. Times are Unix nanoseconds and an
// expires_at of 0 never expires.
const Schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0,
    accessed_at INTEGER NOT NULL
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_cache_entries_accessed ON cache_entries(accessed_at);

CREATE TABLE IF NOT EXISTS cache_meta (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

// =============================================================================
// SQLITE CACHE
// =============================================================================

// SQLiteCache keeps responses in a local SQLite database so they survive
// between invocations of the CLI.
type SQLiteCache struct {
	db         *sql.DB
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64

	now func() time.Time
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string, maxEntries int) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	c, err := NewSQLiteDB(db, maxEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteDB wraps an already open database and ensures the schema.
func NewSQLiteDB(db *sql.DB, maxEntries int) (*SQLiteCache, error) {
	if db == nil {
		return nil, errors.New("cache: nil database")
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &SQLiteCache{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key Key) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, string(key),
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	now := c.now().UnixNano()
	if expiresAt != 0 && expiresAt <= now {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, string(key)); err != nil {
			return nil, fmt.Errorf("cache expire %s: %w", key, err)
		}
		c.misses.Add(1)
		return nil, ErrMiss
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE cache_entries SET accessed_at = ? WHERE key = ?`, now, string(key),
	); err != nil {
		return nil, fmt.Errorf("cache touch %s: %w", key, err)
	}

	c.hits.Add(1)
	return value, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	now := c.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, accessed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			accessed_at = excluded.accessed_at`,
		string(key), value, expiresAt, now.UnixNano())
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	if c.maxEntries > 0 {
		_, err = c.db.ExecContext(ctx, `
			DELETE FROM cache_entries WHERE key NOT IN (
				SELECT key FROM cache_entries ORDER BY accessed_at DESC LIMIT ?
			)`, c.maxEntries)
		if err != nil {
			return fmt.Errorf("cache prune: %w", err)
		}
	}
	return nil
}

func (c *SQLiteCache) Invalidate(ctx context.Context, keys ...Key) error {
	for _, k := range keys {
		var err error
		if k.IsPattern() {
			base := strings.TrimSuffix(string(k), "/*")
			_, err = c.db.ExecContext(ctx,
				`DELETE FROM cache_entries WHERE key = ? OR key LIKE ? ESCAPE '\'`,
				base, escapeLike(base)+"/%")
		} else {
			_, err = c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, string(k))
		}
		if err != nil {
			return fmt.Errorf("cache invalidate %s: %w", k, err)
		}
	}
	return nil
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Owner is kept in cache_meta so it survives Clear and restarts.
func (c *SQLiteCache) Owner(ctx context.Context) (string, error) {
	var owner string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM cache_meta WHERE name = 'owner'`,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache owner: %w", err)
	}
	return owner, nil
}

func (c *SQLiteCache) SetOwner(ctx context.Context, owner string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_meta (name, value) VALUES ('owner', ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, owner)
	if err != nil {
		return fmt.Errorf("cache set owner: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Stats(ctx context.Context) (Stats, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries WHERE expires_at = 0 OR expires_at > ?`,
		c.now().UnixNano(),
	).Scan(&n)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: "sqlite",
		Entries: n,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
