// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = errors.New("cache: miss")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cache: closed")
)

// =============================================================================
// KEYS
// =============================================================================

// Key identifies a cached resource.
type Key string

// NewKey joins a resource name and its identity parts with '/'.
//
//	NewKey("announcement", 12)        -> "announcement/12"
//	NewKey("announcements", 0, 20)    -> "announcements/0/20"
func NewKey(resource string, parts ...any) Key {
	if len(parts) == 0 {
		return Key(resource)
	}
	var b strings.Builder
	b.WriteString(resource)
	for _, p := range parts {
		b.WriteByte('/')
		fmt.Fprint(&b, p)
	}
	return Key(b.String())
}

// Prefix returns the pattern matching every key under resource,
// including resource itself.
func Prefix(resource string) Key {
	return Key(resource + "/*")
}

// Resource returns the part of the key before the first '/'.
func (k Key) Resource() string {
	s := string(k)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

// IsPattern reports whether k ends in "/*".
func (k Key) IsPattern() bool {
	return strings.HasSuffix(string(k), "/*")
}

// Matches reports whether k is matched by pattern. A non-pattern only
// matches itself.
func (k Key) Matches(pattern Key) bool {
	if !pattern.IsPattern() {
		return k == pattern
	}
	base := strings.TrimSuffix(string(pattern), "/*")
	s := string(k)
	return s == base || strings.HasPrefix(s, base+"/")
}

func (k Key) String() string { return string(k) }

// =============================================================================
// INTERFACE
// =============================================================================

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value or ErrMiss.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value. A ttl of zero never expires.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error

	// Invalidate drops every entry matched by any of keys.
	Invalidate(ctx context.Context, keys ...Key) error

	// Clear drops every entry. The owner is kept.
	Clear(ctx context.Context) error

	// Owner returns the identity the entries were fetched for, "" when
	// anonymous or never claimed.
	Owner(ctx context.Context) (string, error)
	SetOwner(ctx context.Context, owner string) error

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats holds cache statistics.
type Stats struct {
	Backend string  `json:"backend" yaml:"backend"`
	Entries int     `json:"entries" yaml:"entries"`
	Hits    int64   `json:"hits" yaml:"hits"`
	Misses  int64   `json:"misses" yaml:"misses"`
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}

// Claim makes owner the owner of c, clearing it first when the entries
// belong to someone else. It reports whether anything was cleared.
func Claim(ctx context.Context, c Cache, owner string) (bool, error) {
	cur, err := c.Owner(ctx)
	if err != nil {
		return false, err
	}
	if cur == owner {
		return false, nil
	}
	if err := c.Clear(ctx); err != nil {
		return false, err
	}
	if err := c.SetOwner(ctx, owner); err != nil {
		return true, err
	}
	return true, nil
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Open builds the cache described by cfg. A disabled cache is a Nop.
func Open(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		return Nop{}, nil
	}
	switch cfg.Cache.Backend {
	case "", "memory":
		return NewMemory(cfg.Cache.MaxEntries), nil
	case "sqlite":
		path, err := cfg.CachePath()
		if err != nil {
			return nil, err
		}
		return OpenSQLite(path, cfg.Cache.MaxEntries)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Cache.Backend)
	}
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, Key) ([]byte, error) { return nil, ErrMiss }
func (Nop) Set(context.Context, Key, []byte, time.Duration) error { return nil }
func (Nop) Invalidate(context.Context, ...Key) error { return nil }
func (Nop) Clear(context.Context) error { return nil }
func (Nop) Owner(context.Context) (string, error) { return "", nil }
func (Nop) SetOwner(context.Context, string) error { return nil }
func (Nop) Stats(context.Context) (Stats, error) { return Stats{Backend: "none"}, nil }
func (Nop) Close() error { return nil }
