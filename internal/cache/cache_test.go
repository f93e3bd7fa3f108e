// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

// =============================================================================
// KEY TESTS
// =============================================================================

func TestNewKey(t *testing.T) {
	assert.Equal(t, Key("categories"), NewKey("categories"))
	assert.Equal(t, Key("announcement/12"), NewKey("announcement", 12))
	assert.Equal(t, Key("announcements-all/0/20/draft"), NewKey("announcements-all", 0, 20, "draft"))
	assert.Equal(t, "announcement", NewKey("announcement", 12).Resource())
}

func TestKey_Matches(t *testing.T) {
	tests := []struct {
		key     Key
		pattern Key
		want    bool
	}{
		{"announcement/1", "announcement/1", true},
		{"announcement/1", "announcement/2", false},
		{"announcement/1", Prefix("announcement"), true},
		{"announcement", Prefix("announcement"), true},
		{"announcement-slug/x", Prefix("announcement"), false},
		{"announcements/0/20", Prefix("announcements"), true},
		{"events-upcoming", Prefix("events"), false},
	}
	for _, tt := range tests {
		if got := tt.key.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.key, tt.pattern, got, tt.want)
		}
	}
}

// =============================================================================
// BACKEND CONFORMANCE
// =============================================================================

// backends returns a fresh instance of every real backend.
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Cache{
		"memory": NewMemory(100),
		"sqlite": sq,
	}
}

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, c.Set(ctx, "categories", []byte(`[{"id":1}]`), time.Minute))
			got, err := c.Get(ctx, "categories")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1}]`, string(got))

			require.NoError(t, c.Set(ctx, "categories", []byte(`[]`), 0))
			got, err = c.Get(ctx, "categories")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			stats, err := c.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, name, stats.Backend)
			assert.Equal(t, 1, stats.Entries)
			assert.EqualValues(t, 2, stats.Hits)
			assert.EqualValues(t, 1, stats.Misses)
		})
	}
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keys := []Key{
				"announcements/0/20",
				"announcements-all/0/100",
				"announcement/3",
				"announcement-slug/city_news",
				"categories",
			}
			for _, k := range keys {
				require.NoError(t, c.Set(ctx, k, []byte("x"), 0))
			}

			require.NoError(t, c.Invalidate(ctx, Prefix("announcements"), "announcement/3"))

			for _, k := range []Key{"announcements/0/20", "announcement/3"} {
				_, err := c.Get(ctx, k)
				assert.ErrorIs(t, err, ErrMiss, k)
			}
			for _, k := range []Key{"announcements-all/0/100", "announcement-slug/city_news", "categories"} {
				_, err := c.Get(ctx, k)
				assert.NoError(t, err, k)
			}

			// LIKE wildcards in a prefix are matched literally.
			require.NoError(t, c.Set(ctx, "join_requests/4", []byte("x"), 0))
			require.NoError(t, c.Set(ctx, "joinXrequests/4", []byte("x"), 0))
			require.NoError(t, c.Invalidate(ctx, Prefix("join_requests")))
			_, err := c.Get(ctx, "join_requests/4")
			assert.ErrorIs(t, err, ErrMiss)
			_, err = c.Get(ctx, "joinXrequests/4")
			assert.NoError(t, err)

			require.NoError(t, c.Clear(ctx))
			_, err = c.Get(ctx, "categories")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	mem := NewMemory(10)
	mem.now = clock
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), 0)
	require.NoError(t, err)
	defer sq.Close()
	sq.now = clock

	for name, c := range map[string]Cache{"memory": mem, "sqlite": sq} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "me", []byte("u"), time.Minute))
			_, err := c.Get(ctx, "me")
			require.NoError(t, err)

			now = now.Add(2 * time.Minute)
			_, err = c.Get(ctx, "me")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

// =============================================================================
// MEMORY CACHE
// =============================================================================

func TestMemory_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, err := c.Get(ctx, "a") // b is now least recently used
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'Y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemory_Closed(t *testing.T) {
	c := NewMemory(1)
	require.NoError(t, c.Close())
	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Set(context.Background(), "k", nil, 0), ErrClosed)
}

func TestMemory_ClearAfterCloseStaysClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(4)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Clear(ctx), ErrClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), ErrClosed)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Owner(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := NewKey("event", (i+j)%80)
				_ = c.Set(ctx, k, []byte("v"), time.Minute)
				_, _ = c.Get(ctx, k)
				if j%10 == 0 {
					_ = c.Invalidate(ctx, Prefix("event"))
				}
			}
		}(i)
	}
	wg.Wait()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.Entries, 50)
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "announcements/0/20", []byte("[]"), 0))

			// Unclaimed entries belong to nobody; an anonymous claim keeps them
			cleared, err := Claim(ctx, c, "")
			require.NoError(t, err)
			assert.False(t, cleared)

			cleared, err = Claim(ctx, c, "user:7")
			require.NoError(t, err)
			assert.True(t, cleared)
			_, err = c.Get(ctx, "announcements/0/20")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, c.Set(ctx, "users-me", []byte("{}"), 0))
			cleared, err = Claim(ctx, c, "user:7")
			require.NoError(t, err)
			assert.False(t, cleared, "same owner keeps the cache")
			_, err = c.Get(ctx, "users-me")
			assert.NoError(t, err)

			cleared, err = Claim(ctx, c, "user:9")
			require.NoError(t, err)
			assert.True(t, cleared)
			_, err = c.Get(ctx, "users-me")
			assert.ErrorIs(t, err, ErrMiss)

			owner, err := c.Owner(ctx)
			require.NoError(t, err)
			assert.Equal(t, "user:9", owner)
		})
	}
}

func TestClaim_OwnerErrorLeavesEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewSQLiteDB(db, 0)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT value FROM cache_meta").WillReturnError(errors.New("disk I/O error"))
	cleared, err := Claim(context.Background(), c, "user:7")
	assert.Error(t, err)
	assert.False(t, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// SQLITE CACHE
// =============================================================================

func TestSQLite_OwnerSurvivesReopenAndClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenSQLite(path, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "organizations", []byte("[]"), 0))
	_, err = Claim(ctx, c, "user:7")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "organizations", []byte("[]"), 0))
	require.NoError(t, c.Close())

	c, err = OpenSQLite(path, 0)
	require.NoError(t, err)
	defer c.Close()

	cleared, err := Claim(ctx, c, "user:7")
	require.NoError(t, err)
	assert.False(t, cleared)
	got, err := c.Get(ctx, "organizations")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, c.Clear(ctx))
	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user:7", owner)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	c, err := OpenSQLite(path, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "organizations", []byte("[]"), 0))
	require.NoError(t, c.Close())

	c, err = OpenSQLite(path, 0)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Get(ctx, "organizations")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestSQLite_Prune(t *testing.T) {
	ctx := context.Background()
	c, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), 2)
	require.NoError(t, err)
	defer c.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, k := range []Key{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)

	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSQLite_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnError(errors.New("disk full"))

	_, err = NewSQLiteDB(db, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_QueryErrorIsNotMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewSQLiteDB(db, 10)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").WillReturnError(errors.New("disk I/O error"))

	_, err = c.Get(context.Background(), "categories")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_SetErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewSQLiteDB(db, 5)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO cache_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM cache_entries WHERE key NOT IN").WillReturnError(errors.New("locked"))

	err = c.Set(context.Background(), "users/0/100", []byte("[]"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_StatsCountsLive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewSQLiteDB(db, 0)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Entries)
	assert.Equal(t, "sqlite", stats.Backend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// OPEN
// =============================================================================

func TestOpen(t *testing.T) {
	t.Setenv("YTNEWS_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Cache.Enabled = false
	c, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "memory"
	c, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	cfg.Cache.Backend = "sqlite"
	c, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)
	c.Close()

	cfg.Cache.Backend = "redis"
	_, err = Open(cfg)
	assert.Error(t, err)
}
