// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// MEMORY CACHE
// =============================================================================

// DefaultMaxEntries bounds a MemoryCache created with a non-positive limit.
const DefaultMaxEntries = 512

// MemoryCache is an LRU-bounded in-process cache.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[Key]*memoryEntry
	accessOrder []Key // least recently used first
	maxEntries  int
	owner       string
	closed      bool

	hits   int64
	misses int64

	now func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means never
}

// NewMemory creates a MemoryCache holding at most maxEntries values.
func NewMemory(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		entries:     make(map[Key]*memoryEntry),
		accessOrder: make([]Key, 0, maxEntries),
		maxEntries:  maxEntries,
		now:         time.Now,
	}
}

// Get returns a copy of the cached value.
func (c *MemoryCache) Get(_ context.Context, key Key) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.removeLocked(key)
		c.misses++
		return nil, ErrMiss
	}

	c.touchLocked(key)
	c.hits++
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries && len(c.accessOrder) > 0 {
			c.removeLocked(c.accessOrder[0])
		}
	}

	e := &memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	c.touchLocked(key)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, keys ...Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, pattern := range keys {
		if !pattern.IsPattern() {
			c.removeLocked(pattern)
			continue
		}
		for k := range c.entries {
			if k.Matches(pattern) {
				c.removeLocked(k)
			}
		}
	}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.entries = make(map[Key]*memoryEntry)
	c.accessOrder = make([]Key, 0, c.maxEntries)
	return nil
}

func (c *MemoryCache) Owner(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	return c.owner, nil
}

func (c *MemoryCache) SetOwner(_ context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.owner = owner
	return nil
}

func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Backend: "memory",
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
	}, nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.entries = nil
	c.accessOrder = nil
	return nil
}

// removeLocked drops key (must hold lock).
func (c *MemoryCache) removeLocked(key Key) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
}

// touchLocked moves key to the most recently used end (must hold lock).
func (c *MemoryCache) touchLocked(key Key) {
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, key)
}
