// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// TOKEN WATCHER
// =============================================================================

// DefaultWatchDebounce coalesces the burst of events an atomic write makes.
const DefaultWatchDebounce = 150 * time.Millisecond

// Syncer reconciles session state with the token store. *Holder satisfies it.
type Syncer interface {
	Sync(ctx context.Context) Snapshot
}

// TokenWatcher calls Sync whenever the token file changes on disk, so a
// login or logout in another ytnews process shows up live.
//
// The parent directory is watched rather than the file: atomic writes
// replace the file by rename.
type TokenWatcher struct {
	path     string
	name     string
	target   Syncer
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewTokenWatcher creates a watcher for the token file at path.
func NewTokenWatcher(path string, target Syncer, debounce time.Duration) (*TokenWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create token watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TokenWatcher{
		path:     path,
		name:     filepath.Base(path),
		target:   target,
		watcher:  watcher,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts watching. It returns once the watch is registered.
func (tw *TokenWatcher) Watch() error {
	dir := filepath.Dir(tw.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := tw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	tw.started = true
	go tw.processEvents()
	return nil
}

// processEvents records relevant events and fires Sync once they settle.
func (tw *TokenWatcher) processEvents() {
	defer close(tw.done)

	ticker := time.NewTicker(tw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-tw.ctx.Done():
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			// Lock files and temp files share the directory
			if filepath.Base(event.Name) != tw.name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			tw.mu.Lock()
			tw.pending = time.Now()
			tw.mu.Unlock()

		case <-ticker.C:
			tw.mu.Lock()
			due := !tw.pending.IsZero() && time.Since(tw.pending) >= tw.debounce
			if due {
				tw.pending = time.Time{}
			}
			tw.mu.Unlock()
			if due {
				tw.target.Sync(tw.ctx)
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("token watcher: %v", err)
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (tw *TokenWatcher) Close() error {
	tw.cancel()
	err := tw.watcher.Close()
	if !tw.started {
		return err
	}
	select {
	case <-tw.done:
	case <-time.After(time.Second):
	}
	return err
}
