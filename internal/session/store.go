// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

// ErrNoToken is returned by TokenStore.Load when nothing is stored.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the bearer token under a single key.
type TokenStore interface {
	// Load returns the stored token or ErrNoToken.
	Load() (string, error)

	// Save replaces the stored token. It returns once the token is durable.
	Save(token string) error

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// OpenStore builds the token store selected by cfg.
func OpenStore(cfg *config.Config) (TokenStore, error) {
	path, err := cfg.TokenPath()
	if err != nil {
		return nil, fmt.Errorf("resolve token path: %w", err)
	}
	if cfg.Session.EncryptToken {
		return NewSealedFileStore(path), nil
	}
	return NewFileStore(path), nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps the token in process memory. Used by tests and by
// --no-persist.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token (empty for none).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
