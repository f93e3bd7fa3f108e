// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps the token in a 0600 file. Writes are atomic and
// serialized across processes with an advisory lock on path+".lock".
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *FileStore) Save(token string) error {
	return s.withLock(func() error {
		if err := util.AtomicWriteFile(s.path, []byte(token), 0600); err != nil {
			return fmt.Errorf("write token file: %w", err)
		}
		return nil
	})
}

func (s *FileStore) Clear() error {
	return s.withLock(func() error {
		if err := util.RemoveIfExists(s.path); err != nil {
			return fmt.Errorf("remove token file: %w", err)
		}
		return nil
	})
}

// withLock runs fn while holding the cross-process lock.
func (s *FileStore) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock token file: %w", err)
	}
	defer unlockFile(f)

	return fn()
}
