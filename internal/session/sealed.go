// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// SEALED FILE STORE
// =============================================================================

const (
	// SealedPrefix marks a sealed token (format: ENC:base64(nonce|ciphertext|tag))
	SealedPrefix = "ENC:"

	keySecretSize  = 32
	keySaltSize    = 32
	sealKeySize    = 32
	sealIterations = 100000
)

var (
	// ErrDecryptionFailed means the key file does not match the sealed token
	// or the token was tampered with.
	ErrDecryptionFailed = errors.New("token decryption failed: authentication tag mismatch")
	errBadKeyFile       = errors.New("malformed token key file")
)

// SealedFileStore is a FileStore whose contents are AES-256-GCM sealed.
// The key is derived with PBKDF2-SHA-256 from a random secret kept in
// path+".key" (0600). A plaintext token left by an unsealed store is still
// readable and gets sealed on the next Save.
type SealedFileStore struct {
	file    *FileStore
	keyPath string

	mu  sync.Mutex
	key []byte
}

// NewSealedFileStore returns a sealed store backed by path.
func NewSealedFileStore(path string) *SealedFileStore {
	return &SealedFileStore{
		file:    NewFileStore(path),
		keyPath: path + ".key",
	}
}

// Path returns the token file location.
func (s *SealedFileStore) Path() string { return s.file.Path() }

func (s *SealedFileStore) Load() (string, error) {
	stored, err := s.file.Load()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(stored, SealedPrefix) {
		return stored, nil
	}
	key, err := s.loadKey(false)
	if err != nil {
		return "", err
	}
	return open(key, strings.TrimPrefix(stored, SealedPrefix))
}

func (s *SealedFileStore) Save(token string) error {
	key, err := s.loadKey(true)
	if err != nil {
		return err
	}
	sealed, err := seal(key, token)
	if err != nil {
		return err
	}
	return s.file.Save(SealedPrefix + sealed)
}

// Clear removes the sealed token. The key file is kept for the next login.
func (s *SealedFileStore) Clear() error {
	return s.file.Clear()
}

// loadKey reads or, when create is set, generates the key material. The
// derived key is kept for the life of the store.
func (s *SealedFileStore) loadKey(create bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}
	key, err := readOrCreateKey(s.keyPath, create)
	if err != nil {
		return nil, err
	}
	s.key = key
	return key, nil
}

func readOrCreateKey(path string, create bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if !create {
			return nil, fmt.Errorf("token key file %s: %w", path, os.ErrNotExist)
		}
		return createKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read token key file: %w", err)
	}
	return deriveKey(strings.TrimSpace(string(data)))
}

func createKey(path string) ([]byte, error) {
	material := make([]byte, keySecretSize+keySaltSize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, fmt.Errorf("generate token key: %w", err)
	}
	encoded := hex.EncodeToString(material)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	// The key is written in full under a temp name, then linked into
	// place. A reader never sees a partial key and exactly one writer wins.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create token key file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(encoded); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write token key file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("sync token key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close token key file: %w", err)
	}

	err = os.Link(tmp.Name(), path)
	if errors.Is(err, os.ErrExist) {
		// Another process won the race; use its key
		return readOrCreateKey(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("install token key file: %w", err)
	}
	return deriveKey(encoded)
}

func deriveKey(encoded string) ([]byte, error) {
	material, err := hex.DecodeString(encoded)
	if err != nil || len(material) != keySecretSize+keySaltSize {
		return nil, errBadKeyFile
	}
	secret, salt := material[:keySecretSize], material[keySecretSize:]
	key := pbkdf2.Key(secret, salt, sealIterations, sealKeySize, sha256.New)
	for i := range material {
		material[i] = 0
	}
	return key, nil
}

func seal(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func open(key []byte, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
