// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

// =============================================================================
// TOKEN STORES
// =============================================================================

func TestStores_Conformance(t *testing.T) {
	backends := map[string]func(t *testing.T) TokenStore{
		"memory": func(t *testing.T) TokenStore { return NewMemoryStore("") },
		"file": func(t *testing.T) TokenStore {
			return NewFileStore(filepath.Join(t.TempDir(), "token"))
		},
		"sealed": func(t *testing.T) TokenStore {
			return NewSealedFileStore(filepath.Join(t.TempDir(), "token"))
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			_, err := store.Load()
			assert.ErrorIs(t, err, ErrNoToken)

			require.NoError(t, store.Save("tok-1"))
			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, "tok-1", got)

			require.NoError(t, store.Save("tok-2"))
			got, err = store.Load()
			require.NoError(t, err)
			assert.Equal(t, "tok-2", got)

			require.NoError(t, store.Clear())
			_, err = store.Load()
			assert.ErrorIs(t, err, ErrNoToken)

			// Clearing twice is fine
			require.NoError(t, store.Clear())
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on Windows")
	}
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)
	require.NoError(t, store.Save("tok-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestFileStore_TrimsAndTreatsBlankAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)

	require.NoError(t, os.WriteFile(path, []byte("tok-1\n"), 0600))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSealedFileStore_SealsAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewSealedFileStore(path)
	require.NoError(t, store.Save("tok-secret"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), SealedPrefix))
	assert.NotContains(t, string(raw), "tok-secret")

	// A second store (another process) reads it through the key file
	got, err := NewSealedFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", got)
}

func TestSealedFileStore_Tampered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewSealedFileStore(path)
	require.NoError(t, store.Save("tok-secret"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := []byte(strings.TrimPrefix(string(raw), SealedPrefix))
	// Flip a base64 character inside the ciphertext
	if body[20] == 'A' {
		body[20] = 'B'
	} else {
		body[20] = 'A'
	}
	require.NoError(t, os.WriteFile(path, []byte(SealedPrefix+string(body)), 0600))

	_, err = NewSealedFileStore(path).Load()
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSealedFileStore_MissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, NewSealedFileStore(path).Save("tok-secret"))
	require.NoError(t, os.Remove(path+".key"))

	_, err := NewSealedFileStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestSealedFileStore_ReadsPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, NewFileStore(path).Save("tok-plain"))

	store := NewSealedFileStore(path)
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-plain", got)

	require.NoError(t, store.Save(got))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), SealedPrefix))
}

func TestSealedFileStore_ConcurrentFirstUseAgreeOnKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "token.key")

	const n = 16
	var (
		wg   sync.WaitGroup
		keys = make([][]byte, n)
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], errs[i] = readOrCreateKey(keyPath, true)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "creator %d", i)
		assert.Equal(t, keys[0], keys[i], "creator %d derived a different key", i)
	}

	// Only the key itself is left behind, with owner-only permissions
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.key", entries[0].Name())
	if runtime.GOOS != "windows" {
		info, err := os.Stat(keyPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

// A rehydration failure must remove a sealed token too.
func TestSealedFileStore_RehydrationFailureClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewSealedFileStore(path)
	require.NoError(t, store.Save("tok-1"))

	auth := new(MockAuthenticator)
	auth.On("CurrentUser", mock.Anything, "tok-1").Return(nil, assert.AnError)
	h := NewHolder(auth, store, nil)

	assert.Equal(t, StatusAnonymous, h.LoadUser(context.Background()).Status)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenStore(t *testing.T) {
	t.Setenv("YTNEWS_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Session.TokenFile = filepath.Join(t.TempDir(), "tok")
	store, err := OpenStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	cfg.Session.EncryptToken = true
	store, err = OpenStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SealedFileStore{}, store)
}

// =============================================================================
// CLAIMS
// =============================================================================

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{"sub": 42, "exp": exp.Unix(), "iat": exp.Add(-time.Hour).Unix()})

	claims, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.True(t, claims.IssuedAt.Equal(exp.Add(-time.Hour)))
	assert.False(t, claims.Expired(exp.Add(-time.Second)))
	assert.True(t, claims.Expired(exp))
	assert.Equal(t, time.Minute, claims.Remaining(exp.Add(-time.Minute)))
	assert.Zero(t, claims.Remaining(exp.Add(time.Minute)))
}

func TestParseClaims_StringSubjectNoExpiry(t *testing.T) {
	claims, err := ParseClaims(signedToken(t, jwt.MapClaims{"sub": "mod@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "mod@example.com", claims.Subject)
	assert.False(t, claims.HasExpiry())
	assert.False(t, claims.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

// =============================================================================
// WATCHER
// =============================================================================

type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) Sync(ctx context.Context) Snapshot {
	c.calls.Add(1)
	return Snapshot{}
}

func TestTokenWatcher_FiresOnTokenChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	target := &countingSyncer{}

	tw, err := NewTokenWatcher(path, target, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, tw.Watch())
	defer tw.Close()

	require.NoError(t, NewFileStore(path).Save("tok-1"))
	require.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	before := target.calls.Load()
	require.NoError(t, NewFileStore(path).Clear())
	require.Eventually(t, func() bool { return target.calls.Load() > before }, 3*time.Second, 10*time.Millisecond)
}

func TestTokenWatcher_ReloadsHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	auth := new(MockAuthenticator)
	auth.On("CurrentUser", mock.Anything, "tok-9").Return(moderator(), nil)
	h := NewHolder(auth, NewFileStore(path), nil)
	h.LoadUser(context.Background())

	tw, err := NewTokenWatcher(path, h, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, tw.Watch())
	defer tw.Close()

	// Another process logs in
	require.NoError(t, NewFileStore(path).Save("tok-9"))
	require.Eventually(t, func() bool { return h.Snapshot().Authenticated() }, 3*time.Second, 10*time.Millisecond)

	// ...and out again
	require.NoError(t, NewFileStore(path).Clear())
	require.Eventually(t, func() bool { return h.Snapshot().Status == StatusAnonymous }, 3*time.Second, 10*time.Millisecond)
}

func TestTokenWatcher_CloseWithoutWatch(t *testing.T) {
	tw, err := NewTokenWatcher(filepath.Join(t.TempDir(), "token"), &countingSyncer{}, 0)
	require.NoError(t, err)
	assert.NoError(t, tw.Close())
}

// =============================================================================
// BUBBLE TEA COMMANDS
// =============================================================================

func TestCommands(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "a@b.com", "pw").Return("tok-1", nil)
	auth.On("CurrentUser", mock.Anything, "tok-1").Return(moderator(), nil)
	h := NewHolder(auth, NewMemoryStore(""), nil)

	msg := LoadUserCmd(context.Background(), h)()
	changed, ok := msg.(ChangedMsg)
	require.True(t, ok)
	assert.Equal(t, StatusAnonymous, changed.Snapshot.Status)

	msg = LoginCmd(context.Background(), h, "a@b.com", "pw")()
	res, ok := msg.(LoginResultMsg)
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.True(t, res.Snapshot.Authenticated())

	msg = LogoutCmd(h)()
	out, ok := msg.(LogoutResultMsg)
	require.True(t, ok)
	assert.NoError(t, out.Err)
	assert.False(t, h.Snapshot().Authenticated())
}

func TestForward(t *testing.T) {
	h := NewHolder(new(MockAuthenticator), NewMemoryStore(""), nil)

	got := make(chan tea.Msg, 4)
	cancel := Forward(h, func(m tea.Msg) { got <- m })
	defer cancel()

	require.NoError(t, h.Logout())
	select {
	case m := <-got:
		changed, ok := m.(ChangedMsg)
		require.True(t, ok)
		assert.Equal(t, StatusAnonymous, changed.Snapshot.Status)
	case <-time.After(time.Second):
		t.Fatal("no message forwarded")
	}
}
