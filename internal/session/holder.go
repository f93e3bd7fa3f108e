// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/audit"
)

// ErrSuperseded is returned by Login when a newer Logout, Login or
// LoadUser replaced the session while it was in flight. The newer state wins.
var ErrSuperseded = errors.New("session changed while login was in progress")

// =============================================================================
// SNAPSHOT
// =============================================================================

// Status is the coarse session state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusLoading
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session. Authenticated snapshots
// always carry both a token and a user; anonymous ones carry neither.
type Snapshot struct {
	Status     Status
	Token      string
	User       *api.User
	Generation uint64
}

func (s Snapshot) Authenticated() bool { return s.Status == StatusAuthenticated }

func (s Snapshot) Loading() bool { return s.Status == StatusLoading }

// Role is the user's role, empty when not signed in.
func (s Snapshot) Role() access.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Owner names the account behind the snapshot for data kept across
// runs, "" when not signed in.
func (s Snapshot) Owner() string {
	if s.Status != StatusAuthenticated || s.User == nil {
		return ""
	}
	return fmt.Sprintf("user:%d", s.User.ID)
}

// Subject projects the snapshot onto what the access guard needs.
func (s Snapshot) Subject() access.Subject {
	return access.Subject{
		Loading:       s.Loading(),
		Authenticated: s.Authenticated(),
		Role:          s.Role(),
	}
}

// =============================================================================
// HOLDER
// =============================================================================

// Authenticator is the slice of the API the holder needs. *api.AuthService
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*api.User, error)
}

// Holder owns the session. All methods are safe for concurrent use.
type Holder struct {
	auth  Authenticator
	store TokenStore
	audit *audit.Logger
	now   func() time.Time

	mu      sync.Mutex
	current Snapshot
	gen     uint64
	// pending is a token persisted by an in-flight Login, not yet adopted
	pending string

	listenersMu sync.Mutex
	listeners   map[int]func(Snapshot)
	nextID      int
}

// NewHolder returns an anonymous holder. Call LoadUser to rehydrate a
// persisted token. log may be nil.
func NewHolder(auth Authenticator, store TokenStore, log *audit.Logger) *Holder {
	return &Holder{
		auth:      auth,
		store:     store,
		audit:     log,
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session.
func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Token returns the bearer token to attach to API requests. It makes the
// holder an api.TokenSource.
func (h *Holder) Token() string {
	return h.Snapshot().Token
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that made the change and must not block. The returned func
// unsubscribes.
func (h *Holder) Subscribe(fn func(Snapshot)) (cancel func()) {
	h.listenersMu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.listenersMu.Unlock()

	return func() {
		h.listenersMu.Lock()
		delete(h.listeners, id)
		h.listenersMu.Unlock()
	}
}

// Login exchanges credentials for a token, persists it, then fetches the
// profile with it. A failed exchange leaves the session as it was. A failed
// profile fetch rolls the persisted token back and leaves the session
// anonymous. Errors are returned unchanged for the caller to display.
func (h *Holder) Login(ctx context.Context, email, password string) (Snapshot, error) {
	h.mu.Lock()
	started := h.gen
	h.mu.Unlock()

	token, err := h.auth.Login(ctx, email, password)
	if err != nil {
		h.record(audit.EventLoginFailed, false, err, email, "", nil)
		return h.Snapshot(), err
	}

	// Persist before the profile fetch, and only if nothing newer happened
	h.mu.Lock()
	if h.gen != started {
		h.mu.Unlock()
		return h.Snapshot(), ErrSuperseded
	}
	if err := h.store.Save(token); err != nil {
		h.mu.Unlock()
		err = fmt.Errorf("persist token: %w", err)
		h.record(audit.EventLoginFailed, false, err, email, "", nil)
		return h.Snapshot(), err
	}
	h.pending = token
	h.gen++
	claimed := h.gen
	h.mu.Unlock()

	user, err := h.auth.CurrentUser(ctx, token)
	if err == nil && user == nil {
		err = api.ErrUnauthorized
	}

	h.mu.Lock()
	if h.gen != claimed {
		// A newer mutation owns the store now; leave it alone
		h.mu.Unlock()
		return h.Snapshot(), ErrSuperseded
	}
	h.pending = ""
	var snap Snapshot
	if err != nil {
		if clearErr := h.store.Clear(); clearErr != nil {
			err = errors.Join(err, fmt.Errorf("roll back token: %w", clearErr))
		}
		snap = h.replace(Snapshot{Status: StatusAnonymous})
	} else {
		snap = h.replace(Snapshot{Status: StatusAuthenticated, Token: token, User: cloneUser(user)})
	}
	h.mu.Unlock()

	if err != nil {
		h.record(audit.EventLoginFailed, false, err, email, "", nil)
	} else {
		h.record(audit.EventLogin, true, nil, user.Email, string(user.Role), map[string]string{
			"user_id": strconv.Itoa(user.ID),
		})
	}
	h.notify(snap)
	return snap, err
}

// Logout clears the stored token and resets to anonymous. It never touches
// the network. The session is anonymous even when clearing the store fails.
func (h *Holder) Logout() error {
	h.mu.Lock()
	prev := h.current
	stored, _ := h.store.Load()
	err := h.store.Clear()
	h.pending = ""
	snap := h.replace(Snapshot{Status: StatusAnonymous})
	h.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("clear token: %w", err)
	}
	switch {
	case prev.User != nil:
		h.record(audit.EventLogout, err == nil, err, prev.User.Email, string(prev.User.Role), nil)
	case stored != "":
		// Signed out before the token was ever checked
		h.record(audit.EventLogout, err == nil, err, subjectOf(stored), "", nil)
	}
	h.notify(snap)
	return err
}

// StoredSubject returns the sub claim of the stored token without asking
// the server, "" when there is no token or it carries no subject.
func (h *Holder) StoredSubject() string {
	h.mu.Lock()
	token, err := h.store.Load()
	h.mu.Unlock()
	if err != nil {
		return ""
	}
	return subjectOf(token)
}

func subjectOf(token string) string {
	if token == "" {
		return ""
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// LoadUser rehydrates the session from the stored token. With no token it
// settles on anonymous without a network call. Any failure clears the
// stored token and settles on anonymous; it is never returned. A token
// whose exp has passed is dropped without asking the server.
//
// Cancelling ctx abandons the attempt without discarding the token.
func (h *Holder) LoadUser(ctx context.Context) Snapshot {
	h.mu.Lock()
	token, err := h.store.Load()
	if err != nil || token == "" {
		unreadable := err != nil && !errors.Is(err, ErrNoToken)
		var meta map[string]string
		if unreadable {
			// An unreadable token is as good as none
			meta = clearMeta(nil, h.store.Clear())
		}
		snap := h.replace(Snapshot{Status: StatusAnonymous})
		h.mu.Unlock()
		if unreadable {
			h.record(audit.EventRehydrateFailed, false, err, "", "", meta)
		}
		h.notify(snap)
		return snap
	}

	if claims, perr := ParseClaims(token); perr == nil && claims.Expired(h.now()) {
		meta := clearMeta(map[string]string{
			"expired_at": claims.ExpiresAt.Format(time.RFC3339),
		}, h.store.Clear())
		snap := h.replace(Snapshot{Status: StatusAnonymous})
		h.mu.Unlock()
		h.record(audit.EventRehydrateFailed, false, errors.New("token expired"), claims.Subject, "", meta)
		h.notify(snap)
		return snap
	}

	loading := h.replace(Snapshot{Status: StatusLoading, Token: token})
	claimed := h.gen
	h.mu.Unlock()
	h.notify(loading)

	user, err := h.auth.CurrentUser(ctx, token)
	if err == nil && user == nil {
		err = api.ErrUnauthorized
	}

	h.mu.Lock()
	if h.gen != claimed {
		snap := h.current
		h.mu.Unlock()
		return snap
	}
	var (
		snap Snapshot
		meta map[string]string
	)
	switch {
	case err != nil && ctx.Err() != nil:
		snap = h.replace(Snapshot{Status: StatusAnonymous})
	case err != nil:
		meta = clearMeta(nil, h.store.Clear())
		snap = h.replace(Snapshot{Status: StatusAnonymous})
	default:
		snap = h.replace(Snapshot{Status: StatusAuthenticated, Token: token, User: cloneUser(user)})
	}
	h.mu.Unlock()

	if err != nil {
		h.record(audit.EventRehydrateFailed, false, err, "", "", meta)
	} else {
		h.record(audit.EventRehydrate, true, nil, user.Email, string(user.Role), nil)
	}
	h.notify(snap)
	return snap
}

// Sync reconciles the session with the token store after an outside
// change (another process logging in or out). Tokens this holder wrote
// itself are ignored.
func (h *Holder) Sync(ctx context.Context) Snapshot {
	h.mu.Lock()
	token, err := h.store.Load()
	if err != nil {
		token = ""
	}
	if token == h.current.Token || (token != "" && token == h.pending) {
		snap := h.current
		h.mu.Unlock()
		return snap
	}
	prev := h.current
	if token == "" {
		snap := h.replace(Snapshot{Status: StatusAnonymous})
		h.mu.Unlock()
		h.record(audit.EventTokenChangedExternally, true, nil, userEmail(prev), string(prev.Role()), map[string]string{
			"change": "removed",
		})
		h.notify(snap)
		return snap
	}
	h.mu.Unlock()

	h.record(audit.EventTokenChangedExternally, true, nil, userEmail(prev), string(prev.Role()), map[string]string{
		"change": "replaced",
	})
	return h.LoadUser(ctx)
}

// replace installs a new snapshot under a fresh generation. Callers hold mu.
func (h *Holder) replace(s Snapshot) Snapshot {
	h.gen++
	s.Generation = h.gen
	h.current = s
	return s
}

func (h *Holder) notify(s Snapshot) {
	h.listenersMu.Lock()
	fns := make([]func(Snapshot), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (h *Holder) record(eventType string, success bool, err error, user, role string, metadata map[string]string) {
	h.audit.Record(eventType, success, err, user, role, metadata)
}

// clearMeta adds a failed token clear to audit metadata. The token may
// still be on disk then, and the next start will try it again.
func clearMeta(meta map[string]string, err error) map[string]string {
	if err == nil {
		return meta
	}
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta["clear_error"] = err.Error()
	return meta
}

func cloneUser(u *api.User) *api.User {
	c := *u
	return &c
}

func userEmail(s Snapshot) string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// OnSettled calls fn with every snapshot that is not loading, in
// generation order. A snapshot older than one already seen is dropped.
func OnSettled(h *Holder, fn func(Snapshot)) (cancel func()) {
	var (
		mu   sync.Mutex
		seen uint64
	)
	return h.Subscribe(func(s Snapshot) {
		if s.Loading() {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if s.Generation < seen {
			return
		}
		seen = s.Generation
		fn(s)
	})
}
