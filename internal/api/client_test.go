// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/cache"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const userJSON = `{"id":7,"email":"mod@example.com","full_name":"Mod","role":"moderator","is_active":true,"created_at":"2025-02-01T10:00:00.123456"}`

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(Options{
		BaseURL:  server.URL + "/api/v1",
		Tokens:   tokens,
		Cache:    cache.NewMemory(100),
		CacheTTL: time.Minute,
	})
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body.Email)
		assert.Equal(t, "pw", body.Password)

		writeJSON(w, http.StatusOK, `{"access_token":"tok-1","token_type":"bearer"}`)
	}, nil)

	token, err := c.Auth.Login(context.Background(), " a@b.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestAuth_LoginUnsupportedTokenType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"tok-1","token_type":"mac"}`)
	}, nil)

	_, err := c.Auth.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mac"`)
}

func TestAuth_LoginRejected(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Incorrect email or password"}`)
	}, nil)

	_, err := c.Auth.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Incorrect email or password", Message(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.EqualValues(t, 1, calls.Load(), "POST must not be retried")
}

func TestAuth_LoginValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, nil)

	_, err := c.Auth.Login(context.Background(), "not-an-email", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, Message(err), "email")
	assert.EqualValues(t, 0, calls.Load())
}

func TestAuth_CurrentUserUsesExplicitToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/me", r.URL.Path)
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, userJSON)
	}, StaticToken("ambient"))

	u, err := c.Auth.CurrentUser(context.Background(), "explicit")
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, access.RoleModerator, u.Role)
	assert.Equal(t, 2025, u.CreatedAt.Year())
	assert.Nil(t, u.UpdatedAt)
	assert.Equal(t, "Mod", u.DisplayName())
}

func TestAuth_CurrentUserWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, nil)

	_, err := c.Auth.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{400, `{"detail":"Event is full"}`, ErrBadRequest, "Event is full"},
		{403, `{"detail":"Not enough permissions"}`, ErrForbidden, "Not enough permissions"},
		{404, `{"detail":"Announcement not found"}`, ErrNotFound, "Announcement not found"},
		{409, `{"detail":"conflict"}`, ErrBadRequest, "conflict"},
		{422, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"loc":["body","password"],"msg":"field required"}]}`,
			ErrBadRequest, "email: value is not a valid email address; password: field required"},
		{429, `{"detail":"slow down"}`, ErrRateLimited, "slow down"},
		{500, `Internal Server Error`, ErrServer, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, nil)

			_, err := c.Auth.Register(context.Background(), RegisterRequest{Email: "new@example.com", Password: "secret1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.detail, Message(err))
		})
	}
}

// =============================================================================
// TRANSPORT
// =============================================================================

func TestClient_AttachesBearerToken(t *testing.T) {
	var seen atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[]`)
	}, nil)

	var current atomic.Value
	current.Store("first")
	c.tokens = tokenFunc(func() string { return current.Load().(string) })

	_, err := c.Events.MyRegistrations(NoCache(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", seen.Load())

	current.Store("second")
	_, err = c.Events.MyRegistrations(NoCache(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", seen.Load())

	current.Store("")
	_, err = c.Events.MyRegistrations(NoCache(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

func TestClient_RetriesIdempotentOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"detail":"busy"}`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"News","slug":"news","created_at":"2025-01-01T00:00:00"}]`)
	}, nil)

	cats, err := c.Categories.List(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "news", cats[0].Slug)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, `{"detail":"down"}`)
	}, nil)

	_, err := c.Events.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.EqualValues(t, DefaultMaxRetries, calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, `{"detail":"Event not found"}`)
	}, nil)

	_, err := c.Events.GetBySlug(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Events.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_RejectsOversizedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `"`+strings.Repeat("x", MaxResponseSize)+`"`)
	}, nil)

	_, err := c.Users.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

// =============================================================================
// CACHE
// =============================================================================

func TestClient_CachesAndInvalidates(t *testing.T) {
	var lists atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/announcements/":
			lists.Add(1)
			assert.Equal(t, "0", r.URL.Query().Get("skip"))
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, `[]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/announcements/3":
			writeJSON(w, http.StatusOK, `{"id":3,"title":"t","slug":"t","content":"","status":"published","author_id":1,"author":`+userJSON+`,"categories":[],"created_at":"2025-01-01T00:00:00Z"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Announcements.ListPublished(ctx, 0, 20)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, lists.Load())

	title := "t"
	_, err := c.Announcements.Update(ctx, 3, AnnouncementUpdate{Title: &title})
	require.NoError(t, err)

	_, err = c.Announcements.ListPublished(ctx, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, lists.Load())

	_, err = c.Announcements.ListPublished(NoCache(ctx), 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, lists.Load())
}

func TestClient_JoinRequestAcceptInvalidatesOrganization(t *testing.T) {
	var employeeLists atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/employees/organization/4":
			employeeLists.Add(1)
			writeJSON(w, http.StatusOK, `[]`)
		case "/api/v1/join-requests/9/accept":
			writeJSON(w, http.StatusOK, `{"id":9,"user_id":2,"organization_id":4,"position":"editor","status":"accepted","created_at":"2025-01-01T00:00:00","user":`+userJSON+`,"organization":{"id":4,"name":"Org","slug":"org","is_active":true,"created_at":"2025-01-01T00:00:00"}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}, nil)
	ctx := context.Background()

	_, err := c.Employees.ByOrganization(ctx, 4)
	require.NoError(t, err)
	_, err = c.Employees.ByOrganization(ctx, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1, employeeLists.Load())

	jr, err := c.JoinRequests.Accept(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, JoinAccepted, jr.Status)

	_, err = c.Employees.ByOrganization(ctx, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 2, employeeLists.Load())
}

func TestClient_ClearCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `[]`)
	}, nil)
	ctx := context.Background()

	_, _ = c.Organizations.List(ctx, 0, 100)
	require.NoError(t, c.ClearCache(ctx))
	_, _ = c.Organizations.List(ctx, 0, 100)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_ClaimCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `[]`)
	}, nil)
	ctx := context.Background()

	_, err := c.ClaimCache(ctx, "user:7")
	require.NoError(t, err)
	_, _ = c.Organizations.List(ctx, 0, 100)

	cleared, err := c.ClaimCache(ctx, "user:7")
	require.NoError(t, err)
	assert.False(t, cleared)
	_, _ = c.Organizations.List(ctx, 0, 100)
	assert.EqualValues(t, 1, calls.Load())

	cleared, err = c.ClaimCache(ctx, "user:9")
	require.NoError(t, err)
	assert.True(t, cleared)
	_, _ = c.Organizations.List(ctx, 0, 100)
	assert.EqualValues(t, 2, calls.Load())
}
