// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This test file covers argument parsing, exit codes, the shell line
// splitter and the commands against a fake API.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/audit"
	"github.com/jeranaias/ytnews-tui/internal/config"
	"github.com/jeranaias/ytnews-tui/internal/session"
)

// =============================================================================
// PARSE ARGS TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no args starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "tui with open path",
			argv:    []string{"tui", "--open", "/events"},
			wantCmd: CmdTUI,
			check: func(t *testing.T, a Args) {
				if a.Open != "/events" {
					t.Errorf("Open = %q, want /events", a.Open)
				}
			},
		},
		{
			name:    "alias",
			argv:    []string{"news", "list"},
			wantCmd: CmdAnnouncements,
			check: func(t *testing.T, a Args) {
				if a.Name != "news" {
					t.Errorf("Name = %q, want news", a.Name)
				}
				if !reflect.DeepEqual(a.Raw, []string{"list"}) {
					t.Errorf("Raw = %v, want [list]", a.Raw)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"--json", "events", "list", "--no-cache", "--api=http://x/api/v1"},
			wantCmd: CmdEvents,
			check: func(t *testing.T, a Args) {
				if !a.JSON || !a.NoCache {
					t.Errorf("JSON=%v NoCache=%v, want both true", a.JSON, a.NoCache)
				}
				if a.APIURL != "http://x/api/v1" {
					t.Errorf("APIURL = %q", a.APIURL)
				}
				if !reflect.DeepEqual(a.Raw, []string{"list"}) {
					t.Errorf("Raw = %v, want [list]", a.Raw)
				}
			},
		},
		{
			name:    "command word is case-insensitive",
			argv:    []string{"STATUS"},
			wantCmd: CmdStatus,
		},
		{
			name:    "unknown command",
			argv:    []string{"frobnicate"},
			wantCmd: CmdUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("ParseArgs(%v) cmd = %v, want %v", tt.argv, cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgs_Format(t *testing.T) {
	if (Args{}).Format() != FormatText {
		t.Error("default format should be text")
	}
	if (Args{JSON: true, YAML: true}).Format() != FormatJSON {
		t.Error("--json should win over --yaml")
	}
	if (Args{YAML: true}).Format() != FormatYAML {
		t.Error("--yaml should select YAML")
	}
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_Flags(t *testing.T) {
	p := NewArgParser([]string{"delete", "--confirm", "42", "--status=draft", "--limit", "5"}, "confirm")

	if p.Subcommand() != "delete" {
		t.Errorf("Subcommand() = %q, want delete", p.Subcommand())
	}
	if !p.BoolFlag("confirm") {
		t.Error("declared bool flag should be set")
	}
	if p.Positional(1) != "42" {
		t.Errorf("declared bool flag consumed the next word; Positional(1) = %q", p.Positional(1))
	}
	if p.Flag("status") != "draft" {
		t.Errorf("Flag(status) = %q, want draft", p.Flag("status"))
	}
	if n, err := p.FlagInt("limit", 20); err != nil || n != 5 {
		t.Errorf("FlagInt(limit) = %d, %v; want 5", n, err)
	}
	if n, err := p.FlagInt("skip", 7); err != nil || n != 7 {
		t.Errorf("FlagInt(skip) default = %d, %v; want 7", n, err)
	}
}

func TestArgParser_FlagIntInvalid(t *testing.T) {
	p := NewArgParser([]string{"list", "--limit", "ten"})
	_, err := p.FlagInt("limit", 20)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("FlagInt error = %v, want ValidationError", err)
	}
}

func TestArgParser_Pointers(t *testing.T) {
	p := NewArgParser([]string{"update", "3", "--title", "New", "--excerpt", "--active=false", "--can-post", "yes"})

	if s := p.StringPtr("title"); s == nil || *s != "New" {
		t.Errorf("StringPtr(title) = %v, want New", s)
	}
	if s := p.StringPtr("excerpt"); s == nil || *s != "" {
		t.Errorf("StringPtr(excerpt) = %v, want pointer to empty string", s)
	}
	if s := p.StringPtr("slug"); s != nil {
		t.Errorf("StringPtr(slug) = %q, want nil", *s)
	}

	b, err := p.BoolPtr("active")
	if err != nil || b == nil || *b {
		t.Errorf("BoolPtr(active) = %v, %v; want false", b, err)
	}
	b, err = p.BoolPtr("can-post")
	if err != nil || b == nil || !*b {
		t.Errorf("BoolPtr(can-post) = %v, %v; want true", b, err)
	}
	if b, _ := p.BoolPtr("missing"); b != nil {
		t.Error("BoolPtr(missing) should be nil")
	}
}

func TestArgParser_IntList(t *testing.T) {
	p := NewArgParser([]string{"create", "--category", "1, 4,,9"})
	ids, err := p.IntList("category")
	if err != nil {
		t.Fatalf("IntList: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{1, 4, 9}) {
		t.Errorf("IntList = %v, want [1 4 9]", ids)
	}

	p = NewArgParser([]string{"create", "--category", "1,x"})
	if _, err := p.IntList("category"); err == nil {
		t.Error("IntList should reject non-numeric ids")
	}
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"show", "--", "--not-a-flag"})
	if p.Positional(1) != "--not-a-flag" {
		t.Errorf("Positional(1) = %q, want --not-a-flag", p.Positional(1))
	}
	if p.HasFlag("not-a-flag") {
		t.Error("words after -- must not be flags")
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("12", "id"); err != nil || id != 12 {
		t.Errorf("ParseID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := ParseID(bad, "id"); err == nil {
			t.Errorf("ParseID(%q) should fail", bad)
		}
	}
}

// =============================================================================
// SUGGESTION AND EXIT CODE TESTS
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"anouncements", "announcements"},
		{"logn", "login"},
		{"login", ""},
		{"x", ""},
		{"zzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := SuggestCommand(tt.input); got != tt.want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("id", "x", "bad"), ExitUsageError},
		{"unknown command", &UnknownCommandError{Name: "x"}, ExitUsageError},
		{"api invalid", fmt.Errorf("wrap: %w", api.ErrInvalid), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "api.base_url", Message: "required"}}, ExitConfigError},
		{"permission", &PermissionError{Action: "users list"}, ExitAuthError},
		{"unauthorized", NewCommandError("me", "show", api.ErrUnauthorized), ExitAuthError},
		{"forbidden", api.ErrForbidden, ExitAuthError},
		{"not found", NewCommandError("events", "show", api.ErrNotFound), ExitNotFoundError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"server", api.ErrServer, ExitServerError},
		{"net timeout", timeoutErr{}, ExitTimeoutError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewCommandError_Nil(t *testing.T) {
	if err := NewCommandError("x", "y", nil); err != nil {
		t.Errorf("NewCommandError(nil) = %v, want nil", err)
	}
}

// =============================================================================
// SHELL TESTS (shell.go)
// =============================================================================

func TestSplitWords(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"events list", []string{"events", "list"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{`announcements create --title "Open day 2025"`, []string{"announcements", "create", "--title", "Open day 2025"}},
		{`join request cs --message 'it''s me'`, []string{"join", "request", "cs", "--message", "its me"}},
		{`say \"hi\"`, []string{"say", `"hi"`}},
		{`a "" b`, []string{"a", "", "b"}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := splitWords(tt.line)
		if err != nil {
			t.Errorf("splitWords(%q) error: %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitWords(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSplitWords_Errors(t *testing.T) {
	for _, line := range []string{`say "hi`, `say 'hi`, `trailing \`} {
		if _, err := splitWords(line); err == nil {
			t.Errorf("splitWords(%q) should fail", line)
		}
	}
}

func TestCompleteLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"ann", []string{"announcement", "announcements"}},
		{"ex", []string{"exit"}},
		{"cache c", []string{"cache clear"}},
		{"news l", []string{"news list"}},
		{"events reg", []string{"events register", "events registrations"}},
		{"version x", nil},
		{"events list --", nil},
	}
	for _, tt := range tests {
		if got := completeLine(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("completeLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

const (
	modJSON  = `{"id":7,"email":"mod@example.com","full_name":"Mod","role":"moderator","is_active":true,"created_at":"2025-02-01T10:00:00"}`
	userJSON = `{"id":9,"email":"ann@example.com","full_name":"Ann","role":"user","is_active":true,"created_at":"2025-02-01T10:00:00"}`
	listJSON = `[{"id":1,"title":"Open day","slug":"open-day","status":"published","author":` + modJSON + `,"categories":[],"created_at":"2025-03-01T09:00:00"}]`
	orgJSON  = `{"id":4,"name":"Org","slug":"org","is_active":true,"created_at":"2025-01-01T00:00:00"}`
)

func joinJSON(id int, status string) string {
	return fmt.Sprintf(`{"id":%d,"user_id":9,"organization_id":4,"position":"editor","status":%q,"created_at":"2025-01-01T00:00:00","user":%s,"organization":%s}`,
		id, status, userJSON, orgJSON)
}

// fakeAPI serves the handful of endpoints the command tests touch.
type fakeAPI struct {
	hits    map[string]*atomic.Int32
	deleted atomic.Int32
}

func (f *fakeAPI) count(path string) int {
	if c, ok := f.hits[path]; ok {
		return int(c.Load())
	}
	return 0
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c, ok := f.hits[r.URL.Path]; ok {
		c.Add(1)
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/login" && r.Method == http.MethodPost:
		io.WriteString(w, `{"access_token":"tok-mod","token_type":"bearer"}`)
	case r.URL.Path == "/users/me":
		switch r.Header.Get("Authorization") {
		case "Bearer tok-mod":
			io.WriteString(w, modJSON)
		case "Bearer tok-user":
			io.WriteString(w, userJSON)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Could not validate credentials"}`)
		}
	case r.URL.Path == "/announcements/" || r.URL.Path == "/announcements/all":
		io.WriteString(w, listJSON)
	case r.URL.Path == "/join-requests/organization/4":
		io.WriteString(w, "["+joinJSON(5, "pending")+","+joinJSON(6, "accepted")+"]")
	case r.URL.Path == "/join-requests/5/accept" && r.Method == http.MethodPost:
		io.WriteString(w, joinJSON(5, "accepted"))
	case r.URL.Path == "/join-requests/6/reject" && r.Method == http.MethodPost:
		// A server that ignored the action
		io.WriteString(w, joinJSON(6, "accepted"))
	case r.URL.Path == "/announcements/5" && r.Method == http.MethodDelete:
		f.deleted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not found"}`)
	}
}

type testEnv struct {
	rt    *Runtime
	api   *fakeAPI
	store *session.MemoryStore
	out   *bytes.Buffer
	errs  *bytes.Buffer
	audit *bytes.Buffer
}

// newTestEnv builds a runtime against a fake API. token seeds the token
// store, input feeds the prompter.
func newTestEnv(t *testing.T, token, input string, args Args) *testEnv {
	t.Helper()
	fake := &fakeAPI{hits: map[string]*atomic.Int32{
		"/announcements/all": {},
		"/users/me":          {},
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.MaxRetries = 1
	cfg.API.RateLimitRPS = 0
	cfg.Cache.Enabled = false

	env := &testEnv{
		api:   fake,
		store: session.NewMemoryStore(token),
		out:   &bytes.Buffer{},
		errs:  &bytes.Buffer{},
		audit: &bytes.Buffer{},
	}
	rt, err := Build(context.Background(), cfg, env.store, audit.New(env.audit), args)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rt.Out = env.out
	rt.Err = env.errs
	rt.Prompt = &Prompter{In: bufio.NewReader(strings.NewReader(input)), Out: io.Discard}
	t.Cleanup(func() { rt.Close() })
	env.rt = rt
	return env
}

func decodeEnvelope(t *testing.T, b []byte) JSONResponse {
	t.Helper()
	var resp JSONResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("output is not a JSON envelope: %v\n%s", err, b)
	}
	return resp
}

func TestAnnouncementsList_Public(t *testing.T) {
	env := newTestEnv(t, "", "", Args{})
	args := Args{Name: "announcements", Raw: []string{"list"}}

	if err := Run(env.rt, CmdAnnouncements, args); err != nil {
		t.Fatalf("announcements list: %v", err)
	}
	out := env.out.String()
	if !strings.Contains(out, "Open day") || !strings.Contains(out, "open-day") {
		t.Errorf("table missing the announcement:\n%s", out)
	}
	if env.api.count("/announcements/all") != 0 {
		t.Error("the public list must not call /announcements/all")
	}
}

func TestAnnouncementsListAll_AnonymousDenied(t *testing.T) {
	env := newTestEnv(t, "", "", Args{})
	args := Args{Name: "announcements", Raw: []string{"list", "--all"}}

	err := Run(env.rt, CmdAnnouncements, args)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PermissionError", err)
	}
	if perr.User != "" {
		t.Errorf("anonymous denial should not name a user, got %q", perr.User)
	}
	if GetExitCode(err) != ExitAuthError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitAuthError)
	}
	if env.api.count("/announcements/all") != 0 {
		t.Error("a denied command must not reach the API")
	}
	if !strings.Contains(env.audit.String(), audit.EventAccessDenied) {
		t.Errorf("denial not audited:\n%s", env.audit.String())
	}
}

func TestUsersList_RoleTooLow(t *testing.T) {
	env := newTestEnv(t, "tok-user", "", Args{})
	args := Args{Name: "users", Raw: []string{"list"}}

	err := Run(env.rt, CmdUsers, args)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PermissionError", err)
	}
	if perr.User != "ann@example.com" || perr.Required != "admin" {
		t.Errorf("PermissionError = %+v, want user ann@example.com and role admin", perr)
	}
	if !strings.Contains(err.Error(), "requires role 'admin'") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAnnouncementsListAll_ModeratorJSON(t *testing.T) {
	args := Args{Name: "announcements", JSON: true, Raw: []string{"list", "--all"}}
	env := newTestEnv(t, "tok-mod", "", args)

	if err := Run(env.rt, CmdAnnouncements, args); err != nil {
		t.Fatalf("announcements list --all: %v", err)
	}
	resp := decodeEnvelope(t, env.out.Bytes())
	if !resp.Success || resp.Error != nil {
		t.Errorf("envelope = %+v, want success", resp)
	}
	if resp.Command != "announcements list" {
		t.Errorf("Command = %q", resp.Command)
	}
	items, ok := resp.Data.([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("Data = %#v, want one item", resp.Data)
	}
	if env.api.count("/announcements/all") != 1 {
		t.Errorf("/announcements/all hits = %d, want 1", env.api.count("/announcements/all"))
	}
}

func TestAnnouncementsDelete_NeedsConfirmInJSON(t *testing.T) {
	args := Args{Name: "announcements", JSON: true, Raw: []string{"delete", "5"}}
	env := newTestEnv(t, "tok-mod", "", args)

	err := Run(env.rt, CmdAnnouncements, args)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if env.api.deleted.Load() != 0 {
		t.Error("delete must not run without --confirm")
	}

	args.Raw = []string{"delete", "5", "--confirm"}
	env.rt.Args = args
	if err := Run(env.rt, CmdAnnouncements, args); err != nil {
		t.Fatalf("delete --confirm: %v", err)
	}
	if env.api.deleted.Load() != 1 {
		t.Errorf("deleted = %d, want 1", env.api.deleted.Load())
	}
	if resp := decodeEnvelope(t, env.out.Bytes()); !resp.Success {
		t.Errorf("envelope = %+v, want success", resp)
	}
}

func TestAnnouncementsDelete_TextNotInteractive(t *testing.T) {
	env := newTestEnv(t, "tok-mod", "y\n", Args{})
	args := Args{Name: "announcements", Raw: []string{"delete", "5"}}

	err := Run(env.rt, CmdAnnouncements, args)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError for piped stdin", err)
	}
	if env.api.deleted.Load() != 0 {
		t.Error("delete must not run without a confirmation")
	}
}

func TestAnnouncementsDelete_InteractiveDeclined(t *testing.T) {
	env := newTestEnv(t, "tok-mod", "n\n", Args{})
	env.rt.Prompt.Interactive = true
	args := Args{Name: "announcements", Raw: []string{"delete", "5"}}

	if err := Run(env.rt, CmdAnnouncements, args); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if env.api.deleted.Load() != 0 {
		t.Error("declined delete reached the API")
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "", "secret\n", Args{})
	args := Args{Name: "login", Raw: []string{"--email", "mod@example.com"}}

	if err := Run(env.rt, CmdLogin, args); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(env.out.String(), "Signed in as Mod (moderator)") {
		t.Errorf("output = %q", env.out.String())
	}
	if tok, _ := env.store.Load(); tok != "tok-mod" {
		t.Errorf("stored token = %q, want tok-mod", tok)
	}
	if !env.rt.Holder.Snapshot().Authenticated() {
		t.Error("holder should be authenticated after login")
	}
}

func TestLogin_MissingEmailWhenPiped(t *testing.T) {
	env := newTestEnv(t, "", "secret\n", Args{})
	err := Run(env.rt, CmdLogin, Args{Name: "login"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, "tok-user", "", Args{})
	if err := Run(env.rt, CmdLogout, Args{Name: "logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(env.out.String(), "Signed out") {
		t.Errorf("output = %q", env.out.String())
	}
	if n := env.api.count("/users/me"); n != 0 {
		t.Errorf("logout fetched /users/me %d times, want 0", n)
	}
	if _, err := env.store.Load(); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("token still stored after logout (err = %v)", err)
	}
	if !strings.Contains(env.audit.String(), `"event_type":"LOGOUT"`) {
		t.Errorf("audit = %q, want a LOGOUT event", env.audit.String())
	}
}

func TestLogout_AfterWhoamiNamesTheUser(t *testing.T) {
	env := newTestEnv(t, "tok-user", "", Args{})
	s := &Shell{rt: env.rt, base: env.rt.Args}

	s.Exec("whoami")
	env.out.Reset()
	s.Exec("logout")
	if !strings.Contains(env.out.String(), "Signed out ann@example.com") {
		t.Errorf("output = %q", env.out.String())
	}
	if n := env.api.count("/users/me"); n != 1 {
		t.Errorf("/users/me hits = %d, want 1 (whoami only)", n)
	}
}

func TestWhoami_RejectedTokenIsCleared(t *testing.T) {
	args := Args{Name: "whoami", JSON: true}
	env := newTestEnv(t, "tok-revoked", "", args)

	if err := Run(env.rt, CmdWhoami, args); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	resp := decodeEnvelope(t, env.out.Bytes())
	data, _ := resp.Data.(map[string]interface{})
	if data["authenticated"] != false {
		t.Errorf("data = %v, want authenticated false", data)
	}
	if _, err := env.store.Load(); !errors.Is(err, session.ErrNoToken) {
		t.Error("a rejected token should be cleared from the store")
	}
}

func TestJoinList_ShowsPendingOnly(t *testing.T) {
	args := Args{Name: "join", Raw: []string{"list", "4"}, JSON: true}
	env := newTestEnv(t, "tok-user", "", args)

	if err := Run(env.rt, CmdJoin, args); err != nil {
		t.Fatalf("join list: %v", err)
	}
	resp := decodeEnvelope(t, env.out.Bytes())
	rows, _ := resp.Data.([]interface{})
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want only the pending request", resp.Data)
	}
	if row, _ := rows[0].(map[string]interface{}); row["status"] != "pending" {
		t.Errorf("row = %v, want status pending", row)
	}
}

func TestJoinResolve_ChecksResultingStatus(t *testing.T) {
	env := newTestEnv(t, "tok-user", "", Args{Quiet: true})

	if err := Run(env.rt, CmdJoin, Args{Name: "join", Raw: []string{"accept", "5"}}); err != nil {
		t.Errorf("join accept: %v", err)
	}
	err := Run(env.rt, CmdJoin, Args{Name: "join", Raw: []string{"reject", "6"}})
	var cerr *CommandError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CommandError", err)
	}
	if !strings.Contains(err.Error(), "is accepted, not rejected") {
		t.Errorf("err = %v", err)
	}
}

// runCached simulates one ytnews invocation sharing the sqlite cache at
// path: load the session, then list published announcements.
func runCached(t *testing.T, srvURL, path, token string) {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = srvURL
	cfg.API.MaxRetries = 1
	cfg.API.RateLimitRPS = 0
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "sqlite"
	cfg.Cache.Path = path

	var errs bytes.Buffer
	rt, err := Build(context.Background(), cfg, session.NewMemoryStore(token), audit.New(io.Discard), Args{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rt.Out = io.Discard
	rt.Err = &errs

	rt.Session()
	if _, err := rt.Client.Announcements.ListPublished(rt.Context(), 0, 20); err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if errs.Len() > 0 {
		t.Errorf("stderr = %q", errs.String())
	}
}

func TestCache_SameUserKeepsCacheAcrossRuns(t *testing.T) {
	fake := &fakeAPI{hits: map[string]*atomic.Int32{"/announcements/": {}, "/users/me": {}}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "cache.db")

	runCached(t, srv.URL, path, "tok-user")
	runCached(t, srv.URL, path, "tok-user")

	if n := fake.count("/announcements/"); n != 1 {
		t.Errorf("/announcements/ hits = %d, want 1 (second run served from cache)", n)
	}
	if n := fake.count("/users/me"); n != 2 {
		t.Errorf("/users/me hits = %d, want 2", n)
	}
}

func TestCache_OtherUserStartsCold(t *testing.T) {
	fake := &fakeAPI{hits: map[string]*atomic.Int32{"/announcements/": {}}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "cache.db")

	runCached(t, srv.URL, path, "tok-user")
	runCached(t, srv.URL, path, "tok-mod")
	runCached(t, srv.URL, path, "")

	if n := fake.count("/announcements/"); n != 3 {
		t.Errorf("/announcements/ hits = %d, want 3 (each identity fetches its own)", n)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	env := newTestEnv(t, "", "", Args{})
	err := Run(env.rt, CmdUnknown, Args{Name: "anouncements"})
	var uerr *UnknownCommandError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if uerr.Suggestion != "announcements" {
		t.Errorf("Suggestion = %q, want announcements", uerr.Suggestion)
	}
}

func TestShellExec(t *testing.T) {
	env := newTestEnv(t, "tok-mod", "", Args{Quiet: true})
	s := &Shell{rt: env.rt, base: env.rt.Args}

	if done := s.Exec("whoami --json"); done {
		t.Fatal("whoami should not end the shell")
	}
	resp := decodeEnvelope(t, env.out.Bytes())
	if !resp.Success || resp.Command != "whoami" {
		t.Errorf("envelope = %+v", resp)
	}
	if env.rt.Args.JSON {
		t.Error("line flags must not outlive the line")
	}
	if !env.rt.Args.Quiet {
		t.Error("shell flags must survive a line")
	}

	env.out.Reset()
	s.Exec(`users show "unterminated`)
	if !strings.Contains(env.errs.String(), "unterminated") {
		t.Errorf("stderr = %q, want a quoting error", env.errs.String())
	}

	env.errs.Reset()
	s.Exec("users list")
	if !strings.Contains(env.errs.String(), "requires role 'admin'") {
		t.Errorf("stderr = %q, want a permission error", env.errs.String())
	}

	if !s.Exec("exit") || !s.Exec("QUIT") {
		t.Error("exit and quit should end the shell")
	}
}
