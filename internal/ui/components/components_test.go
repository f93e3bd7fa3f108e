// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

var testTheme = styles.NewTheme("dark")

// =============================================================================
// HEADER TESTS
// =============================================================================

func routes(items []NavItem) []access.RouteName {
	out := make([]access.RouteName, len(items))
	for i, it := range items {
		out[i] = it.Route
	}
	return out
}

func contains(rs []access.RouteName, r access.RouteName) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func TestHeader_Items(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		role          access.Role
		wantAdmin     bool
		wantLogin     bool
	}{
		{"guest", false, "", false, true},
		{"user", true, access.RoleUser, false, false},
		{"moderator", true, access.RoleModerator, true, false},
		{"admin", true, access.RoleAdmin, true, false},
		{"unknown role", true, "superuser", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(testTheme)
			h.SetSession(tt.authenticated, "someone", tt.role)
			got := routes(h.Items())

			if contains(got, access.RouteAdmin) != tt.wantAdmin {
				t.Errorf("admin link present = %v, want %v", !tt.wantAdmin, tt.wantAdmin)
			}
			if contains(got, access.RouteLogin) != tt.wantLogin {
				t.Errorf("login link present = %v, want %v", !tt.wantLogin, tt.wantLogin)
			}
			if contains(got, access.RouteProfile) != tt.authenticated {
				t.Errorf("profile link present = %v, want %v", !tt.authenticated, tt.authenticated)
			}
		})
	}
}

func TestHeader_Lookup(t *testing.T) {
	h := NewHeader(testTheme)
	if it, ok := h.Lookup("2"); !ok || it.Route != access.RouteEvents {
		t.Errorf("Lookup(2) = %v, %v; want events", it, ok)
	}
	if _, ok := h.Lookup("a"); ok {
		t.Error("guest should not have an admin key")
	}
	h.SetSession(true, "mod", access.RoleModerator)
	if it, ok := h.Lookup("a"); !ok || it.Route != access.RouteAdmin {
		t.Errorf("Lookup(a) = %v, %v; want admin", it, ok)
	}
}

func TestHeader_View(t *testing.T) {
	h := NewHeader(testTheme)
	h.SetWidth(120)
	h.SetSession(true, "Ivan Petrov", access.RoleAdmin)
	view := h.View()

	for _, want := range []string{"YTNews", "Home", "Admin", "Ivan Petrov", "logout"} {
		if !strings.Contains(view, want) {
			t.Errorf("header view missing %q", want)
		}
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar_SessionText(t *testing.T) {
	s := NewStatusBar(testTheme)
	if got := s.SessionText(); got != "guest" {
		t.Errorf("guest SessionText = %q", got)
	}

	s.Loading = true
	if got := s.SessionText(); !strings.Contains(got, "restoring") {
		t.Errorf("loading SessionText = %q", got)
	}

	s.Loading = false
	s.Authenticated = true
	s.Email = "mod@example.com"
	s.Role = access.RoleModerator
	s.TokenRemaining = 90 * time.Minute
	got := s.SessionText()
	for _, want := range []string{"mod@example.com", "moderator", "1h30m"} {
		if !strings.Contains(got, want) {
			t.Errorf("SessionText = %q, missing %q", got, want)
		}
	}
}

func TestStatusBar_ViewShowsMessage(t *testing.T) {
	s := NewStatusBar(testTheme)
	s.SetWidth(120)
	s.SetMessage("Announcement saved", false)
	if !strings.Contains(s.View(), "Announcement saved") {
		t.Error("status bar dropped the message")
	}
	s.SetWidth(30)
	if s.View() == "" {
		t.Error("narrow status bar rendered nothing")
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "expired"},
		{-time.Second, "expired"},
		{45 * time.Second, "45s"},
		{30 * time.Minute, "30m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 10*time.Minute, "2h10m"},
		{72 * time.Hour, "3d"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestErrorTitle(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&api.APIError{Status: 401}, "Not signed in"},
		{&api.APIError{Status: 403}, "Not allowed"},
		{&api.APIError{Status: 404}, "Not found"},
		{&api.APIError{Status: 429}, "Slow down"},
		{&api.APIError{Status: 500}, "Server error"},
		{api.ValidationErrors{{Field: "email", Message: "is required"}}, "Check the form"},
		{errors.New("boom"), "Error"},
	}
	for _, tt := range tests {
		if got := ErrorTitle(tt.err); got != tt.want {
			t.Errorf("ErrorTitle(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorBox_ShowsDetail(t *testing.T) {
	err := &api.APIError{Status: 400, Detail: "Slug already exists"}
	box := ErrorBox(testTheme, err, 60)
	if !strings.Contains(box, "Slug already exists") {
		t.Errorf("ErrorBox missing detail: %q", box)
	}
	if ErrorBox(testTheme, nil, 60) != "" {
		t.Error("ErrorBox(nil) should be empty")
	}
}

// =============================================================================
// FORM TESTS
// =============================================================================

func typeText(f *Form, s string) {
	for _, r := range s {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestForm_NavigationAndSubmit(t *testing.T) {
	f := NewForm(testTheme, "Sign in", "Login",
		Field{Name: "email", Label: "Email"},
		Field{Name: "password", Label: "Password", Kind: FieldPassword},
	)

	typeText(f, "a@b.com")
	if submitted, _ := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); submitted {
		t.Fatal("enter on the first field should advance, not submit")
	}
	if f.Focused() != 1 {
		t.Fatalf("focus = %d, want 1", f.Focused())
	}
	typeText(f, "pw")

	if submitted, _ := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); !submitted {
		t.Error("enter on the last field should submit")
	}

	want := map[string]string{"email": "a@b.com", "password": "pw"}
	got := f.Values()
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Values()[%q] = %q, want %q", k, got[k], v)
		}
	}
	if strings.Contains(f.View(), "pw\n") {
		t.Error("password echoed in view")
	}
}

func TestForm_ZeroKindIsPlainText(t *testing.T) {
	f := NewForm(testTheme, "Edit", "Save",
		Field{Name: "name", Label: "Name"},
		Field{Name: "password", Label: "Password", Kind: FieldPassword},
	)
	if f.inputs[0].EchoMode != textinput.EchoNormal {
		t.Error("a field without a kind should echo its input")
	}
	if f.inputs[1].EchoMode != textinput.EchoPassword {
		t.Error("a password field should mask its input")
	}
}

func TestForm_BusyBlocksSubmit(t *testing.T) {
	f := NewForm(testTheme, "", "Save", Field{Name: "name", Label: "Name"})
	f.Busy = true
	if submitted, _ := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); submitted {
		t.Error("busy form submitted")
	}
	f.Busy = false
	if submitted, _ := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); !submitted {
		t.Error("ctrl+s should submit")
	}
}

func TestForm_TabWraps(t *testing.T) {
	f := NewForm(testTheme, "", "Save",
		Field{Name: "a", Label: "A"},
		Field{Name: "b", Label: "B", Kind: FieldMultiline},
	)
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	if f.Focused() != 2 {
		t.Fatalf("focus = %d, want the button", f.Focused())
	}
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	if f.Focused() != 0 {
		t.Errorf("focus = %d, want wrap to 0", f.Focused())
	}
	f.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if f.Focused() != 2 {
		t.Errorf("focus = %d, want wrap back to the button", f.Focused())
	}
}

func TestForm_SetValue(t *testing.T) {
	f := NewForm(testTheme, "", "Save",
		Field{Name: "title", Label: "Title", Value: "old"},
		Field{Name: "content", Label: "Content", Kind: FieldMultiline},
	)
	f.SetValue("title", "new")
	f.SetValue("content", "# Heading")
	if f.Value("title") != "new" || f.Value("content") != "# Heading" {
		t.Errorf("values = %v", f.Values())
	}
	if f.Value("missing") != "" {
		t.Error("unknown field should be empty")
	}
}

// =============================================================================
// TABLE AND MARKDOWN TESTS
// =============================================================================

func TestFitColumns(t *testing.T) {
	cols := []table.Column{{Title: "Title", Width: 3}, {Title: "Status", Width: 1}}
	got := FitColumns(cols, 44)

	total := 0
	for _, c := range got {
		total += c.Width
	}
	if total != 40 {
		t.Errorf("fitted widths sum to %d, want 40", total)
	}
	if got[0].Width <= got[1].Width {
		t.Errorf("proportions lost: %v", got)
	}
}

func TestMarkdown_Render(t *testing.T) {
	md := NewMarkdown("notty")
	out := md.Render("# Title\n\nSome **bold** text.", 60)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("rendered markdown lost content: %q", out)
	}
	if md.Render("   ", 60) != "" {
		t.Error("blank content should render empty")
	}
}
