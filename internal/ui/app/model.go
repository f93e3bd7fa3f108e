// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/audit"
	"github.com/jeranaias/ytnews-tui/internal/session"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// maxHistory bounds the back-stack.
const maxHistory = 50

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	env  *Env
	keys KeyMap
	help help.Model

	header  *components.Header
	status  *components.StatusBar
	spinner components.Spinner

	width  int
	height int

	path    string
	history []string
	screen  Screen
	seq     uint64
	fresh   bool

	snap session.Snapshot
	// restoring holds the guard in Defer until the startup rehydration
	// has settled, so a protected start path is not bounced to login.
	restoring bool
	showHelp  bool
	now       func() time.Time
}

// New creates the model. start is the first path to open ("/" if empty).
func New(env *Env, start string) Model {
	if start == "" {
		start = access.HomePath
	}
	h := help.New()
	h.ShowAll = true

	m := Model{
		env:       env,
		keys:      DefaultKeyMap(),
		help:      h,
		header:    components.NewHeader(env.Theme),
		status:    components.NewStatusBar(env.Theme),
		spinner:   components.NewSpinner(env.Theme, "Restoring session"),
		width:     80,
		height:    24,
		path:      start,
		restoring: true,
		now:       time.Now,
	}
	m.status.Loading = true
	if r, _, ok := access.Match(start); ok {
		m.header.SetActive(r.Name)
	}
	return m
}

// Init starts rehydration and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		session.LoadUserCmd(m.env.Ctx, m.env.Holder),
	)
}

// Path returns the current path.
func (m Model) Path() string { return m.path }

// Snapshot returns the session snapshot the model renders against.
func (m Model) Snapshot() session.Snapshot { return m.snap }

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case session.ChangedMsg:
		m.acceptSession(msg.Snapshot)
		return m.enforce()

	case session.LoginResultMsg:
		m.acceptSession(msg.Snapshot)
		if msg.Err == nil && msg.Snapshot.Authenticated() {
			m.status.SetMessage("Signed in as "+msg.Snapshot.User.DisplayName(), false)
			return m.open(access.HomePath, false)
		}
		var cmd, guard tea.Cmd
		m, cmd = m.forward(msg)
		m, guard = m.enforce()
		return m, tea.Batch(cmd, guard)

	case session.LogoutResultMsg:
		// Logout is synchronous, so the holder already reflects it
		m.acceptSession(m.env.Holder.Snapshot())
		if msg.Err != nil {
			m.status.SetMessage("Signed out, but the token file could not be removed: "+msg.Err.Error(), true)
		} else {
			m.status.SetMessage("Signed out", false)
		}
		return m.open(access.HomePath, true)

	case NavigateMsg:
		return m.open(msg.Path, !msg.Replace)

	case BackMsg:
		return m.back()

	case FlashMsg:
		m.status.SetMessage(msg.Text, msg.IsError)
		return m, nil

	case loadedMsg:
		if msg.seq != m.seq {
			// The screen that asked is gone
			return m, nil
		}
		return m.forward(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		return m.forward(msg)
	}
}

// =============================================================================
// SESSION
// =============================================================================

// acceptSession installs s unless it is older than what the model has.
func (m *Model) acceptSession(s session.Snapshot) {
	if s.Generation < m.snap.Generation {
		return
	}
	prev := m.snap
	m.snap = s
	m.env.session = s
	if !s.Loading() {
		m.restoring = false
	}

	var name string
	if s.User != nil {
		name = s.User.DisplayName()
	}
	m.header.SetSession(s.Authenticated(), name, s.Role())

	m.status.Loading = m.restoring || s.Loading()
	m.status.Authenticated = s.Authenticated()
	m.status.Role = s.Role()
	m.status.Email = ""
	if s.User != nil {
		m.status.Email = s.User.Email
	}
	m.status.TokenRemaining = 0
	if claims, err := session.ParseClaims(s.Token); err == nil && claims.HasExpiry() {
		m.status.TokenRemaining = claims.Remaining(m.now())
	}

	// Screens built for the previous identity show its data
	if prev.Token != s.Token && m.screen != nil {
		m.screen = nil
		m.seq++
	}
}

// subject is what the guard sees.
func (m Model) subject() access.Subject {
	s := m.snap.Subject()
	if m.restoring {
		s.Loading = true
	}
	return s
}

// =============================================================================
// NAVIGATION AND GUARD
// =============================================================================

// enforce runs the guard for the current path. Redirects replace the path;
// a render decision builds the screen if it is not built yet.
func (m Model) enforce() (Model, tea.Cmd) {
	decision, route, params := access.Evaluate(m.path, m.subject())
	switch decision {
	case access.RedirectLogin, access.RedirectHome:
		if route.Name != "" {
			m.recordDenied(route, decision)
		}
		return m.open(decision.Target(), false)

	case access.Render:
		if m.screen == nil {
			b := base{env: m.env, seq: m.seq, fresh: m.fresh}
			m.fresh = false
			m.screen = newScreen(b, route, params)
			w, h := m.contentSize()
			m.screen.SetSize(w, h)
			return m, m.screen.Init()
		}
	}
	return m, nil
}

func (m Model) recordDenied(route access.Route, decision access.Decision) {
	var email string
	if m.snap.User != nil {
		email = m.snap.User.Email
	}
	m.env.Audit.Record(audit.EventAccessDenied, false, nil, email, string(m.snap.Role()), map[string]string{
		"path":     m.path,
		"route":    string(route.Name),
		"required": route.Requirement.String(),
		"decision": decision.String(),
	})
}

// open moves to path. push keeps the current path on the back-stack.
func (m Model) open(path string, push bool) (Model, tea.Cmd) {
	if path == "" {
		path = access.HomePath
	}
	if push && path != m.path {
		m.history = append(m.history, m.path)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.path = path
	m.seq++
	m.screen = nil
	m.showHelp = false
	if r, _, ok := access.Match(path); ok {
		m.header.SetActive(r.Name)
	}
	return m.enforce()
}

func (m Model) back() (Model, tea.Cmd) {
	if len(m.history) == 0 {
		if m.path == access.HomePath {
			return m, nil
		}
		return m.open(access.HomePath, false)
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.open(prev, false)
}

// reload rebuilds the current screen, bypassing the response cache.
func (m Model) reload() (Model, tea.Cmd) {
	m.seq++
	m.screen = nil
	m.fresh = true
	return m.enforce()
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Text fields get every key; the screen handles esc itself
	if m.screen != nil && m.screen.Editing() {
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Refresh):
		return m.reload()
	case key.Matches(msg, m.keys.Logout):
		if m.snap.Authenticated() {
			m.status.SetMessage("Signing out...", false)
			return m, session.LogoutCmd(m.env.Holder)
		}
		return m, nil
	}

	if item, ok := m.header.Lookup(msg.String()); ok {
		if r, ok := access.Lookup(item.Route); ok {
			return m.open(r.Path(nil), true)
		}
	}
	return m.forward(msg)
}

// forward hands msg to the current screen.
func (m Model) forward(msg tea.Msg) (Model, tea.Cmd) {
	if m.screen == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.env.Theme.SetSize(msg.Width, msg.Height)
	m.header.SetWidth(msg.Width)
	m.status.SetWidth(msg.Width)
	m.help.Width = msg.Width
	if m.screen != nil {
		m.screen.SetSize(m.contentSize())
	}
}

// contentSize is the area between the header and the status bar.
func (m Model) contentSize() (int, int) {
	h := m.height - lipgloss.Height(m.header.View()) - lipgloss.Height(m.status.View())
	if h < 3 {
		h = 3
	}
	return m.width, h
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the header, the guarded body and the status bar.
func (m Model) View() string {
	status := *m.status
	status.Shortcuts = append(m.shortcuts(), m.status.Shortcuts...)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.body(),
		status.View(),
	)
}

func (m Model) body() string {
	width, height := m.contentSize()
	var content string

	decision, _, _ := access.Evaluate(m.path, m.subject())
	switch {
	case decision == access.Defer:
		content = components.Centered(width, height, m.spinner.View())
	case decision.IsRedirect():
		content = components.Centered(width, height, m.env.Theme.Meta.Render("Redirecting..."))
	case m.showHelp:
		content = m.env.Theme.Title.Render("Keys") + "\n\n" + m.help.View(m.keys) + "\n\n" +
			m.env.Theme.Meta.Render(navHelp(m.header.Items()))
	case m.screen == nil:
		content = components.Centered(width, height, m.spinner.View())
	default:
		content = m.screen.View()
	}

	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(content)
}

func (m Model) shortcuts() []components.Shortcut {
	if m.screen == nil || m.showHelp {
		return nil
	}
	return m.screen.Shortcuts()
}

func navHelp(items []components.NavItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Key + " " + strings.ToLower(it.Label)
	}
	return "Go to: " + strings.Join(parts, "  ")
}
