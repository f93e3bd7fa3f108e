// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is a key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: session state, a transient message and
// key hints.
type StatusBar struct {
	Width int

	Loading       bool
	Authenticated bool
	Email         string
	Role          access.Role
	// TokenRemaining is the time left on the bearer token, zero if unknown
	TokenRemaining time.Duration

	Message string
	IsError bool

	Shortcuts []Shortcut

	theme *styles.Theme
}

// NewStatusBar creates a status bar with the global shortcuts.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width: 80,
		Shortcuts: []Shortcut{
			{"esc", "back"},
			{"?", "help"},
			{"q", "quit"},
		},
		theme: theme,
	}
}

func (s *StatusBar) SetWidth(width int) { s.Width = width }

// SetMessage shows a transient message. An empty message clears it.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.Message = msg
	s.IsError = isError
}

// SessionText describes the session in a few words.
func (s *StatusBar) SessionText() string {
	switch {
	case s.Loading:
		return styles.StatusIndicators.Pending + " restoring session"
	case s.Authenticated:
		text := styles.StatusIndicators.Success + " " + s.Email + " (" + string(s.Role) + ")"
		if s.TokenRemaining > 0 {
			text += " token " + FormatRemaining(s.TokenRemaining)
		}
		return text
	default:
		return "guest"
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme

	var left string
	switch {
	case s.Authenticated:
		left = t.StatusSession.Render(s.SessionText())
	default:
		left = t.StatusGuest.Render(s.SessionText())
	}

	var hints []string
	if s.Width >= 60 {
		for _, sc := range s.Shortcuts {
			hints = append(hints, t.ShortcutKey.Render(sc.Key)+" "+t.ShortcutDesc.Render(sc.Desc))
		}
	}
	right := strings.Join(hints, "  ")

	inner := s.Width - 2
	if inner < 10 {
		inner = 10
	}

	if s.Message != "" {
		// Room for the message after the two-space gap and the indicator
		avail := inner - lipgloss.Width(left) - lipgloss.Width(right) - 7
		if avail < 10 && right != "" {
			right = ""
			avail = inner - lipgloss.Width(left) - 6
		}
		msg := util.TruncateWidth(util.SingleLine(s.Message), avail)
		if msg != "" {
			if s.IsError {
				left += "  " + t.ErrorStyle.Render(styles.StatusIndicators.Error+" "+msg)
			} else {
				left += "  " + t.InfoStyle.Render(styles.StatusIndicators.Info+" "+msg)
			}
		}
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = inner - lipgloss.Width(left)
		if gap < 0 {
			gap = 0
		}
	}
	return t.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// FormatRemaining renders a duration as "45m", "2h10m" or "3d".
func FormatRemaining(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
