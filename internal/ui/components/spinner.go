// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner is the loading indicator shown while data loads and while the
// access guard defers a protected view during rehydration.
type Spinner struct {
	spinner spinner.Model
	message string
	theme   *styles.Theme
}

// NewSpinner creates an ASCII spinner with message.
func NewSpinner(theme *styles.Theme, message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner
	return Spinner{spinner: s, message: message, theme: theme}
}

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) { s.message = msg }

// Tick starts the animation.
func (s Spinner) Tick() tea.Msg { return s.spinner.Tick() }

// Update advances the animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner.
func (s Spinner) View() string {
	return s.spinner.View() + " " + s.theme.LoadingText.Render(s.message+"...")
}
