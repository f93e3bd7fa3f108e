// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// NavigateMsg opens path. The current path is pushed on the back-stack
// unless Replace is set.
type NavigateMsg struct {
	Path    string
	Replace bool
}

// BackMsg returns to the previous path.
type BackMsg struct{}

// FlashMsg shows a transient message in the status bar.
type FlashMsg struct {
	Text    string
	IsError bool
}

// =============================================================================
// DATA MESSAGES
// =============================================================================

// loadedMsg carries the result of a screen's request. seq ties it to the
// navigation that issued it; results for a screen that is gone are dropped.
type loadedMsg struct {
	seq   uint64
	key   string
	value any
	err   error
}

// =============================================================================
// COMMAND HELPERS
// =============================================================================

// Navigate returns a command that opens path.
func Navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Back returns a command that goes back one step.
func Back() tea.Cmd {
	return func() tea.Msg { return BackMsg{} }
}

// Flash returns a command that shows text in the status bar.
func Flash(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return FlashMsg{Text: text, IsError: isError} }
}
