// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ChangedMsg carries a new snapshot into the program.
type ChangedMsg struct {
	Snapshot Snapshot
}

// LoginResultMsg is the outcome of LoginCmd.
type LoginResultMsg struct {
	Snapshot Snapshot
	Err      error
}

// LogoutResultMsg is the outcome of LogoutCmd.
type LogoutResultMsg struct {
	Err error
}

// LoadUserCmd rehydrates the session off the UI goroutine.
func LoadUserCmd(ctx context.Context, h *Holder) tea.Cmd {
	return func() tea.Msg {
		return ChangedMsg{Snapshot: h.LoadUser(ctx)}
	}
}

// LoginCmd runs Login off the UI goroutine.
func LoginCmd(ctx context.Context, h *Holder, email, password string) tea.Cmd {
	return func() tea.Msg {
		snap, err := h.Login(ctx, email, password)
		return LoginResultMsg{Snapshot: snap, Err: err}
	}
}

// LogoutCmd runs Logout off the UI goroutine.
func LogoutCmd(h *Holder) tea.Cmd {
	return func() tea.Msg {
		return LogoutResultMsg{Err: h.Logout()}
	}
}

// Forward delivers every snapshot change to send, typically
// (*tea.Program).Send. Changes made by the watcher reach the UI this way.
// Delivery is asynchronous so a mutation made from Update cannot deadlock;
// receivers drop messages whose Generation is older than what they hold.
func Forward(h *Holder, send func(tea.Msg)) (cancel func()) {
	return h.Subscribe(func(s Snapshot) {
		go send(ChangedMsg{Snapshot: s})
	})
}
