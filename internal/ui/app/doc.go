// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the full-screen YTNews client.
//
// The root Model keeps a path (as in "/admin/announcements") and a
// back-stack. Every Update and every View runs the access guard against
// the current session snapshot:
//
//   - Defer: the session is still restoring, a spinner is shown and no
//     screen is built yet, so protected data is never fetched early.
//   - RedirectLogin / RedirectHome: the model replaces the path and records
//     an ACCESS_DENIED audit event.
//   - Render: the screen for the route is built on first use and shown.
//
// Session mutations (login, logout, rehydration) run as tea.Cmds from the
// session package. Snapshots reach the model as session.ChangedMsg and
// older generations are dropped.
package app
