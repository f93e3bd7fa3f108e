// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable building blocks of the ytnews
// TUI: header and navigation, status bar, loading spinner, error boxes,
// Markdown rendering, input forms and tables.
//
// Components render from plain values. They never read the session
// themselves; the app passes in what they need on every frame.
package components
