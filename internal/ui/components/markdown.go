// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders announcement content and event descriptions. Renderers
// are built lazily per wrap width and reused.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer. theme is the [ui] theme setting:
// "dark", "light", or "auto" to follow the terminal.
func NewMarkdown(theme string) *Markdown {
	return &Markdown{
		style:     strings.ToLower(theme),
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Render formats content wrapped at width. It returns the content unchanged
// if rendering fails.
func (m *Markdown) Render(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	r := m.renderer(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r
	}

	styleOpt := glamour.WithAutoStyle()
	switch m.style {
	case "dark", "light", "notty":
		styleOpt = glamour.WithStandardStyle(m.style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		// Fallback to plain text
		r = nil
	}
	m.renderers[width] = r
	return r
}
