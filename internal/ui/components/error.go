// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// ErrorTitle picks a heading for an API error.
func ErrorTitle(err error) string {
	switch {
	case errors.Is(err, api.ErrInvalid):
		return "Check the form"
	case errors.Is(err, api.ErrUnauthorized):
		return "Not signed in"
	case errors.Is(err, api.ErrForbidden):
		return "Not allowed"
	case errors.Is(err, api.ErrNotFound):
		return "Not found"
	case errors.Is(err, api.ErrRateLimited):
		return "Slow down"
	case errors.Is(err, api.ErrServer):
		return "Server error"
	default:
		return "Error"
	}
}

// ErrorBox renders err in a bordered box. The body is the server's detail
// message when there is one.
func ErrorBox(theme *styles.Theme, err error, width int) string {
	if err == nil {
		return ""
	}
	if width < 20 {
		width = 20
	}
	body := theme.ErrorTitle.Render(styles.StatusIndicators.Error+" "+ErrorTitle(err)) + "\n" +
		theme.ErrorMessage.Render(api.Message(err))
	return theme.ErrorBox.Width(width - 2).Render(body)
}

// InlineError renders a one-line error.
func InlineError(theme *styles.Theme, err error) string {
	if err == nil {
		return ""
	}
	return theme.ErrorStyle.Render(styles.StatusIndicators.Error + " " + api.Message(err))
}

// Centered places content in the middle of a width x height area.
func Centered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
