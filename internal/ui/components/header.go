// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - brand, navigation and the signed-in user
// =============================================================================

// NavItem is one entry in the header navigation.
type NavItem struct {
	Key   string
	Label string
	Route access.RouteName
}

// Header is the top bar. Which links appear depends on the session: guests
// see login and register, signed-in users see their profile, and the admin
// link is only offered to moderators and admins.
type Header struct {
	Title  string
	Width  int
	Active access.RouteName

	Authenticated bool
	UserName      string
	Role          access.Role

	theme *styles.Theme
}

// NewHeader creates a header for a guest.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:  "YTNews",
		Width:  80,
		Active: access.RouteHome,
		theme:  theme,
	}
}

func (h *Header) SetWidth(width int) { h.Width = width }

func (h *Header) SetActive(route access.RouteName) { h.Active = route }

// SetSession updates the identity shown on the right.
func (h *Header) SetSession(authenticated bool, userName string, role access.Role) {
	h.Authenticated = authenticated
	h.UserName = userName
	h.Role = role
}

// Items returns the navigation entries for the current session, in order.
func (h *Header) Items() []NavItem {
	items := []NavItem{
		{"1", "Home", access.RouteHome},
		{"2", "Events", access.RouteEvents},
		{"3", "Organizations", access.RouteOrganizations},
	}
	if !h.Authenticated {
		return append(items,
			NavItem{"l", "Login", access.RouteLogin},
			NavItem{"r", "Register", access.RouteRegister},
		)
	}
	items = append(items, NavItem{"p", "Profile", access.RouteProfile})
	if access.ShowAdminLink(h.Role) {
		items = append(items, NavItem{"a", "Admin", access.RouteAdmin})
	}
	return items
}

// Lookup finds the nav item bound to key.
func (h *Header) Lookup(key string) (NavItem, bool) {
	for _, it := range h.Items() {
		if it.Key == key {
			return it, true
		}
	}
	return NavItem{}, false
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	width := h.Width
	if width < 40 {
		width = 40
	}

	var nav []string
	for _, it := range h.Items() {
		label := it.Key + " " + it.Label
		switch {
		case it.Route == h.Active || (it.Route == access.RouteAdmin && isAdminRoute(h.Active)):
			nav = append(nav, t.NavActive.Render(label))
		case it.Route == access.RouteAdmin:
			nav = append(nav, t.NavAdmin.Render(label))
		default:
			nav = append(nav, t.NavItem.Render(label))
		}
	}
	left := t.HeaderBrand.Render(h.Title) + strings.Join(nav, "")

	var right string
	if h.Authenticated {
		right = t.HeaderUser.Render(h.UserName) + " " + t.RoleBadge(h.Role) + " " +
			t.ShortcutKey.Render("L") + t.ShortcutDesc.Render(" logout")
	}

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminal: drop the identity, keep navigation
		right = ""
		gap = 1
	}
	return t.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func isAdminRoute(r access.RouteName) bool {
	return strings.HasPrefix(string(r), string(access.RouteAdmin))
}
