// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ytnews TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. NewTheme accepts the [ui] theme setting to force one or the other.

	theme := styles.NewTheme(cfg.UI.Theme)
	fmt.Println(theme.RoleBadge(user.Role), theme.StatusBadge(a.Status))
*/
package styles
