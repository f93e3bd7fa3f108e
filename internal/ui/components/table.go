// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/table"

	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// TABLE
// =============================================================================

// NewTable builds a focused, themed table.
func NewTable(theme *styles.Theme, columns []table.Column, height int) table.Model {
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = theme.TableHeader.Padding(0, 1)
	s.Cell = theme.TableCell.Padding(0, 1)
	s.Selected = theme.TableSelected
	t.SetStyles(s)
	return t
}

// FitColumns scales column widths so the table fills width. The last column
// absorbs the remainder.
func FitColumns(columns []table.Column, width int) []table.Column {
	total := 0
	for _, c := range columns {
		total += c.Width
	}
	// Two columns of cell padding each
	avail := width - 2*len(columns)
	if total == 0 || avail <= 0 {
		return columns
	}
	out := make([]table.Column, len(columns))
	used := 0
	for i, c := range columns {
		w := c.Width * avail / total
		if w < 3 {
			w = 3
		}
		out[i] = table.Column{Title: c.Title, Width: w}
		used += w
	}
	if rest := avail - used; rest > 0 {
		out[len(out)-1].Width += rest
	}
	return out
}

// Cell flattens s for a table cell.
func Cell(s string) string {
	return util.SingleLine(s)
}
