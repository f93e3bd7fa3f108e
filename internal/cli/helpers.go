// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Text rendering helpers shared by the command files.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// formatDuration formats a time.Duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// formatDurationShort formats a latency.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatTime renders an API timestamp in local time, "-" when unset.
func formatTime(t *api.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optionalInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func categoryNames(cats []api.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// TEXT LAYOUT
// =============================================================================

// printField writes one "label  value" line.
func printField(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(w, "  %s%s\n", RenderLabel(label+":"), ValueStyle.Render(value))
}

// printTitle writes a title followed by a separator.
func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
}

// table is a plain column layout for list commands. Widths are measured in
// terminal cells so CJK titles line up.
type table struct {
	headers []string
	rows    [][]string
	max     []int
}

// newTable creates a table. max caps each column's width; 0 means no cap.
func newTable(headers []string, max ...int) *table {
	return &table{headers: headers, max: max}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	if len(t.rows) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  (none)"))
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = util.StringWidth(h)
	}
	for _, row := range t.rows {
		for i := range row {
			if i >= len(widths) {
				break
			}
			row[i] = util.SingleLine(row[i])
			if i < len(t.max) && t.max[i] > 0 {
				row[i] = util.TruncateWidth(row[i], t.max[i])
			}
			widths[i] = max(widths[i], util.StringWidth(row[i]))
		}
	}

	line := func(cells []string, style func(string) string) {
		var sb strings.Builder
		sb.WriteString("  ")
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(widths)-1 {
				sb.WriteString(style(cell))
			} else {
				sb.WriteString(style(util.PadWidth(cell, widths[i])))
				sb.WriteString("  ")
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	line(t.headers, func(s string) string { return HeaderCellStyle.Render(s) })
	for _, row := range t.rows {
		line(row, func(s string) string { return s })
	}
}
