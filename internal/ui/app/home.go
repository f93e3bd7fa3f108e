// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// =============================================================================
// HOME - published announcements
// =============================================================================

type homeScreen struct {
	base
	list  tableList
	items []api.AnnouncementList
	page  int
}

func newHomeScreen(b base) *homeScreen {
	return &homeScreen{
		base: b,
		list: newTableList(b.env.Theme, "No announcements yet.",
			table.Column{Title: "Published", Width: 16},
			table.Column{Title: "Title", Width: 40},
			table.Column{Title: "Categories", Width: 20},
			table.Column{Title: "Author", Width: 18},
		),
	}
}

func (s *homeScreen) Init() tea.Cmd { return s.fetch() }

func (s *homeScreen) fetch() tea.Cmd {
	skip, limit := s.page*s.env.pageSize(), s.env.pageSize()
	return load(&s.base, "announcements", func(ctx context.Context) ([]api.AnnouncementList, error) {
		return s.env.Client.Announcements.ListPublished(ctx, skip, limit)
	})
}

func (s *homeScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-3)
}

func (s *homeScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.list.SetError(msg.err)
			return s, nil
		}
		s.items = msg.value.([]api.AnnouncementList)
		rows := make([]table.Row, len(s.items))
		for i, a := range s.items {
			published := formatDatePtr(a.PublishedAt)
			if published == "" {
				published = formatDate(a.CreatedAt)
			}
			rows[i] = table.Row{published, components.Cell(a.Title), components.Cell(categoryNames(a.Categories)), a.Author.DisplayName()}
		}
		s.list.SetRows(rows)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if i := s.list.Cursor(); i >= 0 {
				return s, Navigate(announcementPath(s.items[i].Slug))
			}
			return s, nil
		case "]":
			if len(s.items) == s.env.pageSize() {
				s.page++
				s.list.loading = true
				return s, s.fetch()
			}
			return s, nil
		case "[":
			if s.page > 0 {
				s.page--
				s.list.loading = true
				return s, s.fetch()
			}
			return s, nil
		}
	}
	return s, s.list.Update(msg)
}

func (s *homeScreen) View() string {
	t := s.theme()
	title := t.Title.Render("Announcements")
	if s.page > 0 {
		title += t.Meta.Render(fmt.Sprintf("  page %d", s.page+1))
	}
	return title + "\n\n" + s.list.View(s.width)
}

func (s *homeScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "read"}, {Key: "[ ]", Desc: "page"}}
}

func announcementPath(slug string) string {
	r, _ := access.Lookup(access.RouteAnnouncement)
	return r.Path(access.Params{"slug": slug})
}

// =============================================================================
// ANNOUNCEMENT DETAIL
// =============================================================================

type announcementScreen struct {
	base
	slug     string
	item     *api.Announcement
	err      error
	viewport viewport.Model
}

func newAnnouncementScreen(b base, slug string) *announcementScreen {
	return &announcementScreen{base: b, slug: slug, viewport: viewport.New(80, 20)}
}

func (s *announcementScreen) Init() tea.Cmd {
	slug := s.slug
	return load(&s.base, "announcement", func(ctx context.Context) (*api.Announcement, error) {
		return s.env.Client.Announcements.GetBySlug(ctx, slug)
	})
}

func (s *announcementScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.viewport.Width = width
	s.viewport.Height = height
	s.render()
}

func (s *announcementScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if msg, ok := msg.(loadedMsg); ok {
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		s.item = msg.value.(*api.Announcement)
		s.render()
		return s, nil
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

func (s *announcementScreen) render() {
	if s.item == nil {
		return
	}
	t := s.theme()
	a := s.item

	var b strings.Builder
	b.WriteString(t.Title.Render(a.Title))
	b.WriteString("\n")

	meta := []string{a.Author.DisplayName()}
	if d := formatDatePtr(a.PublishedAt); d != "" {
		meta = append(meta, d)
	}
	if a.Organization != nil {
		meta = append(meta, a.Organization.Name)
	}
	b.WriteString(t.Meta.Render(strings.Join(meta, " | ")))
	b.WriteString("\n")
	for _, c := range a.Categories {
		b.WriteString(t.Badge.Render(c.Name))
		b.WriteString(" ")
	}
	b.WriteString("\n\n")
	b.WriteString(s.env.Markdown.Render(a.Content, s.markdownWidth()))
	s.viewport.SetContent(b.String())
}

func (s *announcementScreen) View() string {
	switch {
	case s.err != nil:
		return components.ErrorBox(s.theme(), s.err, s.width)
	case s.item == nil:
		return s.theme().LoadingText.Render("Loading...")
	default:
		return s.viewport.View()
	}
}

func (s *announcementScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "up/down", Desc: "scroll"}}
}
