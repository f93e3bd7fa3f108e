// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// ADMIN CATEGORIES
// =============================================================================

type categoriesScreen struct {
	base
	list    tableList
	items   []api.Category
	form    *components.Form
	editing *api.Category
	confirm *confirmation
}

func newCategoriesScreen(b base) *categoriesScreen {
	return &categoriesScreen{
		base: b,
		list: newTableList(b.env.Theme, "No categories. Press n to add one.",
			table.Column{Title: "ID", Width: 5},
			table.Column{Title: "Name", Width: 24},
			table.Column{Title: "Slug", Width: 20},
			table.Column{Title: "Description", Width: 36},
		),
	}
}

func (s *categoriesScreen) Init() tea.Cmd {
	return load(&s.base, "list", func(ctx context.Context) ([]api.Category, error) {
		return s.env.Client.Categories.List(ctx, 0, 100)
	})
}

func (s *categoriesScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-4)
	if s.form != nil {
		s.form.SetWidth(min(width, 80))
	}
}

func (s *categoriesScreen) Editing() bool { return s.form != nil }

func (s *categoriesScreen) openForm(c *api.Category) {
	s.editing = c
	title, submit := "New category", "Create"
	var name, slug, desc string
	if c != nil {
		title, submit = "Edit category #"+itoa(c.ID), "Save"
		name, slug, desc = c.Name, c.Slug, c.Description
	}
	s.form = components.NewForm(s.theme(), title, submit,
		components.Field{Name: "name", Label: "Name *", Value: name, CharLimit: 100},
		components.Field{Name: "slug", Label: "Slug (generated from the name if empty)", Value: slug, CharLimit: 100},
		components.Field{Name: "description", Label: "Description", Value: desc},
	)
	s.form.SetWidth(min(s.width, 80))
}

func (s *categoriesScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s, s.handleLoaded(msg)

	case tea.KeyMsg:
		if s.form != nil {
			if msg.String() == "esc" {
				s.form = nil
				return s, nil
			}
			submitted, cmd := s.form.Update(msg)
			if submitted {
				return s, s.submit()
			}
			return s, cmd
		}
		if s.confirm != nil {
			c := s.confirm
			s.confirm = nil
			return s, c.resolve(msg)
		}
		i := s.list.Cursor()
		switch msg.String() {
		case "n":
			s.openForm(nil)
			return s, nil
		case "e", "enter":
			if i >= 0 {
				c := s.items[i]
				s.openForm(&c)
			}
			return s, nil
		case "d":
			if i >= 0 {
				c := s.items[i]
				s.confirm = &confirmation{
					question: fmt.Sprintf("Delete category %q?", c.Name),
					action: func() tea.Cmd {
						return load(&s.base, "delete", func(ctx context.Context) (struct{}, error) {
							return struct{}{}, s.env.Client.Categories.Delete(ctx, c.ID)
						})
					},
				}
			}
			return s, nil
		}
	}
	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	return s, s.list.Update(msg)
}

func (s *categoriesScreen) handleLoaded(msg loadedMsg) tea.Cmd {
	switch msg.key {
	case "list":
		if msg.err != nil {
			s.list.SetError(msg.err)
			return nil
		}
		s.items = msg.value.([]api.Category)
		rows := make([]table.Row, len(s.items))
		for i, c := range s.items {
			rows[i] = table.Row{itoa(c.ID), components.Cell(c.Name), c.Slug, components.Cell(c.Description)}
		}
		s.list.SetRows(rows)
	case "save":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		s.form = nil
		return tea.Batch(Flash("Category saved", false), s.Init())
	case "delete":
		if msg.err != nil {
			return Flash(api.Message(msg.err), true)
		}
		return tea.Batch(Flash("Category deleted", false), s.Init())
	}
	return nil
}

func (s *categoriesScreen) submit() tea.Cmd {
	name := strings.TrimSpace(s.form.Value("name"))
	slug := strings.TrimSpace(s.form.Value("slug"))
	desc := strings.TrimSpace(s.form.Value("description"))
	if slug == "" {
		slug = util.Slugify(name)
	}

	if s.editing == nil {
		in := api.CategoryCreate{Name: name, Slug: slug, Description: desc}
		if err := api.Validate(in); err != nil {
			s.form.Err = err
			return nil
		}
		s.form.Busy = true
		return load(&s.base, "save", func(ctx context.Context) (*api.Category, error) {
			return s.env.Client.Categories.Create(ctx, in)
		})
	}

	id := s.editing.ID
	in := api.CategoryUpdate{Name: &name, Slug: &slug, Description: &desc}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	s.form.Busy = true
	return load(&s.base, "save", func(ctx context.Context) (*api.Category, error) {
		return s.env.Client.Categories.Update(ctx, id, in)
	})
}

func (s *categoriesScreen) View() string {
	t := s.theme()
	if s.form != nil {
		return s.form.View()
	}
	out := t.Title.Render("Categories") + "\n\n" + s.list.View(s.width)
	if s.confirm != nil {
		out += "\n" + s.confirm.View(t)
	}
	return out
}

func (s *categoriesScreen) Shortcuts() []components.Shortcut {
	if s.form != nil {
		return []components.Shortcut{{Key: "ctrl+s", Desc: "save"}, {Key: "esc", Desc: "cancel"}}
	}
	return []components.Shortcut{{Key: "n", Desc: "new"}, {Key: "e", Desc: "edit"}, {Key: "d", Desc: "delete"}}
}
