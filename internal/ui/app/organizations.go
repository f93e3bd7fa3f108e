// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// =============================================================================
// ORGANIZATIONS LIST
// =============================================================================

type organizationsScreen struct {
	base
	list  tableList
	items []api.Organization
}

func newOrganizationsScreen(b base) *organizationsScreen {
	return &organizationsScreen{
		base: b,
		list: newTableList(b.env.Theme, "No organizations yet.",
			table.Column{Title: "Name", Width: 28},
			table.Column{Title: "About", Width: 44},
			table.Column{Title: "Website", Width: 24},
		),
	}
}

func (s *organizationsScreen) Init() tea.Cmd {
	limit := s.env.pageSize() * 5
	return load(&s.base, "organizations", func(ctx context.Context) ([]api.Organization, error) {
		return s.env.Client.Organizations.List(ctx, 0, limit)
	})
}

func (s *organizationsScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-3)
}

func (s *organizationsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.list.SetError(msg.err)
			return s, nil
		}
		s.items = msg.value.([]api.Organization)
		rows := make([]table.Row, len(s.items))
		for i, o := range s.items {
			rows[i] = table.Row{components.Cell(o.Name), components.Cell(o.Description), o.Website}
		}
		s.list.SetRows(rows)
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			if i := s.list.Cursor(); i >= 0 {
				return s, Navigate(organizationPath(s.items[i].Slug))
			}
			return s, nil
		}
	}
	return s, s.list.Update(msg)
}

func (s *organizationsScreen) View() string {
	return s.theme().Title.Render("Organizations") + "\n\n" + s.list.View(s.width)
}

func (s *organizationsScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "open"}}
}

func organizationPath(slug string) string {
	r, _ := access.Lookup(access.RouteOrganization)
	return r.Path(access.Params{"slug": slug})
}

// =============================================================================
// ORGANIZATION DETAIL
// =============================================================================

type organizationScreen struct {
	base
	slug      string
	org       *api.Organization
	err       error
	employees []api.Employee
	// member is true when the signed-in user already works here
	member bool
	form   *components.Form
}

func newOrganizationScreen(b base, slug string) *organizationScreen {
	return &organizationScreen{base: b, slug: slug}
}

func (s *organizationScreen) Init() tea.Cmd {
	slug := s.slug
	return load(&s.base, "organization", func(ctx context.Context) (*api.Organization, error) {
		return s.env.Client.Organizations.GetBySlug(ctx, slug)
	})
}

func (s *organizationScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	if s.form != nil {
		s.form.SetWidth(width)
	}
}

func (s *organizationScreen) Editing() bool { return s.form != nil }

func (s *organizationScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
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
		if msg.String() == "j" && s.org != nil {
			switch {
			case !s.env.Session().Authenticated():
				return s, Flash("Log in to ask to join", true)
			case s.member:
				return s, Flash("You are already a member", false)
			}
			s.form = components.NewForm(s.theme(), "Join "+s.org.Name, "Send request",
				components.Field{Name: "position", Label: "Position *", CharLimit: 100},
				components.Field{Name: "message", Label: "Message", Kind: components.FieldMultiline},
			)
			s.form.SetWidth(s.width)
			return s, nil
		}
	}
	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *organizationScreen) handleLoaded(msg loadedMsg) tea.Cmd {
	switch msg.key {
	case "organization":
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		s.org = msg.value.(*api.Organization)
		orgID := s.org.ID
		cmds := []tea.Cmd{load(&s.base, "employees", func(ctx context.Context) ([]api.Employee, error) {
			return s.env.Client.Employees.ByOrganization(ctx, orgID)
		})}
		if s.env.Session().Authenticated() {
			cmds = append(cmds, load(&s.base, "mine", func(ctx context.Context) ([]api.Employee, error) {
				return s.env.Client.Employees.MyOrganizations(ctx)
			}))
		}
		return tea.Batch(cmds...)

	case "employees":
		if msg.err == nil {
			s.employees = msg.value.([]api.Employee)
		}
	case "mine":
		if msg.err == nil {
			for _, e := range msg.value.([]api.Employee) {
				if e.OrganizationID == s.org.ID {
					s.member = true
				}
			}
		}
	case "join":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		s.form = nil
		return Flash("Join request sent", false)
	}
	return nil
}

func (s *organizationScreen) submit() tea.Cmd {
	in := api.JoinRequestCreate{
		OrganizationID: s.org.ID,
		Position:       strings.TrimSpace(s.form.Value("position")),
		Message:        strings.TrimSpace(s.form.Value("message")),
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "join", func(ctx context.Context) (*api.JoinRequest, error) {
		return s.env.Client.JoinRequests.Create(ctx, in)
	})
}

func (s *organizationScreen) View() string {
	t := s.theme()
	switch {
	case s.err != nil:
		return components.ErrorBox(t, s.err, s.width)
	case s.org == nil:
		return t.LoadingText.Render("Loading...")
	case s.form != nil:
		return s.form.View()
	}

	o := s.org
	var b strings.Builder
	b.WriteString(t.Title.Render(o.Name))
	b.WriteString("\n")
	var contact []string
	if o.Website != "" {
		contact = append(contact, t.LinkStyle.Render(o.Website))
	}
	if o.Email != "" {
		contact = append(contact, o.Email)
	}
	if len(contact) > 0 {
		b.WriteString(t.Meta.Render(strings.Join(contact, " | ")))
		b.WriteString("\n")
	}
	if o.Description != "" {
		b.WriteString("\n")
		b.WriteString(t.Body.Width(s.markdownWidth()).Render(o.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(t.Subtitle.Render("Staff"))
	b.WriteString("\n")
	if len(s.employees) == 0 {
		b.WriteString(t.Meta.Render("No staff listed."))
		b.WriteString("\n")
	}
	for _, e := range s.employees {
		name := "user #" + itoa(e.UserID)
		if e.User != nil {
			name = e.User.DisplayName()
		}
		line := name + t.Meta.Render("  "+e.Position)
		if e.CanPost {
			line += " " + t.Badge.Render("can post")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if s.member {
		b.WriteString("\n")
		b.WriteString(t.SuccessStyle.Render("You are a member of this organization."))
	}
	return b.String()
}

func (s *organizationScreen) Shortcuts() []components.Shortcut {
	if s.form != nil {
		return []components.Shortcut{{Key: "esc", Desc: "cancel"}}
	}
	if s.env.Session().Authenticated() && !s.member {
		return []components.Shortcut{{Key: "j", Desc: "ask to join"}}
	}
	return nil
}
