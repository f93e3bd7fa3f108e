// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// =============================================================================
// ADMIN USERS
// =============================================================================

var roleCycle = []access.Role{access.RoleUser, access.RoleModerator, access.RoleAdmin}

type usersScreen struct {
	base
	list    tableList
	items   []api.User
	form    *components.Form
	confirm *confirmation
}

func newUsersScreen(b base) *usersScreen {
	return &usersScreen{
		base: b,
		list: newTableList(b.env.Theme, "No users.",
			table.Column{Title: "ID", Width: 5},
			table.Column{Title: "Email", Width: 28},
			table.Column{Title: "Name", Width: 24},
			table.Column{Title: "Role", Width: 10},
			table.Column{Title: "Active", Width: 6},
			table.Column{Title: "Joined", Width: 16},
		),
	}
}

func (s *usersScreen) Init() tea.Cmd {
	return load(&s.base, "list", func(ctx context.Context) ([]api.User, error) {
		return s.env.Client.Users.List(ctx, 0, 100)
	})
}

func (s *usersScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-4)
	if s.form != nil {
		s.form.SetWidth(min(width, 80))
	}
}

func (s *usersScreen) Editing() bool { return s.form != nil }

// self reports whether u is the signed-in admin. Admins cannot demote,
// deactivate or delete themselves.
func (s *usersScreen) self(u api.User) bool {
	me := s.env.Session().User
	return me != nil && me.ID == u.ID
}

func (s *usersScreen) update(u api.User, in api.UserUpdate) tea.Cmd {
	return load(&s.base, "update", func(ctx context.Context) (*api.User, error) {
		return s.env.Client.Users.Update(ctx, u.ID, in)
	})
}

func (s *usersScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
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
		return s, s.handleKey(msg)
	}
	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	return s, s.list.Update(msg)
}

func (s *usersScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "n" {
		s.form = components.NewForm(s.theme(), "New user", "Create",
			components.Field{Name: "email", Label: "Email *"},
			components.Field{Name: "password", Label: "Password *", Kind: components.FieldPassword},
			components.Field{Name: "full_name", Label: "Full name"},
			components.Field{Name: "role", Label: "Role (user, moderator, admin)", Value: string(access.RoleUser)},
		)
		s.form.SetWidth(min(s.width, 80))
		return nil
	}

	i := s.list.Cursor()
	if i < 0 {
		return s.list.Update(msg)
	}
	u := s.items[i]
	switch msg.String() {
	case "t":
		if s.self(u) {
			return Flash("You cannot deactivate your own account", true)
		}
		active := !u.IsActive
		return s.update(u, api.UserUpdate{IsActive: &active})
	case "m":
		if s.self(u) {
			return Flash("You cannot change your own role", true)
		}
		next := nextRole(u.Role)
		return s.update(u, api.UserUpdate{Role: &next})
	case "d":
		if s.self(u) {
			return Flash("You cannot delete your own account", true)
		}
		s.confirm = &confirmation{
			question: fmt.Sprintf("Delete user %q?", u.Email),
			action: func() tea.Cmd {
				return load(&s.base, "delete", func(ctx context.Context) (struct{}, error) {
					return struct{}{}, s.env.Client.Users.Delete(ctx, u.ID)
				})
			},
		}
		return nil
	}
	return s.list.Update(msg)
}

func nextRole(r access.Role) access.Role {
	for i, c := range roleCycle {
		if c == r {
			return roleCycle[(i+1)%len(roleCycle)]
		}
	}
	return access.RoleUser
}

func (s *usersScreen) handleLoaded(msg loadedMsg) tea.Cmd {
	switch msg.key {
	case "list":
		if msg.err != nil {
			s.list.SetError(msg.err)
			return nil
		}
		s.items = msg.value.([]api.User)
		rows := make([]table.Row, len(s.items))
		for i, u := range s.items {
			active := "no"
			if u.IsActive {
				active = "yes"
			}
			rows[i] = table.Row{itoa(u.ID), components.Cell(u.Email), components.Cell(u.FullName), string(u.Role), active, formatDate(u.CreatedAt)}
		}
		s.list.SetRows(rows)
	case "create":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		s.form = nil
		return tea.Batch(Flash("User created", false), s.Init())
	case "update":
		if msg.err != nil {
			return Flash(api.Message(msg.err), true)
		}
		u := msg.value.(*api.User)
		state := "inactive"
		if u.IsActive {
			state = "active"
		}
		return tea.Batch(Flash(fmt.Sprintf("%s: %s, %s", u.Email, u.Role, state), false), s.Init())
	case "delete":
		if msg.err != nil {
			return Flash(api.Message(msg.err), true)
		}
		return tea.Batch(Flash("User deleted", false), s.Init())
	}
	return nil
}

func (s *usersScreen) submit() tea.Cmd {
	in := api.UserCreate{
		Email:    strings.TrimSpace(s.form.Value("email")),
		Password: s.form.Value("password"),
		FullName: strings.TrimSpace(s.form.Value("full_name")),
		Role:     access.Role(strings.ToLower(strings.TrimSpace(s.form.Value("role")))),
	}
	if in.Role == "" {
		in.Role = access.RoleUser
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "create", func(ctx context.Context) (*api.User, error) {
		return s.env.Client.Users.Create(ctx, in)
	})
}

func (s *usersScreen) View() string {
	t := s.theme()
	if s.form != nil {
		return s.form.View()
	}
	out := t.Title.Render("Users") + "\n\n" + s.list.View(s.width)
	if s.confirm != nil {
		out += "\n" + s.confirm.View(t)
	}
	return out
}

func (s *usersScreen) Shortcuts() []components.Shortcut {
	if s.form != nil {
		return []components.Shortcut{{Key: "ctrl+s", Desc: "save"}, {Key: "esc", Desc: "cancel"}}
	}
	return []components.Shortcut{
		{Key: "n", Desc: "new"}, {Key: "m", Desc: "role"}, {Key: "t", Desc: "active"}, {Key: "d", Desc: "delete"},
	}
}
