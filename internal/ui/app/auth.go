// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/session"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// =============================================================================
// LOGIN
// =============================================================================

type loginScreen struct {
	base
	form *components.Form
}

func newLoginScreen(b base) *loginScreen {
	return &loginScreen{
		base: b,
		form: components.NewForm(b.env.Theme, "Sign in", "Log in",
			components.Field{Name: "email", Label: "Email", Placeholder: "you@example.com"},
			components.Field{Name: "password", Label: "Password", Kind: components.FieldPassword},
		),
	}
}

func (s *loginScreen) Init() tea.Cmd { return nil }

func (s *loginScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.form.SetWidth(min(width, 70))
}

func (s *loginScreen) Editing() bool { return true }

func (s *loginScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case session.LoginResultMsg:
		// Success navigates away in the model; only failures land here
		s.form.Busy = false
		if errors.Is(msg.Err, session.ErrSuperseded) {
			s.form.Err = errors.New("the session changed while signing in, try again")
		} else {
			s.form.Err = msg.Err
		}
		s.form.SetValue("password", "")
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, Back()
		}
	}

	submitted, cmd := s.form.Update(msg)
	if !submitted {
		return s, cmd
	}
	in := api.LoginRequest{
		Email:    strings.TrimSpace(s.form.Value("email")),
		Password: s.form.Value("password"),
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return s, nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return s, session.LoginCmd(s.env.Ctx, s.env.Holder, in.Email, in.Password)
}

func (s *loginScreen) View() string {
	hint := s.theme().Meta.Render("No account? Press esc, then r to register.")
	return s.form.View() + "\n" + hint
}

func (s *loginScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "next/submit"}, {Key: "esc", Desc: "back"}}
}

// =============================================================================
// REGISTER
// =============================================================================

type registerScreen struct {
	base
	form *components.Form
}

func newRegisterScreen(b base) *registerScreen {
	return &registerScreen{
		base: b,
		form: components.NewForm(b.env.Theme, "Create an account", "Register",
			components.Field{Name: "full_name", Label: "Full name"},
			components.Field{Name: "email", Label: "Email *", Placeholder: "you@example.com"},
			components.Field{Name: "password", Label: "Password *", Kind: components.FieldPassword},
			components.Field{Name: "confirm", Label: "Repeat password *", Kind: components.FieldPassword},
		),
	}
}

func (s *registerScreen) Init() tea.Cmd { return nil }

func (s *registerScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.form.SetWidth(min(width, 70))
}

func (s *registerScreen) Editing() bool { return true }

func (s *registerScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.form.Busy = false
		if msg.err != nil {
			s.form.Err = msg.err
			return s, nil
		}
		login, _ := access.Lookup(access.RouteLogin)
		return s, tea.Batch(
			Flash("Account created. Log in to continue.", false),
			func() tea.Msg { return NavigateMsg{Path: login.Path(nil), Replace: true} },
		)

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, Back()
		}
	}

	submitted, cmd := s.form.Update(msg)
	if !submitted {
		return s, cmd
	}
	in := api.RegisterRequest{
		Email:    strings.TrimSpace(s.form.Value("email")),
		Password: s.form.Value("password"),
		FullName: strings.TrimSpace(s.form.Value("full_name")),
	}
	if in.Password != s.form.Value("confirm") {
		s.form.Err = errors.New("passwords do not match")
		return s, nil
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return s, nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return s, load(&s.base, "register", func(ctx context.Context) (*api.User, error) {
		return s.env.Client.Auth.Register(ctx, in)
	})
}

func (s *registerScreen) View() string {
	return s.form.View()
}

func (s *registerScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "next/submit"}, {Key: "esc", Desc: "back"}}
}
