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
	"github.com/jeranaias/ytnews-tui/internal/session"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// PROFILE
// =============================================================================

const (
	tabInfo = iota
	tabOrganizations
	tabRegistrations
	tabRequests
)

var profileTabs = []string{"Me", "My organizations", "My events", "Join requests"}

type profileScreen struct {
	base
	tab int

	orgs      tableList
	employees []api.Employee

	regs          tableList
	registrations []api.EventRegistration

	reqs        tableList
	requests    []api.JoinRequest
	reqsLoaded  bool
	reqsPending int

	form     *components.Form
	formKind string
	confirm  *confirmation
}

func newProfileScreen(b base) *profileScreen {
	return &profileScreen{
		base: b,
		orgs: newTableList(b.env.Theme, "You are not part of any organization. Press o to create one.",
			table.Column{Title: "Organization", Width: 30},
			table.Column{Title: "Position", Width: 24},
			table.Column{Title: "Can post", Width: 8},
		),
		regs: newTableList(b.env.Theme, "You have not signed up for any events.",
			table.Column{Title: "Event", Width: 10},
			table.Column{Title: "Status", Width: 12},
			table.Column{Title: "Registered", Width: 16},
			table.Column{Title: "Notes", Width: 30},
		),
		reqs: newTableList(b.env.Theme, "No join requests.",
			table.Column{Title: "Organization", Width: 24},
			table.Column{Title: "Person", Width: 24},
			table.Column{Title: "Position", Width: 20},
			table.Column{Title: "Status", Width: 10},
		),
	}
}

func (s *profileScreen) Init() tea.Cmd {
	return tea.Batch(s.loadEmployees(), s.loadRegistrations())
}

func (s *profileScreen) loadEmployees() tea.Cmd {
	return load(&s.base, "employees", func(ctx context.Context) ([]api.Employee, error) {
		return s.env.Client.Employees.MyOrganizations(ctx)
	})
}

func (s *profileScreen) loadRegistrations() tea.Cmd {
	return load(&s.base, "registrations", func(ctx context.Context) ([]api.EventRegistration, error) {
		return s.env.Client.Events.MyRegistrations(ctx)
	})
}

// loadRequests fetches the join requests of every organization the user
// belongs to.
func (s *profileScreen) loadRequests() tea.Cmd {
	s.reqsLoaded = true
	s.requests = nil
	s.reqsPending = len(s.employees)
	if s.reqsPending == 0 {
		s.reqs.SetRows(nil)
		return nil
	}
	s.reqs.loading = true
	cmds := make([]tea.Cmd, len(s.employees))
	for i, e := range s.employees {
		orgID := e.OrganizationID
		cmds[i] = load(&s.base, "requests", func(ctx context.Context) ([]api.JoinRequest, error) {
			return s.env.Client.JoinRequests.ByOrganization(ctx, orgID)
		})
	}
	return tea.Batch(cmds...)
}

func (s *profileScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	for _, l := range []*tableList{&s.orgs, &s.regs, &s.reqs} {
		l.SetSize(width, height-5)
	}
	if s.form != nil {
		s.form.SetWidth(min(width, 80))
	}
}

func (s *profileScreen) Editing() bool { return s.form != nil }

func (s *profileScreen) activeList() *tableList {
	switch s.tab {
	case tabOrganizations:
		return &s.orgs
	case tabRegistrations:
		return &s.regs
	case tabRequests:
		return &s.reqs
	default:
		return nil
	}
}

func (s *profileScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s, s.handleLoaded(msg)

	case tea.KeyMsg:
		if s.form != nil {
			return s, s.updateForm(msg)
		}
		if s.confirm != nil {
			c := s.confirm
			s.confirm = nil
			return s, c.resolve(msg)
		}
		if cmd, handled := s.handleKey(msg); handled {
			return s, cmd
		}
	}

	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	if l := s.activeList(); l != nil {
		return s, l.Update(msg)
	}
	return s, nil
}

func (s *profileScreen) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "tab":
		s.tab = (s.tab + 1) % len(profileTabs)
		return s.enterTab(), true
	case "shift+tab":
		s.tab = (s.tab + len(profileTabs) - 1) % len(profileTabs)
		return s.enterTab(), true
	}

	switch s.tab {
	case tabInfo:
		if msg.String() == "e" {
			s.openProfileForm()
			return nil, true
		}
	case tabOrganizations:
		switch msg.String() {
		case "o":
			s.openOrganizationForm()
			return nil, true
		case "enter":
			if i := s.orgs.Cursor(); i >= 0 && s.employees[i].Organization != nil {
				return Navigate(organizationPath(s.employees[i].Organization.Slug)), true
			}
			return nil, true
		}
	case tabRegistrations:
		if msg.String() == "c" {
			if i := s.regs.Cursor(); i >= 0 {
				reg := s.registrations[i]
				s.confirm = &confirmation{
					question: fmt.Sprintf("Cancel registration #%d?", reg.ID),
					action: func() tea.Cmd {
						return load(&s.base, "cancel", func(ctx context.Context) (struct{}, error) {
							return struct{}{}, s.env.Client.Events.CancelRegistration(ctx, reg.ID)
						})
					},
				}
			}
			return nil, true
		}
	case tabRequests:
		i := s.reqs.Cursor()
		if i < 0 {
			return nil, false
		}
		id := s.requests[i].ID
		switch msg.String() {
		case "y":
			return load(&s.base, "resolve", func(ctx context.Context) (*api.JoinRequest, error) {
				return s.env.Client.JoinRequests.Accept(ctx, id)
			}), true
		case "x":
			return load(&s.base, "resolve", func(ctx context.Context) (*api.JoinRequest, error) {
				return s.env.Client.JoinRequests.Reject(ctx, id)
			}), true
		}
	}
	return nil, false
}

func (s *profileScreen) enterTab() tea.Cmd {
	if s.tab == tabRequests && !s.reqsLoaded {
		return s.loadRequests()
	}
	return nil
}

func (s *profileScreen) handleLoaded(msg loadedMsg) tea.Cmd {
	switch msg.key {
	case "employees":
		if msg.err != nil {
			s.orgs.SetError(msg.err)
			return nil
		}
		s.employees = msg.value.([]api.Employee)
		rows := make([]table.Row, len(s.employees))
		for i, e := range s.employees {
			name := fmt.Sprintf("#%d", e.OrganizationID)
			if e.Organization != nil {
				name = e.Organization.Name
			}
			canPost := "no"
			if e.CanPost {
				canPost = "yes"
			}
			rows[i] = table.Row{components.Cell(name), components.Cell(e.Position), canPost}
		}
		s.orgs.SetRows(rows)
		if s.tab == tabRequests {
			return s.loadRequests()
		}
		s.reqsLoaded = false

	case "registrations":
		if msg.err != nil {
			s.regs.SetError(msg.err)
			return nil
		}
		s.registrations = msg.value.([]api.EventRegistration)
		rows := make([]table.Row, len(s.registrations))
		for i, r := range s.registrations {
			rows[i] = table.Row{fmt.Sprintf("#%d", r.EventID), r.Status, formatDate(r.RegisteredAt), components.Cell(r.Notes)}
		}
		s.regs.SetRows(rows)

	case "requests":
		s.reqsPending--
		if msg.err == nil {
			s.requests = append(s.requests, msg.value.([]api.JoinRequest)...)
		} else if s.reqsPending == 0 && len(s.requests) == 0 {
			s.reqs.SetError(msg.err)
			return nil
		}
		if s.reqsPending <= 0 {
			s.showRequests()
		}

	case "resolve":
		if msg.err != nil {
			return Flash(api.Message(msg.err), true)
		}
		jr := msg.value.(*api.JoinRequest)
		for i := range s.requests {
			if s.requests[i].ID == jr.ID {
				s.requests[i].Status = jr.Status
			}
		}
		s.showRequests()
		return Flash("Request "+jr.Status, false)

	case "cancel":
		if msg.err != nil {
			return Flash(api.Message(msg.err), true)
		}
		return tea.Batch(Flash("Registration cancelled", false), s.loadRegistrations())

	case "organization":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		org := msg.value.(*api.Organization)
		s.form = nil
		return tea.Batch(
			Flash(fmt.Sprintf("Organization %q created. You are its founder.", org.Name), false),
			s.loadEmployees(),
		)

	case "me":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		s.form = nil
		// Refresh the profile the session holds
		return tea.Batch(Flash("Profile updated", false), session.LoadUserCmd(s.env.Ctx, s.env.Holder))
	}
	return nil
}

func (s *profileScreen) showRequests() {
	rows := make([]table.Row, len(s.requests))
	for i, r := range s.requests {
		rows[i] = table.Row{
			components.Cell(r.Organization.Name),
			components.Cell(r.User.DisplayName()),
			components.Cell(r.Position),
			r.Status,
		}
	}
	s.reqs.SetRows(rows)
}

// =============================================================================
// FORMS
// =============================================================================

func (s *profileScreen) openProfileForm() {
	u := s.env.Session().User
	if u == nil {
		return
	}
	s.formKind = "me"
	s.form = components.NewForm(s.theme(), "Edit profile", "Save",
		components.Field{Name: "full_name", Label: "Full name", Value: u.FullName},
		components.Field{Name: "email", Label: "Email", Value: u.Email},
		components.Field{Name: "password", Label: "New password (leave empty to keep)", Kind: components.FieldPassword},
	)
	s.form.SetWidth(min(s.width, 80))
}

func (s *profileScreen) openOrganizationForm() {
	s.formKind = "organization"
	s.form = components.NewForm(s.theme(), "New organization", "Create",
		components.Field{Name: "name", Label: "Name *", CharLimit: 200},
		components.Field{Name: "slug", Label: "Slug (generated from the name if empty)", CharLimit: 200},
		components.Field{Name: "description", Label: "Description", Kind: components.FieldMultiline},
		components.Field{Name: "website", Label: "Website", Placeholder: "https://"},
		components.Field{Name: "email", Label: "Contact email"},
		components.Field{Name: "logo", Label: "Logo URL"},
	)
	s.form.SetWidth(min(s.width, 80))
}

func (s *profileScreen) updateForm(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		s.form = nil
		return nil
	}
	submitted, cmd := s.form.Update(msg)
	if !submitted {
		return cmd
	}
	switch s.formKind {
	case "me":
		return s.submitProfile()
	default:
		return s.submitOrganization()
	}
}

func (s *profileScreen) submitProfile() tea.Cmd {
	var in api.UserUpdate
	u := s.env.Session().User
	if v := strings.TrimSpace(s.form.Value("full_name")); u == nil || v != u.FullName {
		in.FullName = &v
	}
	if v := strings.TrimSpace(s.form.Value("email")); u == nil || v != u.Email {
		in.Email = &v
	}
	if v := s.form.Value("password"); v != "" {
		in.Password = &v
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "me", func(ctx context.Context) (*api.User, error) {
		return s.env.Client.Users.UpdateMe(ctx, in)
	})
}

func (s *profileScreen) submitOrganization() tea.Cmd {
	in := api.OrganizationCreate{
		Name:        strings.TrimSpace(s.form.Value("name")),
		Slug:        strings.TrimSpace(s.form.Value("slug")),
		Description: strings.TrimSpace(s.form.Value("description")),
		Website:     strings.TrimSpace(s.form.Value("website")),
		Email:       strings.TrimSpace(s.form.Value("email")),
		Logo:        strings.TrimSpace(s.form.Value("logo")),
	}
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Name)
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "organization", func(ctx context.Context) (*api.Organization, error) {
		return s.env.Client.Organizations.Create(ctx, in)
	})
}

// =============================================================================
// VIEW
// =============================================================================

func (s *profileScreen) View() string {
	t := s.theme()
	if s.form != nil {
		return s.form.View()
	}

	var b strings.Builder
	b.WriteString(t.Title.Render("Profile"))
	b.WriteString("\n")
	b.WriteString(tabs(t, profileTabs, s.tab))
	b.WriteString("\n\n")

	if s.tab == tabInfo {
		b.WriteString(s.infoView())
	} else {
		b.WriteString(s.activeList().View(s.width))
	}

	if s.confirm != nil {
		b.WriteString("\n\n")
		b.WriteString(s.confirm.View(t))
	}
	return b.String()
}

func (s *profileScreen) infoView() string {
	t := s.theme()
	u := s.env.Session().User
	if u == nil {
		return t.Meta.Render("Not signed in.")
	}
	rows := [][2]string{
		{"Name", u.FullName},
		{"Email", u.Email},
		{"Role", t.RoleBadge(u.Role)},
		{"Member since", formatDate(u.CreatedAt)},
	}
	if claims, err := session.ParseClaims(s.env.Session().Token); err == nil && claims.HasExpiry() {
		rows = append(rows, [2]string{"Session expires", claims.ExpiresAt.Local().Format("2006-01-02 15:04")})
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(t.FormLabel.Render(util.PadWidth(r[0], 16)))
		b.WriteString(t.Body.Render(r[1]))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *profileScreen) Shortcuts() []components.Shortcut {
	if s.form != nil {
		return []components.Shortcut{{Key: "ctrl+s", Desc: "save"}, {Key: "esc", Desc: "cancel"}}
	}
	sc := []components.Shortcut{{Key: "tab", Desc: "section"}}
	switch s.tab {
	case tabInfo:
		sc = append(sc, components.Shortcut{Key: "e", Desc: "edit"})
	case tabOrganizations:
		sc = append(sc, components.Shortcut{Key: "o", Desc: "new org"}, components.Shortcut{Key: "enter", Desc: "open"})
	case tabRegistrations:
		sc = append(sc, components.Shortcut{Key: "c", Desc: "cancel"})
	case tabRequests:
		sc = append(sc, components.Shortcut{Key: "y", Desc: "accept"}, components.Shortcut{Key: "x", Desc: "reject"})
	}
	return sc
}
