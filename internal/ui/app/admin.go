// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// routePath returns the path of a parameterless route.
func routePath(name access.RouteName) string {
	r, _ := access.Lookup(name)
	return r.Path(nil)
}

// =============================================================================
// ADMIN DASHBOARD
// =============================================================================

type adminEntry struct {
	route access.RouteName
	title string
	desc  string
}

type adminScreen struct {
	base
	cursor int
}

func newAdminScreen(b base) *adminScreen {
	return &adminScreen{base: b}
}

func (s *adminScreen) Init() tea.Cmd { return nil }

// entries lists the sections the current role may open.
func (s *adminScreen) entries() []adminEntry {
	all := []adminEntry{
		{access.RouteAdminAnnouncements, "Announcements", "Create, edit and publish announcements"},
		{access.RouteAdminCategories, "Categories", "Manage announcement categories"},
		{access.RouteAdminUsers, "Users", "Manage accounts and roles"},
	}
	role := s.env.Session().Role()
	var out []adminEntry
	for _, e := range all {
		r, _ := access.Lookup(e.route)
		if role.AtLeast(r.Requirement.Role()) {
			out = append(out, e)
		}
	}
	return out
}

func (s *adminScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	entries := s.entries()
	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(entries)-1 {
			s.cursor++
		}
	case "enter":
		if s.cursor < len(entries) {
			return s, Navigate(routePath(entries[s.cursor].route))
		}
	case "n":
		return s, Navigate(routePath(access.RouteAdminAnnouncementNew))
	}
	return s, nil
}

func (s *adminScreen) View() string {
	t := s.theme()
	var b strings.Builder
	b.WriteString(t.Title.Render("Administration"))
	b.WriteString("\n\n")
	width := min(s.width-2, 60)
	for i, e := range s.entries() {
		style := t.Card
		if i == s.cursor {
			style = t.CardSelected
		}
		b.WriteString(style.Width(width).Render(t.Subtitle.Render(e.title) + "\n" + t.Meta.Render(e.desc)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *adminScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "open"}, {Key: "n", Desc: "new announcement"}}
}

// =============================================================================
// ADMIN ANNOUNCEMENTS LIST
// =============================================================================

var statusFilters = []string{"", api.StatusDraft, api.StatusPublished, api.StatusArchived}

type adminAnnouncementsScreen struct {
	base
	list    tableList
	items   []api.AnnouncementList
	filter  int
	confirm *confirmation
}

func newAdminAnnouncementsScreen(b base) *adminAnnouncementsScreen {
	return &adminAnnouncementsScreen{
		base: b,
		list: newTableList(b.env.Theme, "No announcements. Press n to write one.",
			table.Column{Title: "ID", Width: 5},
			table.Column{Title: "Title", Width: 40},
			table.Column{Title: "Status", Width: 10},
			table.Column{Title: "Categories", Width: 20},
			table.Column{Title: "Created", Width: 16},
		),
	}
}

func (s *adminAnnouncementsScreen) Init() tea.Cmd {
	f := api.AnnouncementFilter{Limit: 100, Status: statusFilters[s.filter]}
	return load(&s.base, "list", func(ctx context.Context) ([]api.AnnouncementList, error) {
		return s.env.Client.Announcements.ListAll(ctx, f)
	})
}

func (s *adminAnnouncementsScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-4)
}

func (s *adminAnnouncementsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		switch msg.key {
		case "list":
			if msg.err != nil {
				s.list.SetError(msg.err)
				return s, nil
			}
			s.items = msg.value.([]api.AnnouncementList)
			rows := make([]table.Row, len(s.items))
			for i, a := range s.items {
				rows[i] = table.Row{
					fmt.Sprint(a.ID),
					components.Cell(a.Title),
					a.Status,
					components.Cell(categoryNames(a.Categories)),
					formatDate(a.CreatedAt),
				}
			}
			s.list.SetRows(rows)
		case "delete":
			if msg.err != nil {
				return s, Flash(api.Message(msg.err), true)
			}
			return s, tea.Batch(Flash("Announcement deleted", false), s.Init())
		}
		return s, nil

	case tea.KeyMsg:
		if s.confirm != nil {
			c := s.confirm
			s.confirm = nil
			return s, c.resolve(msg)
		}
		i := s.list.Cursor()
		switch msg.String() {
		case "n":
			return s, Navigate(routePath(access.RouteAdminAnnouncementNew))
		case "enter", "e":
			if i >= 0 {
				return s, Navigate(announcementEditPath(s.items[i].ID))
			}
			return s, nil
		case "v":
			if i >= 0 && s.items[i].Status == api.StatusPublished {
				return s, Navigate(announcementPath(s.items[i].Slug))
			}
			return s, nil
		case "f":
			s.filter = (s.filter + 1) % len(statusFilters)
			s.list.loading = true
			return s, s.Init()
		case "d":
			if i >= 0 {
				a := s.items[i]
				s.confirm = &confirmation{
					question: fmt.Sprintf("Delete %q?", util.TruncateRunes(a.Title, 40)),
					action: func() tea.Cmd {
						return load(&s.base, "delete", func(ctx context.Context) (struct{}, error) {
							return struct{}{}, s.env.Client.Announcements.Delete(ctx, a.ID)
						})
					},
				}
			}
			return s, nil
		}
	}
	return s, s.list.Update(msg)
}

func (s *adminAnnouncementsScreen) View() string {
	t := s.theme()
	filter := statusFilters[s.filter]
	if filter == "" {
		filter = "all"
	}
	out := t.Title.Render("Announcements") + t.Meta.Render("  status: "+filter) + "\n\n" + s.list.View(s.width)
	if s.confirm != nil {
		out += "\n" + s.confirm.View(t)
	}
	return out
}

func (s *adminAnnouncementsScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "n", Desc: "new"}, {Key: "e", Desc: "edit"}, {Key: "d", Desc: "delete"},
		{Key: "f", Desc: "filter"}, {Key: "v", Desc: "view"},
	}
}

func announcementEditPath(id int) string {
	r, _ := access.Lookup(access.RouteAdminAnnouncementEdit)
	return r.Path(access.Params{"id": itoa(id)})
}

// =============================================================================
// ANNOUNCEMENT FORM (new and edit)
// =============================================================================

type announcementFormScreen struct {
	base
	id         int
	original   *api.Announcement
	categories []api.Category
	form       *components.Form
	err        error
	waiting    int
}

func newAnnouncementFormScreen(b base, id int) *announcementFormScreen {
	return &announcementFormScreen{base: b, id: id}
}

func (s *announcementFormScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{load(&s.base, "categories", func(ctx context.Context) ([]api.Category, error) {
		return s.env.Client.Categories.List(ctx, 0, 100)
	})}
	s.waiting = 1
	if s.id > 0 {
		id := s.id
		s.waiting++
		cmds = append(cmds, load(&s.base, "announcement", func(ctx context.Context) (*api.Announcement, error) {
			return s.env.Client.Announcements.Get(ctx, id)
		}))
	}
	return tea.Batch(cmds...)
}

func (s *announcementFormScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	if s.form != nil {
		s.form.SetWidth(width)
	}
}

func (s *announcementFormScreen) Editing() bool { return s.form != nil }

func (s *announcementFormScreen) buildForm() {
	a := s.original
	if a == nil {
		a = &api.Announcement{Status: api.StatusDraft}
	}
	slugs := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		slugs[i] = c.Slug
	}
	var org string
	if a.OrganizationID != nil {
		org = itoa(*a.OrganizationID)
	}

	title := "New announcement"
	submit := "Create"
	if s.id > 0 {
		title = "Edit announcement #" + itoa(s.id)
		submit = "Save"
	}
	s.form = components.NewForm(s.theme(), title, submit,
		components.Field{Name: "title", Label: "Title *", Value: a.Title, CharLimit: 255},
		components.Field{Name: "slug", Label: "Slug (generated from the title if empty)", Value: a.Slug, CharLimit: 255},
		components.Field{Name: "excerpt", Label: "Excerpt", Value: a.Excerpt},
		components.Field{Name: "cover_image", Label: "Cover image URL", Value: a.CoverImage},
		components.Field{Name: "status", Label: "Status (draft, published, archived)", Value: a.Status},
		components.Field{Name: "categories", Label: "Categories (comma-separated slugs)", Value: strings.Join(slugs, ", ")},
		components.Field{Name: "organization", Label: "Organization ID", Value: org},
		components.Field{Name: "content", Label: "Content (Markdown)", Kind: components.FieldMultiline, Value: a.Content},
	)
	s.form.SetWidth(s.width)
}

func (s *announcementFormScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s, s.handleLoaded(msg)

	case tea.KeyMsg:
		if s.form == nil {
			return s, nil
		}
		if msg.String() == "esc" {
			return s, Back()
		}
		submitted, cmd := s.form.Update(msg)
		if submitted {
			return s, s.submit()
		}
		return s, cmd
	}
	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *announcementFormScreen) handleLoaded(msg loadedMsg) tea.Cmd {
	switch msg.key {
	case "categories", "announcement":
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		if msg.key == "categories" {
			s.categories = msg.value.([]api.Category)
		} else {
			s.original = msg.value.(*api.Announcement)
		}
		s.waiting--
		if s.waiting == 0 {
			s.buildForm()
		}
	case "save":
		if msg.err != nil {
			s.form.Busy = false
			s.form.Err = msg.err
			return nil
		}
		a := msg.value.(*api.Announcement)
		return tea.Batch(
			Flash(fmt.Sprintf("Saved %q (%s)", a.Title, a.Status), false),
			func() tea.Msg {
				return NavigateMsg{Path: routePath(access.RouteAdminAnnouncements), Replace: true}
			},
		)
	}
	return nil
}

// categoryIDs maps comma-separated slugs or names to category ids.
func (s *announcementFormScreen) categoryIDs(text string) ([]int, error) {
	ids := []int{}
	var unknown []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, c := range s.categories {
			if strings.EqualFold(c.Slug, part) || strings.EqualFold(c.Name, part) {
				ids = append(ids, c.ID)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, part)
		}
	}
	if len(unknown) > 0 {
		return nil, api.ValidationErrors{{Field: "categories", Message: "unknown: " + strings.Join(unknown, ", ")}}
	}
	return ids, nil
}

func (s *announcementFormScreen) submit() tea.Cmd {
	v := s.form.Values()
	title := strings.TrimSpace(v["title"])
	slug := strings.TrimSpace(v["slug"])
	if slug == "" {
		slug = util.Slugify(title)
	}
	status := strings.ToLower(strings.TrimSpace(v["status"]))
	if status == "" {
		status = api.StatusDraft
	}
	ids, err := s.categoryIDs(v["categories"])
	if err != nil {
		s.form.Err = err
		return nil
	}
	var org *int
	if o := strings.TrimSpace(v["organization"]); o != "" {
		n := atoi(o)
		if n <= 0 {
			s.form.Err = errors.New("organization id must be a positive number")
			return nil
		}
		org = &n
	}

	if s.id == 0 {
		in := api.AnnouncementCreate{
			Title:          title,
			Slug:           slug,
			Content:        v["content"],
			Excerpt:        strings.TrimSpace(v["excerpt"]),
			CoverImage:     strings.TrimSpace(v["cover_image"]),
			Status:         status,
			CategoryIDs:    ids,
			OrganizationID: org,
		}
		if err := api.Validate(in); err != nil {
			s.form.Err = err
			return nil
		}
		s.form.Busy = true
		s.form.Err = nil
		return load(&s.base, "save", func(ctx context.Context) (*api.Announcement, error) {
			return s.env.Client.Announcements.Create(ctx, in)
		})
	}

	content := v["content"]
	excerpt := strings.TrimSpace(v["excerpt"])
	cover := strings.TrimSpace(v["cover_image"])
	in := api.AnnouncementUpdate{
		Title:          &title,
		Slug:           &slug,
		Content:        &content,
		Excerpt:        &excerpt,
		CoverImage:     &cover,
		Status:         &status,
		CategoryIDs:    ids,
		OrganizationID: org,
	}
	if err := api.Validate(in); err != nil {
		s.form.Err = err
		return nil
	}
	id := s.id
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "save", func(ctx context.Context) (*api.Announcement, error) {
		return s.env.Client.Announcements.Update(ctx, id, in)
	})
}

func (s *announcementFormScreen) View() string {
	switch {
	case s.err != nil:
		return components.ErrorBox(s.theme(), s.err, s.width)
	case s.form == nil:
		return s.theme().LoadingText.Render("Loading...")
	}
	var names []string
	for _, c := range s.categories {
		names = append(names, c.Slug)
	}
	hint := s.theme().Meta.Render("Categories: " + strings.Join(names, ", "))
	return s.form.View() + "\n" + hint
}

func (s *announcementFormScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "ctrl+s", Desc: "save"}, {Key: "esc", Desc: "cancel"}}
}
