// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
)

// =============================================================================
// EVENTS LIST
// =============================================================================

type eventsScreen struct {
	base
	list  tableList
	items []api.EventList
	all   bool
}

func newEventsScreen(b base) *eventsScreen {
	return &eventsScreen{
		base: b,
		list: newTableList(b.env.Theme, "No upcoming events.",
			table.Column{Title: "When", Width: 16},
			table.Column{Title: "Title", Width: 36},
			table.Column{Title: "Where", Width: 20},
			table.Column{Title: "Going", Width: 6},
			table.Column{Title: "Organizer", Width: 18},
		),
	}
}

func (s *eventsScreen) Init() tea.Cmd {
	all := s.all
	return load(&s.base, "events", func(ctx context.Context) ([]api.EventList, error) {
		if all {
			return s.env.Client.Events.List(ctx)
		}
		return s.env.Client.Events.Upcoming(ctx)
	})
}

func (s *eventsScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.list.SetSize(width, height-3)
}

func (s *eventsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.list.SetError(msg.err)
			return s, nil
		}
		s.items = msg.value.([]api.EventList)
		rows := make([]table.Row, len(s.items))
		for i, e := range s.items {
			organizer := e.Author.DisplayName()
			if e.Organization != nil {
				organizer = e.Organization.Name
			}
			rows[i] = table.Row{
				formatDate(e.EventDate),
				components.Cell(e.Title),
				components.Cell(e.Location),
				fmt.Sprint(e.RegistrationsCount),
				components.Cell(organizer),
			}
		}
		s.list.SetRows(rows)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if i := s.list.Cursor(); i >= 0 {
				return s, Navigate(eventPath(s.items[i].Slug))
			}
			return s, nil
		case "t":
			s.all = !s.all
			s.list.loading = true
			if s.all {
				s.list.empty = "No events."
			} else {
				s.list.empty = "No upcoming events."
			}
			return s, s.Init()
		}
	}
	return s, s.list.Update(msg)
}

func (s *eventsScreen) View() string {
	t := s.theme()
	title := t.Title.Render("Upcoming events")
	if s.all {
		title = t.Title.Render("All events")
	}
	return title + "\n\n" + s.list.View(s.width)
}

func (s *eventsScreen) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "enter", Desc: "open"}, {Key: "t", Desc: "upcoming/all"}}
}

func eventPath(slug string) string {
	r, _ := access.Lookup(access.RouteEvent)
	return r.Path(access.Params{"slug": slug})
}

// =============================================================================
// EVENT DETAIL
// =============================================================================

type eventScreen struct {
	base
	slug     string
	event    *api.Event
	err      error
	viewport viewport.Model
	form     *components.Form
}

func newEventScreen(b base, slug string) *eventScreen {
	return &eventScreen{base: b, slug: slug, viewport: viewport.New(80, 20)}
}

func (s *eventScreen) Init() tea.Cmd {
	slug := s.slug
	return load(&s.base, "event", func(ctx context.Context) (*api.Event, error) {
		return s.env.Client.Events.GetBySlug(ctx, slug)
	})
}

func (s *eventScreen) SetSize(width, height int) {
	s.base.SetSize(width, height)
	s.viewport.Width = width
	s.viewport.Height = height
	if s.form != nil {
		s.form.SetWidth(width)
	}
	s.render()
}

func (s *eventScreen) Editing() bool { return s.form != nil }

// registrationClosed explains why signing up is not possible, or returns "".
func (s *eventScreen) registrationClosed(now time.Time) string {
	e := s.event
	switch {
	case e == nil:
		return "loading"
	case e.EventDate.Before(now):
		return "This event is over."
	case e.RegistrationDeadline != nil && e.RegistrationDeadline.Before(now):
		return "Registration is closed."
	case e.SpotsLeft() == 0:
		return "This event is full."
	default:
		return ""
	}
}

func (s *eventScreen) openForm() {
	var fields []components.Field
	if !s.env.Session().Authenticated() {
		fields = append(fields,
			components.Field{Name: "name", Label: "Name *"},
			components.Field{Name: "email", Label: "Email *"},
			components.Field{Name: "phone", Label: "Phone"},
		)
	}
	fields = append(fields, components.Field{
		Name: "notes", Label: "Notes", Kind: components.FieldMultiline,
		Placeholder: "Questions or wishes...",
	})
	s.form = components.NewForm(s.theme(), "Sign up for "+s.event.Title, "Register", fields...)
	s.form.SetWidth(s.width)
}

func (s *eventScreen) submit() tea.Cmd {
	in := api.EventRegistrationCreate{
		EventID:    s.event.ID,
		GuestName:  strings.TrimSpace(s.form.Value("name")),
		GuestEmail: strings.TrimSpace(s.form.Value("email")),
		GuestPhone: strings.TrimSpace(s.form.Value("phone")),
		Notes:      strings.TrimSpace(s.form.Value("notes")),
	}
	if !s.env.Session().Authenticated() && (in.GuestName == "" || in.GuestEmail == "") {
		s.form.Err = errors.New("name and email are required")
		return nil
	}
	s.form.Busy = true
	s.form.Err = nil
	return load(&s.base, "register", func(ctx context.Context) (*api.EventRegistration, error) {
		return s.env.Client.Events.Register(ctx, in)
	})
}

func (s *eventScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		switch msg.key {
		case "event":
			if msg.err != nil {
				s.err = msg.err
				return s, nil
			}
			s.event = msg.value.(*api.Event)
			s.render()
		case "register":
			if msg.err != nil {
				s.form.Busy = false
				s.form.Err = msg.err
				return s, nil
			}
			s.form = nil
			return s, tea.Batch(Flash("You are registered for the event", false), s.Init())
		}
		return s, nil

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
		if msg.String() == "s" && s.event != nil {
			if why := s.registrationClosed(time.Now()); why != "" {
				return s, Flash(why, true)
			}
			s.openForm()
			return s, nil
		}
	}

	if s.form != nil {
		_, cmd := s.form.Update(msg)
		return s, cmd
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

func (s *eventScreen) render() {
	if s.event == nil {
		return
	}
	t := s.theme()
	e := s.event

	var b strings.Builder
	b.WriteString(t.Title.Render(e.Title))
	b.WriteString("\n")

	meta := []string{formatDate(e.EventDate)}
	if e.Location != "" {
		meta = append(meta, e.Location)
	}
	going := fmt.Sprintf("%d going", e.RegistrationsCount)
	if e.MaxParticipants != nil {
		going = fmt.Sprintf("%d / %d going", e.RegistrationsCount, *e.MaxParticipants)
	}
	meta = append(meta, going)
	b.WriteString(t.Meta.Render(strings.Join(meta, " | ")))
	b.WriteString("\n")
	if e.Organization != nil {
		b.WriteString(t.Badge.Render(e.Organization.Name))
		b.WriteString("\n")
	}
	if d := formatDatePtr(e.RegistrationDeadline); d != "" {
		b.WriteString(t.Meta.Render("Register by " + d))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.env.Markdown.Render(e.Description, s.markdownWidth()))
	b.WriteString("\n\n")
	b.WriteString(t.Subtitle.Render("Organizer"))
	b.WriteString("\n")
	b.WriteString(t.Body.Render(e.Author.DisplayName()))
	s.viewport.SetContent(b.String())
}

func (s *eventScreen) View() string {
	switch {
	case s.err != nil:
		return components.ErrorBox(s.theme(), s.err, s.width)
	case s.event == nil:
		return s.theme().LoadingText.Render("Loading...")
	case s.form != nil:
		return s.form.View()
	default:
		return s.viewport.View()
	}
}

func (s *eventScreen) Shortcuts() []components.Shortcut {
	if s.form != nil {
		return []components.Shortcut{{Key: "esc", Desc: "cancel"}}
	}
	return []components.Shortcut{{Key: "s", Desc: "sign up"}, {Key: "up/down", Desc: "scroll"}}
}
