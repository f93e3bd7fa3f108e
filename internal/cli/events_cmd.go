// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// events_cmd.go - Event and registration commands.
//
// Command: events [subcommand]
// Aliases: event
//
// Subcommands:
//   list (default)        All events; --upcoming for future ones only
//   show <slug>           One event with its description
//   register <slug>       Sign up; guests pass --name and --email
//   my                    Your registrations (signed in)
//   cancel <reg-id>       Cancel one of your registrations (signed in)
//   create                --title T --date 2025-05-01T18:00 --description D   (moderator)
//   update <id>           Change only the given fields                         (moderator)
//   delete <id>           [--confirm]                                          (moderator)
//   registrations <id>    Everyone signed up for an event                      (moderator)
//
// Event flags:
//   --slug S --excerpt E --cover URL --location L --deadline TIME
//   --max N --org ID --status draft|published|archived

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// HandleEvents handles "ytnews events".
func HandleEvents(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "upcoming", "confirm")
	switch p.Subcommand() {
	case "", "list", "ls":
		return listEvents(rt, p)
	case "show", "get":
		return showEvent(rt, p.Positional(1))
	case "register", "signup":
		return registerForEvent(rt, p)
	case "my", "mine":
		return myRegistrations(rt)
	case "cancel":
		return cancelRegistration(rt, p)
	case "create", "new":
		return createEvent(rt, p)
	case "update", "edit":
		return updateEvent(rt, p)
	case "delete", "rm":
		return deleteEvent(rt, p)
	case "registrations":
		return eventRegistrations(rt, p)
	default:
		return ErrUnknownSubcommand("events", p.Subcommand(),
			"list", "show", "register", "my", "cancel", "create", "update", "delete", "registrations")
	}
}

func listEvents(rt *Runtime, p *ArgParser) error {
	var (
		items []api.EventList
		err   error
	)
	if p.BoolFlag("upcoming") {
		items, err = rt.Client.Events.Upcoming(rt.Context())
	} else {
		items, err = rt.Client.Events.List(rt.Context())
	}
	if err != nil {
		return NewCommandError("events", "list", err)
	}
	if !rt.Text() {
		return rt.Print("events list", items)
	}
	t := newTable([]string{"ID", "DATE", "TITLE", "SLUG", "LOCATION", "SIGNED UP"}, 0, 0, 40, 32, 24)
	for _, e := range items {
		t.add(strconv.Itoa(e.ID), formatTime(&e.EventDate), e.Title, e.Slug, e.Location, strconv.Itoa(e.RegistrationsCount))
	}
	t.render(rt.Out)
	return nil
}

func showEvent(rt *Runtime, slug string) error {
	if slug == "" {
		return ErrMissingArgument("slug", "ytnews events show <slug>")
	}
	e, err := rt.Client.Events.GetBySlug(rt.Context(), slug)
	if err != nil {
		return NewCommandError("events", "show", err)
	}
	if !rt.Text() {
		return rt.Print("events show", e)
	}

	printTitle(rt.Out, e.Title)
	printField(rt.Out, "ID", strconv.Itoa(e.ID))
	printField(rt.Out, "When", formatTime(&e.EventDate))
	printField(rt.Out, "Where", e.Location)
	printField(rt.Out, "Deadline", formatTime(e.RegistrationDeadline))
	spots := "unlimited"
	if left := e.SpotsLeft(); left >= 0 {
		spots = fmt.Sprintf("%d of %s", left, optionalInt(e.MaxParticipants))
	}
	printField(rt.Out, "Spots left", spots)
	printField(rt.Out, "Signed up", strconv.Itoa(e.RegistrationsCount))
	if e.Organization != nil {
		printField(rt.Out, "Organization", e.Organization.Name)
	}
	printField(rt.Out, "Status", e.Status)
	fmt.Fprintln(rt.Out)

	width := min(GetTerminalWidth()-4, rt.Config.UI.MarkdownWidth)
	if body := components.NewMarkdown(rt.Config.UI.Theme).Render(e.Description, width); body != "" {
		fmt.Fprintln(rt.Out, body)
	}
	return nil
}

func registerForEvent(rt *Runtime, p *ArgParser) error {
	slug := p.Positional(1)
	if slug == "" {
		return ErrMissingArgument("slug", "ytnews events register <slug>")
	}
	e, err := rt.Client.Events.GetBySlug(rt.Context(), slug)
	if err != nil {
		return NewCommandError("events", "register", err)
	}

	in := api.EventRegistrationCreate{
		EventID:    e.ID,
		GuestName:  p.Flag("name"),
		GuestEmail: p.Flag("email"),
		GuestPhone: p.Flag("phone"),
		Notes:      p.Flag("notes"),
	}
	// Signed-in users register as themselves; everyone else is a guest
	if !rt.Session().Authenticated() && (in.GuestName == "" || in.GuestEmail == "") {
		return NewValidationErrorWithExample("guest", "", "name and email are required when not signed in",
			`--name "Ann Lee" --email ann@example.com`)
	}

	reg, err := rt.Client.Events.Register(rt.Context(), in)
	if err != nil {
		return NewCommandError("events", "register", err)
	}
	return rt.Done("events register", fmt.Sprintf("Registered for %s (registration %d)", e.Title, reg.ID), reg)
}

func myRegistrations(rt *Runtime) error {
	if _, err := rt.Gate(access.RouteProfile, "events my"); err != nil {
		return err
	}
	regs, err := rt.Client.Events.MyRegistrations(rt.Context())
	if err != nil {
		return NewCommandError("events", "my", err)
	}
	return printRegistrations(rt, "events my", regs)
}

func printRegistrations(rt *Runtime, command string, regs []api.EventRegistration) error {
	if !rt.Text() {
		return rt.Print(command, regs)
	}
	t := newTable([]string{"ID", "EVENT", "WHO", "STATUS", "REGISTERED", "NOTES"}, 0, 0, 32, 0, 0, 40)
	for _, r := range regs {
		who := r.GuestName
		if r.User != nil {
			who = r.User.DisplayName()
		}
		t.add(strconv.Itoa(r.ID), strconv.Itoa(r.EventID), who, r.Status, formatTime(&r.RegisteredAt), r.Notes)
	}
	t.render(rt.Out)
	return nil
}

func cancelRegistration(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteProfile, "events cancel"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "registration-id")
	if err != nil {
		return err
	}
	if err := rt.Client.Events.CancelRegistration(rt.Context(), id); err != nil {
		return NewCommandError("events", "cancel", err)
	}
	return rt.Done("events cancel", fmt.Sprintf("Cancelled registration %d", id), nil)
}

// parseTimeFlag reads an optional timestamp flag.
func parseTimeFlag(p *ArgParser, name string) (*api.Time, error) {
	s := p.Flag(name)
	if s == "" {
		return nil, nil
	}
	t, err := api.ParseTime(s)
	if err != nil {
		return nil, ErrInvalidFormat("--"+name, s, "2025-05-01T18:00 or 2025-05-01")
	}
	return &t, nil
}

func createEvent(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "events create"); err != nil {
		return err
	}
	title := p.Flag("title")
	if title == "" {
		return ErrMissingArgument("title", `--title "Open day"`)
	}
	date, err := parseTimeFlag(p, "date")
	if err != nil {
		return err
	}
	if date == nil {
		return ErrMissingArgument("date", "--date 2025-05-01T18:00")
	}
	deadline, err := parseTimeFlag(p, "deadline")
	if err != nil {
		return err
	}
	maxP, err := p.IntPtr("max")
	if err != nil {
		return err
	}
	org, err := p.IntPtr("org")
	if err != nil {
		return err
	}
	description, err := readContent(p)
	if err != nil {
		return err
	}
	if description == nil {
		description = p.StringPtr("description")
	}

	in := api.EventCreate{
		Title:                title,
		Slug:                 p.FlagOrDefault("slug", util.Slugify(title)),
		Excerpt:              p.Flag("excerpt"),
		CoverImage:           p.Flag("cover"),
		Location:             p.Flag("location"),
		EventDate:            *date,
		RegistrationDeadline: deadline,
		MaxParticipants:      maxP,
		OrganizationID:       org,
		Status:               p.FlagOrDefault("status", api.StatusDraft),
	}
	if description != nil {
		in.Description = *description
	}

	e, err := rt.Client.Events.Create(rt.Context(), in)
	if err != nil {
		return NewCommandError("events", "create", err)
	}
	return rt.Done("events create", fmt.Sprintf("Created event %d (%s)", e.ID, e.Slug), e)
}

func updateEvent(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "events update"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	date, err := parseTimeFlag(p, "date")
	if err != nil {
		return err
	}
	deadline, err := parseTimeFlag(p, "deadline")
	if err != nil {
		return err
	}
	maxP, err := p.IntPtr("max")
	if err != nil {
		return err
	}
	org, err := p.IntPtr("org")
	if err != nil {
		return err
	}
	description, err := readContent(p)
	if err != nil {
		return err
	}
	if description == nil {
		description = p.StringPtr("description")
	}

	e, err := rt.Client.Events.Update(rt.Context(), id, api.EventUpdate{
		Title:                p.StringPtr("title"),
		Slug:                 p.StringPtr("slug"),
		Description:          description,
		Excerpt:              p.StringPtr("excerpt"),
		CoverImage:           p.StringPtr("cover"),
		Location:             p.StringPtr("location"),
		EventDate:            date,
		RegistrationDeadline: deadline,
		MaxParticipants:      maxP,
		Status:               p.StringPtr("status"),
		OrganizationID:       org,
	})
	if err != nil {
		return NewCommandError("events", "update", err)
	}
	return rt.Done("events update", fmt.Sprintf("Updated event %d", e.ID), e)
}

func deleteEvent(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "events delete"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("delete event %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Events.Delete(rt.Context(), id); err != nil {
		return NewCommandError("events", "delete", err)
	}
	return rt.Done("events delete", fmt.Sprintf("Deleted event %d", id), nil)
}

func eventRegistrations(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "events registrations"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "event-id")
	if err != nil {
		return err
	}
	regs, err := rt.Client.Events.Registrations(rt.Context(), id)
	if err != nil {
		return NewCommandError("events", "registrations", err)
	}
	return printRegistrations(rt, "events registrations", regs)
}
