// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// announcements_cmd.go - Announcement commands.
//
// Command: announcements [subcommand]
// Aliases: announcement, news
//
// Subcommands:
//   list (default)      Published announcements; --all lists every status (moderator)
//   show <slug|id>      Render one announcement as markdown
//   create              Create an announcement (moderator)
//   update <id>         Change only the given fields (moderator)
//   delete <id>         Delete an announcement (moderator)
//
// Examples:
//   ytnews news
//   ytnews announcements list --all --status draft
//   ytnews announcements show campus-fair
//   ytnews announcements create --title "Campus fair" --content-file fair.md --category 1,3
//   ytnews announcements update 12 --status published
//   ytnews announcements delete 12 --confirm
//
// Flags:
//   --title T --slug S --excerpt E --cover URL --status draft|published|archived
//   --content C | --content-file F (use - for stdin)
//   --category ID,ID    Category ids
//   --org ID            Post on behalf of an organization
//   --skip N --limit N  Paging

package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// HandleAnnouncements handles "ytnews announcements".
func HandleAnnouncements(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "all", "confirm")
	switch p.Subcommand() {
	case "", "list", "ls":
		return listAnnouncements(rt, p)
	case "show", "get":
		return showAnnouncement(rt, p.Positional(1))
	case "create", "new":
		return createAnnouncement(rt, p)
	case "update", "edit":
		return updateAnnouncement(rt, p)
	case "delete", "rm":
		return deleteAnnouncement(rt, p)
	default:
		return ErrUnknownSubcommand("announcements", p.Subcommand(), "list", "show", "create", "update", "delete")
	}
}

func listAnnouncements(rt *Runtime, p *ArgParser) error {
	skip, err := p.FlagInt("skip", 0)
	if err != nil {
		return err
	}
	limit, err := p.FlagInt("limit", rt.Config.UI.PageSize)
	if err != nil {
		return err
	}

	var items []api.AnnouncementList
	if p.BoolFlag("all") || p.Flag("status") != "" || p.Flag("category") != "" {
		if _, err := rt.Gate(access.RouteAdminAnnouncements, "announcements list --all"); err != nil {
			return err
		}
		category, err := p.FlagInt("category", 0)
		if err != nil {
			return err
		}
		items, err = rt.Client.Announcements.ListAll(rt.Context(), api.AnnouncementFilter{
			Skip:       skip,
			Limit:      limit,
			Status:     p.Flag("status"),
			CategoryID: category,
		})
		if err != nil {
			return NewCommandError("announcements", "list", err)
		}
	} else {
		items, err = rt.Client.Announcements.ListPublished(rt.Context(), skip, limit)
		if err != nil {
			return NewCommandError("announcements", "list", err)
		}
	}

	if !rt.Text() {
		return rt.Print("announcements list", items)
	}
	t := newTable([]string{"ID", "TITLE", "SLUG", "STATUS", "AUTHOR", "PUBLISHED"}, 0, 48, 32)
	for _, a := range items {
		t.add(strconv.Itoa(a.ID), a.Title, a.Slug, a.Status, a.Author.DisplayName(), formatTime(a.PublishedAt))
	}
	t.render(rt.Out)
	return nil
}

// fetchAnnouncement accepts a numeric id or a slug.
func fetchAnnouncement(rt *Runtime, ref string) (*api.Announcement, error) {
	if ref == "" {
		return nil, ErrMissingArgument("announcement", "ytnews announcements show <slug|id>")
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return rt.Client.Announcements.Get(rt.Context(), id)
	}
	return rt.Client.Announcements.GetBySlug(rt.Context(), ref)
}

func showAnnouncement(rt *Runtime, ref string) error {
	a, err := fetchAnnouncement(rt, ref)
	if err != nil {
		return NewCommandError("announcements", "show", err)
	}
	if !rt.Text() {
		return rt.Print("announcements show", a)
	}

	printTitle(rt.Out, a.Title)
	printField(rt.Out, "ID", strconv.Itoa(a.ID))
	printField(rt.Out, "Slug", a.Slug)
	printField(rt.Out, "Status", a.Status)
	printField(rt.Out, "Author", a.Author.DisplayName())
	if a.Organization != nil {
		printField(rt.Out, "Organization", a.Organization.Name)
	}
	printField(rt.Out, "Categories", categoryNames(a.Categories))
	printField(rt.Out, "Published", formatTime(a.PublishedAt))
	if a.CoverImage != "" {
		printField(rt.Out, "Cover", a.CoverImage)
	}
	fmt.Fprintln(rt.Out)

	width := min(GetTerminalWidth()-4, rt.Config.UI.MarkdownWidth)
	if body := components.NewMarkdown(rt.Config.UI.Theme).Render(a.Content, width); body != "" {
		fmt.Fprintln(rt.Out, body)
	}
	return nil
}

// readContent returns the body from --content-file or --content, or nil
// when neither was given.
func readContent(p *ArgParser) (*string, error) {
	if path := p.Flag("content-file"); path != "" {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
		s := string(data)
		return &s, nil
	}
	return p.StringPtr("content"), nil
}

func createAnnouncement(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminAnnouncementNew, "announcements create"); err != nil {
		return err
	}

	title := p.Flag("title")
	if title == "" {
		return ErrMissingArgument("title", `--title "Campus fair"`)
	}
	content, err := readContent(p)
	if err != nil {
		return err
	}
	cats, err := p.IntList("category")
	if err != nil {
		return err
	}
	org, err := p.IntPtr("org")
	if err != nil {
		return err
	}

	in := api.AnnouncementCreate{
		Title:          title,
		Slug:           p.FlagOrDefault("slug", util.Slugify(title)),
		Excerpt:        p.Flag("excerpt"),
		CoverImage:     p.Flag("cover"),
		Status:         p.FlagOrDefault("status", api.StatusDraft),
		CategoryIDs:    cats,
		OrganizationID: org,
	}
	if in.CategoryIDs == nil {
		in.CategoryIDs = []int{}
	}
	if content != nil {
		in.Content = *content
	}

	a, err := rt.Client.Announcements.Create(rt.Context(), in)
	if err != nil {
		return NewCommandError("announcements", "create", err)
	}
	return rt.Done("announcements create", fmt.Sprintf("Created announcement %d (%s)", a.ID, a.Slug), a)
}

func updateAnnouncement(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminAnnouncementEdit, "announcements update"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}

	content, err := readContent(p)
	if err != nil {
		return err
	}
	cats, err := p.IntList("category")
	if err != nil {
		return err
	}
	org, err := p.IntPtr("org")
	if err != nil {
		return err
	}
	in := api.AnnouncementUpdate{
		Title:          p.StringPtr("title"),
		Slug:           p.StringPtr("slug"),
		Content:        content,
		Excerpt:        p.StringPtr("excerpt"),
		CoverImage:     p.StringPtr("cover"),
		Status:         p.StringPtr("status"),
		CategoryIDs:    cats,
		OrganizationID: org,
	}

	a, err := rt.Client.Announcements.Update(rt.Context(), id, in)
	if err != nil {
		return NewCommandError("announcements", "update", err)
	}
	return rt.Done("announcements update", fmt.Sprintf("Updated announcement %d", a.ID), a)
}

func deleteAnnouncement(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminAnnouncements, "announcements delete"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("delete announcement %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Announcements.Delete(rt.Context(), id); err != nil {
		return NewCommandError("announcements", "delete", err)
	}
	return rt.Done("announcements delete", fmt.Sprintf("Deleted announcement %d", id), nil)
}
