// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// categories_cmd.go - Category commands.
//
// Command: categories [subcommand]
// Aliases: category
//
// Subcommands:
//   list (default)      All categories
//   show <slug|id>      One category
//   create              --name N [--slug S] [--description D]    (moderator)
//   update <id>         [--name N] [--slug S] [--description D]  (moderator)
//   delete <id>         [--confirm]                              (moderator)

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// HandleCategories handles "ytnews categories".
func HandleCategories(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "confirm")
	switch p.Subcommand() {
	case "", "list", "ls":
		return listCategories(rt, p)
	case "show", "get":
		return showCategory(rt, p.Positional(1))
	case "create", "new":
		return createCategory(rt, p)
	case "update", "edit":
		return updateCategory(rt, p)
	case "delete", "rm":
		return deleteCategory(rt, p)
	default:
		return ErrUnknownSubcommand("categories", p.Subcommand(), "list", "show", "create", "update", "delete")
	}
}

func listCategories(rt *Runtime, p *ArgParser) error {
	skip, err := p.FlagInt("skip", 0)
	if err != nil {
		return err
	}
	limit, err := p.FlagInt("limit", 100)
	if err != nil {
		return err
	}
	cats, err := rt.Client.Categories.List(rt.Context(), skip, limit)
	if err != nil {
		return NewCommandError("categories", "list", err)
	}
	if !rt.Text() {
		return rt.Print("categories list", cats)
	}
	t := newTable([]string{"ID", "NAME", "SLUG", "DESCRIPTION"}, 0, 32, 32, 48)
	for _, c := range cats {
		t.add(strconv.Itoa(c.ID), c.Name, c.Slug, c.Description)
	}
	t.render(rt.Out)
	return nil
}

func showCategory(rt *Runtime, ref string) error {
	if ref == "" {
		return ErrMissingArgument("category", "ytnews categories show <slug|id>")
	}
	var (
		c   *api.Category
		err error
	)
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		c, err = rt.Client.Categories.Get(rt.Context(), id)
	} else {
		c, err = rt.Client.Categories.GetBySlug(rt.Context(), ref)
	}
	if err != nil {
		return NewCommandError("categories", "show", err)
	}
	if !rt.Text() {
		return rt.Print("categories show", c)
	}
	printTitle(rt.Out, c.Name)
	printField(rt.Out, "ID", strconv.Itoa(c.ID))
	printField(rt.Out, "Slug", c.Slug)
	printField(rt.Out, "Description", c.Description)
	printField(rt.Out, "Created", formatTime(&c.CreatedAt))
	return nil
}

func createCategory(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminCategories, "categories create"); err != nil {
		return err
	}
	name := p.Flag("name")
	if name == "" {
		return ErrMissingArgument("name", `--name "Campus life"`)
	}
	c, err := rt.Client.Categories.Create(rt.Context(), api.CategoryCreate{
		Name:        name,
		Slug:        p.FlagOrDefault("slug", util.Slugify(name)),
		Description: p.Flag("description"),
	})
	if err != nil {
		return NewCommandError("categories", "create", err)
	}
	return rt.Done("categories create", fmt.Sprintf("Created category %d (%s)", c.ID, c.Slug), c)
}

func updateCategory(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminCategories, "categories update"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	c, err := rt.Client.Categories.Update(rt.Context(), id, api.CategoryUpdate{
		Name:        p.StringPtr("name"),
		Slug:        p.StringPtr("slug"),
		Description: p.StringPtr("description"),
	})
	if err != nil {
		return NewCommandError("categories", "update", err)
	}
	return rt.Done("categories update", fmt.Sprintf("Updated category %d", c.ID), c)
}

func deleteCategory(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdminCategories, "categories delete"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("delete category %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Categories.Delete(rt.Context(), id); err != nil {
		return NewCommandError("categories", "delete", err)
	}
	return rt.Done("categories delete", fmt.Sprintf("Deleted category %d", id), nil)
}
