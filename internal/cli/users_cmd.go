// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// users_cmd.go - Account commands.
//
// Command: me [subcommand]
// Aliases: profile
//
// Subcommands:
//   show (default)      Your profile
//   update              [--name N] [--email E] [--password]  (password is prompted)
//
// Command: users [subcommand]     (admin)
// Aliases: user
//
// Subcommands:
//   list (default)      All accounts
//   show <id>           One account
//   create              --email E --role user|moderator|admin [--name N] (password is prompted)
//   update <id>         [--email E] [--name N] [--role R] [--active BOOL] [--password]
//   delete <id>         [--confirm]

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
)

// =============================================================================
// ME
// =============================================================================

// HandleMe handles "ytnews me".
func HandleMe(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "password", "password-stdin")
	if _, err := rt.Gate(access.RouteProfile, "me"); err != nil {
		return err
	}
	switch p.Subcommand() {
	case "", "show":
		u, err := rt.Client.Users.Me(rt.Context())
		if err != nil {
			return NewCommandError("me", "show", err)
		}
		return printUser(rt, "me", u)
	case "update", "edit":
		in, err := userUpdateFromFlags(rt, p, false)
		if err != nil {
			return err
		}
		u, err := rt.Client.Users.UpdateMe(rt.Context(), in)
		if err != nil {
			return NewCommandError("me", "update", err)
		}
		// The header and role checks read the holder, so refresh it
		rt.Holder.LoadUser(rt.ctx)
		return rt.Done("me update", "Profile updated", u)
	default:
		return ErrUnknownSubcommand("me", p.Subcommand(), "show", "update")
	}
}

func printUser(rt *Runtime, command string, u *api.User) error {
	if !rt.Text() {
		return rt.Print(command, u)
	}
	printTitle(rt.Out, u.DisplayName())
	printField(rt.Out, "ID", strconv.Itoa(u.ID))
	printField(rt.Out, "Email", u.Email)
	printField(rt.Out, "Name", u.FullName)
	printField(rt.Out, "Role", string(u.Role))
	printField(rt.Out, "Active", yesNo(u.IsActive))
	printField(rt.Out, "Created", formatTime(&u.CreatedAt))
	return nil
}

// newPassword prompts twice on a terminal and once from a pipe.
func newPassword(rt *Runtime) (string, error) {
	pw, err := rt.Prompt.Password("New password: ")
	if err != nil {
		return "", err
	}
	if rt.Prompt.Interactive {
		again, err := rt.Prompt.Password("Repeat password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", NewValidationError("password", "", "passwords do not match")
		}
	}
	return pw, nil
}

// userUpdateFromFlags builds a partial update. Role and active are only
// accepted when admin is true.
func userUpdateFromFlags(rt *Runtime, p *ArgParser, admin bool) (api.UserUpdate, error) {
	in := api.UserUpdate{
		Email:    p.StringPtr("email"),
		FullName: p.StringPtr("name"),
	}
	if p.BoolFlag("password") || p.BoolFlag("password-stdin") {
		pw, err := newPassword(rt)
		if err != nil {
			return in, err
		}
		in.Password = &pw
	}
	if !admin {
		if p.HasFlag("role") || p.HasFlag("active") {
			return in, NewValidationError("flags", "", "--role and --active need 'ytnews users update'")
		}
		return in, nil
	}
	if s := p.Flag("role"); s != "" {
		role, err := access.ParseRole(s)
		if err != nil {
			return in, NewValidationErrorWithExample("role", s, "unknown role", "user, moderator or admin")
		}
		in.Role = &role
	}
	active, err := p.BoolPtr("active")
	if err != nil {
		return in, err
	}
	in.IsActive = active
	return in, nil
}

// =============================================================================
// USERS (ADMIN)
// =============================================================================

// HandleUsers handles "ytnews users".
func HandleUsers(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "confirm", "password", "password-stdin")
	if _, err := rt.Gate(access.RouteAdminUsers, "users"); err != nil {
		return err
	}
	switch p.Subcommand() {
	case "", "list", "ls":
		return listUsers(rt, p)
	case "show", "get":
		id, err := ParseID(p.Positional(1), "id")
		if err != nil {
			return err
		}
		u, err := rt.Client.Users.Get(rt.Context(), id)
		if err != nil {
			return NewCommandError("users", "show", err)
		}
		return printUser(rt, "users show", u)
	case "create", "new":
		return createUser(rt, p)
	case "update", "edit":
		return updateUser(rt, p)
	case "delete", "rm":
		return deleteUser(rt, p)
	default:
		return ErrUnknownSubcommand("users", p.Subcommand(), "list", "show", "create", "update", "delete")
	}
}

func listUsers(rt *Runtime, p *ArgParser) error {
	skip, err := p.FlagInt("skip", 0)
	if err != nil {
		return err
	}
	limit, err := p.FlagInt("limit", 100)
	if err != nil {
		return err
	}
	users, err := rt.Client.Users.List(rt.Context(), skip, limit)
	if err != nil {
		return NewCommandError("users", "list", err)
	}
	if !rt.Text() {
		return rt.Print("users list", users)
	}
	t := newTable([]string{"ID", "EMAIL", "NAME", "ROLE", "ACTIVE"}, 0, 36, 28)
	for _, u := range users {
		t.add(strconv.Itoa(u.ID), u.Email, u.FullName, string(u.Role), yesNo(u.IsActive))
	}
	t.render(rt.Out)
	return nil
}

func createUser(rt *Runtime, p *ArgParser) error {
	email := p.Flag("email")
	if email == "" {
		return ErrMissingArgument("email", "--email new@example.com")
	}
	role := access.RoleUser
	if s := p.Flag("role"); s != "" {
		var err error
		if role, err = access.ParseRole(s); err != nil {
			return NewValidationErrorWithExample("role", s, "unknown role", "user, moderator or admin")
		}
	}
	pw, err := newPassword(rt)
	if err != nil {
		return err
	}
	u, err := rt.Client.Users.Create(rt.Context(), api.UserCreate{
		Email:    email,
		Password: pw,
		FullName: p.Flag("name"),
		Role:     role,
	})
	if err != nil {
		return NewCommandError("users", "create", err)
	}
	return rt.Done("users create", fmt.Sprintf("Created user %d (%s, %s)", u.ID, u.Email, u.Role), u)
}

func updateUser(rt *Runtime, p *ArgParser) error {
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	in, err := userUpdateFromFlags(rt, p, true)
	if err != nil {
		return err
	}
	u, err := rt.Client.Users.Update(rt.Context(), id, in)
	if err != nil {
		return NewCommandError("users", "update", err)
	}
	if snap := rt.Holder.Snapshot(); snap.User != nil && snap.User.ID == u.ID {
		rt.Holder.LoadUser(rt.ctx)
	}
	return rt.Done("users update", fmt.Sprintf("Updated user %d", u.ID), u)
}

func deleteUser(rt *Runtime, p *ArgParser) error {
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("delete user %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Users.Delete(rt.Context(), id); err != nil {
		return NewCommandError("users", "delete", err)
	}
	return rt.Done("users delete", fmt.Sprintf("Deleted user %d", id), nil)
}
