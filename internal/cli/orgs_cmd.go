// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// orgs_cmd.go - Organization, employee and join request commands.
//
// Command: orgs [subcommand]
// Aliases: org, organizations
//
// Subcommands:
//   list (default)      All organizations
//   show <slug|id>      One organization
//   create              --name N [--slug S] [--description D] [--logo URL]
//                       [--website URL] [--email E]                  (moderator)
//   update <id>         Same flags plus --active BOOL                  (moderator)
//   delete <id>         [--confirm]                                    (moderator)
//
// Command: employees [subcommand]
// Aliases: staff
//
// Subcommands:
//   my (default)        Organizations you belong to
//   list <org-id>       Staff of an organization
//   add                 --user ID --org ID --position P [--can-post]   (moderator)
//   update <id>         [--position P] [--active BOOL] [--can-post BOOL] (moderator)
//   remove <id>         [--confirm]                                    (moderator)
//
// Command: join [subcommand]
//
// Subcommands:
//   request <org>       --position P [--message M]
//   list <org-id>       Pending requests for an organization
//   accept <id>         Accept a request
//   reject <id>         Reject a request
//
// The backend decides who may manage staff and requests. can_post is shown
// but never enforced here.

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/util"
)

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// HandleOrgs handles "ytnews orgs".
func HandleOrgs(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "confirm")
	switch p.Subcommand() {
	case "", "list", "ls":
		return listOrgs(rt, p)
	case "show", "get":
		return showOrg(rt, p.Positional(1))
	case "create", "new":
		return createOrg(rt, p)
	case "update", "edit":
		return updateOrg(rt, p)
	case "delete", "rm":
		return deleteOrg(rt, p)
	default:
		return ErrUnknownSubcommand("orgs", p.Subcommand(), "list", "show", "create", "update", "delete")
	}
}

func listOrgs(rt *Runtime, p *ArgParser) error {
	skip, err := p.FlagInt("skip", 0)
	if err != nil {
		return err
	}
	limit, err := p.FlagInt("limit", 100)
	if err != nil {
		return err
	}
	orgs, err := rt.Client.Organizations.List(rt.Context(), skip, limit)
	if err != nil {
		return NewCommandError("orgs", "list", err)
	}
	if !rt.Text() {
		return rt.Print("orgs list", orgs)
	}
	t := newTable([]string{"ID", "NAME", "SLUG", "ACTIVE", "WEBSITE"}, 0, 36, 28, 0, 40)
	for _, o := range orgs {
		t.add(strconv.Itoa(o.ID), o.Name, o.Slug, yesNo(o.IsActive), o.Website)
	}
	t.render(rt.Out)
	return nil
}

// fetchOrg accepts a numeric id or a slug.
func fetchOrg(rt *Runtime, ref string) (*api.Organization, error) {
	if ref == "" {
		return nil, ErrMissingArgument("organization", "<slug|id>")
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return rt.Client.Organizations.Get(rt.Context(), id)
	}
	return rt.Client.Organizations.GetBySlug(rt.Context(), ref)
}

func showOrg(rt *Runtime, ref string) error {
	o, err := fetchOrg(rt, ref)
	if err != nil {
		return NewCommandError("orgs", "show", err)
	}
	if !rt.Text() {
		return rt.Print("orgs show", o)
	}
	printTitle(rt.Out, o.Name)
	printField(rt.Out, "ID", strconv.Itoa(o.ID))
	printField(rt.Out, "Slug", o.Slug)
	printField(rt.Out, "Active", yesNo(o.IsActive))
	printField(rt.Out, "Website", o.Website)
	printField(rt.Out, "Email", o.Email)
	printField(rt.Out, "Logo", o.Logo)
	printField(rt.Out, "Description", o.Description)
	return nil
}

func createOrg(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "orgs create"); err != nil {
		return err
	}
	name := p.Flag("name")
	if name == "" {
		return ErrMissingArgument("name", `--name "Student Council"`)
	}
	o, err := rt.Client.Organizations.Create(rt.Context(), api.OrganizationCreate{
		Name:        name,
		Slug:        p.FlagOrDefault("slug", util.Slugify(name)),
		Description: p.Flag("description"),
		Logo:        p.Flag("logo"),
		Website:     p.Flag("website"),
		Email:       p.Flag("email"),
	})
	if err != nil {
		return NewCommandError("orgs", "create", err)
	}
	return rt.Done("orgs create", fmt.Sprintf("Created organization %d (%s)", o.ID, o.Slug), o)
}

func updateOrg(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "orgs update"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	active, err := p.BoolPtr("active")
	if err != nil {
		return err
	}
	o, err := rt.Client.Organizations.Update(rt.Context(), id, api.OrganizationUpdate{
		Name:        p.StringPtr("name"),
		Slug:        p.StringPtr("slug"),
		Description: p.StringPtr("description"),
		Logo:        p.StringPtr("logo"),
		Website:     p.StringPtr("website"),
		Email:       p.StringPtr("email"),
		IsActive:    active,
	})
	if err != nil {
		return NewCommandError("orgs", "update", err)
	}
	return rt.Done("orgs update", fmt.Sprintf("Updated organization %d", o.ID), o)
}

func deleteOrg(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "orgs delete"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("delete organization %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Organizations.Delete(rt.Context(), id); err != nil {
		return NewCommandError("orgs", "delete", err)
	}
	return rt.Done("orgs delete", fmt.Sprintf("Deleted organization %d", id), nil)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// HandleEmployees handles "ytnews employees".
func HandleEmployees(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "confirm")
	switch p.Subcommand() {
	case "", "my", "mine":
		return myEmployments(rt)
	case "list", "ls":
		return listEmployees(rt, p)
	case "add", "create":
		return addEmployee(rt, p)
	case "update", "edit":
		return updateEmployee(rt, p)
	case "remove", "rm", "delete":
		return removeEmployee(rt, p)
	default:
		return ErrUnknownSubcommand("employees", p.Subcommand(), "my", "list", "add", "update", "remove")
	}
}

func printEmployees(rt *Runtime, command string, staff []api.Employee) error {
	if !rt.Text() {
		return rt.Print(command, staff)
	}
	t := newTable([]string{"ID", "USER", "ORGANIZATION", "POSITION", "ACTIVE", "CAN POST"}, 0, 28, 28, 28)
	for _, e := range staff {
		user := strconv.Itoa(e.UserID)
		if e.User != nil {
			user = e.User.DisplayName()
		}
		org := strconv.Itoa(e.OrganizationID)
		if e.Organization != nil {
			org = e.Organization.Name
		}
		t.add(strconv.Itoa(e.ID), user, org, e.Position, yesNo(e.IsActive), yesNo(e.CanPost))
	}
	t.render(rt.Out)
	return nil
}

func myEmployments(rt *Runtime) error {
	if _, err := rt.Gate(access.RouteProfile, "employees my"); err != nil {
		return err
	}
	staff, err := rt.Client.Employees.MyOrganizations(rt.Context())
	if err != nil {
		return NewCommandError("employees", "my", err)
	}
	return printEmployees(rt, "employees my", staff)
}

func listEmployees(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteProfile, "employees list"); err != nil {
		return err
	}
	orgID, err := ParseID(p.Positional(1), "org-id")
	if err != nil {
		return err
	}
	staff, err := rt.Client.Employees.ByOrganization(rt.Context(), orgID)
	if err != nil {
		return NewCommandError("employees", "list", err)
	}
	return printEmployees(rt, "employees list", staff)
}

func addEmployee(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "employees add"); err != nil {
		return err
	}
	userID, err := ParseID(p.Flag("user"), "user")
	if err != nil {
		return err
	}
	orgID, err := ParseID(p.Flag("org"), "org")
	if err != nil {
		return err
	}
	canPost, err := p.BoolPtr("can-post")
	if err != nil {
		return err
	}
	e, err := rt.Client.Employees.Create(rt.Context(), api.EmployeeCreate{
		UserID:         userID,
		OrganizationID: orgID,
		Position:       p.Flag("position"),
		CanPost:        canPost,
	})
	if err != nil {
		return NewCommandError("employees", "add", err)
	}
	return rt.Done("employees add", fmt.Sprintf("Added employee %d", e.ID), e)
}

func updateEmployee(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "employees update"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	active, err := p.BoolPtr("active")
	if err != nil {
		return err
	}
	canPost, err := p.BoolPtr("can-post")
	if err != nil {
		return err
	}
	e, err := rt.Client.Employees.Update(rt.Context(), id, api.EmployeeUpdate{
		Position: p.StringPtr("position"),
		IsActive: active,
		CanPost:  canPost,
	})
	if err != nil {
		return NewCommandError("employees", "update", err)
	}
	return rt.Done("employees update", fmt.Sprintf("Updated employee %d", e.ID), e)
}

func removeEmployee(rt *Runtime, p *ArgParser) error {
	if _, err := rt.Gate(access.RouteAdmin, "employees remove"); err != nil {
		return err
	}
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	if err := RequireConfirmation(rt.Prompt, p.BoolFlag("confirm"), fmt.Sprintf("remove employee %d", id), rt.Format()); err != nil {
		return err
	}
	if err := rt.Client.Employees.Delete(rt.Context(), id); err != nil {
		return NewCommandError("employees", "remove", err)
	}
	return rt.Done("employees remove", fmt.Sprintf("Removed employee %d", id), nil)
}

// =============================================================================
// JOIN REQUESTS
// =============================================================================

// HandleJoin handles "ytnews join".
func HandleJoin(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw)
	if _, err := rt.Gate(access.RouteProfile, "join "+p.Subcommand()); err != nil {
		return err
	}
	switch p.Subcommand() {
	case "request":
		return requestJoin(rt, p)
	case "list", "ls":
		orgID, err := ParseID(p.Positional(1), "org-id")
		if err != nil {
			return err
		}
		reqs, err := rt.Client.JoinRequests.ByOrganization(rt.Context(), orgID)
		if err != nil {
			return NewCommandError("join", "list", err)
		}
		return printJoinRequests(rt, pendingOnly(reqs))
	case "accept", "reject":
		return resolveJoin(rt, p)
	default:
		return ErrUnknownSubcommand("join", p.Subcommand(), "request", "list", "accept", "reject")
	}
}

func requestJoin(rt *Runtime, p *ArgParser) error {
	o, err := fetchOrg(rt, p.Positional(1))
	if err != nil {
		return NewCommandError("join", "request", err)
	}
	r, err := rt.Client.JoinRequests.Create(rt.Context(), api.JoinRequestCreate{
		OrganizationID: o.ID,
		Position:       p.Flag("position"),
		Message:        p.Flag("message"),
	})
	if err != nil {
		return NewCommandError("join", "request", err)
	}
	return rt.Done("join request", fmt.Sprintf("Asked to join %s (request %d, %s)", o.Name, r.ID, r.Status), r)
}

// pendingOnly drops requests that were already accepted or rejected.
func pendingOnly(reqs []api.JoinRequest) []api.JoinRequest {
	out := make([]api.JoinRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.Status == api.JoinPending {
			out = append(out, r)
		}
	}
	return out
}

func printJoinRequests(rt *Runtime, reqs []api.JoinRequest) error {
	if !rt.Text() {
		return rt.Print("join list", reqs)
	}
	t := newTable([]string{"ID", "USER", "POSITION", "STATUS", "CREATED", "MESSAGE"}, 0, 28, 24, 0, 0, 40)
	for _, r := range reqs {
		t.add(strconv.Itoa(r.ID), r.User.DisplayName(), r.Position, r.Status, formatTime(&r.CreatedAt), r.Message)
	}
	t.render(rt.Out)
	return nil
}

func resolveJoin(rt *Runtime, p *ArgParser) error {
	action := p.Subcommand()
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	var r *api.JoinRequest
	want := api.JoinAccepted
	if action == "accept" {
		r, err = rt.Client.JoinRequests.Accept(rt.Context(), id)
	} else {
		want = api.JoinRejected
		r, err = rt.Client.JoinRequests.Reject(rt.Context(), id)
	}
	if err != nil {
		return NewCommandError("join", action, err)
	}
	if r.Status != want {
		return NewCommandError("join", action, fmt.Errorf("request %d is %s, not %s", r.ID, r.Status, want))
	}
	return rt.Done("join "+action, fmt.Sprintf("Request %d %s", r.ID, r.Status), r)
}
