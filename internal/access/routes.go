// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package access

import "strings"

// =============================================================================
// ROUTE TABLE
// =============================================================================

// RouteName identifies a screen independent of its path parameters.
type RouteName string

const (
	RouteHome                  RouteName = "home"
	RouteAnnouncement          RouteName = "announcement"
	RouteOrganizations         RouteName = "organizations"
	RouteOrganization          RouteName = "organization"
	RouteEvents                RouteName = "events"
	RouteEvent                 RouteName = "event"
	RouteLogin                 RouteName = "login"
	RouteRegister              RouteName = "register"
	RouteProfile               RouteName = "profile"
	RouteAdmin                 RouteName = "admin"
	RouteAdminAnnouncements    RouteName = "admin-announcements"
	RouteAdminAnnouncementNew  RouteName = "admin-announcement-new"
	RouteAdminAnnouncementEdit RouteName = "admin-announcement-edit"
	RouteAdminCategories       RouteName = "admin-categories"
	RouteAdminUsers            RouteName = "admin-users"
)

// Route binds a path pattern to a screen and the role it requires.
// Pattern segments starting with ':' capture a parameter.
type Route struct {
	Name        RouteName
	Pattern     string
	Requirement Requirement
}

// Params holds the captured path parameters of a matched route.
type Params map[string]string

// Routes is the complete screen table.
var Routes = []Route{
	{RouteHome, "/", Public},
	{RouteAnnouncement, "/announcements/:slug", Public},
	{RouteOrganizations, "/organizations", Public},
	{RouteOrganization, "/organizations/:slug", Public},
	{RouteEvents, "/events", Public},
	{RouteEvent, "/events/:slug", Public},
	{RouteLogin, "/login", Public},
	{RouteRegister, "/register", Public},

	{RouteProfile, "/profile", Require(RoleUser)},

	{RouteAdmin, "/admin", Require(RoleModerator)},
	{RouteAdminAnnouncements, "/admin/announcements", Require(RoleModerator)},
	{RouteAdminAnnouncementNew, "/admin/announcements/new", Require(RoleModerator)},
	{RouteAdminAnnouncementEdit, "/admin/announcements/edit/:id", Require(RoleModerator)},
	{RouteAdminCategories, "/admin/categories", Require(RoleModerator)},

	{RouteAdminUsers, "/admin/users", Require(RoleAdmin)},
}

// Match finds the route for path. Query strings and trailing slashes are ignored.
func Match(path string) (Route, Params, bool) {
	segs := splitPath(path)
	for _, r := range Routes {
		if params, ok := matchPattern(splitPath(r.Pattern), segs); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Lookup returns the route registered under name.
func Lookup(name RouteName) (Route, bool) {
	for _, r := range Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Path fills a route's pattern with params.
func (r Route) Path(params Params) string {
	segs := splitPath(r.Pattern)
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = params[s[1:]]
		}
	}
	return "/" + strings.Join(segs, "/")
}

// Evaluate matches path and runs the guard. Unknown paths redirect home.
func Evaluate(path string, s Subject) (Decision, Route, Params) {
	r, params, ok := Match(path)
	if !ok {
		return RedirectHome, Route{}, nil
	}
	return Decide(r.Requirement, s), r, params
}

func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchPattern(pattern, segs []string) (Params, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params Params
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = Params{}
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
