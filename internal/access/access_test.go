// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_Rank(t *testing.T) {
	tests := []struct {
		role Role
		want Rank
	}{
		{RoleUser, 1},
		{RoleModerator, 2},
		{RoleAdmin, 3},
		{"", 0},
		{"superuser", 0},
		{"ADMIN", 0}, // wire roles are lowercase
	}
	for _, tt := range tests {
		if got := tt.role.Rank(); got != tt.want {
			t.Errorf("Role(%q).Rank() = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	all := append([]Role{"bogus"}, Roles...)
	for i, a := range all {
		for j, b := range all {
			got := Compare(a, b)
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", a, b, got, want)
			}
			// Antisymmetry
			if Compare(b, a) != -got {
				t.Errorf("Compare not antisymmetric for %s, %s", a, b)
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Moderator ")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestShowAdminLink(t *testing.T) {
	assert.False(t, ShowAdminLink(""))
	assert.False(t, ShowAdminLink(RoleUser))
	assert.True(t, ShowAdminLink(RoleModerator))
	assert.True(t, ShowAdminLink(RoleAdmin))
}

// =============================================================================
// GUARD TESTS
// =============================================================================

func TestDecide_LoadingNeverRedirects(t *testing.T) {
	for _, req := range []Requirement{Require(RoleUser), Require(RoleModerator), Require(RoleAdmin), Require("weird")} {
		for _, auth := range []bool{false, true} {
			for _, role := range []Role{"", RoleUser, RoleAdmin} {
				d := Decide(req, Subject{Loading: true, Authenticated: auth, Role: role})
				if d.IsRedirect() {
					t.Errorf("loading session redirected: req=%s auth=%v role=%s -> %s", req, auth, role, d)
				}
				assert.Equal(t, Defer, d)
			}
		}
	}
}

func TestDecide_PublicAlwaysRenders(t *testing.T) {
	subjects := []Subject{
		{},
		{Loading: true},
		{Authenticated: true, Role: RoleUser},
	}
	for _, s := range subjects {
		assert.Equal(t, Render, Decide(Public, s))
	}
}

func TestDecide_RankTable(t *testing.T) {
	roles := []Role{"", "unknown", RoleUser, RoleModerator, RoleAdmin}
	required := []Role{"unknown", RoleUser, RoleModerator, RoleAdmin}

	for _, req := range required {
		for _, role := range roles {
			// Authenticated: render iff userRank >= requiredRank
			got := Decide(Require(req), Subject{Authenticated: true, Role: role})
			want := RedirectHome
			if role.Rank() >= req.Rank() {
				want = Render
			}
			if got != want {
				t.Errorf("authenticated %q vs required %q: got %s, want %s", role, req, got, want)
			}

			// Anonymous: always to login when a level is declared
			if got := Decide(Require(req), Subject{Role: role}); got != RedirectLogin {
				t.Errorf("anonymous vs required %q: got %s, want redirect-login", req, got)
			}
		}
	}
}

func TestDecide_Scenarios(t *testing.T) {
	mod := Require(RoleModerator)
	admin := Require(RoleAdmin)

	tests := []struct {
		name string
		req  Requirement
		s    Subject
		want Decision
	}{
		{"anonymous to moderator view", mod, Subject{}, RedirectLogin},
		{"plain user to moderator view", mod, Subject{Authenticated: true, Role: RoleUser}, RedirectHome},
		{"moderator to moderator view", mod, Subject{Authenticated: true, Role: RoleModerator}, Render},
		{"admin to admin view", admin, Subject{Authenticated: true, Role: RoleAdmin}, Render},
		{"moderator to admin view", admin, Subject{Authenticated: true, Role: RoleModerator}, RedirectHome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.req, tt.s)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecision_Target(t *testing.T) {
	assert.Equal(t, "/login", RedirectLogin.Target())
	assert.Equal(t, "/", RedirectHome.Target())
	assert.Equal(t, "", Render.Target())
	assert.Equal(t, "", Defer.Target())
}

// =============================================================================
// ROUTE TESTS
// =============================================================================

func TestMatch(t *testing.T) {
	tests := []struct {
		path   string
		name   RouteName
		params Params
	}{
		{"/", RouteHome, nil},
		{"", RouteHome, nil},
		{"/announcements/city-news", RouteAnnouncement, Params{"slug": "city-news"}},
		{"/organizations/", RouteOrganizations, nil},
		{"/events/open-day?ref=home", RouteEvent, Params{"slug": "open-day"}},
		{"/admin/announcements/new", RouteAdminAnnouncementNew, nil},
		{"/admin/announcements/edit/42", RouteAdminAnnouncementEdit, Params{"id": "42"}},
		{"/admin/users", RouteAdminUsers, nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, params, ok := Match(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.name, r.Name)
			assert.Equal(t, tt.params, params)
		})
	}

	_, _, ok := Match("/nowhere/at/all")
	assert.False(t, ok)
}

func TestRoutes_RequirementsMatchNavigation(t *testing.T) {
	want := map[RouteName]Requirement{
		RouteHome:                  Public,
		RouteLogin:                 Public,
		RouteProfile:               Require(RoleUser),
		RouteAdmin:                 Require(RoleModerator),
		RouteAdminCategories:       Require(RoleModerator),
		RouteAdminAnnouncementEdit: Require(RoleModerator),
		RouteAdminUsers:            Require(RoleAdmin),
	}
	for name, req := range want {
		r, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, req, r.Requirement, name)
	}
}

func TestRoute_Path(t *testing.T) {
	r, _ := Lookup(RouteAdminAnnouncementEdit)
	assert.Equal(t, "/admin/announcements/edit/9", r.Path(Params{"id": "9"}))

	home, _ := Lookup(RouteHome)
	assert.Equal(t, "/", home.Path(nil))
}

func TestEvaluate(t *testing.T) {
	d, r, params := Evaluate("/admin/announcements/edit/3", Subject{Authenticated: true, Role: RoleModerator})
	assert.Equal(t, Render, d)
	assert.Equal(t, RouteAdminAnnouncementEdit, r.Name)
	assert.Equal(t, "3", params["id"])

	d, _, _ = Evaluate("/admin/users", Subject{Authenticated: true, Role: RoleModerator})
	assert.Equal(t, RedirectHome, d)

	d, _, _ = Evaluate("/does-not-exist", Subject{})
	assert.Equal(t, RedirectHome, d)
}
