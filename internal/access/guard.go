// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package access

// =============================================================================
// REQUIREMENTS
// =============================================================================

// Requirement is the minimum role a view declares. The zero value is Public.
type Requirement struct {
	role Role
	set  bool
}

// Public is the requirement of views anyone may open, signed in or not.
var Public = Requirement{}

// Require declares a minimum role. A role outside the known set still counts
// as declared: anonymous visitors are sent to login, and any signed-in user
// passes because the requirement ranks as RankNone.
func Require(r Role) Requirement {
	return Requirement{role: r, set: true}
}

// Declared reports whether any requirement is present.
func (q Requirement) Declared() bool { return q.set }

// Role returns the required role, empty for Public.
func (q Requirement) Role() Role { return q.role }

func (q Requirement) String() string {
	if !q.set {
		return "public"
	}
	return q.role.String()
}

// =============================================================================
// DECISIONS
// =============================================================================

// Decision is the guard's verdict for one render.
type Decision int

const (
	// Defer means the session is still rehydrating: show a loading
	// indicator and decide again on the next render.
	Defer Decision = iota
	RedirectLogin
	RedirectHome
	Render
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

func (d Decision) String() string {
	switch d {
	case Defer:
		return "defer"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Target returns the path a redirect decision points at, or "" otherwise.
func (d Decision) Target() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	default:
		return ""
	}
}

// IsRedirect reports whether the decision navigates away.
func (d Decision) IsRedirect() bool {
	return d == RedirectLogin || d == RedirectHome
}

// =============================================================================
// GUARD
// =============================================================================

// Subject is what the guard needs to know about the current session.
type Subject struct {
	Loading       bool
	Authenticated bool
	Role          Role
}

// Decide gates a view. Public views always render. A protected view defers
// while the session is loading so a rehydrating user is never bounced to
// the login screen.
func Decide(req Requirement, s Subject) Decision {
	if !req.set {
		return Render
	}
	if s.Loading {
		return Defer
	}
	if !s.Authenticated {
		return RedirectLogin
	}
	if s.Role.Rank() < req.role.Rank() {
		return RedirectHome
	}
	return Render
}
