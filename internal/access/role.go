// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package access

import (
	"fmt"
	"strings"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is a user role exactly as the backend serializes it.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Rank is the position of a role in the fixed capability order.
type Rank int

const (
	// RankNone is the rank of an unknown or empty role.
	RankNone Rank = iota
	RankUser
	RankModerator
	RankAdmin
)

// Roles lists the known roles from lowest to highest rank.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Rank returns the role's position in the order. Unknown roles return RankNone.
func (r Role) Rank() Rank {
	switch r {
	case RoleUser:
		return RankUser
	case RoleModerator:
		return RankModerator
	case RoleAdmin:
		return RankAdmin
	default:
		return RankNone
	}
}

// Known reports whether r is one of the three defined roles.
func (r Role) Known() bool {
	return r.Rank() != RankNone
}

// AtLeast reports whether r ranks at or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank()
}

// Compare returns -1, 0 or 1 as a ranks below, equal to or above b.
func Compare(a, b Role) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Known() {
		return "", fmt.Errorf("unknown role %q (user, moderator, admin)", s)
	}
	return r, nil
}

func (r Role) String() string {
	if r == "" {
		return "none"
	}
	return string(r)
}

func (k Rank) String() string {
	switch k {
	case RankUser:
		return "user"
	case RankModerator:
		return "moderator"
	case RankAdmin:
		return "admin"
	default:
		return "none"
	}
}

// ShowAdminLink reports whether navigation should offer the admin area.
func ShowAdminLink(r Role) bool {
	return r.AtLeast(RoleModerator)
}
