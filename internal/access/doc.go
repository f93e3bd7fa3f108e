// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package access implements role ranking and the access guard that gates
// every ytnews screen and command.
//
// # Key Types
//
//   - Role: the backend role string with a fixed total order
//     (user < moderator < admin; anything else ranks below user)
//   - Requirement: the minimum role a route declares, or Public
//   - Subject: the three guard inputs taken from a session snapshot
//   - Decision: Defer, RedirectLogin, RedirectHome or Render
//
// # Usage
//
//	route, params, ok := access.Match("/admin/announcements/edit/7")
//	switch access.Decide(route.Requirement, subject) {
//	case access.Defer:
//	    // show spinner
//	case access.Render:
//	    // draw the screen with params["id"]
//	}
//
// The guard holds no state; evaluate it on every render.
package access
