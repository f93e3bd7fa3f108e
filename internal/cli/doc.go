// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for ytnews.
//
// Every screen of the TUI has a scriptable counterpart here. Commands share
// one Runtime that owns the config, API client and session holder, and
// writes are gated with the same route rules the TUI applies.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global flags
//   - Runtime: Config, client, session and output for one invocation
//   - Printer: JSON and YAML output with a stable envelope
//
// # Usage
//
//	cmd, args := cli.Parse()
//	rt, err := cli.NewRuntime(ctx, args)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//	return cli.Run(rt, cmd, args)
//
// # Commands Overview
//
// Session:
//   - login, logout, whoami, register
//   - status: API, session, cache and config at a glance
//
// Content:
//   - announcements, categories, events, upload
//
// Organizations:
//   - orgs, employees, join
//
// Accounts:
//   - me, users
//
// Tooling:
//   - cache, config, shell, version
//
// All commands support --json and --yaml. Exit codes are listed in
// errors.go.
package cli
