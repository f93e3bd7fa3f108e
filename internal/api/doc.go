// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the YTNews REST API.
//
// A Client is split into per-resource services:
//
//	c := api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Tokens: holder})
//	list, err := c.Announcements.ListPublished(ctx, 0, 20)
//
// Every request carries the bearer token from the configured TokenSource.
// Non-2xx responses become *APIError values whose Unwrap maps the status to
// one of the sentinel errors, so callers can test them with errors.Is.
//
// GET responses are cached by resource key when a cache is configured, and
// each mutation invalidates the keys it affects.
package api
