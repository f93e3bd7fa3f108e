// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache stores API responses keyed by resource identity.
//
// Keys name a resource ("announcements", "announcement/12",
// "event-registrations/4"). A key ending in "/*" is a pattern that matches
// every key under that prefix and is only meaningful to Invalidate.
//
// Two backends are provided:
//
//   - MemoryCache: in-process, LRU bounded, per-entry TTL
//   - SQLiteCache: persistent across runs, backed by modernc.org/sqlite
//
// Responses are per-identity, so callers clear the whole cache whenever
// the signed-in user changes.
package cache
