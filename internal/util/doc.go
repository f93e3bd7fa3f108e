// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across ytnews.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth, PadWidth: column-aware truncation for CLI tables
//   - SingleLine: collapse multi-line excerpts into one cell
//   - Slugify: derive URL slugs from titles, including Cyrillic text
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - RemoveIfExists: delete treating "not found" as success
//
// # Usage
//
//	slug := util.Slugify("Новости недели") // "novosti-nedeli"
//	cell := util.PadWidth(title, 40)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
