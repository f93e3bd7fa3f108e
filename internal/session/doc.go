// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the signed-in identity of a ytnews process.
//
// A Holder keeps one immutable Snapshot (status, bearer token, profile)
// and replaces it whole on every mutation. Only Login, Logout and LoadUser
// mutate it. A generation counter lets a slow LoadUser or Login notice that
// a newer mutation won the race and drop its result.
//
// # Key Types
//
//   - Holder: the session state holder, safe for concurrent use
//   - Snapshot: an immutable view of the session
//   - TokenStore: durable single-key token storage (MemoryStore, FileStore, SealedFileStore)
//   - TokenWatcher: reloads the session when another process changes the token file
//
// # Usage
//
//	store, _ := session.OpenStore(cfg)
//	h := session.NewHolder(client.Auth, store, auditLog)
//	h.LoadUser(ctx)
//	if h.Snapshot().Authenticated() {
//	    fmt.Println(h.Snapshot().User.Email)
//	}
package session
