// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for ytnews.
//
// Command: status
// Short:   API reachability, session, cache and config at a glance
// Aliases: s
//
// Examples:
//   ytnews status
//   ytnews s --json
//
// Status Sections:
//   API:      Base URL, reachability and latency
//   Session:  Signed-in user, role, token expiry and where it is stored
//   Cache:    Backend, entries, TTL
//   Config:   Config file and audit log locations

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/cache"
	"github.com/jeranaias/ytnews-tui/internal/config"
)

// StatusData is the machine output of the status command.
type StatusData struct {
	API     StatusAPIInfo    `json:"api"`
	Session SessionData      `json:"session"`
	Cache   cache.Stats      `json:"cache"`
	Config  StatusConfigInfo `json:"config"`
}

// StatusAPIInfo describes the backend.
type StatusAPIInfo struct {
	BaseURL   string `json:"base_url"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusConfigInfo lists the files ytnews uses.
type StatusConfigInfo struct {
	ConfigFile string `json:"config_file"`
	TokenFile  string `json:"token_file,omitempty"`
	Encrypted  bool   `json:"token_encrypted"`
	AuditLog   string `json:"audit_log,omitempty"`
}

func collectStatus(rt *Runtime) StatusData {
	var data StatusData

	data.API.BaseURL = rt.Client.BaseURL()
	ctx, cancel := context.WithTimeout(rt.ctx, 5*time.Second)
	latency, err := rt.Client.Ping(ctx)
	cancel()
	if err != nil {
		data.API.Error = err.Error()
	} else {
		data.API.Reachable = true
		data.API.LatencyMS = latency.Milliseconds()
	}

	// Skip rehydration when the API is down; LoadUser would drop the token
	if data.API.Reachable {
		data.Session = sessionData(rt.Session(), time.Now())
	}

	data.Cache, _ = rt.Client.Cache().Stats(rt.ctx)

	data.Config.ConfigFile, _ = config.ConfigPathTOML()
	if !rt.Args.NoPersist {
		data.Config.TokenFile, _ = rt.Config.TokenPath()
		data.Config.Encrypted = rt.Config.Session.EncryptToken
	}
	if rt.Config.Audit.Enabled {
		data.Config.AuditLog, _ = rt.Config.AuditPath()
	}
	return data
}

// HandleStatus handles "ytnews status".
func HandleStatus(rt *Runtime, args Args) error {
	data := collectStatus(rt)
	if !rt.Text() {
		return rt.Print("status", data)
	}

	w := rt.Out
	printTitle(w, "ytnews Status")
	fmt.Fprintln(w, RenderSeparator(41))

	fmt.Fprintln(w, SectionStyle.Render("API"))
	printField(w, "Base URL", data.API.BaseURL)
	if data.API.Reachable {
		printField(w, "Reachable", fmt.Sprintf("%s %s", RenderStatus("ok"),
			formatDurationShort(time.Duration(data.API.LatencyMS)*time.Millisecond)))
	} else {
		printField(w, "Reachable", fmt.Sprintf("%s %s", RenderStatus("fail"), data.API.Error))
	}

	fmt.Fprintln(w, SectionStyle.Render("Session"))
	switch {
	case !data.API.Reachable:
		printField(w, "User", DimStyle.Render("unknown (API unreachable)"))
	case data.Session.User != nil:
		u := data.Session.User
		printField(w, "User", fmt.Sprintf("%s <%s>", u.DisplayName(), u.Email))
		printField(w, "Role", string(u.Role))
		if data.Session.ExpiresIn != "" {
			printField(w, "Token expires in", data.Session.ExpiresIn)
		}
	default:
		printField(w, "User", DimStyle.Render("not signed in"))
	}

	fmt.Fprintln(w, SectionStyle.Render("Cache"))
	printField(w, "Backend", data.Cache.Backend)
	if rt.Config.Cache.Enabled {
		printField(w, "Entries", fmt.Sprint(data.Cache.Entries))
		printField(w, "TTL", formatDuration(rt.Config.CacheTTL()))
	}

	fmt.Fprintln(w, SectionStyle.Render("Config"))
	printField(w, "Config file", data.Config.ConfigFile)
	if data.Config.TokenFile != "" {
		token := data.Config.TokenFile
		if data.Config.Encrypted {
			token += " (encrypted)"
		}
		printField(w, "Token file", token)
	} else {
		printField(w, "Token file", "memory only (--no-persist)")
	}
	if data.Config.AuditLog != "" {
		printField(w, "Audit log", data.Config.AuditLog)
	}
	return nil
}
