// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cache_cmd.go - Response cache commands.
//
// Command: cache [subcommand]
//
// Subcommands:
//   stats (default)     Backend, entry count and hit rate
//   clear               Drop every cached response
//
// Examples:
//   ytnews cache
//   ytnews cache stats --json
//   ytnews cache clear
//
// Hits and misses count this process only. With the sqlite backend the
// entries survive between runs; the memory backend starts empty each time.

package cli

import (
	"fmt"
)

// HandleCache handles "ytnews cache".
func HandleCache(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "stats":
		return showCacheStats(rt)
	case "clear":
		return clearCache(rt)
	default:
		return ErrUnknownSubcommand("cache", p.Subcommand(), "stats", "clear")
	}
}

func showCacheStats(rt *Runtime) error {
	stats, err := rt.Client.Cache().Stats(rt.ctx)
	if err != nil {
		return NewCommandError("cache", "stats", err)
	}
	if !rt.Text() {
		return rt.Print("cache stats", stats)
	}

	printTitle(rt.Out, "ytnews Cache")
	printField(rt.Out, "Backend", stats.Backend)
	if !rt.Config.Cache.Enabled {
		printField(rt.Out, "Enabled", "no")
		return nil
	}
	if stats.Backend == "sqlite" {
		if path, err := rt.Config.CachePath(); err == nil {
			printField(rt.Out, "Path", path)
		}
	}
	printField(rt.Out, "Entries", fmt.Sprint(stats.Entries))
	printField(rt.Out, "TTL", formatDuration(rt.Config.CacheTTL()))
	printField(rt.Out, "Hit Rate", fmt.Sprintf("%.0f%% (%d hits, %d misses)", stats.HitRate*100, stats.Hits, stats.Misses))
	return nil
}

func clearCache(rt *Runtime) error {
	stats, _ := rt.Client.Cache().Stats(rt.ctx)
	if err := rt.Client.ClearCache(rt.ctx); err != nil {
		return NewCommandError("cache", "clear", err)
	}
	return rt.Done("cache clear", fmt.Sprintf("Cleared %d cached responses", stats.Entries), nil)
}
