// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ytnews.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend URL, timeouts, retry and rate limit settings
//   - SessionConfig: Token file location, at-rest sealing, live reload
//   - CacheConfig: Response cache backend and lifetime
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (YTNEWS_*)
//   - ~/.ytnews/config.toml
//   - ~/.ytnews/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL).WithTimeout(cfg.Timeout())
package config
