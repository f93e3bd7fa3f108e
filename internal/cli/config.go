// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration commands.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Effective configuration as TOML (file, env and flags applied)
//   get <key>           One value, e.g. api.base_url
//   set <key> <value>   Write one value to ~/.ytnews/config.toml
//   path                Where the config file lives
//   keys                Every settable key
//
// Examples:
//   ytnews config set api.base_url https://news.example.edu/api/v1
//   ytnews config set cache.backend sqlite
//   ytnews config get ui.theme
//
// Environment:
//   YTNEWS_HOME, YTNEWS_API_URL, YTNEWS_TIMEOUT, YTNEWS_TOKEN_FILE,
//   YTNEWS_CACHE, YTNEWS_CACHE_BACKEND, YTNEWS_AUDIT, YTNEWS_THEME

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

// ConfigValue is the machine output of config get and set.
type ConfigValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// HandleConfig handles "ytnews config".
func HandleConfig(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "show":
		if !rt.Text() {
			return rt.Print("config show", rt.Config)
		}
		return toml.NewEncoder(rt.Out).Encode(rt.Config)
	case "get":
		return configGet(rt, p.Positional(1))
	case "set":
		return configSet(rt, p.Positional(1), p.Positional(2), p.PositionalCount() >= 3)
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if !rt.Text() {
			return rt.Print("config path", map[string]string{"path": path})
		}
		fmt.Fprintln(rt.Out, path)
		return nil
	case "keys":
		if !rt.Text() {
			return rt.Print("config keys", config.AllKeys())
		}
		for _, k := range config.AllKeys() {
			fmt.Fprintln(rt.Out, k)
		}
		return nil
	default:
		return ErrUnknownSubcommand("config", p.Subcommand(), "show", "get", "set", "path", "keys")
	}
}

func configGet(rt *Runtime, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "ytnews config get api.base_url")
	}
	v, err := rt.Config.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "run 'ytnews config keys'")
	}
	if !rt.Text() {
		return rt.Print("config get", ConfigValue{Key: key, Value: v})
	}
	fmt.Fprintln(rt.Out, v)
	return nil
}

// configSet edits the file itself, not the effective config, so env
// overrides and --api never leak into it.
func configSet(rt *Runtime, key, value string, hasValue bool) error {
	if key == "" || !hasValue {
		return ErrMissingArgument("key and value", "ytnews config set cache.backend sqlite")
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "run 'ytnews config keys'")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	v, _ := cfg.Get(key)
	return rt.Done("config set", fmt.Sprintf("%s = %v", key, v), ConfigValue{Key: key, Value: v})
}
