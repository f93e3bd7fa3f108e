// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ytnews.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.ytnews/config.toml
//   - ~/.ytnews/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ytnews-tui/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ytnews configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Remote YTNews API
	API APIConfig `toml:"api" json:"api"`

	// Token persistence and rehydration
	Session SessionConfig `toml:"session" json:"session"`

	// Client-side response cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Session audit log
	Audit AuditConfig `toml:"audit" json:"audit"`

	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig controls how the REST client talks to the backend.
type APIConfig struct {
	// BaseURL includes the version prefix, e.g. http://localhost:8000/api/v1
	BaseURL string `toml:"base_url" json:"base_url"`

	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// MaxRetries applies to idempotent requests that fail with 5xx or 429
	MaxRetries int `toml:"max_retries" json:"max_retries"`

	// RateLimitRPS caps outgoing requests per second (0 disables the limiter)
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	RateBurst    int     `toml:"rate_burst" json:"rate_burst"`

	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// SessionConfig controls where the bearer token lives.
type SessionConfig struct {
	// TokenFile defaults to ~/.ytnews/token
	TokenFile string `toml:"token_file" json:"token_file"`

	// EncryptToken seals the token at rest with a key kept beside it
	EncryptToken bool `toml:"encrypt_token" json:"encrypt_token"`

	// WatchToken reloads the session when another ytnews process logs in or out
	WatchToken bool `toml:"watch_token" json:"watch_token"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// Backend is "memory" or "sqlite"
	Backend string `toml:"backend" json:"backend"`

	TTLSecs    int    `toml:"ttl_secs" json:"ttl_secs"`
	Path       string `toml:"path" json:"path"`
	MaxEntries int    `toml:"max_entries" json:"max_entries"`
}

// AuditConfig controls the JSON-lines session audit log.
type AuditConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// UIConfig holds presentation settings shared by the TUI and CLI.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`

	MarkdownWidth int `toml:"markdown_width" json:"markdown_width"`

	// CodeStyle is the chroma style used for --json/--yaml output
	CodeStyle string `toml:"code_style" json:"code_style"`

	PageSize int `toml:"page_size" json:"page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:      "http://localhost:8000/api/v1",
			TimeoutSecs:  30,
			MaxRetries:   3,
			RateLimitRPS: 10,
			RateBurst:    20,
			UserAgent:    "ytnews-tui",
		},
		Session: SessionConfig{
			EncryptToken: false,
			WatchToken:   true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			TTLSecs:    60,
			MaxEntries: 512,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		UI: UIConfig{
			Theme:         "auto",
			MarkdownWidth: 80,
			CodeStyle:     "monokai",
			PageSize:      20,
		},
	}
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSecs) * time.Second
}

// TokenPath resolves the token file, defaulting into the config directory.
func (c *Config) TokenPath() (string, error) {
	return resolvePath(c.Session.TokenFile, "token")
}

// CachePath resolves the sqlite cache database path.
func (c *Config) CachePath() (string, error) {
	return resolvePath(c.Cache.Path, "cache.db")
}

// AuditPath resolves the audit log path.
func (c *Config) AuditPath() (string, error) {
	return resolvePath(c.Audit.Path, "audit.log")
}

func resolvePath(configured, name string) (string, error) {
	if configured != "" {
		if strings.HasPrefix(configured, "~"+string(filepath.Separator)) || strings.HasPrefix(configured, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			return filepath.Join(home, configured[2:]), nil
		}
		return configured, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ytnews configuration directory path.
// YTNEWS_HOME overrides the default of ~/.ytnews.
func ConfigDir() (string, error) {
	if dir := os.Getenv("YTNEWS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ytnews"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg := Default()
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg := Default()
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	// Defaults are usable; loadErr is informational
	return cfg, loadErr
}

// finish applies env overrides, defaults and validation in that order.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# ytnews configuration file")
	fmt.Fprintln(&buf, "# Generated by ytnews - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends = map[string]bool{"memory": true, "sqlite": true}
	validThemes   = map[string]bool{"auto": true, "dark": true, "light": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case c.API.BaseURL == "":
		errs = append(errs, ValidationError{"api.base_url", "must not be empty"})
	case err != nil:
		errs = append(errs, ValidationError{"api.base_url", err.Error()})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{"api.base_url", "scheme must be http or https"})
	case u.Host == "":
		errs = append(errs, ValidationError{"api.base_url", "host is required"})
	}

	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{"api.timeout_secs", "must be between 1 and 600"})
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 10 {
		errs = append(errs, ValidationError{"api.max_retries", "must be between 0 and 10"})
	}
	if c.API.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{"api.rate_limit_rps", "must not be negative"})
	}
	if c.API.RateLimitRPS > 0 && c.API.RateBurst < 1 {
		errs = append(errs, ValidationError{"api.rate_burst", "must be at least 1 when rate limiting is on"})
	}

	if !validBackends[c.Cache.Backend] {
		errs = append(errs, ValidationError{"cache.backend", fmt.Sprintf("unknown backend %q (memory, sqlite)", c.Cache.Backend)})
	}
	if c.Cache.TTLSecs < 0 {
		errs = append(errs, ValidationError{"cache.ttl_secs", "must not be negative"})
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, ValidationError{"cache.max_entries", "must not be negative"})
	}

	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("unknown theme %q (auto, dark, light)", c.UI.Theme)})
	}
	if c.UI.PageSize < 1 || c.UI.PageSize > 500 {
		errs = append(errs, ValidationError{"ui.page_size", "must be between 1 and 500"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise make the client unusable.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = d.API.UserAgent
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.MarkdownWidth == 0 {
		c.UI.MarkdownWidth = d.UI.MarkdownWidth
	}
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = d.UI.CodeStyle
	}
	if c.UI.PageSize == 0 {
		c.UI.PageSize = d.UI.PageSize
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies YTNEWS_* environment variables:
//   - YTNEWS_API_URL: overrides api.base_url
//   - YTNEWS_TIMEOUT: overrides api.timeout_secs
//   - YTNEWS_TOKEN_FILE: overrides session.token_file
//   - YTNEWS_CACHE: enables/disables the cache
//   - YTNEWS_CACHE_BACKEND: overrides cache.backend
//   - YTNEWS_AUDIT: enables/disables the audit log
//   - YTNEWS_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("YTNEWS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("YTNEWS_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("YTNEWS_TOKEN_FILE"); v != "" {
		c.Session.TokenFile = v
	}
	if v := os.Getenv("YTNEWS_CACHE"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("YTNEWS_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("YTNEWS_AUDIT"); v != "" {
		c.Audit.Enabled = parseBool(v)
	}
	if v := os.Getenv("YTNEWS_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "cache.backend").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to the Go field name.
// "base_url" becomes "BaseUrl", matched case-insensitively against "BaseURL".
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// AllKeys returns every configuration key in dot notation.
func AllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.timeout_secs",
		"api.max_retries",
		"api.rate_limit_rps",
		"api.rate_burst",
		"api.user_agent",
		"session.token_file",
		"session.encrypt_token",
		"session.watch_token",
		"cache.enabled",
		"cache.backend",
		"cache.ttl_secs",
		"cache.path",
		"cache.max_entries",
		"audit.enabled",
		"audit.path",
		"ui.theme",
		"ui.markdown_width",
		"ui.code_style",
		"ui.page_size",
	}
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
