// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("YTNEWS_HOME", dir)
	for _, k := range []string{
		"YTNEWS_API_URL", "YTNEWS_TIMEOUT", "YTNEWS_TOKEN_FILE", "YTNEWS_CACHE",
		"YTNEWS_CACHE_BACKEND", "YTNEWS_AUDIT", "YTNEWS_THEME",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Session.WatchToken)
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	content := `
[api]
base_url = "https://news.example.org/api/v1/"
timeout_secs = 5

[cache]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.org/api/v1", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 5, cfg.API.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	// Unspecified keys keep their defaults
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, 20, cfg.UI.PageSize)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"ui":{"theme":"light"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[api]\nbase_url = \"http://file.example/api/v1\"\n"), 0600))
	t.Setenv("YTNEWS_API_URL", "http://env.example/api/v1")
	t.Setenv("YTNEWS_CACHE", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api/v1", cfg.API.BaseURL)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[cache]\nbackend = \"redis\"\n"), 0600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://example.org"
	cfg.API.TimeoutSecs = 0
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"api.base_url", "api.timeout_secs", "ui.theme"}, fields)
}

func TestSaveTOML_RoundTripAndPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "https://saved.example/api/v1"
	cfg.Session.EncryptToken = true
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ytnews configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.True(t, loaded.Session.EncryptToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.base_url", "https://x.example/api/v1"))
	require.NoError(t, cfg.Set("api.max_retries", "5"))
	require.NoError(t, cfg.Set("cache.enabled", "false"))
	require.NoError(t, cfg.Set("api.rate_limit_rps", "2.5"))

	v, err := cfg.Get("api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://x.example/api/v1", v)
	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 2.5, cfg.API.RateLimitRPS)

	_, err = cfg.Get("api.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("api.max_retries", "many"))
	assert.Error(t, cfg.Set("api.base_url.deeper", "x"))
}

func TestAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range AllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("key %q does not resolve: %v", key, err)
		}
	}
}

func TestPaths_DefaultIntoConfigDir(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	tok, err := cfg.TokenPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "token"), tok)

	cfg.Cache.Path = "/var/tmp/ytnews.db"
	db, err := cfg.CachePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/ytnews.db", db)
}
