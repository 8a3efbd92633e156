// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

// isolate points every config lookup at a fresh temp dir and clears
// overrides that would leak in from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROMPTSTAMP_HOME", dir)
	for _, k := range []string{
		"PROMPTSTAMP_CONFIG", "PROMPTSTAMP_SOFTWARE", "PROMPTSTAMP_STRICT",
		"PROMPTSTAMP_MAX_TOKENS", "PROMPTSTAMP_LOG_LEVEL", "PROMPTSTAMP_NO_COLOR", "NO_COLOR",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentSetGlobal tests concurrent SetGlobal and Global calls.
func TestConfig_ConcurrentSetGlobal(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.Metadata.Software != pngmeta.DefaultSoftware {
		t.Errorf("Expected default software %q, got %q", pngmeta.DefaultSoftware, cfg.Metadata.Software)
	}
}

// TestConfig_GlobalFallsBackOnBadFile tests that an unreadable config
// does not leave Global() nil.
func TestConfig_GlobalFallsBackOnBadFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("this is = = not toml"), 0644))
	ResetGlobalForTesting()

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Diff.MaxTokens, cfg.Diff.MaxTokens)
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	custom := Default()
	custom.Version = "custom-version"
	custom.Metadata.Software = "custom-software"
	SetGlobal(custom)

	result := Global()
	if result.Version != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", result.Version)
	}
	if result.Metadata.Software != "custom-software" {
		t.Errorf("Expected software 'custom-software', got '%s'", result.Metadata.Software)
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
	if cfg.Diff.Color != "auto" {
		t.Errorf("Expected default color 'auto', got '%s'", cfg.Diff.Color)
	}
	if cfg.Diff.MaxTokens <= 0 {
		t.Error("Default config should cap diff tokens")
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".png" {
		t.Errorf("Expected default extensions [.png], got %v", cfg.Watch.Extensions)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "zero max tokens is unlimited", modify: func(c *Config) { c.Diff.MaxTokens = 0 }},
		{name: "negative max tokens", modify: func(c *Config) { c.Diff.MaxTokens = -1 }, field: "diff.max_tokens", wantErr: true},
		{name: "bad color", modify: func(c *Config) { c.Diff.Color = "rainbow" }, field: "diff.color", wantErr: true},
		{name: "negative debounce", modify: func(c *Config) { c.Watch.DebounceMillis = -5 }, field: "watch.debounce_millis", wantErr: true},
		{name: "huge debounce", modify: func(c *Config) { c.Watch.DebounceMillis = 120000 }, field: "watch.debounce_millis", wantErr: true},
		{name: "negative rate", modify: func(c *Config) { c.Watch.MaxPerSecond = -1 }, field: "watch.max_per_second", wantErr: true},
		{name: "extension without dot", modify: func(c *Config) { c.Watch.Extensions = []string{"png"} }, field: "watch.extensions", wantErr: true},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "verbose" }, field: "log.level", wantErr: true},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }, field: "log.format", wantErr: true},
		{name: "software with NUL", modify: func(c *Config) { c.Metadata.Software = "a\x00b" }, field: "metadata.software", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_LoadDefaultsWhenNoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestConfig_LoadTOML(t *testing.T) {
	dir := isolate(t)
	content := `
[metadata]
software = "My Engine"
strict = true

[diff]
max_tokens = 50
color = "NEVER"

[watch]
extensions = [".PNG", ".apng"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "My Engine", cfg.Metadata.Software)
	assert.True(t, cfg.Metadata.Strict)
	assert.Equal(t, 50, cfg.Diff.MaxTokens)
	assert.Equal(t, "never", cfg.Diff.Color)
	assert.Equal(t, []string{".png", ".apng"}, cfg.Watch.Extensions)
	// untouched sections keep their defaults
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 250, cfg.Watch.DebounceMillis)
}

func TestConfig_LoadTOMLUnknownKey(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[diff]\nmax_tokenz = 3\n"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diff.max_tokenz")
}

func TestConfig_LoadJSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"log":{"level":"debug","format":"json"}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestConfig_LoadExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"error\"\n"), 0644))
	t.Setenv("PROMPTSTAMP_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestConfig_LoadInvalidValues(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[diff]\nmax_tokens = -3\n"), 0644))

	_, err := Load()
	require.Error(t, err)
	var verrs ValidateErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PROMPTSTAMP_SOFTWARE", "Env Engine")
	t.Setenv("PROMPTSTAMP_STRICT", "yes")
	t.Setenv("PROMPTSTAMP_MAX_TOKENS", "12")
	t.Setenv("PROMPTSTAMP_LOG_LEVEL", "DEBUG")
	t.Setenv("NO_COLOR", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Env Engine", cfg.Metadata.Software)
	assert.True(t, cfg.Metadata.Strict)
	assert.Equal(t, 12, cfg.Diff.MaxTokens)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "never", cfg.Diff.Color)
}

func TestConfig_EnvOverridesIgnoreGarbage(t *testing.T) {
	isolate(t)
	t.Setenv("PROMPTSTAMP_MAX_TOKENS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Diff.MaxTokens, cfg.Diff.MaxTokens)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := Default()
	cfg.Metadata.Software = "Saved"
	cfg.Diff.Inline = true
	cfg.Watch.Extensions = []string{".png", ".apng"}

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "config.toml")
		require.NoError(t, SaveTOML(cfg, path))
		loaded, err := LoadFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, SaveJSON(cfg, path))
		loaded, err := LoadFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})
}

func TestActivePath(t *testing.T) {
	dir := isolate(t)

	path, exists, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)
	assert.False(t, exists)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(Default(), jsonPath))
	path, exists, err = ActivePath()
	require.NoError(t, err)
	assert.Equal(t, jsonPath, path)
	assert.True(t, exists)

	explicit := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv("PROMPTSTAMP_CONFIG", explicit)
	path, exists, err = ActivePath()
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.False(t, exists)
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg.Diff.MaxTokens = 99
	require.NoError(t, SaveFile(cfg, path))

	t.Setenv("PROMPTSTAMP_MAX_TOKENS", "5")
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 99, loaded.Diff.MaxTokens)

	viaLoad, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 5, viaLoad.Diff.MaxTokens)
}

// TestConfig_GetSet tests getting and setting values by dotted key.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("diff.max_tokens")
	require.NoError(t, err)
	assert.Equal(t, 4000, v)

	require.NoError(t, cfg.Set("diff.max_tokens", "99"))
	assert.Equal(t, 99, cfg.Diff.MaxTokens)

	require.NoError(t, cfg.Set("metadata.strict", "true"))
	assert.True(t, cfg.Metadata.Strict)

	require.NoError(t, cfg.Set("watch.extensions", ".png, .apng"))
	assert.Equal(t, []string{".png", ".apng"}, cfg.Watch.Extensions)

	require.NoError(t, cfg.Set("watch.debounce-millis", 10))
	assert.Equal(t, 10, cfg.Watch.DebounceMillis)

	require.NoError(t, cfg.Set("log.level", "info"))
	v, err = cfg.Get("log.level")
	require.NoError(t, err)
	assert.Equal(t, "info", v)

	_, err = cfg.Get("diff.nope")
	assert.Error(t, err)
	_, err = cfg.Get("diff.color.extra")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("diff.max_tokens", "many"))
	assert.Error(t, cfg.Set("", "x"))
}

func TestConfig_AllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range AllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

