// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for promptstamp.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
	"github.com/jeranaias/promptstamp/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete promptstamp configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Metadata MetadataConfig `toml:"metadata" json:"metadata"`
	Diff     DiffConfig     `toml:"diff" json:"diff"`
	Watch    WatchConfig    `toml:"watch" json:"watch"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// MetadataConfig controls PNG metadata handling.
type MetadataConfig struct {
	// Software is written to the tEXt Software chunk
	Software string `toml:"software" json:"software"`
	// Strict skips text chunks whose CRC does not match when extracting
	Strict bool `toml:"strict" json:"strict"`
}

// DiffConfig controls prompt diffs.
type DiffConfig struct {
	// MaxTokens caps the token count of each side (0 = unlimited).
	// The alignment table grows with the product of both counts.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`
	// Inline prints [-removed-]{+added+} markers instead of colors
	Inline bool `toml:"inline" json:"inline"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	// DebounceMillis is how long a file must be quiet before it is read
	DebounceMillis int `toml:"debounce_millis" json:"debounce_millis"`
	// Recursive also watches subdirectories
	Recursive bool `toml:"recursive" json:"recursive"`
	// Extensions lists file suffixes to inspect (lowercase, with dot)
	Extensions []string `toml:"extensions" json:"extensions"`
	// MaxPerSecond caps how many files are decoded per second (0 = unlimited)
	MaxPerSecond int `toml:"max_per_second" json:"max_per_second"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level"`
	// Format is "logfmt" or "json"
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Metadata: MetadataConfig{
			Software: pngmeta.DefaultSoftware,
			Strict:   false,
		},
		Diff: DiffConfig{
			MaxTokens: 4000, // 16M table cells worst case
			Color:     "auto",
		},
		Watch: WatchConfig{
			DebounceMillis: 250,
			Extensions:     []string{".png"},
			MaxPerSecond:   20,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "logfmt",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the promptstamp configuration directory path.
// PROMPTSTAMP_HOME overrides the default ~/.promptstamp.
func ConfigDir() (string, error) {
	if dir := os.Getenv("PROMPTSTAMP_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".promptstamp"), nil
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

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from $PROMPTSTAMP_CONFIG, then the TOML file,
// then the JSON file, falling back to defaults. Environment overrides are
// applied last. A config file that exists but cannot be parsed is an error.
func Load() (*Config, error) {
	if path := os.Getenv("PROMPTSTAMP_CONFIG"); path != "" {
		return LoadFromPath(path)
	}

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return cfg, cfg.finish()
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ActivePath returns the file Load would read and whether it exists.
// When no file exists the default TOML path is returned.
func ActivePath() (string, bool, error) {
	if path := os.Getenv("PROMPTSTAMP_CONFIG"); path != "" {
		_, err := os.Stat(path)
		return path, err == nil, nil
	}
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", false, err
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", false, err
	}
	for _, path := range []string{tomlPath, jsonPath} {
		if _, err := os.Stat(path); err == nil {
			return path, true, nil
		}
	}
	return tomlPath, false, nil
}

// LoadFile decodes path over the defaults without environment overrides,
// for editing a file in place. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.SetDefaults()
	return cfg, nil
}

// finish applies env overrides, defaults and validation.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# promptstamp configuration file\n")
	sb.WriteString("# Generated by promptstamp - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveFile saves to path as JSON when it ends in .json, TOML otherwise.
func SaveFile(cfg *Config, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	validColors     = map[string]bool{"auto": true, "always": true, "never": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"logfmt": true, "json": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.ContainsRune(c.Metadata.Software, 0) {
		errs = append(errs, ValidationError{
			Field:   "metadata.software",
			Message: "must not contain NUL bytes",
		})
	}

	if c.Diff.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "diff.max_tokens",
			Message: fmt.Sprintf("must be >= 0, got %d", c.Diff.MaxTokens),
		})
	}
	if !validColors[strings.ToLower(c.Diff.Color)] {
		errs = append(errs, ValidationError{
			Field:   "diff.color",
			Message: fmt.Sprintf("invalid color mode '%s', must be one of: auto, always, never", c.Diff.Color),
		})
	}

	if c.Watch.DebounceMillis < 0 || c.Watch.DebounceMillis > 60000 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_millis",
			Message: fmt.Sprintf("must be between 0 and 60000, got %d", c.Watch.DebounceMillis),
		})
	}
	if c.Watch.MaxPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.max_per_second",
			Message: fmt.Sprintf("must be >= 0, got %d", c.Watch.MaxPerSecond),
		})
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, ValidationError{
				Field:   "watch.extensions",
				Message: fmt.Sprintf("invalid extension '%s', must start with '.'", ext),
			})
		}
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: logfmt, json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills any empty fields with default values and normalizes
// case-insensitive settings.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Metadata.Software == "" {
		c.Metadata.Software = defaults.Metadata.Software
	}
	if c.Diff.Color == "" {
		c.Diff.Color = defaults.Diff.Color
	}
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = defaults.Watch.Extensions
	}
	for i, ext := range c.Watch.Extensions {
		c.Watch.Extensions[i] = strings.ToLower(ext)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	c.Diff.Color = strings.ToLower(c.Diff.Color)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies PROMPTSTAMP_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if software := os.Getenv("PROMPTSTAMP_SOFTWARE"); software != "" {
		c.Metadata.Software = software
	}
	if strict := os.Getenv("PROMPTSTAMP_STRICT"); strict != "" {
		c.Metadata.Strict = parseBool(strict)
	}
	if maxTokens := os.Getenv("PROMPTSTAMP_MAX_TOKENS"); maxTokens != "" {
		if n, err := strconv.Atoi(maxTokens); err == nil {
			c.Diff.MaxTokens = n
		}
	}
	if level := os.Getenv("PROMPTSTAMP_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" || os.Getenv("PROMPTSTAMP_NO_COLOR") != "" {
		c.Diff.Color = "never"
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// lookup walks a dotted key to its field.
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

// Get retrieves a configuration value using dot notation (e.g., "diff.max_tokens").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type; lists are comma-separated.
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

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
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

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// AllKeys returns all configuration keys in dot notation.
func AllKeys() []string {
	return []string{
		"version",
		"metadata.software",
		"metadata.strict",
		"diff.max_tokens",
		"diff.color",
		"diff.inline",
		"watch.debounce_millis",
		"watch.recursive",
		"watch.extensions",
		"watch.max_per_second",
		"log.level",
		"log.format",
	}
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access and falls back to defaults if that
// fails. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil || cfg == nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
