// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for promptstamp.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - MetadataConfig: What Embed writes and how strictly chunks are read
//   - DiffConfig: Token cap and color mode for prompt diffs
//   - WatchConfig: Directory watching behavior
//   - LogConfig: Log level and format
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PROMPTSTAMP_*)
//   - $PROMPTSTAMP_CONFIG, if set
//   - ~/.promptstamp/config.toml
//   - ~/.promptstamp/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := pngmeta.EmbedWith(img, prompt, pngmeta.Options{Software: cfg.Metadata.Software})
package config
