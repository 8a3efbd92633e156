// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for promptstamp.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration as TOML
//   get <key>           Print one value
//   set <key> <value>   Set a value in the config file
//   reset               Write the defaults to the config file
//   path                Show configuration file path
//   keys                List every key with its current value
//
// Examples:
//   promptstamp config
//   promptstamp config get diff.max_tokens
//   promptstamp config set metadata.software "My Renderer"
//   promptstamp config set watch.extensions .png,.apng
//   promptstamp config path --json

package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/promptstamp/internal/config"
)

// HandleConfig handles "promptstamp config".
func HandleConfig(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw)

	switch strings.ToLower(p.Subcommand()) {
	case "", "show":
		return handleConfigShow(rt, args)
	case "get":
		return handleConfigGet(rt, args, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "promptstamp config set diff.max_tokens 8000")
		}
		return handleConfigSet(rt, args, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "reset":
		return handleConfigReset(rt, args)
	case "path":
		return handleConfigPath(rt, args)
	case "keys":
		return handleConfigKeys(rt, args)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   p.Subcommand(),
			Reason:  "unknown config subcommand",
			Example: "promptstamp config [show|get|set|reset|path|keys]",
		}
	}
}

// configFile returns the file config edits target: --config, else the
// file Load reads.
func configFile(args Args) (string, bool, error) {
	if args.ConfigPath != "" {
		_, err := os.Stat(args.ConfigPath)
		return args.ConfigPath, err == nil, nil
	}
	path, exists, err := config.ActivePath()
	if err != nil {
		return "", false, WrapConfigError(err)
	}
	return path, exists, nil
}

func handleConfigShow(rt *Runtime, args Args) error {
	path, exists, err := configFile(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config show", ConfigData{
			Path:   path,
			Exists: exists,
			Config: rt.Config,
		}).Write(rt.Stdout)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(rt.Config); err != nil {
		return NewCommandError("config", "encode", "toml", err)
	}

	source := path
	if !exists {
		source = "built-in defaults"
	}
	info(rt, args, "%s %s", LabelStyle.Render("# source:"), DimStyle.Render(source))

	out := buf.String()
	if ColorsEnabled() {
		out = highlightTOML(out)
	}
	fmt.Fprint(rt.Stdout, out)
	return nil
}

func handleConfigGet(rt *Runtime, args Args, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "promptstamp config get diff.max_tokens")
	}
	value, err := rt.Config.Get(key)
	if err != nil {
		return unknownKey(key)
	}

	if args.JSON {
		return NewJSONResponse("config get", ConfigData{Key: key, Value: value}).Write(rt.Stdout)
	}
	fmt.Fprintln(rt.Stdout, formatConfigValue(value))
	return nil
}

func handleConfigSet(rt *Runtime, args Args, key, value string) error {
	path, _, err := configFile(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return WrapConfigError(err)
	}
	if _, err := cfg.Get(key); err != nil {
		return unknownKey(key)
	}
	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return WrapConfigError(err)
	}
	if err := config.SaveFile(cfg, path); err != nil {
		return NewCommandError("config", "write", path, wrapIO(err))
	}

	stored, _ := cfg.Get(key)
	if args.JSON {
		return NewJSONResponse("config set", ConfigData{Path: path, Key: key, Value: stored}).Write(rt.Stdout)
	}
	info(rt, args, "%s %s = %s (%s)", SuccessStyle.Render("Set"), key, formatConfigValue(stored), path)
	return nil
}

func handleConfigReset(rt *Runtime, args Args) error {
	path, _, err := configFile(args)
	if err != nil {
		return err
	}
	if err := config.SaveFile(config.Default(), path); err != nil {
		return NewCommandError("config", "write", path, wrapIO(err))
	}

	if args.JSON {
		return NewJSONResponse("config reset", ConfigData{Path: path, Exists: true, Config: config.Default()}).Write(rt.Stdout)
	}
	info(rt, args, "%s %s", SuccessStyle.Render("Reset"), path)
	return nil
}

func handleConfigPath(rt *Runtime, args Args) error {
	path, exists, err := configFile(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config path", ConfigData{Path: path, Exists: exists}).Write(rt.Stdout)
	}
	fmt.Fprintln(rt.Stdout, path)
	if !exists {
		info(rt, args, "%s", DimStyle.Render("(file does not exist, defaults are in use)"))
	}
	return nil
}

func handleConfigKeys(rt *Runtime, args Args) error {
	keys := config.AllKeys()

	if args.JSON {
		values := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			values[key], _ = rt.Config.Get(key)
		}
		return NewJSONResponse("config keys", ConfigData{Config: values}).Write(rt.Stdout)
	}

	width := 0
	for _, key := range keys {
		width = max(width, len(key))
	}
	for _, key := range keys {
		value, _ := rt.Config.Get(key)
		fmt.Fprintf(rt.Stdout, "%s  %s\n", RenderLabel(key, width), ValueStyle.Render(formatConfigValue(value)))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func unknownKey(key string) error {
	reason := "unknown config key"
	if s := suggestKey(key); s != "" {
		reason = fmt.Sprintf("unknown config key, did you mean %q?", s)
	}
	return &ValidationError{
		Field:   "key",
		Value:   key,
		Reason:  reason,
		Example: "promptstamp config keys",
	}
}

func formatConfigValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// highlightTOML applies terminal syntax highlighting with chroma. The
// source is returned unchanged if highlighting fails.
func highlightTOML(src string) string {
	lexer := lexers.Get("toml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}
