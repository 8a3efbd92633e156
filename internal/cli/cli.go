// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for promptstamp.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/go-kit/log"

	"github.com/jeranaias/promptstamp/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdEmbed
	CmdExtract
	CmdInspect
	CmdDiff
	CmdWatch
	CmdConfig
	CmdVersion
	CmdUnknown
)

// String returns the command word used in JSON envelopes.
func (c Command) String() string {
	switch c {
	case CmdEmbed:
		return "embed"
	case CmdExtract:
		return "extract"
	case CmdInspect:
		return "inspect"
	case CmdDiff:
		return "diff"
	case CmdWatch:
		return "watch"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // Output in JSON format
	Quiet      bool   // Suppress informational output
	Verbose    bool   // Debug logging
	NoColor    bool   // Disable colors regardless of config
	ConfigPath string // Explicit config file (--config)

	// Name is the command word as typed (for suggestions)
	Name string

	// Raw args after the command word with global flags removed
	Raw []string
}

const usageText = `promptstamp - embed, recover and compare image generation prompts

Prompts are stored in PNG tEXt/iTXt chunks under the keywords
parameters, Description and Comment, alongside a Software tag.

Usage:
  promptstamp embed <in.png> --prompt TEXT   Embed a prompt into a PNG
  promptstamp extract <file.png>             Print the embedded prompt
  promptstamp inspect <file.png>             List chunks and text metadata
  promptstamp diff <old> <new>               Word-level prompt diff
  promptstamp watch <dir>                    Print prompts of PNGs as they appear
  promptstamp config [show|get|set|...]      Configuration (reset, path, keys)
  promptstamp version                        Version information
  promptstamp help                           This help

Embed Options:
  --prompt TEXT, -p TEXT    Prompt text
  --prompt-file FILE        Read the prompt from a file ("-" for stdin)
  --out FILE, -o FILE       Output path (default <name>-stamped.png, "-" for stdout)
  --in-place                Overwrite the input file
  --software NAME           Software tag (default from config)
  --base64                  Input and output are base64 or data URLs

Extract Options:
  --strict                  Skip text chunks whose CRC does not match
  --base64                  Input is base64 or a data URL

Diff Options:
  --file, -f                Treat <old> and <new> as file paths (PNG prompts are read)
  --inline                  Plain [-removed-]{+added+} markers
  --format FORMAT           text, markdown, html or json
  --out FILE, -o FILE       Write the report to a file
  --render                  Render the markdown report in the terminal
  --max-tokens N            Override diff.max_tokens (0 = unlimited)

Watch Options:
  --recursive, -r           Also watch subdirectories
  --existing                Also report files already in the directory
  --strict                  Skip text chunks whose CRC does not match
  --debounce MS             Quiet period before a file is read

Global Options:
  --json                    JSON output (one document per command)
  --config FILE             Use this config file
  --no-color                Disable colors
  -q, --quiet               Only print results
  -v, --verbose             Debug logging on stderr

Examples:
  promptstamp embed cat.png -p "a cat, watercolor" -o cat-tagged.png
  promptstamp extract cat-tagged.png
  promptstamp diff "a red fox" "a blue fox"
  promptstamp diff --file v1.png v2.png --format markdown --render
  promptstamp config set diff.max_tokens 8000

Version: %s
`

// PrintUsage writes the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "promptstamp version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	parsedArgs.Name = remaining[0]
	parsedArgs.Raw = remaining[1:]

	switch strings.ToLower(remaining[0]) {
	case "embed", "stamp":
		return CmdEmbed, parsedArgs
	case "extract", "read":
		return CmdExtract, parsedArgs
	case "inspect", "chunks":
		return CmdInspect, parsedArgs
	case "diff":
		return CmdDiff, parsedArgs
	case "watch":
		return CmdWatch, parsedArgs
	case "config":
		return CmdConfig, parsedArgs
	case "version", "--version":
		return CmdVersion, parsedArgs
	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	default:
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Everything after "--" is passed through untouched.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--":
			return append(remaining, args[i:]...), parsedArgs
		case "--json":
			parsedArgs.JSON = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime carries the loaded configuration, logger and standard streams
// every command handler works with.
type Runtime struct {
	Config *config.Config
	Logger log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRuntime returns a Runtime bound to the process streams.
func NewRuntime(cfg *config.Config) *Runtime {
	return &Runtime{
		Config: cfg,
		Logger: NewLogger(os.Stderr, cfg.Log),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// LoadConfig loads the config named by --config, or the usual search
// order otherwise, then applies --verbose and --no-color.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, WrapConfigError(err)
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if args.NoColor {
		cfg.Diff.Color = "never"
	}
	return cfg, nil
}

// Run executes cmd. Errors are returned undisplayed.
func Run(ctx context.Context, rt *Runtime, cmd Command, args Args) error {
	switch cmd {
	case CmdEmbed:
		return HandleEmbed(rt, args)
	case CmdExtract:
		return HandleExtract(rt, args)
	case CmdInspect:
		return HandleInspect(rt, args)
	case CmdDiff:
		return HandleDiff(rt, args)
	case CmdWatch:
		return HandleWatch(ctx, rt, args)
	case CmdConfig:
		return HandleConfig(rt, args)
	case CmdVersion:
		if args.JSON {
			return NewJSONResponse("version", map[string]string{
				"version":    Version,
				"git_commit": GitCommit,
				"build_date": BuildDate,
				"go_version": runtime.Version(),
			}).Write(rt.Stdout)
		}
		PrintVersion(rt.Stdout)
		return nil
	case CmdHelp:
		PrintUsage(rt.Stdout)
		return nil
	default:
		reason := "unknown command"
		if s := SuggestCommand(args.Name); s != "" {
			reason = fmt.Sprintf("unknown command, did you mean %q?", s)
		}
		return &ValidationError{
			Field:   "command",
			Value:   args.Name,
			Reason:  reason,
			Example: "promptstamp help",
		}
	}
}
