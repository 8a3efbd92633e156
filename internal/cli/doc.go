// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for promptstamp.
//
// Handlers never print errors. They return typed errors (CommandError,
// ValidationError, NotFoundError) and main displays them once and exits
// with GetExitCode.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Global flags plus the raw command arguments
//   - Runtime: Loaded config, logger and the standard streams
//   - ArgParser: Per-command flag and positional parsing
//   - JSONResponse: Envelope written for every --json invocation
//
// # Usage
//
//	cmd, args := cli.Parse()
//	cfg, err := cli.LoadConfig(args)
//	rt := cli.NewRuntime(cfg)
//	if err := cli.Run(ctx, rt, cmd, args); err != nil {
//	    cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands Overview
//
//   - embed: Write a prompt into a PNG
//   - extract: Print the embedded prompt (exit 7 when absent)
//   - inspect: Chunk table with CRC validity and text metadata
//   - diff: Word-level prompt comparison and report export
//   - watch: Stream prompts of new PNG files in a directory
//   - config: Show and edit configuration
//
// All commands support --json for scripting.
package cli
