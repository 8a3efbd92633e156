// promptstamp - embed, recover and compare image generation prompts.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log/level"

	"github.com/jeranaias/promptstamp/internal/cli"
	"github.com/jeranaias/promptstamp/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		cli.DisplayError(errorWriter(args), cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}
	config.SetGlobal(cfg)
	cli.ConfigureColor(cfg.Diff.Color)

	rt := cli.NewRuntime(cfg)
	level.Debug(rt.Logger).Log("msg", "starting", "command", cmd.String(), "version", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, rt, cmd, args); err != nil {
		cli.DisplayError(errorWriter(args), cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// errorWriter returns stdout in JSON mode so scripts read one stream.
func errorWriter(args cli.Args) io.Writer {
	if args.JSON {
		return os.Stdout
	}
	return os.Stderr
}
