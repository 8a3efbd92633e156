// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch_cmd.go - Prints the prompts of PNG files as they are written.

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-kit/log/level"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
	"github.com/jeranaias/promptstamp/internal/util"
	"github.com/jeranaias/promptstamp/internal/watch"
)

const watchUsage = "promptstamp watch ./outputs --recursive"

// HandleWatch handles "promptstamp watch". It runs until ctx is cancelled.
func HandleWatch(ctx context.Context, rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "recursive", "r", "existing", "strict")

	dir := p.Positional(0)
	if dir == "" {
		dir = "."
	}
	if p.PositionalCount() > 1 {
		return &ValidationError{Field: "arguments", Value: p.Positional(1), Reason: "watch takes one directory", Example: watchUsage}
	}

	debounce := rt.Config.Watch.DebounceMillis
	if p.HasFlag("debounce") {
		n, err := p.FlagInt("debounce")
		if err != nil || n < 0 {
			return NewValidationError("debounce", p.Flag("debounce"), "must be a non-negative number of milliseconds")
		}
		debounce = n
	}

	opts := watch.Options{
		Debounce:     time.Duration(debounce) * time.Millisecond,
		Recursive:    p.BoolFlag("recursive", "r") || rt.Config.Watch.Recursive,
		Extensions:   rt.Config.Watch.Extensions,
		MaxPerSecond: rt.Config.Watch.MaxPerSecond,
		Strict:       p.BoolFlag("strict") || rt.Config.Metadata.Strict,
		Existing:     p.BoolFlag("existing"),
		Logger:       rt.Logger,
	}

	w, err := watch.New(dir, opts)
	if err != nil {
		return NewCommandError("watch", "open", dir, wrapIO(err))
	}

	mode := "top level only"
	if opts.Recursive {
		mode = "recursive"
	}
	info(rt, args, "%s %s (%s), press Ctrl+C to stop", TitleStyle.Render("Watching"), w.Root(), mode)
	level.Info(rt.Logger).Log("msg", "watch started", "dir", dir, "recursive", opts.Recursive,
		"debounce_ms", debounce, "max_per_second", opts.MaxPerSecond)

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	for ev := range w.Events() {
		if err := printWatchEvent(rt, args, w.Root(), ev); err != nil {
			level.Error(rt.Logger).Log("msg", "write event", "err", err)
		}
	}

	if err := <-errc; err != nil {
		return NewCommandError("watch", "run", dir, err)
	}
	return nil
}

func printWatchEvent(rt *Runtime, args Args, root string, ev watch.Event) error {
	if args.JSON {
		data := WatchEventData{Path: ev.Path, Result: ev.Result}
		if ev.Err != nil {
			data.Error = ev.Err.Error()
		}
		return NewJSONResponse("watch", data).WriteLine(rt.Stdout)
	}

	name := ev.Path
	if rel, err := filepath.Rel(root, ev.Path); err == nil {
		name = rel
	}

	var line string
	switch {
	case ev.Err != nil:
		line = ErrorStyle.Render(ev.Err.Error())
	case ev.Result.Status == pngmeta.StatusFound:
		line = ValueStyle.Render(util.SingleLine(ev.Result.Prompt))
	case ev.Result.Status == pngmeta.StatusNotFound:
		line = WarningStyle.Render("(no prompt)")
	default:
		line = ErrorStyle.Render("(not a PNG)")
	}
	_, err := fmt.Fprintf(rt.Stdout, "%s %s\n", HighlightStyle.Render(name+":"), line)
	return err
}
