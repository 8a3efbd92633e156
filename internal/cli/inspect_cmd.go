// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// inspect_cmd.go - Chunk listing with CRC validity and text metadata.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
	"github.com/jeranaias/promptstamp/internal/util"
)

// HandleInspect handles "promptstamp inspect". A truncated stream is
// reported with the chunks read so far and is not an error.
func HandleInspect(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "base64")

	in := p.Positional(0)
	if in == "" {
		return ErrMissingArgument("input", "promptstamp inspect cat.png")
	}

	raw, err := readInput(rt, in)
	if err != nil {
		return NewCommandError("inspect", "read", in, err)
	}
	data := raw
	if p.BoolFlag("base64") {
		if data, err = pngmeta.DecodeBase64(string(raw)); err != nil {
			return NewCommandError("inspect", "decode", in, err)
		}
	}

	chunks, err := pngmeta.Chunks(data)
	if errors.Is(err, pngmeta.ErrNotPNG) {
		return NewCommandError("inspect", "decode", in, err)
	}
	var scanErr string
	if err != nil {
		level.Warn(rt.Logger).Log("msg", "stream is damaged", "file", in, "err", err)
		scanErr = err.Error()
	}
	// Same walk as Chunks, so any error was already reported.
	texts, _ := pngmeta.TextChunks(data)

	result := InspectData{
		File:       in,
		Size:       len(data),
		Chunks:     chunks,
		TextChunks: texts,
		Prompt:     pngmeta.Decode(data),
		Error:      scanErr,
	}
	if args.JSON {
		return NewJSONResponse("inspect", result).Write(rt.Stdout)
	}
	printInspect(rt, result)
	return nil
}

func printInspect(rt *Runtime, d InspectData) {
	w := rt.Stdout
	width := GetTerminalWidth()

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s (%s)", d.File, util.FormatSize(d.Size))))
	fmt.Fprintln(w, RenderSeparator(min(width, 70)))
	fmt.Fprintf(w, "%s %s %s %s %s\n",
		RenderLabel("OFFSET", 10), RenderLabel("TYPE", 6), RenderLabel("LENGTH", 10),
		RenderLabel("CRC", 10), LabelStyle.Render("STATUS"))

	bad := 0
	for _, c := range d.Chunks {
		status := "valid"
		if !c.Valid {
			status = "bad"
			bad++
		}
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			util.PadRight(fmt.Sprintf("%d", c.Offset), 10),
			util.PadRight(c.Type, 6),
			util.PadRight(fmt.Sprintf("%d", c.Length), 10),
			util.PadRight(fmt.Sprintf("%08X", c.StoredCRC), 10),
			RenderStatus(status))
	}
	if d.Error != "" {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("[WARN]"), d.Error)
	}
	if bad > 0 {
		fmt.Fprintf(w, "%s %d chunk(s) with CRC mismatch\n", WarningStyle.Render("[WARN]"), bad)
	}

	if len(d.TextChunks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Text chunks"))
		keyWidth := 0
		for _, tc := range d.TextChunks {
			keyWidth = max(keyWidth, util.StringWidth(tc.Keyword))
		}
		for _, tc := range d.TextChunks {
			key := util.PadRight(tc.Keyword, keyWidth)
			if pngmeta.IsPromptKeyword(tc.Keyword) {
				key = HighlightStyle.Render(key)
			}
			room := width - keyWidth - 10
			fmt.Fprintf(w, "  %s %s %s\n", DimStyle.Render(tc.Type), key,
				util.TruncateWidth(util.SingleLine(tc.Text), room))
		}
	}

	fmt.Fprintln(w)
	status := d.Prompt.Status.String()
	line := fmt.Sprintf("%s prompt %s", RenderStatus(status), strings.ReplaceAll(status, "_", " "))
	if d.Prompt.Found() {
		line += fmt.Sprintf(" in %s %q at offset %d", d.Prompt.ChunkType, d.Prompt.Keyword, d.Prompt.Offset)
	}
	fmt.Fprintln(w, line)
}
