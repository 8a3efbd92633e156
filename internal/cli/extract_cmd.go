// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// extract_cmd.go - Prints the prompt stored in a PNG.

package cli

import (
	"fmt"

	"github.com/go-kit/log/level"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

const extractUsage = "promptstamp extract cat.png"

// HandleExtract handles "promptstamp extract". A missing prompt is a
// NotFoundError so scripts can test the exit code.
func HandleExtract(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "strict", "base64")

	in := p.Positional(0)
	if in == "" {
		return ErrMissingArgument("input", extractUsage)
	}

	res, err := decodeFile(rt, in, p.BoolFlag("base64"), p.BoolFlag("strict") || rt.Config.Metadata.Strict)
	if err != nil {
		return NewCommandError("extract", "read", in, err)
	}

	switch res.Status {
	case pngmeta.StatusNotPNG:
		return NewCommandError("extract", "decode", in, pngmeta.ErrNotPNG)
	case pngmeta.StatusNotFound:
		return ErrNotFound("prompt", in)
	}

	level.Debug(rt.Logger).Log("msg", "found prompt", "file", in,
		"keyword", res.Keyword, "chunk", res.ChunkType, "offset", res.Offset)

	if args.JSON {
		return NewJSONResponse("extract", ExtractData{
			File:   in,
			Strict: p.BoolFlag("strict") || rt.Config.Metadata.Strict,
			Result: res,
		}).Write(rt.Stdout)
	}
	fmt.Fprintln(rt.Stdout, res.Prompt)
	return nil
}

// decodeFile reads in (a path or "-") and decodes its prompt metadata.
func decodeFile(rt *Runtime, in string, base64Mode, strict bool) (pngmeta.Result, error) {
	raw, err := readInput(rt, in)
	if err != nil {
		return pngmeta.Result{}, err
	}
	data := raw
	if base64Mode {
		data, err = pngmeta.DecodeBase64(string(raw))
		if err != nil {
			return pngmeta.Result{}, err
		}
	}
	if strict {
		return pngmeta.DecodeStrict(data), nil
	}
	return pngmeta.Decode(data), nil
}
