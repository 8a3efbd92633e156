// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// embed_cmd.go - Writes a prompt into a PNG as text chunks.

package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/peterh/liner"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
	"github.com/jeranaias/promptstamp/internal/util"
)

const embedUsage = `promptstamp embed cat.png --prompt "a cat, watercolor" --out cat-tagged.png`

// HandleEmbed handles "promptstamp embed".
func HandleEmbed(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "in-place", "base64", "data-url")

	in := p.Positional(0)
	if in == "" {
		return ErrMissingArgument("input", embedUsage)
	}
	if p.PositionalCount() > 1 {
		return NewValidationError("arguments", strings.Join(p.PositionalFrom(1), " "), "unexpected extra arguments")
	}

	prompt, err := readPrompt(rt, p, in)
	if err != nil {
		return err
	}

	software := p.FlagOrDefault("software", rt.Config.Metadata.Software)
	if strings.ContainsRune(software, 0) {
		return NewValidationError("software", "", "must not contain NUL bytes")
	}

	base64Mode := p.BoolFlag("base64", "data-url")
	out, err := embedOutputPath(p, in, base64Mode)
	if err != nil {
		return err
	}
	if out == stdio && args.JSON {
		return &ValidationError{
			Field:   "out",
			Value:   stdio,
			Reason:  "--json needs a file output",
			Example: embedUsage + " --json",
		}
	}
	if out == stdio && !base64Mode && rt.Stdout == os.Stdout && IsStdoutTTY() {
		return NewValidationError("out", stdio, "refusing to write binary PNG data to a terminal")
	}

	raw, err := readInput(rt, in)
	if err != nil {
		return NewCommandError("embed", "read", in, err)
	}

	data := raw
	if base64Mode {
		data, err = pngmeta.DecodeBase64(string(raw))
		if err != nil {
			return NewCommandError("embed", "decode", in, err)
		}
	}

	stamped := pngmeta.EmbedWith(data, prompt, pngmeta.Options{Software: software})
	embedded := len(stamped) > len(data)
	if !embedded {
		reason := "first chunk is truncated"
		if !pngmeta.HasSignature(data) {
			reason = "no PNG signature"
		}
		level.Warn(rt.Logger).Log("msg", "input passed through unchanged", "file", in, "reason", reason)
	}

	output := stamped
	if base64Mode {
		encoded := pngmeta.EncodeBase64(stamped)
		if p.BoolFlag("data-url") {
			encoded = pngmeta.EncodeDataURL(stamped)
		}
		output = []byte(encoded + "\n")
	}

	if err := writeOutput(rt, out, output); err != nil {
		return NewCommandError("embed", "write", out, err)
	}
	level.Debug(rt.Logger).Log("msg", "embedded prompt", "in", in, "out", out,
		"prompt_bytes", len(prompt), "added_bytes", len(stamped)-len(data))

	if args.JSON {
		return NewJSONResponse("embed", EmbedData{
			Input:      in,
			Output:     out,
			Software:   software,
			BytesIn:    len(data),
			BytesOut:   len(stamped),
			Embedded:   embedded,
			PromptSize: len(prompt),
		}).Write(rt.Stdout)
	}
	if out != stdio && embedded {
		info(rt, args, "%s %s (%s, +%s)", SuccessStyle.Render("Stamped"), out,
			util.FormatSize(len(stamped)), util.FormatSize(len(stamped)-len(data)))
	}
	return nil
}

// embedOutputPath resolves --out, --in-place and the defaults: stdout for
// stdin or base64 input, <name>-stamped.png otherwise.
func embedOutputPath(p *ArgParser, in string, base64Mode bool) (string, error) {
	out := p.FlagAny("out", "o")
	inPlace := p.BoolFlag("in-place")
	switch {
	case inPlace && out != "":
		return "", NewValidationError("out", out, "--out and --in-place are mutually exclusive")
	case inPlace && in == stdio:
		return "", NewValidationError("in-place", stdio, "cannot rewrite stdin in place")
	case inPlace:
		return in, nil
	case out != "":
		return out, nil
	case in == stdio || base64Mode:
		return stdio, nil
	default:
		return stampedPath(in), nil
	}
}

// readPrompt returns the prompt from --prompt, --prompt-file, or an
// interactive line when stdin is a terminal.
func readPrompt(rt *Runtime, p *ArgParser, in string) (string, error) {
	var prompt string
	switch {
	case p.HasFlag("prompt") || p.HasFlag("p"):
		prompt = p.FlagAny("prompt", "p")
	case p.Flag("prompt-file") != "":
		file := p.Flag("prompt-file")
		if file == stdio && in == stdio {
			return "", NewValidationError("prompt-file", stdio, "stdin is already the PNG input")
		}
		data, err := readInput(rt, file)
		if err != nil {
			return "", NewCommandError("embed", "read prompt", file, err)
		}
		prompt = strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	case in != stdio && rt.Stdin == os.Stdin && CanPrompt():
		text, err := promptInteractive()
		if err != nil {
			return "", err
		}
		prompt = text
	default:
		return "", ErrMissingArgument("prompt", embedUsage)
	}

	if strings.TrimSpace(prompt) == "" {
		return "", NewValidationError("prompt", "", "prompt is empty")
	}
	return prompt, nil
}

// promptInteractive reads one line with line editing. Nothing is saved.
func promptInteractive() (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	text, err := line.Prompt("prompt> ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", NewCommandError("embed", "read prompt", "aborted", nil)
	}
	if err != nil {
		return "", NewCommandError("embed", "read prompt", "terminal input failed", err)
	}
	return text, nil
}
