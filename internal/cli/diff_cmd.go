// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// diff_cmd.go - Word-level comparison of two prompts.

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-kit/log/level"

	"github.com/jeranaias/promptstamp/internal/diff"
	"github.com/jeranaias/promptstamp/internal/export"
	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

const diffUsage = `promptstamp diff "a red fox" "a blue fox"`

// HandleDiff handles "promptstamp diff".
func HandleDiff(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "file", "f", "inline", "render")

	if p.PositionalCount() < 2 {
		return ErrMissingArgument("old and new", diffUsage)
	}
	if p.PositionalCount() > 2 {
		return NewValidationError("arguments", strings.Join(p.PositionalFrom(2), " "),
			"diff takes exactly two prompts (quote prompts that contain spaces)")
	}

	format := strings.ToLower(p.FlagOrDefault("format", "text"))
	if format == "md" {
		format = "markdown"
	}
	if format != "text" {
		if _, err := export.ForFormat(format, nil); err != nil {
			return ErrUnsupportedFormat(format, append([]string{"text"}, export.Formats()...))
		}
	}
	render := p.BoolFlag("render")
	if render {
		switch {
		case args.JSON:
			return NewValidationError("render", "", "--render cannot be combined with --json")
		case format != "text" && format != "markdown":
			return NewValidationError("render", format, "--render only applies to markdown")
		}
		format = "markdown"
	}

	maxTokens := rt.Config.Diff.MaxTokens
	if p.HasFlag("max-tokens") {
		n, err := p.FlagInt("max-tokens")
		if err != nil || n < 0 {
			return NewValidationError("max-tokens", p.Flag("max-tokens"), "must be a non-negative integer")
		}
		maxTokens = n
	}

	oldLabel, newLabel := "old", "new"
	oldText, newText := p.Positional(0), p.Positional(1)
	if p.BoolFlag("file", "f") {
		if oldText == stdio && newText == stdio {
			return NewValidationError("file", stdio, "only one side can be read from stdin")
		}
		var err error
		oldLabel, newLabel = oldText, newText
		if oldText, err = loadPromptText(rt, oldLabel); err != nil {
			return err
		}
		if newText, err = loadPromptText(rt, newLabel); err != nil {
			return err
		}
	}

	report, err := diff.NewReportLimit(oldText, newText, maxTokens)
	if err != nil {
		return NewCommandError("diff", "compare",
			fmt.Sprintf("more than %d tokens (raise diff.max_tokens or pass --max-tokens 0)", maxTokens), err)
	}
	level.Debug(rt.Logger).Log("msg", "compared prompts", "segments", len(report.Segments),
		"additions", report.Stats.Additions, "deletions", report.Stats.Deletions)

	out := p.FlagAny("out", "o")
	if format == "text" {
		return writeTextDiff(rt, args, p, report, out)
	}

	exporter, err := export.ForFormat(format, export.DefaultOptions())
	if err != nil {
		return err
	}
	doc := export.NewDocument(report, oldLabel, newLabel)

	if out != "" && out != stdio {
		path, err := export.ExportToFile(doc, exporter, out)
		if err != nil {
			return NewCommandError("diff", "export", out, wrapIO(err))
		}
		if args.JSON {
			return NewJSONResponse("diff", DiffData{
				Summary: report.Summary(),
				Report:  report,
				File:    path,
				Format:  format,
			}).Write(rt.Stdout)
		}
		info(rt, args, "%s %s (%s)", SuccessStyle.Render("Wrote"), path, report.Summary())
		return nil
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return NewCommandError("diff", "export", format, err)
	}
	if render {
		rendered, err := renderMarkdown(string(content), GetTerminalWidth())
		if err != nil {
			level.Warn(rt.Logger).Log("msg", "markdown rendering failed, printing source", "err", err)
		} else {
			content = []byte(rendered)
		}
	}
	return writeOutput(rt, stdio, content)
}

// writeTextDiff prints the colored or marked-up diff followed by a summary.
func writeTextDiff(rt *Runtime, args Args, p *ArgParser, report *diff.Report, out string) error {
	if args.JSON && (out == "" || out == stdio) {
		return NewJSONResponse("diff", DiffData{
			Summary: report.Summary(),
			Report:  report,
		}).Write(rt.Stdout)
	}

	inline := p.BoolFlag("inline") || rt.Config.Diff.Inline
	if out != "" && out != stdio {
		data := []byte(diff.FormatInline(report.Segments) + "\n")
		if err := writeOutput(rt, out, data); err != nil {
			return NewCommandError("diff", "write", out, err)
		}
		if args.JSON {
			return NewJSONResponse("diff", DiffData{
				Summary: report.Summary(),
				Report:  report,
				File:    out,
				Format:  "text",
			}).Write(rt.Stdout)
		}
		info(rt, args, "%s %s (%s)", SuccessStyle.Render("Wrote"), out, report.Summary())
		return nil
	}

	var body string
	if inline || !ColorsEnabled() {
		body = diff.FormatInline(report.Segments)
	} else {
		body = diff.Render(report.Segments, diff.DefaultTheme())
	}
	if body != "" {
		fmt.Fprintln(rt.Stdout, body)
	}
	info(rt, args, "%s", DimStyle.Render(report.Summary()))
	return nil
}

// loadPromptText reads a diff side from a file. PNG files contribute their
// embedded prompt; anything else is used as text.
func loadPromptText(rt *Runtime, path string) (string, error) {
	data, err := readInput(rt, path)
	if err != nil {
		return "", NewCommandError("diff", "read", path, err)
	}
	if !pngmeta.HasSignature(data) {
		return strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r"), nil
	}

	var res pngmeta.Result
	if rt.Config.Metadata.Strict {
		res = pngmeta.DecodeStrict(data)
	} else {
		res = pngmeta.Decode(data)
	}
	if !res.Found() {
		return "", ErrNotFound("prompt", path)
	}
	return res.Prompt, nil
}

// renderMarkdown renders markdown for the terminal, falling back to the
// plain "notty" style when colors are off.
func renderMarkdown(content string, width int) (string, error) {
	style := glamour.WithAutoStyle()
	if !ColorsEnabled() {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(content)
}
