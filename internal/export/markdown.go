// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/promptstamp/internal/diff"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports documents to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown. Removed words are struck
// through and added words are bold.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	r := doc.Report

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("id: %s\n", doc.ID))
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.Title)))
		sb.WriteString(fmt.Sprintf("date: %s\n", doc.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("old: %s\n", escapeYAML(doc.OldLabel)))
		sb.WriteString(fmt.Sprintf("new: %s\n", escapeYAML(doc.NewLabel)))
		sb.WriteString(fmt.Sprintf("summary: %s\n", escapeYAML(doc.Summary)))
		sb.WriteString("generator: promptstamp\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.Title)))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **Old**: %s\n", escapeMarkdown(doc.OldLabel)))
		sb.WriteString(fmt.Sprintf("- **New**: %s\n", escapeMarkdown(doc.NewLabel)))
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(doc.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Summary**: %s\n", doc.Summary))
		sb.WriteString(fmt.Sprintf("- **Words**: +%d / -%d / =%d\n\n",
			r.Stats.Additions, r.Stats.Deletions, r.Stats.Unchanged))
	}

	sb.WriteString("## Diff\n\n")
	if len(r.Segments) == 0 {
		sb.WriteString("_Nothing to compare._\n")
	} else {
		sb.WriteString(formatSegmentsMarkdown(r.Segments))
		sb.WriteString("\n")
	}

	if e.options.IncludeSources {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", escapeMarkdown(doc.OldLabel)))
		sb.WriteString(codeBlock(r.OldText))
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", escapeMarkdown(doc.NewLabel)))
		sb.WriteString(codeBlock(r.NewText))
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatSegmentsMarkdown renders segments line by line so emphasis never
// spans a line break.
func formatSegmentsMarkdown(segments []diff.Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		marker := ""
		switch seg.Type {
		case diff.SegmentAdded:
			marker = "**"
		case diff.SegmentRemoved:
			marker = "~~"
		}
		for i, line := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				// hard break keeps the prompt's line structure
				sb.WriteString("  \n")
			}
			lead, core, trail := splitSpace(line)
			sb.WriteString(lead)
			if core != "" {
				sb.WriteString(marker + escapeMarkdown(core) + marker)
			}
			sb.WriteString(trail)
		}
	}
	return sb.String()
}

// codeBlock fences s with more backticks than it contains in a row.
func codeBlock(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return fence + "text\n" + s + fence + "\n"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would change inline formatting.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"~", `\~`,
		"`", "\\`",
		"[", `\[`,
		"]", `\]`,
	)
	return replacer.Replace(s)
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
