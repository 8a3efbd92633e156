// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/promptstamp/internal/diff"
	"github.com/jeranaias/promptstamp/internal/util"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is one exported comparison.
type Document struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	OldLabel  string       `json:"old_label"`
	NewLabel  string       `json:"new_label"`
	CreatedAt time.Time    `json:"created_at"`
	Summary   string       `json:"summary"`
	Report    *diff.Report `json:"report"`
}

// NewDocument wraps a report with a fresh ID and the current time.
// Empty labels default to "old" and "new".
func NewDocument(r *diff.Report, oldLabel, newLabel string) *Document {
	if oldLabel == "" {
		oldLabel = "old"
	}
	if newLabel == "" {
		newLabel = "new"
	}
	return &Document{
		ID:        uuid.NewString(),
		Title:     "Prompt diff",
		OldLabel:  oldLabel,
		NewLabel:  newLabel,
		CreatedAt: time.Now().UTC(),
		Summary:   r.Summary(),
		Report:    r,
	}
}

func (d *Document) validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if d.Report == nil {
		return fmt.Errorf("document has no report")
	}
	if d.CreatedAt.IsZero() {
		return fmt.Errorf("document has invalid creation timestamp")
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for report exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the header block (ID, labels, timestamp).
	IncludeMetadata bool

	// IncludeSources appends the full old and new prompts.
	IncludeSources bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata: true,
		IncludeSources:  true,
		Theme:           "dark",
	}
}

// =============================================================================
// FORMAT REGISTRY
// =============================================================================

var constructors = map[string]func(*Options) Exporter{
	"markdown": func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"md":       func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"html":     func(o *Options) Exporter { return NewHTMLExporter(o) },
	"json":     func(o *Options) Exporter { return NewJSONExporter(o) },
}

// Formats returns the canonical format names.
func Formats() []string {
	return []string{"html", "json", "markdown"}
}

// ForFormat returns the exporter for a format name (case-insensitive).
func ForFormat(name string, opts *Options) (Exporter, error) {
	ctor, ok := constructors[strings.ToLower(name)]
	if !ok {
		names := Formats()
		sort.Strings(names)
		return nil, fmt.Errorf("unsupported export format %q (supported: %s)", name, strings.Join(names, ", "))
	}
	return ctor(opts), nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a document with the given exporter and writes it
// atomically. An empty path generates a timestamped name in the current
// directory; a path without an extension gets the exporter's.
// Returns the path written.
func ExportToFile(doc *Document, exporter Exporter, path string) (string, error) {
	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	switch {
	case path == "":
		path = fmt.Sprintf("%s_%s%s",
			sanitizeFilename(doc.Title),
			doc.CreatedAt.Format("20060102_150405"),
			exporter.FileExtension())
	case filepath.Ext(path) == "":
		path += exporter.FileExtension()
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	var sb strings.Builder
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			sb.WriteRune('_')
		case r < 32 || r == 127:
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}

	if sb.Len() == 0 {
		return "prompt-diff"
	}
	return sb.String()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}

// splitSpace separates leading and trailing whitespace from s so emphasis
// markers can hug the words.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeft(s, " \t\r\n")
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRight(core, " \t\r\n")
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}
