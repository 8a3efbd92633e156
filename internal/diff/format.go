// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// INLINE FORMAT
// =============================================================================

// Inline markers, wdiff style.
const (
	RemovedOpen  = "[-"
	RemovedClose = "-]"
	AddedOpen    = "{+"
	AddedClose   = "+}"
)

// FormatInline renders segments as plain text with [-removed-] and
// {+added+} markers.
func FormatInline(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		switch seg.Type {
		case SegmentAdded:
			sb.WriteString(AddedOpen)
			sb.WriteString(seg.Text)
			sb.WriteString(AddedClose)
		case SegmentRemoved:
			sb.WriteString(RemovedOpen)
			sb.WriteString(seg.Text)
			sb.WriteString(RemovedClose)
		default:
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// OldText reconstructs the old input from segments.
func OldText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Type != SegmentAdded {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// NewText reconstructs the new input from segments.
func NewText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Type != SegmentRemoved {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// =============================================================================
// TERMINAL RENDERING
// =============================================================================

// Theme holds the styles used by Render.
type Theme struct {
	Added     lipgloss.Style
	Removed   lipgloss.Style
	Unchanged lipgloss.Style
}

// DefaultTheme returns emerald additions, struck-through rose removals and
// stone-grey context.
func DefaultTheme() Theme {
	return Theme{
		Added: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6EE7B7")).
			Background(lipgloss.Color("#064E3B")),
		Removed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FDA4AF")).
			Background(lipgloss.Color("#4C0519")).
			Strikethrough(true),
		Unchanged: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A29E")),
	}
}

// PlainTheme returns a theme with no styling.
func PlainTheme() Theme {
	return Theme{
		Added:     lipgloss.NewStyle(),
		Removed:   lipgloss.NewStyle(),
		Unchanged: lipgloss.NewStyle(),
	}
}

// Render styles each segment. Newlines inside a segment are styled line by
// line so backgrounds do not bleed across the terminal.
func Render(segments []Segment, theme Theme) string {
	var sb strings.Builder
	for _, seg := range segments {
		style := theme.Unchanged
		switch seg.Type {
		case SegmentAdded:
			style = theme.Added
		case SegmentRemoved:
			style = theme.Removed
		}
		lines := strings.Split(seg.Text, "\n")
		for i, line := range lines {
			if i > 0 {
				sb.WriteString("\n")
			}
			if line != "" {
				sb.WriteString(style.Render(line))
			}
		}
	}
	return sb.String()
}
