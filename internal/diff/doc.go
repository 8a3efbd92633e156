// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff provides word-level diffing for prompt revisions.
//
// Text is split into tokens (whitespace runs, single CJK or Latin
// punctuation marks, and runs of everything else), aligned with a longest
// common subsequence, and emitted as merged added/removed/unchanged segments.
//
// # Key Types
//
//   - SegmentType: Type of segment (unchanged, added, removed)
//   - Segment: Run of consecutive tokens sharing a type
//   - Report: Segments plus statistics for display and export
//
// # Usage
//
// Compute a diff between two prompts:
//
//	segs := diff.ComputeWordDiff(oldPrompt, newPrompt)
//	fmt.Println(diff.FormatInline(segs))
//
// Render for a terminal:
//
//	fmt.Println(diff.Render(segs, diff.DefaultTheme()))
//
// The alignment table is O(m·n) in token counts. Use ComputeWordDiffLimit
// when the inputs come from untrusted sources.
package diff
