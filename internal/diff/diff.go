// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff provides word-level diffing for prompt revisions.
package diff

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// SegmentType represents the type of a diff segment.
type SegmentType int

const (
	// SegmentUnchanged represents text present in both versions
	SegmentUnchanged SegmentType = iota
	// SegmentAdded represents text only in the new version
	SegmentAdded
	// SegmentRemoved represents text only in the old version
	SegmentRemoved
)

// String returns the string representation of a segment type.
func (t SegmentType) String() string {
	switch t {
	case SegmentUnchanged:
		return "unchanged"
	case SegmentAdded:
		return "added"
	case SegmentRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t SegmentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SegmentType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unchanged":
		*t = SegmentUnchanged
	case "added":
		*t = SegmentAdded
	case "removed":
		*t = SegmentRemoved
	default:
		return fmt.Errorf("diff: unknown segment type %q", b)
	}
	return nil
}

// Segment is a run of consecutive tokens sharing a type.
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// ErrTooLarge is returned by ComputeWordDiffLimit when an input has more
// tokens than allowed.
var ErrTooLarge = errors.New("diff: input too large")

// =============================================================================
// WORD DIFF
// =============================================================================

// ComputeWordDiff returns the merged segments turning oldText into newText.
// Either input being empty yields no segments at all.
func ComputeWordDiff(oldText, newText string) []Segment {
	if oldText == "" || newText == "" {
		return []Segment{}
	}
	return mergeSegments(emit(Tokenize(oldText), Tokenize(newText)))
}

// ComputeWordDiffLimit is ComputeWordDiff with a cap on the token count of
// each input. maxTokens <= 0 disables the cap.
func ComputeWordDiffLimit(oldText, newText string, maxTokens int) ([]Segment, error) {
	if oldText == "" || newText == "" {
		return []Segment{}, nil
	}
	oldTokens, newTokens := Tokenize(oldText), Tokenize(newText)
	if maxTokens > 0 {
		if len(oldTokens) > maxTokens {
			return nil, fmt.Errorf("%w: old text has %d tokens, limit %d",
				ErrTooLarge, len(oldTokens), maxTokens)
		}
		if len(newTokens) > maxTokens {
			return nil, fmt.Errorf("%w: new text has %d tokens, limit %d",
				ErrTooLarge, len(newTokens), maxTokens)
		}
	}
	return mergeSegments(emit(oldTokens, newTokens)), nil
}

// HasSignificantDiff reports whether the texts differ by more than
// whitespace.
func HasSignificantDiff(oldText, newText string) bool {
	if oldText == "" || newText == "" {
		return false
	}
	return significant(oldText, newText, ComputeWordDiff(oldText, newText))
}

// significant is HasSignificantDiff over segments already computed for the
// same pair of texts.
func significant(oldText, newText string, segs []Segment) bool {
	if oldText == "" || newText == "" {
		return false
	}
	if strings.TrimSpace(oldText) == strings.TrimSpace(newText) {
		return false
	}
	for _, seg := range segs {
		if seg.Type != SegmentUnchanged && strings.TrimSpace(seg.Text) != "" {
			return true
		}
	}
	return false
}

// emit walks both token streams against their LCS with three cursors and
// returns one segment per token, unmerged.
func emit(oldTokens, newTokens []string) []Segment {
	lcs := computeLCS(oldTokens, newTokens)
	result := make([]Segment, 0, len(oldTokens)+len(newTokens))

	oldIdx, newIdx, lcsIdx := 0, 0, 0
	for oldIdx < len(oldTokens) || newIdx < len(newTokens) {
		inLCS := lcsIdx < len(lcs)
		switch {
		case inLCS && oldIdx < len(oldTokens) && oldTokens[oldIdx] == lcs[lcsIdx]:
			if newIdx < len(newTokens) && newTokens[newIdx] == lcs[lcsIdx] {
				result = append(result, Segment{SegmentUnchanged, oldTokens[oldIdx]})
				oldIdx++
				newIdx++
				lcsIdx++
			} else {
				// old is waiting on the common token; new has an insertion first
				result = append(result, Segment{SegmentAdded, newTokens[newIdx]})
				newIdx++
			}
		case inLCS && newIdx < len(newTokens) && newTokens[newIdx] == lcs[lcsIdx]:
			result = append(result, Segment{SegmentRemoved, oldTokens[oldIdx]})
			oldIdx++
		case oldIdx < len(oldTokens) && newIdx < len(newTokens):
			result = append(result,
				Segment{SegmentRemoved, oldTokens[oldIdx]},
				Segment{SegmentAdded, newTokens[newIdx]})
			oldIdx++
			newIdx++
		case oldIdx < len(oldTokens):
			result = append(result, Segment{SegmentRemoved, oldTokens[oldIdx]})
			oldIdx++
		default:
			result = append(result, Segment{SegmentAdded, newTokens[newIdx]})
			newIdx++
		}
	}
	return result
}

// computeLCS computes the Longest Common Subsequence of two token slices.
// On a tie the backtrack moves left (j--), which decides the alignment when
// several LCS solutions exist.
func computeLCS(a, b []string) []string {
	m, n := len(a), len(b)

	// Create DP table
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	// Fill DP table
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	// Backtrack, collecting in reverse
	lcs := make([]string, 0, dp[m][n])
	i, j := m, n
	for i > 0 && j > 0 {
		if a[i-1] == b[j-1] {
			lcs = append(lcs, a[i-1])
			i--
			j--
		} else if dp[i-1][j] > dp[i][j-1] {
			i--
		} else {
			j--
		}
	}
	for l, r := 0, len(lcs)-1; l < r; l, r = l+1, r-1 {
		lcs[l], lcs[r] = lcs[r], lcs[l]
	}
	return lcs
}

// mergeSegments joins consecutive segments of the same type.
func mergeSegments(segments []Segment) []Segment {
	if len(segments) == 0 {
		return []Segment{}
	}

	merged := []Segment{segments[0]}
	var sb strings.Builder
	sb.WriteString(segments[0].Text)

	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if last.Type == seg.Type {
			sb.WriteString(seg.Text)
			continue
		}
		last.Text = sb.String()
		sb.Reset()
		sb.WriteString(seg.Text)
		merged = append(merged, seg)
	}
	merged[len(merged)-1].Text = sb.String()
	return merged
}
