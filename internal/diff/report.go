// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"
)

// =============================================================================
// STATS
// =============================================================================

// Stats counts non-whitespace tokens per segment type.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Unchanged int `json:"unchanged"`
}

// Changed reports whether any token was added or removed.
func (s Stats) Changed() bool {
	return s.Additions > 0 || s.Deletions > 0
}

// countWords adds the non-whitespace tokens of seg to s.
func (s *Stats) countWords(seg Segment) {
	for _, tok := range Tokenize(seg.Text) {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		switch seg.Type {
		case SegmentAdded:
			s.Additions++
		case SegmentRemoved:
			s.Deletions++
		default:
			s.Unchanged++
		}
	}
}

// =============================================================================
// REPORT
// =============================================================================

// Report is a complete prompt comparison.
type Report struct {
	OldText     string    `json:"old_text"`
	NewText     string    `json:"new_text"`
	Segments    []Segment `json:"segments"`
	Stats       Stats     `json:"stats"`
	Significant bool      `json:"significant"`
}

// NewReport diffs oldText against newText with no token cap.
func NewReport(oldText, newText string) *Report {
	r, _ := NewReportLimit(oldText, newText, 0)
	return r
}

// NewReportLimit diffs oldText against newText, failing with ErrTooLarge
// when either side exceeds maxTokens.
func NewReportLimit(oldText, newText string, maxTokens int) (*Report, error) {
	segs, err := ComputeWordDiffLimit(oldText, newText, maxTokens)
	if err != nil {
		return nil, err
	}
	r := &Report{
		OldText:     oldText,
		NewText:     newText,
		Segments:    segs,
		Significant: significant(oldText, newText, segs),
	}
	for _, seg := range segs {
		r.Stats.countWords(seg)
	}
	return r, nil
}

// Summary returns a human-readable summary of the report.
func (r *Report) Summary() string {
	if len(r.Segments) == 0 {
		return "Nothing to compare"
	}
	if !r.Stats.Changed() {
		if r.Significant {
			return "Modified"
		}
		return "No changes"
	}

	parts := []string{"Modified"}
	if r.Stats.Additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", r.Stats.Additions))
	}
	if r.Stats.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", r.Stats.Deletions))
	}
	return strings.Join(parts, " ")
}
