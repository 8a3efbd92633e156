// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - "did you mean" hints for mistyped commands and config keys.

package cli

import (
	"strings"

	"github.com/jeranaias/promptstamp/internal/config"
)

// commandWords lists every command word ParseArgs accepts, aliases included.
var commandWords = []string{
	"embed", "stamp",
	"extract", "read",
	"inspect", "chunks",
	"diff",
	"watch",
	"config",
	"version",
	"help",
}

// SuggestCommand returns the command closest to input, or "" when input is
// a valid command or nothing is close enough. One edit is tolerated below
// four characters, two from four up (enough for a transposition).
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if len(input) < 2 {
		return ""
	}
	limit := 1
	if len(input) >= 4 {
		limit = 2
	}
	return closest(input, commandWords, limit)
}

// suggestKey returns the config key closest to key within three edits.
func suggestKey(key string) string {
	return closest(strings.ToLower(key), config.AllKeys(), 3)
}

// closest returns the candidate with the smallest edit distance to input,
// provided it is at most limit. An exact match yields "".
func closest(input string, candidates []string, limit int) string {
	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := editDistance(input, c)
		if d == 0 {
			return ""
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance over bytes, computed with a
// single row.
func editDistance(a, b string) int {
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = min(row[j]+1, row[j-1]+1, sub)
		}
	}
	return row[len(b)]
}
