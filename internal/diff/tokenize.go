// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import "unicode"

// delimiters are punctuation marks that always form a token of their own.
// Newline is absorbed by the whitespace rule before this set is consulted.
var delimiters = map[rune]struct{}{
	'，': {}, '。': {}, '！': {}, '？': {}, '、': {}, '：': {}, '；': {},
	'"': {}, '\'': {},
	'（': {}, '）': {}, '【': {}, '】': {}, '《': {}, '》': {},
}

func isDelimiter(r rune) bool {
	_, ok := delimiters[r]
	return ok
}

// isSpace matches the ECMAScript \s class: Unicode White_Space minus NEL,
// plus the byte order mark.
func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

// Tokenize splits text into whitespace runs, single delimiter characters and
// runs of other characters. Concatenating the tokens yields text again.
func Tokenize(text string) []string {
	var tokens []string
	start := -1 // start of the pending word run

	flush := func(end int) {
		if start >= 0 && end > start {
			tokens = append(tokens, text[start:end])
		}
		start = -1
	}

	spaceStart := -1
	for i, r := range text {
		if isSpace(r) {
			if spaceStart < 0 {
				flush(i)
				spaceStart = i
			}
			continue
		}
		if spaceStart >= 0 {
			tokens = append(tokens, text[spaceStart:i])
			spaceStart = -1
		}
		if isDelimiter(r) {
			flush(i)
			tokens = append(tokens, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}

	if spaceStart >= 0 {
		tokens = append(tokens, text[spaceStart:])
	}
	flush(len(text))
	return tokens
}
