// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pngmeta

import "fmt"

// =============================================================================
// KEYWORDS
// =============================================================================

// DefaultSoftware is written to the tEXt Software chunk by Embed.
const DefaultSoftware = "DB Visual Engine"

// Keywords written by Embed.
const (
	KeywordParameters  = "parameters"
	KeywordPrompt      = "prompt"
	KeywordDescription = "Description"
	KeywordComment     = "Comment"
	KeywordSoftware    = "Software"
)

// promptKeywords are the keywords Decode accepts. Priority is file order,
// not the order of this set.
var promptKeywords = map[string]struct{}{
	KeywordParameters:  {},
	KeywordPrompt:      {},
	KeywordDescription: {},
	KeywordComment:     {},
}

// IsPromptKeyword reports whether keyword is one Decode will return.
func IsPromptKeyword(keyword string) bool {
	_, ok := promptKeywords[keyword]
	return ok
}

// =============================================================================
// EMBED
// =============================================================================

// Options controls Embed output.
type Options struct {
	// Software is the value of the tEXt Software chunk.
	// Default: DefaultSoftware
	Software string
}

// Embed inserts the prompt after IHDR using the default options.
func Embed(data []byte, prompt string) []byte {
	return EmbedWith(data, prompt, Options{})
}

// EmbedWith inserts four chunks directly after the first chunk:
// iTXt parameters, iTXt Description, iTXt Comment and tEXt Software.
// No existing chunk is touched, so repeated calls accumulate metadata.
//
// Input that is not a PNG, or whose first chunk is cut short, is returned
// unchanged.
func EmbedWith(data []byte, prompt string, opts Options) []byte {
	if !HasSignature(data) {
		return data
	}
	pos := insertPoint(data)
	if pos < 0 {
		return data
	}
	software := opts.Software
	if software == "" {
		software = DefaultSoftware
	}

	chunks := [][]byte{
		EncodeIText(KeywordParameters, prompt),
		EncodeIText(KeywordDescription, prompt),
		EncodeIText(KeywordComment, prompt),
		EncodeText(KeywordSoftware, software),
	}
	extra := 0
	for _, c := range chunks {
		extra += len(c)
	}

	out := make([]byte, 0, len(data)+extra)
	out = append(out, data[:pos]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, data[pos:]...)
}

// =============================================================================
// DECODE
// =============================================================================

// Status is the outcome of a decode.
type Status int

const (
	// StatusNotPNG means the input lacks the PNG signature.
	StatusNotPNG Status = iota
	// StatusNotFound means the input is a PNG without a prompt chunk.
	StatusNotFound
	// StatusFound means a prompt was recovered.
	StatusFound
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case StatusNotPNG:
		return "not_png"
	case StatusNotFound:
		return "not_found"
	case StatusFound:
		return "found"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_png":
		*s = StatusNotPNG
	case "not_found":
		*s = StatusNotFound
	case "found":
		*s = StatusFound
	default:
		return fmt.Errorf("pngmeta: unknown status %q", b)
	}
	return nil
}

// Result is what Decode recovered from a PNG.
type Result struct {
	Status    Status `json:"status"`
	Prompt    string `json:"prompt,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
	ChunkType string `json:"chunk_type,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Found reports whether a prompt was recovered.
func (r Result) Found() bool {
	return r.Status == StatusFound
}

// Decode returns the first tEXt or iTXt chunk, in file order, whose keyword
// is parameters, prompt, Description or Comment. CRCs are not checked and a
// truncated stream yields whatever was found before the cut.
func Decode(data []byte) Result {
	return decode(data, false)
}

// DecodeStrict is Decode but skips text chunks whose CRC does not match.
func DecodeStrict(data []byte) Result {
	return decode(data, true)
}

func decode(data []byte, strict bool) Result {
	if !HasSignature(data) {
		return Result{Status: StatusNotPNG}
	}
	res := Result{Status: StatusNotFound}
	// truncation is not an error on this path
	_ = walk(data, func(c rawChunk) bool {
		kw, ok := chunkKeyword(c)
		if !ok || !IsPromptKeyword(kw) {
			return true
		}
		if strict && !c.valid() {
			return true
		}
		tc, _ := parseTextChunk(c)
		res = Result{
			Status:    StatusFound,
			Prompt:    tc.Text,
			Keyword:   tc.Keyword,
			ChunkType: tc.Type,
			Offset:    c.offset,
		}
		return false
	})
	return res
}

// Extract returns the embedded prompt, or false when the input is not a PNG
// or carries no prompt chunk.
func Extract(data []byte) (string, bool) {
	res := Decode(data)
	return res.Prompt, res.Found()
}

// TextChunks returns every tEXt and iTXt chunk in file order.
func TextChunks(data []byte) ([]TextChunk, error) {
	if !HasSignature(data) {
		return nil, ErrNotPNG
	}
	var out []TextChunk
	err := walk(data, func(c rawChunk) bool {
		if tc, ok := parseTextChunk(c); ok {
			out = append(out, tc)
		}
		return true
	})
	return out, err
}
