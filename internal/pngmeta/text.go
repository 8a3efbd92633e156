// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pngmeta

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// TextChunk is the logical content of a tEXt or iTXt chunk.
type TextChunk struct {
	Type    string `json:"type"`
	Keyword string `json:"keyword"`
	Text    string `json:"text"`

	// iTXt only.
	Compressed        bool   `json:"compressed,omitempty"`
	LanguageTag       string `json:"language_tag,omitempty"`
	TranslatedKeyword string `json:"translated_keyword,omitempty"`
}

// MaxInflatedText caps the decompressed size of a compressed iTXt text
// field. A field that inflates past it is returned as its raw bytes.
const MaxInflatedText = 1 << 20

var errInflateLimit = errors.New("pngmeta: compressed text exceeds limit")

// latin1 replaces runes outside ISO 8859-1 instead of failing.
var latin1 = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())

// stripNUL drops NUL bytes; in tEXt the single NUL is the separator.
func stripNUL(b []byte) []byte {
	if bytes.IndexByte(b, 0) < 0 {
		return b
	}
	return bytes.ReplaceAll(b, []byte{0}, nil)
}

func encodeLatin1(s string) []byte {
	b, err := latin1.Bytes([]byte(s))
	if err != nil {
		return stripNUL([]byte(s))
	}
	return stripNUL(b)
}

func decodeLatin1(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// =============================================================================
// ENCODING
// =============================================================================

// textData builds a tEXt payload: keyword \0 text, both Latin-1.
func textData(keyword, text string) []byte {
	kw := encodeLatin1(keyword)
	tx := encodeLatin1(text)
	data := make([]byte, 0, len(kw)+1+len(tx))
	data = append(data, kw...)
	data = append(data, 0)
	return append(data, tx...)
}

// itxtData builds an uncompressed iTXt payload with empty language tag and
// translated keyword:
//
//	keyword \0 flag(0) method(0) \0 \0 text(UTF-8)
func itxtData(keyword, text string) []byte {
	kw := encodeLatin1(keyword)
	data := make([]byte, 0, len(kw)+5+len(text))
	data = append(data, kw...)
	data = append(data, 0, 0, 0, 0, 0)
	return append(data, text...)
}

// EncodeText returns a complete framed tEXt chunk.
func EncodeText(keyword, text string) []byte {
	return encodeChunk(TypeTEXt, textData(keyword, text))
}

// EncodeIText returns a complete framed iTXt chunk.
func EncodeIText(keyword, text string) []byte {
	return encodeChunk(TypeITXt, itxtData(keyword, text))
}

// =============================================================================
// DECODING
// =============================================================================

// cutNUL splits b at the first NUL. If there is none, rest is nil.
func cutNUL(b []byte) (head, rest []byte, found bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

// parseText decodes a tEXt payload.
func parseText(data []byte) TextChunk {
	kw, rest, _ := cutNUL(data)
	return TextChunk{
		Type:    TypeTEXt,
		Keyword: decodeLatin1(kw),
		Text:    decodeLatin1(rest),
	}
}

// parseIText decodes an iTXt payload. Missing separators yield empty fields
// rather than an error. A compressed text field is inflated up to
// MaxInflatedText bytes; if inflation fails the raw bytes are returned.
func parseIText(data []byte) TextChunk {
	kw, rest, _ := cutNUL(data)
	tc := TextChunk{Type: TypeITXt, Keyword: decodeLatin1(kw)}
	if len(rest) < 2 {
		return tc
	}
	flag, method := rest[0], rest[1]
	rest = rest[2:]

	lang, rest, _ := cutNUL(rest)
	tc.LanguageTag = string(lang)
	trans, rest, _ := cutNUL(rest)
	tc.TranslatedKeyword = strings.ToValidUTF8(string(trans), "�")

	text := rest
	if flag == 1 && method == 0 {
		tc.Compressed = true
		if inflated, err := inflate(rest); err == nil {
			text = inflated
		}
	}
	tc.Text = strings.ToValidUTF8(string(text), "�")
	return tc
}

func inflate(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, MaxInflatedText+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxInflatedText {
		return nil, errInflateLimit
	}
	return out, nil
}

// chunkKeyword returns the keyword of a tEXt or iTXt chunk without decoding
// the rest of the payload.
func chunkKeyword(c rawChunk) (string, bool) {
	if c.typ != TypeTEXt && c.typ != TypeITXt {
		return "", false
	}
	kw, _, _ := cutNUL(c.data)
	return decodeLatin1(kw), true
}

// parseTextChunk decodes c if it is tEXt or iTXt.
func parseTextChunk(c rawChunk) (TextChunk, bool) {
	switch c.typ {
	case TypeTEXt:
		return parseText(c.data), true
	case TypeITXt:
		return parseIText(c.data), true
	}
	return TextChunk{}, false
}
