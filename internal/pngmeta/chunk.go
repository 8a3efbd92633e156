// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pngmeta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// =============================================================================
// FRAMING CONSTANTS
// =============================================================================

// Signature is the 8-byte header every PNG datastream starts with.
const Signature = "\x89PNG\r\n\x1a\n"

const (
	signatureLen = len(Signature)

	// chunkOverhead is length(4) + type(4) + crc(4).
	chunkOverhead = 12

	// maxChunkLength is the PNG four-byte unsigned integer limit (2^31-1).
	maxChunkLength = 1<<31 - 1
)

// Chunk type tags the codec cares about. Anything else is passed through.
const (
	TypeIHDR = "IHDR"
	TypeTEXt = "tEXt"
	TypeITXt = "iTXt"
	TypeIEND = "IEND"
)

var (
	// ErrNotPNG is returned when the input lacks the PNG signature.
	ErrNotPNG = errors.New("pngmeta: not a PNG datastream")
	// ErrTruncated is returned when a chunk runs past the end of the input.
	ErrTruncated = errors.New("pngmeta: truncated chunk")
)

// crcTable is the reflected 0xEDB88320 table, built once and never written.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 returns the PNG chunk checksum over type||data.
func CRC32(typ string, data []byte) uint32 {
	crc := crc32.Update(0, crcTable, []byte(typ))
	return crc32.Update(crc, crcTable, data)
}

// HasSignature reports whether data starts with the PNG signature.
func HasSignature(data []byte) bool {
	return len(data) >= signatureLen && string(data[:signatureLen]) == Signature
}

// =============================================================================
// CHUNK ENCODING
// =============================================================================

// encodeChunk frames data as [len][type][data][crc].
func encodeChunk(typ string, data []byte) []byte {
	out := make([]byte, chunkOverhead+len(data))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(data)))
	copy(out[4:8], typ)
	copy(out[8:], data)
	binary.BigEndian.PutUint32(out[8+len(data):], CRC32(typ, data))
	return out
}

// =============================================================================
// CHUNK WALKING
// =============================================================================

// rawChunk is a view into the caller's buffer. Nothing is copied.
type rawChunk struct {
	offset int
	typ    string
	data   []byte
	crc    uint32
	hasCRC bool
}

// valid reports whether the stored CRC matches the recomputed one.
func (c rawChunk) valid() bool {
	return c.hasCRC && c.crc == CRC32(c.typ, c.data)
}

// walk calls fn for every chunk after the signature until fn returns false,
// IEND is reached, or fewer than 12 bytes remain. A chunk whose data runs
// past the buffer stops the walk with ErrTruncated.
func walk(data []byte, fn func(c rawChunk) bool) error {
	pos := signatureLen
	for len(data)-pos >= chunkOverhead {
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		if length > maxChunkLength {
			return fmt.Errorf("%w: length %d at offset %d exceeds 2^31-1", ErrTruncated, length, pos)
		}
		start := pos + 8
		end := start + int(length)
		if end > len(data) {
			return fmt.Errorf("%w: %d data bytes declared at offset %d, %d available",
				ErrTruncated, length, pos, len(data)-start)
		}

		c := rawChunk{
			offset: pos,
			typ:    string(data[pos+4 : pos+8]),
			data:   data[start:end],
		}
		if end+4 <= len(data) {
			c.crc = binary.BigEndian.Uint32(data[end : end+4])
			c.hasCRC = true
		}

		if !fn(c) || c.typ == TypeIEND {
			return nil
		}
		pos = end + 4
	}
	return nil
}

// insertPoint returns the offset just past the first chunk (IHDR in any
// valid PNG), or -1 when the first chunk is not fully present.
func insertPoint(data []byte) int {
	if len(data) < signatureLen+chunkOverhead {
		return -1
	}
	length := binary.BigEndian.Uint32(data[signatureLen : signatureLen+4])
	if length > maxChunkLength {
		return -1
	}
	pos := signatureLen + chunkOverhead + int(length)
	if pos > len(data) {
		return -1
	}
	return pos
}

// =============================================================================
// INSPECTION
// =============================================================================

// ChunkInfo describes one chunk of a PNG datastream.
type ChunkInfo struct {
	Offset      int    `json:"offset"`
	Type        string `json:"type"`
	Length      int    `json:"length"`
	StoredCRC   uint32 `json:"stored_crc"`
	ComputedCRC uint32 `json:"computed_crc"`
	Valid       bool   `json:"valid"`
}

// Ancillary reports whether the chunk is ancillary (lowercase first letter).
func (c ChunkInfo) Ancillary() bool {
	return len(c.Type) == 4 && c.Type[0]&0x20 != 0
}

// Chunks lists every chunk in order. On a truncated stream it returns the
// chunks read so far together with an error wrapping ErrTruncated.
func Chunks(data []byte) ([]ChunkInfo, error) {
	if !HasSignature(data) {
		return nil, ErrNotPNG
	}
	var infos []ChunkInfo
	var short *rawChunk
	err := walk(data, func(c rawChunk) bool {
		if !c.hasCRC {
			short = &c
		}
		infos = append(infos, ChunkInfo{
			Offset:      c.offset,
			Type:        c.typ,
			Length:      len(c.data),
			StoredCRC:   c.crc,
			ComputedCRC: CRC32(c.typ, c.data),
			Valid:       c.valid(),
		})
		return true
	})
	if err == nil && short != nil {
		err = fmt.Errorf("%w: %s chunk at offset %d has no CRC", ErrTruncated, short.typ, short.offset)
	}
	return infos, err
}
