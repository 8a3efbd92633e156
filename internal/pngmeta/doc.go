// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pngmeta reads and writes PNG text metadata chunks.
//
// A prompt is stored as three iTXt chunks (parameters, Description, Comment)
// plus an ASCII tEXt Software tag, spliced in directly after IHDR. Pixel data
// is never decoded; the codec only walks chunk framing.
//
// # Key Types
//
//   - Result: outcome of a decode, distinguishing "not a PNG" from "no prompt"
//   - ChunkInfo: framing and checksum details of one chunk
//   - TextChunk: a decoded tEXt or iTXt keyword/text pair
//
// # Usage
//
// Embed and recover a prompt:
//
//	out := pngmeta.Embed(img, "a lighthouse at dusk")
//	prompt, ok := pngmeta.Extract(out)
//
// Work with base64 or data-URL payloads:
//
//	b64, err := pngmeta.EmbedBase64(dataURL, prompt, pngmeta.Options{})
//
// Malformed input never panics: Embed returns its input unchanged and the
// decoders report StatusNotPNG or StatusNotFound.
package pngmeta
