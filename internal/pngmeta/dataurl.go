// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pngmeta

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Transport adapters for callers that hold images as base64 strings or
// data URLs. The codec itself only sees raw bytes.

// DataURLPrefix is prepended by EncodeDataURL.
const DataURLPrefix = "data:image/png;base64,"

// ErrInvalidBase64 is returned when the payload cannot be decoded.
var ErrInvalidBase64 = errors.New("pngmeta: invalid base64 payload")

// StripDataURL removes everything up to and including the first comma.
func StripDataURL(s string) string {
	if _, after, ok := strings.Cut(s, ","); ok {
		return after
	}
	return s
}

// DecodeBase64 decodes a bare base64 string or a data URL.
func DecodeBase64(s string) ([]byte, error) {
	payload := strings.TrimSpace(StripDataURL(s))
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return data, nil
}

// EncodeBase64 returns bare standard base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// EncodeDataURL returns data as a data:image/png URL.
func EncodeDataURL(data []byte) string {
	return DataURLPrefix + EncodeBase64(data)
}

// EmbedBase64 embeds prompt into a base64 or data-URL PNG and returns bare
// base64. Non-PNG input comes back unchanged apart from the stripped prefix.
func EmbedBase64(s, prompt string, opts Options) (string, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return StripDataURL(s), err
	}
	if !HasSignature(data) {
		return StripDataURL(s), nil
	}
	return EncodeBase64(EmbedWith(data, prompt, opts)), nil
}

// DecodeBase64Result decodes a base64 or data-URL PNG and returns its
// prompt metadata. Undecodable payloads report StatusNotPNG.
func DecodeBase64Result(s string) Result {
	data, err := DecodeBase64(s)
	if err != nil {
		return Result{Status: StatusNotPNG}
	}
	return Decode(data)
}

// ExtractBase64 is Extract for base64 or data-URL input.
func ExtractBase64(s string) (string, bool) {
	res := DecodeBase64Result(s)
	return res.Prompt, res.Found()
}
