// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pngmeta_test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

func ExampleEmbed() {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1)))

	out := pngmeta.Embed(buf.Bytes(), "a quiet harbour, morning light")
	prompt, ok := pngmeta.Extract(out)
	fmt.Println(ok, prompt)

	// Output:
	// true a quiet harbour, morning light
}

func ExampleDecode() {
	res := pngmeta.Decode([]byte("not an image"))
	fmt.Println(res.Status)

	// Output:
	// not_png
}

func ExampleCRC32() {
	fmt.Printf("%08X\n", pngmeta.CRC32("IEND", nil))

	// Output:
	// AE426082
}

func ExampleEmbedBase64() {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1)))
	dataURL := pngmeta.EncodeDataURL(buf.Bytes())

	b64, err := pngmeta.EmbedBase64(dataURL, "ink sketch of a heron", pngmeta.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	prompt, ok := pngmeta.ExtractBase64(b64)
	fmt.Println(ok, prompt)

	// Output:
	// true ink sketch of a heron
}
