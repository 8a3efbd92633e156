// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/promptstamp/internal/util"
)

// stdio is the path that means stdin or stdout.
const stdio = "-"

// readInput reads a file, or rt.Stdin when path is "-".
func readInput(rt *Runtime, path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(rt.Stdin)
		if err != nil {
			return nil, wrapIO(fmt.Errorf("read stdin: %w", err))
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapIO(err)
	}
	return data, nil
}

// writeOutput writes data atomically to path, or to rt.Stdout when path is "-".
func writeOutput(rt *Runtime, path string, data []byte) error {
	if path == stdio {
		if _, err := rt.Stdout.Write(data); err != nil {
			return wrapIO(fmt.Errorf("write stdout: %w", err))
		}
		return nil
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return wrapIO(err)
	}
	return nil
}

// stampedPath derives the default embed output path: cat.png -> cat-stamped.png.
func stampedPath(in string) string {
	ext := filepath.Ext(in)
	if ext == "" {
		ext = ".png"
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + "-stamped" + ext
}

// info prints a human-readable line to stderr unless --quiet is set.
func info(rt *Runtime, args Args, format string, a ...interface{}) {
	if args.Quiet {
		return
	}
	fmt.Fprintf(rt.Stderr, format+"\n", a...)
}
