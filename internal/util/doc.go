// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the promptstamp commands.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: Display-width aware truncation with ellipsis (CJK safe)
//   - PadRight: Pad to a display width for table columns
//   - StringWidth: Terminal column count of a string
//   - FormatSize: Human-readable byte counts
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a prompt preview into a table cell
//	cell := util.PadRight(util.TruncateWidth(prompt, 40), 40)
//
//	// Write an image without leaving a half-written file behind
//	err := util.AtomicWriteFile(path, data, 0644)
package util
