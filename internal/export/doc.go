// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders prompt diff reports to shareable formats.
//
// # Key Types
//
//   - Document: A diff report with an ID, labels and a creation time
//   - Exporter: Converts a Document to bytes in one format
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - JSON: Machine-readable, segments and stats included
//   - Markdown: Readable diff with ~~removed~~ and **added** words
//   - HTML: Standalone page with <del>/<ins> markup and a light/dark theme
//
// # Usage
//
//	report := diff.NewReport(oldPrompt, newPrompt)
//	doc := export.NewDocument(report, "v1.png", "v2.png")
//	e, err := export.ForFormat("markdown", nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(doc, e, "")
package export
