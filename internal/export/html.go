// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/promptstamp/internal/diff"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports documents to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a document to HTML. All prompt text is escaped.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(doc.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"promptstamp\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", doc.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString(fmt.Sprintf("    <div class=\"container\" id=\"%s\">\n", html.EscapeString(doc.ID)))

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(doc))
	}

	sb.WriteString("        <main>\n")
	sb.WriteString("            <h2>Diff</h2>\n")
	if len(doc.Report.Segments) == 0 {
		sb.WriteString("            <p class=\"empty\">Nothing to compare.</p>\n")
	} else {
		sb.WriteString(fmt.Sprintf("            <pre class=\"diff\">%s</pre>\n", renderSegmentsHTML(doc.Report.Segments)))
	}

	if e.options.IncludeSources {
		sb.WriteString(fmt.Sprintf("            <h2>%s</h2>\n", html.EscapeString(doc.OldLabel)))
		sb.WriteString(fmt.Sprintf("            <pre class=\"source\">%s</pre>\n", html.EscapeString(doc.Report.OldText)))
		sb.WriteString(fmt.Sprintf("            <h2>%s</h2>\n", html.EscapeString(doc.NewLabel)))
		sb.WriteString(fmt.Sprintf("            <pre class=\"source\">%s</pre>\n", html.EscapeString(doc.Report.NewText)))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Generated by <strong>promptstamp</strong> on %s</p>\n",
		doc.CreatedAt.Format("January 2, 2006 at 3:04 PM MST")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(script)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(doc *Document) string {
	r := doc.Report
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(doc.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Old:</strong> %s</span>\n", html.EscapeString(doc.OldLabel)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>New:</strong> %s</span>\n", html.EscapeString(doc.NewLabel)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(doc.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Summary:</strong> %s</span>\n", html.EscapeString(doc.Summary)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item stats\"><ins>+%d</ins> <del>-%d</del></span>\n",
		r.Stats.Additions, r.Stats.Deletions))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

// renderSegmentsHTML wraps changed segments in <ins> and <del>.
func renderSegmentsHTML(segments []diff.Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		text := html.EscapeString(seg.Text)
		switch seg.Type {
		case diff.SegmentAdded:
			sb.WriteString("<ins>" + text + "</ins>")
		case diff.SegmentRemoved:
			sb.WriteString("<del>" + text + "</del>")
		default:
			sb.WriteString(text)
		}
	}
	return sb.String()
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1c1917;
            --bg-secondary: #292524;
            --bg-tertiary: #44403c;
            --text-primary: #e7e5e4;
            --text-muted: #a8a29e;
            --border-color: #57534e;
            --added-fg: #6ee7b7;
            --added-bg: #064e3b;
            --removed-fg: #fda4af;
            --removed-bg: #4c0519;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #fafaf9;
            --bg-tertiary: #e7e5e4;
            --text-primary: #1c1917;
            --text-muted: #78716c;
            --border-color: #d6d3d1;
            --added-fg: #065f46;
            --added-bg: #d1fae5;
            --removed-fg: #9f1239;
            --removed-bg: #ffe4e6;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 32px;
            background: var(--bg-tertiary);
            border-bottom: 2px solid var(--border-color);
        }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-muted);
            align-items: center;
        }

        .theme-toggle {
            margin-left: auto;
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 6px 12px;
            cursor: pointer;
        }

        main { padding: 24px 32px; }
        h2 { font-size: 16px; margin: 24px 0 8px; color: var(--text-muted); }

        pre {
            font-family: var(--font-mono);
            white-space: pre-wrap;
            word-break: break-word;
            padding: 16px;
            border: 1px solid var(--border-color);
            border-radius: 8px;
        }

        ins { color: var(--added-fg); background: var(--added-bg); text-decoration: none; }
        del { color: var(--removed-fg); background: var(--removed-bg); }

        .empty { color: var(--text-muted); font-style: italic; }
        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); }
    </style>
`

const script = `    <script>
        function toggleTheme() {
            const body = document.body;
            if (body.classList.contains('dark-theme')) {
                body.classList.replace('dark-theme', 'light-theme');
            } else {
                body.classList.replace('light-theme', 'dark-theme');
            }
        }
    </script>
`
