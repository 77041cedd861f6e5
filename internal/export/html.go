// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders a transcript as a standalone page with embedded CSS
// and a small script for the theme and explanation toggles.
type HTMLExporter struct {
	options   *Options
	formatter *format.Formatter
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts, formatter: format.New(format.MarkupMath{})}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"vi\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.Title()))
	sb.WriteString("    <meta name=\"generator\" content=\"giasu\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"chat-messages\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\">Xuất từ <strong>giasu</strong> lúc %s</footer>\n",
		formatTimestamp(time.Now()))
	sb.WriteString("    </div>\n")
	sb.WriteString(htmlScript)
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string { return "text/html" }

// =============================================================================
// RENDERING
// =============================================================================

func (e *HTMLExporter) renderHeader(t *Transcript) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(t.Title()))
	sb.WriteString("            <div class=\"metadata\">\n")
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Môn học:</strong> %s</span>\n", html.EscapeString(t.Subject))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Chế độ:</strong> %s</span>\n", html.EscapeString(string(t.Mode)))
	if t.Mode.HasSolutionModes() {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Lời giải:</strong> %s</span>\n", html.EscapeString(t.SolutionMode.Label()))
	}
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Bắt đầu:</strong> %s</span>\n", formatTimestamp(t.StartedAt))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Tin nhắn:</strong> %d</span>\n", len(t.Messages))
	sb.WriteString("                <button class=\"theme-toggle\" type=\"button\" onclick=\"toggleTheme()\">[Giao diện]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.ChatMessage) string {
	var sb strings.Builder

	class := "bot-message"
	switch {
	case msg.IsUser():
		class = "user-message"
	case msg.IsError():
		class = "bot-message error-message"
	}

	fmt.Fprintf(&sb, "            <div class=\"message %s\">\n", class)
	sb.WriteString("                <div class=\"message-header\">")
	fmt.Fprintf(&sb, "<span class=\"sender\">%s</span>", html.EscapeString(msg.Sender.DisplayName()))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "<span class=\"timestamp\">%s</span>", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("</div>\n")

	fmt.Fprintf(&sb, "                <div class=\"message-content\">%s</div>\n", e.markup(msg))
	if msg.ImageName != "" {
		fmt.Fprintf(&sb, "                <div class=\"attachment\">Ảnh đính kèm: %s</div>\n", html.EscapeString(msg.ImageName))
	}
	sb.WriteString("            </div>\n")
	return sb.String()
}

// markup returns the message's HTML. Stored markup is used when present so
// the page matches what was on screen, including expanded explanations.
func (e *HTMLExporter) markup(msg model.ChatMessage) string {
	if msg.Markup != "" {
		return msg.Markup
	}
	switch {
	case msg.IsError():
		return format.EscapeHTML(msg.Text)
	case msg.IsBot():
		return e.formatter.FormatLive(msg.Text, msg.ShowExplanation)
	default:
		return e.formatter.Format(msg.Text)
	}
}

// =============================================================================
// EMBEDDED CSS AND JAVASCRIPT
// =============================================================================

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #2f3b63;
            --bot-bg: #1f2335;
            --error-bg: #3b1f2b;
            --code-bg: #16161e;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #dbeafe;
            --bot-bg: #ffffff;
            --error-bg: #fde2e4;
            --code-bg: #f6f8fa;
            --accent: #0366d6;
        }

        body {
            font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; border-bottom: 2px solid var(--border-color); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); align-items: center; }
        .theme-toggle { margin-left: auto; background: none; border: 1px solid var(--border-color); color: var(--text-primary); border-radius: 6px; padding: 2px 10px; cursor: pointer; }

        .chat-messages { padding: 24px 32px; display: flex; flex-direction: column; gap: 16px; }
        .message { padding: 14px 18px; border-radius: 10px; border: 1px solid var(--border-color); max-width: 85%; }
        .user-message { background: var(--user-bg); align-self: flex-end; }
        .bot-message { background: var(--bot-bg); align-self: flex-start; }
        .error-message { background: var(--error-bg); }
        .message-header { display: flex; gap: 12px; font-size: 13px; color: var(--text-muted); margin-bottom: 6px; }
        .sender { font-weight: 600; }
        .attachment { font-size: 13px; color: var(--text-muted); margin-top: 6px; font-style: italic; }

        pre { background: var(--code-bg); padding: 12px; border-radius: 6px; overflow-x: auto; margin: 8px 0; }
        code { font-family: "Fira Code", Menlo, monospace; font-size: 14px; }
        ul, ol { padding-left: 24px; }
        .math-display { text-align: center; margin: 8px 0; }

        .solution-separator { font-weight: 600; color: var(--accent); border-top: 1px dashed var(--border-color); margin-top: 10px; padding-top: 6px; }
        .explanation-toggle { margin-top: 8px; background: none; border: 1px solid var(--accent); color: var(--accent); border-radius: 6px; padding: 2px 10px; cursor: pointer; }
        .explanation-content.collapsed { display: none; }

        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); border-top: 1px solid var(--border-color); }

        @media print {
            .theme-toggle, .explanation-toggle { display: none; }
            .explanation-content.collapsed { display: block; }
        }
    </style>
`

const htmlScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const dark = body.classList.contains('dark-theme');
            body.classList.toggle('dark-theme', !dark);
            body.classList.toggle('light-theme', dark);
        }

        document.querySelectorAll('.explanation-toggle').forEach(function (button) {
            button.addEventListener('click', function () {
                const content = button.nextElementSibling;
                const hidden = content.classList.toggle('collapsed');
                content.hidden = hidden;
                button.textContent = hidden ? button.dataset.show : button.dataset.hide;
            });
        });
    </script>
`
