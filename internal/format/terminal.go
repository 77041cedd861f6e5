// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// TerminalRenderer renders raw message text for an ANSI terminal.
// Markdown goes through glamour; math is converted to Unicode first because
// glamour has no notion of LaTeX. Safe for concurrent use.
type TerminalRenderer struct {
	mu       sync.Mutex
	width    int
	dark     bool
	markdown bool
	math     MathRenderer
	glamour  *glamour.TermRenderer
}

// NewTerminalRenderer creates a renderer wrapping at width columns.
func NewTerminalRenderer(width int, dark bool) *TerminalRenderer {
	if width <= 0 {
		width = 80
	}
	return &TerminalRenderer{
		width:    width,
		dark:     dark,
		markdown: true,
		math:     UnicodeMath{},
	}
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt lazily.
func (r *TerminalRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width > 0 && width != r.width {
		r.width = width
		r.glamour = nil
	}
}

// SetDark switches between the dark and light glamour styles.
func (r *TerminalRenderer) SetDark(dark bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dark != r.dark {
		r.dark = dark
		r.glamour = nil
	}
}

// SetMarkdown enables or disables glamour. When disabled the plain renderer is used.
func (r *TerminalRenderer) SetMarkdown(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markdown = enabled
}

// RenderMessage renders a full bot reply. If the text carries an explanation
// sentinel, the explanation is shown only when expanded; otherwise a hint line
// takes its place.
func (r *TerminalRenderer) RenderMessage(text string, expanded bool) string {
	main, explanation, kind, ok := Split(text)
	if !ok {
		return r.Render(text)
	}

	var b strings.Builder
	b.WriteString(r.Render(main))
	b.WriteString("\n")
	if !expanded {
		b.WriteString("  ▸ " + SectionTitle(kind) + " (" + LabelShowExplanation + ")\n")
		return b.String()
	}
	b.WriteString("  ▾ " + SectionTitle(kind) + " (" + LabelHideExplanation + ")\n")
	b.WriteString(r.Render(explanation))
	return b.String()
}

// Render converts one segment of text to terminal output.
func (r *TerminalRenderer) Render(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = r.replaceMath(text)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markdown {
		if tr, err := r.termRenderer(); err == nil {
			if out, err := tr.Render(text); err == nil {
				return strings.TrimRight(out, "\n")
			}
		}
	}
	return renderPlain(text, r.width)
}

// termRenderer returns the cached glamour renderer. Caller holds mu.
func (r *TerminalRenderer) termRenderer() (*glamour.TermRenderer, error) {
	if r.glamour != nil {
		return r.glamour, nil
	}
	style := "light"
	if r.dark {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return nil, err
	}
	r.glamour = tr
	return tr, nil
}

var reMarkdownCode = regexp.MustCompile("(?s)```.*?```|`[^`\\n]+`")

// replaceMath swaps math spans outside code for their Unicode rendering.
func (r *TerminalRenderer) replaceMath(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}

	var b strings.Builder
	last := 0
	for _, span := range reMarkdownCode.FindAllStringIndex(text, -1) {
		b.WriteString(r.mathSegment(text[last:span[0]]))
		b.WriteString(text[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(r.mathSegment(text[last:]))
	return b.String()
}

func (r *TerminalRenderer) mathSegment(seg string) string {
	if !strings.Contains(seg, "$") {
		return seg
	}
	p := &protected{}
	out := protectMath(seg, p)
	return rePlaceholder.ReplaceAllStringFunc(out, func(m string) string {
		sub := rePlaceholder.FindStringSubmatch(m)
		n, _ := strconv.Atoi(sub[1])
		region := p.math[n]
		rendered, err := r.math.RenderMath(region.source, region.display)
		if err != nil {
			delim := "$"
			if region.display {
				delim = "$$"
			}
			return delim + region.source + delim
		}
		return rendered
	})
}

// =============================================================================
// PLAIN RENDERER (GLAMOUR FALLBACK)
// =============================================================================

var reFenceBlock = regexp.MustCompile("(?s)```(?:([A-Za-z0-9_+#.-]+)?[ \\t]*\\n)?(.*?)```")

// renderPlain highlights fenced code with chroma and wraps the rest.
func renderPlain(text string, width int) string {
	var b strings.Builder
	last := 0
	for _, m := range reFenceBlock.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(wrapText(text[last:m[0]], width))
		lang := ""
		if m[2] >= 0 {
			lang = text[m[2]:m[3]]
		}
		code := strings.TrimRight(text[m[4]:m[5]], "\n")
		b.WriteString(highlightCode(code, lang))
		last = m[1]
	}
	b.WriteString(wrapText(text[last:], width))
	return b.String()
}

// highlightCode applies chroma syntax highlighting for 256-colour terminals.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// wrapText wraps each line at width display columns, breaking at spaces.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}
	var out, cur strings.Builder
	curWidth := 0
	for _, word := range strings.Fields(line) {
		w := runewidth.StringWidth(word)
		if curWidth > 0 && curWidth+1+w > width {
			out.WriteString(cur.String())
			out.WriteByte('\n')
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	out.WriteString(cur.String())
	return out.String()
}
