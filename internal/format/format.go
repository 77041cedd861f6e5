// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// SENTINELS
// =============================================================================

// Explanation sentinels emitted by the backend between an answer and its explanation.
const (
	SentinelExplanation     = "---GIẢI THÍCH---"
	SentinelStepExplanation = "---GIẢI THÍCH TỪNG BƯỚC---"
)

// Labels for the explanation toggle.
const (
	LabelShowExplanation = "Hiện giải thích"
	LabelHideExplanation = "Ẩn giải thích"
)

// ToggleLabel returns the toggle button text for the given visibility.
func ToggleLabel(shown bool) string {
	if shown {
		return LabelHideExplanation
	}
	return LabelShowExplanation
}

// separatorTitles maps each sentinel to the heading shown in its place.
var separatorTitles = []struct {
	sentinel string
	title    string
}{
	// Longest first.
	{SentinelStepExplanation, "Giải thích từng bước"},
	{SentinelExplanation, "Giải thích"},
}

// =============================================================================
// PLACEHOLDERS
// =============================================================================

// Placeholders use private-use runes that are stripped from input first,
// so no user text can collide with them.
const (
	phCodeOpen  = '\uE000'
	phCodeClose = '\uE001'
	phMathOpen  = '\uE002'
	phMathClose = '\uE003'
)

var (
	reFencedCode  = regexp.MustCompile("(?s)```(?:([A-Za-z0-9_+#.-]+)?[ \\t]*\\n)?(.*?)```")
	reInlineCode  = regexp.MustCompile("`([^`\\n]+)`")
	rePlaceholder = regexp.MustCompile("[\uE000\uE002](\\d+)[\uE001\uE003]")

	reHeading      = regexp.MustCompile(`^(#{1,3}) (.*)$`)
	reUnorderedLi  = regexp.MustCompile(`^[-*] (.*)$`)
	reOrderedLi    = regexp.MustCompile(`^\d+\. (.*)$`)
	reStrongEm     = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	reStrong       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reEm           = regexp.MustCompile(`\*([^*\n]+?)\*`)
	privateUseRuns = strings.NewReplacer(
		string(phCodeOpen), "", string(phCodeClose), "",
		string(phMathOpen), "", string(phMathClose), "",
	)
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// =============================================================================
// FORMATTER
// =============================================================================

// Formatter converts raw text to HTML markup. Safe for concurrent use.
type Formatter struct {
	math MathRenderer
}

// New creates a Formatter. A nil renderer selects MarkupMath.
func New(math MathRenderer) *Formatter {
	if math == nil {
		math = MarkupMath{}
	}
	return &Formatter{math: math}
}

// codeRegion is a protected fenced or inline code span.
type codeRegion struct {
	lang    string
	content string
	fenced  bool
}

// mathRegion is a delimited math span awaiting rendering.
type mathRegion struct {
	source  string // escaped text between the delimiters
	display bool
}

// protected holds everything lifted out of the text during a format pass.
type protected struct {
	code []codeRegion
	math []mathRegion
}

// Format converts raw text to HTML, replacing explanation sentinels with a
// separator element.
//
// Order: escape, protect code and math, block/inline transforms, line breaks,
// render math, sentinels, restore code. Code is restored last so nothing
// inside a fence or backticks is ever rewritten.
func (f *Formatter) Format(raw string) string {
	if raw == "" {
		return ""
	}
	text, p := f.prepare(raw)
	text = transformBlocks(text)
	text = f.renderMath(text, p)
	text = replaceSentinels(text)
	return restoreCode(text, p)
}

// FormatLive renders text the way a live bot message is shown: the part after
// the first sentinel goes into a collapsible explanation container.
func (f *Formatter) FormatLive(raw string, expanded bool) string {
	main, explanation, kind, ok := Split(raw)
	if !ok {
		return f.Format(raw)
	}

	var b strings.Builder
	b.WriteString(f.Format(main))
	b.WriteString(`<div class="explanation-section">`)
	b.WriteString(`<button type="button" class="explanation-toggle" data-show="`)
	b.WriteString(LabelShowExplanation)
	b.WriteString(`" data-hide="`)
	b.WriteString(LabelHideExplanation)
	b.WriteString(`">`)
	b.WriteString(ToggleLabel(expanded))
	b.WriteString(`</button>`)
	if expanded {
		b.WriteString(`<div class="explanation-content">`)
	} else {
		b.WriteString(`<div class="explanation-content collapsed" hidden>`)
	}
	b.WriteString(`<div class="solution-separator">`)
	b.WriteString(EscapeHTML(SectionTitle(kind)))
	b.WriteString(`</div>`)
	b.WriteString(f.Format(explanation))
	b.WriteString(`</div></div>`)
	return b.String()
}

// Split divides raw text at the first sentinel outside code into the main
// answer and the explanation. kind is the sentinel that matched.
func Split(raw string) (main, explanation, kind string, ok bool) {
	codeSpans := codeSpanIndexes(raw)

	best := -1
	for _, s := range separatorTitles {
		from := 0
		for {
			i := strings.Index(raw[from:], s.sentinel)
			if i < 0 {
				break
			}
			i += from
			if !insideSpans(i, codeSpans) {
				if best < 0 || i < best {
					best = i
					kind = s.sentinel
				}
				break
			}
			from = i + len(s.sentinel)
		}
	}
	if best < 0 {
		return raw, "", "", false
	}

	main = strings.TrimRight(raw[:best], " \t\r\n")
	explanation = strings.TrimLeft(raw[best+len(kind):], " \t\r\n")
	return main, explanation, kind, true
}

// =============================================================================
// PIPELINE STEPS
// =============================================================================

// prepare escapes the text and lifts code and math into placeholders.
func (f *Formatter) prepare(raw string) (string, *protected) {
	p := &protected{}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	text := EscapeHTML(privateUseRuns.Replace(raw))

	text = reFencedCode.ReplaceAllStringFunc(text, func(m string) string {
		sub := reFencedCode.FindStringSubmatch(m)
		p.code = append(p.code, codeRegion{lang: sub[1], content: sub[2], fenced: true})
		return placeholder(phCodeOpen, phCodeClose, len(p.code)-1)
	})
	text = reInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		sub := reInlineCode.FindStringSubmatch(m)
		p.code = append(p.code, codeRegion{content: sub[1]})
		return placeholder(phCodeOpen, phCodeClose, len(p.code)-1)
	})

	text = protectMath(text, p)
	return text, p
}

func placeholder(open, end rune, n int) string {
	return string(open) + strconv.Itoa(n) + string(end)
}

// protectMath scans left to right for $$display$$ and $inline$ spans.
// An unmatched delimiter is kept as literal text and scanning resumes right
// after it, so a stray $ never swallows what follows.
func protectMath(text string, p *protected) string {
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == '$' {
			b.WriteString(`\$`)
			i += 2
			continue
		}
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		if strings.HasPrefix(text[i:], "$$") {
			end := strings.Index(text[i+2:], "$$")
			if end > 0 && !holdsCode(text[i+2:i+2+end]) {
				p.math = append(p.math, mathRegion{source: text[i+2 : i+2+end], display: true})
				b.WriteString(placeholder(phMathOpen, phMathClose, len(p.math)-1))
				i += 2 + end + 2
				continue
			}
			b.WriteString("$$")
			i += 2
			continue
		}

		end := strings.IndexAny(text[i+1:], "$\n")
		if end > 0 && text[i+1+end] == '$' && !holdsCode(text[i+1:i+1+end]) {
			p.math = append(p.math, mathRegion{source: text[i+1 : i+1+end]})
			b.WriteString(placeholder(phMathOpen, phMathClose, len(p.math)-1))
			i += 1 + end + 1
			continue
		}
		b.WriteByte('$')
		i++
	}
	return b.String()
}

// holdsCode reports whether a math candidate spans a code placeholder.
// Code wins, so such a span is left as literal text.
func holdsCode(src string) bool {
	return strings.ContainsRune(src, phCodeOpen)
}

// listKind distinguishes ordered from unordered list runs.
type listKind int

const (
	listNone listKind = iota
	listUnordered
	listOrdered
)

// transformBlocks converts headings, list items and emphasis line by line and
// joins lines with <br>. A contiguous run of list items is wrapped in a single
// <ul> or <ol> and counts as one line.
func transformBlocks(text string) string {
	lines := strings.Split(text, "\n")
	segments := make([]string, 0, len(lines))

	var items []string
	current := listNone
	flush := func() {
		if current == listNone {
			return
		}
		tag := "ul"
		if current == listOrdered {
			tag = "ol"
		}
		segments = append(segments, "<"+tag+">"+strings.Join(items, "")+"</"+tag+">")
		items = items[:0]
		current = listNone
	}

	for _, line := range lines {
		kind, content := listItem(line)
		if kind != listNone {
			if kind != current {
				flush()
				current = kind
			}
			items = append(items, "<li>"+emphasis(content)+"</li>")
			continue
		}
		flush()

		if m := reHeading.FindStringSubmatch(line); m != nil {
			// # -> h3, ## -> h4, ### -> h5
			level := strconv.Itoa(len(m[1]) + 2)
			segments = append(segments, "<h"+level+">"+emphasis(m[2])+"</h"+level+">")
			continue
		}
		segments = append(segments, emphasis(line))
	}
	flush()

	return strings.Join(segments, "<br>")
}

func listItem(line string) (listKind, string) {
	if m := reUnorderedLi.FindStringSubmatch(line); m != nil {
		return listUnordered, m[1]
	}
	if m := reOrderedLi.FindStringSubmatch(line); m != nil {
		return listOrdered, m[1]
	}
	return listNone, line
}

func emphasis(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	s = reStrongEm.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = reStrong.ReplaceAllString(s, "<strong>$1</strong>")
	return reEm.ReplaceAllString(s, "<em>$1</em>")
}

// renderMath substitutes math placeholders. A failed span keeps its original
// delimited text.
func (f *Formatter) renderMath(text string, p *protected) string {
	if len(p.math) == 0 {
		return text
	}
	return rePlaceholder.ReplaceAllStringFunc(text, func(m string) string {
		if []rune(m)[0] != phMathOpen {
			return m
		}
		n, _ := strconv.Atoi(rePlaceholder.FindStringSubmatch(m)[1])
		region := p.math[n]

		delim := "$"
		if region.display {
			delim = "$$"
		}
		rendered, err := f.safeRender(html.UnescapeString(region.source), region.display)
		if err != nil {
			return delim + region.source + delim
		}
		return rendered
	})
}

// safeRender calls the collaborator and turns a panic into an error.
func (f *Formatter) safeRender(src string, display bool) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MathError{Source: src, Reason: "renderer panicked"}
		}
	}()
	return f.math.RenderMath(src, display)
}

func replaceSentinels(text string) string {
	for _, s := range separatorTitles {
		text = strings.ReplaceAll(text, EscapeHTML(s.sentinel),
			`<div class="solution-separator">`+EscapeHTML(s.title)+`</div>`)
	}
	return text
}

// SectionTitle returns the heading for an explanation sentinel, or "".
func SectionTitle(sentinel string) string {
	for _, s := range separatorTitles {
		if s.sentinel == sentinel {
			return s.title
		}
	}
	return ""
}

// restoreCode puts protected code back as <pre><code> or <code>.
func restoreCode(text string, p *protected) string {
	if len(p.code) == 0 {
		return text
	}
	return rePlaceholder.ReplaceAllStringFunc(text, func(m string) string {
		if []rune(m)[0] != phCodeOpen {
			return m
		}
		n, _ := strconv.Atoi(rePlaceholder.FindStringSubmatch(m)[1])
		region := p.code[n]
		if !region.fenced {
			return "<code>" + region.content + "</code>"
		}
		class := ""
		if region.lang != "" {
			class = ` class="language-` + region.lang + `"`
		}
		return "<pre><code" + class + ">" + strings.TrimRight(region.content, "\n") + "</code></pre>"
	})
}

// =============================================================================
// CODE SPAN DETECTION (RAW TEXT)
// =============================================================================

var reRawFenced = regexp.MustCompile("(?s)```.*?```")

// codeSpanIndexes returns byte ranges of fenced and inline code in raw text.
func codeSpanIndexes(raw string) [][]int {
	spans := reRawFenced.FindAllStringIndex(raw, -1)
	masked := []byte(raw)
	for _, s := range spans {
		for i := s[0]; i < s[1]; i++ {
			masked[i] = ' '
		}
	}
	return append(spans, reInlineCode.FindAllStringIndex(string(masked), -1)...)
}

func insideSpans(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
