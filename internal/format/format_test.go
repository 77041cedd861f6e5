// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mathCall records one collaborator invocation.
type mathCall struct {
	src     string
	display bool
}

// recordingMath returns a renderer that records calls and wraps output in [].
func recordingMath(calls *[]mathCall) MathRenderer {
	return MathFunc(func(src string, display bool) (string, error) {
		*calls = append(*calls, mathCall{src, display})
		return "[" + src + "]", nil
	})
}

// =============================================================================
// PLAIN TEXT
// =============================================================================

func TestFormat_PlainTextIsEscapedWithBreaks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"simple", "Xin chào", "Xin chào"},
		{"newline", "Dòng 1\nDòng 2", "Dòng 1<br>Dòng 2"},
		{"paragraph", "a\n\nb", "a<br><br>b"},
		{"crlf", "Dòng 1\r\nDòng 2\r\n\r\nDòng 3", "Dòng 1<br>Dòng 2<br><br>Dòng 3"},
		{"html", `<b>"x" & 'y'</b>`, "&lt;b&gt;&quot;x&quot; &amp; &#039;y&#039;&lt;/b&gt;"},
		{"script", "<script>alert('x')</script>", "&lt;script&gt;alert(&#039;x&#039;)&lt;/script&gt;"},
		{"unmatched dollar", "Giá 5$ mỗi quyển", "Giá 5$ mỗi quyển"},
		{"hyphen mid-line", "a - b = c", "a - b = c"},
	}

	f := New(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Format(tc.in))
		})
	}
}

// =============================================================================
// BLOCK AND INLINE TRANSFORMS
// =============================================================================

func TestFormat_Emphasis(t *testing.T) {
	f := New(nil)

	assert.Equal(t, "<strong>bold</strong>", f.Format("**bold**"))
	assert.Equal(t, "<em>nghiêng</em>", f.Format("*nghiêng*"))
	assert.Equal(t, "<strong><em>cả hai</em></strong>", f.Format("***cả hai***"))
	assert.Equal(t, "a <strong>b</strong> c <em>d</em>", f.Format("a **b** c *d*"))
}

func TestFormat_Headings(t *testing.T) {
	f := New(nil)

	got := f.Format("# Một\n## Hai\n### Ba")
	assert.Equal(t, "<h3>Một</h3><br><h4>Hai</h4><br><h5>Ba</h5>", got)

	// Four hashes are not a heading.
	assert.Equal(t, "#### Bốn", f.Format("#### Bốn"))
}

func TestFormat_Lists(t *testing.T) {
	f := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unordered", "- a\n- b", "<ul><li>a</li><li>b</li></ul>"},
		{"star bullets", "* a\n* **b**", "<ul><li>a</li><li><strong>b</strong></li></ul>"},
		{"ordered", "1. x\n2. y", "<ol><li>x</li><li>y</li></ol>"},
		{"with text", "Bước:\n- a\n- b\nXong", "Bước:<br><ul><li>a</li><li>b</li></ul><br>Xong"},
		{"switch kind", "- a\n1. b", "<ul><li>a</li></ul><br><ol><li>b</li></ol>"},
		{"separate runs", "- a\n\n- b", "<ul><li>a</li></ul><br><br><ul><li>b</li></ul>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Format(tc.in))
		})
	}
}

// =============================================================================
// CODE
// =============================================================================

func TestFormat_FencedCodeIsVerbatim(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	in := "Ví dụ:\n```python\nx = '$a$' # *b* **c**\n---GIẢI THÍCH---\n```"
	got := f.Format(in)

	assert.Contains(t, got, `<pre><code class="language-python">x = &#039;$a$&#039; # *b* **c**`+"\n---GIẢI THÍCH---</code></pre>")
	assert.NotContains(t, got, "<em>")
	assert.NotContains(t, got, "solution-separator")
	assert.Empty(t, calls, "math inside code must not be rendered")
}

func TestFormat_FenceWithoutLanguage(t *testing.T) {
	f := New(nil)

	assert.Equal(t, "<pre><code>a # b</code></pre>", f.Format("```\na # b\n```"))
	assert.Equal(t, "<pre><code>x = 1</code></pre>", f.Format("```x = 1```"))
}

func TestFormat_InlineCode(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	got := f.Format("Dùng `$x$` và `**`")
	assert.Equal(t, "Dùng <code>$x$</code> và <code>**</code>", got)
	assert.Empty(t, calls)
}

func TestFormat_CodeInsideDollarsIsNotMath(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	assert.Equal(t, "$a <code>x</code> b$", f.Format("$a `x` b$"))
	assert.Equal(t, "$$<code>y</code>$$", f.Format("$$`y`$$"))
	assert.Empty(t, calls, "code regions must never reach the math renderer")

	assert.Equal(t, "[c] <code>d</code>", f.Format("$c$ `d`"))
	assert.Equal(t, []mathCall{{"c", false}}, calls)
}

func TestFormat_InlineCodeEscaped(t *testing.T) {
	f := New(nil)
	assert.Equal(t, "<code>&lt;div&gt;</code>", f.Format("`<div>`"))
}

// =============================================================================
// MATH
// =============================================================================

func TestFormat_InlineMathInvokesRendererOnce(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	got := f.Format("$x^2$")

	require.Len(t, calls, 1)
	assert.Equal(t, mathCall{"x^2", false}, calls[0])
	assert.Equal(t, "[x^2]", got)
}

func TestFormat_DisplayMathInvokesRendererOnce(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	got := f.Format("$$x^2$$")

	require.Len(t, calls, 1)
	assert.Equal(t, mathCall{"x^2", true}, calls[0])
	assert.Equal(t, "[x^2]", got)
}

func TestFormat_MathOrderAndMix(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	f.Format("Cho $a$ và $$b + c$$ rồi $d$")

	assert.Equal(t, []mathCall{{"a", false}, {"b + c", true}, {"d", false}}, calls)
}

func TestFormat_MathSurvivesEmphasisAndBreaks(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	f.Format("$$\na * b * c\n$$")

	require.Len(t, calls, 1)
	assert.Equal(t, "\na * b * c\n", calls[0].src)
}

func TestFormat_MathReceivesUnescapedSource(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	f.Format("$a<b$")

	require.Len(t, calls, 1)
	assert.Equal(t, "a<b", calls[0].src)
}

func TestFormat_MathFailureKeepsSource(t *testing.T) {
	failing := MathFunc(func(string, bool) (string, error) {
		return "", errors.New("parse error")
	})
	f := New(failing)

	assert.Equal(t, "Kết quả: $x^2$", f.Format("Kết quả: $x^2$"))
	assert.Equal(t, "$$\\frac{1}{$$", f.Format("$$\\frac{1}{$$"))
}

func TestFormat_MathPanicKeepsSource(t *testing.T) {
	panicking := MathFunc(func(string, bool) (string, error) {
		panic("boom")
	})
	f := New(panicking)

	assert.NotPanics(t, func() {
		assert.Equal(t, "$x$", f.Format("$x$"))
	})
}

func TestFormat_UnmatchedDelimitersDoNotConsume(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	got := f.Format("Giá $5\nvà $y$")
	assert.Equal(t, "Giá $5<br>và [y]", got)
	assert.Equal(t, []mathCall{{"y", false}}, calls)

	calls = nil
	got = f.Format("$$x + $y$")
	assert.Equal(t, "$$x + [y]", got)
	assert.Equal(t, []mathCall{{"y", false}}, calls)
}

func TestFormat_EscapedDollar(t *testing.T) {
	var calls []mathCall
	f := New(recordingMath(&calls))

	assert.Equal(t, `\$5 và \$6`, f.Format(`\$5 và \$6`))
	assert.Empty(t, calls)
}

// =============================================================================
// SENTINELS
// =============================================================================

func TestFormat_SentinelSeparator(t *testing.T) {
	f := New(nil)

	got := f.Format("Đáp án: 2\n---GIẢI THÍCH---\nVì 1 + 1 = 2")
	assert.Equal(t, `Đáp án: 2<br><div class="solution-separator">Giải thích</div><br>Vì 1 + 1 = 2`, got)

	got = f.Format("A\n---GIẢI THÍCH TỪNG BƯỚC---\nB")
	assert.Contains(t, got, `<div class="solution-separator">Giải thích từng bước</div>`)
	assert.NotContains(t, got, "---")
}

func TestSplit(t *testing.T) {
	main, expl, kind, ok := Split("Đáp án: 2\n---GIẢI THÍCH---\nVì vậy")
	require.True(t, ok)
	assert.Equal(t, "Đáp án: 2", main)
	assert.Equal(t, "Vì vậy", expl)
	assert.Equal(t, SentinelExplanation, kind)

	// The earliest sentinel wins.
	_, expl, kind, ok = Split("A ---GIẢI THÍCH TỪNG BƯỚC--- B ---GIẢI THÍCH--- C")
	require.True(t, ok)
	assert.Equal(t, SentinelStepExplanation, kind)
	assert.Equal(t, "B ---GIẢI THÍCH--- C", expl)

	_, _, _, ok = Split("không có gì")
	assert.False(t, ok)
}

func TestSplit_IgnoresSentinelInCode(t *testing.T) {
	_, _, _, ok := Split("```\n---GIẢI THÍCH---\n```")
	assert.False(t, ok)

	_, _, _, ok = Split("dùng `---GIẢI THÍCH---` để tách")
	assert.False(t, ok)

	main, expl, _, ok := Split("`---GIẢI THÍCH---`\n---GIẢI THÍCH---\nthật")
	require.True(t, ok)
	assert.Equal(t, "`---GIẢI THÍCH---`", main)
	assert.Equal(t, "thật", expl)
}

func TestFormatLive(t *testing.T) {
	f := New(nil)
	in := "**Đáp án:** 4\n---GIẢI THÍCH---\n2 + 2 = 4"

	collapsed := f.FormatLive(in, false)
	assert.True(t, strings.HasPrefix(collapsed, "<strong>Đáp án:</strong> 4"))
	assert.Contains(t, collapsed, ">"+LabelShowExplanation+"</button>")
	assert.Contains(t, collapsed, `class="explanation-content collapsed" hidden`)
	assert.Contains(t, collapsed, "2 + 2 = 4")

	expanded := f.FormatLive(in, true)
	assert.Contains(t, expanded, ">"+LabelHideExplanation+"</button>")
	assert.NotContains(t, expanded, "hidden>")

	// Without a sentinel FormatLive is Format.
	assert.Equal(t, f.Format("a\nb"), f.FormatLive("a\nb", false))
}

func TestToggleLabel(t *testing.T) {
	assert.Equal(t, LabelShowExplanation, ToggleLabel(false))
	assert.Equal(t, LabelHideExplanation, ToggleLabel(true))
}
