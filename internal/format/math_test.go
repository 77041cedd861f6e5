// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkupMath(t *testing.T) {
	m := MarkupMath{}

	out, err := m.RenderMath("x^2", false)
	require.NoError(t, err)
	assert.Equal(t, `<span class="math math-inline">\(x^2\)</span>`, out)

	out, err = m.RenderMath(" a<b ", true)
	require.NoError(t, err)
	assert.Equal(t, `<div class="math math-display">\[a&lt;b\]</div>`, out)
}

func TestMarkupMath_Errors(t *testing.T) {
	m := MarkupMath{}

	for _, src := range []string{"", "   ", `\frac{1}{2`, "a}"} {
		_, err := m.RenderMath(src, false)
		var mathErr *MathError
		assert.True(t, errors.As(err, &mathErr), "src %q should fail", src)
	}

	_, err := m.RenderMath(`\{ a \}`, false)
	assert.NoError(t, err, "escaped braces are balanced")
}

func TestUnicodeMath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x^2", "x²"},
		{"x^{n+1}", "xⁿ⁺¹"},
		{"a_{12}", "a₁₂"},
		{`\frac{1}{2}`, "1/2"},
		{`\frac{a+b}{c}`, "(a+b)/c"},
		{`\alpha + \beta`, "α + β"},
		{`\sqrt{x+1}`, "√(x+1)"},
		{`\sqrt[3]{8}`, "³√8"},
		{`x \leq 3 \times y`, "x ≤ 3 × y"},
		{`\text{cm}^2`, "cm²"},
		{`\left( a \right)`, "( a )"},
		{"x^{z}", "x^z"},
		{`\Delta = b^2 - 4ac`, "Δ = b² - 4ac"},
	}

	m := UnicodeMath{}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := m.RenderMath(tc.in, false)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnicodeMath_Display(t *testing.T) {
	got, err := UnicodeMath{}.RenderMath("x^2", true)
	require.NoError(t, err)
	assert.Equal(t, "\n\nx²\n\n", got)
}

func TestUnicodeMath_Unbalanced(t *testing.T) {
	_, err := UnicodeMath{}.RenderMath(`\frac{1}{`, false)
	assert.Error(t, err)
}

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

func TestTerminalRenderer_PlainMath(t *testing.T) {
	r := NewTerminalRenderer(80, true)
	r.SetMarkdown(false)

	got := r.Render("Tính $x^2$ và `$y$`")
	assert.Equal(t, "Tính x² và `$y$`", got)
}

func TestTerminalRenderer_BadMathKeepsSource(t *testing.T) {
	r := NewTerminalRenderer(80, true)
	r.SetMarkdown(false)

	assert.Equal(t, `Sai: $\frac{1}{$`, r.Render(`Sai: $\frac{1}{$`))
}

func TestTerminalRenderer_Explanation(t *testing.T) {
	r := NewTerminalRenderer(80, true)
	r.SetMarkdown(false)
	text := "Đáp án 4\n---GIẢI THÍCH---\nvì 2+2"

	collapsed := r.RenderMessage(text, false)
	assert.Contains(t, collapsed, "Đáp án 4")
	assert.Contains(t, collapsed, "▸ Giải thích")
	assert.NotContains(t, collapsed, "vì 2+2")

	expanded := r.RenderMessage(text, true)
	assert.Contains(t, expanded, "▾ Giải thích")
	assert.Contains(t, expanded, "vì 2+2")
}

func TestTerminalRenderer_Glamour(t *testing.T) {
	r := NewTerminalRenderer(60, true)

	out := ansi.Strip(r.Render("**đậm**"))
	assert.Contains(t, out, "đậm")
	assert.NotContains(t, out, "**")

	r.SetDark(false)
	r.SetWidth(40)
	// Glamour styles each word of a heading separately.
	assert.Contains(t, ansi.Strip(r.Render("# Tiêu đề")), "Tiêu đề")
}

func TestTerminalRenderer_PlainCodeHighlight(t *testing.T) {
	r := NewTerminalRenderer(80, true)
	r.SetMarkdown(false)

	out := r.Render("Mã:\n```go\nfmt.Println(1)\n```")
	assert.Contains(t, out, "Mã:")
	assert.Contains(t, out, "Println")
	assert.NotContains(t, out, "```")
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", wrapLine("aaa bbb ccc", 7))
	assert.Equal(t, "ngắn", wrapLine("ngắn", 10))
	assert.Equal(t, 2, strings.Count(wrapText("một hai ba bốn năm sáu", 8), "\n"))
}
