// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// MATH RENDERER
// =============================================================================

// MathRenderer renders one math span. src is the text between the delimiters,
// displayMode is true for $$...$$. An error leaves the source text in place.
type MathRenderer interface {
	RenderMath(src string, displayMode bool) (string, error)
}

// MathFunc adapts a function to MathRenderer.
type MathFunc func(src string, displayMode bool) (string, error)

// RenderMath calls f.
func (f MathFunc) RenderMath(src string, displayMode bool) (string, error) {
	return f(src, displayMode)
}

// MathError reports a span that could not be rendered.
type MathError struct {
	Source string
	Reason string
}

func (e *MathError) Error() string {
	return fmt.Sprintf("math %q: %s", e.Source, e.Reason)
}

// validateLatex rejects empty spans and unbalanced braces.
func validateLatex(src string) error {
	if strings.TrimSpace(src) == "" {
		return &MathError{Source: src, Reason: "empty expression"}
	}
	depth := 0
	escaped := false
	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth < 0 {
				return &MathError{Source: src, Reason: "unexpected }"}
			}
		}
	}
	if depth != 0 {
		return &MathError{Source: src, Reason: "unbalanced braces"}
	}
	return nil
}

// =============================================================================
// MARKUP MATH (HTML)
// =============================================================================

// MarkupMath wraps validated LaTeX in MathJax/KaTeX auto-render delimiters so a
// page script can typeset it.
type MarkupMath struct{}

// RenderMath implements MathRenderer.
func (MarkupMath) RenderMath(src string, displayMode bool) (string, error) {
	if err := validateLatex(src); err != nil {
		return "", err
	}
	if displayMode {
		return `<div class="math math-display">\[` + EscapeHTML(strings.TrimSpace(src)) + `\]</div>`, nil
	}
	return `<span class="math math-inline">\(` + EscapeHTML(src) + `\)</span>`, nil
}

// =============================================================================
// UNICODE MATH (TERMINAL)
// =============================================================================

// UnicodeMath approximates LaTeX with Unicode symbols for terminals.
type UnicodeMath struct{}

// RenderMath implements MathRenderer.
func (UnicodeMath) RenderMath(src string, displayMode bool) (string, error) {
	if err := validateLatex(src); err != nil {
		return "", err
	}
	out := strings.Join(strings.Fields(latexToUnicode([]rune(src))), " ")
	if displayMode {
		return "\n\n" + out + "\n\n", nil
	}
	return out, nil
}

var latexSymbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "lambda": "λ",
	"mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ", "sigma": "σ",
	"tau": "τ", "phi": "φ", "varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Pi": "Π",
	"Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"times": "×", "cdot": "·", "div": "÷", "pm": "±", "mp": "∓",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "propto": "∝",
	"infty": "∞", "sum": "∑", "prod": "∏", "int": "∫", "oint": "∮",
	"partial": "∂", "nabla": "∇", "forall": "∀", "exists": "∃",
	"in": "∈", "notin": "∉", "subset": "⊂", "subseteq": "⊆", "cup": "∪",
	"cap": "∩", "emptyset": "∅", "varnothing": "∅",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "Leftrightarrow": "⇔", "iff": "⇔", "implies": "⇒",
	"angle": "∠", "degree": "°", "circ": "°", "perp": "⊥", "parallel": "∥",
	"triangle": "△", "ldots": "…", "cdots": "⋯", "dots": "…",
	"quad": "  ", "qquad": "    ",
	"sin": "sin", "cos": "cos", "tan": "tan", "cot": "cot", "log": "log",
	"ln": "ln", "lim": "lim", "max": "max", "min": "min", "exp": "exp",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽',
	')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ', 'a': 'ᵃ', 'b': 'ᵇ',
	'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ', 'k': 'ᵏ', 'm': 'ᵐ', 't': 'ᵗ', '°': '°',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍',
	')': '₎', 'a': 'ₐ', 'e': 'ₑ', 'i': 'ᵢ', 'n': 'ₙ', 'x': 'ₓ', 'k': 'ₖ',
	'm': 'ₘ', 'o': 'ₒ', 'p': 'ₚ', 's': 'ₛ', 't': 'ₜ',
}

// latexToUnicode converts a brace-balanced LaTeX fragment.
func latexToUnicode(src []rune) string {
	var b strings.Builder
	for i := 0; i < len(src); {
		r := src[i]
		switch r {
		case '\\':
			name, next := readCommand(src, i)
			i = next
			b.WriteString(expandCommand(name, src, &i))
		case '^', '_':
			arg, next := readArg(src, i+1)
			i = next
			table := superscripts
			if r == '_' {
				table = subscripts
			}
			b.WriteString(script(latexToUnicode(arg), table, r))
		case '{':
			arg, next := readArg(src, i)
			i = next
			b.WriteString(latexToUnicode(arg))
		case '}':
			i++
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String()
}

func expandCommand(name string, src []rune, i *int) string {
	switch name {
	case "frac", "dfrac", "tfrac":
		num, next := readArg(src, *i)
		den, next := readArg(src, next)
		*i = next
		return fraction(latexToUnicode(num), latexToUnicode(den))
	case "sqrt":
		index := ""
		j := skipSpace(src, *i)
		if j < len(src) && src[j] == '[' {
			end := j + 1
			for end < len(src) && src[end] != ']' {
				end++
			}
			index = script(latexToUnicode(src[j+1:end]), superscripts, '^')
			index = strings.TrimPrefix(index, "^")
			if end < len(src) {
				end++
			}
			*i = end
		}
		arg, next := readArg(src, *i)
		*i = next
		return index + "√" + group(latexToUnicode(arg))
	case "text", "mathrm", "mathbf", "mathit", "operatorname", "textbf", "mathbb":
		arg, next := readArg(src, *i)
		*i = next
		if name == "mathbb" && string(arg) == "R" {
			return "ℝ"
		}
		return string(arg)
	case "left", "right", "displaystyle", "limits":
		return ""
	case ",", ";", ":", " ", "!":
		return " "
	case "{", "}", "$", "%", "#", "&", "_":
		return name
	case "\\":
		return "\n"
	}
	if sym, ok := latexSymbols[name]; ok {
		return sym
	}
	return name
}

// readCommand reads \name or \c starting at the backslash.
func readCommand(src []rune, i int) (string, int) {
	j := i + 1
	if j >= len(src) {
		return "", j
	}
	if !unicode.IsLetter(src[j]) {
		return string(src[j]), j + 1
	}
	for j < len(src) && unicode.IsLetter(src[j]) {
		j++
	}
	return string(src[i+1 : j]), j
}

// readArg reads a {group}, a \command or a single rune.
func readArg(src []rune, i int) ([]rune, int) {
	i = skipSpace(src, i)
	if i >= len(src) {
		return nil, i
	}
	switch src[i] {
	case '{':
		depth := 0
		for j := i; j < len(src); j++ {
			switch src[j] {
			case '\\':
				j++
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return src[i+1 : j], j + 1
				}
			}
		}
		return src[i+1:], len(src)
	case '\\':
		_, next := readCommand(src, i)
		return src[i:next], next
	}
	return src[i : i+1], i + 1
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && src[i] == ' ' {
		i++
	}
	return i
}

// script maps s to super/subscript runes, or falls back to ^(s) / _(s).
func script(s string, table map[rune]rune, marker rune) string {
	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			return string(marker) + group(s)
		}
		b.WriteRune(m)
	}
	return b.String()
}

func fraction(num, den string) string {
	return group(num) + "/" + group(den)
}

// group parenthesises s unless it is a single token.
func group(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 1 || isNumber(s) || isWord(s) {
		return s
	}
	return "(" + s + ")"
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return s != ""
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
