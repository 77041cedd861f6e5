// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns raw tutor and user text into displayable markup.
//
// Two renderers share the same inline syntax (headings, emphasis, lists,
// fenced and inline code, $inline$ and $$display$$ math, and the
// explanation sentinels the backend uses to separate an answer from its
// explanation):
//
//   - Formatter produces escaped HTML, used for transcripts and markup stored
//     on each message.
//   - TerminalRenderer produces ANSI output for the TUI and the CLI, using
//     glamour for Markdown and a Unicode approximation for LaTeX.
//
// # Key Types
//
//   - Formatter: HTML pipeline (escape, protect code, transform, math, restore)
//   - MathRenderer: collaborator that renders one math span
//   - MarkupMath / UnicodeMath: the HTML and terminal math renderers
//   - TerminalRenderer: glamour-backed terminal rendering with a chroma fallback
//
// # Usage
//
//	f := format.New(nil) // MarkupMath
//	html := f.Format("**Đáp án:** $x^2 = 4$")
//
//	tr := format.NewTerminalRenderer(80, true)
//	fmt.Println(tr.RenderMessage(answer, false))
package format
