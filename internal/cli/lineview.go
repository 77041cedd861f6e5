// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// lineview.go - Session view bindings for plain line output (ask, chat).
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
)

// LineView prints controller output as it happens. User messages are not
// echoed; the user just typed them.
type LineView struct {
	mu       sync.Mutex
	out      io.Writer
	status   io.Writer // busy indicator; nil disables it
	renderer *format.TerminalRenderer
	pending  int
	expand   bool

	// last holds the newest bot or error message printed.
	last model.ChatMessage
}

// NewLineView creates a view writing to out. A nil renderer prints raw text
// (non-TTY output).
func NewLineView(out, status io.Writer, renderer *format.TerminalRenderer) *LineView {
	return &LineView{out: out, status: status, renderer: renderer}
}

// Bindings returns the view as controller bindings.
func (v *LineView) Bindings() session.Bindings {
	return session.Bindings{Messages: v, Input: v, Busy: v, Scroll: v}
}

// SetExpandAll prints every explanation expanded (used when the reader
// cannot toggle them).
func (v *LineView) SetExpandAll(expand bool) {
	v.mu.Lock()
	v.expand = expand
	v.mu.Unlock()
}

// Last returns the newest bot or error message printed.
func (v *LineView) Last() model.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// AppendMessage implements session.MessageView.
func (v *LineView) AppendMessage(msg model.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.print(msg)
}

// UpdateMessage implements session.MessageView. The message is printed again.
func (v *LineView) UpdateMessage(msg model.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.print(msg)
}

// ResetMessages implements session.MessageView.
func (v *LineView) ResetMessages(msgs []model.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = model.ChatMessage{}
	fmt.Fprintln(v.out, DimStyle.Render("── đã xóa lịch sử ──"))
	for _, msg := range msgs {
		v.print(msg)
	}
}

// ClearInput implements session.InputView.
func (v *LineView) ClearInput() {}

// ShowBusy implements session.BusyIndicator.
func (v *LineView) ShowBusy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending++
	if v.status != nil && v.pending == 1 {
		fmt.Fprint(v.status, DimStyle.Render("Gia sư đang trả lời..."))
	}
}

// HideBusy implements session.BusyIndicator.
func (v *LineView) HideBusy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending > 0 {
		v.pending--
	}
	if v.status != nil && v.pending == 0 {
		fmt.Fprint(v.status, "\r\033[K")
	}
}

// ScrollToBottom implements session.Scroller.
func (v *LineView) ScrollToBottom() {}

// print writes one message. Caller holds mu.
func (v *LineView) print(msg model.ChatMessage) {
	if v.status != nil && v.pending > 0 {
		fmt.Fprint(v.status, "\r\033[K")
	}

	switch msg.Sender {
	case model.SenderUser:
		if msg.ImageName != "" {
			fmt.Fprintln(v.out, DimStyle.Render("📎 "+msg.ImageName))
		}
		return
	case model.SenderError:
		v.last = msg
		fmt.Fprintf(v.out, "%s %s\n", ErrorStyle.Render(msg.Sender.DisplayName()+":"), msg.Text)
		return
	case model.SenderWelcome:
		fmt.Fprintln(v.out, DimStyle.Render(msg.Text))
		return
	}

	v.last = msg
	expanded := msg.ShowExplanation || v.expand
	fmt.Fprintln(v.out, BotLabelStyle.Render(msg.Sender.DisplayName()+":"))
	if v.renderer != nil {
		fmt.Fprintln(v.out, strings.TrimRight(v.renderer.RenderMessage(msg.Text, expanded), "\n"))
		return
	}
	fmt.Fprintln(v.out, plainMessage(msg.Text, expanded))
}

// plainMessage is the unstyled rendering of a reply: the main part, and the
// explanation either shown under a heading or replaced by a hint.
func plainMessage(text string, expanded bool) string {
	main, explanation, kind, ok := format.Split(text)
	if !ok {
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(main))
	b.WriteString("\n\n")
	if expanded {
		b.WriteString("[" + format.SectionTitle(kind) + "]\n")
		b.WriteString(strings.TrimSpace(explanation))
	} else {
		b.WriteString("[" + format.SectionTitle(kind) + ": " + format.ToggleLabel(false) + "]")
	}
	return b.String()
}
