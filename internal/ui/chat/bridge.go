// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
)

// bridgeBuffer bounds the view messages queued between the controller and
// the update loop. Controller calls made from Update must not block.
const bridgeBuffer = 256

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge implements the session view bindings by queueing tea.Msgs. The
// model drains the queue with Listen, one message per command, so the
// controller never touches model state directly.
type Bridge struct {
	ch chan tea.Msg
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, bridgeBuffer)}
}

// Bindings returns the bridge as controller view bindings.
func (b *Bridge) Bindings() session.Bindings {
	return session.Bindings{Messages: b, Input: b, Busy: b, Scroll: b}
}

// Listen waits for the next queued view message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}

func (b *Bridge) send(msg tea.Msg) {
	b.ch <- msg
}

// AppendMessage implements session.MessageView.
func (b *Bridge) AppendMessage(msg model.ChatMessage) { b.send(AppendMsg{Message: msg}) }

// UpdateMessage implements session.MessageView.
func (b *Bridge) UpdateMessage(msg model.ChatMessage) { b.send(UpdateMsg{Message: msg}) }

// ResetMessages implements session.MessageView.
func (b *Bridge) ResetMessages(msgs []model.ChatMessage) { b.send(ResetMsg{Messages: msgs}) }

// ClearInput implements session.InputView.
func (b *Bridge) ClearInput() { b.send(ClearInputMsg{}) }

// ShowBusy implements session.BusyIndicator.
func (b *Bridge) ShowBusy() { b.send(BusyMsg{Delta: 1}) }

// HideBusy implements session.BusyIndicator.
func (b *Bridge) HideBusy() { b.send(BusyMsg{Delta: -1}) }

// ScrollToBottom implements session.Scroller.
func (b *Bridge) ScrollToBottom() { b.send(ScrollBottomMsg{}) }
