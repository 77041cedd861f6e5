// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
)

// =============================================================================
// VIEW MESSAGES
// =============================================================================
// Sent by the bridge on behalf of the session controller.

// AppendMsg shows a new message at the end of the list.
type AppendMsg struct {
	Message model.ChatMessage
}

// UpdateMsg re-renders a message already shown.
type UpdateMsg struct {
	Message model.ChatMessage
}

// ResetMsg replaces the whole message list.
type ResetMsg struct {
	Messages []model.ChatMessage
}

// ClearInputMsg empties the input.
type ClearInputMsg struct{}

// BusyMsg changes the number of requests in flight by Delta (+1 or -1).
type BusyMsg struct {
	Delta int
}

// ScrollBottomMsg scrolls the message list to the newest message.
type ScrollBottomMsg struct{}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// SubmitDoneMsg reports a finished submit. The reply is already in the list.
type SubmitDoneMsg struct {
	Result session.Result
	Err    error
}

// ClearDoneMsg reports the outcome of a history clear.
type ClearDoneMsg struct {
	Err error
}

// ImageMsg delivers a loaded or captured image, ready to attach.
type ImageMsg struct {
	Image *capture.Image
	Err   error
}

// ExportDoneMsg reports where a transcript was written.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// ConfigReloadMsg carries a config reloaded from disk.
type ConfigReloadMsg struct {
	Config *config.Config
	Err    error
}
