// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/giasu-tui/internal/model"
)

// ErrMissingBindings is returned when a controller is built without every view binding.
var ErrMissingBindings = errors.New("missing view bindings")

// MessageView shows the message list.
type MessageView interface {
	// AppendMessage shows a new message at the end of the list.
	AppendMessage(msg model.ChatMessage)
	// UpdateMessage re-renders a message already shown.
	UpdateMessage(msg model.ChatMessage)
	// ResetMessages replaces everything shown with msgs.
	ResetMessages(msgs []model.ChatMessage)
}

// InputView is the text input.
type InputView interface {
	ClearInput()
}

// BusyIndicator is shown while a request is in flight. Calls are paired:
// every ShowBusy is followed by exactly one HideBusy.
type BusyIndicator interface {
	ShowBusy()
	HideBusy()
}

// Scroller keeps the newest message visible.
type Scroller interface {
	ScrollToBottom()
}

// Bindings are the view elements a Controller drives.
type Bindings struct {
	Messages MessageView
	Input    InputView
	Busy     BusyIndicator
	Scroll   Scroller
}

// Validate returns one error naming every missing binding, or nil.
func (b Bindings) Validate() error {
	var missing []string
	if b.Messages == nil {
		missing = append(missing, "Messages")
	}
	if b.Input == nil {
		missing = append(missing, "Input")
	}
	if b.Busy == nil {
		missing = append(missing, "Busy")
	}
	if b.Scroll == nil {
		missing = append(missing, "Scroll")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingBindings, strings.Join(missing, ", "))
}
