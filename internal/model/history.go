// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sync"

// =============================================================================
// HISTORY
// =============================================================================

// History is the ordered message list of one chat session.
// It only grows, except for Reset. Safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	messages []ChatMessage
}

// NewHistory creates a history seeded with the given baseline messages.
func NewHistory(baseline ...ChatMessage) *History {
	h := &History{}
	h.messages = append(h.messages, baseline...)
	return h
}

// Append adds a message to the end of the history.
func (h *History) Append(msg ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of all messages in order.
func (h *History) Messages() []ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent message, if any.
func (h *History) Last() (ChatMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return ChatMessage{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// LastBot returns the most recent bot message, if any.
func (h *History) LastBot() (ChatMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Sender == SenderBot {
			return h.messages[i], true
		}
	}
	return ChatMessage{}, false
}

// Find returns the message with the given ID.
func (h *History) Find(id string) (ChatMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.messages {
		if m.ID == id {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// Update replaces the message that has msg.ID. Returns false if none does.
func (h *History) Update(msg ChatMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.messages {
		if h.messages[i].ID == msg.ID {
			h.messages[i] = msg
			return true
		}
	}
	return false
}

// ToggleExplanation flips the explanation visibility of a message.
// Returns the new state and false if no message has that ID.
func (h *History) ToggleExplanation(id string) (bool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.messages {
		if h.messages[i].ID == id {
			h.messages[i].ShowExplanation = !h.messages[i].ShowExplanation
			return h.messages[i].ShowExplanation, true
		}
	}
	return false, false
}

// Reset drops every message and reseeds the baseline.
func (h *History) Reset(baseline ...ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(make([]ChatMessage, 0, len(baseline)), baseline...)
}
