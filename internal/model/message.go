// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for a tutoring chat session.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser    Sender = "user"
	SenderBot     Sender = "bot"
	SenderError   Sender = "error"
	SenderWelcome Sender = "welcome"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "Bạn"
	case SenderBot, SenderWelcome:
		return "Gia sư"
	case SenderError:
		return "Lỗi"
	default:
		return string(s)
	}
}

// ImagePlaceholder is the user message text shown for an image-only submission.
const ImagePlaceholder = "[Ảnh đã tải lên]"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ChatMessage is a single rendered entry in the chat.
// Messages are immutable once appended; only ShowExplanation may change.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Text is the raw text as typed or as returned by the backend.
	Text string `json:"text"`

	// Markup is the formatted HTML for Text. Error messages carry escaped text only.
	Markup string `json:"markup,omitempty"`

	// ShowExplanation controls whether the explanation section is expanded.
	ShowExplanation bool `json:"show_explanation"`

	// ImageName is set on user messages that carried an attachment.
	ImageName string `json:"image_name,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(sender Sender, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Sender:    sender,
		Timestamp: time.Now(),
		Text:      text,
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) ChatMessage {
	return NewMessage(SenderUser, text)
}

// NewBotMessage creates a bot message with its rendered markup.
func NewBotMessage(text, markup string) ChatMessage {
	m := NewMessage(SenderBot, text)
	m.Markup = markup
	return m
}

// NewErrorMessage creates an error-class message.
func NewErrorMessage(text string) ChatMessage {
	return NewMessage(SenderError, text)
}

// NewWelcomeMessage creates the static welcome entry.
func NewWelcomeMessage(text, markup string) ChatMessage {
	m := NewMessage(SenderWelcome, text)
	m.Markup = markup
	return m
}

// IsUser returns true for user messages.
func (m ChatMessage) IsUser() bool {
	return m.Sender == SenderUser
}

// IsBot returns true for bot and welcome messages.
func (m ChatMessage) IsBot() bool {
	return m.Sender == SenderBot || m.Sender == SenderWelcome
}

// IsError returns true for error messages.
func (m ChatMessage) IsError() bool {
	return m.Sender == SenderError
}

// FormattedTime returns the timestamp as shown next to a message.
func (m ChatMessage) FormattedTime() string {
	return m.Timestamp.Format("15:04")
}
