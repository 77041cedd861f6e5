// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Submit            key.Binding
	ToggleDark        key.Binding
	CycleSolution     key.Binding
	ClearHistory      key.Binding
	ToggleExplanation key.Binding
	AttachImage       key.Binding
	PageUp            key.Binding
	PageDown          key.Binding
	Cancel            key.Binding
	Help              key.Binding
	Quit              key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "gửi"),
		),
		ToggleDark: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "sáng/tối"),
		),
		CycleSolution: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "kiểu lời giải"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "xóa lịch sử"),
		),
		ToggleExplanation: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "giải thích"),
		),
		AttachImage: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "đính kèm ảnh"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "cuộn lên"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "cuộn xuống"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "hủy"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "trợ giúp"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "thoát"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
// Implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleExplanation, k.CycleSolution, k.AttachImage, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay.
// Implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.AttachImage, k.Cancel},
		{k.ToggleExplanation, k.CycleSolution, k.ToggleDark},
		{k.PageUp, k.PageDown, k.ClearHistory},
		{k.Help, k.Quit},
	}
}

// setModeKeys enables the solution mode binding only where it applies,
// so it drops out of the help views in assistant mode.
func (k *KeyMap) setModeKeys(exercise bool) {
	k.CycleSolution.SetEnabled(exercise)
}
