// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme(true)
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if !theme.IsDark {
		t.Error("NewTheme(true) should be dark")
	}
	if !lipgloss.HasDarkBackground() {
		t.Error("NewTheme(true) should set the renderer background to dark")
	}

	for name, style := range map[string]lipgloss.Style{
		"UserBubble":  theme.UserBubble,
		"BotBubble":   theme.BotBubble,
		"ErrorBubble": theme.ErrorBubble,
		"StatusBar":   theme.StatusBar,
		"HelpBox":     theme.HelpBox,
	} {
		if !strings.Contains(style.Render("xin chào"), "xin chào") {
			t.Errorf("%s does not render its content", name)
		}
	}
}

func TestTheme_SetDark(t *testing.T) {
	theme := NewTheme(true)
	theme.SetDark(false)

	if theme.IsDark {
		t.Error("SetDark(false) left IsDark set")
	}
	if lipgloss.HasDarkBackground() {
		t.Error("SetDark(false) should set the renderer background to light")
	}
	theme.SetDark(true)
}

func TestSolutionModeColor(t *testing.T) {
	tests := []struct {
		mode string
		want lipgloss.AdaptiveColor
	}{
		{"full", Indigo},
		{"step_by_step", Amber},
		{"hint", Emerald},
		{"", Indigo},
	}
	for _, tt := range tests {
		if got := SolutionModeColor(tt.mode); got != tt.want {
			t.Errorf("SolutionModeColor(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
