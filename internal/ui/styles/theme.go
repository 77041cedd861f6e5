// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds every lipgloss style the chat view uses. Styles are rebuilt by
// SetDark so AdaptiveColors resolve against the chosen background.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout
	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style
	Badge  lipgloss.Style

	// Messages
	UserBubble    lipgloss.Style
	BotBubble     lipgloss.Style
	ErrorBubble   lipgloss.Style
	WelcomeBubble lipgloss.Style
	Sender        lipgloss.Style
	Timestamp     lipgloss.Style
	Attachment    lipgloss.Style

	// Input
	InputBorder lipgloss.Style
	PathPrompt  lipgloss.Style

	// Status
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	Notice      lipgloss.Style
	NoticeError lipgloss.Style
	Spinner     lipgloss.Style

	// Help overlay
	HelpBox   lipgloss.Style
	HelpTitle lipgloss.Style
	Muted     lipgloss.Style
}

// DetectDark reports whether the terminal background is dark.
func DetectDark() bool {
	return termenv.HasDarkBackground()
}

// NewTheme creates a theme for a dark or light background.
func NewTheme(dark bool) *Theme {
	t := &Theme{ColorProfile: termenv.ColorProfile()}
	t.SetDark(dark)
	return t
}

// SetDark switches the background and rebuilds all styles.
func (t *Theme) SetDark(dark bool) {
	t.IsDark = dark
	lipgloss.SetHasDarkBackground(dark)
	t.initStyles()
}

// SolutionBadge renders a solution mode badge in its mode color.
func (t *Theme) SolutionBadge(key, label string) string {
	return t.Badge.Foreground(SolutionModeColor(key)).Render(label)
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.Badge = lipgloss.NewStyle().Bold(true)

	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	t.UserBubble = bubble.
		Foreground(UserBubbleFg).
		BorderForeground(UserBubbleBorder).
		MarginLeft(4)

	t.BotBubble = bubble.
		Foreground(BotBubbleFg).
		BorderForeground(BotBubbleBorder).
		MarginRight(2)

	t.ErrorBubble = bubble.
		Foreground(ErrorBubbleFg).
		BorderForeground(ErrorBubbleBorder).
		MarginRight(2)

	t.WelcomeBubble = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(WelcomeBorder).
		Padding(0, 1)

	t.Sender = lipgloss.NewStyle().Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Attachment = lipgloss.NewStyle().Foreground(Amber).Italic(true)

	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.PathPrompt = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim)
	t.StatusKey = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceDim)
	t.StatusValue = lipgloss.NewStyle().Foreground(TextPrimary).Background(SurfaceDim).Bold(true)

	t.Notice = lipgloss.NewStyle().Foreground(Emerald)
	t.NoticeError = lipgloss.NewStyle().Foreground(Rose)
	t.Spinner = lipgloss.NewStyle().Foreground(Indigo)

	t.HelpBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 2)
	t.HelpTitle = lipgloss.NewStyle().Bold(true).Foreground(Indigo).MarginBottom(1)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}
