// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the giasu TUI.
// All colors use Lip Gloss AdaptiveColor; the light or dark variant is picked
// by the renderer's background flag, which the theme sets explicitly.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Indigo - Brand color, header, bot bubble border
var Indigo = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#818CF8"}

// Teal - User messages and the input prompt
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// Emerald - Success notices and the hint solution mode
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber - Warnings, step-by-step mode, attachments
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Errors and failed requests
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// SURFACES AND TEXT
// =============================================================================

var (
	Surface    = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#181825"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#45475A"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#6C7086"}
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

var (
	UserBubbleBorder  = Teal
	UserBubbleFg      = lipgloss.AdaptiveColor{Light: "#134E4A", Dark: "#CCFBF1"}
	BotBubbleBorder   = Indigo
	BotBubbleFg       = TextPrimary
	ErrorBubbleBorder = Rose
	ErrorBubbleFg     = lipgloss.AdaptiveColor{Light: "#9F1239", Dark: "#FECDD3"}
	WelcomeBorder     = Overlay
)

// SolutionModeColor returns the badge color for a solution mode key.
func SolutionModeColor(mode string) lipgloss.AdaptiveColor {
	switch mode {
	case "step_by_step":
		return Amber
	case "hint":
		return Emerald
	default:
		return Indigo
	}
}
