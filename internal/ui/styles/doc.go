// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the giasu TUI.

# Color System (colors.go)

Accent colors are Lip Gloss AdaptiveColors with a light and a dark variant:

  - Indigo - brand, header, bot messages
  - Teal - user messages and the prompt
  - Emerald, Amber, Rose - success, attachment/warning, error

Solution modes get their own badge color through SolutionModeColor.

# Theme (theme.go)

Theme groups every lipgloss.Style used by the chat view. The dark-mode
preference is stored by giasu, not detected per frame, so SetDark calls
lipgloss.SetHasDarkBackground and rebuilds the styles:

	theme := styles.NewTheme(prefs.DarkMode())
	theme.SetDark(false)
*/
package styles
