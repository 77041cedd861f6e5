// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

import "strings"

// InsertMath inserts latex wrapped in $...$ at the rune offset cursor of value.
// It returns the new value and the cursor placed after the inserted span.
// A cursor outside the value appends.
func InsertMath(value string, cursor int, latex string) (string, int) {
	latex = strings.TrimSpace(latex)
	if latex == "" {
		return value, cursor
	}
	latex = strings.Trim(latex, "$")

	runes := []rune(value)
	if cursor < 0 || cursor > len(runes) {
		cursor = len(runes)
	}

	span := []rune("$" + latex + "$")
	out := make([]rune, 0, len(runes)+len(span))
	out = append(out, runes[:cursor]...)
	out = append(out, span...)
	out = append(out, runes[cursor:]...)
	return string(out), cursor + len(span)
}
