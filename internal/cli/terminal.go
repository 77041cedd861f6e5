// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the line commands.
//
// Piped output gets plain text: no colours, no glamour, no spinner.
package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool { return isTerminal(os.Stdin) }

// IsStdoutTTY reports whether answers go to a terminal.
func IsStdoutTTY() bool { return isTerminal(os.Stdout) }

// IsStderrTTY reports whether the spinner and status lines can be drawn.
func IsStderrTTY() bool { return isTerminal(os.Stderr) }

const (
	// DefaultTerminalWidth is used when stdout has no size.
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps rendered answers readable in narrow panes.
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the stdout width clamped to MinTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var colorsEnabled = sync.OnceValue(func() bool {
	return colorsWanted(os.Getenv, IsStdoutTTY())
})

// ColorsEnabled reports whether coloured output should be used. It is
// decided once per process.
func ColorsEnabled() bool {
	return colorsEnabled()
}

// colorsWanted applies NO_COLOR, then FORCE_COLOR, then the TTY check.
func colorsWanted(getenv func(string) string, tty bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case getenv("FORCE_COLOR") != "":
		return true
	default:
		return tty
	}
}

// GetColorProfile returns the termenv profile for stdout.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// RequiresTTY fails when stdin is piped. The full-screen UI cannot read keys
// from a pipe; `giasu ask -` is the piped path.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError reports an interactive command started without a terminal.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	msg := "stdin is not a terminal"
	if e.Operation != "" {
		msg += "; " + e.Operation + " needs an interactive session"
	}
	return msg + " (use `giasu ask -` to read a question from a pipe)"
}
