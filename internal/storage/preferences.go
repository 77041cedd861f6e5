// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"log/slog"

	"github.com/jeranaias/giasu-tui/internal/model"
)

// Preference keys. The values mirror what the web client kept in local storage.
const (
	KeyDarkMode     = "darkMode"
	KeySolutionMode = "activeSolutionMode"
)

const (
	darkEnabled  = "enabled"
	darkDisabled = "disabled"
)

// =============================================================================
// PREFERENCES
// =============================================================================

// Preferences gives typed access to the persisted UI preferences.
// Reads and writes are fire-and-forget: failures are logged and defaults used.
type Preferences struct {
	kv          KV
	defaultDark bool
}

// NewPreferences wraps kv. A nil kv uses a MemoryStore.
func NewPreferences(kv KV) *Preferences {
	if kv == nil {
		kv = NewMemoryStore()
	}
	return &Preferences{kv: kv, defaultDark: true}
}

// SetDefaultDark sets the dark-mode value used when nothing is stored.
func (p *Preferences) SetDefaultDark(dark bool) {
	p.defaultDark = dark
}

// DarkMode returns the stored dark-mode flag.
func (p *Preferences) DarkMode() bool {
	v, ok, err := p.kv.Get(KeyDarkMode)
	if err != nil {
		slog.Warn("PREFS_READ_FAILED", "key", KeyDarkMode, "error", err)
		return p.defaultDark
	}
	switch {
	case !ok:
		return p.defaultDark
	case v == darkEnabled:
		return true
	case v == darkDisabled:
		return false
	default:
		return p.defaultDark
	}
}

// SetDarkMode stores the dark-mode flag.
func (p *Preferences) SetDarkMode(dark bool) {
	v := darkDisabled
	if dark {
		v = darkEnabled
	}
	p.write(KeyDarkMode, v)
}

// SolutionMode returns the stored solution mode, or the default.
func (p *Preferences) SolutionMode() model.SolutionMode {
	v, ok, err := p.kv.Get(KeySolutionMode)
	if err != nil {
		slog.Warn("PREFS_READ_FAILED", "key", KeySolutionMode, "error", err)
		return model.DefaultSolutionMode
	}
	if !ok {
		return model.DefaultSolutionMode
	}
	mode := model.SolutionMode(v)
	if !mode.IsValid() {
		return model.DefaultSolutionMode
	}
	return mode
}

// SetSolutionMode stores the solution mode. Invalid modes are ignored.
func (p *Preferences) SetSolutionMode(mode model.SolutionMode) {
	if !mode.IsValid() {
		slog.Warn("PREFS_INVALID_SOLUTION_MODE", "mode", string(mode))
		return
	}
	p.write(KeySolutionMode, string(mode))
}

// Close closes the underlying store.
func (p *Preferences) Close() error {
	return p.kv.Close()
}

func (p *Preferences) write(key, value string) {
	if err := p.kv.Set(key, value); err != nil {
		slog.Warn("PREFS_WRITE_FAILED", "key", key, "error", err)
	}
}
