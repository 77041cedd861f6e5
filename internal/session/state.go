// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/storage"
)

// =============================================================================
// STATE
// =============================================================================

// State is everything one chat session remembers.
// Safe for concurrent use.
type State struct {
	mu sync.RWMutex

	id        string
	startTime time.Time
	subject   string
	mode      model.Mode

	History *model.History
	Prefs   *storage.Preferences
}

// NewState creates a session state with default subject and mode.
// A nil prefs keeps preferences in memory only.
func NewState(prefs *storage.Preferences) *State {
	if prefs == nil {
		prefs = storage.NewPreferences(nil)
	}
	return &State{
		id:        uuid.New().String(),
		startTime: time.Now(),
		subject:   model.DefaultSubject,
		mode:      model.DefaultMode,
		History:   model.NewHistory(),
		Prefs:     prefs,
	}
}

// ID returns the local session identifier (used in logs and exports).
func (s *State) ID() string {
	return s.id
}

// StartTime returns when the session began.
func (s *State) StartTime() time.Time {
	return s.startTime
}

// Duration returns how long the session has been running.
func (s *State) Duration() time.Duration {
	return time.Since(s.startTime)
}

// Subject returns the selected subject.
func (s *State) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// SetSubject sets the selected subject. Empty selects the default.
func (s *State) SetSubject(subject string) {
	if subject == "" {
		subject = model.DefaultSubject
	}
	s.mu.Lock()
	s.subject = subject
	s.mu.Unlock()
}

// Mode returns the selected mode.
func (s *State) Mode() model.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode sets the selected mode. Empty selects the default.
func (s *State) SetMode(mode model.Mode) {
	if mode == "" {
		mode = model.DefaultMode
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// SolutionMode returns the persisted solution mode.
func (s *State) SolutionMode() model.SolutionMode {
	return s.Prefs.SolutionMode()
}

// DarkMode returns the persisted dark-mode flag.
func (s *State) DarkMode() bool {
	return s.Prefs.DarkMode()
}
