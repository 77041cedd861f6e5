// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SOLUTION MODE
// =============================================================================

// SolutionMode controls how much explanation the backend includes.
type SolutionMode string

const (
	SolutionFull       SolutionMode = "full"
	SolutionStepByStep SolutionMode = "step_by_step"
	SolutionHint       SolutionMode = "hint"
)

// DefaultSolutionMode is used when nothing is stored.
const DefaultSolutionMode = SolutionFull

var solutionModes = []SolutionMode{SolutionFull, SolutionStepByStep, SolutionHint}

// SolutionModes returns all modes in cycle order.
func SolutionModes() []SolutionMode {
	out := make([]SolutionMode, len(solutionModes))
	copy(out, solutionModes)
	return out
}

// ParseSolutionMode parses a stored or typed solution mode.
func ParseSolutionMode(s string) (SolutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "day-du", "đầy đủ":
		return SolutionFull, nil
	case "step_by_step", "step-by-step", "steps", "từng bước":
		return SolutionStepByStep, nil
	case "hint", "gợi ý":
		return SolutionHint, nil
	}
	return "", fmt.Errorf("unknown solution mode %q (want full, step_by_step or hint)", s)
}

// IsValid reports whether m is one of the known modes.
func (m SolutionMode) IsValid() bool {
	for _, v := range solutionModes {
		if v == m {
			return true
		}
	}
	return false
}

// Next returns the following mode in cycle order.
func (m SolutionMode) Next() SolutionMode {
	for i, v := range solutionModes {
		if v == m {
			return solutionModes[(i+1)%len(solutionModes)]
		}
	}
	return DefaultSolutionMode
}

// Label returns the Vietnamese UI label.
func (m SolutionMode) Label() string {
	switch m {
	case SolutionFull:
		return "Đầy đủ"
	case SolutionStepByStep:
		return "Từng bước"
	case SolutionHint:
		return "Gợi ý"
	default:
		return string(m)
	}
}

// =============================================================================
// TUTORING MODE
// =============================================================================

// Mode is the tutoring mode sent with each request.
type Mode string

const (
	ModeAssistant Mode = "trợ lý"
	ModeExercise  Mode = "giải bài tập"
)

// DefaultMode is the mode used when none is configured.
const DefaultMode = ModeAssistant

// ParseMode parses a tutoring mode, accepting unaccented spellings.
func ParseMode(s string) (Mode, error) {
	switch Fold(s) {
	case Fold(string(ModeAssistant)), "assistant":
		return ModeAssistant, nil
	case Fold(string(ModeExercise)), "exercise", "solve":
		return ModeExercise, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeAssistant, ModeExercise)
}

// HasSolutionModes reports whether the solution-mode selector applies.
func (m Mode) HasSolutionModes() bool {
	return m == ModeExercise
}

// =============================================================================
// SUBJECTS
// =============================================================================

// DefaultSubject is sent when the user has not picked a subject.
const DefaultSubject = "Tổng hợp"

var subjects = []string{
	"Toán học",
	"Ngữ văn",
	"Tiếng Anh",
	"Vật lý",
	"Hóa học",
	"Sinh học",
	"Lịch sử",
	"Địa lý",
	"Công nghệ",
	"Giáo dục công dân",
	"Tin học",
}

// Subjects returns the selectable subjects.
func Subjects() []string {
	out := make([]string, len(subjects))
	copy(out, subjects)
	return out
}

// MatchSubject resolves user input to a known subject.
// Matching ignores case and Vietnamese diacritics, so "toan hoc" finds "Toán học".
func MatchSubject(input string) (string, bool) {
	want := Fold(input)
	if want == "" {
		return "", false
	}
	if want == Fold(DefaultSubject) {
		return DefaultSubject, true
	}
	for _, s := range subjects {
		if Fold(s) == want {
			return s, true
		}
	}
	// Unique prefix match ("toan" -> "Toán học").
	var found string
	for _, s := range subjects {
		if strings.HasPrefix(Fold(s), want) {
			if found != "" {
				return "", false
			}
			found = s
		}
	}
	return found, found != ""
}

// NormalizeText returns s in Unicode NFC form.
// Input methods may produce decomposed Vietnamese; the backend expects composed text.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// Fold lowercases s and strips diacritics for comparisons.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ReplaceAll(folded, "đ", "d")
}
