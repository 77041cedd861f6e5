// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is what gets exported: one session's messages and selections.
type Transcript struct {
	SessionID    string              `json:"session_id"`
	Subject      string              `json:"subject"`
	Mode         model.Mode          `json:"mode"`
	SolutionMode model.SolutionMode  `json:"solution_mode"`
	StartedAt    time.Time           `json:"started_at"`
	Messages     []model.ChatMessage `json:"messages"`
}

// Title returns the heading used for the exported document.
func (t *Transcript) Title() string {
	return "Gia sư AI: " + t.Subject
}

// ErrEmptyTranscript is returned for a transcript without messages.
var ErrEmptyTranscript = errors.New("transcript has no messages")

func (t *Transcript) validate() error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory for generated file names. Default: "."
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the session header (subject, mode, counts).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"). Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports t into opts.OutputDir under a generated name and
// returns the written path.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := t.validate(); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("giasu_%s_%s%s",
		sanitizeFilename(t.Subject),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	return write(t, exporter, filepath.Join(dir, filename), opts)
}

// ExportToPath exports t to path, choosing the exporter from its extension.
// A path without a known extension gets ".html".
func ExportToPath(t *Transcript, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := t.validate(); err != nil {
		return "", err
	}

	exporter, ok := ForExtension(filepath.Ext(path), opts)
	if !ok {
		exporter = NewHTMLExporter(opts)
		path += exporter.FileExtension()
	}

	dir, base := filepath.Split(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	path = filepath.Join(dir, sanitizeFilename(name)+exporter.FileExtension())
	return write(t, exporter, path, opts)
}

// ForExtension returns the exporter for a file extension such as ".md".
func ForExtension(ext string, opts *Options) (Exporter, bool) {
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return NewHTMLExporter(opts), true
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), true
	case ".json":
		return NewJSONExporter(opts), true
	}
	return nil, false
}

func write(t *Transcript, exporter Exporter, path string, opts *Options) (string, error) {
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	slog.Info("EXPORT", "path", path, "format", exporter.MimeType(), "messages", len(t.Messages))

	if opts.OpenAfterExport {
		if err := openFile(path); err != nil {
			slog.Warn("EXPORT_OPEN_FAILED", "path", path, "error", err)
		}
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names on
// Windows or Unix and limits the length. Vietnamese letters are kept.
func sanitizeFilename(s string) string {
	const maxLen = 50
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "transcript"
	}
	return out
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
