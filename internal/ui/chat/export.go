// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/export"
)

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// transcript snapshots the session for export.
func (m Model) transcript() *export.Transcript {
	return &export.Transcript{
		SessionID:    m.state.ID(),
		Subject:      m.state.Subject(),
		Mode:         m.state.Mode(),
		SolutionMode: m.state.SolutionMode(),
		StartedAt:    m.state.StartTime(),
		Messages:     m.state.History.Messages(),
	}
}

// exportCmd writes the transcript asynchronously. An empty path writes an
// HTML file with a generated name in the working directory.
func (m Model) exportCmd(path string) tea.Cmd {
	t := m.transcript()

	opts := export.DefaultOptions()
	opts.IncludeTimestamps = m.cfg.UI.ShowTimestamps
	if !m.theme.IsDark {
		opts.Theme = "light"
	}

	return func() tea.Msg {
		if path == "" {
			p, err := export.ExportToFile(t, export.NewHTMLExporter(opts), opts)
			return ExportDoneMsg{Path: p, Err: err}
		}
		p, err := export.ExportToPath(t, expandHome(path), opts)
		return ExportDoneMsg{Path: p, Err: err}
	}
}

// handleExportDone reports the export result.
func (m Model) handleExportDone(msg ExportDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, export.ErrEmptyTranscript):
		m.setNotice("Chưa có tin nhắn nào để xuất", true)
	case msg.Err != nil:
		m.setNotice("Xuất thất bại: "+msg.Err.Error(), true)
	default:
		m.setNotice("Đã xuất: "+msg.Path, false)
	}
	return m, nil
}
