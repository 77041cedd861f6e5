// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Bridge messages re-arm the listener.
	case AppendMsg:
		m.messages = append(m.messages, msg.Message)
		m.refreshViewport(true)
		return m, m.bridge.Listen()

	case UpdateMsg:
		for i := range m.messages {
			if m.messages[i].ID == msg.Message.ID {
				m.messages[i] = msg.Message
				break
			}
		}
		m.refreshViewport(false)
		return m, m.bridge.Listen()

	case ResetMsg:
		m.messages = append([]model.ChatMessage(nil), msg.Messages...)
		m.refreshViewport(true)
		return m, m.bridge.Listen()

	case ClearInputMsg:
		if !m.pathPrompt {
			m.input.Reset()
		}
		return m, m.bridge.Listen()

	case BusyMsg:
		was := m.pending
		m.pending += msg.Delta
		if m.pending < 0 {
			m.pending = 0
		}
		if was == 0 && m.pending > 0 {
			return m, tea.Batch(m.spinner.Tick, m.bridge.Listen())
		}
		return m, m.bridge.Listen()

	case ScrollBottomMsg:
		m.viewport.GotoBottom()
		return m, m.bridge.Listen()

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SubmitDoneMsg:
		if msg.Err == nil && !msg.Result.Skipped {
			m.setNotice("", false)
		}
		return m, nil

	case ClearDoneMsg:
		if msg.Err != nil {
			m.setNotice("Không thể xóa lịch sử: "+msg.Err.Error(), true)
		} else {
			m.setNotice("Đã xóa lịch sử trò chuyện", false)
		}
		return m, nil

	case ImageMsg:
		if msg.Err != nil {
			m.setNotice("Không thể đính kèm ảnh: "+msg.Err.Error(), true)
			return m, nil
		}
		m.attachment = msg.Image
		m.setNotice("", false)
		return m, nil

	case ExportDoneMsg:
		return m.handleExportDone(msg)

	case ConfigReloadMsg:
		return m.applyConfig(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes a key press. The path prompt and help overlay take
// precedence over the regular bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.closeCamera()
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.pathPrompt {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.endPathPrompt()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			path := strings.TrimSpace(m.input.Value())
			m.endPathPrompt()
			if path == "" {
				return m, nil
			}
			return m, loadImageCmd(path)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Cancel):
		if m.attachment != nil {
			m.attachment = nil
			m.setNotice("Đã bỏ ảnh đính kèm", false)
		} else {
			m.setNotice("", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help) && m.input.Value() == "":
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleDark):
		m.setDark(m.ctrl.ToggleDarkMode())
		return m, nil

	case key.Matches(msg, m.keys.CycleSolution):
		next := m.ctrl.CycleSolutionMode()
		m.setNotice("Kiểu lời giải: "+next.Label(), false)
		return m, nil

	case key.Matches(msg, m.keys.ClearHistory):
		return m, m.clearCmd()

	case key.Matches(msg, m.keys.ToggleExplanation):
		if !m.ctrl.ToggleLatestExplanation() {
			m.setNotice("Không có phần giải thích nào để mở", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.AttachImage):
		m.startPathPrompt()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input, or runs it when it is a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.Reset()
		cmd := m.runCommand(text)
		return m, cmd
	}
	if strings.TrimSpace(text) == "" && m.attachment == nil {
		return m, nil
	}

	img := m.attachment
	m.attachment = nil
	return m, m.submitCmd(text, img)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) submitCmd(text string, img *capture.Image) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		res, err := ctrl.Submit(ctx, text, img, session.Options{})
		return SubmitDoneMsg{Result: res, Err: err}
	}
}

func (m Model) clearCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return ClearDoneMsg{Err: ctrl.ClearHistory(ctx)}
	}
}

func loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := capture.LoadImage(expandHome(path))
		return ImageMsg{Image: img, Err: err}
	}
}

func captureCmd(ctx context.Context, cam capture.Camera) tea.Cmd {
	return func() tea.Msg {
		if err := cam.Open(ctx); err != nil {
			return ImageMsg{Err: err}
		}
		img, err := cam.Capture(ctx)
		return ImageMsg{Image: img, Err: err}
	}
}

// ConfigReloader returns a config.ReloadFunc that forwards reloads to the
// program through send (usually tea.Program.Send).
func ConfigReloader(send func(tea.Msg)) config.ReloadFunc {
	return func(cfg *config.Config, err error) {
		send(ConfigReloadMsg{Config: cfg, Err: err})
	}
}

// =============================================================================
// STATE CHANGES
// =============================================================================

func (m *Model) setDark(dark bool) {
	m.theme.SetDark(dark)
	m.renderer.SetDark(dark)
	m.spinner.Style = m.theme.Spinner
	m.refreshViewport(false)
}

func (m *Model) startPathPrompt() {
	m.draft = m.input.Value()
	m.input.Reset()
	m.input.Placeholder = pathPlaceholder
	m.pathPrompt = true
}

func (m *Model) endPathPrompt() {
	m.pathPrompt = false
	m.input.Placeholder = inputPlaceholder
	m.input.SetValue(m.draft)
	m.draft = ""
}

func (m *Model) closeCamera() {
	if m.camera != nil && m.camera.IsOpen() {
		if err := m.camera.Close(); err != nil {
			slog.Warn("CAMERA_CLOSE_FAILED", "error", err)
		}
	}
}

// applyConfig takes the tutoring and UI settings from a reloaded config.
// Connection settings need a restart.
func (m Model) applyConfig(msg ConfigReloadMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.setNotice("Không thể tải lại cấu hình: "+msg.Err.Error(), true)
		return m, nil
	}
	cfg := msg.Config
	m.cfg = cfg

	if subject, ok := model.MatchSubject(cfg.Tutor.Subject); ok {
		m.ctrl.SetSubject(subject)
	}
	if mode, err := model.ParseMode(cfg.Tutor.Mode); err == nil {
		m.ctrl.SetMode(mode)
		m.keys.setModeKeys(mode.HasSolutionModes())
	}
	m.ctrl.SetWelcome(cfg.Tutor.WelcomeMessage, cfg.Tutor.KeepWelcome)
	m.renderer.SetMarkdown(cfg.UI.Markdown)
	m.refreshViewport(false)

	slog.Info("CONFIG_RELOADED", "subject", m.state.Subject(), "mode", string(m.state.Mode()))
	m.setNotice("Đã tải lại cấu hình", false)
	return m, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
