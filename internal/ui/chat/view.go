// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/ui/styles"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the chat view.
// Layout: header (2) + messages (viewport) + info line (1) + input + status (1) + help (1).
// The constants in handleResize must match.
func (m Model) View() string {
	if !m.ready {
		return "Đang khởi động..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInfoLine(),
		m.theme.InputBorder.Width(m.viewport.Width).Render(m.input.View()),
		m.renderStatusBar(),
		m.help.View(m.keys),
	))
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Gia sư AI"))
	b.WriteString("  " + m.state.Subject())
	b.WriteString(" · " + string(m.state.Mode()))
	if m.state.Mode().HasSolutionModes() {
		sm := m.state.SolutionMode()
		b.WriteString(" · " + m.theme.SolutionBadge(string(sm), sm.Label()))
	}
	return m.theme.Header.Width(m.viewport.Width).Render(b.String())
}

// renderInfoLine shows the path prompt, the attachment and the last notice.
func (m Model) renderInfoLine() string {
	width := m.viewport.Width
	var parts []string

	if m.pathPrompt {
		parts = append(parts, m.theme.PathPrompt.Render("Đính kèm ảnh:"))
	}
	if m.attachment != nil {
		label := runewidth.Truncate("📎 "+m.attachment.Describe(), width/2, "…")
		parts = append(parts, m.theme.Attachment.Render(label))
	}
	if m.notice != "" {
		style := m.theme.Notice
		if m.noticeErr {
			style = m.theme.NoticeError
		}
		parts = append(parts, style.Render(runewidth.Truncate(m.notice, width/2+width/4, "…")))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages() string {
	blocks := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n")
}

// renderMessage renders one message as a labelled bubble.
func (m Model) renderMessage(msg model.ChatMessage) string {
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var (
		style lipgloss.Style
		body  string
		color lipgloss.TerminalColor
	)
	switch msg.Sender {
	case model.SenderUser:
		style, color = m.theme.UserBubble, styles.Teal
		body = msg.Text
		bubbleWidth -= 4
	case model.SenderError:
		style, color = m.theme.ErrorBubble, styles.Rose
		body = msg.Text
	case model.SenderWelcome:
		style, color = m.theme.WelcomeBubble, styles.TextSecondary
		body = m.renderer.Render(msg.Text)
	default:
		style, color = m.theme.BotBubble, styles.Indigo
		body = m.renderer.RenderMessage(msg.Text, msg.ShowExplanation)
	}

	label := m.theme.Sender.Foreground(color).Render(msg.Sender.DisplayName())
	if m.cfg.UI.ShowTimestamps && !msg.Timestamp.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.FormattedTime())
	}
	if msg.ImageName != "" {
		body = strings.TrimRight(body, "\n") + "\n" + m.theme.Attachment.Render("📎 "+msg.ImageName)
	}

	bubble := style.Width(bubbleWidth).Render(strings.TrimRight(body, "\n"))
	if msg.IsUser() {
		return lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	item := func(k, v string) string {
		return m.theme.StatusKey.Render(" "+k+" ") + m.theme.StatusValue.Render(v+" ")
	}

	var parts []string
	if m.pending > 0 {
		parts = append(parts, m.theme.StatusValue.Render(
			fmt.Sprintf(" %s Đang trả lời (%d) ", m.spinner.View(), m.pending)))
	}
	parts = append(parts, item("Môn", m.state.Subject()))
	parts = append(parts, item("Chế độ", string(m.state.Mode())))
	if m.state.Mode().HasSolutionModes() {
		parts = append(parts, item("Lời giải", m.state.SolutionMode().Label()))
	}
	theme := "sáng"
	if m.theme.IsDark {
		theme = "tối"
	}
	parts = append(parts, item("Giao diện", theme))

	if m.stats != nil {
		sum := m.stats.Summary()
		if sum.Requests > 0 {
			parts = append(parts, item("Yêu cầu",
				fmt.Sprintf("%d (lỗi %d, ~%s)", sum.Requests, sum.Failures, sum.MeanLatency.Round(100*time.Millisecond))))
		}
	}

	bar := strings.Join(parts, "")
	return m.theme.StatusBar.Width(m.viewport.Width).MaxWidth(m.viewport.Width).Render(bar)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(m.theme.HelpTitle.Render("Phím tắt"))
	b.WriteString("\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")

	b.WriteString(m.theme.HelpTitle.Render("Lệnh"))
	b.WriteString("\n")
	for _, c := range Commands() {
		usage := "/" + c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(&b, "%-34s %s\n", usage, m.theme.Muted.Render(c.Description))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Alt+Enter xuống dòng · Esc hoặc ? để đóng"))

	box := m.theme.HelpBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
