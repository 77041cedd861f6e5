// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/model"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command is one slash command.
type Command struct {
	Name        string
	Args        string
	Description string
	run         func(m *Model, arg string) tea.Cmd
}

// Commands returns the slash commands in help order.
func Commands() []Command {
	return []Command{
		{Name: "subject", Args: "<môn>", Description: "chọn môn học", run: (*Model).cmdSubject},
		{Name: "mode", Args: "<trợ lý|giải bài tập>", Description: "chọn chế độ", run: (*Model).cmdMode},
		{Name: "solution", Args: "<full|step_by_step|hint>", Description: "chọn kiểu lời giải", run: (*Model).cmdSolution},
		{Name: "image", Args: "<đường dẫn>", Description: "đính kèm ảnh", run: (*Model).cmdImage},
		{Name: "camera", Description: "chụp ảnh từ máy ảnh", run: (*Model).cmdCamera},
		{Name: "math", Args: "<latex>", Description: "chèn công thức $...$", run: (*Model).cmdMath},
		{Name: "clear", Description: "xóa lịch sử trò chuyện", run: (*Model).cmdClear},
		{Name: "export", Args: "[đường dẫn]", Description: "xuất cuộc trò chuyện (.html, .md, .json)", run: (*Model).cmdExport},
		{Name: "help", Description: "hiện trợ giúp", run: (*Model).cmdHelp},
	}
}

// parseCommand splits "/name rest of line" into its name and argument.
func parseCommand(input string) (name, arg string) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "/")
	name, arg, _ = strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// runCommand executes a slash command line.
func (m *Model) runCommand(input string) tea.Cmd {
	name, arg := parseCommand(input)
	for _, c := range Commands() {
		if c.Name == name {
			return c.run(m, arg)
		}
	}
	m.setNotice("Lệnh không hợp lệ: /"+name+" (gõ /help)", true)
	return nil
}

func (m *Model) cmdSubject(arg string) tea.Cmd {
	if arg == "" {
		m.setNotice("Môn học: "+strings.Join(model.Subjects(), ", "), false)
		return nil
	}
	subject, ok := model.MatchSubject(arg)
	if !ok {
		m.setNotice("Không có môn học: "+arg, true)
		return nil
	}
	m.ctrl.SetSubject(subject)
	m.setNotice("Môn học: "+subject, false)
	return nil
}

func (m *Model) cmdMode(arg string) tea.Cmd {
	mode, err := model.ParseMode(arg)
	if err != nil {
		m.setNotice("Chế độ không hợp lệ: "+arg, true)
		return nil
	}
	m.ctrl.SetMode(mode)
	m.keys.setModeKeys(mode.HasSolutionModes())
	m.setNotice("Chế độ: "+string(mode), false)
	return nil
}

func (m *Model) cmdSolution(arg string) tea.Cmd {
	mode, err := model.ParseSolutionMode(arg)
	if err != nil || !m.ctrl.SetSolutionMode(mode) {
		m.setNotice("Kiểu lời giải không hợp lệ: "+arg, true)
		return nil
	}
	notice := "Kiểu lời giải: " + mode.Label()
	if !m.state.Mode().HasSolutionModes() {
		notice += " (dùng trong chế độ " + string(model.ModeExercise) + ")"
	}
	m.setNotice(notice, false)
	return nil
}

func (m *Model) cmdImage(arg string) tea.Cmd {
	if arg == "" {
		m.startPathPrompt()
		return nil
	}
	return loadImageCmd(arg)
}

func (m *Model) cmdCamera(string) tea.Cmd {
	if m.camera == nil {
		m.setNotice("Chưa cấu hình máy ảnh", true)
		return nil
	}
	m.setNotice("Đang chụp ảnh...", false)
	return captureCmd(m.ctx, m.camera)
}

// cmdMath leaves the input holding the formula, cursor after it, so the
// question can be typed around it.
func (m *Model) cmdMath(arg string) tea.Cmd {
	value, _ := capture.InsertMath("", 0, arg)
	if value == "" {
		m.setNotice("Cú pháp: /math <latex>", true)
		return nil
	}
	m.input.SetValue(value + " ")
	m.input.CursorEnd()
	return nil
}

func (m *Model) cmdClear(string) tea.Cmd {
	return m.clearCmd()
}

func (m *Model) cmdExport(arg string) tea.Cmd {
	return m.exportCmd(arg)
}

func (m *Model) cmdHelp(string) tea.Cmd {
	m.showHelp = true
	return nil
}
