// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line chat for giasu.
//
// Command: chat
// Short:   Start an interactive chat session without the full-screen UI
//
// Examples:
//   giasu chat
//   giasu --subject "Hóa học" --mode "giải bài tập" chat
//
// Interactive Commands (during chat):
//   /help, /h               Show available commands
//   /subject [môn]          Show or select the subject
//   /mode [chế độ]          Show or select the mode
//   /solution [kiểu]        Show or select the solution mode
//   /image <path>           Attach an image to the next message
//   /explain, /e            Show or hide the latest explanation
//   /clear, /c              Clear conversation history
//   /export [path]          Export the conversation
//   /status, /s             Show session statistics
//   /quit, /q               Exit chat
//   Ctrl+C                  Cancel the current request (exit at the prompt)
//   Ctrl+D                  Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/export"
	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
	"github.com/jeranaias/giasu-tui/internal/telemetry"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads ~/.giasu/history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-empty lines are added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		slog.Warn("HISTORY_SAVE_FAILED", "path", c.historyFile, "error", err)
		return
	}
	defer f.Close()
	if _, err := c.line.WriteHistory(f); err != nil {
		slog.Warn("HISTORY_SAVE_FAILED", "path", c.historyFile, "error", err)
	}
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(ctx context.Context, app *App, args Args) error {
	var renderer *format.TerminalRenderer
	state := app.NewState()
	if IsStdoutTTY() {
		renderer = format.NewTerminalRenderer(GetTerminalWidth()-2, state.DarkMode())
		renderer.SetMarkdown(app.Config.UI.Markdown)
	}
	var status io.Writer
	if IsStderrTTY() {
		status = os.Stderr
	}

	repl, err := newChatREPL(app.Config, state, app.NewClient(), NewLineView(os.Stdout, status, renderer), os.Stdout)
	if err != nil {
		return err
	}
	repl.stats = app.Stats

	if !args.Quiet {
		repl.printWelcome()
	}

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput(PromptStyle.Render("giasu> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				slog.Warn("CHAT_INPUT_FAILED", "error", err)
			}
			fmt.Fprintln(repl.out)
			repl.printExitSummary()
			return nil
		}

		// Ctrl+C during a request cancels only that request.
		reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		more := repl.handleLine(reqCtx, line)
		if reqCtx.Err() != nil && ctx.Err() == nil {
			fmt.Fprintln(repl.out, WarningStyle.Render("[Đã hủy]"))
		}
		stop()

		if !more || ctx.Err() != nil {
			repl.printExitSummary()
			return nil
		}
	}
}

// =============================================================================
// REPL
// =============================================================================

// chatREPL is the line chat without the terminal: one handleLine per input line.
type chatREPL struct {
	ctrl  *session.Controller
	state *session.State
	view  *LineView
	cfg   *config.Config
	out   io.Writer
	stats *telemetry.Stats

	attachment *capture.Image
}

func newChatREPL(cfg *config.Config, state *session.State, backend session.Backend, view *LineView, out io.Writer) (*chatREPL, error) {
	ctrl, err := session.New(session.Config{
		Backend:     backend,
		State:       state,
		Bindings:    view.Bindings(),
		Welcome:     cfg.Tutor.WelcomeMessage,
		KeepWelcome: cfg.Tutor.KeepWelcome,
	})
	if err != nil {
		return nil, err
	}
	return &chatREPL{ctrl: ctrl, state: state, view: view, cfg: cfg, out: out}, nil
}

// handleLine processes one input line. It returns false when the chat should end.
func (r *chatREPL) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, "/") {
		more, err := r.handleSlashCommand(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Lỗi]"), err)
		}
		return more
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") || strings.EqualFold(line, "thoát") {
		return false
	}

	img := r.attachment
	r.attachment = nil
	// Failures are already in the history as error messages.
	_, _ = r.ctrl.Submit(ctx, line, img, session.Options{})
	return true
}

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (r *chatREPL) handleSlashCommand(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "help", "h", "?", "":
		r.printHelp()

	case "subject", "mon":
		if arg == "" {
			r.info("Môn học", r.state.Subject()+"  ("+strings.Join(model.Subjects(), ", ")+")")
			return true, nil
		}
		subject, ok := model.MatchSubject(arg)
		if !ok {
			return true, NewValidationError("subject", arg, "unknown subject")
		}
		r.ctrl.SetSubject(subject)
		r.info("Môn học", subject)

	case "mode":
		if arg == "" {
			r.info("Chế độ", string(r.state.Mode()))
			return true, nil
		}
		mode, err := model.ParseMode(arg)
		if err != nil {
			return true, NewValidationError("mode", arg, "unknown mode")
		}
		r.ctrl.SetMode(mode)
		r.info("Chế độ", string(mode))

	case "solution", "sol":
		if arg == "" {
			r.info("Lời giải", r.state.SolutionMode().Label())
			return true, nil
		}
		sm, err := model.ParseSolutionMode(arg)
		if err != nil || !r.ctrl.SetSolutionMode(sm) {
			return true, NewValidationError("solution", arg, "unknown solution mode")
		}
		r.info("Lời giải", sm.Label())

	case "image", "img":
		if arg == "" {
			return true, ErrMissingArgument("path", "/image ~/bai_tap.png")
		}
		img, err := capture.LoadImage(expandHome(arg))
		if err != nil {
			return true, err
		}
		r.attachment = img
		r.info("Đính kèm", img.Describe())

	case "explain", "e":
		if !r.ctrl.ToggleLatestExplanation() {
			r.info("Giải thích", "không có phần giải thích nào")
		}

	case "clear", "c":
		if err := r.ctrl.ClearHistory(ctx); err != nil {
			return true, fmt.Errorf("không thể xóa lịch sử: %w", err)
		}

	case "export":
		path, err := r.export(arg)
		if err != nil {
			return true, err
		}
		r.info("Đã xuất", path)

	case "status", "s":
		r.printStatus()

	case "quit", "q", "exit":
		return false, nil

	default:
		return true, fmt.Errorf("lệnh không hợp lệ: /%s (gõ /help)", name)
	}
	return true, nil
}

// export writes the transcript. An empty path writes HTML with a generated name.
func (r *chatREPL) export(path string) (string, error) {
	t := &export.Transcript{
		SessionID:    r.state.ID(),
		Subject:      r.state.Subject(),
		Mode:         r.state.Mode(),
		SolutionMode: r.state.SolutionMode(),
		StartedAt:    r.state.StartTime(),
		Messages:     r.state.History.Messages(),
	}
	opts := export.DefaultOptions()
	opts.IncludeTimestamps = r.cfg.UI.ShowTimestamps
	if !r.state.DarkMode() {
		opts.Theme = "light"
	}
	if path == "" {
		return export.ExportToFile(t, export.NewHTMLExporter(opts), opts)
	}
	return export.ExportToPath(t, expandHome(path), opts)
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (r *chatREPL) info(label, value string) {
	fmt.Fprintf(r.out, "%s %s\n", DimStyle.Render(label+":"), ValueStyle.Render(value))
}

func (r *chatREPL) printWelcome() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Gia sư AI"))
	fmt.Fprintln(r.out, RenderSeparator(30))
	r.info("Môn học", r.state.Subject())
	r.info("Chế độ", string(r.state.Mode()))
	if r.state.Mode().HasSolutionModes() {
		r.info("Lời giải", r.state.SolutionMode().Label())
	}
	r.info("Máy chủ", r.cfg.Server.URL)
	fmt.Fprintln(r.out)
	for _, msg := range r.state.History.Messages() {
		r.view.AppendMessage(msg)
	}
	fmt.Fprintln(r.out, DimStyle.Render("Nhập câu hỏi rồi nhấn Enter. Lệnh: /help, /quit"))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printHelp() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Lệnh"))
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Hiện trợ giúp"},
		{"/subject [môn]", "Xem hoặc chọn môn học"},
		{"/mode [chế độ]", "Xem hoặc chọn chế độ (trợ lý, giải bài tập)"},
		{"/solution [kiểu]", "Xem hoặc chọn lời giải (full, step_by_step, hint)"},
		{"/image <đường dẫn>", "Đính kèm ảnh cho câu hỏi tiếp theo"},
		{"/explain, /e", "Hiện/ẩn giải thích của câu trả lời mới nhất"},
		{"/clear, /c", "Xóa lịch sử trò chuyện"},
		{"/export [đường dẫn]", "Xuất cuộc trò chuyện (.html, .md, .json)"},
		{"/status, /s", "Thống kê phiên"},
		{"/quit, /q", "Thoát"},
	}
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n", SuccessStyle.Render(fmt.Sprintf("%-22s", c.cmd)), DimStyle.Render(c.desc))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, DimStyle.Render("Ctrl+C hủy yêu cầu đang chạy, Ctrl+D để thoát"))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printStatus() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Phiên"))
	r.info("Bắt đầu", humanize.Time(r.state.StartTime()))
	r.info("Tin nhắn", humanize.Comma(int64(r.state.History.Len())))
	if r.stats != nil {
		sum := r.stats.Summary()
		r.info("Yêu cầu", fmt.Sprintf("%d (lỗi %d)", sum.Requests, sum.Failures))
		if sum.Requests > 0 {
			r.info("Thời gian TB", sum.MeanLatency.Round(10*time.Millisecond).String())
		}
	}
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printExitSummary() {
	if r.stats != nil && r.stats.Summary().Requests > 0 {
		r.printStatus()
	}
	fmt.Fprintln(r.out, DimStyle.Render("Tạm biệt!"))
}
