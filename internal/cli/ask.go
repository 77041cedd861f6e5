// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask
// Short:   Ask a single question and print the answer
//
// Examples:
//   giasu ask "Đạo hàm của x^2 là gì?"
//   giasu ask --subject "Vật lý" --mode "giải bài tập" -s hint "Một vật rơi tự do..."
//   giasu ask -i bai_tap.png
//   echo "..." | giasu ask --json -
//
// The answer is rendered with glamour when stdout is a terminal and printed
// as plain text otherwise. Explanations are always printed expanded.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
)

// maxStdinQuestion bounds a question read from stdin.
const maxStdinQuestion = 64 * 1024

// HandleAsk handles the "ask" command.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	return runAsk(ctx, app, args, os.Stdin, os.Stdout)
}

func runAsk(ctx context.Context, app *App, args Args, stdin io.Reader, stdout io.Writer) error {
	query := strings.TrimSpace(args.Query)
	if query == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
		if err != nil {
			return NewCommandError("ask", "read", "cannot read question from stdin", err)
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" && args.Image == "" {
		return ErrMissingArgument("question", `giasu ask "Giải phương trình x^2 - 4 = 0"`)
	}

	var opts session.Options
	if args.Solution != "" {
		sm, err := model.ParseSolutionMode(args.Solution)
		if err != nil {
			return NewValidationErrorWithExample("solution", args.Solution, "unknown solution mode", "--solution step_by_step")
		}
		opts.SolutionMode = sm
	}

	var img *capture.Image
	if args.Image != "" {
		var err error
		img, err = capture.LoadImage(expandHome(args.Image))
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Resource: "image", ID: args.Image}
		}
		if err != nil {
			return NewValidationError("image", args.Image, err.Error())
		}
	}

	state := app.NewState()
	view := newAskView(app, args, state, stdout)
	ctrl, err := session.New(session.Config{
		Backend:  app.NewClient(),
		State:    state,
		Bindings: view.Bindings(),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := ctrl.Submit(ctx, query, img, opts)
	if args.JSON {
		if err != nil {
			return err
		}
		data := AskData{
			Response:   res.Response.Response,
			Subject:    state.Subject(),
			Mode:       string(state.Mode()),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if res.Response.Subject != "" {
			data.Subject = res.Response.Subject
		}
		if res.Response.Mode != "" {
			data.Mode = string(res.Response.Mode)
		}
		if model.Mode(data.Mode).HasSolutionModes() {
			sm := opts.SolutionMode
			if sm == "" {
				sm = state.SolutionMode()
			}
			data.SolutionMode = string(sm)
		}
		if img != nil {
			data.Image = img.Name
		}
		return NewJSONResponse("ask", data).Print()
	}
	if err != nil {
		return &ReportedError{Err: err}
	}
	return nil
}

// newAskView picks rendered, plain or silent output.
func newAskView(app *App, args Args, state *session.State, stdout io.Writer) *LineView {
	if args.JSON {
		return NewLineView(io.Discard, nil, nil)
	}

	var status io.Writer
	if !args.Quiet && IsStderrTTY() {
		status = os.Stderr
	}

	var renderer *format.TerminalRenderer
	if stdout == os.Stdout && IsStdoutTTY() {
		renderer = format.NewTerminalRenderer(GetTerminalWidth()-2, state.DarkMode())
		renderer.SetMarkdown(app.Config.UI.Markdown)
	}

	view := NewLineView(stdout, status, renderer)
	view.SetExpandAll(true)
	return view
}

// expandHome replaces a leading ~/ with the home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// printQuiet writes to stderr unless quiet.
func printQuiet(quiet bool, msg string, a ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stderr, msg, a...)
	}
}
