// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen chat interface (default command).
package cli

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/ui/chat"
)

// RunTUI starts the Bubble Tea chat view and blocks until the user quits.
func RunTUI(ctx context.Context, app *App, args Args) error {
	if err := RequiresTTY("giasu"); err != nil {
		return err
	}

	camera := capture.NewCommandCamera(app.Config.Camera.Command)
	defer camera.Close()

	m, err := chat.New(chat.Deps{
		Backend: app.NewClient(),
		State:   app.NewState(),
		Config:  app.Config,
		Camera:  camera,
		Stats:   app.Stats,
		Context: ctx,
	})
	if err != nil {
		return NewCommandError("tui", "start", "cannot build chat view", err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if app.ConfigPath != "" {
		if _, statErr := os.Stat(app.ConfigPath); statErr == nil {
			w, err := config.NewWatcher(app.ConfigPath, 0, chat.ConfigReloader(p.Send))
			if err != nil {
				slog.Warn("CONFIG_WATCH_FAILED", "path", app.ConfigPath, "error", err)
			} else {
				go w.Run(ctx)
			}
		}
	}

	slog.Info("TUI_START", "subject", app.Config.Tutor.Subject, "mode", app.Config.Tutor.Mode)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return NewCommandError("tui", "run", "program exited", err)
	}
	return nil
}
