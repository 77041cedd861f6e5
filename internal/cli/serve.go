// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Development backend command.
//
// Command: serve
// Short:   Run the tutoring backend locally
//
// Examples:
//   giasu serve                              Canned answers, in-memory history
//   GIASU_GEMINI_KEY=... giasu serve         Answers from Gemini
//   giasu serve --addr :5000 --rpm 30        Rate limit POST endpoints per IP
//   GIASU_REDIS_URL=redis://localhost:6379/0 giasu serve
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/server"
)

// HandleServe handles the "serve" command. It blocks until ctx is cancelled.
func HandleServe(ctx context.Context, app *App, args Args) error {
	cfg := app.Config.DevServer
	addr := cfg.Addr
	if args.Addr != "" {
		addr = args.Addr
	}

	p := NewArgParser(args.Raw)
	rpm := 0
	if p.HasFlag("rpm") {
		n, err := p.FlagInt("rpm")
		if err != nil {
			return err
		}
		rpm = n
	}

	answerer, err := newAnswerer(ctx, cfg)
	if err != nil {
		return err
	}
	history, err := newHistoryStore(ctx, app.Config)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:              addr,
		Answerer:          answerer,
		History:           history,
		HistoryTTL:        app.Config.HistoryTTL(),
		RequestsPerMinute: rpm,
		Logger:            slog.Default(),
	})

	printQuiet(args.Quiet, "%s %s (%s, %s)\n",
		SuccessStyle.Render("giasu serve"), srv.Addr(), answerer.Name(), history.Name())
	printQuiet(args.Quiet, "%s\n", DimStyle.Render("Ctrl+C để dừng"))

	if err := srv.ListenAndServe(ctx); err != nil {
		return NewCommandError("serve", "listen", addr, err)
	}
	return nil
}

// newAnswerer picks Gemini when a key is configured, canned answers otherwise.
func newAnswerer(ctx context.Context, cfg config.DevServerConfig) (server.Answerer, error) {
	if cfg.GeminiAPIKey == "" {
		slog.Info("ANSWERER_CANNED", "reason", "no gemini key")
		return server.CannedAnswerer{}, nil
	}
	g, err := server.NewGeminiAnswerer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, NewCommandError("serve", "gemini", "cannot create client", err)
	}
	return g, nil
}

// newHistoryStore picks Redis when a URL is configured, memory otherwise.
func newHistoryStore(ctx context.Context, cfg *config.Config) (server.HistoryStore, error) {
	if cfg.DevServer.RedisURL == "" {
		return server.NewMemoryStore(cfg.HistoryTTL()), nil
	}
	store, err := server.NewRedisStore(ctx, cfg.DevServer.RedisURL, cfg.HistoryTTL())
	if err != nil {
		return nil, NewCommandError("serve", "redis", fmt.Sprintf("cannot connect to %s", redactURL(cfg.DevServer.RedisURL)), err)
	}
	return store, nil
}

// redactURL hides the password part of a redis URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
