// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Process setup shared by every command that talks to a backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/logging"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
	"github.com/jeranaias/giasu-tui/internal/storage"
	"github.com/jeranaias/giasu-tui/internal/telemetry"
	"github.com/jeranaias/giasu-tui/internal/tutor"
	"github.com/jeranaias/giasu-tui/internal/ui/styles"
)

// App holds the configured process-wide services.
type App struct {
	Config     *config.Config
	ConfigPath string

	Logger    *logging.Logger
	Telemetry *telemetry.Provider
	Stats     *telemetry.Stats
	Prefs     *storage.Preferences
}

// BootstrapOptions tune Bootstrap per command.
type BootstrapOptions struct {
	// LogToStderr mirrors the log to stderr (serve).
	LogToStderr bool
	// SkipPrefs leaves Prefs nil (serve, config).
	SkipPrefs bool
}

// LoadConfig loads the config named by args, or the default one, and
// applies the global flag overrides.
func LoadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
	} else {
		path, _ = config.ConfigPathTOML()
		cfg, err = config.Load()
		if cfg == nil {
			return nil, path, err
		}
		if err != nil {
			// Broken file: keep running on defaults.
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("[Cảnh báo]"), err)
		}
	}

	if err := applyFlags(cfg, args); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyFlags lets command-line flags override the loaded config.
func applyFlags(cfg *config.Config, args Args) error {
	if args.URL != "" {
		cfg.Server.URL = strings.TrimRight(args.URL, "/")
	}
	if args.Subject != "" {
		subject, ok := model.MatchSubject(args.Subject)
		if !ok {
			return NewValidationErrorWithExample("subject", args.Subject, "unknown subject",
				strings.Join(model.Subjects(), ", "))
		}
		cfg.Tutor.Subject = subject
	}
	if args.Mode != "" {
		mode, err := model.ParseMode(args.Mode)
		if err != nil {
			return NewValidationErrorWithExample("mode", args.Mode, "unknown mode",
				`--mode "`+string(model.ModeExercise)+`"`)
		}
		cfg.Tutor.Mode = string(mode)
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return nil
}

// Bootstrap loads config and starts logging, telemetry and preferences.
// The caller must Close the App.
func Bootstrap(ctx context.Context, args Args, opts BootstrapOptions) (*App, error) {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, ConfigPath: path, Stats: telemetry.NewStats()}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath, _ = config.DefaultLogPath()
	}
	app.Logger, err = logging.Setup(logging.Options{
		Path:   logPath,
		Level:  cfg.Log.Level,
		Stderr: opts.LogToStderr,
	})
	if err != nil {
		return nil, NewCommandError("startup", "logging", "cannot open log", err)
	}

	telDir := cfg.Telemetry.Dir
	if telDir == "" {
		telDir, _ = config.DefaultTelemetryDir()
	}
	app.Telemetry, err = telemetry.Setup(ctx, telemetry.Config{
		Enabled: cfg.Telemetry.Enabled,
		Dir:     telDir,
		Version: Version,
	})
	if err != nil {
		slog.Warn("TELEMETRY_SETUP_FAILED", "error", err)
		app.Telemetry = telemetry.Noop()
	}

	if !opts.SkipPrefs {
		app.Prefs = openPreferences(args.NoPersist)
		app.Prefs.SetDefaultDark(defaultDark(cfg.UI.Theme))
		if mode, ok := config.SolutionModeOverride(); ok {
			app.Prefs.SetSolutionMode(mode)
		}
	}

	slog.Info("STARTUP",
		"version", Version,
		"config", path,
		"server", cfg.Server.URL,
		"telemetry", cfg.Telemetry.Enabled,
		"persist", !args.NoPersist)
	return app, nil
}

// openPreferences opens ~/.giasu/prefs.db, falling back to memory.
func openPreferences(noPersist bool) *storage.Preferences {
	if noPersist {
		return storage.NewPreferences(storage.NewMemoryStore())
	}
	if err := config.EnsureConfigDir(); err != nil {
		slog.Warn("PREFS_UNAVAILABLE", "error", err)
		return storage.NewPreferences(storage.NewMemoryStore())
	}
	path, err := config.PrefsPath()
	if err != nil {
		slog.Warn("PREFS_UNAVAILABLE", "error", err)
		return storage.NewPreferences(storage.NewMemoryStore())
	}
	store, err := storage.OpenSQLite(path)
	if err != nil {
		slog.Warn("PREFS_UNAVAILABLE", "path", path, "error", err)
		return storage.NewPreferences(storage.NewMemoryStore())
	}
	return storage.NewPreferences(store)
}

func defaultDark(theme string) bool {
	switch strings.ToLower(theme) {
	case "light":
		return false
	case "auto":
		return styles.DetectDark()
	default:
		return true
	}
}

// NewClient builds the tutoring backend client.
func (a *App) NewClient() *tutor.Client {
	return tutor.NewClientWithConfig(&tutor.ClientConfig{
		BaseURL:           a.Config.Server.URL,
		Timeout:           a.Config.ServerTimeout(),
		RequestsPerMinute: a.Config.Server.RequestsPerMinute,
		UserAgent:         "giasu/" + Version,
		Instruments:       telemetry.NewInstruments(a.Telemetry, a.Stats),
	})
}

// NewState creates session state seeded with the configured selections.
func (a *App) NewState() *session.State {
	state := session.NewState(a.Prefs)
	state.SetSubject(a.Config.Tutor.Subject)
	if mode, err := model.ParseMode(a.Config.Tutor.Mode); err == nil {
		state.SetMode(mode)
	}
	return state
}

// Close flushes telemetry and closes preferences and the log file.
func (a *App) Close() error {
	var errs []error
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Prefs != nil {
		if err := a.Prefs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
