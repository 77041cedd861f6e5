// giasu - A terminal client for the Vietnamese AI tutor.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/giasu-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := run(ctx, cmd, args)
	stop()

	if err != nil {
		cli.DisplayError(err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return nil
	case cli.CmdVersion:
		return cli.HandleVersion(args)
	case cli.CmdConfig:
		return cli.HandleConfig(args)
	}

	opts := cli.BootstrapOptions{}
	if cmd == cli.CmdServe {
		opts = cli.BootstrapOptions{LogToStderr: !args.Quiet, SkipPrefs: true}
		// serve has no per-request Ctrl+C; interrupt stops the server.
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	app, err := cli.Bootstrap(ctx, args, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, app, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, app, args)
	case cli.CmdServe:
		return cli.HandleServe(ctx, app, args)
	default:
		return cli.RunTUI(ctx, app, args)
	}
}
