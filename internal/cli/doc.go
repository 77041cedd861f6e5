// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for giasu.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed command-line arguments with global and command-specific flags
//   - App: config, logging, telemetry and preferences shared by the handlers
//   - LineView: session bindings that print to a plain terminal
//
// # Usage
//
//	cmd, args := cli.Parse()
//	app, err := cli.Bootstrap(ctx, args, cli.BootstrapOptions{})
//	if err == nil {
//	    defer app.Close()
//	    err = cli.HandleAsk(ctx, app, args)
//	}
//	if err != nil {
//	    cli.DisplayError(err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - (none): full-screen chat (Bubble Tea)
//   - ask: single question, optionally with an image
//   - chat: line-based chat with liner history
//   - serve: local tutoring backend
//   - config: show, get, set, path, init
//   - version, help
//
// # Exit Codes
//
//	0  success               5  backend unreachable
//	1  general error         6  backend error
//	2  usage error           7  not found
//	3  config error          8  timeout
//
// # JSON Output
//
// ask, config and version accept --json and print a JSONResponse envelope.
// Errors use the same envelope with success=false; data holds exit_code and error_type.
package cli
