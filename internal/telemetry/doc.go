// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides request tracing, metrics and session statistics
// for giasu.
//
// Traces and metrics use the OpenTelemetry SDK with stdout exporters writing
// to rotated files under ~/.giasu/telemetry. When telemetry is disabled the
// no-op providers are used, so instrumented code never needs to check.
//
// # Key Types
//
//   - Provider: Owns the tracer and meter providers and their shutdown
//   - Instruments: Per-request span, counter and latency histogram
//   - Stats: In-memory per-session request statistics for the status bar
//
// # Usage
//
//	p, err := telemetry.Setup(ctx, telemetry.Config{Enabled: true, Dir: dir})
//	defer p.Shutdown(context.Background())
//
//	inst := telemetry.NewInstruments(p, stats)
//	ctx, done := inst.Start(ctx, "send_message")
//	resp, err := doRequest(ctx)
//	done(status, err)
//
// # Privacy
//
// Telemetry is local-only. Message text is never recorded, only endpoint
// names, status codes and durations.
package telemetry
