// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the development tutoring backend behind "giasu serve".
//
// It speaks the same contract as the production backend so the client can be
// exercised without it.
//
// # Endpoints
//
//   - POST /send_message  - JSON question, returns {response, subject, mode}
//   - POST /upload_image  - multipart image (+ optional message), returns the
//     answer and the optimized JPEG as optimized_image_b64
//   - POST /clear_history - forget the caller's session history
//   - GET  /health        - liveness plus answerer and history backend names
//   - GET  /subjects      - supported subjects and modes
//   - GET  /stats         - usage counters
//
// Errors are reported as {"error": "..."} with a non-2xx status.
//
// # Key Types
//
//   - Server: chi router, middleware and graceful shutdown
//   - Answerer: CannedAnswerer (offline) or GeminiAnswerer
//   - HistoryStore: MemoryStore or RedisStore, keyed by the giasu_session cookie
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:5000"})
//	if err := srv.ListenAndServe(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
