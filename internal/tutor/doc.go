// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tutor provides the HTTP client for the tutoring backend.
//
// The backend exposes three chat endpoints: /send_message (JSON),
// /upload_image (multipart) and /clear_history, plus /health and /subjects.
// Conversation history lives on the server and is keyed by a session cookie,
// which the client keeps in a cookie jar.
//
// # Key Types
//
//   - Client: Thread-safe backend client with throttling and telemetry
//   - ClientConfig: Base URL, timeout, rate limit
//   - Request / Response: Wire bodies
//   - ClientError: Typed failure (transport, application, timeout, invalid response)
//
// # Usage
//
//	client := tutor.NewClientWithConfig(&tutor.ClientConfig{BaseURL: url})
//	resp, err := client.SendMessage(ctx, tutor.Request{
//	    Message: "Giải phương trình x^2 = 4",
//	    Subject: "Toán",
//	    Mode:    model.ModeExercise,
//	})
//	if tutor.IsApplication(err) {
//	    fmt.Println(tutor.ServerMessage(err))
//	}
package tutor
