// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for a tutoring chat session.
//
// # Key Types
//
//   - ChatMessage: Single message with sender, raw text, rendered markup and timestamp
//   - History: Ordered, append-only message list with an explicit reset
//   - Sender: Message sender enumeration (user, bot, error, welcome)
//   - SolutionMode: How much explanation the backend includes (full, step_by_step, hint)
//   - Subject / Mode: The study subject and the tutoring mode sent with each request
//
// # Usage
//
//	h := model.NewHistory()
//	h.Append(model.NewUserMessage("Giải phương trình x^2 = 4"))
//	mode, _ := model.ParseSolutionMode("hint")
//	fmt.Println(mode.Label())
package model
