// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by config, export and logging.
//
//   - AtomicWriteFile: crash-safe file writes (config, exports)
//   - TruncateRunes, Preview: rune-safe truncation for log fields
package util
