// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Key Types
//
//   - Transcript: the messages of one session plus its tutoring selections
//   - Exporter: HTMLExporter, MarkdownExporter, JSONExporter
//   - Options: output directory, theme, metadata and timestamps
//
// # Supported Formats
//
//   - HTML: standalone page using the chat markup, explanations collapsible
//   - Markdown: raw message text under a heading per sender
//   - JSON: the transcript as stored
//
// # Usage
//
//	path, err := export.ExportToFile(transcript, export.NewHTMLExporter(opts), opts)
//
// Export to a path chosen by the user, picking the format from its extension:
//
//	path, err := export.ExportToPath(transcript, "bai-tap.md", opts)
package export
