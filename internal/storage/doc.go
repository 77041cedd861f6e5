// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists giasu's local preferences.
//
// Preferences are scalar key/value pairs (dark mode, solution mode) kept in
// a small SQLite database at ~/.giasu/prefs.db. Values are unversioned
// strings; unknown or missing values fall back to defaults on read.
//
// # Key Types
//
//   - KV: Key/value store interface
//   - SQLiteStore: modernc.org/sqlite-backed KV
//   - MemoryStore: In-memory KV for tests and --no-persist
//   - Preferences: Typed accessors for dark mode and solution mode
//
// # Usage
//
//	kv, err := storage.OpenSQLite(path)
//	prefs := storage.NewPreferences(kv)
//	prefs.SetDarkMode(true)
//	mode := prefs.SolutionMode()
package storage
