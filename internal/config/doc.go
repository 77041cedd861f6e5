// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for giasu.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend URL, timeout, client rate limit
//   - TutorConfig: Initial subject, mode and welcome message
//   - DevServerConfig: Development backend (Gemini, Redis)
//   - Watcher: fsnotify-based hot reload
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GIASU_*), including those from .env
//   - ~/.giasu/config.toml
//   - ~/.giasu/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = cfg.Set("tutor.subject", "Toán")
//	subject, _ := cfg.Get("tutor.subject")
package config
