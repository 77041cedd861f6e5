// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/util"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = "1"

// DefaultWelcome is the first bot message of a fresh session.
const DefaultWelcome = "Xin chào! Tôi là gia sư AI. Hãy chọn môn học và đặt câu hỏi cho tôi nhé."

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete giasu configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend connection
	Server ServerConfig `toml:"server" json:"server"`

	// Tutoring selections and the welcome message
	Tutor TutorConfig `toml:"tutor" json:"tutor"`

	UI        UIConfig        `toml:"ui" json:"ui"`
	Camera    CameraConfig    `toml:"camera" json:"camera"`
	Log       LogConfig       `toml:"log" json:"log"`
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`

	// Development backend (giasu serve)
	DevServer DevServerConfig `toml:"devserver" json:"devserver"`
}

// ServerConfig describes the tutoring backend.
type ServerConfig struct {
	// URL is the backend base URL.
	URL string `toml:"url" json:"url"`

	// Timeout per request in seconds.
	Timeout int `toml:"timeout" json:"timeout"`

	// RequestsPerMinute throttles the client. 0 = unlimited.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// TutorConfig holds the initial tutoring selections.
type TutorConfig struct {
	Subject string `toml:"subject" json:"subject"`
	Mode    string `toml:"mode" json:"mode"`

	// WelcomeMessage is shown as the first bot message. Empty disables it.
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message"`

	// KeepWelcome keeps the welcome message when history is cleared.
	KeepWelcome bool `toml:"keep_welcome" json:"keep_welcome"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Markdown renders answers through glamour. Off uses the plain renderer.
	Markdown bool `toml:"markdown" json:"markdown"`

	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`

	// Theme is the initial theme when no preference is stored: "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`
}

// CameraConfig configures the frame grabber.
type CameraConfig struct {
	// Command prints one image to stdout. Empty uses the ffmpeg/v4l2 default.
	Command string `toml:"command" json:"command"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// Path of the rotating log file. Empty uses ~/.giasu/logs/giasu.log.
	Path string `toml:"path" json:"path"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// Dir receives traces.log and metrics.log. Empty uses ~/.giasu/telemetry.
	Dir string `toml:"dir" json:"dir"`
}

// DevServerConfig configures the development backend.
type DevServerConfig struct {
	Addr string `toml:"addr" json:"addr"`

	// GeminiAPIKey enables the Gemini answerer. Empty uses canned answers.
	GeminiAPIKey string `toml:"gemini_api_key" json:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model" json:"gemini_model"`

	// RedisURL enables the Redis history store. Empty keeps history in memory.
	RedisURL string `toml:"redis_url" json:"redis_url"`

	// HistoryTTL is how long an idle session's history is kept, in minutes.
	HistoryTTL int `toml:"history_ttl" json:"history_ttl"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:               "http://127.0.0.1:5000",
			Timeout:           60,
			RequestsPerMinute: 0,
		},
		Tutor: TutorConfig{
			Subject:        model.DefaultSubject,
			Mode:           string(model.DefaultMode),
			WelcomeMessage: DefaultWelcome,
			KeepWelcome:    true,
		},
		UI: UIConfig{
			Markdown:       true,
			ShowTimestamps: true,
			Theme:          "dark",
		},
		Log: LogConfig{
			Level: "info",
		},
		DevServer: DevServerConfig{
			Addr:        "127.0.0.1:5000",
			GeminiModel: "gemini-1.5-flash",
			HistoryTTL:  24 * 60,
		},
	}
}

// ServerTimeout returns the request timeout as a duration.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.Timeout) * time.Second
}

// HistoryTTL returns the dev server history TTL as a duration.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.DevServer.HistoryTTL) * time.Minute
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the giasu configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".giasu"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// PrefsPath returns the path of the preferences database.
func PrefsPath() (string, error) {
	return inConfigDir("prefs.db")
}

// HistoryPath returns the path of the line-REPL history file.
func HistoryPath() (string, error) {
	return inConfigDir("history")
}

// DefaultLogPath returns the default rotating log file path.
func DefaultLogPath() (string, error) {
	return inConfigDir(filepath.Join("logs", "giasu.log"))
}

// DefaultTelemetryDir returns the default telemetry export directory.
func DefaultTelemetryDir() (string, error) {
	return inConfigDir("telemetry")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files may hold the Gemini API key; keep them 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment win. Missing files are ignored.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("DOTENV_LOAD_FAILED", "path", path, "error", err)
		}
	}
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// .env files and environment overrides are applied last.
func Load() (*Config, error) {
	LoadDotEnv()

	var loadErr error
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg := Default()
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg := Default()
			if err := LoadJSON(cfg, jsonPath); err != nil {
				if loadErr == nil {
					loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				}
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// finish applies env overrides, migration, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("CONFIG_PERMISSIONS", "path", path, "error", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("CONFIG_PERMISSIONS", "path", path, "error", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Written with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents a torn file on crash.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# giasu configuration file\n")
	b.WriteString("# Generated by giasu - edit with care\n")
	b.WriteString("#\n")
	b.WriteString("# Environment overrides: GIASU_URL, GIASU_SUBJECT, GIASU_MODE, ...\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Server.URL == "" {
		add("server.url", "must not be empty")
	} else if u, err := url.Parse(c.Server.URL); err != nil {
		add("server.url", "invalid URL: "+err.Error())
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.url", "scheme must be http or https")
	} else if u.Host == "" {
		add("server.url", "missing host")
	}
	if c.Server.Timeout < 1 || c.Server.Timeout > 600 {
		add("server.timeout", "must be between 1 and 600 seconds")
	}
	if c.Server.RequestsPerMinute < 0 {
		add("server.requests_per_minute", "must not be negative")
	}

	if _, err := model.ParseMode(c.Tutor.Mode); err != nil {
		add("tutor.mode", err.Error())
	}
	if strings.TrimSpace(c.Tutor.Subject) == "" {
		add("tutor.subject", "must not be empty")
	}

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		add("ui.theme", "must be dark, light or auto")
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "must be debug, info, warn or error")
	}

	if c.DevServer.Addr == "" {
		add("devserver.addr", "must not be empty")
	}
	if c.DevServer.HistoryTTL < 0 {
		add("devserver.history_ttl", "must not be negative")
	}
	if c.DevServer.RedisURL != "" {
		if u, err := url.Parse(c.DevServer.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			add("devserver.redis_url", "must be a redis:// or rediss:// URL")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have a sensible default and normalises
// subject and mode spellings.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.Timeout == 0 {
		c.Server.Timeout = d.Server.Timeout
	}

	if c.Tutor.Subject == "" {
		c.Tutor.Subject = d.Tutor.Subject
	} else if s, ok := model.MatchSubject(c.Tutor.Subject); ok {
		c.Tutor.Subject = s
	}
	if c.Tutor.Mode == "" {
		c.Tutor.Mode = d.Tutor.Mode
	} else if m, err := model.ParseMode(c.Tutor.Mode); err == nil {
		c.Tutor.Mode = string(m)
	}

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = d.DevServer.Addr
	}
	if c.DevServer.GeminiModel == "" {
		c.DevServer.GeminiModel = d.DevServer.GeminiModel
	}
	if c.DevServer.HistoryTTL == 0 {
		c.DevServer.HistoryTTL = d.DevServer.HistoryTTL
	}
}

// Migrate upgrades older config files. Version 1 is the only schema so far.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", CurrentVersion:
		c.Version = CurrentVersion
		return nil
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GIASU_URL: overrides server.url
//   - GIASU_SUBJECT: overrides tutor.subject
//   - GIASU_MODE: overrides tutor.mode
//   - GIASU_SOLUTION_MODE: initial solution mode (read by SolutionModeOverride)
//   - GIASU_LOG_LEVEL: overrides log.level
//   - GIASU_GEMINI_KEY: overrides devserver.gemini_api_key
//   - GIASU_REDIS_URL: overrides devserver.redis_url
//   - GIASU_ADDR: overrides devserver.addr
//   - GIASU_TELEMETRY: "1" or "true" enables telemetry
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GIASU_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("GIASU_SUBJECT"); v != "" {
		c.Tutor.Subject = v
	}
	if v := os.Getenv("GIASU_MODE"); v != "" {
		c.Tutor.Mode = v
	}
	if v := os.Getenv("GIASU_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GIASU_GEMINI_KEY"); v != "" {
		c.DevServer.GeminiAPIKey = v
	}
	if v := os.Getenv("GIASU_REDIS_URL"); v != "" {
		c.DevServer.RedisURL = v
	}
	if v := os.Getenv("GIASU_ADDR"); v != "" {
		c.DevServer.Addr = v
	}
	if v := os.Getenv("GIASU_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
}

// SolutionModeOverride returns GIASU_SOLUTION_MODE if it names a valid mode.
// The solution mode is a stored preference, so it is not part of Config.
func SolutionModeOverride() (model.SolutionMode, bool) {
	v := os.Getenv("GIASU_SOLUTION_MODE")
	if v == "" {
		return "", false
	}
	m, err := model.ParseSolutionMode(v)
	if err != nil {
		slog.Warn("CONFIG_BAD_SOLUTION_MODE", "value", v)
		return "", false
	}
	return m, true
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "tutor.subject").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.timeout",
		"server.requests_per_minute",
		"tutor.subject",
		"tutor.mode",
		"tutor.welcome_message",
		"tutor.keep_welcome",
		"ui.markdown",
		"ui.show_timestamps",
		"ui.theme",
		"camera.command",
		"log.level",
		"log.path",
		"telemetry.enabled",
		"telemetry.dir",
		"devserver.addr",
		"devserver.gemini_api_key",
		"devserver.gemini_model",
		"devserver.redis_url",
		"devserver.history_ttl",
	}
}

// IsSecretKey reports whether a key holds a credential that must not be printed.
func IsSecretKey(key string) bool {
	return strings.EqualFold(key, "devserver.gemini_api_key") || strings.EqualFold(key, "devserver.redis_url")
}

// Clone creates a copy of the configuration. Config holds no maps or slices.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON representation with secrets redacted.
// SECURITY: The Gemini key and Redis URL (which may carry a password) never
// appear in logs or `config show` output.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.DevServer.GeminiAPIKey != "" {
		safe.DevServer.GeminiAPIKey = "[REDACTED]"
	}
	if safe.DevServer.RedisURL != "" {
		safe.DevServer.RedisURL = redactURL(safe.DevServer.RedisURL)
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED]"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "REDACTED")
	}
	return u.String()
}
