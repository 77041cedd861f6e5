// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler.
//
// Command: config [subcommand]
// Short:   View and manage configuration
//
// Subcommands:
//   show (default)      Show current configuration
//   get KEY             Show one value
//   set KEY VALUE       Set and save one value
//   path                Show config file path
//   init [--force]      Write the default config file
//
// Examples:
//   giasu config show --json
//   giasu config get server.url
//   giasu config set tutor.subject "Vật lý"
//   giasu config set ui.markdown false
package cli

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/giasu-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "path":
		return handleConfigPath(args)
	case "init":
		return handleConfigInit(args)
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand, "unknown config subcommand",
			"giasu config show|get|set|path|init")
	}
}

// configFile returns the file `config` operates on.
func configFile(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "", NewCommandError("config", "path", "cannot locate config directory", err)
	}
	return path, nil
}

// displayValue formats a value for output, masking secrets.
func displayValue(key string, v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if config.IsSecretKey(key) && s != "" {
		return maskSecret(s)
	}
	return s
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

func checkKey(key string) error {
	if key == "" {
		return ErrMissingArgument("key", "giasu config get server.url")
	}
	for _, k := range config.GetAllKeys() {
		if strings.EqualFold(k, key) {
			return nil
		}
	}
	return &NotFoundError{Resource: "config key", ID: key}
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func handleConfigShow(args Args) error {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		values := make(map[string]string, len(config.GetAllKeys()))
		for _, key := range config.GetAllKeys() {
			v, _ := cfg.Get(key)
			values[key] = displayValue(key, v)
		}
		return NewJSONResponse("config show", ConfigData{Values: values, Path: path}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Cấu hình giasu"))
	fmt.Println(RenderSeparator(41))

	section := ""
	for _, key := range config.GetAllKeys() {
		sec, name, ok := strings.Cut(key, ".")
		if !ok {
			sec, name = "", key
		}
		if sec != section {
			section = sec
			fmt.Println(SectionStyle.Render("[" + sec + "]"))
		}
		v, _ := cfg.Get(key)
		fmt.Printf("  %s%s\n", RenderLabel(name+":"), ValueStyle.Render(displayValue(key, v)))
	}

	fmt.Println()
	fmt.Println(RenderSeparator(41))
	fmt.Printf("Config file: %s\n", DimStyle.Render(path))
	fmt.Println()
	return nil
}

func handleConfigGet(args Args) error {
	if err := checkKey(args.ConfigKey); err != nil {
		return err
	}
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]string{
			"key":   args.ConfigKey,
			"value": displayValue(args.ConfigKey, v),
		}).Print()
	}
	fmt.Println(displayValue(args.ConfigKey, v))
	return nil
}

// handleConfigSet edits the file itself, so environment overrides and
// command-line flags are never written back.
func handleConfigSet(args Args) error {
	if err := checkKey(args.ConfigKey); err != nil {
		return err
	}
	if args.ConfigVal == "" && !strings.HasSuffix(strings.ToLower(args.ConfigKey), "welcome_message") {
		return ErrMissingArgument("value", "giasu config set "+args.ConfigKey+" <value>")
	}

	path, err := configFile(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := loadFile(cfg, path); err != nil {
			return NewCommandError("config", "set", "cannot read "+path, err)
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationError(args.ConfigKey, args.ConfigVal, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveFile(cfg, path); err != nil {
		return NewCommandError("config", "set", "cannot write "+path, err)
	}

	if !args.Quiet {
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey,
			displayValue(args.ConfigKey, args.ConfigVal))
	}
	return nil
}

func handleConfigPath(args Args) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}).Print()
	}
	fmt.Println(path)
	if !exists && !args.Quiet {
		fmt.Fprintln(os.Stderr, DimStyle.Render("(chưa có tệp; tạo bằng: giasu config init)"))
	}
	return nil
}

func handleConfigInit(args Args) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	force := NewArgParser(args.Raw).BoolFlag("force")
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force)", fs.ErrExist)
	}
	if err := saveFile(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "cannot write "+path, err)
	}
	if !args.Quiet {
		fmt.Printf("%s %s\n", SuccessStyle.Render("[OK]"), path)
	}
	return nil
}

func loadFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.LoadJSON(cfg, path)
	}
	return config.LoadTOML(cfg, path)
}

func saveFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
