// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for giasu.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL        string // Backend URL (overrides server.url)
	Subject    string
	Mode       string
	ConfigPath string // Explicit config file
	NoPersist  bool   // Keep preferences in memory only
	Quiet      bool
	Verbose    bool
	JSON       bool

	// ask
	Query    string
	Image    string
	Solution string

	// serve
	Addr string

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `giasu - gia sư AI trong terminal

Usage:
  giasu                      Start TUI (default)
  giasu tui                  Start TUI
  giasu ask "câu hỏi"        Ask a single question
  giasu chat                 Interactive line chat
  giasu serve                Run the development backend
  giasu config [subcommand]  Configuration
  giasu version              Show version
  giasu help                 Show this help

Global Flags:
  --url URL                  Backend URL (default: server.url)
  --subject NAME             Subject (e.g. "Toán học")
  --mode MODE                "trợ lý" or "giải bài tập"
  --config PATH              Use a specific config file
  --no-persist               Do not read or write ~/.giasu/prefs.db
  -q, --quiet                Minimal output
  -v, --verbose              Debug logging
  --json                     JSON output (ask, config show, version)

Ask Flags:
  -i, --image PATH           Attach an image (sent to /upload_image)
  -s, --solution MODE        full, step_by_step or hint

Serve Flags:
  --addr HOST:PORT           Listen address (default: devserver.addr)

Config Commands:
  giasu config show          Show current configuration
  giasu config get KEY       Show one value (e.g. server.url)
  giasu config set KEY VAL   Set and save one value
  giasu config path          Show config file path
  giasu config init          Write the default config file

Examples:
  giasu ask --subject "Toán học" "Giải phương trình $x^2 - 4 = 0$"
  giasu ask --mode "giải bài tập" -s hint -i bai1.png
  giasu --url http://localhost:5000 chat
  GIASU_GEMINI_KEY=... giasu serve --addr :5000

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("giasu version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(argv)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	name := remaining[0]
	cmd := strings.ToLower(name)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		return CmdChat, parsedArgs

	case "serve", "server":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version", "-V":
		return CmdVersion, parsedArgs

	case "help", "--help", "-h":
		return CmdHelp, parsedArgs

	default:
		// Unknown command is a direct question: `giasu "2+2 bằng mấy?"`
		parsedArgs.Raw = append([]string{name}, remaining...)
		parseAskArgs(&parsedArgs, parsedArgs.Raw)
		return CmdAsk, parsedArgs
	}
}

// valueFlag reads "--name value" or "--name=value" at args[i].
// It returns the value, the index of the last consumed arg and whether arg matched.
func valueFlag(args []string, i int, names ...string) (string, int, bool) {
	arg := args[i]
	for _, name := range names {
		if arg == name {
			if i+1 < len(args) {
				return args[i+1], i + 1, true
			}
			return "", i, true
		}
		if strings.HasPrefix(arg, name+"=") {
			return strings.TrimPrefix(arg, name+"="), i, true
		}
	}
	return "", i, false
}

// parseGlobalFlags extracts global flags from anywhere in args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--no-persist":
			parsed.NoPersist = true
			continue
		case "-q", "--quiet":
			parsed.Quiet = true
			continue
		case "-v", "--verbose":
			parsed.Verbose = true
			continue
		case "--json":
			parsed.JSON = true
			continue
		}

		if v, next, ok := valueFlag(args, i, "--url"); ok {
			parsed.URL, i = v, next
			continue
		}
		if v, next, ok := valueFlag(args, i, "--subject"); ok {
			parsed.Subject, i = v, next
			continue
		}
		if v, next, ok := valueFlag(args, i, "--mode"); ok {
			parsed.Mode, i = v, next
			continue
		}
		if v, next, ok := valueFlag(args, i, "--config"); ok {
			parsed.ConfigPath, i = v, next
			continue
		}
		remaining = append(remaining, arg)
	}

	return remaining, parsed
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		if v, next, ok := valueFlag(remaining, i, "-i", "--image"); ok {
			args.Image, i = v, next
			continue
		}
		if v, next, ok := valueFlag(remaining, i, "-s", "--solution"); ok {
			args.Solution, i = v, next
			continue
		}
		if remaining[i] == "--" {
			query = append(query, remaining[i+1:]...)
			break
		}
		query = append(query, remaining[i])
	}

	args.Query = strings.Join(query, " ")
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Addr = p.Flag("addr")
}

// parseConfigArgs parses config command specific arguments.
// Values may contain spaces: `config set tutor.welcome_message Xin chào`.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
