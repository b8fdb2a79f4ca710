package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandStop    Command = "stop"
	CommandStatus  Command = "status"
	CommandPing    Command = "ping"
	CommandLang    Command = "lang"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandStop:    {},
	CommandStatus:  {},
	CommandPing:    {},
	CommandLang:    {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	LangArg    string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	// Bare invocation starts a session, matching the original tool.
	parsed := Parsed{Command: CommandRun}

	commandSeen := false
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if commandSeen {
				if parsed.Command == CommandLang && parsed.LangArg == "" {
					parsed.LangArg = strings.ToLower(arg)
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			commandSeen = true
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [command]

Commands:
  run       Start a dictation session (default when no command is given)
  stop      Stop the active dictation session
  status    Probe configured engines and report availability
  ping      Check connectivity of the active engine setup
  lang      Show the persisted language mode
  lang CODE Set the language mode (auto, en, cs)
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/dicto/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
