package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	flags, args := parseFlags(os.Args[1:])

	cmd := "chat"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "help", "--help", "-h":
		showUsage()
		return
	case "chat":
		err = runChat(ctx, flags)
	case "ask":
		err = runAsk(ctx, flags, strings.Join(args, " "))
	case "serve":
		err = runServe(ctx, flags)
	case "doctor":
		err = runDoctor(ctx, flags)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'salesdesk --help' for usage information.\n", cmd)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`salesdesk - Sales outreach assistant

USAGE:
    salesdesk [COMMAND] [FLAGS]

COMMANDS:
    chat            Interactive conversation (default)
    ask MESSAGE     Send one message and print the reply
    serve           Interactive conversation plus a scheduled health report
    doctor          Check configuration and agent health

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./salesdesk.yaml)
    --session ID       Continue an existing session id
    --user NAME        Name used in drafted content
    --company NAME     Company used in drafted content
    --trace            Print the agent trace after each reply
    --plain            Line-based chat without colors or markdown styling

CONFIGURATION:
    Config file: ./salesdesk.yaml (optional; defaults run fully offline)
    Environment: SALESDESK_* variables override config

EXAMPLES:
    salesdesk
    salesdesk ask "find CTO leads in fintech"
    salesdesk --trace ask "write a cold email for our analytics product"
    salesdesk doctor`)
}

// cliFlags holds the global command line flags.
type cliFlags struct {
	ConfigPath string
	SessionID  string
	UserName   string
	Company    string
	Trace      bool
	Plain      bool

	// interactive is set by commands that hand the terminal to the chat view.
	interactive bool
}

// parseFlags extracts known flags from args and returns the remaining
// positional arguments in order.
func parseFlags(args []string) (cliFlags, []string) {
	var flags cliFlags
	var rest []string

	value := func(i *int, name string) (string, bool) {
		arg := args[*i]
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, true
		}
		if arg == name && *i+1 < len(args) {
			*i++
			return args[*i], true
		}
		return "", false
	}

	for i := 0; i < len(args); i++ {
		if v, ok := value(&i, "--config"); ok {
			flags.ConfigPath = v
			continue
		}
		if v, ok := value(&i, "--session"); ok {
			flags.SessionID = v
			continue
		}
		if v, ok := value(&i, "--user"); ok {
			flags.UserName = v
			continue
		}
		if v, ok := value(&i, "--company"); ok {
			flags.Company = v
			continue
		}
		switch args[i] {
		case "--trace":
			flags.Trace = true
		case "--plain":
			flags.Plain = true
		default:
			rest = append(rest, args[i])
		}
	}
	return flags, rest
}

// configPath resolves the config file: --config, then SALESDESK_CONFIG,
// then ./salesdesk.yaml.
func configPath(flags cliFlags) string {
	if flags.ConfigPath != "" {
		return flags.ConfigPath
	}
	if p := os.Getenv("SALESDESK_CONFIG"); p != "" {
		return p
	}
	return "salesdesk.yaml"
}
