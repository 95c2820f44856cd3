// Package cli provides command-line interface functionality for wavecheck.
package cli

import (
	"fmt"
	"strings"

	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/log"
	"github.com/efisim/wavecheck/internal/output"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "--version", "version":
		out.Println("wavecheck %s", Version)
		return 0
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	// Re-extract command after flag parsing
	if len(remaining) == 0 {
		printUsage()
		return 0
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "run":
		return cmdRun(cmdArgs, opts)
	case "validate":
		return cmdValidate(cmdArgs, opts)
	case "compare":
		return cmdCompare(cmdArgs, opts)
	case "channels":
		return cmdChannels(cmdArgs, opts)
	case "scenarios":
		return cmdScenarios(cmdArgs, opts)
	case "history":
		return cmdHistory(cmdArgs, opts)
	case "config":
		return cmdConfig(cmdArgs, opts)
	case "init":
		return cmdInit(cmdArgs)
	case "completion":
		return cmdCompletion(cmdArgs)
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Hint("run 'wavecheck help' for the list of commands")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Config   string // explicit wavecheck.json
	Sim      string // simulator executable, overrides simulator.command
	Addr     string // simulator address, overrides simulator.addr
	LogLevel string
	Continue bool
	Quiet    bool
	Verbose  bool
}

// valueFlags are the global flags that take a value, as --flag value or --flag=value.
var valueFlags = map[string]func(*GlobalOptions, string){
	"--config":    func(o *GlobalOptions, v string) { o.Config = v },
	"--sim":       func(o *GlobalOptions, v string) { o.Sim = v },
	"--addr":      func(o *GlobalOptions, v string) { o.Addr = v },
	"--log-level": func(o *GlobalOptions, v string) { o.LogLevel = strings.ToLower(v) },
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Manual parsing is used instead of stdlib flag package because flags can
// appear anywhere in the argument list, not just before the command, and
// arguments after -- must be preserved verbatim.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		name, value, hasValue := strings.Cut(arg, "=")
		if set, ok := valueFlags[name]; ok {
			if !hasValue {
				if i+1 >= len(args) {
					return nil, nil, fmt.Errorf("%s requires a value", name)
				}
				value = args[i+1]
				i++
			}
			if value == "" {
				return nil, nil, fmt.Errorf("%s requires a value", name)
			}
			set(opts, value)
			i++
			continue
		}

		switch arg {
		case "--continue":
			opts.Continue = true
		case "-q", "--quiet":
			opts.Quiet = true
		case "-v", "--verbose":
			opts.Verbose = true
		case "--":
			// Everything after -- is passed through
			remaining = append(remaining, args[i:]...)
			i = len(args)
			continue
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	out.SetQuiet(opts.Quiet)
	return opts, remaining, nil
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if opts.Sim != "" && opts.Addr != "" {
		return fmt.Errorf("--sim and --addr are mutually exclusive")
	}
	if opts.LogLevel != "" {
		if _, err := log.ParseLevel(opts.LogLevel); err != nil {
			return fmt.Errorf("invalid --log-level value %q\n  valid values: debug, info, warn, error", opts.LogLevel)
		}
	}
	return nil
}

// Help text alignment widths for consistent formatting.
const (
	helpCommandWidth = 34
	helpFlagWidth    = 20
)

func printUsage() {
	w := output.New()

	w.HelpTitle("wavecheck - simulator output timing checks")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck [flags] <command> [args]")

	w.HelpSection("Scenario Commands:")
	w.HelpCommand("run [scenario...]", "Run scenarios against the simulator (all by default)", helpCommandWidth)
	w.HelpCommand("compare <report> <scenario>", "Check a saved chart report against a capture step", helpCommandWidth)
	w.HelpCommand("scenarios", "List the scenarios of the current suite", helpCommandWidth)
	w.HelpCommand("history [<run-id>]", "Show recorded runs, or one run in detail", helpCommandWidth)

	w.HelpSection("Utility Commands:")
	w.HelpCommand("validate [file...]", "Validate configuration and scenario files", helpCommandWidth)
	w.HelpCommand("channels", "List known output channels", helpCommandWidth)
	w.HelpCommand("config validate", "Validate project configuration", helpCommandWidth)
	w.HelpCommand("init", "Create wavecheck.json and a scenarios directory", helpCommandWidth)
	w.HelpCommand("completion <shell>", "Generate shell completion (bash, zsh, fish)", helpCommandWidth)
	w.HelpCommand("version", "Show version information", helpCommandWidth)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("wavecheck run", "Run the whole suite")
	w.HelpExample("wavecheck run \"Ford Aspire\" --continue", "Run one scenario")
	w.HelpExample("wavecheck --addr 127.0.0.1:29001 run", "Use a simulator that is already running")
	w.HelpExample("wavecheck compare chart.txt scenarios/10-ford-fiesta.yaml", "Re-check a captured chart offline")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("--config=<file>", "Configuration file (default: wavecheck.json, searched upwards)", helpFlagWidth)
	w.HelpFlag("--sim=<path>", "Simulator executable to launch", helpFlagWidth)
	w.HelpFlag("--addr=<host:port>", "Connect to a running simulator instead", helpFlagWidth)
	w.HelpFlag("--log-level=<level>", "Run log level (debug, info, warn, error)", helpFlagWidth)
	w.HelpFlag("--continue", "Keep running scenarios after a failure", helpFlagWidth)
	w.HelpFlag("-q, --quiet", "Minimal output (errors only)", helpFlagWidth)
	w.HelpFlag("-v, --verbose", "Debug-level run log, same as --log-level=debug", helpFlagWidth)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidth)
	w.HelpFlag("--version", "Show version", helpFlagWidth)

	w.HelpSection("Environment:")
	w.HelpEnvVar("WAVECHECK_LOG_LEVEL", "Overrides log.level from the configuration", 20)
}
