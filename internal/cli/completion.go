package cli

import (
	"fmt"
	"strings"

	"github.com/efisim/wavecheck/internal/output"
)

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	w := output.New()
	shell := ""
	alias := ""

	// Parse arguments
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			w.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return 2
		case strings.HasPrefix(arg, "-"):
			w.ErrorPrefix("completion: unknown flag: %s", arg)
			printCompletionUsage()
			return 2
		default:
			if shell != "" {
				w.ErrorPrefix("completion: unexpected argument: %s", arg)
				return 2
			}
			shell = arg
		}
	}

	if shell == "" {
		w.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		printCompletionUsage()
		return 2
	}

	cmdName := "wavecheck"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		w.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		w.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		w.Print("%s", generateFishCompletion(cmdName))
	default:
		w.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return 2
	}

	return 0
}

// printCompletionUsage prints the help text for the completion command.
func printCompletionUsage() {
	w := output.New()

	w.HelpTitle("wavecheck completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck completion <shell> [--alias=<name>]")

	w.HelpSection("Arguments:")
	w.HelpFlag("<shell>", "Shell type: bash, zsh, or fish", 10)

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for command alias", 14)
	w.HelpFlag("-h, --help", "Show this help", 14)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(wavecheck completion bash)\"")
	w.Println("  Zsh:   eval \"$(wavecheck completion zsh)\"")
	w.Println("  Fish:  wavecheck completion fish | source")
	w.Println("")
}

type commandInfo struct {
	name        string
	description string
}

// builtinCommands returns the CLI commands in help order.
func builtinCommands() []commandInfo {
	return []commandInfo{
		{"run", "Run scenarios against the simulator"},
		{"compare", "Check a saved chart against a scenario"},
		{"scenarios", "List the scenario suite"},
		{"history", "Show recorded runs"},
		{"validate", "Validate configuration and scenario files"},
		{"channels", "List known output channels"},
		{"config", "Configuration utilities"},
		{"init", "Create a wavecheck project"},
		{"completion", "Generate shell completion"},
		{"version", "Show version information"},
		{"help", "Show help"},
	}
}

func commandNames() []string {
	cmds := builtinCommands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.name
	}
	return names
}

// globalFlags returns the global CLI flags.
func globalFlags() []string {
	return []string{
		"--config",
		"--sim",
		"--addr",
		"--log-level",
		"--continue",
		"--quiet",
		"--verbose",
		"--help",
		"--version",
	}
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"

	return fmt.Sprintf(`# %[1]s bash completion
# Add to ~/.bashrc: eval "$(%[1]s completion bash)"

%[2]s() {
    local cur prev words cword
    _init_completion || return

    local commands="%[3]s"
    local flags="%[4]s"

    case "${prev}" in
        %[1]s)
            COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
            return
            ;;
        config)
            COMPREPLY=($(compgen -W "validate" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
        --log-level)
            COMPREPLY=($(compgen -W "debug info warn error" -- "${cur}"))
            return
            ;;
        --config|--sim|validate|compare)
            _filedir
            return
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
        return
    fi

    COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
}

complete -F %[2]s %[1]s
`, cmdName, funcName, strings.Join(commandNames(), " "), strings.Join(globalFlags(), " "))
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var commands strings.Builder
	for _, c := range builtinCommands() {
		commands.WriteString(fmt.Sprintf("        '%s:%s'\n", c.name, c.description))
	}

	return fmt.Sprintf(`#compdef %[1]s
# %[1]s zsh completion
# Add to ~/.zshrc: eval "$(%[1]s completion zsh)"

%[2]s() {
    local -a commands flags

    commands=(
%[3]s    )

    flags=(
        '--config=[Configuration file]:file:_files'
        '--sim=[Simulator executable]:file:_files'
        '--addr=[Simulator address]:address:'
        '--log-level=[Run log level]:level:(debug info warn error)'
        '--continue[Keep running after a failure]'
        '--quiet[Minimal output]'
        '--verbose[Debug-level run log]'
        '--help[Show help]'
        '--version[Show version]'
    )

    if (( CURRENT == 2 )); then
        _describe -t commands 'command' commands
        _arguments -s $flags[@]
        return
    fi

    case "${words[2]}" in
        config)
            _values 'subcommand' validate
            ;;
        completion)
            _values 'shell' bash zsh fish
            ;;
        validate|compare)
            _files
            ;;
        *)
            _arguments -s $flags[@]
            ;;
    esac
}

compdef %[2]s %[1]s
`, cmdName, funcName, commands.String())
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`# %[1]s fish completion
# Add to config: %[1]s completion fish | source

# Disable file completion by default
complete -c %[1]s -f

`, cmdName))

	for _, c := range builtinCommands() {
		sb.WriteString(fmt.Sprintf("complete -c %s -n '__fish_use_subcommand' -a '%s' -d '%s'\n", cmdName, c.name, c.description))
	}

	sb.WriteString("\n# Global flags\n")
	sb.WriteString(fmt.Sprintf("complete -c %s -l config -r -F -d 'Configuration file'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l sim -r -F -d 'Simulator executable'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l addr -x -d 'Simulator address'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l log-level -xa 'debug info warn error' -d 'Run log level'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l continue -d 'Keep running after a failure'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -s q -l quiet -d 'Minimal output'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -s v -l verbose -d 'Debug-level run log'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l help -d 'Show help'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -l version -d 'Show version'\n", cmdName))

	sb.WriteString("\n# Subcommand arguments\n")
	sb.WriteString(fmt.Sprintf("complete -c %s -n '__fish_seen_subcommand_from config' -a 'validate' -d 'Validate configuration'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n", cmdName))
	sb.WriteString(fmt.Sprintf("complete -c %s -n '__fish_seen_subcommand_from validate compare' -F\n", cmdName))

	return sb.String()
}
