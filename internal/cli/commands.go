package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/command"
	"github.com/efisim/wavecheck/internal/config"
	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/history"
	"github.com/efisim/wavecheck/internal/log"
	"github.com/efisim/wavecheck/internal/output"
	"github.com/efisim/wavecheck/internal/project"
	"github.com/efisim/wavecheck/internal/report"
	"github.com/efisim/wavecheck/internal/runner"
	"github.com/efisim/wavecheck/internal/scenario"
	"github.com/efisim/wavecheck/internal/wave"
	"github.com/efisim/wavecheck/scenarios"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// defaultHistoryLimit is how many runs "history" lists without --limit.
const defaultHistoryLimit = 20

// loadProject loads the project configuration and handles errors uniformly.
// Returns the project and exit code 0 on success, or nil and appropriate exit code on failure.
func loadProject(opts *GlobalOptions) (*project.Project, int) {
	var (
		proj *project.Project
		err  error
	)
	if opts.Config != "" {
		proj, err = project.LoadFile(opts.Config)
	} else {
		proj, err = project.LoadProject()
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		code := errors.GetExitCode(err)
		if code == errors.ExitFailure {
			// Configuration that cannot be read or validated is a config error.
			code = errors.ExitConfigError
		}
		return nil, code
	}

	for _, w := range proj.Warnings {
		out.WarningSimple("%s", w)
	}
	return proj, 0
}

// newLogger opens the run log. Flags win over the configuration.
func newLogger(cfg *config.Config, opts *GlobalOptions) (*log.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}
	return log.New(level, cfg.Log.Dir)
}

// scenarioLoader returns a loader using the configured tolerances.
func scenarioLoader(cfg *config.Config) *scenario.Loader {
	l := scenario.NewLoader()
	l.WidthTolerance = cfg.Comparison.WidthTolerance
	l.PositionTolerance = cfg.Comparison.PositionTolerance
	return l
}

// loadSuite loads the configured scenario directory, or the built-in suite
// when none is configured.
func loadSuite(cfg *config.Config) ([]*scenario.Scenario, error) {
	l := scenarioLoader(cfg)
	if dir := cfg.Scenarios.Directory; dir != "" {
		return l.LoadDir(dir)
	}
	return l.LoadFS(scenarios.FS, ".", "builtin")
}

// selectScenarios picks scenarios by name, in the order given. No names
// selects the whole suite.
func selectScenarios(list []*scenario.Scenario, names []string) ([]*scenario.Scenario, error) {
	if len(names) == 0 {
		return list, nil
	}
	selected := make([]*scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := scenario.Find(list, name)
		if !ok {
			return nil, errors.NotFound("scenario", name)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

func parser(cfg *config.Config) *report.Parser {
	return report.NewParser(nil).WithGeometry(cfg.Chart.Cycle, cfg.Chart.Period)
}

func commandOptions(cfg *config.Config, logger *log.Logger) command.Options {
	return command.Options{
		Default: command.Budget{Retries: cfg.Commands.Retries, Timeout: cfg.Commands.Timeout()},
		Complex: command.Budget{Retries: cfg.Commands.ComplexRetries, Timeout: cfg.Commands.ComplexTimeout()},
		Logger:  logger,
	}
}

func openHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	store, err := history.NewStore(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, errors.WrapKind(errors.KindConfig, err, "history")
	}
	if err := store.Init(ctx); err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "history")
	}
	return store, nil
}

// cmdRun runs scenarios against the simulator.
func cmdRun(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printRunUsage()
		return 0
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}
	cfg := proj.Config

	suite, err := loadSuite(cfg)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}
	selected, err := selectScenarios(suite, args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	logger, err := newLogger(cfg, opts)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitEnvironmentError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openHistory(ctx, cfg)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	defer store.Close()

	conn, err := openSession(ctx, cfg, opts, logger)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("closing simulator", slog.String("error", err.Error()))
		}
	}()

	out.Action("Running %d of %d scenarios", len(selected), len(suite))
	r := runner.New(conn, runner.Options{
		Commands: commandOptions(cfg, logger),
		Parser:   parser(cfg),
		History:  store,
		Out:      out,
		Logger:   logger,
	})
	result, err := r.RunAll(ctx, selected, runner.RunOptions{Continue: opts.Continue})
	runner.PrintSummary(result, out)
	if logger.LogFile != "" {
		out.Hint("run log: %s", logger.LogFile)
	}
	return errors.GetExitCode(err)
}

// cmdValidate validates configuration and scenario files. Without files it
// validates the project configuration and its scenario suite.
func cmdValidate(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printValidateUsage()
		return 0
	}
	if len(args) == 0 {
		return validateProject(opts)
	}

	loader := scenario.NewLoader()
	failed := 0
	for _, path := range args {
		var err error
		var what string
		if strings.EqualFold(filepath.Ext(path), ".json") {
			_, warnings, loadErr := config.LoadAndValidate(path)
			for _, w := range warnings {
				out.WarningSimple("%s: %s", path, w)
			}
			err, what = loadErr, "configuration"
		} else {
			var sc *scenario.Scenario
			sc, err = loader.Load(path)
			if err == nil {
				what = fmt.Sprintf("scenario %q, %d steps", sc.Name, len(sc.Steps))
			}
		}

		if err != nil {
			failed++
			out.ErrorPrefix("%s: %v", path, err)
			continue
		}
		out.ValidationSuccess("%s: valid %s", path, what)
	}

	if failed > 0 {
		return errors.ExitConfigError
	}
	return 0
}

func validateProject(opts *GlobalOptions) int {
	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	suite, err := loadSuite(proj.Config)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	captures := 0
	for _, sc := range suite {
		captures += sc.Captures()
	}

	out.ValidationSuccess("Configuration is valid.")
	if path := proj.ConfigPath(); path != "" {
		out.SummaryItem("Config", path)
	} else {
		out.SummaryItem("Config", "defaults (no "+project.ConfigFileName+" found)")
	}
	out.SummaryItem("Scenarios", fmt.Sprintf("%d (%d captures)", len(suite), captures))
	if len(proj.Warnings) > 0 {
		out.SummaryItem("Warnings", fmt.Sprintf("%d", len(proj.Warnings)))
	}
	return 0
}

// cmdConfig handles configuration utilities.
func cmdConfig(args []string, opts *GlobalOptions) int {
	if len(args) == 0 {
		out.ErrorPrefix("config: subcommand required (validate)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "validate":
		return validateProject(opts)
	case "-h", "--help":
		printConfigUsage()
		return 0
	default:
		out.ErrorPrefix("config: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

// cmdChannels lists the output channels reports and scenarios may name.
func cmdChannels(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printChannelsUsage()
		return 0
	}

	registry := channel.NewRegistry()
	byKind := make(map[channel.Kind][]channel.Info)
	for _, id := range registry.IDs() {
		info, _ := registry.Lookup(string(id))
		byKind[info.Kind] = append(byKind[info.Kind], info)
	}

	title := cases.Title(language.English)
	for _, kind := range []channel.Kind{channel.KindSpark, channel.KindInjector, channel.KindTrigger, channel.KindAux} {
		infos := byKind[kind]
		if len(infos) == 0 {
			continue
		}
		out.Section(title.String(string(kind)))
		for _, info := range infos {
			out.ChannelInfo(string(info.ID), string(info.Kind), info.Description)
		}
	}
	return 0
}

// cmdScenarios lists the scenario suite.
func cmdScenarios(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printScenariosUsage()
		return 0
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}
	suite, err := loadSuite(proj.Config)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	rows := make([][]string, 0, len(suite))
	for _, sc := range suite {
		rows = append(rows, []string{
			sc.Name,
			strconv.Itoa(sc.EngineType),
			strconv.Itoa(len(sc.Steps)),
			strconv.Itoa(sc.Captures()),
			sc.Source,
		})
	}
	out.Table([]string{"Name", "Engine", "Steps", "Captures", "Source"}, rows)
	return 0
}

// cmdCompare checks a saved chart report against one capture step of a
// scenario, without a simulator.
func cmdCompare(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printCompareUsage()
		return 0
	}

	var capture string
	var positional []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--capture="):
			capture = strings.TrimPrefix(arg, "--capture=")
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("compare: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 2 {
		out.ErrorPrefix("compare: usage: wavecheck compare <report-file> <scenario-file> [--capture=<label|n>]")
		return errors.ExitConfigError
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	raw, err := os.ReadFile(positional[0])
	if err != nil {
		out.ErrorPrefix("compare: %v", err)
		return errors.ExitConfigError
	}
	sc, err := scenarioLoader(proj.Config).Load(positional[1])
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}
	cp, err := pickCapture(sc, capture)
	if err != nil {
		out.ErrorPrefix("compare: %v", err)
		return errors.ExitConfigError
	}
	label := cp.Label
	if label == "" {
		label = sc.Name
	}

	c, err := parser(proj.Config).Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		out.ErrorPrefix("%s: %v", positional[0], err)
		return errors.GetExitCode(err)
	}
	if err := wave.Compare(label, c, cp.Checks); err != nil {
		printFailures(label, err)
		return errors.ExitFailure
	}
	out.ValidationSuccess("%s: %d checks passed", label, len(cp.Checks))
	return 0
}

// pickCapture selects a capture step by label or 1-based index. An empty
// selector picks the first capture.
func pickCapture(sc *scenario.Scenario, selector string) (*scenario.Capture, error) {
	var captures []*scenario.Capture
	for _, st := range sc.Steps {
		if st.Kind == scenario.StepCapture && st.Capture != nil {
			captures = append(captures, st.Capture)
		}
	}
	if len(captures) == 0 {
		return nil, fmt.Errorf("scenario %q has no capture steps", sc.Name)
	}
	if selector == "" {
		return captures[0], nil
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(captures) {
			return nil, fmt.Errorf("capture %d out of range (scenario has %d)", n, len(captures))
		}
		return captures[n-1], nil
	}
	for _, cp := range captures {
		if strings.EqualFold(cp.Label, selector) {
			return cp, nil
		}
	}
	return nil, fmt.Errorf("scenario %q has no capture labelled %q", sc.Name, selector)
}

// printFailures prints every failure joined into err on its own line.
func printFailures(label string, err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	out.Errorln("%s: %d of the checks failed", label, len(errs))
	for _, e := range errs {
		kind, _ := errors.KindOf(e)
		out.StepFailed(kind.String(), e)
	}
}

// cmdHistory lists recorded runs, or shows one run with its steps.
func cmdHistory(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printHistoryUsage()
		return 0
	}

	limit := defaultHistoryLimit
	showReport := false
	pruneDays := -1
	var id string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--prune="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--prune="))
			if err != nil || n < 0 {
				out.ErrorPrefix("history: invalid --prune value %q", strings.TrimPrefix(arg, "--prune="))
				return errors.ExitConfigError
			}
			pruneDays = n
		case strings.HasPrefix(arg, "--limit="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--limit="))
			if err != nil || n < 0 {
				out.ErrorPrefix("history: invalid --limit value %q", strings.TrimPrefix(arg, "--limit="))
				return errors.ExitConfigError
			}
			limit = n
		case arg == "--report":
			showReport = true
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("history: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			if id != "" {
				out.ErrorPrefix("history: unexpected argument: %s", arg)
				return errors.ExitConfigError
			}
			id = arg
		}
	}
	if showReport && id == "" {
		out.ErrorPrefix("history: --report requires a run id")
		return errors.ExitConfigError
	}
	if pruneDays >= 0 && id != "" {
		out.ErrorPrefix("history: --prune does not take a run id")
		return errors.ExitConfigError
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}
	cfg := proj.Config

	ctx := context.Background()
	store, err := openHistory(ctx, cfg)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	defer store.Close()

	if id != "" {
		return showRun(ctx, store, id, showReport)
	}
	if pruneDays >= 0 {
		cutoff := time.Now().AddDate(0, 0, -pruneDays)
		n, err := store.Prune(ctx, cutoff)
		if err != nil {
			out.ErrorPrefix("history: %v", err)
			return errors.ExitFailure
		}
		out.Success("Removed %d runs started before %s", n, cutoff.Format("2006-01-02 15:04"))
		return 0
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		out.ErrorPrefix("history: %v", err)
		return errors.ExitFailure
	}
	if len(runs) == 0 {
		out.Info("No recorded runs.")
		if cfg.History.Backend != "sqlite" {
			out.Hint("The memory history backend keeps runs only while wavecheck is running; set history.backend to sqlite to keep them.")
		}
		return 0
	}

	rows := make([][]string, 0, len(runs))
	for _, rec := range runs {
		result := "passed"
		if !rec.Passed {
			result = "FAILED"
		}
		rows = append(rows, []string{
			rec.ID,
			rec.Scenario,
			result,
			rec.Started.Format("2006-01-02 15:04:05"),
			runner.FormatDuration(rec.Duration()),
		})
	}
	out.Table([]string{"Run", "Scenario", "Result", "Started", "Duration"}, rows)
	return 0
}

func showRun(ctx context.Context, store history.Store, id string, showReport bool) int {
	rec, ok, err := store.GetRun(ctx, id)
	if err != nil {
		out.ErrorPrefix("history: %v", err)
		return errors.ExitFailure
	}
	if !ok {
		out.ErrorPrefix("%v", errors.NotFound("run", id))
		return errors.ExitFailure
	}

	if showReport {
		step, failed := rec.FailedStep()
		if !failed {
			out.ErrorPrefix("history: run %s passed, no chart was kept", id)
			return errors.ExitFailure
		}
		if err := history.WriteReport(os.Stdout, step); err != nil {
			out.ErrorPrefix("history: %v", err)
			return errors.ExitFailure
		}
		return 0
	}

	out.SummaryHeader(rec.Scenario)
	out.SummaryItem("Run", rec.ID)
	out.SummaryItem("Engine type", strconv.Itoa(rec.EngineType))
	if rec.Source != "" {
		out.SummaryItem("Source", rec.Source)
	}
	out.SummaryItem("Started", rec.Started.Format("2006-01-02 15:04:05"))
	out.SummaryItem("Duration", runner.FormatDuration(rec.Duration()))
	out.Println("")
	out.SummarySectionLabel("Steps:")
	for _, st := range rec.Steps {
		out.SummaryAction(st.Step, st.Passed, runner.FormatDuration(st.Elapsed), st.Failure)
	}
	if rec.Passed {
		out.FinalSuccess("Run passed.")
	} else {
		out.FinalFailure("Run failed: %s", rec.Failure)
		if step, ok := rec.FailedStep(); ok && step.Report != "" {
			out.Hint("chart of the failing step: wavecheck history %s --report", rec.ID)
		}
	}
	return 0
}

func printRunUsage() {
	w := output.New()

	w.HelpTitle("wavecheck run - run scenarios against the simulator")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck run [scenario...] [flags]")

	w.HelpSection("Description:")
	w.Println("  Launches (or connects to) the simulator and runs each scenario in turn:")
	w.Println("  engine type selection, self stimulation, then the scenario steps.")
	w.Println("  The first failing step aborts its scenario.")

	w.HelpSection("Arguments:")
	w.HelpFlag("[scenario...]", "Scenario names (case-insensitive); all when omitted", helpFlagWidth)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	title := cases.Title(language.English)
	w.HelpExample("wavecheck run", title.String("run the whole suite"))
	w.HelpExample("wavecheck run \"2003 Dodge Neon\"", title.String("run one scenario"))
	w.HelpExample("wavecheck run --continue --log-level=debug", title.String("run everything, log every poll"))
	w.Println("")
}

func printValidateUsage() {
	w := output.New()

	w.HelpTitle("wavecheck validate - validate configuration and scenario files")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck validate [file...]")

	w.HelpSection("Description:")
	w.Println("  Files ending in .json are checked as configuration, anything else as a")
	w.Println("  scenario. Without files, validates the project configuration and suite.")
	w.Println("")
}

func printConfigUsage() {
	w := output.New()

	w.HelpTitle("wavecheck config - configuration utilities")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck config <subcommand>")

	w.HelpSection("Subcommands:")
	w.HelpSubCommand("validate", "Validate project configuration and scenarios", 10)
	w.Println("")
}

func printChannelsUsage() {
	w := output.New()

	w.HelpTitle("wavecheck channels - list known output channels")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck channels")
	w.Println("")
}

func printScenariosUsage() {
	w := output.New()

	w.HelpTitle("wavecheck scenarios - list the scenario suite")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck scenarios")

	w.HelpSection("Description:")
	w.Println("  Lists scenarios from scenarios.directory, or the built-in suite.")
	w.Println("")
}

func printCompareUsage() {
	w := output.New()

	w.HelpTitle("wavecheck compare - check a saved chart against a scenario")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck compare <report-file> <scenario-file> [--capture=<label|n>]")

	w.HelpSection("Options:")
	w.HelpFlag("--capture=<label|n>", "Capture step by label or 1-based index (default: first)", helpFlagWidth)

	w.HelpSection("Examples:")
	w.HelpExample("wavecheck history <run-id> --report > chart.txt", "Save the chart of a failed run")
	w.HelpExample("wavecheck compare chart.txt scenarios/05-mazda-626.yaml --capture=2", "Re-check it against the second capture")
	w.Println("")
}

func printHistoryUsage() {
	w := output.New()

	w.HelpTitle("wavecheck history - show recorded runs")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck history [--limit=<n>]")
	w.HelpUsage("wavecheck history <run-id> [--report]")
	w.HelpUsage("wavecheck history --prune=<days>")

	w.HelpSection("Options:")
	w.HelpFlag("--limit=<n>", "Number of runs to list, 0 for all (default: 20)", 14)
	w.HelpFlag("--report", "Print the chart captured by the failing step", 14)
	w.HelpFlag("--prune=<days>", "Delete runs older than the given number of days", 14)
	w.Println("")
}
