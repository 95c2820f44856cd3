// Package runner executes scenarios against a live simulator, strictly one
// step after another.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/efisim/wavecheck/internal/command"
	wcerrors "github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/history"
	"github.com/efisim/wavecheck/internal/log"
	"github.com/efisim/wavecheck/internal/output"
	"github.com/efisim/wavecheck/internal/report"
	"github.com/efisim/wavecheck/internal/scenario"
	"github.com/efisim/wavecheck/internal/wave"
)

// Session is the simulator link a scenario drives. *sim.Conn implements it.
type Session interface {
	command.Transport
	command.AckSource
	command.SensorSource

	// NextChart blocks until a chart report produced after the call arrives.
	NextChart(ctx context.Context) (string, error)
}

// SelfStimulation is sent after the engine type so the simulator feeds
// itself a trigger signal.
const SelfStimulation = "enable self_stimulation"

// Options configures a Runner.
type Options struct {
	Commands command.Options
	Parser   *report.Parser // nil selects the default channel registry and geometry
	History  history.Store  // nil disables recording
	Out      *output.Writer // nil discards user output
	Logger   *log.Logger

	// Now is the clock used for history timestamps.
	Now func() time.Time
}

// RunOptions configures RunAll.
type RunOptions struct {
	// Continue keeps running the remaining scenarios after a failure.
	Continue bool
}

// Runner executes scenarios. It is not safe for concurrent use: a simulator
// accepts one command sequence at a time.
type Runner struct {
	session  Session
	commands *command.Channel
	parser   *report.Parser
	history  history.Store
	out      *output.Writer
	logger   *log.Logger
	now      func() time.Time
}

// New creates a Runner on top of session.
func New(session Session, opts Options) *Runner {
	r := &Runner{
		session: session,
		parser:  opts.Parser,
		history: opts.History,
		out:     opts.Out,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if r.parser == nil {
		r.parser = report.NewParser(nil)
	}
	if r.out == nil {
		r.out = output.NewWithWriters(io.Discard, io.Discard, false)
	}
	if r.logger == nil {
		r.logger = log.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	cmdOpts := opts.Commands
	if cmdOpts.Logger == nil {
		cmdOpts.Logger = r.logger
	}
	r.commands = command.New(session, session, session, cmdOpts)
	return r
}

// Commands exposes the command channel bound to the session.
func (r *Runner) Commands() *command.Channel {
	return r.commands
}

// Run executes one scenario: engine type selection, self stimulation, then
// every step in order. The first failing step aborts the scenario. The run is
// recorded in the history store when one is configured.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (history.Record, error) {
	rec := history.Record{
		ID:         history.NewID(),
		Scenario:   sc.Name,
		Source:     sc.Source,
		EngineType: sc.EngineType,
		Started:    r.now(),
	}
	logger := r.logger.With(slog.String("scenario", sc.Name), slog.String("run", rec.ID))
	logger.Info("scenario started", slog.Int("engine_type", sc.EngineType), slog.Int("steps", len(sc.Steps)))
	r.out.ScenarioStart(sc.Name, sc.EngineType)

	err := r.run(ctx, sc, &rec, logger)

	rec.Finished = r.now()
	rec.Passed = err == nil
	if err != nil {
		rec.Failure = err.Error()
		logger.Error("scenario failed", slog.String("error", err.Error()), slog.Duration("elapsed", rec.Duration()))
	} else {
		logger.Info("scenario passed", slog.Duration("elapsed", rec.Duration()))
	}

	if r.history != nil {
		// A lost history entry must not turn a passing scenario into a failure.
		if saveErr := r.history.SaveRun(context.WithoutCancel(ctx), rec); saveErr != nil {
			logger.Warn("failed to record run", slog.String("error", saveErr.Error()))
			r.out.Warning("failed to record run %s: %v", rec.ID, saveErr)
		}
	}
	return rec, err
}

func (r *Runner) run(ctx context.Context, sc *scenario.Scenario, rec *history.Record, logger *log.Logger) error {
	setup := []scenario.Step{
		{Kind: scenario.StepComplex, Command: fmt.Sprintf("set_engine_type %d", sc.EngineType)},
		{Kind: scenario.StepSend, Command: SelfStimulation},
	}
	steps := append(setup, sc.Steps...)

	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		sr, err := r.runStep(ctx, sc, st)
		sr.Index = i
		sr.Step = st.String()
		rec.Steps = append(rec.Steps, sr)

		if err != nil {
			r.out.StepFailed(sr.Step, err)
			logger.Debug("step failed", slog.Int("step", i), slog.String("step_text", sr.Step))
			return stepError(sc, st, err)
		}
		r.out.StepPassed(sr.Step, sr.Attempts)
	}
	return nil
}

// runStep executes one step. The returned record is filled in even on failure.
func (r *Runner) runStep(ctx context.Context, sc *scenario.Scenario, st scenario.Step) (history.StepRecord, error) {
	var (
		res command.Result
		err error
		raw string
	)
	start := time.Now()

	switch st.Kind {
	case scenario.StepSend:
		res, err = r.commands.Exec(ctx, st.Command)
	case scenario.StepComplex:
		res, err = r.commands.ExecComplex(ctx, st.Command)
	case scenario.StepRPM:
		res, err = r.commands.SetRPM(ctx, st.RPM)
	case scenario.StepSensor:
		res, err = r.commands.AwaitSensor(ctx, st.Sensor.Name, st.Sensor.Want, st.Sensor.Ratio)
	case scenario.StepCapture:
		raw, err = r.capture(ctx, sc, st.Capture)
		res.Attempts = 1
	default:
		err = wcerrors.Newf("unsupported step kind %s", st.Kind)
	}

	sr := history.StepRecord{
		Passed:   err == nil,
		Attempts: res.Attempts,
		Elapsed:  time.Since(start),
	}
	if err != nil {
		sr.Failure = err.Error()
		// Only a failing capture keeps its chart; passing ones are not worth the space.
		sr.Report = raw
	}
	return sr, err
}

// capture waits for a fresh chart, skipping cap.Skip charts first, and
// evaluates every check against it. It returns the raw report it judged.
func (r *Runner) capture(ctx context.Context, sc *scenario.Scenario, cp *scenario.Capture) (string, error) {
	if cp == nil {
		return "", wcerrors.New("capture step without checks")
	}
	label := cp.Label
	if label == "" {
		label = sc.Name
	}

	var raw string
	for i := 0; i <= cp.Skip; i++ {
		var err error
		raw, err = r.session.NextChart(ctx)
		if err != nil {
			return "", wcerrors.WrapKind(wcerrors.KindEnvironment, err, "waiting for chart")
		}
	}
	r.logger.Debug("chart captured", slog.String("label", label), slog.Int("bytes", len(raw)))

	c, err := r.parser.Parse(raw)
	if err != nil {
		return raw, err
	}
	return raw, wave.Compare(label, c, cp.Checks)
}

// stepError labels err with the scenario and step it came from. Comparator
// errors already name their capture label, so they pass through unchanged.
func stepError(sc *scenario.Scenario, st scenario.Step, err error) error {
	if st.Kind == scenario.StepCapture {
		return err
	}
	var e *wcerrors.Error
	if errors.As(err, &e) && e.Scenario == "" {
		e.Scenario = sc.Name
		return e
	}
	return fmt.Errorf("[%s] %s: %w", sc.Name, st, err)
}

// RunAll executes scenarios strictly one after another. Without
// opts.Continue it stops at the first failing scenario. An unconfirmed
// command or a lost simulator stops the run even with opts.Continue, since
// the simulator state is then unknown.
func (r *Runner) RunAll(ctx context.Context, list []*scenario.Scenario, opts RunOptions) (*SuiteResult, error) {
	result := &SuiteResult{StartTime: r.now()}
	var errs []error

	for _, sc := range list {
		// Early exit if context is canceled before starting the next scenario
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		rec, err := r.Run(ctx, sc)
		result.Results = append(result.Results, ScenarioResult{
			Name:     sc.Name,
			RunID:    rec.ID,
			Success:  err == nil,
			Error:    err,
			Duration: rec.Duration(),
		})
		if err != nil {
			errs = append(errs, err)
			if !opts.Continue || abortsSuite(err) {
				break
			}
		}
	}

	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = len(errs) == 0
	result.Skipped = len(list) - len(result.Results)
	return result, combineErrors(errs)
}

// abortsSuite reports whether err leaves the simulator in an unknown state.
func abortsSuite(err error) bool {
	return wcerrors.Is(err, wcerrors.KindCommandExhausted) || wcerrors.Is(err, wcerrors.KindEnvironment)
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
