package cli

import (
	"context"
	"log/slog"

	"github.com/efisim/wavecheck/internal/config"
	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/log"
	"github.com/efisim/wavecheck/internal/sim"
)

// openSession connects to the simulator named by the flags or the
// configuration. An address wins over a command.
func openSession(ctx context.Context, cfg *config.Config, opts *GlobalOptions, logger *log.Logger) (*sim.Conn, error) {
	simOpts := sim.Options{
		Command:        cfg.Simulator.Command,
		Args:           cfg.Simulator.Args,
		Dir:            cfg.Simulator.Dir,
		StartupTimeout: cfg.Simulator.StartupTimeout(),
		Logger:         logger,
	}
	addr := cfg.Simulator.Addr

	switch {
	case opts.Addr != "":
		addr = opts.Addr
	case opts.Sim != "":
		addr = ""
		simOpts.Command = opts.Sim
		simOpts.Args = nil
	}

	if addr != "" {
		logger.Info("connecting to simulator", slog.String("addr", addr))
		return sim.Dial(ctx, addr, simOpts)
	}
	if simOpts.Command == "" {
		return nil, errors.Environment("no simulator configured: set simulator.command or simulator.addr, or pass --sim/--addr")
	}
	logger.Info("launching simulator", slog.String("command", simOpts.Command))
	return sim.Launch(ctx, simOpts)
}
