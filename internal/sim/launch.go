package sim

import (
	"context"
	stderrors "errors"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/log"
)

// DefaultStartupTimeout bounds how long Launch and Dial wait for the first
// line of simulator output.
const DefaultStartupTimeout = 10 * time.Second

// Options describes how to reach the simulator.
type Options struct {
	Command        string
	Args           []string
	Dir            string
	StartupTimeout time.Duration
	Logger         *log.Logger
}

func (o Options) startupTimeout() time.Duration {
	if o.StartupTimeout > 0 {
		return o.StartupTimeout
	}
	return DefaultStartupTimeout
}

// Launch starts the simulator process and connects to its stdin and stdout.
// The process is killed when ctx is cancelled or the connection is closed.
func Launch(ctx context.Context, opts Options) (*Conn, error) {
	if opts.Command == "" {
		return nil, errors.Environment("no simulator command configured")
	}

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "simulator stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "simulator stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "start simulator "+opts.Command)
	}
	opts.Logger.Info("simulator started", "command", opts.Command, "pid", cmd.Process.Pid)

	closer := func() error {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		return nil
	}
	c := NewConn(stdout, stdin, closer, opts.Logger)
	c.eg.Go(func() error {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			// Killed on close; the exit status carries no information.
			opts.Logger.Debug("simulator exited", "status", exitErr.String())
			return nil
		}
		return err
	})

	if err := waitReady(ctx, c, opts); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Dial connects to a simulator listening on a TCP address.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	var d net.Dialer
	dctx, cancel := context.WithTimeout(ctx, opts.startupTimeout())
	defer cancel()
	nc, err := d.DialContext(dctx, "tcp", addr)
	if err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "connect to simulator at "+addr)
	}
	opts.Logger.Info("connected to simulator", "addr", addr)

	c := NewConn(nc, nc, nc.Close, opts.Logger)
	if err := waitReady(ctx, c, opts); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func waitReady(ctx context.Context, c *Conn, opts Options) error {
	rctx, cancel := context.WithTimeout(ctx, opts.startupTimeout())
	defer cancel()
	return c.WaitReady(rctx)
}
