// Package command delivers configuration commands to the simulator and
// blocks until their effect is observable.
//
// The simulator runs its own tick loop, so a completed write says nothing
// about whether the command was applied. Every send is followed by polling a
// derived observable (the echoed command or a settled sensor value) until it
// confirms, or the attempt budget runs out.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/log"
)

// State is the position of a request in Sent -> Polling -> {Confirmed, Exhausted}.
type State int

const (
	Sent State = iota
	Polling
	Confirmed
	Exhausted
)

func (s State) String() string {
	switch s {
	case Sent:
		return "sent"
	case Polling:
		return "polling"
	case Confirmed:
		return "confirmed"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Budget bounds confirmation polling.
type Budget struct {
	Retries int           // maximum confirmation reads
	Timeout time.Duration // pause between reads
}

// Default budgets. Complex commands need several simulation ticks to settle.
var (
	DefaultBudget = Budget{Retries: 100, Timeout: 30 * time.Millisecond}
	ComplexBudget = Budget{Retries: 10000, Timeout: 30 * time.Millisecond}
)

// Request is one command and its confirmation budget.
type Request struct {
	Text    string
	Retries int
	Timeout time.Duration
}

// NewRequest builds a request with the given budget.
func NewRequest(text string, b Budget) Request {
	return Request{Text: text, Retries: b.Retries, Timeout: b.Timeout}
}

// Result reports how a request ended.
type Result struct {
	State    State
	Attempts int
	Elapsed  time.Duration
}

// Transport writes one command line to the simulator.
type Transport interface {
	Send(ctx context.Context, line string) error
}

// AckSource exposes the last command the simulator echoed back. Seq grows by
// one for each echo so that a repeated command is not confirmed by a stale echo.
type AckSource interface {
	LastEcho() (text string, seq uint64)
}

// SensorSource reads the latest value of a named sensor.
type SensorSource interface {
	Sensor(name string) (float64, bool)
}

// Options configures a Channel.
type Options struct {
	Default Budget
	Complex Budget
	Logger  *log.Logger

	// Sleep waits between confirmation reads. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Channel sends commands and waits for confirmation.
type Channel struct {
	transport Transport
	acks      AckSource
	sensors   SensorSource
	normal    Budget
	complex   Budget
	logger    *log.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a Channel. Zero budgets in opts fall back to the defaults.
func New(transport Transport, acks AckSource, sensors SensorSource, opts Options) *Channel {
	c := &Channel{
		transport: transport,
		acks:      acks,
		sensors:   sensors,
		normal:    opts.Default,
		complex:   opts.Complex,
		logger:    opts.Logger,
		sleep:     opts.Sleep,
	}
	if c.normal.Retries <= 0 {
		c.normal = DefaultBudget
	}
	if c.complex.Retries <= 0 {
		c.complex = ComplexBudget
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

// Send transmits req.Text once and polls confirm until it reports true.
func (c *Channel) Send(ctx context.Context, req Request, confirm Confirmer) (Result, error) {
	start := time.Now()
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{State: Sent}, errors.New("empty command")
	}

	c.logger.Debug("sending command", slog.String("command", text), slog.Int("retries", req.Retries))
	if err := c.transport.Send(ctx, text); err != nil {
		return Result{State: Sent, Elapsed: time.Since(start)},
			errors.WrapKind(errors.KindEnvironment, err, fmt.Sprintf("send %q", text))
	}

	res, err := c.poll(ctx, req, confirm)
	res.Elapsed = time.Since(start)
	if err != nil {
		c.logger.Warn("command not confirmed", slog.String("command", text),
			slog.Int("attempts", res.Attempts), slog.Duration("elapsed", res.Elapsed))
		return res, err
	}
	c.logger.Debug("command confirmed", slog.String("command", text),
		slog.Int("attempts", res.Attempts), slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Await polls confirm without sending anything.
func (c *Channel) Await(ctx context.Context, what string, b Budget, confirm Confirmer) (Result, error) {
	start := time.Now()
	res, err := c.poll(ctx, Request{Text: what, Retries: b.Retries, Timeout: b.Timeout}, confirm)
	res.Elapsed = time.Since(start)
	return res, err
}

func (c *Channel) poll(ctx context.Context, req Request, confirm Confirmer) (Result, error) {
	retries := max(req.Retries, 1)
	res := Result{State: Polling}

	for res.Attempts < retries {
		res.Attempts++
		ok, err := confirm.Confirm(ctx)
		if err != nil {
			return res, errors.Wrap(err, fmt.Sprintf("confirm %q", req.Text))
		}
		if ok {
			res.State = Confirmed
			return res, nil
		}
		if res.Attempts == retries {
			break
		}
		if err := c.sleep(ctx, req.Timeout); err != nil {
			return res, errors.Wrap(err, fmt.Sprintf("waiting for %q", req.Text))
		}
	}

	res.State = Exhausted
	return res, &errors.Error{
		Kind:     errors.KindCommandExhausted,
		Message:  fmt.Sprintf("%q not confirmed", req.Text),
		Expected: fmt.Sprintf("confirmation within %d attempts", retries),
		Actual:   describe(confirm),
	}
}

// Exec sends text with the default budget and waits for its echo.
func (c *Channel) Exec(ctx context.Context, text string) (Result, error) {
	return c.execWith(ctx, text, c.normal)
}

// ExecComplex sends text with the complex budget and waits for its echo.
func (c *Channel) ExecComplex(ctx context.Context, text string) (Result, error) {
	return c.execWith(ctx, text, c.complex)
}

func (c *Channel) execWith(ctx context.Context, text string, b Budget) (Result, error) {
	if c.acks == nil {
		return Result{State: Sent}, errors.New("no acknowledgment source configured")
	}
	_, seq := c.acks.LastEcho()
	confirm := &EchoConfirmer{Source: c.acks, Text: strings.TrimSpace(text), After: seq}
	return c.Send(ctx, NewRequest(text, b), confirm)
}

// RPMSensor is the sensor used to confirm RPM changes.
const RPMSensor = "rpm"

// rpmRatio is how close the measured RPM must get to the requested value.
const rpmRatio = 0.05

// SetRPM sends "rpm <n>" and waits until the rpm sensor reads close to n.
func (c *Channel) SetRPM(ctx context.Context, rpm int) (Result, error) {
	return c.SendSettled(ctx, fmt.Sprintf("rpm %d", rpm), RPMSensor, float64(rpm), rpmRatio, 1)
}

// SendSettled sends text with the complex budget and waits until sensor
// reads want for settle consecutive polls.
func (c *Channel) SendSettled(ctx context.Context, text, sensor string, want, ratio float64, settle int) (Result, error) {
	confirm, err := c.sensorConfirmer(sensor, want, ratio, settle)
	if err != nil {
		return Result{State: Sent}, err
	}
	return c.Send(ctx, NewRequest(text, c.complex), confirm)
}

// AwaitSensor waits, with the default budget, until sensor reads want.
func (c *Channel) AwaitSensor(ctx context.Context, sensor string, want, ratio float64) (Result, error) {
	confirm, err := c.sensorConfirmer(sensor, want, ratio, 1)
	if err != nil {
		return Result{}, err
	}
	return c.Await(ctx, "sensor "+sensor, c.normal, confirm)
}

func (c *Channel) sensorConfirmer(sensor string, want, ratio float64, settle int) (*SensorConfirmer, error) {
	if c.sensors == nil {
		return nil, errors.New("no sensor source configured")
	}
	return &SensorConfirmer{Source: c.sensors, Name: sensor, Want: want, Ratio: ratio, Settle: settle}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
