// Package sim talks to a running engine simulator over its line protocol.
//
// Outbound traffic is one command per line. Inbound lines are chart reports,
// command echoes and sensor readings; a single reader goroutine parses them
// and publishes the latest of each under a mutex.
package sim

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/log"
)

// Inbound line prefixes.
const (
	chartPrefix        = "chart,"
	confirmationPrefix = "confirmation_"
	sensorPrefix       = "sensor,"
)

// maxLineSize bounds a single inbound line. Chart reports for a full cycle of
// every channel stay well below it.
const maxLineSize = 1 << 20

// ErrClosed is returned by operations on a connection whose reader has stopped.
var ErrClosed = stderrors.New("simulator connection closed")

// Conn is a simulator connection.
type Conn struct {
	w      io.Writer
	wmu    sync.Mutex
	closer func() error
	logger *log.Logger

	eg *errgroup.Group

	mu       sync.Mutex
	changed  chan struct{} // closed and replaced on every update
	done     bool
	readErr  error
	lines    uint64
	echo     string
	echoSeq  uint64
	sensors  map[string]float64
	chart    string
	chartSeq uint64
}

// NewConn starts reading r and writes commands to w. closer, if non-nil, is
// called by Close.
func NewConn(r io.Reader, w io.Writer, closer func() error, logger *log.Logger) *Conn {
	c := &Conn{
		w:       w,
		closer:  closer,
		logger:  logger,
		eg:      &errgroup.Group{},
		changed: make(chan struct{}),
		sensors: make(map[string]float64),
	}
	c.eg.Go(func() error { return c.readLoop(r) })
	return c
}

func (c *Conn) readLoop(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		c.handleLine(sc.Text())
	}
	err := sc.Err()

	c.mu.Lock()
	c.done = true
	c.readErr = err
	c.broadcastLocked()
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("read simulator output: %w", err)
	}
	return nil
}

func (c *Conn) handleLine(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines++

	switch {
	case strings.HasPrefix(line, chartPrefix):
		c.chart = line
		c.chartSeq++
	case strings.HasPrefix(line, confirmationPrefix):
		text, ok := parseConfirmation(line)
		if !ok {
			c.logger.Debug("malformed confirmation", slog.String("line", line))
			return
		}
		c.echo = text
		c.echoSeq++
	case strings.HasPrefix(line, sensorPrefix):
		name, v, ok := parseSensor(line)
		if !ok {
			c.logger.Debug("malformed sensor line", slog.String("line", line))
			return
		}
		c.sensors[name] = v
	default:
		c.logger.Debug("ignoring simulator output", slog.String("line", line))
	}
	c.broadcastLocked()
}

func (c *Conn) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// parseConfirmation extracts the command from "confirmation_<command>:<n>".
func parseConfirmation(line string) (string, bool) {
	body := strings.TrimPrefix(line, confirmationPrefix)
	i := strings.LastIndexByte(body, ':')
	if i < 0 {
		return "", false
	}
	if _, err := strconv.Atoi(body[i+1:]); err != nil {
		return "", false
	}
	return strings.TrimSpace(body[:i]), true
}

// parseSensor splits "sensor,<name>,<value>".
func parseSensor(line string) (string, float64, bool) {
	parts := strings.Split(strings.TrimPrefix(line, sensorPrefix), ",")
	if len(parts) < 2 {
		return "", 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return "", 0, false
	}
	return strings.ToLower(strings.TrimSpace(parts[0])), v, true
}

// Send writes one command line.
func (c *Conn) Send(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done {
		return ErrClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := io.WriteString(c.w, line+"\n"); err != nil {
		return fmt.Errorf("write %q: %w", line, err)
	}
	c.logger.Debug("sent", slog.String("command", line))
	return nil
}

// LastEcho returns the most recently echoed command and its sequence number.
func (c *Conn) LastEcho() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.echo, c.echoSeq
}

// Sensor returns the latest reading of the named sensor.
func (c *Conn) Sensor(name string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.sensors[strings.ToLower(name)]
	return v, ok
}

// NextChart waits for a chart report that arrives after the call and returns
// its raw text.
func (c *Conn) NextChart(ctx context.Context) (string, error) {
	c.mu.Lock()
	start := c.chartSeq
	c.mu.Unlock()

	return c.waitFor(ctx, func() (string, bool) {
		if c.chartSeq > start {
			return c.chart, true
		}
		return "", false
	})
}

// WaitReady waits until the simulator has produced any output.
func (c *Conn) WaitReady(ctx context.Context) error {
	_, err := c.waitFor(ctx, func() (string, bool) {
		return "", c.lines > 0
	})
	if err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, "simulator did not start")
	}
	return nil
}

// waitFor blocks until cond, evaluated under the lock, reports true.
func (c *Conn) waitFor(ctx context.Context, cond func() (string, bool)) (string, error) {
	for {
		c.mu.Lock()
		if s, ok := cond(); ok {
			c.mu.Unlock()
			return s, nil
		}
		if c.done {
			err := c.readErr
			c.mu.Unlock()
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrClosed, err)
			}
			return "", ErrClosed
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-changed:
		}
	}
}

// Close releases the underlying transport and waits for background work.
func (c *Conn) Close() error {
	var err error
	if c.closer != nil {
		err = c.closer()
	}
	if werr := c.eg.Wait(); werr != nil && !isClosedErr(werr) {
		err = stderrors.Join(err, werr)
	}
	return err
}

func isClosedErr(err error) bool {
	return stderrors.Is(err, io.ErrClosedPipe) || stderrors.Is(err, io.EOF) ||
		strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "file already closed")
}
