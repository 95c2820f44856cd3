package command

import (
	"context"
	"fmt"

	"github.com/efisim/wavecheck/internal/wave"
)

// Confirmer reads one derived observable and reports whether the expected
// post-condition holds.
type Confirmer interface {
	Confirm(ctx context.Context) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context) (bool, error) {
	return f(ctx)
}

// EchoConfirmer is satisfied once the simulator echoes Text with a sequence
// number newer than After.
type EchoConfirmer struct {
	Source AckSource
	Text   string
	After  uint64

	last string
}

func (e *EchoConfirmer) Confirm(context.Context) (bool, error) {
	text, seq := e.Source.LastEcho()
	e.last = text
	return seq > e.After && text == e.Text, nil
}

func (e *EchoConfirmer) String() string {
	if e.last == "" {
		return "no echo"
	}
	return fmt.Sprintf("last echo %q", e.last)
}

// SensorConfirmer is satisfied once sensor Name reads within Ratio of Want
// on Settle consecutive polls.
type SensorConfirmer struct {
	Source SensorSource
	Name   string
	Want   float64
	Ratio  float64
	Settle int

	streak int
	last   float64
	seen   bool
}

func (s *SensorConfirmer) Confirm(context.Context) (bool, error) {
	v, ok := s.Source.Sensor(s.Name)
	if !ok {
		s.streak = 0
		return false, nil
	}
	s.last, s.seen = v, true
	if !wave.IsCloseEnough(v, s.Want, s.Ratio) {
		s.streak = 0
		return false, nil
	}
	s.streak++
	return s.streak >= max(s.Settle, 1), nil
}

func (s *SensorConfirmer) String() string {
	if !s.seen {
		return fmt.Sprintf("%s never reported", s.Name)
	}
	return fmt.Sprintf("%s last read %.6g", s.Name, s.last)
}

func describe(c Confirmer) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return "no confirmation"
}
