// Package wave compares captured engine charts against expected pulse
// trains.
//
// Expected positions are compared by index against the observed edges, in
// capture order, with no search for a best match and no modular
// normalization: callers unwrap positions themselves (x, x+180, x+360, ...).
// A count mismatch fails immediately because partial matches on a cyclic
// signal are ambiguous.
package wave

import (
	"fmt"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/chart"
	"github.com/efisim/wavecheck/internal/errors"
)

// Model is the expected shape of one channel.
type Model struct {
	Duty              float64        // pulse width / chart period
	WidthTolerance    float64        // relative, see IsCloseEnough
	PositionTolerance float64        // absolute degrees
	Positions         []float64      // unwrapped, in emission order
	Anchor            chart.EdgeKind // which edge Positions refer to
}

// AssertWave checks rising edge positions and duty ratio with the default tolerances.
func AssertWave(label string, c *chart.Chart, ch channel.ID, duty float64, positions ...float64) error {
	return AssertWaveWithin(label, c, ch, duty, DefaultWidthTolerance, DefaultPositionTolerance, positions...)
}

// AssertWaveWithin is AssertWave with explicit width-ratio and position tolerances.
func AssertWaveWithin(label string, c *chart.Chart, ch channel.ID, duty, widthTol, positionTol float64, positions ...float64) error {
	return Match(label, c, ch, Model{
		Duty:              duty,
		WidthTolerance:    widthTol,
		PositionTolerance: positionTol,
		Positions:         positions,
		Anchor:            chart.Rising,
	})
}

// AssertWaveFall checks that a pulse of the given duty ratio ends near each
// position. Rising edge timing is not checked.
func AssertWaveFall(label string, c *chart.Chart, ch channel.ID, duty float64, positions ...float64) error {
	return AssertWaveFallWithin(label, c, ch, duty, DefaultWidthTolerance, DefaultPositionTolerance, positions...)
}

// AssertWaveFallWithin is AssertWaveFall with explicit tolerances.
func AssertWaveFallWithin(label string, c *chart.Chart, ch channel.ID, duty, widthTol, positionTol float64, positions ...float64) error {
	return Match(label, c, ch, Model{
		Duty:              duty,
		WidthTolerance:    widthTol,
		PositionTolerance: positionTol,
		Positions:         positions,
		Anchor:            chart.Falling,
	})
}

// AssertWaveNull checks that the channel has no edges at all.
func AssertWaveNull(label string, c *chart.Chart, ch channel.ID) error {
	if n := c.EdgeCount(ch); n > 0 {
		return errors.Mismatch(errors.KindChannelPresent, label, string(ch),
			"channel should be silent", "no edges", fmt.Sprintf("%d edges", n))
	}
	return nil
}

// AssertWavePresent checks that the channel has at least one edge.
func AssertWavePresent(label string, c *chart.Chart, ch channel.ID) error {
	if !c.Has(ch) {
		return errors.Mismatch(errors.KindChannelAbsent, label, string(ch),
			"no activity on channel", "at least one edge", "none")
	}
	return nil
}

// Match checks one channel of c against m.
func Match(label string, c *chart.Chart, ch channel.ID, m Model) error {
	id := string(ch)
	if !c.Has(ch) {
		if len(m.Positions) == 0 {
			return nil
		}
		return errors.Mismatch(errors.KindChannelAbsent, label, id,
			"no activity on channel", fmt.Sprintf("%d %s edges", len(m.Positions), m.Anchor), "none")
	}

	observed := c.Positions(ch, m.Anchor)
	if len(observed) != len(m.Positions) {
		return errors.Mismatch(errors.KindEdgeCountMismatch, label, id,
			fmt.Sprintf("%s edge count", m.Anchor),
			fmt.Sprintf("%d at %s", len(m.Positions), degrees(m.Positions)),
			fmt.Sprintf("%d at %s", len(observed), degrees(observed)))
	}

	for i, want := range m.Positions {
		if !WithinDegrees(want, observed[i], m.PositionTolerance) {
			return errors.Mismatch(errors.KindPositionOutOfTolerance, label, id,
				fmt.Sprintf("%s edge #%d off by more than %.6g deg", m.Anchor, i, m.PositionTolerance),
				fmt.Sprintf("%.6g", want), fmt.Sprintf("%.6g", observed[i]))
		}
	}

	period := c.Period()
	for i, p := range c.Pulses(ch, m.Anchor) {
		if p.Open() {
			return errors.Mismatch(errors.KindWidthRatioOutOfTolerance, label, id,
				fmt.Sprintf("pulse #%d is not closed within the capture", i),
				fmt.Sprintf("duty %.6g", m.Duty), "open pulse")
		}
		duty := p.Duty(period)
		if !IsCloseEnough(duty, m.Duty, m.WidthTolerance) {
			return errors.Mismatch(errors.KindWidthRatioOutOfTolerance, label, id,
				fmt.Sprintf("pulse #%d duty ratio outside %.6g relative tolerance", i, m.WidthTolerance),
				fmt.Sprintf("%.6g", m.Duty), fmt.Sprintf("%.6g", duty))
		}
	}
	return nil
}

func degrees(values []float64) string {
	if len(values) == 0 {
		return "[]"
	}
	s := "["
	for i, v := range values {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.6g", v)
	}
	return s + "]"
}
