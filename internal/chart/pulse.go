package chart

import (
	"math"

	"github.com/efisim/wavecheck/internal/channel"
)

// Pulse is a rising edge and the falling edge that ends it.
type Pulse struct {
	Rise float64
	Fall float64
	open bool
}

// Open reports whether one side of the pulse was not captured.
func (p Pulse) Open() bool {
	return p.open
}

// Width returns the pulse width in degrees, or NaN for an open pulse.
func (p Pulse) Width() float64 {
	if p.open {
		return math.NaN()
	}
	return p.Fall - p.Rise
}

// Duty returns width / period.
func (p Pulse) Duty(period float64) float64 {
	return p.Width() / period
}

// Pulses returns one pulse per edge of the anchor kind, in capture order.
//
// A pulse that straddles the window boundary is closed across the cycle: the
// leading falling edge belongs to the trailing rising edge one cycle later.
// When that would not give a positive width the pulse is reported open.
func (c *Chart) Pulses(id channel.ID, anchor EdgeKind) []Pulse {
	edges := c.edges[id]
	n := len(edges)
	var pulses []Pulse

	for i, e := range edges {
		if e.Kind != anchor {
			continue
		}
		switch anchor {
		case Rising:
			p := Pulse{Rise: e.Deg}
			switch {
			case i+1 < n:
				p.Fall = edges[i+1].Deg
			case i != 0 && edges[0].Kind == Falling && edges[0].Deg+c.cycle > e.Deg:
				p.Fall = edges[0].Deg + c.cycle
			default:
				p.open = true
			}
			pulses = append(pulses, p)
		case Falling:
			p := Pulse{Fall: e.Deg}
			switch {
			case i > 0:
				p.Rise = edges[i-1].Deg
			case n-1 != i && edges[n-1].Kind == Rising && edges[n-1].Deg-c.cycle < e.Deg:
				p.Rise = edges[n-1].Deg - c.cycle
			default:
				p.open = true
			}
			pulses = append(pulses, p)
		}
	}
	return pulses
}
