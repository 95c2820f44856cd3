package chart

import (
	"fmt"

	"github.com/efisim/wavecheck/internal/channel"
)

// Builder accumulates edges and produces a Chart. Edges of one channel must
// alternate in kind and must not go back in time.
type Builder struct {
	window Window
	cycle  float64
	period float64
	edges  map[channel.ID][]Edge
	ranged bool
}

// NewBuilder returns a Builder with the four-stroke defaults.
func NewBuilder() *Builder {
	return &Builder{
		cycle:  DefaultCycle,
		period: DefaultPeriod,
		edges:  make(map[channel.ID][]Edge),
	}
}

// SetWindow fixes the capture window. Without it the window covers [0, cycle]
// widened to include every edge, since captures may run past one cycle.
func (b *Builder) SetWindow(start, end float64) error {
	if end < start {
		return fmt.Errorf("window end %g before start %g", end, start)
	}
	b.window = Window{Start: start, End: end}
	b.ranged = true
	return nil
}

// SetCycle sets the engine cycle length in degrees.
func (b *Builder) SetCycle(deg float64) error {
	if deg <= 0 {
		return fmt.Errorf("cycle must be positive, got %g", deg)
	}
	b.cycle = deg
	return nil
}

// SetPeriod sets the duty-ratio period in degrees.
func (b *Builder) SetPeriod(deg float64) error {
	if deg <= 0 {
		return fmt.Errorf("period must be positive, got %g", deg)
	}
	b.period = deg
	return nil
}

// Add appends an edge to its channel.
func (b *Builder) Add(e Edge) error {
	prev := b.edges[e.Channel]
	if n := len(prev); n > 0 {
		last := prev[n-1]
		if last.Kind == e.Kind {
			return fmt.Errorf("%s: two consecutive %s edges at %g and %g", e.Channel, e.Kind, last.Deg, e.Deg)
		}
		if e.Deg < last.Deg {
			return fmt.Errorf("%s: edge at %g precedes previous edge at %g", e.Channel, e.Deg, last.Deg)
		}
	}
	b.edges[e.Channel] = append(prev, e)
	return nil
}

// Build returns the chart and resets the builder. Edges outside the window
// are rejected here, once the window is final.
func (b *Builder) Build() (*Chart, error) {
	window := b.window
	if !b.ranged {
		window = b.extent()
	}
	for id, edges := range b.edges {
		for _, e := range edges {
			if !window.Contains(e.Deg) {
				return nil, fmt.Errorf("%s: %s edge at %g outside window %s", id, e.Kind, e.Deg, window)
			}
		}
	}

	c := &Chart{
		window: window,
		cycle:  b.cycle,
		period: b.period,
		edges:  b.edges,
	}
	*b = *NewBuilder()
	return c, nil
}

func (b *Builder) extent() Window {
	w := Window{Start: 0, End: b.cycle}
	for _, edges := range b.edges {
		if len(edges) == 0 {
			continue
		}
		w.Start = min(w.Start, edges[0].Deg)
		w.End = max(w.End, edges[len(edges)-1].Deg)
	}
	return w
}
