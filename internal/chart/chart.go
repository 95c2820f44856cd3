// Package chart holds the immutable engine chart snapshot built from one
// captured report: per channel, the ordered rising and falling edges seen in
// the capture window, in crank-angle degrees.
package chart

import (
	"fmt"
	"sort"

	"github.com/efisim/wavecheck/internal/channel"
)

// Default engine geometry for a four-stroke engine.
const (
	DefaultCycle  = 720.0 // crank degrees per engine cycle
	DefaultPeriod = 360.0 // crank degrees per duty-ratio period (one revolution)
)

// EdgeKind is the direction of a transition.
type EdgeKind int

const (
	Rising EdgeKind = iota
	Falling
)

func (k EdgeKind) String() string {
	if k == Falling {
		return "falling"
	}
	return "rising"
}

// Edge is one transition of a channel.
type Edge struct {
	Channel channel.ID
	Kind    EdgeKind
	Deg     float64 // crank degrees since the start of the capture window
}

// Window is a closed interval of crank degrees.
type Window struct {
	Start float64
	End   float64
}

// Len returns the window length in degrees.
func (w Window) Len() float64 {
	return w.End - w.Start
}

// Contains reports whether deg lies within the closed interval.
func (w Window) Contains(deg float64) bool {
	return deg >= w.Start && deg <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%g, %g]", w.Start, w.End)
}

// Chart is a read-only snapshot of one capture.
type Chart struct {
	window Window
	cycle  float64
	period float64
	edges  map[channel.ID][]Edge
}

// Window returns the capture window.
func (c *Chart) Window() Window {
	return c.window
}

// Cycle returns the engine cycle length in degrees.
func (c *Chart) Cycle() float64 {
	return c.cycle
}

// Period returns the duty-ratio period in degrees.
func (c *Chart) Period() float64 {
	return c.period
}

// Get returns a copy of the edges recorded for id. A missing channel and a
// channel without edges both report false: no activity was observed.
func (c *Chart) Get(id channel.ID) ([]Edge, bool) {
	edges := c.edges[id]
	if len(edges) == 0 {
		return nil, false
	}
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out, true
}

// Has reports whether id has at least one edge.
func (c *Chart) Has(id channel.ID) bool {
	return len(c.edges[id]) > 0
}

// EdgeCount returns the number of edges recorded for id.
func (c *Chart) EdgeCount(id channel.ID) int {
	return len(c.edges[id])
}

// Channels returns the active channels in sorted order.
func (c *Chart) Channels() []channel.ID {
	ids := make([]channel.ID, 0, len(c.edges))
	for id, edges := range c.edges {
		if len(edges) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Positions returns the degrees of the edges of the given kind, in order.
func (c *Chart) Positions(id channel.ID, kind EdgeKind) []float64 {
	var out []float64
	for _, e := range c.edges[id] {
		if e.Kind == kind {
			out = append(out, e.Deg)
		}
	}
	return out
}

// Rising returns the rising edge positions of id.
func (c *Chart) Rising(id channel.ID) []float64 {
	return c.Positions(id, Rising)
}

// Falling returns the falling edge positions of id.
func (c *Chart) Falling(id channel.ID) []float64 {
	return c.Positions(id, Falling)
}
