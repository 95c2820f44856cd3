// Package report parses the engine chart reports emitted by the simulator.
//
// A report is a '!'-separated stream of triples, optionally wrapped as
// "chart,<stream>,":
//
//	window!0!720!cycle!deg!720!spark1!up!100!spark1!down!170!...
//
// Header triples (window, cycle, period) must come before the first edge.
// Edge triples are <channel>!up|down!<degrees>.
package report

import (
	"strconv"
	"strings"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/chart"
	"github.com/efisim/wavecheck/internal/errors"
)

// Prefix is the line prefix the simulator uses for chart reports.
const Prefix = "chart,"

const (
	separator = "!"

	headerWindow = "window"
	headerCycle  = "cycle"
	headerPeriod = "period"
	unitDegrees  = "deg"
)

// Parser converts raw reports into charts.
type Parser struct {
	registry *channel.Registry
	cycle    float64
	period   float64
}

// NewParser creates a parser that resolves channel names through registry.
// A nil registry uses the built-in channels.
func NewParser(registry *channel.Registry) *Parser {
	if registry == nil {
		registry = channel.NewRegistry()
	}
	return &Parser{
		registry: registry,
		cycle:    chart.DefaultCycle,
		period:   chart.DefaultPeriod,
	}
}

// WithGeometry sets the cycle and period used when a report has no header
// for them. Non-positive values keep the current setting.
func (p *Parser) WithGeometry(cycle, period float64) *Parser {
	if cycle > 0 {
		p.cycle = cycle
	}
	if period > 0 {
		p.period = period
	}
	return p
}

// Parse builds a chart from raw in a single pass over its tokens.
func (p *Parser) Parse(raw string) (*chart.Chart, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}

	b := chart.NewBuilder()
	_ = b.SetCycle(p.cycle)
	_ = b.SetPeriod(p.period)

	sawEdge := false
	for i := 0; i < len(tokens); i += 3 {
		name, value, number := tokens[i], tokens[i+1], tokens[i+2]
		triple := i / 3

		deg, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return nil, malformed(triple, "invalid number %q", number)
		}

		switch name {
		case headerWindow, headerCycle, headerPeriod:
			if sawEdge {
				return nil, malformed(triple, "%s header after the first edge", name)
			}
			if err := p.applyHeader(b, name, value, deg); err != nil {
				return nil, errors.WrapKind(errors.KindMalformedReport, err, "triple "+strconv.Itoa(triple))
			}
			continue
		}

		info, ok := p.registry.Lookup(name)
		if !ok {
			return nil, &errors.Error{
				Kind:    errors.KindUnknownChannel,
				Message: "unknown channel in report",
				Channel: name,
			}
		}

		kind, ok := parseEdgeKind(value)
		if !ok {
			return nil, malformed(triple, "invalid edge %q for %s", value, name)
		}

		if err := b.Add(chart.Edge{Channel: info.ID, Kind: kind, Deg: deg}); err != nil {
			return nil, errors.WrapKind(errors.KindMalformedReport, err, "triple "+strconv.Itoa(triple))
		}
		sawEdge = true
	}

	c, err := b.Build()
	if err != nil {
		return nil, errors.WrapKind(errors.KindMalformedReport, err, "invalid report")
	}
	return c, nil
}

func (p *Parser) applyHeader(b *chart.Builder, name, value string, deg float64) error {
	if name == headerWindow {
		start, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Newf("invalid window start %q", value)
		}
		return b.SetWindow(start, deg)
	}
	if value != unitDegrees {
		return errors.Newf("%s header unit must be %q, got %q", name, unitDegrees, value)
	}
	if name == headerCycle {
		return b.SetCycle(deg)
	}
	return b.SetPeriod(deg)
}

// tokenize strips the optional chart wrapper and splits into triples.
func tokenize(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, Prefix)
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimSuffix(s, separator)
	if s == "" {
		return nil, nil
	}

	tokens := strings.Split(s, separator)
	if len(tokens)%3 != 0 {
		return nil, &errors.Error{
			Kind:    errors.KindMalformedReport,
			Message: "report does not split into channel/edge/degree triples",
			Actual:  strconv.Itoa(len(tokens)) + " tokens",
		}
	}
	for i, tok := range tokens {
		tokens[i] = strings.TrimSpace(tok)
		if tokens[i] == "" {
			return nil, malformed(i/3, "empty token")
		}
	}
	return tokens, nil
}

func parseEdgeKind(value string) (chart.EdgeKind, bool) {
	switch strings.ToLower(value) {
	case "up", "u":
		return chart.Rising, true
	case "down", "d":
		return chart.Falling, true
	default:
		return 0, false
	}
}

func malformed(triple int, format string, args ...interface{}) *errors.Error {
	err := errors.Kindf(errors.KindMalformedReport, format, args...)
	err.Message = "triple " + strconv.Itoa(triple) + ": " + err.Message
	return err
}
