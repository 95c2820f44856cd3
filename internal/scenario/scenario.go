// Package scenario loads declarative test scenarios.
//
// A scenario selects an engine type, then runs an ordered list of steps:
// plain and complex commands, RPM changes, sensor waits and chart captures.
// Each capture declares the expected waveform of one or more channels.
package scenario

import (
	"fmt"
	"strings"

	"github.com/efisim/wavecheck/internal/wave"
)

// Scenario is one declarative test sequence.
type Scenario struct {
	Name        string
	Description string
	EngineType  int
	Steps       []Step

	// Source is the file or embedded path the scenario was read from.
	Source string
}

// StepKind identifies the action of a step.
type StepKind int

const (
	StepSend StepKind = iota
	StepComplex
	StepRPM
	StepSensor
	StepCapture
)

var stepNames = [...]string{
	StepSend:    "send",
	StepComplex: "complex",
	StepRPM:     "rpm",
	StepSensor:  "sensor",
	StepCapture: "capture",
}

func (k StepKind) String() string {
	if int(k) >= 0 && int(k) < len(stepNames) {
		return stepNames[k]
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step is a single action. Only the fields of its Kind are set.
type Step struct {
	Kind    StepKind
	Command string   // StepSend, StepComplex
	RPM     int      // StepRPM
	Sensor  Sensor   // StepSensor
	Capture *Capture // StepCapture

	// Line is the 1-based line in the source document, 0 when unknown.
	Line int
}

// Sensor waits until a sensor reads close to Want.
type Sensor struct {
	Name  string
	Want  float64
	Ratio float64
}

// DefaultSensorRatio is the relative tolerance of sensor waits that do not
// declare one.
const DefaultSensorRatio = 0.05

// Capture grabs the next chart and evaluates Checks against it.
type Capture struct {
	Label string
	// Skip discards this many charts first. Some settings only show up in
	// the chart after the one in flight when they were applied.
	Skip   int
	Checks []wave.Check
}

// String describes the step for logs and reports.
func (s Step) String() string {
	switch s.Kind {
	case StepSend, StepComplex:
		return fmt.Sprintf("%s %q", s.Kind, s.Command)
	case StepRPM:
		return fmt.Sprintf("rpm %d", s.RPM)
	case StepSensor:
		return fmt.Sprintf("sensor %s = %g", s.Sensor.Name, s.Sensor.Want)
	case StepCapture:
		if s.Capture == nil {
			return "capture"
		}
		return fmt.Sprintf("capture %q (%d checks)", s.Capture.Label, len(s.Capture.Checks))
	default:
		return s.Kind.String()
	}
}

// Captures returns the number of capture steps.
func (sc *Scenario) Captures() int {
	n := 0
	for _, st := range sc.Steps {
		if st.Kind == StepCapture {
			n++
		}
	}
	return n
}

// Find returns the scenario whose name matches (case-insensitive).
func Find(list []*Scenario, name string) (*Scenario, bool) {
	for _, sc := range list {
		if strings.EqualFold(sc.Name, name) {
			return sc, true
		}
	}
	return nil, false
}
