package scenario

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/schema"
	"github.com/efisim/wavecheck/internal/wave"
)

// document mirrors the YAML layout.
type document struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	EngineType  *int      `yaml:"engine_type"`
	Steps       []rawStep `yaml:"steps"`
}

type rawStep struct {
	Send    *string     `yaml:"send"`
	Complex *string     `yaml:"complex"`
	RPM     *int        `yaml:"rpm"`
	Sensor  *rawSensor  `yaml:"sensor"`
	Capture *rawCapture `yaml:"capture"`

	line int
}

func (s *rawStep) UnmarshalYAML(value *yaml.Node) error {
	type plain rawStep
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = value.Line
	return nil
}

type rawSensor struct {
	Name  string   `yaml:"name"`
	Want  float64  `yaml:"want"`
	Ratio *float64 `yaml:"ratio"`
}

type rawCapture struct {
	Label  string     `yaml:"label"`
	Skip   int        `yaml:"skip"`
	Checks []rawCheck `yaml:"checks"`
}

type rawCheck struct {
	Channel string `yaml:"channel"`
	// A node so that a bare `expect: null` is read as the null expectation
	// rather than as a missing field.
	Expect            yaml.Node `yaml:"expect"`
	Duty              *float64  `yaml:"duty"`
	WidthTolerance    *float64  `yaml:"width_tolerance"`
	PositionTolerance *float64  `yaml:"position_tolerance"`
	At                *float64  `yaml:"at"`
	Offsets           []float64 `yaml:"offsets"`
	Positions         []float64 `yaml:"positions"`
}

// Loader reads scenarios, resolving channels against a registry and filling
// in default tolerances.
type Loader struct {
	Registry          *channel.Registry
	WidthTolerance    float64
	PositionTolerance float64
}

// NewLoader creates a Loader with the built-in channels and default tolerances.
func NewLoader() *Loader {
	return &Loader{
		Registry:          channel.NewRegistry(),
		WidthTolerance:    wave.DefaultWidthTolerance,
		PositionTolerance: wave.DefaultPositionTolerance,
	}
}

// Parse parses a scenario with the default loader.
func Parse(data []byte, source string) (*Scenario, error) {
	return NewLoader().Parse(data, source)
}

// Load reads a scenario file with the default loader.
func Load(path string) (*Scenario, error) {
	return NewLoader().Load(path)
}

// LoadDir reads every scenario in dir with the default loader.
func LoadDir(dir string) ([]*Scenario, error) {
	return NewLoader().LoadDir(dir)
}

// Load reads a scenario file.
func (l *Loader) Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("scenario", path)
		}
		return nil, errors.Wrap(err, "read scenario")
	}
	return l.Parse(data, path)
}

// LoadDir reads every *.yaml and *.yml file in dir, ordered by file name.
func (l *Loader) LoadDir(dir string) ([]*Scenario, error) {
	return l.LoadFS(os.DirFS(dir), ".", dir)
}

// LoadFS reads every scenario under root in fsys, ordered by file name.
// display prefixes the Source of each scenario.
func (l *Loader) LoadFS(fsys fs.FS, root, display string) ([]*Scenario, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var list []*Scenario
	seen := make(map[string]string)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return nil, errors.Wrap(err, "read scenario")
		}
		sc, err := l.Parse(data, filepath.Join(display, name))
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(sc.Name)
		if prev, ok := seen[key]; ok {
			return nil, errors.Kindf(errors.KindValidation,
				"scenario %q defined in both %s and %s", sc.Name, prev, sc.Source)
		}
		seen[key] = sc.Source
		list = append(list, sc)
	}
	return list, nil
}

// Parse validates data against the scenario schema and converts it.
func (l *Loader) Parse(data []byte, source string) (*Scenario, error) {
	if err := schema.ValidateScenario(data); err != nil {
		return nil, errors.WrapKind(errors.KindValidation, err, source)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapKind(errors.KindValidation, err, source)
	}

	sc := &Scenario{
		Name:        strings.TrimSpace(doc.Name),
		Description: doc.Description,
		Source:      source,
	}
	if doc.EngineType != nil {
		sc.EngineType = *doc.EngineType
	}

	for i, rs := range doc.Steps {
		st, err := l.convertStep(rs)
		if err != nil {
			return nil, &errors.Error{
				Kind:     errors.KindValidation,
				Scenario: sc.Name,
				Message:  fmt.Sprintf("%s: step %d (line %d)", source, i+1, rs.line),
				Cause:    err,
			}
		}
		sc.Steps = append(sc.Steps, st)
	}
	return sc, nil
}

func (l *Loader) convertStep(rs rawStep) (Step, error) {
	st := Step{Line: rs.line}
	switch {
	case rs.Send != nil:
		st.Kind, st.Command = StepSend, strings.TrimSpace(*rs.Send)
	case rs.Complex != nil:
		st.Kind, st.Command = StepComplex, strings.TrimSpace(*rs.Complex)
	case rs.RPM != nil:
		st.Kind, st.RPM = StepRPM, *rs.RPM
	case rs.Sensor != nil:
		st.Kind = StepSensor
		st.Sensor = Sensor{Name: rs.Sensor.Name, Want: rs.Sensor.Want, Ratio: DefaultSensorRatio}
		if rs.Sensor.Ratio != nil {
			st.Sensor.Ratio = *rs.Sensor.Ratio
		}
	case rs.Capture != nil:
		c, err := l.convertCapture(rs.Capture)
		if err != nil {
			return Step{}, err
		}
		st.Kind, st.Capture = StepCapture, c
	default:
		return Step{}, fmt.Errorf("step has no action")
	}
	if (st.Kind == StepSend || st.Kind == StepComplex) && st.Command == "" {
		return Step{}, fmt.Errorf("empty command")
	}
	return st, nil
}

func (l *Loader) convertCapture(rc *rawCapture) (*Capture, error) {
	c := &Capture{Label: rc.Label, Skip: rc.Skip}
	for i, raw := range rc.Checks {
		k, err := l.convertCheck(raw)
		if err != nil {
			return nil, fmt.Errorf("capture %q check %d: %w", rc.Label, i+1, err)
		}
		c.Checks = append(c.Checks, k)
	}
	return c, nil
}

func (l *Loader) convertCheck(raw rawCheck) (wave.Check, error) {
	info, ok := l.registry().Lookup(raw.Channel)
	if !ok {
		return wave.Check{}, &errors.Error{
			Kind:    errors.KindUnknownChannel,
			Message: "unknown channel",
			Channel: raw.Channel,
		}
	}

	expect, err := parseExpect(raw.Expect)
	if err != nil {
		return wave.Check{}, err
	}
	k := wave.Check{Channel: info.ID, Expect: expect}
	if expect == wave.ExpectNull || expect == wave.ExpectPresent {
		return k, nil
	}

	if raw.Duty == nil {
		return wave.Check{}, fmt.Errorf("%s: duty is required for a %s check", info.ID, expect)
	}
	if raw.At == nil && len(raw.Offsets) > 0 {
		return wave.Check{}, fmt.Errorf("%s: offsets need at", info.ID)
	}
	positions := expandPositions(raw.At, raw.Offsets, raw.Positions)
	if len(positions) == 0 {
		return wave.Check{}, fmt.Errorf("%s: a %s check needs at or positions", info.ID, expect)
	}
	k.Model = wave.Model{
		Duty:              *raw.Duty,
		WidthTolerance:    l.WidthTolerance,
		PositionTolerance: l.PositionTolerance,
		Positions:         positions,
	}
	if raw.WidthTolerance != nil {
		k.Model.WidthTolerance = *raw.WidthTolerance
	}
	if raw.PositionTolerance != nil {
		k.Model.PositionTolerance = *raw.PositionTolerance
	}
	return k, nil
}

func (l *Loader) registry() *channel.Registry {
	if l.Registry == nil {
		l.Registry = channel.NewRegistry()
	}
	return l.Registry
}

func parseExpect(n yaml.Node) (wave.Expect, error) {
	if n.Kind == 0 {
		return wave.ExpectWave, nil
	}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return wave.ExpectNull, nil
	}
	switch e := wave.Expect(strings.ToLower(n.Value)); e {
	case wave.ExpectWave, wave.ExpectFall, wave.ExpectNull, wave.ExpectPresent:
		return e, nil
	default:
		return "", fmt.Errorf("line %d: unknown expectation %q", n.Line, n.Value)
	}
}

// expandPositions resolves the expected edge positions. Explicit positions
// win; otherwise each offset is added to at. An at without offsets is a
// single position.
func expandPositions(at *float64, offsets, positions []float64) []float64 {
	if len(positions) > 0 {
		return append([]float64(nil), positions...)
	}
	if at == nil {
		return nil
	}
	if len(offsets) == 0 {
		return []float64{*at}
	}
	out := make([]float64, len(offsets))
	for i, off := range offsets {
		out[i] = *at + off
	}
	return out
}
