package wave

import (
	stderrors "errors"
	"fmt"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/chart"
)

// Expect selects the assertion a Check applies.
type Expect string

const (
	ExpectWave    Expect = "wave"
	ExpectFall    Expect = "fall"
	ExpectNull    Expect = "null"
	ExpectPresent Expect = "present"
)

// Check is one declared assertion against a chart.
type Check struct {
	Channel channel.ID
	Expect  Expect
	Model   Model
}

// Eval applies the check to c.
func (k Check) Eval(label string, c *chart.Chart) error {
	switch k.Expect {
	case ExpectNull:
		return AssertWaveNull(label, c, k.Channel)
	case ExpectPresent:
		return AssertWavePresent(label, c, k.Channel)
	case ExpectFall:
		m := k.Model
		m.Anchor = chart.Falling
		return Match(label, c, k.Channel, m)
	case ExpectWave, "":
		m := k.Model
		m.Anchor = chart.Rising
		return Match(label, c, k.Channel, m)
	default:
		return fmt.Errorf("unknown expectation %q for %s", k.Expect, k.Channel)
	}
}

// Compare evaluates every check and joins the failures. Nothing is skipped
// after a failure so that one capture reports all of its mismatches.
func Compare(label string, c *chart.Chart, checks []Check) error {
	var errs []error
	for _, k := range checks {
		if err := k.Eval(label, c); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
