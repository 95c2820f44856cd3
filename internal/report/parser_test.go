package report

import (
	"testing"

	"github.com/efisim/wavecheck/internal/channel"
	"github.com/efisim/wavecheck/internal/chart"
	"github.com/efisim/wavecheck/internal/errors"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()
	p := NewParser(nil)

	tests := []struct {
		name     string
		input    string
		channel  channel.ID
		rising   []float64
		falling  []float64
		cycle    float64
		period   float64
		windowHi float64
	}{
		{
			name:     "bare stream",
			input:    "spark1!up!100!spark1!down!170!spark1!up!280!spark1!down!350!",
			channel:  channel.Spark1,
			rising:   []float64{100, 280},
			falling:  []float64{170, 350},
			cycle:    720,
			period:   360,
			windowHi: 720,
		},
		{
			name:     "chart wrapper",
			input:    "chart,injector2!down!53.04!injector2!up!600.5!,",
			channel:  channel.Injector2,
			rising:   []float64{600.5},
			falling:  []float64{53.04},
			cycle:    720,
			period:   360,
			windowHi: 720,
		},
		{
			name:     "headers",
			input:    "window!0!360!cycle!deg!360!period!deg!180!trigger1!u!10!trigger1!d!20!",
			channel:  channel.Trigger1,
			rising:   []float64{10},
			falling:  []float64{20},
			cycle:    360,
			period:   180,
			windowHi: 360,
		},
		{
			name:     "case insensitive channel and whitespace",
			input:    "  SPARK3!up!1.5!SPARK3!down!2.5!\n",
			channel:  channel.Spark3,
			rising:   []float64{1.5},
			falling:  []float64{2.5},
			cycle:    720,
			period:   360,
			windowHi: 720,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := p.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			assertFloats(t, "rising", c.Rising(tt.channel), tt.rising)
			assertFloats(t, "falling", c.Falling(tt.channel), tt.falling)
			if c.Cycle() != tt.cycle {
				t.Errorf("Cycle() = %g, want %g", c.Cycle(), tt.cycle)
			}
			if c.Period() != tt.period {
				t.Errorf("Period() = %g, want %g", c.Period(), tt.period)
			}
			if c.Window().End != tt.windowHi {
				t.Errorf("Window().End = %g, want %g", c.Window().End, tt.windowHi)
			}
		})
	}
}

func TestParser_EmptyReport(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "chart,,", "  "} {
		c, err := NewParser(nil).Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if len(c.Channels()) != 0 {
			t.Errorf("Parse(%q) channels = %v, want none", input, c.Channels())
		}
	}
}

func TestParser_Errors(t *testing.T) {
	t.Parallel()
	p := NewParser(nil)

	tests := []struct {
		name  string
		input string
		kind  errors.ErrorKind
	}{
		{"not triples", "spark1!up!100!spark1!down!", errors.KindMalformedReport},
		{"bad number", "spark1!up!abc!", errors.KindMalformedReport},
		{"bad edge", "spark1!sideways!10!", errors.KindMalformedReport},
		{"empty token", "spark1!!10!", errors.KindMalformedReport},
		{"not alternating", "spark1!up!10!spark1!up!20!", errors.KindMalformedReport},
		{"time goes back", "spark1!up!30!spark1!down!20!", errors.KindMalformedReport},
		{"outside window", "window!0!360!spark1!up!400!", errors.KindMalformedReport},
		{"header after edge", "spark1!up!10!cycle!deg!360!", errors.KindMalformedReport},
		{"bad header unit", "cycle!rev!2!", errors.KindMalformedReport},
		{"bad window start", "window!x!360!", errors.KindMalformedReport},
		{"inverted window", "window!360!0!", errors.KindMalformedReport},
		{"unknown channel", "coil9!up!10!", errors.KindUnknownChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.input)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("Parse() error = %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestParser_CustomRegistry(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.Register(channel.Info{ID: "vvt1", Kind: channel.KindAux})

	c, err := NewParser(reg).Parse("vvt1!up!5!vvt1!down!6!")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !c.Has("vvt1") {
		t.Error("custom channel missing from chart")
	}
}

func TestParser_WithGeometry(t *testing.T) {
	t.Parallel()
	c, err := NewParser(nil).WithGeometry(360, 0).Parse("spark1!up!5!")
	if err != nil {
		t.Fatal(err)
	}
	if c.Cycle() != 360 || c.Period() != chart.DefaultPeriod {
		t.Errorf("geometry = %g/%g, want 360/%g", c.Cycle(), c.Period(), chart.DefaultPeriod)
	}
}

func assertFloats(t *testing.T, what string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %g, want %g", what, i, got[i], want[i])
		}
	}
}
