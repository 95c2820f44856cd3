package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/efisim/wavecheck/internal/channel"
)

func mustBuild(t *testing.T, edges ...Edge) *Chart {
	t.Helper()
	b := NewBuilder()
	for _, e := range edges {
		if err := b.Add(e); err != nil {
			t.Fatalf("Add(%+v) error = %v", e, err)
		}
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return c
}

func up(id channel.ID, deg float64) Edge   { return Edge{Channel: id, Kind: Rising, Deg: deg} }
func down(id channel.ID, deg float64) Edge { return Edge{Channel: id, Kind: Falling, Deg: deg} }

func TestChart_Get(t *testing.T) {
	t.Parallel()
	c := mustBuild(t,
		up(channel.Spark1, 100), down(channel.Spark1, 170),
		up(channel.Spark1, 280), down(channel.Spark1, 350),
	)

	edges, ok := c.Get(channel.Spark1)
	if !ok || len(edges) != 4 {
		t.Fatalf("Get(spark1) = %v, %v; want 4 edges", edges, ok)
	}

	// Mutating the returned slice must not leak into the chart.
	edges[0].Deg = -1
	again, _ := c.Get(channel.Spark1)
	if again[0].Deg != 100 {
		t.Errorf("chart was mutated through Get: first edge at %g", again[0].Deg)
	}

	if _, ok := c.Get(channel.Spark2); ok {
		t.Error("Get(spark2) should report no activity")
	}
	if c.Has(channel.Spark2) {
		t.Error("Has(spark2) = true")
	}
	if got := c.Rising(channel.Spark1); len(got) != 2 || got[1] != 280 {
		t.Errorf("Rising() = %v", got)
	}
	if got := c.Falling(channel.Spark1); len(got) != 2 || got[0] != 170 {
		t.Errorf("Falling() = %v", got)
	}
}

func TestChart_Defaults(t *testing.T) {
	t.Parallel()
	c := mustBuild(t, up(channel.Spark1, 10), down(channel.Spark1, 20))

	if c.Cycle() != DefaultCycle {
		t.Errorf("Cycle() = %g, want %g", c.Cycle(), DefaultCycle)
	}
	if c.Period() != DefaultPeriod {
		t.Errorf("Period() = %g, want %g", c.Period(), DefaultPeriod)
	}
	if w := c.Window(); w.Start != 0 || w.End != DefaultCycle {
		t.Errorf("Window() = %v, want [0, 720]", w)
	}
}

func TestChart_WindowWidensToEdges(t *testing.T) {
	t.Parallel()
	// Captures can run past one cycle (x + 540 with x > 180).
	c := mustBuild(t, up(channel.Spark1, 852), down(channel.Spark1, 900))
	if w := c.Window(); w.End != 900 {
		t.Errorf("Window().End = %g, want 900", w.End)
	}
}

func TestChart_Channels(t *testing.T) {
	t.Parallel()
	c := mustBuild(t,
		up(channel.Spark3, 1), down(channel.Spark3, 2),
		up(channel.Injector1, 1),
		up(channel.Spark1, 3),
	)
	got := c.Channels()
	want := []channel.ID{channel.Injector1, channel.Spark1, channel.Spark3}
	if len(got) != len(want) {
		t.Fatalf("Channels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Channels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuilder_Invariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		edges   []Edge
		wantErr string
	}{
		{
			name:    "two rising edges",
			edges:   []Edge{up(channel.Spark1, 10), up(channel.Spark1, 20)},
			wantErr: "two consecutive rising edges",
		},
		{
			name:    "two falling edges",
			edges:   []Edge{down(channel.Spark1, 10), down(channel.Spark1, 20)},
			wantErr: "two consecutive falling edges",
		},
		{
			name:    "time goes back",
			edges:   []Edge{up(channel.Spark1, 30), down(channel.Spark1, 20)},
			wantErr: "precedes previous edge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			var err error
			for _, e := range tt.edges {
				if err = b.Add(e); err != nil {
					break
				}
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_EqualTimestampsAllowed(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	if err := b.Add(up(channel.Spark1, 10)); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(down(channel.Spark1, 10)); err != nil {
		t.Errorf("non-decreasing timestamps should be accepted: %v", err)
	}
}

func TestBuilder_WindowRejectsOutsideEdges(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	if err := b.SetWindow(0, 360); err != nil {
		t.Fatal(err)
	}
	_ = b.Add(up(channel.Spark1, 100))
	_ = b.Add(down(channel.Spark1, 400))

	if _, err := b.Build(); err == nil || !strings.Contains(err.Error(), "outside window") {
		t.Errorf("Build() error = %v, want outside window", err)
	}
}

func TestBuilder_BadGeometry(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	if err := b.SetWindow(10, 5); err == nil {
		t.Error("SetWindow(10, 5) should fail")
	}
	if err := b.SetCycle(0); err == nil {
		t.Error("SetCycle(0) should fail")
	}
	if err := b.SetPeriod(-1); err == nil {
		t.Error("SetPeriod(-1) should fail")
	}
}

func TestBuilder_ResetsAfterBuild(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	_ = b.Add(up(channel.Spark1, 1))
	first, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	_ = b.Add(up(channel.Spark2, 1))
	if _, err := b.Build(); err != nil {
		t.Fatal(err)
	}
	if first.Has(channel.Spark2) {
		t.Error("first chart changed after the builder was reused")
	}
}

func TestChart_Pulses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		edges  []Edge
		anchor EdgeKind
		want   []Pulse
	}{
		{
			name:   "closed pulses by rise",
			edges:  []Edge{up(channel.Spark1, 100), down(channel.Spark1, 170), up(channel.Spark1, 280), down(channel.Spark1, 350)},
			anchor: Rising,
			want:   []Pulse{{Rise: 100, Fall: 170}, {Rise: 280, Fall: 350}},
		},
		{
			name:   "closed pulses by fall",
			edges:  []Edge{up(channel.Spark1, 100), down(channel.Spark1, 170)},
			anchor: Falling,
			want:   []Pulse{{Rise: 100, Fall: 170}},
		},
		{
			name:   "trailing rise wraps to leading fall",
			edges:  []Edge{down(channel.Injector1, 20), up(channel.Injector1, 700)},
			anchor: Rising,
			want:   []Pulse{{Rise: 700, Fall: 740}},
		},
		{
			name:   "leading fall wraps to trailing rise",
			edges:  []Edge{down(channel.Injector1, 20), up(channel.Injector1, 700)},
			anchor: Falling,
			want:   []Pulse{{Rise: -20, Fall: 20}},
		},
		{
			name:   "unpaired rise is open",
			edges:  []Edge{up(channel.Spark1, 100)},
			anchor: Rising,
			want:   []Pulse{{Rise: 100, open: true}},
		},
		{
			name:   "wrap with non-positive width is open",
			edges:  []Edge{down(channel.Spark1, 10), up(channel.Spark1, 800)},
			anchor: Rising,
			want:   []Pulse{{Rise: 800, open: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBuild(t, tt.edges...)
			got := c.Pulses(tt.edges[0].Channel, tt.anchor)
			if len(got) != len(tt.want) {
				t.Fatalf("Pulses() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Pulses()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChart_PulsesWrapByCycleNotWindow(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	if err := b.SetWindow(0, 360); err != nil {
		t.Fatal(err)
	}
	_ = b.Add(down(channel.Injector1, 20))
	_ = b.Add(up(channel.Injector1, 340))
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	rise := c.Pulses(channel.Injector1, Rising)
	if len(rise) != 1 || rise[0] != (Pulse{Rise: 340, Fall: 740}) {
		t.Errorf("Pulses(Rising) = %+v, want fall shifted by the 720 degree cycle", rise)
	}
	fall := c.Pulses(channel.Injector1, Falling)
	if len(fall) != 1 || fall[0] != (Pulse{Rise: -380, Fall: 20}) {
		t.Errorf("Pulses(Falling) = %+v, want rise shifted by the 720 degree cycle", fall)
	}
}

func TestPulse_Duty(t *testing.T) {
	t.Parallel()
	p := Pulse{Rise: 100, Fall: 170}
	if got := p.Duty(360); math.Abs(got-70.0/360) > 1e-12 {
		t.Errorf("Duty(360) = %g", got)
	}
	open := Pulse{Rise: 100, open: true}
	if !math.IsNaN(open.Width()) {
		t.Errorf("open pulse Width() = %g, want NaN", open.Width())
	}
}
