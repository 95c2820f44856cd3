// Package channel names the simulated digital output lines that show up in
// engine chart reports.
package channel

import (
	"fmt"
	"sort"
	"strings"
)

// ID identifies an output channel, for example "spark1" or "injector3".
type ID string

// Kind groups channels by what drives them.
type Kind string

const (
	KindSpark    Kind = "spark"
	KindInjector Kind = "injector"
	KindTrigger  Kind = "trigger"
	KindAux      Kind = "aux"
)

// MaxCylinders bounds the per-cylinder channels in the default registry.
const MaxCylinders = 12

// Well-known channels.
const (
	Spark1    ID = "spark1"
	Spark2    ID = "spark2"
	Spark3    ID = "spark3"
	Spark4    ID = "spark4"
	Injector1 ID = "injector1"
	Injector2 ID = "injector2"
	Injector3 ID = "injector3"
	Injector4 ID = "injector4"

	Trigger1     ID = "trigger1"
	Trigger2     ID = "trigger2"
	Trigger3     ID = "trigger3"
	MapAveraging ID = "map_averaging"
	MainRelay    ID = "main_relay"
	FuelPump     ID = "fuel_pump"
	Fan          ID = "fan"
	Idle         ID = "idle"
)

// Spark returns the spark channel of cylinder n (1-based).
func Spark(n int) ID {
	return ID(fmt.Sprintf("spark%d", n))
}

// Injector returns the injector channel of cylinder n (1-based).
func Injector(n int) ID {
	return ID(fmt.Sprintf("injector%d", n))
}

// Info describes a registered channel.
type Info struct {
	ID          ID
	Kind        Kind
	Description string
}

// Registry maps channel names to their descriptions.
type Registry struct {
	channels map[ID]Info
}

// NewRegistry creates a registry with all built-in channels.
func NewRegistry() *Registry {
	r := &Registry{
		channels: make(map[ID]Info),
	}

	for n := 1; n <= MaxCylinders; n++ {
		r.Register(Info{ID: Spark(n), Kind: KindSpark, Description: fmt.Sprintf("ignition coil drive, cylinder %d", n)})
		r.Register(Info{ID: Injector(n), Kind: KindInjector, Description: fmt.Sprintf("fuel injector drive, cylinder %d", n)})
	}

	r.Register(Info{ID: Trigger1, Kind: KindTrigger, Description: "primary trigger wheel signal"})
	r.Register(Info{ID: Trigger2, Kind: KindTrigger, Description: "secondary trigger wheel signal"})
	r.Register(Info{ID: Trigger3, Kind: KindTrigger, Description: "tertiary trigger wheel signal"})
	r.Register(Info{ID: MapAveraging, Kind: KindAux, Description: "manifold pressure averaging window"})
	r.Register(Info{ID: MainRelay, Kind: KindAux, Description: "main relay control"})
	r.Register(Info{ID: FuelPump, Kind: KindAux, Description: "fuel pump relay"})
	r.Register(Info{ID: Fan, Kind: KindAux, Description: "radiator fan relay"})
	r.Register(Info{ID: Idle, Kind: KindAux, Description: "idle air valve"})

	return r
}

// Register adds or replaces a channel. Names are case-insensitive.
func (r *Registry) Register(info Info) {
	info.ID = normalize(string(info.ID))
	r.channels[info.ID] = info
}

// Lookup returns the channel registered under name.
func (r *Registry) Lookup(name string) (Info, bool) {
	info, ok := r.channels[normalize(name)]
	return info, ok
}

// Contains reports whether name is a registered channel.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// IDs returns all registered channel IDs in sorted order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

func normalize(name string) ID {
	return ID(strings.ToLower(strings.TrimSpace(name)))
}
