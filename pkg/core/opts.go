// pkg/core/opts.go
package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every configuration error reported at grid
// construction.
var ErrInvalidConfig = errors.New("invalid grid configuration")

// Rect is an inclusive axis-aligned rectangle in checkerboard coordinates.
// Negative coordinates wrap from the far edge of the grid (so -1 means the
// last road), matching how drivers address areas relative to the bottom or
// right edge.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// PassengerEvent restricts passenger spawning to an area pair for a window
// of ticks, optionally overriding the global spawn rate while active.
type PassengerEvent struct {
	StartArea       Rect
	DestinationArea Rect

	// FromTick/UntilTick bound the active window, inclusive. A nil bound
	// is open-ended.
	FromTick  *int
	UntilTick *int

	// SpawnRate overrides GridOpts.PassengerSpawnRate while the event is
	// active. Nil keeps the global rate.
	SpawnRate *float64
}

// ActiveAt reports whether the event applies at the given tick.
func (e PassengerEvent) ActiveAt(tick int) bool {
	if e.FromTick != nil && tick < *e.FromTick {
		return false
	}
	if e.UntilTick != nil && tick > *e.UntilTick {
		return false
	}
	return true
}

// GridOpts is the immutable configuration for one grid instance. All
// simulation tunables live here; the engine keeps no process-wide state.
type GridOpts struct {
	InitialPassengerCount int
	PassengerSpawnRate    float64
	MaxPassengers         int

	AgentCarCount    int
	NPCCarCount      int
	PassengersPerCar int
	DischargeRate    float64

	ChargingStations        []Position
	ChargingStationCapacity int

	// CarRadius and PassengerRadius cap how many nearby entities a
	// GridState surfaces. They window observations only and never limit
	// the simulation itself.
	CarRadius       int
	PassengerRadius int

	PassengerEvents []PassengerEvent

	// DeterministicMode routes all randomness through a generator seeded
	// with Seed, making runs reproducible.
	DeterministicMode bool
	Seed              int64

	Verbose bool
}

// Validate checks the topology-independent parts of the configuration.
// Position validity against the road network is checked by the engine.
func (o GridOpts) Validate() error {
	if o.InitialPassengerCount < 0 {
		return fmt.Errorf("%w: initial passenger count %d", ErrInvalidConfig, o.InitialPassengerCount)
	}
	if o.PassengerSpawnRate < 0 || o.PassengerSpawnRate > 1 {
		return fmt.Errorf("%w: passenger spawn rate %v outside [0,1]", ErrInvalidConfig, o.PassengerSpawnRate)
	}
	if o.MaxPassengers < o.InitialPassengerCount {
		return fmt.Errorf("%w: max passengers %d below initial count %d",
			ErrInvalidConfig, o.MaxPassengers, o.InitialPassengerCount)
	}
	if o.AgentCarCount < 0 || o.NPCCarCount < 0 {
		return fmt.Errorf("%w: negative car count", ErrInvalidConfig)
	}
	if o.PassengersPerCar < 1 {
		return fmt.Errorf("%w: passengers per car %d", ErrInvalidConfig, o.PassengersPerCar)
	}
	if o.DischargeRate < 0 || o.DischargeRate > 1 {
		return fmt.Errorf("%w: discharge rate %v outside [0,1]", ErrInvalidConfig, o.DischargeRate)
	}
	if len(o.ChargingStations) > 0 && o.ChargingStationCapacity < 1 {
		return fmt.Errorf("%w: charging station capacity %d", ErrInvalidConfig, o.ChargingStationCapacity)
	}
	if o.CarRadius < 0 || o.PassengerRadius < 0 {
		return fmt.Errorf("%w: negative observation radius", ErrInvalidConfig)
	}
	for i, ev := range o.PassengerEvents {
		if ev.SpawnRate != nil && (*ev.SpawnRate < 0 || *ev.SpawnRate > 1) {
			return fmt.Errorf("%w: passenger event %d spawn rate %v outside [0,1]",
				ErrInvalidConfig, i, *ev.SpawnRate)
		}
		if ev.FromTick != nil && ev.UntilTick != nil && *ev.FromTick > *ev.UntilTick {
			return fmt.Errorf("%w: passenger event %d tick window inverted", ErrInvalidConfig, i)
		}
	}
	return nil
}
