// Package drivers provides ready-made core.Driver implementations: a
// random-walk baseline, a random-destination cruiser and a greedy
// nearest-passenger heuristic. They are useful as NPC-like baselines, CLI
// defaults and test fixtures; learning drivers live outside this module and
// implement core.Driver themselves.
package drivers

import (
	"math/rand"

	"github.com/gridcab/engine/internal/topology"
	"github.com/gridcab/engine/pkg/core"
)

// Random heads in a random compass direction every tick. With a fixed seed
// it is fully deterministic.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random driver with its own seeded generator.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (d *Random) GetAction(state *core.GridState) core.Action {
	dirs := core.Directions()
	return core.HeadTowards(dirs[d.rng.Intn(len(dirs))], 0)
}

func (d *Random) TransitionHappened(old, new *core.GridState) {}

// RandomDestination cruises towards a random road section and picks a new
// one on arrival. It never interacts with passengers or stations.
type RandomDestination struct {
	rng    *rand.Rand
	target *core.RoadSection
}

// NewRandomDestination creates a random-destination driver with its own
// seeded generator.
func NewRandomDestination(seed int64) *RandomDestination {
	return &RandomDestination{rng: rand.New(rand.NewSource(seed))}
}

func (d *RandomDestination) GetAction(state *core.GridState) core.Action {
	topo := topology.Topology{
		HorizontalRoads: state.Height,
		VerticalRoads:   state.Width,
		SectionSlots:    1,
	}

	pov := state.POV
	if pov == nil {
		return core.HeadTowards(core.Right, 0)
	}
	here := pov.Pos.RoadSection

	if d.target == nil || sameCrossing(topo, *d.target, here) {
		t := topo.RandomSection(d.rng)
		d.target = &t
	}

	hx, hy := topo.CheckerboardCoords(here)
	tx, ty := topo.CheckerboardCoords(*d.target)

	dx, dy := tx-hx, ty-hy
	var dir core.Direction
	switch {
	case abs(dx) >= abs(dy) && dx > 0:
		dir = core.Right
	case abs(dx) >= abs(dy):
		dir = core.Left
	case dy > 0:
		dir = core.Down
	default:
		dir = core.Up
	}
	return core.HeadTowards(dir, 0)
}

func (d *RandomDestination) TransitionHappened(old, new *core.GridState) {}

// sameCrossing reports whether two sections meet at roughly the same spot,
// lane direction aside.
func sameCrossing(t topology.Topology, a, b core.RoadSection) bool {
	ax, ay := t.CheckerboardCoords(a)
	bx, by := t.CheckerboardCoords(b)
	return abs(ax-bx)+abs(ay-by) <= 1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Greedy chases the nearest idle passenger, drops off the passenger it
// carries, and recharges when the battery runs low.
type Greedy struct {
	// ChargeBelow is the battery level under which the driver heads for a
	// charging station. Zero disables charging.
	ChargeBelow float64
}

func (d *Greedy) GetAction(state *core.GridState) core.Action {
	pov := state.POV

	if d.ChargeBelow > 0 && pov != nil && pov.Battery < d.ChargeBelow {
		if station := freestStation(state); station != nil {
			return core.ChargeBattery(station.ID, 0)
		}
	}

	if pov != nil && len(pov.Passengers) > 0 {
		return core.DropOff(pov.Passengers[0].ID, 0)
	}

	// IdlePassengers is sorted nearest-first
	if len(state.IdlePassengers) > 0 {
		return core.PickUp(state.IdlePassengers[0].ID, 0)
	}

	return core.HeadTowards(core.Right, 0)
}

func (d *Greedy) TransitionHappened(old, new *core.GridState) {}

func freestStation(state *core.GridState) *core.ChargingStation {
	var best *core.ChargingStation
	for i := range state.ChargingStations {
		s := &state.ChargingStations[i]
		if len(s.Occupants) >= s.Capacity {
			continue
		}
		if best == nil || len(s.Occupants) < len(best.Occupants) {
			best = s
		}
	}
	return best
}
