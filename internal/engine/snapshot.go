package engine

import (
	"sort"

	"github.com/gridcab/engine/internal/pathfind"
	"github.com/gridcab/engine/pkg/core"
)

// snapshot builds the tick-wide observation base shared by every car's
// GridState. withPOV then specializes it per car. Snapshots deep-copy all
// entity data: they are point-in-time values, never live handles.
func (g *Grid) snapshot(events core.TickEvents) *core.GridState {
	width, height := g.topo.Dimensions()

	state := &core.GridState{
		Opts:        g.opts,
		Width:       width,
		Height:      height,
		TicksPassed: g.ticks,
		Events:      events.Clone(),
	}

	for _, c := range g.cars {
		state.OtherCars = append(state.OtherCars, g.publicCar(c))
	}
	for _, p := range g.idle {
		state.IdlePassengers = append(state.IdlePassengers, g.publicPassenger(p, p.start, core.PassengerIdle, 0))
	}
	for _, s := range g.stations {
		occupants := make([]core.CarID, len(s.occupants))
		for i, c := range s.occupants {
			occupants[i] = c.id
		}
		state.ChargingStations = append(state.ChargingStations, core.ChargingStation{
			ID:        s.id,
			Entrance:  s.entrance,
			Capacity:  s.capacity,
			Rate:      s.rate,
			Occupants: occupants,
		})
	}

	return state
}

// withPOV specializes the shared base snapshot for one car: the POV car is
// pulled out of OtherCars, neighbors get sorted by distance and windowed by
// the configured radii, and the turn/validity flags are filled in.
func (g *Grid) withPOV(base *core.GridState, c *car) *core.GridState {
	state := *base

	state.OtherCars = make([]core.Car, 0, len(base.OtherCars))
	for _, other := range base.OtherCars {
		if other.ID == c.id {
			pov := other
			state.POV = &pov
			continue
		}
		state.OtherCars = append(state.OtherCars, other)
	}

	state.CanTurn = !c.inStation() && c.atEndOfSection(g.topo.MaxPositionInSection())
	state.ActionInvalid = c.actionInvalid

	sort.SliceStable(state.OtherCars, func(i, j int) bool {
		di := g.topo.Distance(c.pos, state.OtherCars[i].Pos)
		dj := g.topo.Distance(c.pos, state.OtherCars[j].Pos)
		if di != dj {
			return di < dj
		}
		return state.OtherCars[i].ID < state.OtherCars[j].ID
	})
	if g.opts.CarRadius > 0 && len(state.OtherCars) > g.opts.CarRadius {
		state.OtherCars = state.OtherCars[:g.opts.CarRadius]
	}

	state.IdlePassengers = append([]core.Passenger(nil), base.IdlePassengers...)
	cost := make(map[core.PassengerID]int, len(state.IdlePassengers))
	for _, p := range state.IdlePassengers {
		if rc, ok := pathfind.RouteCost(g.topo, c.pos.RoadSection, p.Pos.RoadSection); ok {
			cost[p.ID] = rc
		}
	}
	sort.SliceStable(state.IdlePassengers, func(i, j int) bool {
		ci, cj := cost[state.IdlePassengers[i].ID], cost[state.IdlePassengers[j].ID]
		if ci != cj {
			return ci < cj
		}
		return state.IdlePassengers[i].ID < state.IdlePassengers[j].ID
	})
	if g.opts.PassengerRadius > 0 && len(state.IdlePassengers) > g.opts.PassengerRadius {
		state.IdlePassengers = state.IdlePassengers[:g.opts.PassengerRadius]
	}

	return &state
}

func (g *Grid) publicCar(c *car) core.Car {
	out := core.Car{
		ID:                     c.id,
		Kind:                   c.kind,
		Pos:                    c.pos,
		Battery:                c.battery,
		RecentActions:          append([]core.Action(nil), c.recent...),
		TicksSinceOutOfBattery: c.ticksSinceOut,
		InStation:              c.inStation(),
	}
	if c.active != nil {
		active := *c.active
		out.ActiveAction = &active
	}
	for _, p := range c.riding {
		out.Passengers = append(out.Passengers, g.publicPassenger(p, c.pos, core.PassengerRiding, c.id))
	}
	return out
}

func (g *Grid) publicPassenger(p *passenger, pos core.Position, state core.PassengerState, riding core.CarID) core.Passenger {
	distance := 0
	if rc, ok := pathfind.RouteCost(g.topo, p.start.RoadSection, p.dest.RoadSection); ok {
		distance = rc
	}
	return core.Passenger{
		ID:                    p.id,
		Pos:                   pos,
		Destination:           p.dest,
		State:                 state,
		Riding:                riding,
		TicksSinceRequest:     g.ticks - p.spawnTick,
		DistanceToDestination: distance,
	}
}
