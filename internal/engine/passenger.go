package engine

import (
	"fmt"

	"github.com/gridcab/engine/pkg/core"
)

// passenger is the engine-owned passenger record. While idle it lives in
// Grid.idle; once picked up it moves into a car's riding list and its pos
// follows the car.
type passenger struct {
	id        core.PassengerID
	start     core.Position
	dest      core.Position
	spawnTick int
	claimed   bool // a car committed to picking this passenger up this tick
}

// spawnPassenger draws a new passenger honoring the active passenger event,
// if any. Start slots occupied by another idle passenger or by a charging
// station entrance are rejected and redrawn, with a bounded retry count in
// case the configured event area is too small.
func (g *Grid) spawnPassenger() (*passenger, error) {
	event := g.currentPassengerEvent()

	for i := 0; i < 1000; i++ {
		var start, dest core.Position
		if event != nil {
			s, ok := g.topo.RandomSectionIn(g.rng, g.topo.WrapRect(event.StartArea))
			if !ok {
				break
			}
			d, ok := g.topo.RandomSectionIn(g.rng, g.topo.WrapRect(event.DestinationArea))
			if !ok {
				break
			}
			start = core.Position{RoadSection: s, PositionInSection: g.rng.Intn(g.topo.SectionSlots)}
			dest = core.Position{RoadSection: d, PositionInSection: g.rng.Intn(g.topo.SectionSlots)}
		} else {
			start = g.topo.RandomPosition(g.rng)
			dest = g.topo.RandomPosition(g.rng)
		}

		if _, taken := g.passengerAt[start]; taken {
			continue
		}
		if g.stationEntranceAt(start) != nil {
			continue
		}

		p := &passenger{
			id:        g.nextPassengerID,
			start:     start,
			dest:      dest,
			spawnTick: g.ticks,
		}
		g.nextPassengerID++
		return p, nil
	}

	return nil, fmt.Errorf("no free slot for a new passenger after bounded retries")
}

// currentPassengerEvent returns the first configured passenger event whose
// tick window contains the current tick, or nil.
func (g *Grid) currentPassengerEvent() *core.PassengerEvent {
	for i := range g.opts.PassengerEvents {
		if g.opts.PassengerEvents[i].ActiveAt(g.ticks) {
			return &g.opts.PassengerEvents[i]
		}
	}
	return nil
}

// tickSpawner runs the per-tick passenger spawn loop. Several passengers
// can spawn in one tick; each spawn requires another successful rate draw.
func (g *Grid) tickSpawner() {
	rate := g.opts.PassengerSpawnRate
	if event := g.currentPassengerEvent(); event != nil && event.SpawnRate != nil {
		rate = *event.SpawnRate
	}

	for len(g.idle) < g.opts.MaxPassengers && g.rng.Float64() < rate {
		p, err := g.spawnPassenger()
		if err != nil {
			g.log.Warn("passenger spawn failed", "error", err, "tick", g.ticks)
			return
		}
		g.addIdlePassenger(p)
		g.events.Spawned = append(g.events.Spawned, core.SpawnEvent{
			Tick:      g.ticks,
			Passenger: g.publicPassenger(p, p.start, core.PassengerIdle, 0),
			Pos:       p.start,
		})
		g.stats.PassengerSpawns++
	}
}

func (g *Grid) addIdlePassenger(p *passenger) {
	g.idle = append(g.idle, p)
	g.passengerAt[p.start] = p.id
}

// removeIdlePassenger detaches an idle passenger from the sidewalk,
// preserving the id order of the rest.
func (g *Grid) removeIdlePassenger(id core.PassengerID) *passenger {
	for i, p := range g.idle {
		if p.id == id {
			g.idle = append(g.idle[:i], g.idle[i+1:]...)
			delete(g.passengerAt, p.start)
			return p
		}
	}
	return nil
}

func (g *Grid) idlePassenger(id core.PassengerID) *passenger {
	for _, p := range g.idle {
		if p.id == id {
			return p
		}
	}
	return nil
}
