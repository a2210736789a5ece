package engine

import "github.com/gridcab/engine/pkg/core"

// station is the engine-owned charging station record. Occupying cars are
// off the road: their slot in the position map is freed so traffic can pass
// the entrance.
type station struct {
	id        core.StationID
	entrance  core.Position
	capacity  int
	rate      float64
	occupants []*car
}

func (s *station) hasSpace() bool {
	return len(s.occupants) < s.capacity
}

func (s *station) removeOccupant(id core.CarID) {
	for i, c := range s.occupants {
		if c.id == id {
			s.occupants = append(s.occupants[:i], s.occupants[i+1:]...)
			return
		}
	}
}

// stationEntranceAt finds the station whose entrance sits on either lane of
// the given slot, so a car approaching from the opposite direction still
// sees it.
func (g *Grid) stationEntranceAt(pos core.Position) *station {
	other := pos
	other.Direction = pos.Direction.Inverted()
	other.PositionInSection = g.topo.MaxPositionInSection() - pos.PositionInSection

	for _, s := range g.stations {
		if s.entrance == pos || s.entrance == other {
			return s
		}
	}
	return nil
}

func (g *Grid) stationByID(id core.StationID) *station {
	for _, s := range g.stations {
		if s.id == id {
			return s
		}
	}
	return nil
}

// tickStations charges every occupant and releases cars whose battery is
// full, provided the entrance slot is free.
func (g *Grid) tickStations() {
	for _, s := range g.stations {
		for _, c := range append([]*car(nil), s.occupants...) {
			c.charge(s.rate)
			c.active = nil

			if c.battery >= 1 {
				if _, taken := g.carAt[s.entrance]; taken {
					continue // exit blocked, keep charging in place
				}
				s.removeOccupant(c.id)
				c.station = nil
				c.pos = s.entrance
				c.ticksToMove = c.speed
				g.carAt[c.pos] = c.id
			}
		}
	}
}

// enterStation moves a car off the road into a station. Caller checked
// capacity.
func (g *Grid) enterStation(c *car, s *station) {
	delete(g.carAt, c.pos)
	c.pos = s.entrance
	c.station = s
	c.active = nil
	c.path = nil
	s.occupants = append(s.occupants, c)
	g.stats.EnterChargingStations++
}
