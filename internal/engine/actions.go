package engine

import (
	"github.com/gridcab/engine/internal/pathfind"
	"github.com/gridcab/engine/pkg/core"
)

// applyAction validates a car's incoming action and plans its route.
// Invalid actions never abort the tick: the car's action is downgraded to
// continuing its current heading and the invalid flag is surfaced on the
// car's next snapshot.
func (g *Grid) applyAction(c *car, action core.Action) {
	c.actionInvalid = false
	c.rememberAction(action)

	switch action.Kind {
	case core.ActionHeadTowards:
		g.stats.HeadTowardsRequests++
		g.planHeadTowards(c, action)

	case core.ActionPickUp:
		g.stats.PickUpRequests++
		p := g.idlePassenger(action.Passenger)
		if p == nil || p.claimed || c.seats(g.opts.PassengersPerCar) <= 0 {
			g.rejectAction(c)
			return
		}
		p.claimed = true
		c.pickingUp = append(c.pickingUp, p.id)
		c.active = &action
		g.planTo(c, p.start)

	case core.ActionDropOff:
		g.stats.DropOffRequests++
		p := c.ridingPassenger(action.Passenger)
		if p == nil {
			g.rejectAction(c)
			return
		}
		c.active = &action
		g.planTo(c, p.dest)

	case core.ActionCharge:
		g.stats.ChargeRequests++
		s := g.stationByID(action.Station)
		if s == nil || (!s.hasSpace() && c.station != s) {
			g.rejectAction(c)
			return
		}
		c.active = &action
		g.planTo(c, s.entrance)

	default:
		g.rejectAction(c)
	}
}

// rejectAction marks the action invalid and keeps the car on its previous
// heading. With no previous route the car will turn randomly at the next
// intersection, like an NPC.
func (g *Grid) rejectAction(c *car) {
	c.actionInvalid = true
	g.stats.InvalidActions++
}

// planHeadTowards picks, among the sections reachable from the car's
// current one, the one furthest towards the requested compass direction,
// and routes to its first slot.
func (g *Grid) planHeadTowards(c *car, action core.Action) {
	section := c.pos.RoadSection

	best := section
	found := false
	var bestX, bestY float64
	for _, d := range g.topo.PossibleDecisions(section) {
		next, ok := g.topo.TakeDecision(section, d)
		if !ok {
			continue
		}
		x, y := g.topo.CheckerboardCoords(next)
		better := !found
		if found {
			switch action.Direction {
			case core.Up:
				better = y < bestY
			case core.Down:
				better = y > bestY
			case core.Left:
				better = x < bestX
			case core.Right:
				better = x > bestX
			}
		}
		if better {
			best, bestX, bestY, found = next, x, y, true
		}
	}
	if !found {
		g.rejectAction(c)
		return
	}

	c.active = &action
	g.planTo(c, core.Position{RoadSection: best})
}

// planTo routes the car towards a destination slot. Routes are recomputed
// from scratch every intake so they never go stale.
func (g *Grid) planTo(c *car, dest core.Position) {
	path, ok := pathfind.FindPath(g.topo, c.pos.RoadSection, dest.RoadSection)
	if !ok {
		g.rejectAction(c)
		return
	}
	c.path = &path
}

// nextDecision picks the turn a car takes at the end of its section. Cars
// with a planned route follow it; everything else turns randomly, which is
// also the NPC roaming policy.
func (g *Grid) nextDecision(c *car) core.Decision {
	if c.path != nil {
		if d, ok := c.path.NextDecision(g.topo); ok {
			return d
		}
		c.path = nil
	}
	options := g.topo.PossibleDecisions(c.pos.RoadSection)
	return options[g.rng.Intn(len(options))]
}
