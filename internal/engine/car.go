package engine

import (
	"github.com/gridcab/engine/internal/pathfind"
	"github.com/gridcab/engine/pkg/core"
)

const recentActionHistory = 10

// car is the engine-owned mutable car record. Snapshots expose read-only
// copies of it as core.Car; callbacks never touch this struct directly.
type car struct {
	id     core.CarID
	kind   core.CarKind
	driver core.Driver // nil for NPC cars

	pos         core.Position
	speed       int // ticks per movement
	ticksToMove int // ticks left before the next movement is allowed

	battery       float64
	dischargeRate float64
	frozen        bool
	ticksSinceOut int

	riding    []*passenger
	pickingUp []core.PassengerID // per-tick claims, cleared at action intake

	active        *core.Action
	actionInvalid bool
	recent        []core.Action

	path *pathfind.Path

	station *station // non-nil while occupying a charging station
}

func (c *car) isAgent() bool { return c.kind == core.AgentCar }

func (c *car) inStation() bool { return c.station != nil }

// seats reports how many more passengers the car can commit to, counting
// both riding passengers and this tick's pick-up claims.
func (c *car) seats(capacity int) int {
	return capacity - len(c.riding) - len(c.pickingUp)
}

func (c *car) rememberAction(a core.Action) {
	c.recent = append(c.recent, a)
	if len(c.recent) > recentActionHistory {
		c.recent = c.recent[len(c.recent)-recentActionHistory:]
	}
}

// discharge lowers the battery by the car's discharge rate, clamped at 0.
// Returns true when the battery just hit empty.
func (c *car) discharge() bool {
	if c.dischargeRate <= 0 {
		return false
	}
	before := c.battery
	c.battery -= c.dischargeRate
	if c.battery < 0 {
		c.battery = 0
	}
	return before > 0 && c.battery == 0
}

// charge raises the battery by the station rate, saturating at 1.0, and
// unfreezes a depleted car.
func (c *car) charge(rate float64) {
	c.battery += rate
	if c.battery > 1 {
		c.battery = 1
	}
	if c.battery > 0 && c.frozen {
		c.frozen = false
		c.ticksSinceOut = 0
	}
}

// ridingPassenger returns the riding passenger with the given id, or nil.
func (c *car) ridingPassenger(id core.PassengerID) *passenger {
	for _, p := range c.riding {
		if p.id == id {
			return p
		}
	}
	return nil
}

// atEndOfSection reports whether the car's next movement crosses an
// intersection, i.e. whether a turn decision applies this tick.
func (c *car) atEndOfSection(maxPositionInSection int) bool {
	return c.pos.PositionInSection >= maxPositionInSection
}
