// Package engine runs the tick-based taxi simulation: cars, passengers,
// charging stations and traffic lights on a one-way road grid. One Grid is
// one episode; construct a fresh instance to reset. The engine is
// single-threaded and, in deterministic mode, fully reproducible from the
// configured seed.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gridcab/engine/internal/dispatcher"
	"github.com/gridcab/engine/internal/topology"
	"github.com/gridcab/engine/pkg/core"
)

// carSpeed is how many ticks one slot movement takes.
const carSpeed = 3

// chargingRate is the battery gained per tick at a station.
const chargingRate = 0.01

// initialBattery is the battery of a freshly spawned agent car when
// discharging is enabled.
const initialBattery = 0.2

// Grid owns the whole simulation state. All mutation happens inside Tick;
// drivers only ever see immutable snapshots.
type Grid struct {
	opts core.GridOpts
	topo topology.Topology
	log  *slog.Logger
	rng  *rand.Rand

	cars  []*car // ascending id order, agents first
	carAt map[core.Position]core.CarID

	idle            []*passenger // idle passengers, ascending id order
	passengerAt     map[core.Position]core.PassengerID
	nextPassengerID core.PassengerID

	stations []*station
	lights   map[core.RoadSection]*trafficLight

	ticks      int
	stats      core.Stats
	events     core.TickEvents // events of the tick in progress
	prevEvents core.TickEvents // events of the finished tick

	disp    *dispatcher.Dispatcher
	metrics *metrics
}

// New builds a grid on the default topology. One driver is required per
// agent car, matched in order: drivers[i] steers the i-th agent car.
// Configuration problems are reported here, before any tick runs.
func New(opts core.GridOpts, drivers []core.Driver, log *slog.Logger) (*Grid, error) {
	return NewWithTopology(topology.Default(), opts, drivers, log)
}

// NewWithTopology is New on an explicit road network, used by tests that
// want a smaller grid.
func NewWithTopology(topo topology.Topology, opts core.GridOpts, drivers []core.Driver, log *slog.Logger) (*Grid, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if len(drivers) != opts.AgentCarCount {
		return nil, fmt.Errorf("%w: %d drivers for %d agent cars",
			core.ErrInvalidConfig, len(drivers), opts.AgentCarCount)
	}
	for i, pos := range opts.ChargingStations {
		if err := topo.CheckPosition(pos); err != nil {
			return nil, fmt.Errorf("%w: charging station %d: %v", core.ErrInvalidConfig, i, err)
		}
	}
	if log == nil {
		log = slog.Default()
	}

	seed := opts.Seed
	if !opts.DeterministicMode {
		seed = time.Now().UnixNano()
	}

	g := &Grid{
		opts:            opts,
		topo:            topo,
		log:             log,
		rng:             rand.New(rand.NewSource(seed)),
		carAt:           make(map[core.Position]core.CarID),
		passengerAt:     make(map[core.Position]core.PassengerID),
		nextPassengerID: 1,
		lights:          generateTrafficLights(topo),
	}
	g.stats.TicksWithNPassengers = make([]int, opts.PassengersPerCar+1)

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	g.metrics = m

	for i, pos := range opts.ChargingStations {
		g.stations = append(g.stations, &station{
			id:       core.StationID(i + 1),
			entrance: pos,
			capacity: opts.ChargingStationCapacity,
			rate:     chargingRate,
		})
	}

	for i := 0; i < opts.InitialPassengerCount; i++ {
		p, err := g.spawnPassenger()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
		}
		g.addIdlePassenger(p)
	}

	battery := initialBattery
	if opts.DischargeRate == 0 {
		battery = 1.0
	}
	for i := 0; i < opts.AgentCarCount; i++ {
		if err := g.spawnCar(core.AgentCar, drivers[i], battery, opts.DischargeRate); err != nil {
			return nil, err
		}
	}
	for i := 0; i < opts.NPCCarCount; i++ {
		if err := g.spawnCar(core.NPCCar, nil, 1.0, 0); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Grid) spawnCar(kind core.CarKind, driver core.Driver, battery, dischargeRate float64) error {
	pos, err := g.randomFreePosition()
	if err != nil {
		return err
	}
	c := &car{
		id:            core.CarID(len(g.cars) + 1),
		kind:          kind,
		driver:        driver,
		pos:           pos,
		speed:         carSpeed,
		battery:       battery,
		dischargeRate: dischargeRate,
	}
	g.cars = append(g.cars, c)
	g.carAt[pos] = c.id
	return nil
}

func (g *Grid) randomFreePosition() (core.Position, error) {
	for i := 0; i < 1000; i++ {
		pos := g.topo.RandomPosition(g.rng)
		if _, taken := g.carAt[pos]; !taken {
			return pos, nil
		}
	}
	return core.Position{}, fmt.Errorf("%w: no free slot for a car, grid is full", core.ErrInvalidConfig)
}

// Tick advances the simulation by one step: agent action intake, traffic
// lights, two-phase movement, battery and charging, pickups, drop-offs,
// the passenger spawner, then the post-tick callbacks. Resolution order is
// fixed so identical seeds and driver behavior replay identically.
func (g *Grid) Tick() {
	base := g.snapshot(g.prevEvents)

	for _, p := range g.idle {
		p.claimed = false
	}
	for _, c := range g.cars {
		c.pickingUp = c.pickingUp[:0]
	}

	invalidBefore := g.stats.InvalidActions
	oldStates := make(map[core.CarID]*core.GridState, g.opts.AgentCarCount)
	for _, c := range g.cars {
		if c.driver == nil {
			continue
		}
		state := g.withPOV(base, c)
		oldStates[c.id] = state
		g.applyAction(c, c.driver.GetAction(state))
	}

	g.events = core.TickEvents{}

	g.tickTrafficLights()
	g.moveCars()
	g.tickStations()
	g.tickPickups()
	g.tickDropoffs()
	g.tickSpawner()

	g.ticks++
	g.stats.Ticks++

	postBase := g.snapshot(g.events)
	for _, c := range g.cars {
		if c.driver == nil {
			continue
		}
		c.driver.TransitionHappened(oldStates[c.id], g.withPOV(postBase, c))
	}

	g.metrics.record(&tickOutcome{
		pickups:      len(g.events.PickedUp),
		dropoffs:     len(g.events.DroppedOff),
		outOfBattery: len(g.events.OutOfBattery),
		invalid:      g.stats.InvalidActions - invalidBefore,
	})
	g.publish()

	if g.opts.Verbose {
		g.log.Debug("tick complete",
			"tick", g.ticks,
			"idle_passengers", len(g.idle),
			"events", !g.events.Empty(),
		)
	}

	g.prevEvents = g.events
}

// moveCars resolves movement in two phases: every car first declares its
// desired next slot against the current occupancy, then moves commit. Two
// cars never end up in one slot.
func (g *Grid) moveCars() {
	oldPositions := make(map[core.Position]bool, len(g.cars))
	for _, c := range g.cars {
		if !c.inStation() {
			oldPositions[c.pos] = true
		}
	}

	nextPositions := make(map[core.Position]core.CarID, len(g.cars))
	desired := make(map[core.CarID]core.Position, len(g.cars))

	for _, c := range g.cars {
		if c.inStation() {
			continue
		}

		n := len(c.riding)
		if n >= len(g.stats.TicksWithNPassengers) {
			n = len(g.stats.TicksWithNPassengers) - 1
		}
		g.stats.TicksWithNPassengers[n]++

		target := c.pos
		switch {
		case c.frozen:
			// depleted cars sit where they stopped
		case c.ticksToMove > 0:
			c.ticksToMove--
		case g.redLightBlocks(c.pos):
			// held at the intersection
		default:
			cand, ok := g.desiredNext(c)
			if ok && !oldPositions[cand] {
				if _, claimed := nextPositions[cand]; !claimed {
					target = cand
				}
			}
		}

		desired[c.id] = target
		nextPositions[target] = c.id
	}

	for _, c := range g.cars {
		if c.inStation() {
			continue
		}
		if c.frozen {
			c.ticksSinceOut++
			continue
		}

		target := desired[c.id]
		if target == c.pos {
			continue
		}

		if c.isAgent() && c.discharge() {
			// the battery died on this movement: freeze in place
			c.frozen = true
			c.ticksSinceOut = 0
			c.path = nil
			c.active = nil
			g.stats.OutOfBattery++
			g.events.OutOfBattery = append(g.events.OutOfBattery, core.OutOfBatteryEvent{
				Tick: g.ticks,
				Car:  c.id,
				Pos:  c.pos,
			})
			continue
		}

		delete(g.carAt, c.pos)
		enteredNewSection := target.RoadSection != c.pos.RoadSection
		c.pos = target
		g.carAt[target] = c.id
		c.ticksToMove = c.speed - 1

		if enteredNewSection && c.path != nil {
			if len(c.path.Sections) >= 2 && c.path.Sections[1] == target.RoadSection {
				c.path.Advance()
			} else {
				c.path = nil
			}
		}

		// arriving at the requested station entrance enters the station,
		// space permitting
		if c.active != nil && c.active.Kind == core.ActionCharge {
			if s := g.stationByID(c.active.Station); s != nil && s.entrance == c.pos && s.hasSpace() {
				g.enterStation(c, s)
			}
		}
	}
}

// desiredNext computes where the car wants to move this tick: the next
// slot of its section, or across the intersection per its route (or a
// random legal turn without one).
func (g *Grid) desiredNext(c *car) (core.Position, bool) {
	if !c.atEndOfSection(g.topo.MaxPositionInSection()) {
		next := c.pos
		next.PositionInSection++
		return next, true
	}
	section, ok := g.topo.TakeDecision(c.pos.RoadSection, g.nextDecision(c))
	if !ok {
		return core.Position{}, false
	}
	return core.Position{RoadSection: section}, true
}

func (g *Grid) tickPickups() {
	for _, c := range g.cars {
		for _, pid := range c.pickingUp {
			p := g.idlePassenger(pid)
			if p == nil {
				continue
			}
			if c.pos != p.start || len(c.riding) >= g.opts.PassengersPerCar {
				continue // claim expires at the next intake
			}
			g.removeIdlePassenger(pid)
			c.riding = append(c.riding, p)
			c.active = nil
			c.path = nil
			g.stats.PassengerPickups++
			g.events.PickedUp = append(g.events.PickedUp, core.PickupEvent{
				Tick:      g.ticks,
				Car:       c.id,
				Passenger: g.publicPassenger(p, c.pos, core.PassengerRiding, c.id),
				Pos:       c.pos,
			})
		}
	}
}

func (g *Grid) tickDropoffs() {
	for _, c := range g.cars {
		kept := c.riding[:0]
		for _, p := range c.riding {
			if c.pos != p.dest {
				kept = append(kept, p)
				continue
			}
			g.stats.PassengerDropoffs++
			g.events.DroppedOff = append(g.events.DroppedOff, core.DropoffEvent{
				Tick:      g.ticks,
				Car:       c.id,
				Passenger: g.publicPassenger(p, c.pos, core.PassengerRiding, c.id),
				Pos:       c.pos,
			})
			c.active = nil
			c.path = nil
		}
		c.riding = kept
	}
}

// SetDispatcher attaches an event dispatcher; after every tick the engine
// publishes that tick's events and a stats snapshot to it. Pass nil to
// detach.
func (g *Grid) SetDispatcher(d *dispatcher.Dispatcher) {
	g.disp = d
}

func (g *Grid) publish() {
	if g.disp == nil {
		return
	}
	for _, e := range g.events.Spawned {
		g.dispatchEvent(dispatcher.KindPassengerSpawned, e)
	}
	for _, e := range g.events.PickedUp {
		g.dispatchEvent(dispatcher.KindPassengerPickedUp, e)
	}
	for _, e := range g.events.DroppedOff {
		g.dispatchEvent(dispatcher.KindPassengerDroppedOff, e)
	}
	for _, e := range g.events.OutOfBattery {
		g.dispatchEvent(dispatcher.KindCarOutOfBattery, e)
	}
	g.dispatchEvent(dispatcher.KindTickStats, g.Stats())
}

func (g *Grid) dispatchEvent(kind string, payload any) {
	if !g.disp.HasHandler(kind) {
		return
	}
	if _, err := g.disp.Dispatch(dispatcher.Event{
		Kind:      kind,
		Tick:      g.ticks,
		Payload:   payload,
		Timestamp: time.Now(),
	}); err != nil {
		g.log.Error("event dispatch failed", "kind", kind, "error", err)
	}
}

// Dimensions returns the logical grid size as (width, height).
func (g *Grid) Dimensions() (int, int) {
	return g.topo.Dimensions()
}

// Distance is the grid's distance oracle: Manhattan distance over the
// checkerboard projection, symmetric and zero for equal positions.
func (g *Grid) Distance(a, b core.Position) int {
	return g.topo.Distance(a, b)
}

// TicksPassed returns how many ticks have fully resolved.
func (g *Grid) TicksPassed() int {
	return g.ticks
}

// Stats returns a copy of the cumulative counters.
func (g *Grid) Stats() core.Stats {
	out := g.stats
	out.TicksWithNPassengers = append([]int(nil), g.stats.TicksWithNPassengers...)
	return out
}

// Events returns the events of the most recently completed tick.
func (g *Grid) Events() core.TickEvents {
	return g.prevEvents.Clone()
}

// LivePassengers counts every passenger in the simulation, idle or riding.
func (g *Grid) LivePassengers() int {
	n := len(g.idle)
	for _, c := range g.cars {
		n += len(c.riding)
	}
	return n
}
