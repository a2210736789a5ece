package engine

import (
	"log/slog"
	"reflect"
	"testing"

	"github.com/gridcab/engine/pkg/core"
	"github.com/gridcab/engine/pkg/drivers"
)

// funcDriver builds a driver from closures.
type funcDriver struct {
	get        func(*core.GridState) core.Action
	transition func(old, new *core.GridState)
}

func (d *funcDriver) GetAction(s *core.GridState) core.Action {
	return d.get(s)
}

func (d *funcDriver) TransitionHappened(old, new *core.GridState) {
	if d.transition != nil {
		d.transition(old, new)
	}
}

func headRight() *funcDriver {
	return &funcDriver{get: func(*core.GridState) core.Action {
		return core.HeadTowards(core.Right, 0)
	}}
}

func baseOpts() core.GridOpts {
	return core.GridOpts{
		MaxPassengers:     10,
		PassengersPerCar:  4,
		DeterministicMode: true,
		Seed:              1,
	}
}

func newTestGrid(t *testing.T, opts core.GridOpts, drv ...core.Driver) *Grid {
	t.Helper()
	opts.AgentCarCount = len(drv)
	g, err := New(opts, drv, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

// placeCar teleports a car for targeted scenarios.
func placeCar(g *Grid, c *car, pos core.Position) {
	delete(g.carAt, c.pos)
	c.pos = pos
	g.carAt[pos] = c.id
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.GridOpts)
		drivers int
	}{
		{"negative initial passengers", func(o *core.GridOpts) { o.InitialPassengerCount = -1 }, 0},
		{"spawn rate above one", func(o *core.GridOpts) { o.PassengerSpawnRate = 1.5 }, 0},
		{"max below initial", func(o *core.GridOpts) { o.InitialPassengerCount = 5; o.MaxPassengers = 2 }, 0},
		{"driver count mismatch", func(o *core.GridOpts) {}, 2},
		{"station off grid", func(o *core.GridOpts) {
			o.ChargingStations = []core.Position{{
				RoadSection: core.RoadSection{Direction: core.Right, RoadIndex: 99, SectionIndex: 0},
			}}
			o.ChargingStationCapacity = 1
		}, 0},
		{"station capacity zero", func(o *core.GridOpts) {
			o.ChargingStations = []core.Position{{
				RoadSection: core.RoadSection{Direction: core.Right, RoadIndex: 0, SectionIndex: 0},
			}}
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOpts()
			tt.mutate(&opts)
			if tt.drivers > 0 {
				opts.AgentCarCount = 1 // mismatch with driver slice below
			}
			drv := make([]core.Driver, tt.drivers)
			for i := range drv {
				drv[i] = headRight()
			}
			if _, err := New(opts, drv, nil); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestCarsAndPassengersSpawnAtConstruction(t *testing.T) {
	opts := baseOpts()
	opts.InitialPassengerCount = 4
	opts.NPCCarCount = 2
	g := newTestGrid(t, opts, headRight(), headRight())

	if len(g.cars) != 4 {
		t.Fatalf("expected 4 cars, got %d", len(g.cars))
	}
	if g.cars[0].kind != core.AgentCar || g.cars[3].kind != core.NPCCar {
		t.Error("agent cars should come before NPC cars")
	}
	if len(g.idle) != 4 {
		t.Fatalf("expected 4 idle passengers, got %d", len(g.idle))
	}
	seen := map[core.Position]bool{}
	for _, c := range g.cars {
		if seen[c.pos] {
			t.Fatalf("two cars spawned at %v", c.pos)
		}
		seen[c.pos] = true
	}
}

func TestTickCountsAndCallbacks(t *testing.T) {
	var gets, transitions int
	drv := &funcDriver{
		get: func(s *core.GridState) core.Action {
			gets++
			if s.POV == nil {
				t.Error("GetAction state missing POV car")
			}
			return core.HeadTowards(core.Right, 0)
		},
		transition: func(old, new *core.GridState) {
			transitions++
			if old == nil || new == nil {
				t.Error("transition states must not be nil")
			}
			if new.TicksPassed != old.TicksPassed+1 {
				t.Errorf("tick counter: old %d, new %d", old.TicksPassed, new.TicksPassed)
			}
		},
	}

	g := newTestGrid(t, baseOpts(), drv)
	for i := 0; i < 10; i++ {
		g.Tick()
	}

	if g.TicksPassed() != 10 {
		t.Errorf("TicksPassed = %d", g.TicksPassed())
	}
	if gets != 10 || transitions != 10 {
		t.Errorf("callbacks: %d gets, %d transitions, want 10 each", gets, transitions)
	}
	if g.Stats().Ticks != 10 {
		t.Errorf("stats ticks = %d", g.Stats().Ticks)
	}
}

func TestNoTwoCarsShareASlot(t *testing.T) {
	opts := baseOpts()
	opts.NPCCarCount = 20
	opts.PassengerSpawnRate = 0.2
	g := newTestGrid(t, opts, headRight(), headRight())

	for i := 0; i < 300; i++ {
		g.Tick()
		seen := map[core.Position]bool{}
		for _, c := range g.cars {
			if c.inStation() {
				continue
			}
			if seen[c.pos] {
				t.Fatalf("tick %d: two cars at %v", i, c.pos)
			}
			seen[c.pos] = true
		}
	}
}

func TestPassengerPartitionInvariant(t *testing.T) {
	opts := baseOpts()
	opts.InitialPassengerCount = 5
	opts.PassengerSpawnRate = 0.4
	opts.NPCCarCount = 3
	g := newTestGrid(t, opts, &drivers.Greedy{}, &drivers.Greedy{})

	for i := 0; i < 400; i++ {
		g.Tick()

		idle := map[core.PassengerID]bool{}
		for _, p := range g.idle {
			idle[p.id] = true
		}
		riding := 0
		for _, c := range g.cars {
			for _, p := range c.riding {
				riding++
				if idle[p.id] {
					t.Fatalf("tick %d: passenger %d both idle and riding", i, p.id)
				}
			}
		}
		if got := g.LivePassengers(); got != len(idle)+riding {
			t.Fatalf("tick %d: live passengers %d != idle %d + riding %d", i, got, len(idle), riding)
		}
		if len(g.idle) > g.opts.MaxPassengers {
			t.Fatalf("tick %d: idle passengers %d above max %d", i, len(g.idle), g.opts.MaxPassengers)
		}
	}
}

func TestBatteryStaysClamped(t *testing.T) {
	opts := baseOpts()
	opts.DischargeRate = 0.3
	g := newTestGrid(t, opts, headRight())

	for i := 0; i < 100; i++ {
		g.Tick()
		for _, c := range g.cars {
			if c.battery < 0 || c.battery > 1 {
				t.Fatalf("tick %d: battery %v outside [0,1]", i, c.battery)
			}
		}
	}
}

func TestOutOfBatteryFreezesOnce(t *testing.T) {
	opts := baseOpts()
	opts.DischargeRate = 0.3 // initial 0.2, dies on the first movement
	g := newTestGrid(t, opts, headRight())

	events := 0
	var frozenAt core.Position
	var sawFrozen bool
	for i := 0; i < 200; i++ {
		g.Tick()
		events += len(g.Events().OutOfBattery)
		if g.cars[0].frozen && !sawFrozen {
			frozenAt, sawFrozen = g.cars[0].pos, true
		}
		if g.cars[0].frozen && g.cars[0].pos != frozenAt {
			t.Fatal("frozen car moved")
		}
	}

	if events != 1 {
		t.Fatalf("out-of-battery events = %d, want 1", events)
	}
	c := g.cars[0]
	if !c.frozen || c.battery != 0 {
		t.Fatalf("car not frozen at zero battery: frozen=%v battery=%v", c.frozen, c.battery)
	}
	if c.ticksSinceOut == 0 {
		t.Error("ticksSinceOutOfBattery should count up while frozen")
	}
	if g.Stats().OutOfBattery != 1 {
		t.Errorf("stats out-of-battery = %d", g.Stats().OutOfBattery)
	}
}

func TestPickupDropoffScenario(t *testing.T) {
	// One agent, no NPCs, one passenger, no spawning: the greedy driver
	// must eventually deliver the passenger, leaving the grid empty with
	// exactly one drop-off event ever emitted.
	opts := baseOpts()
	opts.InitialPassengerCount = 1
	opts.MaxPassengers = 1
	opts.PassengerSpawnRate = 0
	g := newTestGrid(t, opts, &drivers.Greedy{})

	dropoffs := 0
	for i := 0; i < 5000 && g.LivePassengers() > 0; i++ {
		g.Tick()
		dropoffs += len(g.Events().DroppedOff)
	}

	if g.LivePassengers() != 0 {
		t.Fatal("passenger was never delivered")
	}
	if dropoffs != 1 {
		t.Fatalf("drop-off events = %d, want 1", dropoffs)
	}
	stats := g.Stats()
	if stats.PassengerPickups != 1 || stats.PassengerDropoffs != 1 {
		t.Errorf("stats pickups=%d dropoffs=%d, want 1 and 1",
			stats.PassengerPickups, stats.PassengerDropoffs)
	}
}

func TestSameTickDoubleClaim(t *testing.T) {
	opts := baseOpts()
	opts.InitialPassengerCount = 1
	opts.MaxPassengers = 1
	opts.PassengerSpawnRate = 0

	claim := func(s *core.GridState) core.Action {
		if len(s.IdlePassengers) > 0 {
			return core.PickUp(s.IdlePassengers[0].ID, 0)
		}
		return core.HeadTowards(core.Right, 0)
	}
	var firstInvalid, secondInvalid bool
	d1 := &funcDriver{get: claim, transition: func(_, new *core.GridState) {
		firstInvalid = new.ActionInvalid
	}}
	d2 := &funcDriver{get: claim, transition: func(_, new *core.GridState) {
		secondInvalid = new.ActionInvalid
	}}

	g := newTestGrid(t, opts, d1, d2)
	g.Tick()

	if firstInvalid {
		t.Error("first car's claim should be valid")
	}
	if !secondInvalid {
		t.Error("second car's same-tick claim should be invalid")
	}
	if g.Stats().InvalidActions != 1 {
		t.Errorf("invalid actions = %d, want 1", g.Stats().InvalidActions)
	}
}

func TestFullStationRejectsEntry(t *testing.T) {
	entrance := core.Position{
		RoadSection:       core.RoadSection{Direction: core.Right, RoadIndex: 2, SectionIndex: 3},
		PositionInSection: 2,
	}
	opts := baseOpts()
	opts.ChargingStations = []core.Position{entrance}
	opts.ChargingStationCapacity = 1
	opts.DischargeRate = 0.001

	charge := &funcDriver{get: func(s *core.GridState) core.Action {
		return core.ChargeBattery(s.ChargingStations[0].ID, 0)
	}}
	g := newTestGrid(t, opts, charge, headRight())

	// first car already occupies the only slot
	g.enterStation(g.cars[1], g.stations[0])

	g.Tick()

	s := g.stations[0]
	if len(s.occupants) > s.capacity {
		t.Fatalf("station occupancy %d above capacity %d", len(s.occupants), s.capacity)
	}
	if g.Stats().InvalidActions == 0 {
		t.Error("charge request against a full station should be invalid")
	}
	if g.cars[0].inStation() {
		t.Error("car entered a full station")
	}
}

func TestChargingSaturatesAndReleases(t *testing.T) {
	entrance := core.Position{
		RoadSection:       core.RoadSection{Direction: core.Right, RoadIndex: 1, SectionIndex: 1},
		PositionInSection: 0,
	}
	opts := baseOpts()
	opts.ChargingStations = []core.Position{entrance}
	opts.ChargingStationCapacity = 2
	opts.DischargeRate = 0.001
	g := newTestGrid(t, opts, headRight())

	c := g.cars[0]
	c.battery = 0.5
	g.enterStation(c, g.stations[0])

	for i := 0; i < 60 && c.inStation(); i++ {
		g.Tick()
		if c.battery > 1 {
			t.Fatalf("battery overcharged to %v", c.battery)
		}
	}

	if c.inStation() {
		t.Fatal("car never released from station")
	}
	if c.battery != 1 {
		t.Fatalf("released with battery %v, want 1.0", c.battery)
	}
	if c.pos != entrance {
		t.Errorf("released at %v, want entrance %v", c.pos, entrance)
	}
}

func TestInvalidActionsDowngrade(t *testing.T) {
	tests := []struct {
		name   string
		action core.Action
	}{
		{"unknown passenger", core.PickUp(999, 7)},
		{"drop off passenger not in car", core.DropOff(999, 7)},
		{"unknown station", core.ChargeBattery(42, 7)},
		{"malformed kind", core.Action{Kind: core.ActionKind(99), RawIndex: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invalid bool
			d := &funcDriver{
				get:        func(*core.GridState) core.Action { return tt.action },
				transition: func(_, new *core.GridState) { invalid = new.ActionInvalid },
			}
			g := newTestGrid(t, baseOpts(), d)
			g.Tick() // must not panic
			if !invalid {
				t.Error("invalid action not surfaced on the post-tick snapshot")
			}
			if g.Stats().InvalidActions != 1 {
				t.Errorf("invalid actions = %d, want 1", g.Stats().InvalidActions)
			}
		})
	}
}

type recordingDriver struct {
	inner  core.Driver
	states []*core.GridState
}

func (d *recordingDriver) GetAction(s *core.GridState) core.Action {
	return d.inner.GetAction(s)
}

func (d *recordingDriver) TransitionHappened(old, new *core.GridState) {
	d.inner.TransitionHappened(old, new)
	d.states = append(d.states, new)
}

func TestDeterministicModeReplays(t *testing.T) {
	run := func() []*core.GridState {
		opts := baseOpts()
		opts.Seed = 99
		opts.InitialPassengerCount = 3
		opts.PassengerSpawnRate = 0.3
		opts.NPCCarCount = 2
		opts.DischargeRate = 0.001
		opts.ChargingStations = []core.Position{{
			RoadSection: core.RoadSection{Direction: core.Up, RoadIndex: 4, SectionIndex: 2},
		}}
		opts.ChargingStationCapacity = 2

		rec := &recordingDriver{inner: &drivers.Greedy{ChargeBelow: 0.1}}
		g := newTestGrid(t, opts, rec, &drivers.Greedy{})
		for i := 0; i < 150; i++ {
			g.Tick()
		}
		return rec.states
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("state counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Fatalf("snapshots diverge at tick %d", i)
		}
	}
}

func TestCallbackPanicPropagates(t *testing.T) {
	d := &funcDriver{get: func(*core.GridState) core.Action {
		panic("driver bug")
	}}
	g := newTestGrid(t, baseOpts(), d)

	defer func() {
		if recover() == nil {
			t.Error("driver panic should propagate out of Tick")
		}
	}()
	g.Tick()
}

func TestDistanceOracleAndDimensions(t *testing.T) {
	g := newTestGrid(t, baseOpts())
	w, h := g.Dimensions()
	if w != 15 || h != 10 {
		t.Errorf("dimensions = %dx%d", w, h)
	}
	a := core.Position{RoadSection: core.RoadSection{Direction: core.Right, RoadIndex: 0, SectionIndex: 0}}
	b := core.Position{RoadSection: core.RoadSection{Direction: core.Up, RoadIndex: 5, SectionIndex: 5}}
	if g.Distance(a, b) != g.Distance(b, a) {
		t.Error("distance oracle must be symmetric")
	}
	if g.Distance(a, a) != 0 {
		t.Error("distance to self must be zero")
	}
}
