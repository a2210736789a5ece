package engine

import (
	"testing"

	"github.com/gridcab/engine/pkg/core"
)

func TestSnapshotPOVExtraction(t *testing.T) {
	opts := baseOpts()
	opts.NPCCarCount = 3
	g := newTestGrid(t, opts, headRight())

	base := g.snapshot(core.TickEvents{})
	state := g.withPOV(base, g.cars[0])

	if state.POV == nil || state.POV.ID != g.cars[0].id {
		t.Fatal("POV car missing or wrong")
	}
	if len(state.OtherCars) != 3 {
		t.Fatalf("other cars = %d, want 3", len(state.OtherCars))
	}
	for _, c := range state.OtherCars {
		if c.ID == state.POV.ID {
			t.Fatal("POV car still listed under other cars")
		}
	}
	if w, h := g.Dimensions(); state.Width != w || state.Height != h {
		t.Errorf("snapshot dimensions %dx%d", state.Width, state.Height)
	}
}

func TestSnapshotSortsAndWindows(t *testing.T) {
	opts := baseOpts()
	opts.NPCCarCount = 8
	opts.InitialPassengerCount = 9
	opts.CarRadius = 4
	opts.PassengerRadius = 3
	g := newTestGrid(t, opts, headRight())

	base := g.snapshot(core.TickEvents{})
	state := g.withPOV(base, g.cars[0])

	if len(state.OtherCars) != 4 {
		t.Fatalf("car window = %d, want 4", len(state.OtherCars))
	}
	if len(state.IdlePassengers) != 3 {
		t.Fatalf("passenger window = %d, want 3", len(state.IdlePassengers))
	}
	for i := 1; i < len(state.OtherCars); i++ {
		di := g.Distance(g.cars[0].pos, state.OtherCars[i-1].Pos)
		dj := g.Distance(g.cars[0].pos, state.OtherCars[i].Pos)
		if di > dj {
			t.Fatal("other cars not sorted nearest-first")
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	opts := baseOpts()
	opts.InitialPassengerCount = 2
	g := newTestGrid(t, opts, headRight())

	base := g.snapshot(core.TickEvents{})
	state := g.withPOV(base, g.cars[0])
	posBefore := state.POV.Pos

	for i := 0; i < 20; i++ {
		g.Tick()
	}

	if state.POV.Pos != posBefore {
		t.Error("snapshot mutated by later ticks")
	}
	if state.TicksPassed != 0 {
		t.Error("snapshot tick counter changed")
	}
}

func TestSnapshotCanTurn(t *testing.T) {
	g := newTestGrid(t, baseOpts(), headRight())
	c := g.cars[0]

	mid := core.Position{
		RoadSection:       core.RoadSection{Direction: core.Right, RoadIndex: 1, SectionIndex: 1},
		PositionInSection: 0,
	}
	placeCar(g, c, mid)
	if state := g.withPOV(g.snapshot(core.TickEvents{}), c); state.CanTurn {
		t.Error("CanTurn mid-section")
	}

	end := mid
	end.PositionInSection = g.topo.MaxPositionInSection()
	placeCar(g, c, end)
	if state := g.withPOV(g.snapshot(core.TickEvents{}), c); !state.CanTurn {
		t.Error("CanTurn should be set at the end of a section")
	}
}

func TestSnapshotCarriesEvents(t *testing.T) {
	opts := baseOpts()
	opts.PassengerSpawnRate = 1.0
	opts.MaxPassengers = 3

	var preEvents, postEvents []core.TickEvents
	d := &funcDriver{
		get: func(s *core.GridState) core.Action {
			preEvents = append(preEvents, s.Events)
			return core.HeadTowards(core.Right, 0)
		},
		transition: func(_, new *core.GridState) {
			postEvents = append(postEvents, new.Events)
		},
	}
	g := newTestGrid(t, opts, d)

	g.Tick()
	g.Tick()

	// tick 0 spawns three passengers, visible post-tick
	if len(postEvents[0].Spawned) != 3 {
		t.Fatalf("post-tick 0 spawn events = %d, want 3", len(postEvents[0].Spawned))
	}
	// the pre-tick snapshot of tick 0 predates any event
	if !preEvents[0].Empty() {
		t.Error("pre-tick 0 should carry no events")
	}
	// tick 1's pre-tick snapshot carries tick 0's events
	if len(preEvents[1].Spawned) != 3 {
		t.Errorf("pre-tick 1 spawn events = %d, want 3", len(preEvents[1].Spawned))
	}
	_ = g
}
