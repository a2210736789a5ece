package pathfind

import (
	"math/rand"
	"testing"

	"github.com/gridcab/engine/internal/topology"
	"github.com/gridcab/engine/pkg/core"
)

func TestFindPathTrivial(t *testing.T) {
	top := topology.Default()
	s := core.RoadSection{Direction: core.Right, RoadIndex: 3, SectionIndex: 4}
	p, ok := FindPath(top, s, s)
	if !ok || p.Cost != 0 || len(p.Sections) != 1 {
		t.Fatalf("path to self: %+v ok=%v", p, ok)
	}
	if _, ok := p.NextDecision(top); ok {
		t.Fatal("path to self should have no next decision")
	}
}

func TestFindPathStraight(t *testing.T) {
	top := topology.Default()
	start := core.RoadSection{Direction: core.Right, RoadIndex: 2, SectionIndex: 1}
	goal := core.RoadSection{Direction: core.Right, RoadIndex: 2, SectionIndex: 5}

	p, ok := FindPath(top, start, goal)
	if !ok {
		t.Fatal("no path found")
	}
	if p.Cost != 4 {
		t.Fatalf("cost = %d, want 4", p.Cost)
	}
	if d, ok := p.NextDecision(top); !ok || d != core.GoStraight {
		t.Fatalf("first decision = %v ok=%v, want straight", d, ok)
	}
}

func TestFindPathInvalidSections(t *testing.T) {
	top := topology.Default()
	bad := core.RoadSection{Direction: core.Right, RoadIndex: 99, SectionIndex: 0}
	good := core.RoadSection{Direction: core.Right, RoadIndex: 0, SectionIndex: 0}
	if _, ok := FindPath(top, bad, good); ok {
		t.Error("expected failure for invalid start")
	}
	if _, ok := FindPath(top, good, bad); ok {
		t.Error("expected failure for invalid goal")
	}
}

func TestPathsAreWalkable(t *testing.T) {
	// Every consecutive pair on a returned path must be connected by a
	// legal decision, and the path must start and end where asked.
	top := topology.Default()
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		start := top.RandomSection(rng)
		goal := top.RandomSection(rng)

		p, ok := FindPath(top, start, goal)
		if !ok {
			t.Fatalf("no path from %v to %v", start, goal)
		}
		if p.Sections[0] != start || p.Sections[len(p.Sections)-1] != goal {
			t.Fatalf("path endpoints %v..%v, want %v..%v",
				p.Sections[0], p.Sections[len(p.Sections)-1], start, goal)
		}
		if p.Cost != len(p.Sections)-1 {
			t.Fatalf("cost %d disagrees with %d sections", p.Cost, len(p.Sections))
		}
		for j := 0; j+1 < len(p.Sections); j++ {
			if _, ok := top.DecisionTo(p.Sections[j], p.Sections[j+1]); !ok {
				t.Fatalf("step %v -> %v is not a legal decision", p.Sections[j], p.Sections[j+1])
			}
		}
	}
}

func TestRouteCostAtLeastHeuristic(t *testing.T) {
	top := topology.Default()
	rng := rand.New(rand.NewSource(23))

	for i := 0; i < 100; i++ {
		from := top.RandomSection(rng)
		to := top.RandomSection(rng)
		cost, ok := RouteCost(top, from, to)
		if !ok {
			t.Fatalf("no route from %v to %v", from, to)
		}
		if h := top.SectionDistance(from, to); cost < h {
			t.Fatalf("route cost %d below heuristic %d for %v -> %v", cost, h, from, to)
		}
	}
}

func TestAdvanceWalksThePath(t *testing.T) {
	top := topology.Default()
	start := core.RoadSection{Direction: core.Down, RoadIndex: 0, SectionIndex: 0}
	goal := core.RoadSection{Direction: core.Up, RoadIndex: 5, SectionIndex: 3}

	p, ok := FindPath(top, start, goal)
	if !ok {
		t.Fatal("no path found")
	}

	current := start
	for steps := 0; ; steps++ {
		d, more := p.NextDecision(top)
		if !more {
			break
		}
		next, ok := top.TakeDecision(current, d)
		if !ok {
			t.Fatalf("decision %v illegal at %v", d, current)
		}
		current = next
		p.Advance()
		if steps > 1000 {
			t.Fatal("path did not terminate")
		}
	}
	if current != goal {
		t.Fatalf("walk ended at %v, want %v", current, goal)
	}
}
