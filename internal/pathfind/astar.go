// Package pathfind plans directed routes through the road network. Unlike
// the symmetric distance oracle in topology, routes here respect one-way
// travel: the cost from A to B and from B to A can differ.
package pathfind

import (
	"container/heap"

	"github.com/gridcab/engine/internal/topology"
	"github.com/gridcab/engine/pkg/core"
)

// Path is a directed route between two road sections. Sections holds every
// section from start to goal inclusive; Cost is the number of section
// transitions.
type Path struct {
	Sections []core.RoadSection
	Cost     int
}

// NextDecision returns the decision to take at the current (first) section,
// or false once the path is exhausted.
func (p *Path) NextDecision(t topology.Topology) (core.Decision, bool) {
	if len(p.Sections) < 2 {
		return 0, false
	}
	return t.DecisionTo(p.Sections[0], p.Sections[1])
}

// Advance drops the first section after it has been traversed.
func (p *Path) Advance() {
	if len(p.Sections) > 0 {
		p.Sections = p.Sections[1:]
	}
}

type node struct {
	section core.RoadSection
	fScore  int
	index   int
}

type openSet struct {
	nodes []*node
	pos   map[core.RoadSection]*node
}

func newOpenSet() *openSet {
	return &openSet{pos: make(map[core.RoadSection]*node)}
}

func (q *openSet) Len() int { return len(q.nodes) }

func (q *openSet) Less(i, j int) bool { return q.nodes[i].fScore < q.nodes[j].fScore }

func (q *openSet) Swap(i, j int) {
	q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i]
	q.nodes[i].index = i
	q.nodes[j].index = j
}

func (q *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(q.nodes)
	q.nodes = append(q.nodes, n)
	q.pos[n.section] = n
}

func (q *openSet) Pop() any {
	old := q.nodes
	n := old[len(old)-1]
	old[len(old)-1] = nil
	q.nodes = old[:len(old)-1]
	delete(q.pos, n.section)
	return n
}

func (q *openSet) upsert(s core.RoadSection, fScore int) {
	if n, ok := q.pos[s]; ok {
		if fScore < n.fScore {
			n.fScore = fScore
			heap.Fix(q, n.index)
		}
		return
	}
	heap.Push(q, &node{section: s, fScore: fScore})
}

// FindPath runs A* from start to goal over the directed section graph.
// Every transition costs 1 and the checkerboard Manhattan distance serves
// as the heuristic. Returns false when the goal is unreachable, which on a
// valid topology only happens for invalid input sections.
func FindPath(t topology.Topology, start, goal core.RoadSection) (Path, bool) {
	if t.CheckSection(start) != nil || t.CheckSection(goal) != nil {
		return Path{}, false
	}
	if start == goal {
		return Path{Sections: []core.RoadSection{start}}, true
	}

	open := newOpenSet()
	heap.Push(open, &node{section: start, fScore: t.SectionDistance(start, goal)})

	cameFrom := make(map[core.RoadSection]core.RoadSection)
	gScore := map[core.RoadSection]int{start: 0}

	for open.Len() > 0 {
		current := heap.Pop(open).(*node).section
		if current == goal {
			return reconstruct(cameFrom, current, gScore[current]), true
		}

		for _, d := range t.PossibleDecisions(current) {
			next, ok := t.TakeDecision(current, d)
			if !ok {
				continue
			}
			tentative := gScore[current] + 1
			if g, seen := gScore[next]; seen && tentative >= g {
				continue
			}
			cameFrom[next] = current
			gScore[next] = tentative
			open.upsert(next, tentative+t.SectionDistance(next, goal))
		}
	}
	return Path{}, false
}

func reconstruct(cameFrom map[core.RoadSection]core.RoadSection, current core.RoadSection, cost int) Path {
	sections := []core.RoadSection{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		sections = append(sections, prev)
		current = prev
	}
	for i, j := 0, len(sections)-1; i < j; i, j = i+1, j-1 {
		sections[i], sections[j] = sections[j], sections[i]
	}
	return Path{Sections: sections, Cost: cost}
}

// RouteCost is the directed travel cost in section transitions, or false
// when no route exists.
func RouteCost(t topology.Topology, from, to core.RoadSection) (int, bool) {
	p, ok := FindPath(t, from, to)
	if !ok {
		return 0, false
	}
	return p.Cost, true
}
