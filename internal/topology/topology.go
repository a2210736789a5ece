// Package topology models the static road network: a lattice of one-way
// road sections addressable by (direction, road index, section index), with
// the turning rules that connect them. All geometry questions (validity,
// possible turns, checkerboard coordinates, Manhattan distance) are
// answered here; the package holds no mutable simulation state.
package topology

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/gridcab/engine/pkg/core"
)

// Default grid shape, matching the classic 10x15 downtown layout.
const (
	DefaultHorizontalRoads = 10
	DefaultVerticalRoads   = 15
	DefaultSectionSlots    = 5
)

// Topology is the immutable shape of the road network.
type Topology struct {
	HorizontalRoads int
	VerticalRoads   int
	SectionSlots    int
}

// Default returns the standard grid shape.
func Default() Topology {
	return Topology{
		HorizontalRoads: DefaultHorizontalRoads,
		VerticalRoads:   DefaultVerticalRoads,
		SectionSlots:    DefaultSectionSlots,
	}
}

// Validate checks the shape is usable. Two roads per orientation is the
// minimum for every section to have at least one legal decision.
func (t Topology) Validate() error {
	if t.HorizontalRoads < 2 || t.VerticalRoads < 2 {
		return fmt.Errorf("%w: need at least 2 roads per orientation, got %dx%d",
			core.ErrInvalidConfig, t.HorizontalRoads, t.VerticalRoads)
	}
	if t.SectionSlots < 1 {
		return fmt.Errorf("%w: section slots %d", core.ErrInvalidConfig, t.SectionSlots)
	}
	return nil
}

// Dimensions returns the logical (width, height) of the grid: the number of
// vertical roads spans the width, horizontal roads the height.
func (t Topology) Dimensions() (width, height int) {
	return t.VerticalRoads, t.HorizontalRoads
}

// MaxRoadIndex is the highest road index for a direction of travel.
func (t Topology) MaxRoadIndex(d core.Direction) int {
	if d.IsHorizontal() {
		return t.HorizontalRoads - 1
	}
	return t.VerticalRoads - 1
}

// MaxSectionIndex is the highest section index for a direction of travel.
// Sections sit between crossing roads, so there is one fewer section than
// crossing roads.
func (t Topology) MaxSectionIndex(d core.Direction) int {
	if d.IsHorizontal() {
		return t.VerticalRoads - 2
	}
	return t.HorizontalRoads - 2
}

// MaxPositionInSection is the highest slot index within any section.
func (t Topology) MaxPositionInSection() int {
	return t.SectionSlots - 1
}

// CheckSection reports whether a road section exists.
func (t Topology) CheckSection(s core.RoadSection) error {
	if s.RoadIndex < 0 || s.RoadIndex > t.MaxRoadIndex(s.Direction) {
		return fmt.Errorf("road %d going %s doesn't exist (max %d)",
			s.RoadIndex, s.Direction, t.MaxRoadIndex(s.Direction))
	}
	if s.SectionIndex < 0 || s.SectionIndex > t.MaxSectionIndex(s.Direction) {
		return fmt.Errorf("section %d going %s doesn't exist (max %d)",
			s.SectionIndex, s.Direction, t.MaxSectionIndex(s.Direction))
	}
	return nil
}

// CheckPosition reports whether a position addresses a real slot.
func (t Topology) CheckPosition(p core.Position) error {
	if err := t.CheckSection(p.RoadSection); err != nil {
		return err
	}
	if p.PositionInSection < 0 || p.PositionInSection > t.MaxPositionInSection() {
		return fmt.Errorf("slot %d outside section (max %d)",
			p.PositionInSection, t.MaxPositionInSection())
	}
	return nil
}

// GoStraight returns the next section continuing in the same direction, or
// false at the edge of the grid.
func (t Topology) GoStraight(s core.RoadSection) (core.RoadSection, bool) {
	next := core.RoadSection{
		Direction:    s.Direction,
		RoadIndex:    s.RoadIndex,
		SectionIndex: s.SectionIndex + s.Direction.Offset(),
	}
	if t.CheckSection(next) != nil {
		return core.RoadSection{}, false
	}
	return next, true
}

// Turn returns the section entered by turning right (or left) at the end of
// s, or false when the turn leaves the grid. After a turn the old section
// index becomes the new road index and vice versa, each shifted by whether
// the direction of travel runs towards positive coordinates.
func (t Topology) Turn(s core.RoadSection, right bool) (core.RoadSection, bool) {
	newDir := s.Direction.Counterclockwise()
	if right {
		newDir = s.Direction.Clockwise()
	}

	newRoadIndex := s.SectionIndex
	if s.Direction.TowardsPositive() {
		newRoadIndex++
	}
	if newRoadIndex < 0 || newRoadIndex > t.MaxRoadIndex(newDir) {
		return core.RoadSection{}, false
	}

	newSectionIndex := s.RoadIndex
	if !newDir.TowardsPositive() {
		newSectionIndex--
	}
	if newSectionIndex < 0 || newSectionIndex > t.MaxSectionIndex(newDir) {
		return core.RoadSection{}, false
	}

	return core.RoadSection{
		Direction:    newDir,
		RoadIndex:    newRoadIndex,
		SectionIndex: newSectionIndex,
	}, true
}

// TakeDecision applies a turn decision at the end of a section.
func (t Topology) TakeDecision(s core.RoadSection, d core.Decision) (core.RoadSection, bool) {
	switch d {
	case core.GoStraight:
		return t.GoStraight(s)
	case core.TurnRight:
		return t.Turn(s, true)
	case core.TurnLeft:
		return t.Turn(s, false)
	default:
		return core.RoadSection{}, false
	}
}

// PossibleDecisions lists the legal decisions at the end of a section, in a
// fixed order. Every section on a valid topology has at least one.
func (t Topology) PossibleDecisions(s core.RoadSection) []core.Decision {
	out := make([]core.Decision, 0, 3)
	for _, d := range []core.Decision{core.GoStraight, core.TurnLeft, core.TurnRight} {
		if _, ok := t.TakeDecision(s, d); ok {
			out = append(out, d)
		}
	}
	return out
}

// DecisionTo finds the decision that moves from s to the adjacent section
// target, if one exists.
func (t Topology) DecisionTo(s, target core.RoadSection) (core.Decision, bool) {
	for _, d := range t.PossibleDecisions(s) {
		if next, ok := t.TakeDecision(s, d); ok && next == target {
			return d, true
		}
	}
	return 0, false
}

// AllSections enumerates every road section in a stable order: horizontal
// roads first, then vertical, ascending indexes, both directions per
// segment.
func (t Topology) AllSections() []core.RoadSection {
	var all []core.RoadSection
	for road := 0; road < t.HorizontalRoads; road++ {
		for section := 0; section < t.VerticalRoads-1; section++ {
			for _, dir := range []core.Direction{core.Left, core.Right} {
				all = append(all, core.RoadSection{Direction: dir, RoadIndex: road, SectionIndex: section})
			}
		}
	}
	for road := 0; road < t.VerticalRoads; road++ {
		for section := 0; section < t.HorizontalRoads-1; section++ {
			for _, dir := range []core.Direction{core.Up, core.Down} {
				all = append(all, core.RoadSection{Direction: dir, RoadIndex: road, SectionIndex: section})
			}
		}
	}
	return all
}

// CheckerboardCoords projects a section onto plain (x, y) grid coordinates,
// ignoring direction of travel. A section sits between two crossing roads,
// so its coordinate along the road is offset by 0.5.
func (t Topology) CheckerboardCoords(s core.RoadSection) (x, y float64) {
	section := float64(s.SectionIndex) + 0.5
	road := float64(s.RoadIndex)
	if s.Direction.IsHorizontal() {
		return section, road
	}
	return road, section
}

// halfCoords is CheckerboardCoords doubled so the .5 offsets stay integral.
func (t Topology) halfCoords(s core.RoadSection) (x, y int) {
	section := 2*s.SectionIndex + 1
	road := 2 * s.RoadIndex
	if s.Direction.IsHorizontal() {
		return section, road
	}
	return road, section
}

// Distance is the Manhattan distance between two positions over the
// checkerboard projection, in half-block units. It ignores one-way
// restrictions, which makes it symmetric and a valid metric; directed
// route length lives in the pathfind package.
func (t Topology) Distance(a, b core.Position) int {
	ax, ay := t.halfCoords(a.RoadSection)
	bx, by := t.halfCoords(b.RoadSection)

	dx := ax - bx
	if dx < 0 {
		dx = -dx
	}
	dy := ay - by
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// SectionDistance is Distance between section midpoints, used as the A*
// heuristic. Unit steps in the section graph move two half-blocks, so the
// heuristic is halved to stay admissible.
func (t Topology) SectionDistance(a, b core.RoadSection) int {
	return t.Distance(core.Position{RoadSection: a}, core.Position{RoadSection: b}) / 2
}

// WrapRect resolves negative rectangle coordinates against the far edges of
// the grid.
func (t Topology) WrapRect(r core.Rect) core.Rect {
	maxX := float64(t.VerticalRoads - 1)
	maxY := float64(t.HorizontalRoads - 1)
	wrap := func(v, max float64) float64 {
		if math.Signbit(v) {
			return max + v
		}
		return v
	}
	return core.Rect{
		X1: wrap(r.X1, maxX),
		Y1: wrap(r.Y1, maxY),
		X2: wrap(r.X2, maxX),
		Y2: wrap(r.Y2, maxY),
	}
}

// RandomSection draws a uniformly random road section.
func (t Topology) RandomSection(rng *rand.Rand) core.RoadSection {
	dir := core.Directions()[rng.Intn(4)]
	return core.RoadSection{
		Direction:    dir,
		RoadIndex:    rng.Intn(t.MaxRoadIndex(dir) + 1),
		SectionIndex: rng.Intn(t.MaxSectionIndex(dir) + 1),
	}
}

// RandomPosition draws a uniformly random slot.
func (t Topology) RandomPosition(rng *rand.Rand) core.Position {
	return core.Position{
		RoadSection:       t.RandomSection(rng),
		PositionInSection: rng.Intn(t.SectionSlots),
	}
}

// RandomSectionIn draws a random section whose checkerboard coordinates lie
// inside the (already wrapped) rectangle. Returns false when the area is
// too small to hit after a bounded number of tries.
func (t Topology) RandomSectionIn(rng *rand.Rand, r core.Rect) (core.RoadSection, bool) {
	for i := 0; i < 1000; i++ {
		s := t.RandomSection(rng)
		x, y := t.CheckerboardCoords(s)
		if x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2 {
			return s, true
		}
	}
	return core.RoadSection{}, false
}
