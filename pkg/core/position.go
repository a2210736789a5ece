// pkg/core/position.go
package core

import "fmt"

// RoadSection identifies one one-way lane segment between two intersections.
// RoadIndex counts roads along the section's orientation; SectionIndex counts
// segments along the road. Each physical road segment is represented by two
// RoadSections, one per direction of travel.
type RoadSection struct {
	Direction    Direction
	RoadIndex    int
	SectionIndex int
}

func (s RoadSection) String() string {
	return fmt.Sprintf("%s road %d section %d", s.Direction, s.RoadIndex, s.SectionIndex)
}

// Position is a car-addressable slot on the grid: a road section plus a
// discrete slot index along it. Higher PositionInSection is further along
// the direction of travel.
type Position struct {
	RoadSection
	PositionInSection int
}

func (p Position) String() string {
	return fmt.Sprintf("%s slot %d", p.RoadSection, p.PositionInSection)
}

// SameSlot reports whether two positions refer to the same physical slot
// travelling the same way.
func (p Position) SameSlot(other Position) bool {
	return p == other
}

// Decision is a turn choice a car makes when it reaches the end of a road
// section.
type Decision int

const (
	GoStraight Decision = iota
	TurnLeft
	TurnRight
)

func (d Decision) String() string {
	switch d {
	case GoStraight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	default:
		return "invalid"
	}
}
