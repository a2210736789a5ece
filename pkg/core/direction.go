// pkg/core/direction.go
package core

// Orientation is the axis a road runs along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Other returns the perpendicular orientation.
func (o Orientation) Other() Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Direction is a direction of travel along a road. The grid origin (0,0)
// is the top-left corner, so Down and Right move towards positive
// coordinates.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = map[Direction]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "invalid"
}

// Orientation returns the axis this direction travels along.
func (d Direction) Orientation() Orientation {
	if d == Up || d == Down {
		return Vertical
	}
	return Horizontal
}

// IsHorizontal reports whether the direction runs along a horizontal road.
func (d Direction) IsHorizontal() bool {
	return d.Orientation() == Horizontal
}

// TowardsPositive reports whether travel increases the coordinate on the
// direction's axis.
func (d Direction) TowardsPositive() bool {
	return d == Down || d == Right
}

// Offset is +1 for directions travelling towards positive coordinates and
// -1 otherwise.
func (d Direction) Offset() int {
	if d.TowardsPositive() {
		return 1
	}
	return -1
}

// Clockwise returns the direction after a right turn.
func (d Direction) Clockwise() Direction {
	switch d {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	default:
		return Up
	}
}

// Counterclockwise returns the direction after a left turn.
func (d Direction) Counterclockwise() Direction {
	switch d {
	case Up:
		return Left
	case Left:
		return Down
	case Down:
		return Right
	default:
		return Up
	}
}

// Inverted returns the opposite direction of travel.
func (d Direction) Inverted() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Directions lists all four directions in a fixed order.
func Directions() [4]Direction {
	return [4]Direction{Up, Down, Left, Right}
}
