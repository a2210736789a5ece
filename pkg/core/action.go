// pkg/core/action.go
package core

import "fmt"

// ActionKind tags the variant of an Action.
type ActionKind int

const (
	ActionHeadTowards ActionKind = iota
	ActionPickUp
	ActionDropOff
	ActionCharge
)

func (k ActionKind) String() string {
	switch k {
	case ActionHeadTowards:
		return "head_towards"
	case ActionPickUp:
		return "pick_up"
	case ActionDropOff:
		return "drop_off"
	case ActionCharge:
		return "charge"
	default:
		return "invalid"
	}
}

// Action is one per-tick command for an agent car. RawIndex is an opaque
// value supplied by the driver (typically the index of the output neuron
// that produced the action); the engine round-trips it untouched so the
// learning layer can map actions back to its own encoding.
type Action struct {
	Kind      ActionKind
	Direction Direction   // ActionHeadTowards
	Passenger PassengerID // ActionPickUp, ActionDropOff
	Station   StationID   // ActionCharge
	RawIndex  int
}

func (a Action) String() string {
	switch a.Kind {
	case ActionHeadTowards:
		return fmt.Sprintf("head_towards(%s)", a.Direction)
	case ActionPickUp:
		return fmt.Sprintf("pick_up(%d)", a.Passenger)
	case ActionDropOff:
		return fmt.Sprintf("drop_off(%d)", a.Passenger)
	case ActionCharge:
		return fmt.Sprintf("charge(%d)", a.Station)
	default:
		return "invalid"
	}
}

// HeadTowards builds a movement action towards a compass direction.
func HeadTowards(d Direction, raw int) Action {
	return Action{Kind: ActionHeadTowards, Direction: d, RawIndex: raw}
}

// PickUp builds an action to collect an idle passenger.
func PickUp(p PassengerID, raw int) Action {
	return Action{Kind: ActionPickUp, Passenger: p, RawIndex: raw}
}

// DropOff builds an action to deliver a passenger riding in the car.
func DropOff(p PassengerID, raw int) Action {
	return Action{Kind: ActionDropOff, Passenger: p, RawIndex: raw}
}

// ChargeBattery builds an action to head to a charging station and charge.
func ChargeBattery(s StationID, raw int) Action {
	return Action{Kind: ActionCharge, Station: s, RawIndex: raw}
}
