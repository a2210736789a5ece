// pkg/core/entity.go
package core

// CarID identifies a car for the lifetime of one grid instance.
type CarID int

// PassengerID identifies a passenger for the lifetime of one grid instance.
type PassengerID int

// StationID identifies a charging station for the lifetime of one grid
// instance.
type StationID int

// CarKind distinguishes externally driven cars from autonomous ones.
type CarKind int

const (
	AgentCar CarKind = iota
	NPCCar
)

func (k CarKind) String() string {
	if k == AgentCar {
		return "agent"
	}
	return "npc"
}

// PassengerState is where a passenger currently is.
type PassengerState int

const (
	PassengerIdle PassengerState = iota
	PassengerRiding
)

// Passenger is a point-in-time view of one passenger. For idle passengers
// Pos is the pickup slot; for riding passengers it is the carrying car's
// position.
type Passenger struct {
	ID                    PassengerID
	Pos                   Position
	Destination           Position
	State                 PassengerState
	Riding                CarID // valid when State == PassengerRiding
	TicksSinceRequest     int
	DistanceToDestination int
}

// Car is a point-in-time view of one car. Passengers holds only riding
// passengers, in pickup order.
type Car struct {
	ID                     CarID
	Kind                   CarKind
	Pos                    Position
	Battery                float64
	Passengers             []Passenger
	RecentActions          []Action
	ActiveAction           *Action
	TicksSinceOutOfBattery int
	InStation              bool
}

// ChargingStation is a point-in-time view of one charging station.
type ChargingStation struct {
	ID        StationID
	Entrance  Position
	Capacity  int
	Rate      float64 // battery fraction restored per tick
	Occupants []CarID
}

// HasSpace reports whether another car fits in the station.
func (s ChargingStation) HasSpace() bool {
	return len(s.Occupants) < s.Capacity
}
