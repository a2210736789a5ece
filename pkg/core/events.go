// pkg/core/events.go
package core

// SpawnEvent records a passenger appearing on the grid.
type SpawnEvent struct {
	Tick      int
	Passenger Passenger
	Pos       Position
}

// PickupEvent records a car collecting an idle passenger.
type PickupEvent struct {
	Tick      int
	Car       CarID
	Passenger Passenger
	Pos       Position
}

// DropoffEvent records a car delivering a passenger at its destination.
// The passenger no longer exists in the simulation after this event.
type DropoffEvent struct {
	Tick      int
	Car       CarID
	Passenger Passenger
	Pos       Position
}

// OutOfBatteryEvent records a car's battery reaching zero. It fires once
// per depletion; the car stays frozen until charged.
type OutOfBatteryEvent struct {
	Tick int
	Car  CarID
	Pos  Position
}

// TickEvents collects everything that happened during one tick.
type TickEvents struct {
	Spawned      []SpawnEvent
	PickedUp     []PickupEvent
	DroppedOff   []DropoffEvent
	OutOfBattery []OutOfBatteryEvent
}

// Empty reports whether no events occurred.
func (e TickEvents) Empty() bool {
	return len(e.Spawned) == 0 && len(e.PickedUp) == 0 &&
		len(e.DroppedOff) == 0 && len(e.OutOfBattery) == 0
}

// Clone returns a copy whose slices do not alias the receiver's.
func (e TickEvents) Clone() TickEvents {
	return TickEvents{
		Spawned:      append([]SpawnEvent(nil), e.Spawned...),
		PickedUp:     append([]PickupEvent(nil), e.PickedUp...),
		DroppedOff:   append([]DropoffEvent(nil), e.DroppedOff...),
		OutOfBattery: append([]OutOfBatteryEvent(nil), e.OutOfBattery...),
	}
}
