// pkg/core/state.go
package core

// GridState is the observation snapshot handed to a driver, built from the
// point of view of one agent car. It is a copy: it does not track later
// mutations and must not be held across ticks as a live handle.
//
// OtherCars and IdlePassengers are sorted nearest-first relative to the POV
// car and windowed to CarRadius/PassengerRadius entries. The windowing only
// limits what the observation surfaces; the simulation itself is unaffected.
type GridState struct {
	Opts GridOpts

	Width  int
	Height int

	POV *Car

	// CanTurn reports whether the POV car reaches the end of its section
	// this tick, i.e. whether a direction choice takes effect now.
	CanTurn bool

	// ActionInvalid reports whether the POV car's most recent action was
	// rejected and downgraded to continue-heading.
	ActionInvalid bool

	OtherCars        []Car
	IdlePassengers   []Passenger
	ChargingStations []ChargingStation

	TicksPassed int
	Events      TickEvents
}

// Driver supplies actions for one agent car and observes the outcome.
// The engine calls both methods synchronously from inside Tick, once per
// tick, always from the same goroutine. A slow driver slows the tick; a
// panicking driver aborts it.
type Driver interface {
	// GetAction returns the car's action for this tick given the
	// pre-tick state.
	GetAction(state *GridState) Action

	// TransitionHappened delivers the pre- and post-tick states after the
	// tick has fully resolved. old is the same snapshot GetAction saw.
	TransitionHappened(old, new *GridState)
}
