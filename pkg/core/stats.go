// pkg/core/stats.go
package core

import (
	"strconv"
	"strings"
)

// Stats accumulates counters over the lifetime of one grid instance.
type Stats struct {
	Ticks int

	PassengerSpawns   int
	PassengerPickups  int
	PassengerDropoffs int

	PickUpRequests      int
	DropOffRequests     int
	ChargeRequests      int
	HeadTowardsRequests int
	InvalidActions      int

	EnterChargingStations int
	OutOfBattery          int

	// TicksWithNPassengers[n] counts car-ticks spent carrying exactly n
	// passengers. Length is PassengersPerCar+1.
	TicksWithNPassengers []int
}

// CSVHeader returns the header row for CSV export of stats snapshots.
func (s Stats) CSVHeader() string {
	cols := []string{
		"ticks",
		"passenger_spawns",
		"passenger_pickups",
		"passenger_dropoffs",
		"pick_up_requests",
		"drop_off_requests",
		"charge_requests",
		"head_towards_requests",
		"invalid_actions",
		"enter_charging_stations",
		"out_of_battery",
	}
	for n := range s.TicksWithNPassengers {
		cols = append(cols, "ticks_with_"+strconv.Itoa(n)+"_passengers")
	}
	return strings.Join(cols, ",")
}

// CSVRow returns one CSV row matching CSVHeader.
func (s Stats) CSVRow() string {
	vals := []string{
		strconv.Itoa(s.Ticks),
		strconv.Itoa(s.PassengerSpawns),
		strconv.Itoa(s.PassengerPickups),
		strconv.Itoa(s.PassengerDropoffs),
		strconv.Itoa(s.PickUpRequests),
		strconv.Itoa(s.DropOffRequests),
		strconv.Itoa(s.ChargeRequests),
		strconv.Itoa(s.HeadTowardsRequests),
		strconv.Itoa(s.InvalidActions),
		strconv.Itoa(s.EnterChargingStations),
		strconv.Itoa(s.OutOfBattery),
	}
	for _, n := range s.TicksWithNPassengers {
		vals = append(vals, strconv.Itoa(n))
	}
	return strings.Join(vals, ",")
}
