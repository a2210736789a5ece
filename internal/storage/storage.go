// internal/storage/storage.go
package storage

import "github.com/gridcab/engine/pkg/core"

// Backend is the interface all episode recording backends must satisfy.
// Record methods are called from the recorder's drain goroutine.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Episode management
	StartEpisode(ep *core.Episode) error
	EndEpisode(finalStats core.Stats) error

	// Per-tick recording
	RecordTickStats(tick int, stats core.Stats) error

	// Event recording
	RecordSpawn(e core.SpawnEvent) error
	RecordPickup(e core.PickupEvent) error
	RecordDropoff(e core.DropoffEvent) error
	RecordOutOfBattery(e core.OutOfBatteryEvent) error
}

// Exporter is an optional interface for backends that write the finished
// episode to a file on EndEpisode.
type Exporter interface {
	ExportedFilePath() string
}
