// internal/storage/memory/memory.go
package memory

import (
	"log/slog"
	"sync"

	"github.com/gridcab/engine/internal/config"
	"github.com/gridcab/engine/pkg/core"
)

// StatsSample is one per-tick snapshot of the cumulative counters.
type StatsSample struct {
	Tick  int        `json:"tick"`
	Stats core.Stats `json:"stats"`
}

// Backend stores episode data in memory and exports to JSON on EndEpisode.
type Backend struct {
	cfg config.MemoryConfig
	log *slog.Logger

	episode *core.Episode

	statsSamples []StatsSample
	spawns       []core.SpawnEvent
	pickups      []core.PickupEvent
	dropoffs     []core.DropoffEvent
	outOfBattery []core.OutOfBatteryEvent
	finalStats   core.Stats

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig, log *slog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartEpisode begins recording a new episode.
func (b *Backend) StartEpisode(ep *core.Episode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.episode = ep

	// Reset all collections
	b.statsSamples = nil
	b.spawns = nil
	b.pickups = nil
	b.dropoffs = nil
	b.outOfBattery = nil
	b.finalStats = core.Stats{}

	return nil
}

// EndEpisode finalizes and exports the episode data.
func (b *Backend) EndEpisode(finalStats core.Stats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finalStats = finalStats
	return b.exportJSON()
}

// RecordTickStats records a per-tick stats snapshot.
func (b *Backend) RecordTickStats(tick int, stats core.Stats) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statsSamples = append(b.statsSamples, StatsSample{Tick: tick, Stats: stats})
	return nil
}

// RecordSpawn records a passenger spawn event.
func (b *Backend) RecordSpawn(e core.SpawnEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spawns = append(b.spawns, e)
	return nil
}

// RecordPickup records a pickup event.
func (b *Backend) RecordPickup(e core.PickupEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pickups = append(b.pickups, e)
	return nil
}

// RecordDropoff records a dropoff event.
func (b *Backend) RecordDropoff(e core.DropoffEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropoffs = append(b.dropoffs, e)
	return nil
}

// RecordOutOfBattery records an out-of-battery event.
func (b *Backend) RecordOutOfBattery(e core.OutOfBatteryEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outOfBattery = append(b.outOfBattery, e)
	return nil
}

// ExportedFilePath returns the path of the last exported episode file.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
