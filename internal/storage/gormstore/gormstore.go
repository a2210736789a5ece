// Package gormstore implements the episode recording backend on top of a
// GORM database handle, with internal queues and a background DB writer
// goroutine. The sqlite and postgres packages wrap it with driver-specific
// setup.
package gormstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gridcab/engine/internal/dispatcher"
	"github.com/gridcab/engine/internal/queue"
	"github.com/gridcab/engine/pkg/core"
)

// writeInterval is how often the DB writer drains the queues.
const writeInterval = 1 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB  *gorm.DB
	Log *slog.Logger
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	TickStats *queue.Queue[TickStats]
	Events    *queue.Queue[EpisodeEvent]
}

func newQueues() *queues {
	return &queues{
		TickStats: queue.New[TickStats](),
		Events:    queue.New[EpisodeEvent](),
	}
}

// Backend implements the storage backend using GORM with queue-based batch
// writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	episodeID atomic.Uint64
	stopChan  chan struct{}
	dbReady   bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database handle")
	}

	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.dbReady = true

	b.startDBWriter()
	return nil
}

// Close drains outstanding rows and stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		b.stopChan = nil
	}
	if b.dbReady {
		b.flush()
	}
	return nil
}

// StartEpisode inserts the episode row and remembers its ID for the writer.
func (b *Backend) StartEpisode(ep *core.Episode) error {
	opts, err := json.Marshal(ep.Opts)
	if err != nil {
		return fmt.Errorf("failed to encode grid options: %w", err)
	}

	row := Episode{
		EpisodeID: ep.ID,
		Name:      ep.Name,
		Seed:      ep.Seed,
		StartedAt: ep.StartedAt,
		Opts:      datatypes.JSON(opts),
	}
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}

	b.episodeID.Store(uint64(row.ID))
	return nil
}

// EndEpisode drains the queues and finalizes the episode row.
func (b *Backend) EndEpisode(finalStats core.Stats) error {
	b.flush()

	stats, err := json.Marshal(finalStats)
	if err != nil {
		return fmt.Errorf("failed to encode final stats: %w", err)
	}

	now := time.Now()
	err = b.deps.DB.Model(&Episode{}).
		Where("id = ?", uint(b.episodeID.Load())).
		Updates(map[string]interface{}{
			"ended_at":    &now,
			"final_stats": datatypes.JSON(stats),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to finalize episode: %w", err)
	}
	return nil
}

// RecordTickStats queues a per-tick stats snapshot.
func (b *Backend) RecordTickStats(tick int, stats core.Stats) error {
	full, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	b.queues.TickStats.Push(TickStats{
		Tick:              tick,
		PassengerSpawns:   stats.PassengerSpawns,
		PassengerPickups:  stats.PassengerPickups,
		PassengerDropoffs: stats.PassengerDropoffs,
		InvalidActions:    stats.InvalidActions,
		OutOfBattery:      stats.OutOfBattery,
		Stats:             datatypes.JSON(full),
	})
	return nil
}

// RecordSpawn queues a passenger spawn event.
func (b *Backend) RecordSpawn(e core.SpawnEvent) error {
	return b.queueEvent(dispatcher.KindPassengerSpawned, e.Tick, 0, int(e.Passenger.ID), e)
}

// RecordPickup queues a pickup event.
func (b *Backend) RecordPickup(e core.PickupEvent) error {
	return b.queueEvent(dispatcher.KindPassengerPickedUp, e.Tick, int(e.Car), int(e.Passenger.ID), e)
}

// RecordDropoff queues a dropoff event.
func (b *Backend) RecordDropoff(e core.DropoffEvent) error {
	return b.queueEvent(dispatcher.KindPassengerDroppedOff, e.Tick, int(e.Car), int(e.Passenger.ID), e)
}

// RecordOutOfBattery queues an out-of-battery event.
func (b *Backend) RecordOutOfBattery(e core.OutOfBatteryEvent) error {
	return b.queueEvent(dispatcher.KindCarOutOfBattery, e.Tick, int(e.Car), 0, e)
}

func (b *Backend) queueEvent(kind string, tick, carID, passengerID int, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", kind, err)
	}

	b.queues.Events.Push(EpisodeEvent{
		Tick:        tick,
		Kind:        kind,
		CarID:       carID,
		PassengerID: passengerID,
		Payload:     datatypes.JSON(data),
	})
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		if log != nil {
			log.Error("Error writing batch", "table", name, "error", err)
		}
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// flush drains both queues synchronously.
func (b *Backend) flush() {
	episodeID := uint(b.episodeID.Load())

	writeQueue(b.deps.DB, b.queues.TickStats, "tick_stats", b.deps.Log, func(rows []TickStats) {
		for i := range rows {
			rows[i].EpisodeID = episodeID
		}
	})
	writeQueue(b.deps.DB, b.queues.Events, "episode_events", b.deps.Log, func(rows []EpisodeEvent) {
		for i := range rows {
			rows[i].EpisodeID = episodeID
		}
	})
}

// startDBWriter starts the background goroutine that periodically drains
// the queues into the DB.
func (b *Backend) startDBWriter() {
	stop := b.stopChan
	go func() {
		ticker := time.NewTicker(writeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				b.flush()
			}
		}
	}()
}
