// Package recorder drains simulation events and per-tick stats from the
// dispatcher into a storage backend. It owns the backend lifecycle: Start
// initializes the backend and opens an episode, Stop drains what is left,
// finalizes the episode and closes the backend.
package recorder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gridcab/engine/internal/dispatcher"
	"github.com/gridcab/engine/internal/queue"
	"github.com/gridcab/engine/internal/storage"
	"github.com/gridcab/engine/pkg/core"
)

// drainInterval is how often the drain goroutine empties the event queue.
const drainInterval = 100 * time.Millisecond

// Recorder buffers dispatched events and writes them to a storage backend
// from its own goroutine, keeping backend latency out of the tick loop.
type Recorder struct {
	backend storage.Backend
	log     *slog.Logger

	q       *queue.Queue[dispatcher.Event]
	stop    chan struct{}
	done    chan struct{}
	episode *core.Episode
}

// New creates a recorder writing to the given backend.
func New(backend storage.Backend, log *slog.Logger) *Recorder {
	return &Recorder{
		backend: backend,
		log:     log,
		q:       queue.New[dispatcher.Event](),
	}
}

// recordedKinds are the event kinds the recorder subscribes to.
var recordedKinds = []string{
	dispatcher.KindPassengerSpawned,
	dispatcher.KindPassengerPickedUp,
	dispatcher.KindPassengerDroppedOff,
	dispatcher.KindCarOutOfBattery,
	dispatcher.KindTickStats,
}

// Attach registers the recorder's handlers on the dispatcher. The handlers
// only enqueue, so dispatch stays cheap for the tick loop.
func (r *Recorder) Attach(d *dispatcher.Dispatcher) {
	for _, kind := range recordedKinds {
		d.Register(kind, r.enqueue)
	}
}

func (r *Recorder) enqueue(e dispatcher.Event) (any, error) {
	r.q.Push(e)
	return nil, nil
}

// Start initializes the backend and opens a new episode with a fresh uuid.
func (r *Recorder) Start(name string, opts core.GridOpts) (*core.Episode, error) {
	if r.episode != nil {
		return nil, fmt.Errorf("episode %s already running", r.episode.ID)
	}

	if err := r.backend.Init(); err != nil {
		return nil, fmt.Errorf("backend init: %w", err)
	}

	ep := &core.Episode{
		ID:        uuid.NewString(),
		Name:      name,
		Seed:      opts.Seed,
		StartedAt: time.Now(),
		Opts:      opts,
	}
	if err := r.backend.StartEpisode(ep); err != nil {
		return nil, fmt.Errorf("start episode: %w", err)
	}

	r.episode = ep
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.drainLoop()

	if r.log != nil {
		r.log.Info("Episode recording started", "episode", ep.ID, "name", ep.Name)
	}
	return ep, nil
}

// Stop drains outstanding events, finalizes the episode and closes the
// backend.
func (r *Recorder) Stop(finalStats core.Stats) error {
	if r.episode == nil {
		return fmt.Errorf("no episode running")
	}

	close(r.stop)
	<-r.done
	r.drain()

	if err := r.backend.EndEpisode(finalStats); err != nil {
		return fmt.Errorf("end episode: %w", err)
	}
	if err := r.backend.Close(); err != nil {
		return fmt.Errorf("backend close: %w", err)
	}

	if r.log != nil {
		r.log.Info("Episode recording stopped", "episode", r.episode.ID,
			"ticks", finalStats.Ticks)
	}
	r.episode = nil
	return nil
}

func (r *Recorder) drainLoop() {
	defer close(r.done)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.drain()
		}
	}
}

// drain empties the queue into the backend.
func (r *Recorder) drain() {
	for _, e := range r.q.GetAndEmpty() {
		if err := r.record(e); err != nil && r.log != nil {
			r.log.Error("Failed to record event", "kind", e.Kind, "error", err)
		}
	}
}

func (r *Recorder) record(e dispatcher.Event) error {
	switch payload := e.Payload.(type) {
	case core.SpawnEvent:
		return r.backend.RecordSpawn(payload)
	case core.PickupEvent:
		return r.backend.RecordPickup(payload)
	case core.DropoffEvent:
		return r.backend.RecordDropoff(payload)
	case core.OutOfBatteryEvent:
		return r.backend.RecordOutOfBattery(payload)
	case core.Stats:
		return r.backend.RecordTickStats(e.Tick, payload)
	default:
		return fmt.Errorf("unexpected payload %T for kind %s", e.Payload, e.Kind)
	}
}
