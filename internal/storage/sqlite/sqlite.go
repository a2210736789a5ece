// Package sqlitestorage implements the episode recording backend using a
// SQLite database via the pure-Go driver. It wraps the GORM backend via
// composition; the only SQLite-specific concerns are (a) opening the file
// or in-memory DB and (b) the periodic disk dump when running in memory.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gridcab/engine/internal/config"
	"github.com/gridcab/engine/internal/database"
	"github.com/gridcab/engine/internal/storage/gormstore"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *slog.Logger
	inMemory bool
	stopChan chan struct{}
}

// New creates a new SQLite storage backend. An empty cfg.Path keeps the
// database in memory and dumps it to cfg.DumpPath every cfg.DumpInterval.
func New(cfg config.SQLiteConfig, log *slog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstore.New(gormstore.Dependencies{DB: db, Log: log}),
		db:       db,
		cfg:      cfg,
		log:      log,
		inMemory: cfg.Path == "",
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine
// when running in memory.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.inMemory && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and
// writes a final dump when running in memory.
func (b *Backend) Close() error {
	close(b.stopChan)
	if err := b.Backend.Close(); err != nil {
		return err
	}

	if b.inMemory && b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			return fmt.Errorf("final dump failed: %w", err)
		}
	}
	return nil
}

// dumpLoop periodically dumps the in-memory database to disk via VACUUM
// INTO. VACUUM INTO creates a point-in-time snapshot, so no pause mechanism
// is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "elapsed", time.Since(start))
			}
		}
	}
}
