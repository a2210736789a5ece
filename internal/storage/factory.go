// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/gridcab/engine/internal/config"
	"github.com/gridcab/engine/internal/storage/memory"
	"github.com/gridcab/engine/internal/storage/postgres"
	sqlitestorage "github.com/gridcab/engine/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.DB, log)
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, log)
	case "memory":
		return memory.New(cfg.Memory, log), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
