// Package postgres implements the episode recording backend on a
// PostgreSQL server. It wraps the GORM backend via composition; the only
// Postgres-specific concerns are connecting and validating the connection.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/gridcab/engine/internal/config"
	"github.com/gridcab/engine/internal/database"
	"github.com/gridcab/engine/internal/storage/gormstore"
)

// Backend wraps the GORM backend for Postgres-specific behavior.
type Backend struct {
	*gormstore.Backend
}

// New creates a new Postgres storage backend and validates the connection.
func New(cfg config.DBConfig, log *slog.Logger) (*Backend, error) {
	db, err := database.OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return &Backend{
		Backend: gormstore.New(gormstore.Dependencies{DB: db, Log: log}),
	}, nil
}
