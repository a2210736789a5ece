// internal/storage/gormstore/models.go
package gormstore

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Models is the list of structs representing tables in the database schema.
var Models = []interface{}{
	&Episode{},
	&TickStats{},
	&EpisodeEvent{},
}

// Episode is one recorded simulation run.
type Episode struct {
	gorm.Model
	EpisodeID  string `gorm:"uniqueIndex;size:36"`
	Name       string `gorm:"size:255"`
	Seed       int64
	StartedAt  time.Time
	EndedAt    *time.Time
	Opts       datatypes.JSON
	FinalStats datatypes.JSON
}

// TickStats is one per-tick snapshot of the cumulative counters.
type TickStats struct {
	ID        uint `gorm:"primarykey"`
	EpisodeID uint `gorm:"index"`
	Tick      int

	PassengerSpawns   int
	PassengerPickups  int
	PassengerDropoffs int
	InvalidActions    int
	OutOfBattery      int

	// Full counter set, including the per-occupancy histogram
	Stats datatypes.JSON
}

// EpisodeEvent is one simulation event row. Kind matches the dispatcher
// event kinds; Payload holds the full event JSON.
type EpisodeEvent struct {
	ID          uint `gorm:"primarykey"`
	EpisodeID   uint `gorm:"index"`
	Tick        int
	Kind        string `gorm:"size:64;index"`
	CarID       int
	PassengerID int
	Payload     datatypes.JSON
}
