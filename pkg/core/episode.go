// pkg/core/episode.go
package core

import "time"

// Episode describes one recorded simulation run.
type Episode struct {
	ID        string // assigned by the recorder
	Name      string
	Seed      int64
	StartedAt time.Time
	Opts      GridOpts
}
