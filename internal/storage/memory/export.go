// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridcab/engine/pkg/core"
)

// EpisodeExport is the root JSON structure written on EndEpisode.
type EpisodeExport struct {
	EpisodeID    string                   `json:"episodeId"`
	Name         string                   `json:"name"`
	Seed         int64                    `json:"seed"`
	StartedAt    string                   `json:"startedAt"`
	Opts         core.GridOpts            `json:"opts"`
	FinalStats   core.Stats               `json:"finalStats"`
	StatsSamples []StatsSample            `json:"statsSamples"`
	Spawns       []core.SpawnEvent        `json:"spawns"`
	Pickups      []core.PickupEvent       `json:"pickups"`
	Dropoffs     []core.DropoffEvent      `json:"dropoffs"`
	OutOfBattery []core.OutOfBatteryEvent `json:"outOfBattery"`
}

// exportJSON writes the episode data to a JSON file, gzipped when
// configured. Caller holds b.mu.
func (b *Backend) exportJSON() error {
	if b.episode == nil {
		return fmt.Errorf("no episode started")
	}

	export := b.buildExport()

	// Build filename
	name := strings.ReplaceAll(b.episode.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	if name == "" {
		name = "episode"
	}
	timestamp := b.episode.StartedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	if b.log != nil {
		b.log.Info("Episode exported", "path", outputPath,
			"ticks", export.FinalStats.Ticks, "dropoffs", export.FinalStats.PassengerDropoffs)
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() EpisodeExport {
	export := EpisodeExport{
		EpisodeID:    b.episode.ID,
		Name:         b.episode.Name,
		Seed:         b.episode.Seed,
		StartedAt:    b.episode.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Opts:         b.episode.Opts,
		FinalStats:   b.finalStats,
		StatsSamples: b.statsSamples,
		Spawns:       b.spawns,
		Pickups:      b.pickups,
		Dropoffs:     b.dropoffs,
		OutOfBattery: b.outOfBattery,
	}

	// Empty slices serialize as [] rather than null
	if export.StatsSamples == nil {
		export.StatsSamples = []StatsSample{}
	}
	if export.Spawns == nil {
		export.Spawns = []core.SpawnEvent{}
	}
	if export.Pickups == nil {
		export.Pickups = []core.PickupEvent{}
	}
	if export.Dropoffs == nil {
		export.Dropoffs = []core.DropoffEvent{}
	}
	if export.OutOfBattery == nil {
		export.OutOfBattery = []core.OutOfBatteryEvent{}
	}

	return export
}

func writeJSON(path string, export EpisodeExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, export EpisodeExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(export); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return nil
}
