// internal/storage/memory/memory_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gridcab/engine/internal/config"
	"github.com/gridcab/engine/pkg/core"
)

func testEpisode() *core.Episode {
	return &core.Episode{
		ID:        "11111111-2222-3333-4444-555555555555",
		Name:      "test episode",
		Seed:      42,
		StartedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Opts:      core.GridOpts{MaxPassengers: 10, PassengersPerCar: 4},
	}
}

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg, nil)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{}, nil)

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestStartEpisodeResetsCollections(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, nil)

	if err := b.StartEpisode(testEpisode()); err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}
	if err := b.RecordSpawn(core.SpawnEvent{Tick: 1}); err != nil {
		t.Fatalf("RecordSpawn failed: %v", err)
	}
	if err := b.RecordTickStats(1, core.Stats{Ticks: 1}); err != nil {
		t.Fatalf("RecordTickStats failed: %v", err)
	}

	if err := b.StartEpisode(testEpisode()); err != nil {
		t.Fatalf("second StartEpisode failed: %v", err)
	}
	if len(b.spawns) != 0 || len(b.statsSamples) != 0 {
		t.Errorf("collections not reset: %d spawns, %d samples",
			len(b.spawns), len(b.statsSamples))
	}
}

func TestEndEpisodeWithoutStartFails(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, nil)
	if err := b.EndEpisode(core.Stats{}); err == nil {
		t.Error("expected error ending an episode that never started")
	}
}

func TestRecordAndExportJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: false}, nil)

	if err := b.StartEpisode(testEpisode()); err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}

	p := core.Passenger{ID: 7, State: core.PassengerIdle}
	if err := b.RecordSpawn(core.SpawnEvent{Tick: 3, Passenger: p}); err != nil {
		t.Fatalf("RecordSpawn failed: %v", err)
	}
	if err := b.RecordPickup(core.PickupEvent{Tick: 9, Car: 1, Passenger: p}); err != nil {
		t.Fatalf("RecordPickup failed: %v", err)
	}
	if err := b.RecordDropoff(core.DropoffEvent{Tick: 20, Car: 1, Passenger: p}); err != nil {
		t.Fatalf("RecordDropoff failed: %v", err)
	}
	if err := b.RecordOutOfBattery(core.OutOfBatteryEvent{Tick: 25, Car: 2}); err != nil {
		t.Fatalf("RecordOutOfBattery failed: %v", err)
	}
	if err := b.RecordTickStats(25, core.Stats{Ticks: 25, PassengerDropoffs: 1}); err != nil {
		t.Fatalf("RecordTickStats failed: %v", err)
	}

	if err := b.EndEpisode(core.Stats{Ticks: 30, PassengerDropoffs: 1}); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}

	path := b.ExportedFilePath()
	if path == "" {
		t.Fatal("no exported file path")
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("expected .json suffix, got %s", path)
	}
	if filepath.Base(path) != "test_episode_20260314_150926.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var export EpisodeExport
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if export.EpisodeID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("wrong episode id: %s", export.EpisodeID)
	}
	if export.Seed != 42 {
		t.Errorf("wrong seed: %d", export.Seed)
	}
	if export.FinalStats.Ticks != 30 {
		t.Errorf("wrong final tick count: %d", export.FinalStats.Ticks)
	}
	if len(export.Spawns) != 1 || export.Spawns[0].Passenger.ID != 7 {
		t.Errorf("spawn not exported: %+v", export.Spawns)
	}
	if len(export.Pickups) != 1 || len(export.Dropoffs) != 1 || len(export.OutOfBattery) != 1 {
		t.Errorf("events not exported: %d pickups, %d dropoffs, %d outOfBattery",
			len(export.Pickups), len(export.Dropoffs), len(export.OutOfBattery))
	}
	if len(export.StatsSamples) != 1 || export.StatsSamples[0].Tick != 25 {
		t.Errorf("stats samples not exported: %+v", export.StatsSamples)
	}
}

func TestExportGzip(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true}, nil)

	if err := b.StartEpisode(testEpisode()); err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}
	if err := b.EndEpisode(core.Stats{Ticks: 5}); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}

	path := b.ExportedFilePath()
	if !strings.HasSuffix(path, ".json.gz") {
		t.Fatalf("expected .json.gz suffix, got %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("opening gzip stream: %v", err)
	}
	defer gz.Close()

	var export EpisodeExport
	if err := json.NewDecoder(gz).Decode(&export); err != nil {
		t.Fatalf("decoding gzipped export: %v", err)
	}
	if export.FinalStats.Ticks != 5 {
		t.Errorf("wrong final tick count: %d", export.FinalStats.Ticks)
	}
	// Untouched collections still serialize as arrays
	if export.Spawns == nil {
		t.Error("spawns should be [] not null")
	}
}

func TestExportEmptyNameFallsBack(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir}, nil)

	ep := testEpisode()
	ep.Name = ""
	if err := b.StartEpisode(ep); err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}
	if err := b.EndEpisode(core.Stats{}); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(b.ExportedFilePath()), "episode_") {
		t.Errorf("expected fallback name, got %s", b.ExportedFilePath())
	}
}
