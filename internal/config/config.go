// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/gridcab/engine/pkg/core"
)

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings. An empty Path keeps
// the database in memory with periodic disk dumps.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the episode recording backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
}

// InfluxConfig holds InfluxDB export settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./gridcablogs")

	viper.SetDefault("grid.initialPassengers", 5)
	viper.SetDefault("grid.maxPassengers", 20)
	viper.SetDefault("grid.spawnRate", 0.1)
	viper.SetDefault("grid.agentCars", 1)
	viper.SetDefault("grid.npcCars", 10)
	viper.SetDefault("grid.passengersPerCar", 4)
	viper.SetDefault("grid.dischargeRate", 0.0)
	viper.SetDefault("grid.stationCapacity", 4)
	viper.SetDefault("grid.carRadius", 10)
	viper.SetDefault("grid.passengerRadius", 10)
	viper.SetDefault("grid.deterministic", false)
	viper.SetDefault("grid.seed", 0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./episodes")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./episodes/gridcab.db")
	viper.SetDefault("storage.db.host", "localhost")
	viper.SetDefault("storage.db.port", "5432")
	viper.SetDefault("storage.db.username", "postgres")
	viper.SetDefault("storage.db.password", "postgres")
	viper.SetDefault("storage.db.database", "gridcab")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "gridcab-metrics")
	viper.SetDefault("influx.backupPath", "./gridcablogs/influx_backup.gz")

	viper.SetConfigName("gridcab.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the typed storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		DB: DBConfig{
			Host:     viper.GetString("storage.db.host"),
			Port:     viper.GetString("storage.db.port"),
			Username: viper.GetString("storage.db.username"),
			Password: viper.GetString("storage.db.password"),
			Database: viper.GetString("storage.db.database"),
		},
	}
}

// GetInfluxConfig returns the typed InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGridOpts maps the grid section onto core.GridOpts. Charging stations
// are configured as road section triples under grid.stations, e.g.
// [{"direction": "right", "road": 2, "section": 3, "slot": 0}].
func GetGridOpts() (core.GridOpts, error) {
	opts := core.GridOpts{
		InitialPassengerCount:   viper.GetInt("grid.initialPassengers"),
		MaxPassengers:           viper.GetInt("grid.maxPassengers"),
		PassengerSpawnRate:      viper.GetFloat64("grid.spawnRate"),
		AgentCarCount:           viper.GetInt("grid.agentCars"),
		NPCCarCount:             viper.GetInt("grid.npcCars"),
		PassengersPerCar:        viper.GetInt("grid.passengersPerCar"),
		DischargeRate:           viper.GetFloat64("grid.dischargeRate"),
		ChargingStationCapacity: viper.GetInt("grid.stationCapacity"),
		CarRadius:               viper.GetInt("grid.carRadius"),
		PassengerRadius:         viper.GetInt("grid.passengerRadius"),
		DeterministicMode:       viper.GetBool("grid.deterministic"),
		Seed:                    viper.GetInt64("grid.seed"),
		Verbose:                 viper.GetBool("grid.verbose"),
	}

	var stations []stationSpec
	if err := viper.UnmarshalKey("grid.stations", &stations); err != nil {
		return core.GridOpts{}, fmt.Errorf("error parsing grid.stations: %w", err)
	}
	for i, s := range stations {
		pos, err := s.position()
		if err != nil {
			return core.GridOpts{}, fmt.Errorf("grid.stations[%d]: %w", i, err)
		}
		opts.ChargingStations = append(opts.ChargingStations, pos)
	}

	return opts, nil
}

type stationSpec struct {
	Direction string `mapstructure:"direction"`
	Road      int    `mapstructure:"road"`
	Section   int    `mapstructure:"section"`
	Slot      int    `mapstructure:"slot"`
}

func (s stationSpec) position() (core.Position, error) {
	var dir core.Direction
	switch s.Direction {
	case "up":
		dir = core.Up
	case "down":
		dir = core.Down
	case "left":
		dir = core.Left
	case "right":
		dir = core.Right
	default:
		return core.Position{}, fmt.Errorf("unknown direction %q", s.Direction)
	}
	return core.Position{
		RoadSection: core.RoadSection{
			Direction:    dir,
			RoadIndex:    s.Road,
			SectionIndex: s.Section,
		},
		PositionInSection: s.Slot,
	}, nil
}
