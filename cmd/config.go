package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/migration-sim/sim"
)

// ChannelConfig is the channel section of a run config file.
type ChannelConfig struct {
	Speed          float64  `yaml:"speed"`                     // kB/s
	PacketOverhead *float64 `yaml:"packet_overhead,omitempty"` // kB; nil keeps the default
}

// MigrationSection is the migration section of a run config file.
// Zero-valued numeric fields keep the built-in defaults.
type MigrationSection struct {
	PageSize          float64 `yaml:"page_size,omitempty"`
	PageNumberSize    float64 `yaml:"page_number_size,omitempty"`
	DowntimeThreshold float64 `yaml:"downtime_threshold,omitempty"`
	Location          string  `yaml:"location,omitempty"`
	MaxIterations     int     `yaml:"max_iterations,omitempty"`
	MaxSimTime        float64 `yaml:"max_sim_time,omitempty"`
	Prefetch          bool    `yaml:"prefetch,omitempty"`
}

// Config represents the full run config file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Channel   ChannelConfig    `yaml:"channel"`
	Migration MigrationSection `yaml:"migration"`
	Speeds    []float64        `yaml:"speeds,omitempty"` // sweep only
}

// loadConfig parses a run config file with strict field checking.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// MigrationConfig applies the non-zero fields of the section over the defaults.
func (m MigrationSection) MigrationConfig() (sim.MigrationConfig, error) {
	mc := sim.DefaultMigrationConfig()
	if m.PageSize != 0 {
		mc.PageSize = m.PageSize
	}
	if m.PageNumberSize != 0 {
		mc.PageNumberWireSize = m.PageNumberSize
	}
	if m.DowntimeThreshold != 0 {
		mc.DowntimeThreshold = m.DowntimeThreshold
	}
	loc, err := sim.ParseVMLocation(m.Location)
	if err != nil {
		return mc, err
	}
	mc.Location = loc
	mc.MaxIterations = m.MaxIterations
	mc.MaxSimTime = m.MaxSimTime
	mc.Prefetch = m.Prefetch
	return mc, mc.Validate()
}
