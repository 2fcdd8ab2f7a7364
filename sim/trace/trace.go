package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TraceLevel controls the verbosity of migration tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelIterations captures one record per outer iteration.
	TraceLevelIterations TraceLevel = "iterations"
	// TraceLevelFaults additionally captures every page fault.
	TraceLevelFaults TraceLevel = "faults"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelIterations: true,
	TraceLevelFaults:     true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `yaml:"level"`
}

// MigrationTrace collects records during a migration run.
type MigrationTrace struct {
	Config     TraceConfig       `yaml:"config"`
	Iterations []IterationRecord `yaml:"iterations"`
	Faults     []FaultRecord     `yaml:"faults,omitempty"`
}

// NewMigrationTrace creates a MigrationTrace ready for recording.
func NewMigrationTrace(config TraceConfig) *MigrationTrace {
	return &MigrationTrace{
		Config:     config,
		Iterations: make([]IterationRecord, 0),
		Faults:     make([]FaultRecord, 0),
	}
}

// Enabled reports whether anything is recorded. Safe on nil.
func (mt *MigrationTrace) Enabled() bool {
	return mt != nil && mt.Config.Level != TraceLevelNone && mt.Config.Level != ""
}

// RecordIteration appends an iteration record.
func (mt *MigrationTrace) RecordIteration(record IterationRecord) {
	if !mt.Enabled() {
		return
	}
	mt.Iterations = append(mt.Iterations, record)
}

// RecordFault appends a fault record when the level is TraceLevelFaults.
func (mt *MigrationTrace) RecordFault(record FaultRecord) {
	if !mt.Enabled() || mt.Config.Level != TraceLevelFaults {
		return
	}
	mt.Faults = append(mt.Faults, record)
}

// Export writes the trace as YAML to path.
func (mt *MigrationTrace) Export(path string) error {
	data, err := yaml.Marshal(mt)
	if err != nil {
		return fmt.Errorf("marshaling migration trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing migration trace: %w", err)
	}
	return nil
}
