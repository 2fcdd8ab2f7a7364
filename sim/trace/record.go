// Package trace provides per-iteration decision recording for migration runs.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// IterationRecord captures one outer iteration of a migration run:
// a pre-copy pass, the dirty-page re-collection that follows it, and the
// convergence decision.
type IterationRecord struct {
	Iteration        int     `yaml:"iteration"`
	StartTime        float64 `yaml:"start_time"`
	EndTime          float64 `yaml:"end_time"`
	PagesSent        int     `yaml:"pages_sent"`
	PageFaults       int     `yaml:"page_faults"`
	DirtyPages       int     `yaml:"dirty_pages"`
	ExpectedDowntime float64 `yaml:"expected_downtime"`
	Converged        bool    `yaml:"converged"`
}

// FaultRecord captures a single post-copy page fault.
type FaultRecord struct {
	Iteration int     `yaml:"iteration"`
	Clock     float64 `yaml:"clock"`
	Page      int     `yaml:"page"`
	Delay     float64 `yaml:"delay"`
}
