// Collects the aggregate timing statistics of a migration run.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Result is the fixed-shape summary of a migration run.
// All times are in seconds, volumes in kB.
type Result struct {
	TotalTime   float64 `json:"total_time"`   // simulated time at completion
	MemoryDelay float64 `json:"memory_delay"` // cumulative post-copy fault stall seen by the guest
	Downtime    float64 `json:"downtime"`     // cumulative stop-and-copy time

	EvictionTime     float64 `json:"eviction_time"`     // when the source can release the guest's memory
	TransmittedData  float64 `json:"transmitted_data"`  // kB put on the wire, including fault requests
	Iterations       int     `json:"iterations"`        // outer (pre-copy pass) iterations
	PagesTransferred int     `json:"pages_transferred"` // pages sent during pre-copy passes
	PageFaults       int     `json:"page_faults"`       // post-copy faults serviced out of band
	DirtyPages       int     `json:"dirty_pages"`       // pages re-queued after being dirtied
	ResidualPages    int     `json:"residual_pages"`    // pages sent in the final stop-and-copy batch
	Converged        bool    `json:"converged"`
}

// Tuple returns (total time, memory delay, downtime).
func (r *Result) Tuple() (float64, float64, float64) {
	return r.TotalTime, r.MemoryDelay, r.Downtime
}

// Print displays the result on stdout.
func (r *Result) Print() {
	r.Fprint(os.Stdout)
}

// Fprint writes a human-readable report to w.
func (r *Result) Fprint(w io.Writer) {
	_, _ = fmt.Fprintln(w, "=== Migration Metrics ===")
	_, _ = fmt.Fprintf(w, "Total Migration Time : %.6f s\n", r.TotalTime)
	_, _ = fmt.Fprintf(w, "Downtime             : %.6f s\n", r.Downtime)
	_, _ = fmt.Fprintf(w, "Memory Delay         : %.6f s\n", r.MemoryDelay)
	_, _ = fmt.Fprintf(w, "Eviction Time        : %.6f s\n", r.EvictionTime)
	_, _ = fmt.Fprintf(w, "Transmitted Data     : %.3f kB\n", r.TransmittedData)
	_, _ = fmt.Fprintf(w, "Iterations           : %d\n", r.Iterations)
	_, _ = fmt.Fprintf(w, "Pages Transferred    : %d\n", r.PagesTransferred)
	_, _ = fmt.Fprintf(w, "Page Faults          : %d\n", r.PageFaults)
	_, _ = fmt.Fprintf(w, "Dirty Pages          : %d\n", r.DirtyPages)
	_, _ = fmt.Fprintf(w, "Residual Pages       : %d\n", r.ResidualPages)
	_, _ = fmt.Fprintf(w, "Converged            : %t\n", r.Converged)
}

// SaveResults writes the result as indented JSON to path.
func (r *Result) SaveResults(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
