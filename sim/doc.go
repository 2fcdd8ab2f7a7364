// Package sim provides the timing model of live virtual machine memory migration.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - channel.go: the cost model turning kB into seconds
//   - access.go: access events and the history the simulator drains
//   - simulator.go: the pre-copy / dirty-page / stop-and-copy loop
//
// # Model
//
// A MigrationSimulator sends pages 0..n-1 one at a time. After every page,
// if the guest already runs at the destination, reads of pages not yet sent
// are serviced as faults. When the working set is empty, pages written in
// the meantime are queued again. Once the whole residual set could be sent
// within the downtime threshold, it is sent with the guest stopped and the
// run ends.
//
// Any time added as fault delay or downtime is also added to every access
// still pending in the history: the guest observes those accesses later.
//
// # Sub-packages
//   - sim/workload/: recorded trace parsing and synthetic trace generation
//   - sim/trace/: per-iteration decision records
//   - sim/analysis/: speed sweeps and summary statistics
package sim
