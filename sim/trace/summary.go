package trace

// TraceSummary aggregates statistics from a MigrationTrace.
type TraceSummary struct {
	Iterations       int
	TotalPagesSent   int
	TotalFaults      int
	TotalDirtyPages  int
	MaxDirtyPages    int
	MeanPassDuration float64 // seconds
	Converged        bool
}

// Summarize computes aggregate statistics from a MigrationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(mt *MigrationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if mt == nil || len(mt.Iterations) == 0 {
		return summary
	}

	totalDuration := 0.0
	for _, it := range mt.Iterations {
		summary.TotalPagesSent += it.PagesSent
		summary.TotalFaults += it.PageFaults
		summary.TotalDirtyPages += it.DirtyPages
		if it.DirtyPages > summary.MaxDirtyPages {
			summary.MaxDirtyPages = it.DirtyPages
		}
		totalDuration += it.EndTime - it.StartTime
	}
	summary.Iterations = len(mt.Iterations)
	summary.MeanPassDuration = totalDuration / float64(len(mt.Iterations))
	summary.Converged = mt.Iterations[len(mt.Iterations)-1].Converged

	return summary
}
