package analysis

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution describes one metric across the converged points of a sweep.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample standard deviation; 0 for fewer than 2 points
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// SweepSummary aggregates a sweep. Only converged points contribute to the
// distributions.
type SweepSummary struct {
	Points      int          `json:"points"`
	Converged   int          `json:"converged"`
	TotalTime   Distribution `json:"total_time"`
	Downtime    Distribution `json:"downtime"`
	MemoryDelay Distribution `json:"memory_delay"`
}

// Summarize computes a SweepSummary. Safe for empty input.
func Summarize(points []Point) SweepSummary {
	summary := SweepSummary{Points: len(points)}
	var total, down, delay []float64
	for _, p := range points {
		if p.Err != nil || p.Result == nil {
			continue
		}
		summary.Converged++
		total = append(total, p.Result.TotalTime)
		down = append(down, p.Result.Downtime)
		delay = append(delay, p.Result.MemoryDelay)
	}
	summary.TotalTime = describe(total)
	summary.Downtime = describe(down)
	summary.MemoryDelay = describe(delay)
	return summary
}

func describe(x []float64) Distribution {
	if len(x) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	d := Distribution{
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    floats.Max(sorted),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// Fprint writes the per-point table followed by the summary to w.
func Fprint(w io.Writer, points []Point, summary SweepSummary) {
	_, _ = fmt.Fprintln(w, "=== Speed Sweep ===")
	_, _ = fmt.Fprintf(w, "%12s %14s %14s %14s %6s %s\n", "speed_kBps", "total_s", "downtime_s", "delay_s", "iters", "status")
	for _, p := range points {
		status := "ok"
		if p.Err != nil {
			status = "did-not-converge"
		}
		_, _ = fmt.Fprintf(w, "%12.1f %14.6f %14.6f %14.6f %6d %s\n",
			p.Speed, p.Result.TotalTime, p.Result.Downtime, p.Result.MemoryDelay, p.Result.Iterations, status)
	}
	_, _ = fmt.Fprintf(w, "Converged            : %d/%d\n", summary.Converged, summary.Points)
	_, _ = fmt.Fprintf(w, "Total Time  mean/p50 : %.6f / %.6f s (sd %.6f)\n",
		summary.TotalTime.Mean, summary.TotalTime.Median, summary.TotalTime.StdDev)
	_, _ = fmt.Fprintf(w, "Downtime    mean/max : %.6f / %.6f s\n", summary.Downtime.Mean, summary.Downtime.Max)
	_, _ = fmt.Fprintf(w, "Memory Delay mean/max: %.6f / %.6f s\n", summary.MemoryDelay.Mean, summary.MemoryDelay.Max)
}
