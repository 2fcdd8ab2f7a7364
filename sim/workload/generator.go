package workload

import (
	"fmt"

	"github.com/inference-sim/migration-sim/sim"
)

// maxPrealloc bounds the initial slice capacity for horizon-only specs.
const maxPrealloc = 1 << 20

// GenerateAccesses creates an access history from a WorkloadSpec.
// Deterministic given the same spec and seed.
// Returns events sorted by Time, starting after the first sampled gap.
func GenerateAccesses(spec *WorkloadSpec) ([]sim.AccessEvent, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	timingRNG := rng.ForSubsystem(sim.SubsystemTiming)
	pagesRNG := rng.ForSubsystem(sim.SubsystemPages)
	typeRNG := rng.ForSubsystem(sim.SubsystemAccessType)

	gaps := NewGapSampler(spec.Arrival, spec.AccessRate)
	pages := NewPageSampler(spec.Pattern, spec.PageCount)

	capacity := spec.NumAccesses
	if capacity == 0 {
		capacity = int(min(spec.Horizon*spec.AccessRate, maxPrealloc))
	}
	events := make([]sim.AccessEvent, 0, capacity)

	now := 0.0
	for spec.NumAccesses == 0 || len(events) < spec.NumAccesses {
		now += gaps.SampleGap(timingRNG)
		if spec.Horizon > 0 && now >= spec.Horizon {
			break
		}
		ev := sim.AccessEvent{Time: now, Type: sim.Read, Page: pages.SamplePage(pagesRNG)}
		if typeRNG.Float64() < spec.WriteFraction {
			ev.Type = sim.Write
		}
		events = append(events, ev)
	}
	return events, nil
}
