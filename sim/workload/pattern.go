package workload

import "math/rand"

// PageSampler picks the page touched by the next access.
type PageSampler interface {
	// SamplePage returns a page number in [0, pageCount).
	SamplePage(rng *rand.Rand) int
}

// UniformPages touches every page with equal probability.
type UniformPages struct {
	pageCount int
}

func (s *UniformPages) SamplePage(rng *rand.Rand) int {
	return rng.Intn(s.pageCount)
}

// HotSetPages concentrates accesses on the lowest-numbered pages.
type HotSetPages struct {
	pageCount int
	hotCount  int
	hotProb   float64
}

func (s *HotSetPages) SamplePage(rng *rand.Rand) int {
	if rng.Float64() < s.hotProb {
		return rng.Intn(s.hotCount)
	}
	return rng.Intn(s.pageCount)
}

// SequentialPages walks the address space in order and wraps around.
type SequentialPages struct {
	pageCount int
	next      int
}

func (s *SequentialPages) SamplePage(_ *rand.Rand) int {
	page := s.next
	s.next = (s.next + 1) % s.pageCount
	return page
}

// NewPageSampler creates a PageSampler for pageCount pages. The pattern must
// already be validated.
func NewPageSampler(spec PatternSpec, pageCount int) PageSampler {
	switch spec.Type {
	case "hotset":
		hot := int(spec.HotFraction * float64(pageCount))
		if hot < 1 {
			hot = 1
		}
		return &HotSetPages{pageCount: pageCount, hotCount: hot, hotProb: spec.HotProbability}
	case "sequential":
		return &SequentialPages{pageCount: pageCount}
	default:
		return &UniformPages{pageCount: pageCount}
	}
}
