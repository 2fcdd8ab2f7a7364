package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleGaps(s GapSampler, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	gaps := make([]float64, n)
	for i := range gaps {
		gaps[i] = s.SampleGap(rng)
	}
	return gaps
}

func meanAndCV(x []float64) (float64, float64) {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	ss := 0.0
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss/float64(len(x)-1)) / mean
}

func TestNewGapSampler_MeanMatchesRate(t *testing.T) {
	cv := 2.0
	tests := []struct {
		name string
		spec ArrivalSpec
	}{
		{"poisson", ArrivalSpec{Process: "poisson"}},
		{"gamma", ArrivalSpec{Process: "gamma", CV: &cv}},
		{"weibull", ArrivalSpec{Process: "weibull", CV: &cv}},
		{"constant", ArrivalSpec{Process: "constant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN 1000 accesses per second
			gaps := sampleGaps(NewGapSampler(tt.spec, 1000), 50000, 42)

			// THEN the mean gap is about 1 ms and never negative
			mean, _ := meanAndCV(gaps)
			assert.InEpsilon(t, 0.001, mean, 0.05)
			for _, g := range gaps {
				assert.GreaterOrEqual(t, g, 0.0)
			}
		})
	}
}

func TestNewGapSampler_GammaCV(t *testing.T) {
	cv := 3.0
	gaps := sampleGaps(NewGapSampler(ArrivalSpec{Process: "gamma", CV: &cv}, 100), 100000, 7)
	_, got := meanAndCV(gaps)
	assert.InDelta(t, 3.0, got, 0.3)
}

func TestNewGapSampler_ConstantIsExact(t *testing.T) {
	s := NewGapSampler(ArrivalSpec{Process: "constant"}, 250)
	assert.Equal(t, 0.004, s.SampleGap(nil))
}

func TestNewGapSampler_TinyGammaShape_FallsBackToPoisson(t *testing.T) {
	cv := 50.0
	_, ok := NewGapSampler(ArrivalSpec{Process: "gamma", CV: &cv}, 10).(*PoissonSampler)
	assert.True(t, ok)
}
