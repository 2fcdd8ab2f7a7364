package workload

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// GapSampler generates the time between consecutive memory accesses.
type GapSampler interface {
	// SampleGap returns the next inter-access gap in seconds. Never negative.
	SampleGap(rng *rand.Rand) float64
}

// PoissonSampler generates exponentially-distributed gaps (CV=1).
type PoissonSampler struct {
	rate float64 // accesses per second
}

func (s *PoissonSampler) SampleGap(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / s.rate
}

// ConstantSampler spaces accesses evenly.
type ConstantSampler struct {
	gap float64
}

func (s *ConstantSampler) SampleGap(_ *rand.Rand) float64 {
	return s.gap
}

// GammaSampler generates Gamma-distributed gaps. CV > 1 produces bursts of
// accesses separated by idle periods.
type GammaSampler struct {
	shape float64 // 1/CV² (alpha parameter)
	scale float64 // CV²/rate in seconds (beta parameter)
}

func (s *GammaSampler) SampleGap(rng *rand.Rand) float64 {
	return gammaRand(rng, s.shape, s.scale)
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler generates Weibull-distributed gaps.
type WeibullSampler struct {
	shape float64 // Weibull k parameter
	scale float64 // Weibull λ parameter (seconds)
}

func (s *WeibullSampler) SampleGap(rng *rand.Rand) float64 {
	// Inverse CDF: scale * (-ln(U))^(1/shape)
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
}

// NewGapSampler creates a GapSampler from a spec and an access rate in
// accesses per second.
func NewGapSampler(spec ArrivalSpec, rate float64) GapSampler {
	if rate < 1e-15 {
		rate = 1e-15
	}
	cv := 1.0
	if spec.CV != nil && *spec.CV > 0 {
		cv = *spec.CV
	}
	switch spec.Process {
	case "constant":
		return &ConstantSampler{gap: 1.0 / rate}

	case "gamma":
		// shape = 1/CV², scale = mean * CV²
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{rate: rate}
		}
		return &GammaSampler{shape: shape, scale: cv * cv / rate}

	case "weibull":
		k := weibullShapeFromCV(cv)
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{shape: k, scale: (1.0 / rate) / math.Gamma(1.0+1.0/k)}

	default:
		return &PoissonSampler{rate: rate}
	}
}

// weibullShapeFromCV finds Weibull shape parameter k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection over k ∈ [0.1, 100].
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

// weibullCV computes the coefficient of variation for Weibull(k).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
