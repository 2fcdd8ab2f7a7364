package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// WorkloadSpec is the top-level synthetic workload configuration.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Version       string      `yaml:"version"`
	Seed          int64       `yaml:"seed"`
	PageCount     int         `yaml:"page_count"`
	NumAccesses   int         `yaml:"num_accesses,omitempty"` // 0 = unlimited (use horizon only)
	Horizon       float64     `yaml:"horizon,omitempty"`      // seconds; 0 = unlimited (use num_accesses only)
	AccessRate    float64     `yaml:"access_rate"`            // accesses per second
	WriteFraction float64     `yaml:"write_fraction"`
	Arrival       ArrivalSpec `yaml:"arrival"`
	Pattern       PatternSpec `yaml:"pattern"`
}

// ArrivalSpec configures the inter-access time process.
type ArrivalSpec struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv,omitempty"`
}

// PatternSpec selects which pages are touched.
//
//   - uniform: every page equally likely
//   - hotset: with probability HotProbability touch one of the first
//     HotFraction*PageCount pages, otherwise any page
//   - sequential: walk pages in order, wrapping around
type PatternSpec struct {
	Type           string  `yaml:"type"`
	HotFraction    float64 `yaml:"hot_fraction,omitempty"`
	HotProbability float64 `yaml:"hot_probability,omitempty"`
}

var validArrivalProcesses = map[string]bool{
	"poisson":  true,
	"gamma":    true,
	"weibull":  true,
	"constant": true,
}

var validPatterns = map[string]bool{
	"uniform":    true,
	"hotset":     true,
	"sequential": true,
}

// LoadWorkloadSpec reads and strictly decodes a YAML workload spec.
// Unknown fields are errors so typos cannot silently fall back to defaults.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	if spec.Pattern.Type == "" {
		logrus.Warnf("workload spec %s has no pattern type; using uniform", path)
		spec.Pattern.Type = "uniform"
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *WorkloadSpec) Validate() error {
	if s.PageCount <= 0 {
		return fmt.Errorf("page_count must be positive, got %d", s.PageCount)
	}
	if s.NumAccesses < 0 {
		return fmt.Errorf("num_accesses must be non-negative, got %d", s.NumAccesses)
	}
	if s.NumAccesses == 0 && s.Horizon <= 0 {
		return fmt.Errorf("one of num_accesses or horizon must be positive")
	}
	if err := validateFinitePositive("access_rate", s.AccessRate); err != nil {
		return err
	}
	if math.IsNaN(s.Horizon) || math.IsInf(s.Horizon, 0) || s.Horizon < 0 {
		return fmt.Errorf("horizon must be a finite non-negative number, got %f", s.Horizon)
	}
	if !(s.WriteFraction >= 0 && s.WriteFraction <= 1) {
		return fmt.Errorf("write_fraction must be in [0, 1], got %f", s.WriteFraction)
	}
	if !validArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: poisson, gamma, weibull, constant", s.Arrival.Process)
	}
	if s.Arrival.CV != nil {
		if err := validateFinitePositive("arrival.cv", *s.Arrival.CV); err != nil {
			return err
		}
		if s.Arrival.Process == "weibull" && (*s.Arrival.CV < 0.01 || *s.Arrival.CV > 10.4) {
			return fmt.Errorf("weibull CV must be in [0.01, 10.4], got %f", *s.Arrival.CV)
		}
	}
	if !validPatterns[s.Pattern.Type] {
		return fmt.Errorf("unknown pattern %q; valid: uniform, hotset, sequential", s.Pattern.Type)
	}
	if s.Pattern.Type == "hotset" {
		if !(s.Pattern.HotFraction > 0 && s.Pattern.HotFraction <= 1) {
			return fmt.Errorf("pattern.hot_fraction must be in (0, 1], got %f", s.Pattern.HotFraction)
		}
		if !(s.Pattern.HotProbability >= 0 && s.Pattern.HotProbability <= 1) {
			return fmt.Errorf("pattern.hot_probability must be in [0, 1], got %f", s.Pattern.HotProbability)
		}
	}
	return nil
}

func validateFinitePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%s must be a finite positive number, got %f", name, v)
	}
	return nil
}
