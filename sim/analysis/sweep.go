// Package analysis runs families of migration simulations and aggregates
// their results.
package analysis

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/migration-sim/sim"
)

// Scenario is everything a migration run needs except the channel speed.
type Scenario struct {
	PageCount      int
	Events         []sim.AccessEvent
	Config         sim.MigrationConfig
	PacketOverhead float64 // kB
}

// Point is the outcome of one run of a sweep.
type Point struct {
	Speed  float64     // kB/s
	Result *sim.Result // partial when Err is set
	Err    error       // nil or wraps sim.ErrDidNotConverge
}

// Sweep runs the scenario once per channel speed, in the given order.
// Each run gets its own channel, history and simulator. Runs that exhaust
// their budget are kept with Err set; any other failure aborts the sweep.
func Sweep(sc Scenario, speeds []float64) ([]Point, error) {
	points := make([]Point, 0, len(speeds))
	for _, speed := range speeds {
		channel, err := sim.NewChannel(speed, sc.PacketOverhead)
		if err != nil {
			return nil, fmt.Errorf("sweep point %v kB/s: %w", speed, err)
		}
		s, err := sim.NewMigrationSimulator(sc.PageCount, sc.Events, channel, sc.Config)
		if err != nil {
			return nil, fmt.Errorf("sweep point %v kB/s: %w", speed, err)
		}
		res, err := s.Run()
		if err != nil && !errors.Is(err, sim.ErrDidNotConverge) {
			return nil, fmt.Errorf("sweep point %v kB/s: %w", speed, err)
		}
		if err != nil {
			logrus.Warnf("sweep point %v kB/s: %v", speed, err)
		}
		points = append(points, Point{Speed: speed, Result: res, Err: err})
	}
	return points, nil
}
