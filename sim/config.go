package sim

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for MigrationConfig.
const (
	DefaultPageSize           = 4.0   // kB
	DefaultPageNumberWireSize = 0.004 // kB needed to address one page over the channel
	DefaultDowntimeThreshold  = 0.03  // seconds
)

var (
	// ErrInvalidInput is returned for malformed simulator inputs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDidNotConverge is returned by Run when a budget is exhausted
	// before the residual working set fits in the downtime threshold.
	ErrDidNotConverge = errors.New("migration did not converge")
)

// VMLocation is where the guest is running while pages are being sent.
type VMLocation int

const (
	// Source: guest still runs at the source host (pre-copy).
	Source VMLocation = iota
	// Destination: guest already runs at the destination, missing pages
	// are faulted in on demand (post-copy).
	Destination
)

// String implements fmt.Stringer.
func (l VMLocation) String() string {
	switch l {
	case Source:
		return "source"
	case Destination:
		return "destination"
	default:
		return fmt.Sprintf("VMLocation(%d)", int(l))
	}
}

// ParseVMLocation maps "source"/"precopy" and "destination"/"postcopy".
func ParseVMLocation(s string) (VMLocation, error) {
	switch s {
	case "source", "precopy", "pre-copy", "":
		return Source, nil
	case "destination", "postcopy", "post-copy":
		return Destination, nil
	}
	return 0, fmt.Errorf("%w: unknown vm location %q", ErrInvalidInput, s)
}

// MigrationConfig groups the fixed constants of one migration run.
type MigrationConfig struct {
	PageSize           float64    // kB per page (must be > 0)
	PageNumberWireSize float64    // kB per page number (must be >= 0)
	DowntimeThreshold  float64    // seconds; residual transfers below it are committed as downtime
	Location           VMLocation // fixed for the whole run
	MaxIterations      int        // outer-loop budget; 0 = unbounded
	MaxSimTime         float64    // simulated-seconds budget; 0 = unbounded
	Prefetch           bool       // send pages near recent faults first; only faults at the destination steer it
}

// DefaultMigrationConfig returns the default constants with the guest at
// the source and no budget.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		PageSize:           DefaultPageSize,
		PageNumberWireSize: DefaultPageNumberWireSize,
		DowntimeThreshold:  DefaultDowntimeThreshold,
		Location:           Source,
	}
}

// Validate reports the first invalid field.
func (c MigrationConfig) Validate() error {
	switch {
	case !(c.PageSize > 0) || math.IsInf(c.PageSize, 0):
		return fmt.Errorf("%w: page size must be > 0, got %v", ErrInvalidInput, c.PageSize)
	case !(c.PageNumberWireSize >= 0) || math.IsInf(c.PageNumberWireSize, 0):
		return fmt.Errorf("%w: page number size must be >= 0, got %v", ErrInvalidInput, c.PageNumberWireSize)
	case !(c.DowntimeThreshold > 0) || math.IsInf(c.DowntimeThreshold, 0):
		return fmt.Errorf("%w: downtime threshold must be > 0, got %v", ErrInvalidInput, c.DowntimeThreshold)
	case c.Location != Source && c.Location != Destination:
		return fmt.Errorf("%w: unknown vm location %d", ErrInvalidInput, int(c.Location))
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: max iterations must be >= 0, got %d", ErrInvalidInput, c.MaxIterations)
	case !(c.MaxSimTime >= 0):
		return fmt.Errorf("%w: max sim time must be >= 0, got %v", ErrInvalidInput, c.MaxSimTime)
	}
	return nil
}
