// sim/simulator.go
package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/migration-sim/sim/trace"
)

// ErrAlreadyRun is returned when Run is called a second time; the access
// history is consumed by the first run.
var ErrAlreadyRun = errors.New("simulator already ran")

// MigrationSimulator replays an access history against a channel while
// sending a fixed set of pages, alternating pre-copy passes with dirty-page
// re-collection until the residual set fits in the downtime threshold.
//
// Thread-safety: NOT thread-safe. Each run needs its own simulator and
// history; the Channel may be shared.
type MigrationSimulator struct {
	channel   *Channel
	config    MigrationConfig
	pageCount int
	history   *AccessHistory
	pages     workingSet
	prefetch  *prefetchQueue // same set as pages when prefetching, else nil

	pageTime float64 // transfer time of a single page
	notice   float64 // transfer time of a single page number

	currentTime float64
	memoryDelay float64
	downtime    float64

	result Result
	trace  *trace.MigrationTrace
	ran    bool
}

// NewMigrationSimulator validates its inputs and returns a simulator
// owning a private copy of events. The working set starts as 0..pageCount-1.
func NewMigrationSimulator(pageCount int, events []AccessEvent, channel *Channel, config MigrationConfig) (*MigrationSimulator, error) {
	if channel == nil {
		return nil, fmt.Errorf("%w: nil channel", ErrInvalidChannel)
	}
	if pageCount <= 0 {
		return nil, fmt.Errorf("%w: page count must be > 0, got %d", ErrInvalidInput, pageCount)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	history, err := NewAccessHistory(events)
	if err != nil {
		return nil, err
	}
	for i, ev := range events {
		if ev.Page >= pageCount {
			return nil, fmt.Errorf("%w: event %d references page %d, page count is %d",
				ErrInvalidInput, i, ev.Page, pageCount)
		}
	}
	s := &MigrationSimulator{
		channel:   channel,
		config:    config,
		pageCount: pageCount,
		history:   history,
		pageTime:  channel.TransferTime(config.PageSize),
		notice:    channel.TransferTime(config.PageNumberWireSize),
	}
	if config.Prefetch {
		s.prefetch = newPrefetchQueue(pageCount)
		s.pages = s.prefetch
	} else {
		s.pages = newPageQueue(pageCount)
	}
	return s, nil
}

// SetTrace attaches a trace recorder. nil disables tracing.
func (s *MigrationSimulator) SetTrace(t *trace.MigrationTrace) { s.trace = t }

// CurrentTime returns the simulated clock in seconds.
func (s *MigrationSimulator) CurrentTime() float64 { return s.currentTime }

// MemoryDelay returns the accumulated fault delay in seconds.
func (s *MigrationSimulator) MemoryDelay() float64 { return s.memoryDelay }

// Downtime returns the accumulated downtime in seconds.
func (s *MigrationSimulator) Downtime() float64 { return s.downtime }

// PendingPages returns the pages still queued for transfer: in send order
// for FIFO runs, in ascending page order when prefetching.
func (s *MigrationSimulator) PendingPages() []int { return s.pages.Snapshot() }

// History returns the access history owned by the simulator.
func (s *MigrationSimulator) History() *AccessHistory { return s.history }

// Run executes the migration to convergence. When a budget in the config
// is exhausted first, the partial result is returned with an error
// wrapping ErrDidNotConverge.
func (s *MigrationSimulator) Run() (*Result, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true

	logrus.Debugf("migration start: pages=%d events=%d speed=%v kB/s location=%s prefetch=%v",
		s.pageCount, s.history.Len(), s.channel.Speed(), s.config.Location, s.config.Prefetch)

	for {
		s.result.Iterations++
		record := trace.IterationRecord{Iteration: s.result.Iterations, StartTime: s.currentTime}

		record.PagesSent, record.PageFaults = s.precopyPass()
		record.DirtyPages = s.collectDirtyPages()

		expected := s.channel.TransferTime(float64(s.pages.Len()) * s.config.PageSize)
		record.ExpectedDowntime = expected
		if expected < s.config.DowntimeThreshold {
			s.stopAndCopy(expected)
			record.Converged = true
		}
		record.EndTime = s.currentTime
		s.trace.RecordIteration(record)

		logrus.Debugf("iteration %d: t=%.6f sent=%d faults=%d dirty=%d expected_downtime=%.6f",
			record.Iteration, s.currentTime, record.PagesSent, record.PageFaults, record.DirtyPages, expected)

		if record.Converged {
			break
		}
		if s.pages.Len() == 0 {
			// Nothing left to send, so the clock cannot advance and no
			// further access can become due.
			s.finish()
			return &s.result, fmt.Errorf("%w: residual transfer %.6fs never fits threshold %.6fs",
				ErrDidNotConverge, expected, s.config.DowntimeThreshold)
		}
		if err := s.checkBudget(); err != nil {
			s.finish()
			return &s.result, err
		}
	}

	s.result.Converged = true
	s.finish()
	logrus.Debugf("migration done: total=%.6f delay=%.6f downtime=%.6f",
		s.result.TotalTime, s.result.MemoryDelay, s.result.Downtime)
	return &s.result, nil
}

// precopyPass sends queued pages one at a time. With the guest at the
// destination, reads of pages still queued are serviced as faults, and a
// prefetching working set is steered towards the faulting page.
func (s *MigrationSimulator) precopyPass() (sent, faults int) {
	for s.pages.Len() > 0 {
		s.pages.Pop()
		s.currentTime += s.pageTime
		s.result.TransmittedData += s.config.PageSize
		sent++

		if s.config.Location != Destination {
			continue
		}
		for access := range s.history.Due(Read, s.notice, s.CurrentTime) {
			if !s.pages.Contains(access.Page) {
				continue
			}
			s.addMemoryDelay(s.pageTime)
			s.currentTime += s.pageTime
			s.pages.Remove(access.Page)
			s.result.TransmittedData += s.config.PageNumberWireSize + s.config.PageSize
			faults++
			if s.prefetch != nil {
				s.prefetch.Boost(access.Page, int64(s.result.PageFaults+faults))
			}
			s.trace.RecordFault(trace.FaultRecord{
				Iteration: s.result.Iterations,
				Clock:     s.currentTime,
				Page:      access.Page,
				Delay:     s.pageTime,
			})
		}
	}
	s.result.PagesTransferred += sent
	s.result.PageFaults += faults
	return sent, faults
}

// collectDirtyPages re-queues every page written since it became due.
func (s *MigrationSimulator) collectDirtyPages() int {
	dirty := 0
	for access := range s.history.Due(Write, s.notice, s.CurrentTime) {
		s.pages.Push(access.Page)
		dirty++
	}
	s.result.DirtyPages += dirty
	return dirty
}

// stopAndCopy commits the residual batch as downtime.
func (s *MigrationSimulator) stopAndCopy(duration float64) {
	s.result.ResidualPages += s.pages.Len()
	s.result.TransmittedData += float64(s.pages.Len()) * s.config.PageSize
	s.addDowntime(duration)
	s.currentTime += duration
	s.pages.Clear()
}

// addMemoryDelay postpones every pending access by value and books it as
// fault delay.
func (s *MigrationSimulator) addMemoryDelay(value float64) {
	s.history.Shift(value)
	s.memoryDelay += value
}

// addDowntime postpones every pending access by value and books it as
// downtime.
func (s *MigrationSimulator) addDowntime(value float64) {
	s.history.Shift(value)
	s.downtime += value
}

func (s *MigrationSimulator) checkBudget() error {
	if s.config.MaxIterations > 0 && s.result.Iterations >= s.config.MaxIterations {
		return fmt.Errorf("%w: %d pages pending after %d iterations",
			ErrDidNotConverge, s.pages.Len(), s.result.Iterations)
	}
	if s.config.MaxSimTime > 0 && s.currentTime >= s.config.MaxSimTime {
		return fmt.Errorf("%w: %d pages pending at t=%.6fs (budget %.6fs)",
			ErrDidNotConverge, s.pages.Len(), s.currentTime, s.config.MaxSimTime)
	}
	return nil
}

func (s *MigrationSimulator) finish() {
	s.result.TotalTime = s.currentTime
	s.result.MemoryDelay = s.memoryDelay
	s.result.Downtime = s.downtime
	s.result.EvictionTime = s.currentTime
}
