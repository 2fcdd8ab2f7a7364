package sim

import (
	"fmt"
	"iter"
	"math"
)

// AccessType tags a memory access as a read or a write.
type AccessType int

const (
	Read AccessType = iota
	Write
)

// String implements fmt.Stringer.
func (t AccessType) String() string {
	switch t {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("AccessType(%d)", int(t))
	}
}

// ParseAccessType accepts "read"/"r"/"R" and "write"/"w"/"W".
func ParseAccessType(s string) (AccessType, error) {
	switch s {
	case "read", "r", "R":
		return Read, nil
	case "write", "w", "W":
		return Write, nil
	}
	return 0, fmt.Errorf("%w: unknown access type %q", ErrInvalidInput, s)
}

// AccessEvent is one memory access observed by the guest at a point in
// simulated time (seconds).
type AccessEvent struct {
	Time float64
	Type AccessType
	Page int
}

// AccessHistory is a time-ordered queue of access events that a simulator
// consumes from the front. Events still resident can be shifted later in
// time as a block.
//
// Thread-safety: NOT thread-safe. Owned by a single simulator.
type AccessHistory struct {
	events []AccessEvent
	head   int
}

// NewAccessHistory copies events into a new history. The caller keeps
// ownership of its slice; later changes to it are not observed.
// Events must be sorted by Time, with finite times, known types and
// non-negative page numbers.
func NewAccessHistory(events []AccessEvent) (*AccessHistory, error) {
	owned := make([]AccessEvent, len(events))
	copy(owned, events)
	for i, ev := range owned {
		if math.IsNaN(ev.Time) || math.IsInf(ev.Time, 0) {
			return nil, fmt.Errorf("%w: event %d has non-finite time %v", ErrInvalidInput, i, ev.Time)
		}
		if ev.Type != Read && ev.Type != Write {
			return nil, fmt.Errorf("%w: event %d has unknown type %d", ErrInvalidInput, i, int(ev.Type))
		}
		if ev.Page < 0 {
			return nil, fmt.Errorf("%w: event %d has negative page %d", ErrInvalidInput, i, ev.Page)
		}
		if i > 0 && ev.Time < owned[i-1].Time {
			return nil, fmt.Errorf("%w: event %d at %v precedes event %d at %v",
				ErrInvalidInput, i, ev.Time, i-1, owned[i-1].Time)
		}
	}
	return &AccessHistory{events: owned}, nil
}

// Len returns the number of events not yet consumed.
func (h *AccessHistory) Len() int { return len(h.events) - h.head }

// Front returns the earliest resident event.
func (h *AccessHistory) Front() (AccessEvent, bool) {
	if h.Len() == 0 {
		return AccessEvent{}, false
	}
	return h.events[h.head], true
}

// Events returns a copy of the resident events in order.
func (h *AccessHistory) Events() []AccessEvent {
	out := make([]AccessEvent, h.Len())
	copy(out, h.events[h.head:])
	return out
}

// Shift delays every resident event by value seconds.
// Consumed events are gone and therefore unaffected.
func (h *AccessHistory) Shift(value float64) {
	if value == 0 {
		return
	}
	for i := h.head; i < len(h.events); i++ {
		h.events[i].Time += value
	}
}

// NextDue pops events from the front while they are due at now, i.e.
// Time+notice < now. The first popped event of type t is returned.
// Popped events of the other type are discarded for good, so calling
// NextDue(Write, ...) can silently drop earlier due reads and vice versa.
func (h *AccessHistory) NextDue(t AccessType, notice, now float64) (AccessEvent, bool) {
	for h.head < len(h.events) && h.events[h.head].Time+notice < now {
		ev := h.events[h.head]
		h.events[h.head] = AccessEvent{}
		h.head++
		h.compact()
		if ev.Type == t {
			return ev, true
		}
	}
	return AccessEvent{}, false
}

// Due lazily drains due events of type t. The clock is read again before
// every pop, so a consumer that advances time between yields sees later
// events become due within the same drain.
func (h *AccessHistory) Due(t AccessType, notice float64, clock func() float64) iter.Seq[AccessEvent] {
	return func(yield func(AccessEvent) bool) {
		for {
			ev, ok := h.NextDue(t, notice, clock())
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

// compact releases the consumed prefix once it dominates the backing array.
func (h *AccessHistory) compact() {
	if h.head < 1024 || h.head*2 < len(h.events) {
		return
	}
	n := copy(h.events, h.events[h.head:])
	h.events = h.events[:n]
	h.head = 0
}
