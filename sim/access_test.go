package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHistory(t *testing.T, events ...AccessEvent) *AccessHistory {
	t.Helper()
	h, err := NewAccessHistory(events)
	require.NoError(t, err)
	return h
}

func TestNewAccessHistory_InvalidEvents_ReturnErrInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		events []AccessEvent
	}{
		{"unsorted", []AccessEvent{{Time: 2, Type: Read}, {Time: 1, Type: Read}}},
		{"negative page", []AccessEvent{{Time: 0, Type: Write, Page: -1}}},
		{"unknown type", []AccessEvent{{Time: 0, Type: AccessType(7)}}},
		{"NaN time", []AccessEvent{{Time: math.NaN(), Type: Read}}},
		{"infinite time", []AccessEvent{{Time: math.Inf(1), Type: Read}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccessHistory(tt.events)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNewAccessHistory_CopiesCallerSlice(t *testing.T) {
	// GIVEN a caller-owned slice
	events := []AccessEvent{{Time: 1, Type: Read, Page: 3}}
	h := mustHistory(t, events...)

	// WHEN the caller mutates its slice and the history is shifted
	events[0].Page = 99
	h.Shift(5)

	// THEN neither side observes the other
	front, ok := h.Front()
	require.True(t, ok)
	assert.Equal(t, 3, front.Page)
	assert.Equal(t, 6.0, front.Time)
	assert.Equal(t, 1.0, events[0].Time)
}

func TestAccessHistory_NextDue_StrictlyBeforeNow(t *testing.T) {
	h := mustHistory(t, AccessEvent{Time: 1, Type: Read, Page: 0})

	// Time + notice == now is not yet due.
	_, ok := h.NextDue(Read, 0.5, 1.5)
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len())

	ev, ok := h.NextDue(Read, 0.5, 1.5000001)
	require.True(t, ok)
	assert.Equal(t, 0, ev.Page)
	assert.Equal(t, 0, h.Len())
}

func TestAccessHistory_NextDue_DiscardsOtherType(t *testing.T) {
	// GIVEN a read interleaved before a write, both due
	h := mustHistory(t,
		AccessEvent{Time: 0.1, Type: Read, Page: 1},
		AccessEvent{Time: 0.2, Type: Write, Page: 2},
		AccessEvent{Time: 0.3, Type: Read, Page: 3},
		AccessEvent{Time: 5.0, Type: Read, Page: 4},
	)

	// WHEN the first due write is requested
	ev, ok := h.NextDue(Write, 0, 1)

	// THEN the write is returned and the earlier read is gone for good
	require.True(t, ok)
	assert.Equal(t, 2, ev.Page)
	assert.Equal(t, []AccessEvent{
		{Time: 0.3, Type: Read, Page: 3},
		{Time: 5.0, Type: Read, Page: 4},
	}, h.Events())

	// WHEN no further writes are due
	_, ok = h.NextDue(Write, 0, 1)

	// THEN the remaining due read was consumed too, the future one stays
	assert.False(t, ok)
	assert.Equal(t, []AccessEvent{{Time: 5.0, Type: Read, Page: 4}}, h.Events())
}

func TestAccessHistory_Due_YieldsMatchingAndConsumesPrefix(t *testing.T) {
	h := mustHistory(t,
		AccessEvent{Time: 0.1, Type: Write, Page: 1},
		AccessEvent{Time: 0.2, Type: Read, Page: 2},
		AccessEvent{Time: 0.3, Type: Write, Page: 3},
		AccessEvent{Time: 2.0, Type: Write, Page: 4},
	)

	var pages []int
	for ev := range h.Due(Write, 0, func() float64 { return 1 }) {
		pages = append(pages, ev.Page)
	}

	assert.Equal(t, []int{1, 3}, pages)
	assert.Equal(t, 1, h.Len())
}

func TestAccessHistory_Due_ObservesClockAdvanceBetweenYields(t *testing.T) {
	// GIVEN events at 1 and 2 and a clock at 1.5
	h := mustHistory(t,
		AccessEvent{Time: 1, Type: Read, Page: 1},
		AccessEvent{Time: 2, Type: Read, Page: 2},
	)
	now := 1.5

	// WHEN the consumer advances the clock past the second event while draining
	var pages []int
	for ev := range h.Due(Read, 0, func() float64 { return now }) {
		pages = append(pages, ev.Page)
		now = 3
	}

	// THEN both are drained in one pass
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, 0, h.Len())
}

func TestAccessHistory_Due_EarlyBreakLeavesRest(t *testing.T) {
	h := mustHistory(t,
		AccessEvent{Time: 0, Type: Read, Page: 1},
		AccessEvent{Time: 0, Type: Read, Page: 2},
	)
	for range h.Due(Read, 0, func() float64 { return 1 }) {
		break
	}
	assert.Equal(t, 1, h.Len())
}

func TestAccessHistory_Shift_ZeroIsIdentity(t *testing.T) {
	events := []AccessEvent{
		{Time: 0.25, Type: Read, Page: 1},
		{Time: 0.5, Type: Write, Page: 2},
	}
	h := mustHistory(t, events...)
	h.Shift(0)
	assert.Equal(t, events, h.Events())
}

func TestAccessHistory_Shift_OnlyAffectsResidentEvents(t *testing.T) {
	h := mustHistory(t,
		AccessEvent{Time: 0, Type: Read, Page: 1},
		AccessEvent{Time: 1, Type: Read, Page: 2},
	)
	consumed, ok := h.NextDue(Read, 0, 0.5)
	require.True(t, ok)

	h.Shift(2)

	assert.Equal(t, 0.0, consumed.Time)
	assert.Equal(t, []AccessEvent{{Time: 3, Type: Read, Page: 2}}, h.Events())
}

func TestAccessHistory_LongDrain_CompactsWithoutLosingOrder(t *testing.T) {
	events := make([]AccessEvent, 5000)
	for i := range events {
		events[i] = AccessEvent{Time: float64(i), Type: Write, Page: i}
	}
	h := mustHistory(t, events...)

	n := 0
	for ev := range h.Due(Write, 0, func() float64 { return 3000 }) {
		assert.Equal(t, n, ev.Page)
		n++
	}
	assert.Equal(t, 3000, n)
	front, ok := h.Front()
	require.True(t, ok)
	assert.Equal(t, 3000, front.Page)
	assert.Equal(t, 2000, h.Len())
}

func TestParseAccessType(t *testing.T) {
	for _, s := range []string{"read", "r", "R"} {
		got, err := ParseAccessType(s)
		require.NoError(t, err)
		assert.Equal(t, Read, got)
	}
	for _, s := range []string{"write", "w", "W"} {
		got, err := ParseAccessType(s)
		require.NoError(t, err)
		assert.Equal(t, Write, got)
	}
	_, err := ParseAccessType("x")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "write", Write.String())
}
