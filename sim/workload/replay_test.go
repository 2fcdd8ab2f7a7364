package workload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/migration-sim/sim"
)

func TestParseAccessTrace_RemapsFramesDensely(t *testing.T) {
	// GIVEN accesses to frames 0x7f, 0x10 and 0x7f again
	input := `
# pin op address
0 R 0x7f000
1 W 10abc
2 r 0x7F123
`
	tr, err := ParseAccessTrace(strings.NewReader(input), 0.5)
	require.NoError(t, err)

	// THEN frames are renumbered in ascending order and stamped by position
	assert.Equal(t, 2, tr.PageCount)
	assert.Equal(t, []uint64{0x10, 0x7f}, tr.Frames)
	assert.Equal(t, []sim.AccessEvent{
		{Time: 0, Type: sim.Read, Page: 1},
		{Time: 0.5, Type: sim.Write, Page: 0},
		{Time: 1.0, Type: sim.Read, Page: 1},
	}, tr.Events)
}

func TestParseAccessTrace_MalformedLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "0 R\n"},
		{"bad op", "0 X 0x1000\n"},
		{"bad address", "0 R 0xzz\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessTrace(strings.NewReader("0 R 0x0\n"+tt.input), DefaultAccessGap)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestParseAccessTrace_NonPositiveGap(t *testing.T) {
	_, err := ParseAccessTrace(strings.NewReader(""), 0)
	assert.Error(t, err)
}

func TestParseAccessTrace_Empty(t *testing.T) {
	tr, err := ParseAccessTrace(strings.NewReader("\n# nothing\n"), DefaultAccessGap)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.PageCount)
	assert.Empty(t, tr.Events)
}

func TestWriteAccessTrace_ReadBack(t *testing.T) {
	// GIVEN generated events touching every page
	spec := validSpec()
	spec.PageCount = 8
	spec.Pattern = PatternSpec{Type: "sequential"}
	events, err := GenerateAccesses(spec)
	require.NoError(t, err)

	// WHEN written to a file and loaded again
	var buf bytes.Buffer
	require.NoError(t, WriteAccessTrace(&buf, events))
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	tr, err := LoadAccessTrace(path, DefaultAccessGap)
	require.NoError(t, err)

	// THEN pages and types survive; times are restamped
	require.Len(t, tr.Events, len(events))
	assert.Equal(t, 8, tr.PageCount)
	for i := range events {
		assert.Equal(t, events[i].Page, tr.Events[i].Page)
		assert.Equal(t, events[i].Type, tr.Events[i].Type)
	}
}

func TestLoadAccessTrace_MissingFile(t *testing.T) {
	_, err := LoadAccessTrace(filepath.Join(t.TempDir(), "missing.txt"), DefaultAccessGap)
	assert.Error(t, err)
}
