package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/inference-sim/migration-sim/sim"
)

// PageShift converts a byte address into a 4 KiB page frame number.
const PageShift = 12

// DefaultAccessGap is the spacing between consecutive accesses of a
// recorded trace, in seconds.
const DefaultAccessGap = 1e-6

// AccessTrace is a recorded memory trace with pages renumbered densely.
type AccessTrace struct {
	PageCount int
	Events    []sim.AccessEvent
	Frames    []uint64 // Frames[i] is the original page frame of dense page i
}

// LoadAccessTrace opens path and parses it with ParseAccessTrace.
func LoadAccessTrace(path string, gap float64) (*AccessTrace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening access trace: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseAccessTrace(file, gap)
}

// ParseAccessTrace reads a whitespace-separated trace with one access per
// line: "<tag> <R|W> <hex address>". The first column is ignored. Blank
// lines and lines starting with '#' are skipped. Distinct page frames
// (address >> PageShift) are renumbered 0..n-1 in ascending frame order,
// and the i-th access is stamped at i*gap seconds.
func ParseAccessTrace(r io.Reader, gap float64) (*AccessTrace, error) {
	if !(gap > 0) {
		return nil, fmt.Errorf("access gap must be positive, got %v", gap)
	}

	type rawAccess struct {
		frame uint64
		typ   sim.AccessType
	}
	var raw []rawAccess
	frameSet := make(map[uint64]struct{})

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		if len(fields) > 3 {
			logrus.Warnf("access trace line %d: ignoring %d trailing fields", lineNo, len(fields)-3)
		}
		typ, err := parseOp(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(fields[2]), "0x"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad address %q: %w", lineNo, fields[2], err)
		}
		frame := addr >> PageShift
		raw = append(raw, rawAccess{frame: frame, typ: typ})
		frameSet[frame] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading access trace: %w", err)
	}

	frames := make([]uint64, 0, len(frameSet))
	for f := range frameSet {
		frames = append(frames, f)
	}
	slices.Sort(frames)
	index := make(map[uint64]int, len(frames))
	for i, f := range frames {
		index[f] = i
	}

	events := make([]sim.AccessEvent, len(raw))
	for i, a := range raw {
		events[i] = sim.AccessEvent{Time: float64(i) * gap, Type: a.typ, Page: index[a.frame]}
	}
	return &AccessTrace{PageCount: len(frames), Events: events, Frames: frames}, nil
}

// parseOp accepts only the single-letter operation codes of the trace format.
func parseOp(s string) (sim.AccessType, error) {
	switch s {
	case "R", "r":
		return sim.Read, nil
	case "W", "w":
		return sim.Write, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// WriteAccessTrace writes events in the format read by ParseAccessTrace,
// using the page number as the frame. Timestamps are not preserved.
func WriteAccessTrace(w io.Writer, events []sim.AccessEvent) error {
	bw := bufio.NewWriter(w)
	for i, ev := range events {
		op := "R"
		if ev.Type == sim.Write {
			op = "W"
		}
		if _, err := fmt.Fprintf(bw, "%d %s 0x%x\n", i, op, uint64(ev.Page)<<PageShift); err != nil {
			return fmt.Errorf("writing access %d: %w", i, err)
		}
	}
	return bw.Flush()
}
