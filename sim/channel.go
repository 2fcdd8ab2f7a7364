package sim

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPacketOverhead is the fixed per-transfer framing cost in kB.
const DefaultPacketOverhead = 0.020

// ErrInvalidChannel is returned when a channel is configured with a
// non-positive speed or packet overhead.
var ErrInvalidChannel = errors.New("invalid channel")

// Channel converts a data volume into a transfer duration.
// Volumes are in kB, speed in kB/s, durations in seconds.
//
// A Channel is immutable after construction and may be shared between
// independent simulations.
type Channel struct {
	speed          float64 // kB/s, always > 0
	packetOverhead float64 // kB added to every transfer
}

// NewChannel creates a Channel. speed and overhead must be finite and > 0,
// so every transfer takes strictly positive time.
func NewChannel(speed, overhead float64) (*Channel, error) {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: speed must be > 0, got %v", ErrInvalidChannel, speed)
	}
	if !(overhead > 0) || math.IsInf(overhead, 0) {
		return nil, fmt.Errorf("%w: packet overhead must be > 0, got %v", ErrInvalidChannel, overhead)
	}
	return &Channel{speed: speed, packetOverhead: overhead}, nil
}

// Speed returns the channel speed in kB/s.
func (c *Channel) Speed() float64 { return c.speed }

// PacketOverhead returns the per-transfer overhead in kB.
func (c *Channel) PacketOverhead() float64 { return c.packetOverhead }

// TransferTime returns the time needed to send volume kB in one transfer.
// volume must be >= 0. The result is always > 0, even for an empty volume.
func (c *Channel) TransferTime(volume float64) float64 {
	return (volume + c.packetOverhead) / c.speed
}
