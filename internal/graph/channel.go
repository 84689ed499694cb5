package graph

import (
	"fmt"
	"sync/atomic"
)

// ChannelCountMode decides how the channel count of a node's inputs is
// computed from the channels connected to them.
type ChannelCountMode int32

const (
	// Max uses the largest connected channel count.
	Max ChannelCountMode = iota
	// ClampedMax uses the largest connected channel count, limited to the
	// configured count.
	ClampedMax
	// Explicit always uses the configured count.
	Explicit
)

func (m ChannelCountMode) String() string {
	switch m {
	case Max:
		return "max"
	case ClampedMax:
		return "clamped-max"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("ChannelCountMode(%d)", int32(m))
	}
}

// ChannelInterpretation selects up- and down-mixing rules.
type ChannelInterpretation int32

const (
	// Speakers applies speaker layout mixing rules.
	Speakers ChannelInterpretation = iota
	// Discrete maps channels by index.
	Discrete
)

func (i ChannelInterpretation) String() string {
	switch i {
	case Speakers:
		return "speakers"
	case Discrete:
		return "discrete"
	default:
		return fmt.Sprintf("ChannelInterpretation(%d)", int32(i))
	}
}

// ChannelConfig holds a node's channel settings. It is written by the
// control side and read by the render side without locking.
type ChannelConfig struct {
	count  atomic.Int32
	mode   atomic.Int32
	interp atomic.Int32
}

// NewChannelConfig creates a channel configuration.
func NewChannelConfig(count int, mode ChannelCountMode, interp ChannelInterpretation) *ChannelConfig {
	c := &ChannelConfig{}
	c.count.Store(int32(count))
	c.mode.Store(int32(mode))
	c.interp.Store(int32(interp))
	return c
}

// Count returns the configured channel count.
func (c *ChannelConfig) Count() int { return int(c.count.Load()) }

// Mode returns the channel count mode.
func (c *ChannelConfig) Mode() ChannelCountMode { return ChannelCountMode(c.mode.Load()) }

// Interpretation returns the channel interpretation.
func (c *ChannelConfig) Interpretation() ChannelInterpretation {
	return ChannelInterpretation(c.interp.Load())
}

// SetCount stores a new channel count. Validation is the caller's job.
func (c *ChannelConfig) SetCount(n int) { c.count.Store(int32(n)) }

// SetMode stores a new channel count mode.
func (c *ChannelConfig) SetMode(m ChannelCountMode) { c.mode.Store(int32(m)) }

// SetInterpretation stores a new channel interpretation.
func (c *ChannelConfig) SetInterpretation(i ChannelInterpretation) { c.interp.Store(int32(i)) }

// ComputedChannels returns the input channel count for a node whose inputs
// carry at most maxInput channels.
func (c *ChannelConfig) ComputedChannels(maxInput int) int {
	switch c.Mode() {
	case ClampedMax:
		return min(maxInput, c.Count())
	case Explicit:
		return c.Count()
	default:
		return maxInput
	}
}
