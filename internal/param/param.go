// Package param implements automatable audio parameters.
//
// Each parameter has a control handle, [AudioParam], used from any goroutine
// to schedule value changes, and a render-side timeline owned by the
// [Registry]. Events travel from the handle to the timeline through a bounded
// queue; the render side drains it once per quantum with [Registry.Tick] and
// exposes the computed values through [Values]. Audio-rate inputs are summed
// into those values with [Values.AddInput]. Nothing on the render side locks
// or allocates.
package param

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// Sentinel errors returned by automation methods.
var (
	ErrQueueFull    = errors.New("parameter event queue full")
	ErrInvalidTime  = errors.New("invalid automation time")
	ErrInvalidValue = errors.New("invalid parameter value")
)

// ID identifies a parameter within its [Registry].
type ID uint32

// Rate selects how often a parameter is evaluated.
type Rate int

const (
	// RateA evaluates the parameter for every frame.
	RateA Rate = iota
	// RateK evaluates the parameter once per render quantum.
	RateK
)

func (r Rate) String() string {
	switch r {
	case RateA:
		return "a-rate"
	case RateK:
		return "k-rate"
	default:
		return fmt.Sprintf("Rate(%d)", int(r))
	}
}

// Descriptor describes a parameter at creation time.
type Descriptor struct {
	Name     string
	Default  float32
	MinValue float32
	MaxValue float32
	Rate     Rate
}

// AudioParam is the control handle of a parameter. Its methods are safe for
// concurrent use.
type AudioParam struct {
	id    ID
	desc  Descriptor
	queue *eventQueue
	value atomic.Uint32 // float32 bits of the intrinsic value

	// Timed events queued or held by the timeline, bounded by timelineCapacity
	scheduled atomic.Int32
}

func newAudioParam(id ID, desc Descriptor) *AudioParam {
	p := &AudioParam{
		id:    id,
		desc:  desc,
		queue: newEventQueue(queueCapacity),
	}
	p.value.Store(math.Float32bits(desc.Default))
	return p
}

// ID returns the identifier used to look up rendered values.
func (p *AudioParam) ID() ID { return p.id }

// Name returns the descriptive name given at creation.
func (p *AudioParam) Name() string { return p.desc.Name }

// DefaultValue returns the initial value.
func (p *AudioParam) DefaultValue() float32 { return p.desc.Default }

// MinValue returns the lower bound applied to rendered values.
func (p *AudioParam) MinValue() float32 { return p.desc.MinValue }

// MaxValue returns the upper bound applied to rendered values.
func (p *AudioParam) MaxValue() float32 { return p.desc.MaxValue }

// Rate returns the evaluation rate.
func (p *AudioParam) Rate() Rate { return p.desc.Rate }

// Value returns the most recent value, either set directly or produced by
// rendering.
func (p *AudioParam) Value() float32 {
	return math.Float32frombits(p.value.Load())
}

// SetValue changes the value at the start of the next render quantum.
func (p *AudioParam) SetValue(v float32) error {
	if err := checkValue(v); err != nil {
		return err
	}
	if err := p.send(event{kind: eventSetValue, value: v}); err != nil {
		return err
	}
	p.value.Store(math.Float32bits(p.clamp(v)))
	return nil
}

// SetValueAtTime schedules a step to v at context time t in seconds.
func (p *AudioParam) SetValueAtTime(v float32, t float64) error {
	if err := checkValue(v); err != nil {
		return err
	}
	if err := checkTime(t); err != nil {
		return err
	}
	return p.schedule(event{kind: eventSetValueAtTime, value: v, time: t})
}

// LinearRampToValueAtTime schedules a linear ramp from the previous event to
// v, reaching it at context time t.
func (p *AudioParam) LinearRampToValueAtTime(v float32, t float64) error {
	if err := checkValue(v); err != nil {
		return err
	}
	if err := checkTime(t); err != nil {
		return err
	}
	return p.schedule(event{kind: eventLinearRamp, value: v, time: t})
}

// CancelScheduledValues removes every scheduled event at or after t.
func (p *AudioParam) CancelScheduledValues(t float64) error {
	if err := checkTime(t); err != nil {
		return err
	}
	return p.send(event{kind: eventCancel, time: t})
}

// Scheduled returns the number of timed events not yet reached by rendering.
func (p *AudioParam) Scheduled() int {
	return int(p.scheduled.Load())
}

// schedule sends a timed event after claiming a timeline slot for it.
func (p *AudioParam) schedule(e event) error {
	if p.scheduled.Add(1) > timelineCapacity {
		p.scheduled.Add(-1)
		return fmt.Errorf("%w: %s already holds %d scheduled events", ErrQueueFull, p.desc.Name, timelineCapacity)
	}
	if err := p.send(e); err != nil {
		p.scheduled.Add(-1)
		return err
	}
	return nil
}

func (p *AudioParam) send(e event) error {
	if !p.queue.push(e) {
		return fmt.Errorf("%w: %s", ErrQueueFull, p.desc.Name)
	}
	return nil
}

func (p *AudioParam) clamp(v float32) float32 {
	return min(max(v, p.desc.MinValue), p.desc.MaxValue)
}

func checkValue(v float32) error {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return nil
}

func checkTime(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTime, t)
	}
	return nil
}
