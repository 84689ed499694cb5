package param

import (
	"math"

	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

// timeline is the render-side state of one parameter.
type timeline struct {
	param *AudioParam

	// Scheduled events sorted by time, preallocated to timelineCapacity
	events []event

	// Current intrinsic value and the point the next ramp starts from
	value      float32
	startTime  float64
	startValue float32

	out []float32
	n   int
}

func newTimeline(p *AudioParam) *timeline {
	return &timeline{
		param:      p,
		events:     make([]event, 0, timelineCapacity),
		value:      p.desc.Default,
		startValue: p.desc.Default,
		out:        make([]float32, maxFrames),
	}
}

// drain moves queued events into the timeline. now is the time of the first
// frame of the quantum being rendered.
func (tl *timeline) drain(now float64) {
	for {
		e, ok := tl.param.queue.pop()
		if !ok {
			return
		}

		switch e.kind {
		case eventSetValue:
			tl.value = e.value
			tl.startTime = now
			tl.startValue = e.value
		case eventCancel:
			tl.cancel(e.time)
		default:
			tl.insert(e)
		}
	}
}

// insert adds e after any event with the same time. The control side
// reserves a slot before sending, so the timeline never overflows.
func (tl *timeline) insert(e event) {
	if len(tl.events) == cap(tl.events) {
		tl.param.scheduled.Add(-1)
		return
	}

	i := len(tl.events)
	tl.events = tl.events[:i+1]
	for ; i > 0 && tl.events[i-1].time > e.time; i-- {
		tl.events[i] = tl.events[i-1]
	}
	tl.events[i] = e
}

func (tl *timeline) cancel(t float64) {
	for i, e := range tl.events {
		if e.time >= t {
			tl.param.scheduled.Add(-int32(len(tl.events) - i))
			tl.events = tl.events[:i]
			return
		}
	}
}

// valueAt advances the timeline to t and returns the value there.
func (tl *timeline) valueAt(t float64) float32 {
	for len(tl.events) > 0 {
		e := tl.events[0]
		if e.time > t {
			if e.kind == eventLinearRamp {
				return tl.ramp(e, t)
			}
			break
		}
		tl.value = e.value
		tl.startTime = e.time
		tl.startValue = e.value
		tl.shift()
	}
	return tl.value
}

func (tl *timeline) ramp(e event, t float64) float32 {
	span := e.time - tl.startTime
	if span <= 0 {
		return e.value
	}
	frac := (t - tl.startTime) / span
	return tl.startValue + float32(frac)*(e.value-tl.startValue)
}

func (tl *timeline) shift() {
	copy(tl.events, tl.events[1:])
	tl.events = tl.events[:len(tl.events)-1]
	tl.param.scheduled.Add(-1)
}

// render computes the values of one quantum starting at now.
func (tl *timeline) render(now float64, sampleRate float64, frames int) {
	tl.drain(now)
	tl.compute(now, sampleRate, frames)
}

// compute fills out from the events drained so far.
func (tl *timeline) compute(now float64, sampleRate float64, frames int) {
	p := tl.param
	tl.out[0] = p.clamp(tl.valueAt(now))
	tl.n = 1
	if p.desc.Rate == RateA && len(tl.events) > 0 {
		frames = min(frames, len(tl.out))
		for i := 1; i < frames; i++ {
			tl.out[i] = p.clamp(tl.valueAt(now + float64(i)/sampleRate))
		}
		tl.n = max(1, frames)
	}

	// Keep the handle in sync with what was rendered, unless a SetValue queued
	// after the drain already holds the newer value
	if p.queue.len() > 0 {
		return
	}
	last := tl.out[tl.n-1]
	if p.value.Load() != math.Float32bits(last) {
		p.value.Store(math.Float32bits(last))
	}
}

// addInput sums an audio-rate input into the values of the current quantum
// and clamps the result to the parameter range. K-rate parameters take the
// first frame only.
func (tl *timeline) addInput(in []float32) {
	if len(in) == 0 {
		return
	}

	p := tl.param
	if p.desc.Rate == RateK {
		tl.out[0] = p.clamp(tl.out[0] + in[0])
		return
	}

	frames := min(len(in), len(tl.out))
	for i := tl.n; i < frames; i++ {
		tl.out[i] = tl.out[tl.n-1]
	}
	tl.n = max(tl.n, frames)

	simdops.Float32Ops().AddScaled(tl.out[:frames], 1, in[:frames])
	for i := range tl.n {
		tl.out[i] = p.clamp(tl.out[i])
	}
}
