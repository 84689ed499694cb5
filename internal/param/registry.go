package param

import (
	"sync"
	"sync/atomic"
)

// Registry owns every parameter of one audio context.
//
// [Registry.Create] is called on the control side. [Registry.Tick] and the
// [Values] it returns belong to the render goroutine.
type Registry struct {
	mu        sync.Mutex
	timelines atomic.Pointer[[]*timeline]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make([]*timeline, 0)
	r.timelines.Store(&empty)
	return r
}

// Create registers a new parameter and returns its control handle and ID.
func (r *Registry) Create(desc Descriptor) (*AudioParam, ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.timelines.Load()
	id := ID(len(old))
	p := newAudioParam(id, desc)

	next := make([]*timeline, len(old), len(old)+1)
	copy(next, old)
	next = append(next, newTimeline(p))
	r.timelines.Store(&next)

	return p, id
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int {
	return len(*r.timelines.Load())
}

// Tick renders every parameter for the quantum starting at context time now
// and returns the resulting values.
func (r *Registry) Tick(now, sampleRate float64, frames int) Values {
	tls := *r.timelines.Load()
	for _, tl := range tls {
		tl.render(now, sampleRate, frames)
	}
	return Values{timelines: tls}
}

// Values gives read access to the values rendered by the latest
// [Registry.Tick]. It is only valid until the next Tick.
type Values struct {
	timelines []*timeline
}

// Get returns the values of parameter id for the current quantum. The slice
// has one element for k-rate parameters and for a-rate parameters that hold
// a constant value across the quantum; otherwise one element per frame.
// Unknown IDs yield nil.
func (v Values) Get(id ID) []float32 {
	if int(id) >= len(v.timelines) {
		return nil
	}
	tl := v.timelines[id]
	return tl.out[:tl.n]
}

// AddInput sums in, one value per frame, into the values of parameter id for
// the current quantum. Unknown IDs are ignored.
func (v Values) AddInput(id ID, in []float32) {
	if int(id) >= len(v.timelines) {
		return
	}
	v.timelines[id].addInput(in)
}
