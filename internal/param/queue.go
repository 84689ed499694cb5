package param

import (
	"sync"
	"sync/atomic"
)

type eventKind uint8

const (
	eventSetValue eventKind = iota
	eventSetValueAtTime
	eventLinearRamp
	eventCancel
)

// event is one automation instruction travelling from the control side to
// the render side.
type event struct {
	kind  eventKind
	value float32
	time  float64
}

// eventQueue is a bounded single-consumer FIFO of events. It uses a
// power-of-2 capacity so that positions wrap with a mask.
//
// Producers are serialized by mu. The consumer never locks: it observes
// writePos with an atomic load and publishes readPos with an atomic store.
type eventQueue struct {
	data     []event
	mask     uint32
	readPos  atomic.Uint32
	writePos atomic.Uint32
	mu       sync.Mutex
}

// newEventQueue creates a queue. Capacity is rounded up to the nearest power of 2.
func newEventQueue(capacity int) *eventQueue {
	cap2 := 1
	for cap2 < capacity {
		cap2 <<= 1
	}

	return &eventQueue{
		data: make([]event, cap2),
		mask: uint32(cap2 - 1),
	}
}

// push appends e. It reports false when the queue is full.
func (q *eventQueue) push(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	w := q.writePos.Load()
	if w-q.readPos.Load() >= uint32(len(q.data)) {
		return false
	}

	q.data[w&q.mask] = e
	q.writePos.Store(w + 1)
	return true
}

// pop removes the oldest event. Only the render goroutine may call it.
func (q *eventQueue) pop() (event, bool) {
	r := q.readPos.Load()
	if r == q.writePos.Load() {
		return event{}, false
	}

	e := q.data[r&q.mask]
	q.readPos.Store(r + 1)
	return e, true
}

// len returns the number of queued events.
func (q *eventQueue) len() int {
	return int(q.writePos.Load() - q.readPos.Load())
}
