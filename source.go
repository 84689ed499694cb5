package spatial

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Source scheduling sentinels
const (
	notStarted = -1
	neverStops = math.MaxInt64
)

// BufferSourceNode plays an [AudioBuffer] once or in a loop.
type BufferSourceNode struct {
	audioNode
	state *sourceState
}

// sourceState is shared between the control side and the renderer.
type sourceState struct {
	startFrame atomic.Int64
	stopFrame  atomic.Int64
	loop       atomic.Bool
	ended      atomic.Bool
}

// CreateBufferSource creates a source node playing buf. The buffer must have
// the context's sample rate; see [AudioBuffer.Resample].
func (c *Context) CreateBufferSource(buf *AudioBuffer) (*BufferSourceNode, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: buffer is nil", ErrInvalidConfig)
	}
	if buf.SampleRate() != c.sampleRate {
		return nil, fmt.Errorf("%w: buffer sample rate %v differs from context rate %v",
			ErrNotSupported, buf.SampleRate(), c.sampleRate)
	}

	state := &sourceState{}
	state.startFrame.Store(notStarted)
	state.stopFrame.Store(neverStops)

	s := &BufferSourceNode{state: state}
	s.register(c, &sourceRenderer{buffer: buf, state: state}, graph.NodeConfig{NumberOfOutputs: 1})

	c.logger.Debug("buffer source created",
		"node", s.id,
		"channels", buf.NumberOfChannels(),
		"frames", buf.Length())

	return s, nil
}

// Start schedules playback at context time when in seconds. A source can
// only be started once.
func (s *BufferSourceNode) Start(when float64) error {
	frame, err := s.frameAt(when)
	if err != nil {
		return err
	}
	if !s.state.startFrame.CompareAndSwap(notStarted, frame) {
		return fmt.Errorf("%w: source already started", ErrInvalidState)
	}
	return nil
}

// Stop schedules the end of playback at context time when in seconds.
func (s *BufferSourceNode) Stop(when float64) error {
	frame, err := s.frameAt(when)
	if err != nil {
		return err
	}
	if s.state.startFrame.Load() == notStarted {
		return fmt.Errorf("%w: source not started", ErrInvalidState)
	}
	s.state.stopFrame.Store(frame)
	return nil
}

// Loop reports whether the buffer repeats.
func (s *BufferSourceNode) Loop() bool { return s.state.loop.Load() }

// SetLoop makes the buffer repeat until the source is stopped.
func (s *BufferSourceNode) SetLoop(loop bool) { s.state.loop.Store(loop) }

// Ended reports whether playback has finished.
func (s *BufferSourceNode) Ended() bool { return s.state.ended.Load() }

func (s *BufferSourceNode) frameAt(when float64) (int64, error) {
	if !isFinite(when) || when < 0 {
		return 0, fmt.Errorf("%w: invalid time %v", ErrInvalidConfig, when)
	}
	return int64(math.Round(when * float64(s.ctx.sampleRate))), nil
}

// sourceRenderer copies the buffer to its output frame by frame.
type sourceRenderer struct {
	buffer   *AudioBuffer
	state    *sourceState
	position int
}

func (r *sourceRenderer) Process(_, outputs []*graph.Quantum, _ param.Values, scope *graph.Scope) bool {
	out := outputs[0]

	if r.state.ended.Load() {
		out.MakeSilent()
		return false
	}

	channels := r.buffer.NumberOfChannels()
	out.SetNumberOfChannels(channels)
	out.Clear()

	start := r.state.startFrame.Load()
	stop := r.state.stopFrame.Load()
	if start == notStarted {
		return false
	}

	length := r.buffer.Length()
	loop := r.state.loop.Load()

	for i := range RenderQuantumSize {
		frame := int64(scope.CurrentFrame) + int64(i)
		if frame < start {
			continue
		}
		if frame >= stop || r.position >= length {
			r.state.ended.Store(true)
			break
		}

		for ch := range channels {
			out.Channel(ch)[i] = r.buffer.channels[ch][r.position]
		}
		r.position++
		if loop && r.position >= length {
			r.position = 0
		}
	}

	return false
}
