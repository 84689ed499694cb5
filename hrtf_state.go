package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tphakala/go-audio-spatial/internal/hrtf"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
	"gonum.org/v1/gonum/spatial/r3"
)

// forwardDirection is straight ahead in the HRIR frame.
var forwardDirection = mgl32.Vec3{0, 0, 1}

// hrtfState is the binaural convolution state of one HRTF panner.
//
// It remembers the direction and gain of the previous quantum so that each
// quantum crossfades from the old filter to the new one, and it carries the
// convolution tails across quantum boundaries. Every buffer is allocated here.
type hrtfState struct {
	proc *hrtf.Processor
	ctx  hrtf.Context
}

func newHrtfState(sphere *hrtf.Sphere) *hrtfState {
	proc := hrtf.NewProcessor(sphere, hrtfInterpolationSteps, RenderQuantumSize)
	tail := proc.TailLength()

	return &hrtfState{
		proc: proc,
		ctx: hrtf.Context{
			Output:        make([]float32, stereoChannels*RenderQuantumSize),
			PrevDirection: forwardDirection,
			PrevGain:      0,
			PrevLeftTail:  make([]float32, tail),
			PrevRightTail: make([]float32, tail),
		},
	}
}

// Process convolves one quantum of mono input and returns it as interleaved
// stereo. The returned slice is reused by the next call.
func (s *hrtfState) Process(mono []float32, gain float32, direction mgl32.Vec3) []float32 {
	s.ctx.Source = mono
	s.ctx.NewDirection = direction
	s.ctx.NewGain = gain

	s.proc.Process(&s.ctx)

	s.ctx.Source = nil
	s.ctx.PrevDirection = direction
	s.ctx.PrevGain = gain

	return s.ctx.Output
}

// Ringing reports whether the convolution tails hold signal that has not
// been output yet.
func (s *hrtfState) Ringing() bool {
	return !simdops.IsSilent(s.ctx.PrevLeftTail) || !simdops.IsSilent(s.ctx.PrevRightTail)
}

// ClearOutput zeroes the interleaved output buffer.
func (s *hrtfState) ClearOutput() {
	clear(s.ctx.Output)
}

// hrtfDirection converts a direction to the unit vector the convolver
// expects. A vector with every component within directionEpsilon of zero, or
// with a NaN component, has no usable heading and maps to straight ahead.
func hrtfDirection(v r3.Vec) mgl32.Vec3 {
	if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) {
		return forwardDirection
	}
	if math.Abs(v.X) < directionEpsilon && math.Abs(v.Y) < directionEpsilon && math.Abs(v.Z) < directionEpsilon {
		return forwardDirection
	}

	u := r3.Unit(v)
	return mgl32.Vec3{float32(u.X), float32(u.Y), float32(u.Z)}
}
