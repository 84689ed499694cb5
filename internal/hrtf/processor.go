package hrtf

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

// Context carries one block of work for [Processor.Process].
//
// The caller owns all slices and the previous-block state; the processor
// only reads PrevDirection and PrevGain and rewrites the tails in place.
type Context struct {
	// Source is the mono input block, [Processor.BlockSize] samples.
	Source []float32

	// Output receives interleaved stereo, 2*[Processor.BlockSize] samples.
	Output []float32

	// Direction and gain at the start and at the end of the block.
	PrevDirection mgl32.Vec3
	NewDirection  mgl32.Vec3
	PrevGain      float32
	NewGain       float32

	// Convolution tails carried over from the previous block,
	// [Processor.TailLength] samples each.
	PrevLeftTail  []float32
	PrevRightTail []float32
}

// Processor convolves mono blocks with direction-dependent HRIRs.
//
// Each block is split into interpolation steps. Within a step the output is
// crossfaded from the response for the step's start direction and gain to
// the one for its end direction and gain, and convolution tails are
// overlap-added into the next block. All buffers are allocated by
// [NewProcessor]; Process does not allocate.
type Processor struct {
	sphere         *Sphere
	ops            *simdops.Ops[float32]
	steps          int
	samplesPerStep int
	blockSize      int
	irLen          int

	// Reversed HRIRs at the start and end of the current step
	startLeft, startRight []float32
	endLeft, endRight     []float32

	// Zero-padded copy of one step of input
	padded []float32

	// Full convolution results for one step
	convStart, convEnd []float32

	// Overlap-add accumulators for the whole block plus tail
	accLeft, accRight []float32
}

// NewProcessor creates a processor for blocks of
// interpolationSteps*samplesPerStep samples.
func NewProcessor(sphere *Sphere, interpolationSteps, samplesPerStep int) *Processor {
	interpolationSteps = max(1, interpolationSteps)
	samplesPerStep = max(1, samplesPerStep)

	irLen := sphere.Len()
	blockSize := interpolationSteps * samplesPerStep
	convLen := samplesPerStep + irLen - 1

	return &Processor{
		sphere:         sphere,
		ops:            simdops.Float32Ops(),
		steps:          interpolationSteps,
		samplesPerStep: samplesPerStep,
		blockSize:      blockSize,
		irLen:          irLen,
		startLeft:      make([]float32, irLen),
		startRight:     make([]float32, irLen),
		endLeft:        make([]float32, irLen),
		endRight:       make([]float32, irLen),
		padded:         make([]float32, samplesPerStep+2*(irLen-1)),
		convStart:      make([]float32, convLen),
		convEnd:        make([]float32, convLen),
		accLeft:        make([]float32, blockSize+irLen-1),
		accRight:       make([]float32, blockSize+irLen-1),
	}
}

// BlockSize returns the number of mono samples consumed per call.
func (p *Processor) BlockSize() int {
	return p.blockSize
}

// TailLength returns the number of samples carried between blocks per ear.
func (p *Processor) TailLength() int {
	return p.irLen - 1
}

// Process renders ctx.Source into ctx.Output and replaces the tails with the
// part of the convolution that spills into the next block.
func (p *Processor) Process(ctx *Context) {
	clear(p.accLeft)
	clear(p.accRight)

	steps := float32(p.steps)
	for s := range p.steps {
		t0 := float32(s) / steps
		t1 := float32(s+1) / steps

		p.sphere.Interpolate(blendDirection(ctx.PrevDirection, ctx.NewDirection, t0), p.startLeft, p.startRight)
		p.sphere.Interpolate(blendDirection(ctx.PrevDirection, ctx.NewDirection, t1), p.endLeft, p.endRight)
		gainStart := ctx.PrevGain + (ctx.NewGain-ctx.PrevGain)*t0
		gainEnd := ctx.PrevGain + (ctx.NewGain-ctx.PrevGain)*t1

		offset := s * p.samplesPerStep
		copy(p.padded[p.irLen-1:], ctx.Source[offset:offset+p.samplesPerStep])

		p.convolveStep(p.accLeft[offset:], p.startLeft, p.endLeft, gainStart, gainEnd)
		p.convolveStep(p.accRight[offset:], p.startRight, p.endRight, gainStart, gainEnd)
	}

	tail := p.irLen - 1
	for i := range tail {
		p.accLeft[i] += ctx.PrevLeftTail[i]
		p.accRight[i] += ctx.PrevRightTail[i]
	}

	p.ops.Interleave2(ctx.Output[:2*p.blockSize], p.accLeft[:p.blockSize], p.accRight[:p.blockSize])
	copy(ctx.PrevLeftTail, p.accLeft[p.blockSize:])
	copy(ctx.PrevRightTail, p.accRight[p.blockSize:])
}

// convolveStep convolves the padded step with both kernels and accumulates
// the crossfaded result into acc. The crossfade runs across the step; the
// tail that rings past it uses the end kernel only.
func (p *Processor) convolveStep(acc, startKernel, endKernel []float32, gainStart, gainEnd float32) {
	p.ops.ConvolveValid(p.convStart, p.padded, startKernel)
	p.ops.ConvolveValid(p.convEnd, p.padded, endKernel)

	n := float32(p.samplesPerStep)
	for i := range p.convStart {
		w := float32(1)
		if i < p.samplesPerStep {
			w = float32(i) / n
		}
		acc[i] += (1-w)*gainStart*p.convStart[i] + w*gainEnd*p.convEnd[i]
	}
}

// blendDirection interpolates linearly between two unit directions and
// renormalizes. Opposite directions have no defined midpoint; the nearer
// endpoint is used.
func blendDirection(prev, next mgl32.Vec3, t float32) mgl32.Vec3 {
	switch t {
	case 0:
		return prev
	case 1:
		return next
	}

	v := prev.Mul(1 - t).Add(next.Mul(t))
	if l := v.Len(); l > minBlendMagnitude {
		return v.Mul(1 / l)
	}
	if t < 0.5 {
		return prev
	}
	return next
}
