package spatial

import (
	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/mathutil"
	"github.com/tphakala/go-audio-spatial/internal/param"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
	"gonum.org/v1/gonum/spatial/r3"
)

// pannerRenderer is the render side of a [PannerNode].
//
// Parameters and listener signals are read once per quantum from their first
// frame. The model is fixed at construction; only HRTF renderers carry
// convolution state.
type pannerRenderer struct {
	model PanningModel
	ids   [pannerParamCount]param.ID
	cone  *coneConfig
	hrtf  *hrtfState
}

// geometry is the source and listener layout of one quantum.
type geometry struct {
	position    r3.Vec
	orientation r3.Vec
	listener    r3.Vec
	forward     r3.Vec
	up          r3.Vec
}

func (r *pannerRenderer) Process(inputs, outputs []*graph.Quantum, values param.Values, _ *graph.Scope) bool {
	out := outputs[0]
	out.CopyFrom(inputs[0])
	out.Mix(monoChannels, graph.Speakers)

	// A silent input needs no spatialization unless a convolution tail is
	// still ringing out
	if out.IsSilent() && (r.hrtf == nil || !r.hrtf.Ringing()) {
		return false
	}

	out.Mix(stereoChannels, graph.Speakers)

	g := r.geometry(inputs, values)
	azimuth, elevation := mathutil.AzimuthElevation(g.position, g.listener, g.forward, g.up)
	gain := mathutil.InverseDistanceGain(mathutil.Distance(g.position, g.listener)) * r.coneGain(g)

	left, right := out.Channel(0), out.Channel(1)
	ops := simdops.Float32Ops()

	switch r.model {
	case PanningModelHRTF:
		dir := hrtfDirection(mathutil.Direction(azimuth, elevation))
		stereo := r.hrtf.Process(left, float32(gain), dir)
		ops.Deinterleave2(left, right, stereo)
		r.hrtf.ClearOutput()
		return r.hrtf.Ringing()

	default:
		gainL, gainR := mathutil.EqualPowerGains(azimuth)
		ops.Scale(left, left, float32(gainL*gain))
		ops.Scale(right, right, float32(gainR*gain))
		return false
	}
}

// geometry reads the source parameters and the listener inputs.
func (r *pannerRenderer) geometry(inputs []*graph.Quantum, values param.Values) geometry {
	p := func(i int) float64 {
		v := values.Get(r.ids[i])
		if len(v) == 0 {
			return 0
		}
		return float64(v[0])
	}
	l := func(i int) float64 {
		return float64(inputs[1+i].Channel(0)[0])
	}

	return geometry{
		position:    r3.Vec{X: p(pannerPositionX), Y: p(pannerPositionY), Z: p(pannerPositionZ)},
		orientation: r3.Vec{X: p(pannerOrientationX), Y: p(pannerOrientationY), Z: p(pannerOrientationZ)},
		listener:    r3.Vec{X: l(listenerPositionX), Y: l(listenerPositionY), Z: l(listenerPositionZ)},
		forward:     r3.Vec{X: l(listenerForwardX), Y: l(listenerForwardY), Z: l(listenerForwardZ)},
		up:          r3.Vec{X: l(listenerUpX), Y: l(listenerUpY), Z: l(listenerUpZ)},
	}
}

func (r *pannerRenderer) coneGain(g geometry) float64 {
	inner := r.cone.innerAngle.Load()
	outer := r.cone.outerAngle.Load()
	if mathutil.ConeDisabled(inner, outer) {
		return 1
	}
	angle := mathutil.Angle(g.position, g.orientation, g.listener)
	return mathutil.ConeGain(angle, inner, outer, r.cone.outerGain.Load())
}
