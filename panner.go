package spatial

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Panner parameter order
const (
	pannerPositionX = iota
	pannerPositionY
	pannerPositionZ
	pannerOrientationX
	pannerOrientationY
	pannerOrientationZ
	pannerParamCount
)

var pannerParamNames = [pannerParamCount]string{
	pannerPositionX:    "panner.positionX",
	pannerPositionY:    "panner.positionY",
	pannerPositionZ:    "panner.positionZ",
	pannerOrientationX: "panner.orientationX",
	pannerOrientationY: "panner.orientationY",
	pannerOrientationZ: "panner.orientationZ",
}

// PannerNode positions its input in space relative to the context's
// [AudioListener] and renders it to stereo.
//
// The node has ten inputs: the audio input and the nine listener signals,
// which are connected at construction. Its channel count is at most two and
// its channel count mode is never [ChannelCountModeMax].
type PannerNode struct {
	audioNode

	channels *graph.ChannelConfig
	params   [pannerParamCount]*AudioParam
	cone     *coneConfig

	panningModel  PanningModel
	distanceModel DistanceModel
	refDistance   float64
	maxDistance   float64
	rolloffFactor float64
}

// coneConfig holds the cone settings shared with the renderer.
type coneConfig struct {
	innerAngle atomicFloat64
	outerAngle atomicFloat64
	outerGain  atomicFloat64
}

// atomicFloat64 is a float64 that can be read and written concurrently.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *atomicFloat64) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

// CreatePanner creates a panner, connects the listener to it and returns it.
func (c *Context) CreatePanner(opts PannerOptions) (*PannerNode, error) {
	return NewPannerNode(c, opts)
}

// NewPannerNode creates a panner in ctx.
//
// With [PanningModelHRTF] the context's HRIR dataset is loaded first; if that
// fails the error wraps [ErrDatasetLoad] and nothing is added to the graph.
func NewPannerNode(ctx *Context, opts PannerOptions) (*PannerNode, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: context is nil", ErrInvalidConfig)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var state *hrtfState
	if opts.PanningModel == PanningModelHRTF {
		sphere, err := ctx.hrtfSphere()
		if err != nil {
			return nil, err
		}
		state = newHrtfState(sphere)
	}

	p := &PannerNode{
		channels:      graph.NewChannelConfig(maxPannerChannels, ChannelCountModeClampedMax, ChannelInterpretationSpeakers),
		cone:          &coneConfig{},
		panningModel:  opts.PanningModel,
		distanceModel: opts.DistanceModel,
		refDistance:   opts.RefDistance,
		maxDistance:   opts.MaxDistance,
		rolloffFactor: opts.RolloffFactor,
	}
	p.cone.innerAngle.Store(opts.ConeInnerAngle)
	p.cone.outerAngle.Store(opts.ConeOuterAngle)
	p.cone.outerGain.Store(opts.ConeOuterGain)

	initial := [pannerParamCount]float32{
		opts.PositionX, opts.PositionY, opts.PositionZ,
		opts.OrientationX, opts.OrientationY, opts.OrientationZ,
	}
	defaults := [pannerParamCount]float32{pannerOrientationX: 1}

	r := &pannerRenderer{
		model: opts.PanningModel,
		cone:  p.cone,
		hrtf:  state,
	}
	for i, name := range pannerParamNames {
		p.params[i], r.ids[i] = ctx.params.Create(param.Descriptor{
			Name:     name,
			Default:  defaults[i],
			MinValue: minParamValue,
			MaxValue: maxParamValue,
			Rate:     param.RateK,
		})
		if err := p.params[i].SetValue(initial[i]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	p.register(ctx, r, graph.NodeConfig{
		NumberOfInputs:  pannerInputs,
		NumberOfOutputs: 1,
		Channels:        p.channels,
	})
	ctx.adoptParams(p.id, p.params[:]...)

	if err := ctx.ensureListener().connectTo(p.id); err != nil {
		_ = ctx.graph.Remove(p.id)
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}

	ctx.logger.Debug("panner created",
		"node", p.id,
		"panning_model", p.panningModel,
		"distance_model", p.distanceModel)
	if p.distanceModel != DistanceModelInverse {
		ctx.logger.Warn("distance model not implemented, rendering as inverse",
			"node", p.id,
			"distance_model", p.distanceModel)
	}

	return p, nil
}

// PanningModel returns the panning model chosen at construction.
func (p *PannerNode) PanningModel() PanningModel { return p.panningModel }

// DistanceModel returns the distance model chosen at construction.
func (p *PannerNode) DistanceModel() DistanceModel { return p.distanceModel }

// RefDistance returns the configured reference distance.
func (p *PannerNode) RefDistance() float64 { return p.refDistance }

// MaxDistance returns the configured maximum distance.
func (p *PannerNode) MaxDistance() float64 { return p.maxDistance }

// RolloffFactor returns the configured rolloff factor.
func (p *PannerNode) RolloffFactor() float64 { return p.rolloffFactor }

// PositionX returns the x coordinate of the source position.
func (p *PannerNode) PositionX() *AudioParam { return p.params[pannerPositionX] }

// PositionY returns the y coordinate of the source position.
func (p *PannerNode) PositionY() *AudioParam { return p.params[pannerPositionY] }

// PositionZ returns the z coordinate of the source position.
func (p *PannerNode) PositionZ() *AudioParam { return p.params[pannerPositionZ] }

// OrientationX returns the x component of the direction the source faces.
func (p *PannerNode) OrientationX() *AudioParam { return p.params[pannerOrientationX] }

// OrientationY returns the y component of the direction the source faces.
func (p *PannerNode) OrientationY() *AudioParam { return p.params[pannerOrientationY] }

// OrientationZ returns the z component of the direction the source faces.
func (p *PannerNode) OrientationZ() *AudioParam { return p.params[pannerOrientationZ] }

// SetPosition sets the source position from the next quantum on.
func (p *PannerNode) SetPosition(x, y, z float32) error {
	return setValues(p.params[pannerPositionX:pannerPositionZ+1], x, y, z)
}

// SetOrientation sets the source orientation from the next quantum on.
func (p *PannerNode) SetOrientation(x, y, z float32) error {
	return setValues(p.params[pannerOrientationX:], x, y, z)
}

// ConeInnerAngle returns the inner cone angle in degrees.
func (p *PannerNode) ConeInnerAngle() float64 { return p.cone.innerAngle.Load() }

// SetConeInnerAngle sets the inner cone angle in degrees.
func (p *PannerNode) SetConeInnerAngle(v float64) { p.cone.innerAngle.Store(v) }

// ConeOuterAngle returns the outer cone angle in degrees.
func (p *PannerNode) ConeOuterAngle() float64 { return p.cone.outerAngle.Load() }

// SetConeOuterAngle sets the outer cone angle in degrees.
func (p *PannerNode) SetConeOuterAngle(v float64) { p.cone.outerAngle.Store(v) }

// ConeOuterGain returns the gain applied outside the outer cone.
func (p *PannerNode) ConeOuterGain() float64 { return p.cone.outerGain.Load() }

// SetConeOuterGain sets the gain applied outside the outer cone.
func (p *PannerNode) SetConeOuterGain(v float64) { p.cone.outerGain.Store(v) }

// ChannelCount returns the channel count used to mix the audio input.
func (p *PannerNode) ChannelCount() int { return p.channels.Count() }

// SetChannelCount sets the input channel count. Counts above two fail with
// [ErrNotSupported] and leave the count unchanged.
func (p *PannerNode) SetChannelCount(n int) error {
	if n > maxPannerChannels {
		return fmt.Errorf("%w: panner channel count %d exceeds %d", ErrNotSupported, n, maxPannerChannels)
	}
	if n < 1 {
		return fmt.Errorf("%w: channel count must be at least 1", ErrInvalidConfig)
	}
	p.channels.SetCount(n)
	return nil
}

// ChannelCountMode returns the channel count mode.
func (p *PannerNode) ChannelCountMode() ChannelCountMode { return p.channels.Mode() }

// SetChannelCountMode sets the channel count mode. [ChannelCountModeMax]
// fails with [ErrNotSupported] and leaves the mode unchanged.
func (p *PannerNode) SetChannelCountMode(m ChannelCountMode) error {
	switch m {
	case ChannelCountModeMax:
		return fmt.Errorf("%w: panner channel count mode %s", ErrNotSupported, m)
	case ChannelCountModeClampedMax, ChannelCountModeExplicit:
		p.channels.SetMode(m)
		return nil
	default:
		return fmt.Errorf("%w: unknown channel count mode %s", ErrInvalidConfig, m)
	}
}

// ChannelInterpretation returns the channel interpretation.
func (p *PannerNode) ChannelInterpretation() ChannelInterpretation {
	return p.channels.Interpretation()
}

// SetChannelInterpretation sets the channel interpretation.
func (p *PannerNode) SetChannelInterpretation(i ChannelInterpretation) error {
	switch i {
	case ChannelInterpretationSpeakers, ChannelInterpretationDiscrete:
		p.channels.SetInterpretation(i)
		return nil
	default:
		return fmt.Errorf("%w: unknown channel interpretation %s", ErrInvalidConfig, i)
	}
}
