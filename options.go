package spatial

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Common errors returned by the package.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotSupported indicates a configuration the node does not support.
	ErrNotSupported = errors.New("operation not supported")

	// ErrDatasetLoad indicates the HRIR dataset could not be loaded.
	ErrDatasetLoad = errors.New("failed to load HRIR dataset")

	// ErrBufferTooSmall indicates the output buffer is too small.
	ErrBufferTooSmall = errors.New("output buffer too small")

	// ErrInvalidState indicates a call that is not allowed in the node's
	// current state, such as starting a source twice.
	ErrInvalidState = errors.New("invalid state")
)

// NodeID identifies a node within its context.
type NodeID = graph.NodeID

// AudioParam is an automatable parameter.
type AudioParam = param.AudioParam

// ChannelCountMode decides how a node computes the channel count of its
// inputs.
type ChannelCountMode = graph.ChannelCountMode

// Channel count modes.
const (
	ChannelCountModeMax        = graph.Max
	ChannelCountModeClampedMax = graph.ClampedMax
	ChannelCountModeExplicit   = graph.Explicit
)

// ChannelInterpretation selects up- and down-mixing rules.
type ChannelInterpretation = graph.ChannelInterpretation

// Channel interpretations.
const (
	ChannelInterpretationSpeakers = graph.Speakers
	ChannelInterpretationDiscrete = graph.Discrete
)

// PanningModel selects how a panner renders direction.
type PanningModel int

const (
	// PanningModelEqualPower pans a mono signal between two channels with an
	// equal-power law. Elevation is ignored.
	PanningModelEqualPower PanningModel = iota

	// PanningModelHRTF convolves the signal with head-related impulse
	// responses for binaural rendering.
	PanningModelHRTF
)

func (m PanningModel) String() string {
	switch m {
	case PanningModelEqualPower:
		return "equalpower"
	case PanningModelHRTF:
		return "HRTF"
	default:
		return fmt.Sprintf("PanningModel(%d)", int(m))
	}
}

// DistanceModel selects how gain falls off with distance.
type DistanceModel int

const (
	// DistanceModelInverse attenuates by 1/distance.
	DistanceModelInverse DistanceModel = iota

	// DistanceModelLinear is accepted but renders as inverse.
	DistanceModelLinear

	// DistanceModelExponential is accepted but renders as inverse.
	DistanceModelExponential
)

func (m DistanceModel) String() string {
	switch m {
	case DistanceModelInverse:
		return "inverse"
	case DistanceModelLinear:
		return "linear"
	case DistanceModelExponential:
		return "exponential"
	default:
		return fmt.Sprintf("DistanceModel(%d)", int(m))
	}
}

// PannerOptions configures a new [PannerNode]. It is only read at
// construction.
//
// Start from [DefaultPannerOptions] and change the fields you need. The zero
// value is not a usable configuration: its cone apertures are 0° and its
// outer gain is 0, so every listener falls outside the cone and the panner
// renders silence.
type PannerOptions struct {
	PanningModel  PanningModel
	DistanceModel DistanceModel

	// Initial source position.
	PositionX, PositionY, PositionZ float32

	// Initial direction the source faces.
	OrientationX, OrientationY, OrientationZ float32

	// Distance falloff settings. They are stored and reported but the
	// inverse model in use does not read them.
	RefDistance   float64
	MaxDistance   float64
	RolloffFactor float64

	// Cone angles in degrees and the gain outside the outer cone.
	// None of them is validated.
	ConeInnerAngle float64
	ConeOuterAngle float64
	ConeOuterGain  float64
}

// DefaultPannerOptions returns options for an equal-power panner at the
// origin facing +X with the cone disabled.
func DefaultPannerOptions() PannerOptions {
	return PannerOptions{
		PanningModel:   PanningModelEqualPower,
		DistanceModel:  DistanceModelInverse,
		OrientationX:   1,
		RefDistance:    defaultRefDistance,
		MaxDistance:    defaultMaxDistance,
		RolloffFactor:  defaultRolloffFactor,
		ConeInnerAngle: defaultConeAngle,
		ConeOuterAngle: defaultConeAngle,
		ConeOuterGain:  defaultConeOuterGain,
	}
}

// Validate checks that the models are known and that every position and
// orientation component is finite.
func (o *PannerOptions) Validate() error {
	switch o.PanningModel {
	case PanningModelEqualPower, PanningModelHRTF:
	default:
		return fmt.Errorf("%w: unknown panning model %d", ErrInvalidConfig, int(o.PanningModel))
	}

	switch o.DistanceModel {
	case DistanceModelInverse, DistanceModelLinear, DistanceModelExponential:
	default:
		return fmt.Errorf("%w: unknown distance model %d", ErrInvalidConfig, int(o.DistanceModel))
	}

	for _, v := range []float32{
		o.PositionX, o.PositionY, o.PositionZ,
		o.OrientationX, o.OrientationY, o.OrientationZ,
	} {
		if !isFinite(float64(v)) {
			return fmt.Errorf("%w: position and orientation must be finite", ErrInvalidConfig)
		}
	}

	return nil
}

// ContextOptions configures a new [Context].
type ContextOptions struct {
	// SampleRate is the render rate in Hz. Zero selects 44100.
	SampleRate float32

	// HRIRDataset replaces the embedded HRIR dataset used by HRTF panners.
	// It is parsed when the first HRTF panner is created.
	HRIRDataset []byte

	// Logger receives control side diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Validate checks if the configuration is valid.
func (o *ContextOptions) Validate() error {
	rate := float64(o.SampleRate)
	if !isFinite(rate) || rate < minSampleRate || rate > maxSampleRate {
		return fmt.Errorf("%w: sample rate %v out of range (%d-%d Hz)",
			ErrInvalidConfig, o.SampleRate, minSampleRate, maxSampleRate)
	}
	if rate != math.Trunc(rate) {
		return fmt.Errorf("%w: sample rate %v is not a whole number of Hz", ErrInvalidConfig, o.SampleRate)
	}

	return nil
}

func (o ContextOptions) withDefaults() ContextOptions {
	if o.SampleRate == 0 {
		o.SampleRate = defaultSampleRate
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
