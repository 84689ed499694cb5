package spatial

import (
	"math"

	"github.com/tphakala/go-audio-spatial/internal/graph"
)

// RenderQuantumSize is the number of frames rendered per quantum.
const RenderQuantumSize = graph.RenderQuantumSize

// Port layout
const (
	listenerOutputs   = 9                   // position, forward and up, three components each
	pannerInputs      = 1 + listenerOutputs // audio input followed by the listener scalars
	maxPannerChannels = 2
	stereoChannels    = 2
	monoChannels      = 1
)

// Sample rate limits
const (
	defaultSampleRate = 44100
	minSampleRate     = 3000
	maxSampleRate     = 768000
)

// Panner defaults
const (
	defaultRefDistance   = 1.0
	defaultMaxDistance   = 10000.0
	defaultRolloffFactor = 1.0
	defaultConeAngle     = 360.0
	defaultConeOuterGain = 0.0
)

// Parameter ranges
const (
	maxParamValue = math.MaxFloat32
	minParamValue = -math.MaxFloat32
)

// HRTF rendering
const (
	// Below this magnitude on every axis a direction has no usable heading
	directionEpsilon = 1e-6

	// One crossfade step per quantum
	hrtfInterpolationSteps = 1
)

// WAV encoding
const (
	defaultBitDepth = 16
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	maxInt16        = 32767.0
	maxInt24        = 8388607.0
	maxInt32        = 2147483647.0
	wavFormatPCM    = 1
)
