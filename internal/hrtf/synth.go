package hrtf

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
	"github.com/tphakala/simd/c128"
	"gonum.org/v1/gonum/dsp/fourier"
)

// SynthOptions configures [Synthesize].
// Zero fields take the defaults of [DefaultSynthOptions].
type SynthOptions struct {
	// SampleRate of the generated impulse responses in Hz
	SampleRate uint32

	// Length of each impulse response in samples
	Length int

	// HeadRadius in meters
	HeadRadius float64

	// SpeedOfSound in meters per second
	SpeedOfSound float64

	// Elevations of the measurement rings in degrees, in [-90, 90]
	Elevations []float64

	// AzimuthStep is the spacing of points within a ring in degrees
	AzimuthStep float64

	// OnsetSamples delays every response so that the earliest arrival
	// still has some leading ringing room
	OnsetSamples float64
}

// DefaultSynthOptions returns the parameters the embedded dataset was built with.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		SampleRate:   defaultSynthRate,
		Length:       defaultSynthLength,
		HeadRadius:   defaultHeadRadius,
		SpeedOfSound: defaultSpeedOfSound,
		Elevations:   append([]float64(nil), defaultElevations...),
		AzimuthStep:  defaultAzimuthStep,
		OnsetSamples: defaultOnsetSamples,
	}
}

func (o SynthOptions) withDefaults() SynthOptions {
	d := DefaultSynthOptions()
	if o.SampleRate == 0 {
		o.SampleRate = d.SampleRate
	}
	if o.Length == 0 {
		o.Length = d.Length
	}
	if o.HeadRadius == 0 {
		o.HeadRadius = d.HeadRadius
	}
	if o.SpeedOfSound == 0 {
		o.SpeedOfSound = d.SpeedOfSound
	}
	if len(o.Elevations) == 0 {
		o.Elevations = d.Elevations
	}
	if o.AzimuthStep == 0 {
		o.AzimuthStep = d.AzimuthStep
	}
	if o.OnsetSamples == 0 {
		o.OnsetSamples = d.OnsetSamples
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o SynthOptions) Validate() error {
	o = o.withDefaults()
	if o.Length < 1 || o.Length > maxIRLength {
		return fmt.Errorf("%w: length %d out of range (1-%d)", ErrInvalidDataset, o.Length, maxIRLength)
	}
	if o.HeadRadius < 0 || o.SpeedOfSound < 0 || o.OnsetSamples < 0 {
		return fmt.Errorf("%w: head radius, speed of sound and onset must be positive", ErrInvalidDataset)
	}
	if o.AzimuthStep < 0 || o.AzimuthStep > 2*degreesPerHalfTurn {
		return fmt.Errorf("%w: azimuth step %v out of range (0-360]", ErrInvalidDataset, o.AzimuthStep)
	}
	for _, el := range o.Elevations {
		if el < -degreesRightAngle || el > degreesRightAngle {
			return fmt.Errorf("%w: elevation %v out of range [-90, 90]", ErrInvalidDataset, el)
		}
	}
	return nil
}

// Synthesize builds a sphere from the Brown-Duda spherical head model.
//
// Each ear is modeled as a point on a rigid sphere. The head shadow is a
// one-pole/one-zero filter whose high-frequency gain depends on the angle
// between the source and the ear axis, and the interaural delay follows
// Woodworth's formula. Responses are designed in the frequency domain,
// transformed with an inverse real FFT, truncated and faded out with a
// Kaiser half-window.
//
// Points are laid out in rings of constant elevation, starting at azimuth 0
// (straight ahead) and stepping towards the right, followed by a single point
// straight up.
func Synthesize(opts SynthOptions) (*Sphere, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	fftSize := minSynthFFTSize
	for fftSize < synthFFTOversampling*opts.Length {
		fftSize *= 2
	}

	m := &headModel{
		opts:    opts,
		fft:     fourier.NewFFT(fftSize),
		scale:   1 / float64(fftSize),
		shadow:  make([]complex128, fftSize/2+1),
		delay:   make([]complex128, fftSize/2+1),
		product: make([]complex128, fftSize/2+1),
		ir:      make([]float64, fftSize),
	}

	dirs := sphereLayout(opts.Elevations, opts.AzimuthStep)
	s := &Sphere{
		sampleRate: opts.SampleRate,
		length:     opts.Length,
		points:     make([]point, len(dirs)),
	}

	for i, d := range dirs {
		// x points right, so the right ear axis is +x and the left is -x
		right := m.response(d.X())
		left := m.response(-d.X())
		reverse(left)
		reverse(right)
		s.points[i] = point{dir: d, left: left, right: right}
	}

	return s, nil
}

// sphereLayout returns the unit directions of the synthesized points.
func sphereLayout(elevations []float64, azimuthStep float64) []mgl32.Vec3 {
	perRing := max(1, int(math.Round(2*degreesPerHalfTurn/azimuthStep)))

	dirs := make([]mgl32.Vec3, 0, len(elevations)*perRing+1)
	for _, el := range elevations {
		for i := range perRing {
			az := float64(i) * azimuthStep
			dirs = append(dirs, directionOf(az, el))
		}
	}
	return append(dirs, mgl32.Vec3{0, 1, 0})
}

// directionOf converts azimuth and elevation in degrees to a unit vector.
func directionOf(azimuth, elevation float64) mgl32.Vec3 {
	az := azimuth * math.Pi / degreesPerHalfTurn
	el := elevation * math.Pi / degreesPerHalfTurn
	return mgl32.Vec3{
		float32(math.Sin(az) * math.Cos(el)),
		float32(math.Sin(el)),
		float32(math.Cos(az) * math.Cos(el)),
	}
}

// headModel holds the FFT plan and scratch spectra for one synthesis run.
type headModel struct {
	opts  SynthOptions
	fft   *fourier.FFT
	scale float64

	shadow  []complex128
	delay   []complex128
	product []complex128
	ir      []float64
}

// response designs the impulse response of an ear for a source whose
// direction cosine with the ear axis is cosTheta.
func (m *headModel) response(cosTheta float32) []float32 {
	theta := math.Acos(max(-1, min(1, float64(cosTheta))))
	thetaDeg := theta * degreesPerHalfTurn / math.Pi

	// Head shadow: alpha ranges from 2 facing the ear to alphaMin at thetaMin
	alpha := (1 + headShadowAlphaMin/2) + (1-headShadowAlphaMin/2)*math.Cos(thetaDeg/headShadowThetaMin*math.Pi)

	// Woodworth delay relative to the earliest possible arrival
	radiusTime := m.opts.HeadRadius / m.opts.SpeedOfSound
	var delaySec float64
	if theta < math.Pi/2 {
		delaySec = radiusTime * (1 - math.Cos(theta))
	} else {
		delaySec = radiusTime * (1 + theta - math.Pi/2)
	}
	delaySamples := delaySec*float64(m.opts.SampleRate) + m.opts.OnsetSamples

	fftSize := len(m.ir)
	w0 := m.opts.SpeedOfSound / m.opts.HeadRadius
	for k := range m.shadow {
		omega := 2 * math.Pi * float64(k) * float64(m.opts.SampleRate) / float64(fftSize)
		m.shadow[k] = complex(1, alpha*omega/(2*w0)) / complex(1, omega/(2*w0))
		m.delay[k] = cmplx.Exp(complex(0, -2*math.Pi*float64(k)*delaySamples/float64(fftSize)))
	}

	c128.Mul(m.product, m.shadow, m.delay)

	// A real sequence needs a real Nyquist bin
	nyquist := len(m.product) - 1
	m.product[nyquist] = complex(real(m.product[nyquist]), 0)

	m.ir = m.fft.Sequence(m.ir, m.product)
	simdops.Float64Ops().Scale(m.ir, m.ir, m.scale)

	ir := append([]float64(nil), m.ir[:m.opts.Length]...)
	fadeOut(ir, fadeOutKaiserBeta)

	out := make([]float32, len(ir))
	for i, v := range ir {
		out[i] = float32(v)
	}
	return out
}
