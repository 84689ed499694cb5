// Package filter designs the Kaiser-windowed FIR filters used for
// band-limited resampling and impulse response shaping.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-spatial/internal/mathutil"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

const (
	minFilterTaps = 3
	maxFilterTaps = 1 << 20

	// Window center is at (N-1)/2
	windowCenterDivisor = 2.0

	sincZeroThreshold = 1e-10
)

// KaiserWindow generates a Kaiser window of the given length and β, peaking
// at 1 in the center:
//
//	w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
//
// The window is symmetric: w[i] = w[length-1-i].
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	alpha := float64(length-1) / windowCenterDivisor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(max(0, 1-x*x))) / i0Beta
	}

	return window
}

// Params describes a lowpass FIR filter.
type Params struct {
	// NumTaps is the filter length. Odd lengths put a tap on the center.
	NumTaps int

	// Cutoff is the normalized cutoff frequency in (0, 0.5), where 0.5 is
	// the Nyquist frequency.
	Cutoff float64

	// Attenuation is the stopband attenuation in dB; it selects the window β.
	Attenuation float64

	// Gain is the DC gain the taps are normalized to.
	Gain float64
}

// Validate checks that p describes a realizable filter.
func (p *Params) Validate() error {
	if p.NumTaps < minFilterTaps || p.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter length %d out of range [%d, %d]", p.NumTaps, minFilterTaps, maxFilterTaps)
	}
	if p.Cutoff <= 0 || p.Cutoff >= 0.5 {
		return fmt.Errorf("invalid cutoff frequency: %f (must be in (0, 0.5))", p.Cutoff)
	}
	if p.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", p.Attenuation)
	}
	if p.Gain <= 0 {
		return fmt.Errorf("invalid gain: %f (must be positive)", p.Gain)
	}
	return nil
}

// DesignLowPass returns the taps of a linear-phase windowed-sinc lowpass
// filter, normalized so that they sum to p.Gain.
func DesignLowPass(p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	window := KaiserWindow(p.NumTaps, mathutil.KaiserBeta(p.Attenuation))
	taps := make([]float64, p.NumTaps)
	center := float64(p.NumTaps-1) / windowCenterDivisor

	for n := range p.NumTaps {
		x := float64(n) - center

		// sin(2π·fc·x) / (π·x), which tends to 2·fc at the center
		sinc := 2 * p.Cutoff
		if math.Abs(x) >= sincZeroThreshold {
			sinc = math.Sin(2*math.Pi*p.Cutoff*x) / (math.Pi * x)
		}
		taps[n] = sinc * window[n]
	}

	ops := simdops.Float64Ops()
	if sum := ops.Sum(taps); math.Abs(sum) > sincZeroThreshold {
		ops.Scale(taps, taps, p.Gain/sum)
	}

	return taps, nil
}
