// Package engine implements band-limited sample rate conversion with a
// polyphase FIR filter bank.
//
// A Kaiser-windowed sinc prototype is designed at numPhases times the input
// rate and split into phases. Each output sample is a dot product of the
// input history with one phase, and positions between phases are reached by
// cubic interpolation of the coefficients. The cutoff sits below the lower
// of the two Nyquist frequencies, so downsampling removes content the new
// rate cannot carry instead of aliasing it.
package engine

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-spatial/internal/filter"
	"github.com/tphakala/go-audio-spatial/internal/mathutil"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

// Quality selects the stopband attenuation and passband width of the filter.
type Quality int

const (
	// QualityLow keeps 80% of the band with about 100 dB of rejection.
	QualityLow Quality = iota
	// QualityMedium keeps 91% of the band with about 100 dB of rejection.
	QualityMedium
	// QualityHigh keeps 95% of the band with about 125 dB of rejection.
	QualityHigh
)

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// design returns the stopband attenuation in dB and the flat fraction of
// the band.
func (q Quality) design() (attenuation, passband float64, err error) {
	switch q {
	case QualityLow:
		return (bitsLow + 1) * dbPerBit, passbandLow, nil
	case QualityMedium:
		return (bitsMedium + 1) * dbPerBit, passbandMedium, nil
	case QualityHigh:
		return (bitsHigh + 1) * dbPerBit, passbandHigh, nil
	default:
		return 0, 0, fmt.Errorf("unknown quality %d", int(q))
	}
}

// Resampler converts a stream of samples from one rate to another.
//
// Type parameter F must be float32 or float64. A Resampler is not safe for
// concurrent use.
type Resampler[F simdops.Float] struct {
	inputRate  float64
	outputRate float64
	ratio      float64 // outputRate / inputRate

	// Coefficients per phase, in history order, for
	// coef(x) = a + x*(b + x*(c + x*d))
	coeffsA [][]F
	coeffsB [][]F
	coeffsC [][]F
	coeffsD [][]F
	taps    int

	// Position of the next output in the history, in units of
	// 1/(numPhases << phaseFracBits) input samples
	at   int64
	step int64

	history []F

	samplesIn  int64
	samplesOut int64

	ops *simdops.Ops[F]
}

// NewResampler designs the filter bank for converting inputRate to
// outputRate.
func NewResampler[F simdops.Float](inputRate, outputRate float64, quality Quality) (*Resampler[F], error) {
	if !(inputRate > 0) || !(outputRate > 0) || math.IsInf(inputRate, 0) || math.IsInf(outputRate, 0) {
		return nil, fmt.Errorf("sample rates must be positive: input=%f, output=%f", inputRate, outputRate)
	}
	attenuation, passband, err := quality.design()
	if err != nil {
		return nil, err
	}

	ratio := outputRate / inputRate

	// Band edges in cycles per input sample
	stop := min(1, ratio) * nyquistFraction
	pass := stop * passband
	cutoff := (pass + stop) / 2

	// Even, so that the history window is centered on the output position
	taps := mathutil.EstimateFilterLength(attenuation, stop-pass) + 1

	proto, err := filter.DesignLowPass(filter.Params{
		NumTaps:     numPhases*taps + 1,
		Cutoff:      cutoff / numPhases,
		Attenuation: attenuation,
		Gain:        numPhases,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to design polyphase filter: %w", err)
	}

	r := &Resampler[F]{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      ratio,
		taps:       taps,
		step:       int64(math.Round(float64(numPhases<<phaseFracBits) / ratio)),
		history:    make([]F, 0, 2*taps),
		ops:        simdops.For[F](),
	}
	r.splitPhases(proto)
	r.Reset()

	return r, nil
}

// splitPhases decomposes the prototype into per-phase coefficient tables.
// Tap i of phase ph weighs history sample i for an output ph/numPhases past
// the window's center.
func (r *Resampler[F]) splitPhases(proto []float64) {
	at := func(m int) float64 {
		if m < 0 || m >= len(proto) {
			return 0
		}
		return proto[m]
	}

	r.coeffsA = make([][]F, numPhases)
	r.coeffsB = make([][]F, numPhases)
	r.coeffsC = make([][]F, numPhases)
	r.coeffsD = make([][]F, numPhases)

	for ph := range numPhases {
		a := make([]F, r.taps)
		b := make([]F, r.taps)
		c := make([]F, r.taps)
		d := make([]F, r.taps)

		for i := range r.taps {
			m := ph + numPhases*(r.taps-1-i)
			f0, f1, fm1, f2 := at(m), at(m+1), at(m-1), at(m+2)

			// Catmull-Rom through the neighboring prototype taps
			cc := cubicCenterCoeff*(f1+fm1) - f0
			dd := (f2 - f1 + fm1 - f0 - cubicCMultiplier*cc) / cubicDivisor
			a[i] = F(f0)
			b[i] = F(f1 - f0 - dd - cc)
			c[i] = F(cc)
			d[i] = F(dd)
		}

		r.coeffsA[ph], r.coeffsB[ph], r.coeffsC[ph], r.coeffsD[ph] = a, b, c, d
	}
}

// Ratio returns the output rate divided by the input rate.
func (r *Resampler[F]) Ratio() float64 {
	return r.ratio
}

// Taps returns the number of taps in each phase.
func (r *Resampler[F]) Taps() int {
	return r.taps
}

// Process consumes input and returns the output samples that can be
// computed so far. The returned slice is newly allocated.
func (r *Resampler[F]) Process(input []F) []F {
	r.samplesIn += int64(len(input))
	r.history = append(r.history, input...)
	return r.run()
}

// Flush feeds silence through the filter and returns the rest of the
// output. Over Process and Flush, n input samples produce ceil(n*ratio)
// output samples aligned with the input. Call Reset before reusing r.
func (r *Resampler[F]) Flush() []F {
	total := int64(math.Ceil(float64(r.samplesIn)*r.ratio - lengthSlack))
	want := total - r.samplesOut
	if want <= 0 {
		return []F{}
	}

	r.history = append(r.history, make([]F, r.taps)...)
	out := r.run()
	if int64(len(out)) > want {
		out = out[:want]
	}
	for int64(len(out)) < want {
		out = append(out, 0)
	}
	r.samplesOut = total
	return out
}

// Resample converts a complete signal, resetting r first.
func (r *Resampler[F]) Resample(input []F) []F {
	r.Reset()
	out := r.Process(input)
	return append(out, r.Flush()...)
}

// Reset clears the stream state. The filter bank is kept.
func (r *Resampler[F]) Reset() {
	r.at = 0
	r.samplesIn = 0
	r.samplesOut = 0

	// Half a window of leading silence centers the first output on the first
	// input sample
	r.history = append(r.history[:0], make([]F, r.taps/2-1)...)
}

// run produces every output whose window lies inside the history, then
// drops the history no later output needs.
func (r *Resampler[F]) run() []F {
	avail := len(r.history) - r.taps + 1
	if avail <= 0 {
		return []F{}
	}
	limit := int64(avail) * numPhases << phaseFracBits
	if r.at >= limit {
		return []F{}
	}

	out := make([]F, 0, (limit-r.at+r.step-1)/r.step)
	fracScale := F(1.0 / (1 << phaseFracBits))

	at := r.at
	for ; at < limit; at += r.step {
		pos := at >> phaseFracBits
		base := int(pos / numPhases)
		ph := int(pos % numPhases)
		x := F(at&phaseFracMask) * fracScale

		hist := r.history[base : base+r.taps]
		out = append(out, r.ops.CubicInterpDot(hist, r.coeffsA[ph], r.coeffsB[ph], r.coeffsC[ph], r.coeffsD[ph], x))
	}

	consumed := min(int((at>>phaseFracBits)/numPhases), len(r.history))
	n := copy(r.history, r.history[consumed:])
	r.history = r.history[:n]
	r.at = at - int64(consumed)*numPhases<<phaseFracBits

	r.samplesOut += int64(len(out))
	return out
}
