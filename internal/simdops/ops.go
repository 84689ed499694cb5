// Package simdops exposes the SIMD kernels used by the render path as a
// table of function values, one table per sample type.
//
// The float32 table serves the audio graph, the binaural convolver and the
// buffer resampler; the float64 table serves filter design and offline
// impulse response synthesis.
package simdops

import (
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops provides SIMD-accelerated operations for type F.
type Ops[F Float] struct {
	// ConvolveValid computes dst[i] = sum(signal[i+j] * kernel[j]).
	// Kernels must be stored reversed to obtain a true convolution.
	ConvolveValid func(dst, signal, kernel []F)

	// CubicInterpDot computes sum(hist[i] * (a[i] + x*(b[i] + x*(c[i] + x*d[i])))).
	CubicInterpDot func(hist, a, b, c, d []F, x F) F

	// Interleave2 interleaves two slices: dst[0]=a[0], dst[1]=b[0], dst[2]=a[1], ...
	Interleave2 func(dst, a, b []F)

	// Deinterleave2 is the inverse of Interleave2: a[0]=src[0], b[0]=src[1], ...
	Deinterleave2 func(a, b, src []F)

	// AddScaled accumulates dst[i] += alpha * s[i].
	AddScaled func(dst []F, alpha F, s []F)

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale multiplies each element by scalar s: dst[i] = a[i] * s
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{
		ConvolveValid:  f32.ConvolveValid,
		CubicInterpDot: f32.CubicInterpDot,
		Interleave2:    f32.Interleave2,
		Deinterleave2:  f32.Deinterleave2,
		AddScaled:      f32.AddScaled,
		Sum:            f32.Sum,
		Scale:          f32.Scale,
	}
	ops64 = Ops[float64]{
		ConvolveValid:  f64.ConvolveValid,
		CubicInterpDot: f64.CubicInterpDot,
		Interleave2:    f64.Interleave2,
		Deinterleave2:  f64.Deinterleave2,
		AddScaled:      f64.AddScaled,
		Sum:            f64.Sum,
		Scale:          f64.Scale,
	}
)

// For returns the Ops instance for type F.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		ops, ok := any(&ops32).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float32")
		}
		return ops
	case float64:
		ops, ok := any(&ops64).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float64")
		}
		return ops
	default:
		panic("simdops: unsupported float type")
	}
}

// Float32Ops returns the float32 SIMD operations.
func Float32Ops() *Ops[float32] {
	return &ops32
}

// Float64Ops returns the float64 SIMD operations.
func Float64Ops() *Ops[float64] {
	return &ops64
}

// MixInto adds src scaled by gain into dst, over the shorter of the two.
func MixInto[F Float](dst, src []F, gain F) {
	For[F]().AddScaled(dst, gain, src)
}

// IsSilent reports whether every element of s is exactly zero.
func IsSilent[F Float](s []F) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}
