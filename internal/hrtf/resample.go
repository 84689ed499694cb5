package hrtf

import (
	"github.com/tphakala/go-audio-spatial/internal/mathutil"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

// resampleIR converts an impulse response to a new sample rate.
//
// ratio is output rate / input rate. The response is interpolated with cubic
// Hermite interpolation and scaled by 1/ratio so that the sum of taps, and
// therefore the DC gain of the filter, is preserved.
func resampleIR(ir []float32, ratio float64) []float32 {
	out := mathutil.CubicResample(ir, ratio)
	simdops.Float32Ops().Scale(out, out, float32(1/ratio))
	return out
}
