package mathutil

import "math"

// CubicResample converts a finite signal to a new rate using cubic (4-point,
// 3rd order) Hermite interpolation. ratio is output rate / input rate and the
// result has ceil(len(in)*ratio) samples. Samples outside the input are
// treated as zero.
//
// There is no anti-aliasing filter, so downsampling folds content above the
// new Nyquist frequency back into the band.
func CubicResample(in []float32, ratio float64) []float32 {
	if len(in) == 0 || ratio <= 0 {
		return []float32{}
	}

	out := make([]float32, int(math.Ceil(float64(len(in))*ratio-resampleLengthSlack)))

	at := func(i int) float64 {
		if i < 0 || i >= len(in) {
			return 0
		}
		return float64(in[i])
	}

	step := 1 / ratio
	for k := range out {
		pos := float64(k) * step
		i := int(math.Floor(pos))
		out[k] = float32(Hermite(at(i-1), at(i), at(i+1), at(i+2), pos-float64(i)))
	}

	return out
}

// Hermite performs cubic Hermite interpolation between y1 and y2.
// Uses the formula: y = ((a*x + b)*x + c)*x + d
// where x is the fractional position between y1 and y2.
func Hermite(y0, y1, y2, y3, x float64) float64 {
	coefA := -hermiteCoeff0_5*y0 + hermiteCoeff1_5*y1 - hermiteCoeff1_5*y2 + hermiteCoeff0_5*y3
	coefB := y0 - hermiteCoeff2_5*y1 + 2*y2 - hermiteCoeff0_5*y3
	coefC := -hermiteCoeff0_5*y0 + hermiteCoeff0_5*y2
	coefD := y1

	return ((coefA*x+coefB)*x+coefC)*x + coefD
}
