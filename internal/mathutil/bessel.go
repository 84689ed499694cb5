package mathutil

import "math"

// BesselI0 computes the modified Bessel function of the first kind, order zero.
//
// It sums the power series I₀(x) = Σ ((x/2)^k / k!)² until the terms no longer
// contribute, which is accurate to double precision for the window shape
// parameters used by HRIR synthesis (β ≤ 20).
func BesselI0(x float64) float64 {
	half := x / besselArgDivisor
	halfSq := half * half

	sum := 1.0
	term := 1.0
	for k := 1; k < besselMaxTerms; k++ {
		fk := float64(k)
		term *= halfSq / (fk * fk)
		sum += term
		if term < sum*besselSeriesEpsilon {
			break
		}
	}

	if math.IsInf(sum, 0) {
		return math.Inf(1)
	}
	return sum
}

// KaiserBeta computes the Kaiser window β parameter from the desired
// stopband attenuation in decibels (Kaiser & Schafer):
//
//	att > 50 dB:        β = 0.1102 * (att - 8.7)
//	21 dB ≤ att ≤ 50 dB: β = 0.5842 * (att - 21)^0.4 + 0.07886 * (att - 21)
//	att < 21 dB:        β = 0
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0
}

// EstimateFilterLength returns the odd number of taps a Kaiser-windowed FIR
// needs for the given stopband attenuation and transition bandwidth, the
// latter as a fraction of the sample rate:
//
//	N ≈ (att - 8) / (2.285 * 2π * Δf)
func EstimateFilterLength(attenuation, transitionBW float64) int {
	if transitionBW <= 0 {
		transitionBW = defaultTransitionBW
	}

	numTaps := (attenuation - kaiserLengthOffset) / (kaiserLengthMultiplier * 2 * math.Pi * transitionBW)

	taps := int(math.Ceil(numTaps))
	if taps%2 == 0 {
		taps++
	}
	return min(max(taps, minFilterLength), maxFilterLength)
}
