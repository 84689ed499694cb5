package engine

// Quality preset parameters. Stopband attenuation follows
// att = (bits + 1) * 6.02 dB.
const (
	dbPerBit = 6.0206 // 20 * log10(2)

	bitsLow    = 16
	bitsMedium = 16
	bitsHigh   = 20

	// Fraction of the output Nyquist frequency kept flat
	passbandLow    = 0.80
	passbandMedium = 0.91
	passbandHigh   = 0.95
)

// Polyphase filter bank layout
const (
	// Phases per input sample; positions between phases are reached with
	// cubic coefficient interpolation
	numPhases = 64

	// Sub-phase precision of the fixed-point position accumulator
	phaseFracBits = 16
	phaseFracMask = 1<<phaseFracBits - 1

	// Catmull-Rom coefficients for sub-phase interpolation
	cubicCenterCoeff = 0.5
	cubicDivisor     = 6.0
	cubicCMultiplier = 4.0

	// Absorbs rounding in n*ratio so exact ratios do not gain a sample
	lengthSlack = 1e-9

	// Normalized cutoff frequencies are in (0, 0.5)
	nyquistFraction = 0.5
)
