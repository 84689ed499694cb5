package mathutil

// Angle conversion and geometry constants
const (
	degreesHalfTurn    = 180.0 // π radians in degrees
	degreesRightAngle  = 90.0  // Quarter turn
	degreesFullTurn    = 360.0 // Full turn
	degreesThreeQuarts = 270.0 // Three quarter turn
	degreesWrapOffset  = 450.0 // 360 + 90, re-references azimuth to forward

	// Cone half-angle at or beyond which the cone no longer attenuates
	coneDisabledHalfAngle = 180.0

	// Cone angles are full apertures; gain thresholds use half of them
	coneHalfDivisor = 2.0
)

// Bessel series constants
const (
	// Series terminates once a term falls below this fraction of the sum
	besselSeriesEpsilon = 1e-17

	// The series is in powers of x/2
	besselArgDivisor = 2.0

	// Hard cap on series terms; convergence for |x| < 700 needs far fewer
	besselMaxTerms = 500
)

// Cubic (Hermite) interpolation constants
const (
	hermiteCoeff0_5 = 0.5
	hermiteCoeff1_5 = 1.5
	hermiteCoeff2_5 = 2.5
)

// Absorbs rounding in len*ratio so exact ratios do not gain a sample
const resampleLengthSlack = 1e-9

// Kaiser window design formulas (Kaiser & Schafer)
const (
	kaiserAttHigh          = 50.0 // dB, upper branch of the β formula
	kaiserAttMedium        = 21.0 // dB, below this the window is rectangular
	kaiserBetaHighCoeff    = 0.1102
	kaiserBetaHighOffset   = 8.7
	kaiserBetaMediumCoeff1 = 0.5842
	kaiserBetaMediumPower  = 0.4
	kaiserBetaMediumCoeff2 = 0.07886

	kaiserLengthOffset     = 8.0   // dB
	kaiserLengthMultiplier = 2.285 // empirical
	defaultTransitionBW    = 0.05  // used when none is given

	minFilterLength = 3
	maxFilterLength = 8191
)
