package hrtf

// Dataset format constants
const (
	datasetMagic   = "HRIR" // File signature
	datasetVersion = 1      // Current format version

	headerSize     = 20 // magic + version + sample rate + length + point count
	pointDirSize   = 12 // x, y, z as float32
	bytesPerSample = 4  // float32

	// Sanity limits for untrusted datasets
	maxIRLength  = 8192
	maxPoints    = 65536
	minRateRatio = 1.0 / 16.0
	maxRateRatio = 16.0
)

// Interpolation constants
const (
	// Number of measured points blended for one direction
	blendPoints = 3

	// Cosine above which a measured point is used as-is
	exactMatchDot = 1 - 1e-6

	// Blended direction magnitude below which prev/new are treated as opposite
	minBlendMagnitude = 1e-6
)

// Spherical head model defaults (Brown & Duda, 1998)
const (
	defaultSynthRate     = 44100
	defaultSynthLength   = 64
	defaultAzimuthStep   = 30.0
	defaultHeadRadius    = 0.0875 // meters
	defaultSpeedOfSound  = 343.0  // meters per second
	defaultOnsetSamples  = 8.0    // leading delay so fractional-delay ringing is kept
	headShadowAlphaMin   = 0.1    // high-frequency gain at the shadowed extreme
	headShadowThetaMin   = 150.0  // degrees, angle of maximum shadowing
	minSynthFFTSize      = 256
	synthFFTOversampling = 4
	fadeOutFraction      = 4   // last 1/4 of the response is faded out
	fadeOutKaiserBeta    = 8.0 // Kaiser β of the fade-out window
	degreesPerHalfTurn   = 180.0
	degreesRightAngle    = 90.0
)

// defaultElevations are the measurement rings of the synthesized dataset, in degrees.
var defaultElevations = []float64{-40, -20, 0, 20, 40, 60, 80}
