package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-audio-spatial/internal/testutil"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	origin         = r3.Vec{}
	defaultForward = r3.Vec{Z: -1}
	defaultUp      = r3.Vec{Y: 1}
)

func TestAzimuthElevation(t *testing.T) {
	tests := []struct {
		name      string
		source    r3.Vec
		azimuth   float64
		elevation float64
	}{
		{"Front", r3.Vec{Z: -1}, 0, 0},
		{"Right", r3.Vec{X: 1}, 90, 0},
		{"Left", r3.Vec{X: -1}, -90, 0},
		{"FrontRight", r3.Vec{X: 1, Z: -1}, 45, 0},
		{"BehindRight", r3.Vec{X: 1, Z: 1}, 135, 0},
		{"BehindLeft", r3.Vec{X: -1, Z: 1}, -135, 0},
		{"AboveFront", r3.Vec{Y: 1, Z: -1}, 0, 45},
		{"BelowRight", r3.Vec{X: 1, Y: -1}, 90, -45},
		{"StraightUp", r3.Vec{Y: 1}, 0, 90},
		{"StraightDown", r3.Vec{Y: -3}, 0, -90},
		{"FarFront", r3.Vec{Z: -100}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			az, el := AzimuthElevation(tt.source, origin, defaultForward, defaultUp)
			assert.InDelta(t, tt.azimuth, az, testutil.AngleTolerance, "azimuth")
			assert.InDelta(t, tt.elevation, el, testutil.AngleTolerance, "elevation")
		})
	}
}

// TestAzimuthElevation_Behind covers the ±180° seam, where rounding decides the sign.
func TestAzimuthElevation_Behind(t *testing.T) {
	az, el := AzimuthElevation(r3.Vec{Z: 1}, origin, defaultForward, defaultUp)
	assert.InDelta(t, 180, math.Abs(az), testutil.AngleTolerance)
	assert.InDelta(t, 0, el, testutil.AngleTolerance)
}

func TestAzimuthElevation_ListenerOffsetAndRotated(t *testing.T) {
	// Listener at (5, 0, 5) facing +X: a source at (5, 0, 10) is on its right.
	listener := r3.Vec{X: 5, Z: 5}
	forward := r3.Vec{X: 1}

	az, el := AzimuthElevation(r3.Vec{X: 5, Z: 10}, listener, forward, defaultUp)
	assert.InDelta(t, 90, az, testutil.AngleTolerance)
	assert.InDelta(t, 0, el, testutil.AngleTolerance)

	// Forward and up need not be normalized.
	az, _ = AzimuthElevation(r3.Vec{X: 10, Z: 5}, listener, r3.Vec{X: 7}, r3.Vec{Y: 0.25})
	assert.InDelta(t, 0, az, testutil.AngleTolerance)
}

func TestAzimuthElevation_Degenerate(t *testing.T) {
	tests := []struct {
		name     string
		source   r3.Vec
		listener r3.Vec
		forward  r3.Vec
		up       r3.Vec
	}{
		{"Colocated", r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1, Y: 2, Z: 3}, defaultForward, defaultUp},
		{"ForwardParallelToUp", r3.Vec{X: 1}, origin, r3.Vec{Y: 1}, defaultUp},
		{"ZeroForward", r3.Vec{X: 1}, origin, r3.Vec{}, defaultUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			az, el := AzimuthElevation(tt.source, tt.listener, tt.forward, tt.up)
			assert.Zero(t, az)
			assert.Zero(t, el)
		})
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(r3.Vec{X: 3, Y: 4}, origin), testutil.DefaultTolerance)
	assert.InDelta(t, math.Sqrt(3), Distance(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: 2, Z: 2}), testutil.DefaultTolerance)
	assert.Zero(t, Distance(r3.Vec{X: 1}, r3.Vec{X: 1}))
}

func TestInverseDistanceGain(t *testing.T) {
	for _, d := range []float64{0.001, 0.5, 1, 2, 10, 1e4} {
		assert.InDelta(t, 1/d, InverseDistanceGain(d), testutil.DefaultTolerance, "distance %v", d)
	}

	gain := InverseDistanceGain(0)
	assert.Equal(t, 1.0, gain)
	assert.False(t, math.IsNaN(gain) || math.IsInf(gain, 0))
}

func TestAngle(t *testing.T) {
	source := r3.Vec{Z: -2}

	tests := []struct {
		name        string
		orientation r3.Vec
		listener    r3.Vec
		expected    float64
	}{
		{"FacingListener", r3.Vec{Z: 1}, origin, 0},
		{"FacingAway", r3.Vec{Z: -1}, origin, 180},
		{"Sideways", r3.Vec{X: 1}, origin, 90},
		{"Diagonal", r3.Vec{X: 1, Z: 1}, origin, 45},
		{"UnnormalizedOrientation", r3.Vec{Z: 42}, origin, 0},
		{"ZeroOrientation", r3.Vec{}, origin, 0},
		{"ColocatedListener", r3.Vec{X: 1}, source, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Angle(source, tt.orientation, tt.listener), testutil.AngleTolerance)
		})
	}
}

func TestConeGain_Disabled(t *testing.T) {
	for _, cone := range [][2]float64{{360, 360}, {-360, 360}, {720, 400}} {
		for angle := 0.0; angle <= 180; angle += 7.5 {
			assert.Equal(t, 1.0, ConeGain(angle, cone[0], cone[1], 0.1),
				"cone %v angle %v", cone, angle)
		}
	}
}

func TestConeGain_Thresholds(t *testing.T) {
	const (
		inner     = 60.0
		outer     = 120.0
		outerGain = 0.25
	)

	assert.Equal(t, 1.0, ConeGain(0, inner, outer, outerGain))
	assert.Equal(t, 1.0, ConeGain(inner/2, inner, outer, outerGain), "at half inner angle")
	assert.Equal(t, outerGain, ConeGain(outer/2, inner, outer, outerGain), "at half outer angle")
	assert.Equal(t, outerGain, ConeGain(179, inner, outer, outerGain))
	assert.InDelta(t, (1+outerGain)/2, ConeGain(45, inner, outer, outerGain), testutil.DefaultTolerance, "midpoint")
}

func TestConeGain_MonotonicAndContinuous(t *testing.T) {
	const (
		inner     = 40.0
		outer     = 200.0
		outerGain = 0.1
	)

	var gains []float64
	for angle := 0.0; angle <= 180; angle += 0.5 {
		gains = append(gains, ConeGain(angle, inner, outer, outerGain))
	}

	testutil.AssertMonotonicDecreasing(t, gains)
	for i := 1; i < len(gains); i++ {
		assert.LessOrEqual(t, gains[i-1]-gains[i], 0.01, "discontinuity at step %d", i)
	}
}

func TestConeGain_MalformedAngles(t *testing.T) {
	// Outer narrower than inner is not validated; it must still stay finite.
	for angle := 0.0; angle <= 180; angle += 5 {
		g := ConeGain(angle, 120, 60, 0.5)
		assert.False(t, math.IsNaN(g), "NaN at angle %v", angle)
	}

	// Equal apertures step straight to the outer gain.
	assert.Equal(t, 0.5, ConeGain(30, 60, 60, 0.5))
	assert.Equal(t, 1.0, ConeGain(29.9, 60, 60, 0.5))
}

func TestEqualPowerGains(t *testing.T) {
	tests := []struct {
		name    string
		azimuth float64
		left    float64
		right   float64
	}{
		{"Center", 0, math.Cos(math.Pi / 4), math.Cos(math.Pi / 4)},
		{"HardRight", 90, 0, 1},
		{"HardLeft", -90, 1, 0},
		{"Behind", 180, math.Cos(math.Pi / 4), math.Cos(math.Pi / 4)},
		{"BehindNegative", -180, math.Cos(math.Pi / 4), math.Cos(math.Pi / 4)},
		{"BehindRightMirrors", 135, math.Cos(0.75 * math.Pi / 2), math.Sin(0.75 * math.Pi / 2)},
		{"ClampedBeyondRange", 400, math.Cos(math.Pi / 4), math.Cos(math.Pi / 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := EqualPowerGains(tt.azimuth)
			assert.InDelta(t, tt.left, l, testutil.GainTolerance, "left")
			assert.InDelta(t, tt.right, r, testutil.GainTolerance, "right")
		})
	}
}

func TestEqualPowerGains_ConstantPower(t *testing.T) {
	for az := -180.0; az <= 180; az += 0.25 {
		l, r := EqualPowerGains(az)
		assert.InDelta(t, 1.0, l*l+r*r, testutil.DefaultTolerance, "azimuth %v", az)
		testutil.AssertInRange(t, l, 0, 1)
		testutil.AssertInRange(t, r, 0, 1)
	}
}

func TestDirection(t *testing.T) {
	assert.InDelta(t, 0, r3.Norm(r3.Sub(Direction(0, 0), r3.Vec{Z: 1})), testutil.DefaultTolerance)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(Direction(90, 0), r3.Vec{X: 1})), testutil.DefaultTolerance)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(Direction(0, 90), r3.Vec{Y: 1})), testutil.DefaultTolerance)

	for az := -180.0; az <= 180; az += 15 {
		for el := -90.0; el <= 90; el += 15 {
			assert.InDelta(t, 1.0, r3.Norm(Direction(az, el)), testutil.DefaultTolerance)
		}
	}
}

func BenchmarkAzimuthElevation(b *testing.B) {
	source := r3.Vec{X: 3, Y: 1, Z: -2}
	for b.Loop() {
		_, _ = AzimuthElevation(source, origin, defaultForward, defaultUp)
	}
}
