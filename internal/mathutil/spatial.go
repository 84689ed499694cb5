// Package mathutil provides the geometry and gain functions used by the
// spatial panner: listener-relative azimuth and elevation, distance and cone
// attenuation, and the equal-power panning law.
//
// All functions are pure and allocation-free so they can be called from the
// render path.
package mathutil

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AzimuthElevation returns the azimuth and elevation, in degrees, of source as
// heard by a listener at listener facing forward with the given up vector.
//
// The listener basis is right-handed with right = forward × up. Azimuth is 0°
// straight ahead, +90° to the right, -90° to the left and ±180° behind.
// Elevation is in [-90°, 90°], positive above the horizontal plane.
//
// A source colocated with the listener, or a degenerate listener basis
// (zero forward or forward parallel to up), yields (0, 0).
func AzimuthElevation(source, listener, forward, up r3.Vec) (azimuth, elevation float64) {
	rel := r3.Sub(source, listener)
	if r3.Norm(rel) == 0 {
		return 0, 0
	}
	dir := r3.Unit(rel)

	right := r3.Cross(forward, up)
	if r3.Norm(right) == 0 {
		return 0, 0
	}
	rightN := r3.Unit(right)
	forwardN := r3.Unit(forward)
	upN := r3.Cross(rightN, forwardN)

	// Project onto the horizontal plane of the listener
	upProjection := r3.Dot(dir, upN)
	projected := r3.Sub(dir, r3.Scale(upProjection, upN))

	// A source straight above or below has no horizontal component
	if r3.Norm(projected) > 0 {
		projected = r3.Unit(projected)

		azimuth = toDegrees(acosClamped(r3.Dot(projected, rightN)))

		// Source behind the listener
		if r3.Dot(projected, forwardN) < 0 {
			azimuth = degreesFullTurn - azimuth
		}

		// Re-reference from the right vector to the forward vector
		if azimuth >= 0 && azimuth <= degreesThreeQuarts {
			azimuth = degreesRightAngle - azimuth
		} else {
			azimuth = degreesWrapOffset - azimuth
		}
	}

	elevation = degreesRightAngle - toDegrees(acosClamped(upProjection))
	if elevation > degreesRightAngle {
		elevation = degreesHalfTurn - elevation
	} else if elevation < -degreesRightAngle {
		elevation = -degreesHalfTurn - elevation
	}

	return azimuth, elevation
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Angle returns the angle in degrees between the source's orientation and the
// direction from the source to the listener. The result is in [0°, 180°].
//
// A zero orientation has no direction and a colocated listener has no
// bearing; both return 0, which is inside any cone wider than 0°.
func Angle(sourcePosition, sourceOrientation, listenerPosition r3.Vec) float64 {
	if sourceOrientation == (r3.Vec{}) {
		return 0
	}

	toListener := r3.Sub(listenerPosition, sourcePosition)
	if r3.Norm(toListener) == 0 {
		return 0
	}

	return math.Abs(toDegrees(acosClamped(r3.Cos(toListener, sourceOrientation))))
}

// InverseDistanceGain returns 1/distance, or 1 when distance is not positive.
func InverseDistanceGain(distance float64) float64 {
	if distance > 0 {
		return 1 / distance
	}
	return 1
}

// ConeDisabled reports whether both cone apertures cover the full sphere, in
// which case the cone applies no attenuation and the angle need not be
// computed.
func ConeDisabled(innerAngle, outerAngle float64) bool {
	return math.Abs(innerAngle)/coneHalfDivisor >= coneDisabledHalfAngle &&
		math.Abs(outerAngle)/coneHalfDivisor >= coneDisabledHalfAngle
}

// ConeGain returns the directional gain for a listener at angle degrees off
// the source axis.
//
// innerAngle and outerAngle are full cone apertures in degrees. Inside half
// the inner aperture the gain is 1, beyond half the outer aperture it is
// outerGain, and in between it is interpolated linearly. The apertures are not
// validated: an outer angle smaller than the inner one skips the ramp.
func ConeGain(angle, innerAngle, outerAngle, outerGain float64) float64 {
	if ConeDisabled(innerAngle, outerAngle) {
		return 1
	}

	halfInner := math.Abs(innerAngle) / coneHalfDivisor
	halfOuter := math.Abs(outerAngle) / coneHalfDivisor

	switch {
	case angle < halfInner:
		return 1
	case angle >= halfOuter:
		return outerGain
	default:
		x := (angle - halfInner) / (halfOuter - halfInner)
		return (1 - x) + outerGain*x
	}
}

// EqualPowerGains returns the left and right ear gains for azimuth degrees.
//
// The azimuth is clamped to [-180°, 180°] and folded into [-90°, 90°] so that
// sources behind the listener pan like their mirror image in front. The gains
// satisfy left² + right² = 1.
func EqualPowerGains(azimuth float64) (left, right float64) {
	azimuth = max(-degreesHalfTurn, min(degreesHalfTurn, azimuth))

	if azimuth < -degreesRightAngle {
		azimuth = -degreesHalfTurn - azimuth
	} else if azimuth > degreesRightAngle {
		azimuth = degreesHalfTurn - azimuth
	}

	x := (azimuth + degreesRightAngle) / degreesHalfTurn
	return math.Cos(x * math.Pi / 2), math.Sin(x * math.Pi / 2)
}

// Direction converts azimuth and elevation in degrees to a unit vector with
// x to the right, y up and z forward.
func Direction(azimuth, elevation float64) r3.Vec {
	az := toRadians(azimuth)
	el := toRadians(elevation)
	return r3.Vec{
		X: math.Sin(az) * math.Cos(el),
		Y: math.Sin(el),
		Z: math.Cos(az) * math.Cos(el),
	}
}

func toDegrees(rad float64) float64 {
	return rad * degreesHalfTurn / math.Pi
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / degreesHalfTurn
}

// acosClamped guards against dot products drifting just outside [-1, 1].
func acosClamped(x float64) float64 {
	return math.Acos(max(-1, min(1, x)))
}
