// Package spatialmath defines spatial mathematical operations: orientations, poses and the distances
// between them used by the inverse kinematics search.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const degToRad = math.Pi / 180

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
}

// NewZeroOrientation returns an orientatation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{Real: 1}
}

// NewQuaternion returns the Orientation described by the given quaternion, normalized to unit length.
func NewQuaternion(q quat.Number) Orientation {
	nq := quaternion(Normalize(q))
	return &nq
}

// OrientationAlmostEqual will return a bool describing whether 2 poses have approximately the same orientation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return OrientationAlmostEqualEps(o1, o2, 1e-5)
}

// OrientationAlmostEqualEps will return a bool describing whether 2 poses have approximately the same orientation,
// within the given angle in radians.
func OrientationAlmostEqualEps(o1, o2 Orientation, epsilon float64) bool {
	return OrientationDist(o1, o2) <= epsilon
}

// OrientationBetween returns the orientation representing the difference between the two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// OrientationInverse returns the orientation representing the inverse of the given orientation.
func OrientationInverse(o Orientation) Orientation {
	q := quaternion(quat.Conj(o.Quaternion()))
	return &q
}

// OrientationDist returns the minimal rotation angle, in radians, taking o1 to o2. The result is in [0, pi].
func OrientationDist(o1, o2 Orientation) float64 {
	return RotationAngle(OrientationBetween(o1, o2).Quaternion())
}

// RotationVector returns the rotation of o as an R3 axis angle: a vector along the rotation axis whose length is the
// rotation angle. The identity maps to the zero vector.
func RotationVector(o Orientation) r3.Vector {
	return QuatToR3AA(o.Quaternion())
}

// RotationAngle returns the rotation angle of the given unit quaternion in [0, pi], choosing the shorter way around.
func RotationAngle(q quat.Number) float64 {
	return 2 * math.Atan2(Norm(q), math.Abs(q.Real))
}
