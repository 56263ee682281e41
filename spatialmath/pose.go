package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) mm coordinates,
// and the Orientation() method returns an Orientation object.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion is the Pose implementation. The real part is the unit rotation, the dual part is half the
// translation multiplied by that rotation.
type dualQuaternion struct {
	dualquat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &dualQuaternion{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	rot := Normalize(o.Quaternion())
	return &dualQuaternion{dualquat.Number{
		Real: rot,
		Dual: quat.Mul(quat.Number{Imag: p.X / 2, Jmag: p.Y / 2, Kmag: p.Z / 2}, rot),
	}}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{Imag: point.X / 2, Jmag: point.Y / 2, Kmag: point.Z / 2},
	}}
}

// NewPoseFromOrientation returns a pose at the origin with the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Point returns the translation of the pose in mm.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation of the pose.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

func (q *dualQuaternion) String() string {
	aa := q.Orientation().AxisAngles()
	p := q.Point()
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f Theta:%.4f RX:%.4f RY:%.4f RZ:%.4f}", p.X, p.Y, p.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	return NewPose(p.Point(), p.Orientation()).(*dualQuaternion)
}

// Compose takes two poses and returns the pose of b expressed in the frame that a is expressed in, i.e. a followed by b.
func Compose(a, b Pose) Pose {
	result := dualquat.Mul(newDualQuaternionFromPose(a).Number, newDualQuaternionFromPose(b).Number)
	// Keep the rotation unit length so long kinematic chains do not drift.
	if norm := quat.Abs(result.Real); norm != 1 && norm != 0 {
		result.Real = quat.Scale(1/norm, result.Real)
		result.Dual = quat.Scale(1/norm, result.Dual)
	}
	return &dualQuaternion{result}
}

// PoseInverse returns the inverse of a pose.
func PoseInverse(p Pose) Pose {
	o := OrientationInverse(p.Orientation())
	return NewPose(rotate(o.Quaternion(), p.Point()).Mul(-1), o)
}

// PoseBetween returns the difference between two dualQuaternions, that is, the dq which if multiplied by one will give the other.
// Example: if PoseBetween(a, b) = c, then Compose(a, c) = b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the difference between two poses expressed in the world frame: the translation from a to b, and the
// rotation vector (R3 axis angle) of the rotation taking a's orientation to b's.
func PoseDelta(a, b Pose) (r3.Vector, r3.Vector) {
	return b.Point().Sub(a.Point()), RotationVector(OrientationBetween(a.Orientation(), b.Orientation()))
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same, with the position
// compared in mm and the orientation in radians.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) && OrientationAlmostEqualEps(a.Orientation(), b.Orientation(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	d := a.Sub(b)
	return d.X <= epsilon && d.X >= -epsilon && d.Y <= epsilon && d.Y >= -epsilon && d.Z <= epsilon && d.Z >= -epsilon
}
