// Package referenceframe defines the kinematic model of a robot: links, the joints between them, their
// limits, and the planning groups that select which joints an inverse kinematics search may move.
package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

// JointType is the kind of motion a joint allows.
type JointType string

// The set of joint types understood by the model loaders.
const (
	RevoluteJoint   = JointType("revolute")
	ContinuousJoint = JointType("continuous")
	PrismaticJoint  = JointType("prismatic")
	FixedJoint      = JointType("fixed")
	// UnknownJoint is any joint the solver cannot move, e.g. floating or planar joints. It carries no variables.
	UnknownJoint = JointType("unknown")
)

// Limit represents the limits of motion for a joint variable. Revolute limits are in radians, prismatic limits in mm.
// Either side may be infinite.
type Limit struct {
	Min float64
	Max float64
}

// Unbounded returns a limit that allows any value.
func Unbounded() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Bounded returns whether both sides of the limit are finite.
func (l Limit) Bounded() bool {
	return !math.IsInf(l.Min, 0) && !math.IsInf(l.Max, 0)
}

// Span is the width of the range, infinite for unbounded limits.
func (l Limit) Span() float64 {
	return l.Max - l.Min
}

// Center is the midpoint of a bounded range.
func (l Limit) Center() float64 {
	return (l.Min + l.Max) / 2
}

// Clamp returns v moved inside the limit.
func (l Limit) Clamp(v float64) float64 {
	return utils.Clamp(v, l.Min, l.Max)
}

// Contains reports whether v lies inside the closed range.
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

func (l Limit) String() string {
	return fmt.Sprintf("[%g, %g]", l.Min, l.Max)
}

func limitsAlmostEqual(a, b []Limit) bool {
	if len(a) != len(b) {
		return false
	}

	const epsilon = 1e-5
	for idx, x := range a {
		if !floatOrInfAlmostEqual(x.Min, b[idx].Min, epsilon) || !floatOrInfAlmostEqual(x.Max, b[idx].Max, epsilon) {
			return false
		}
	}
	return true
}

func floatOrInfAlmostEqual(a, b, epsilon float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return utils.Float64AlmostEqual(a, b, epsilon)
}

// Joint connects a parent link to a child link. Origin is the fixed transform from the parent link to the joint frame;
// the joint's motion is applied in that frame about or along Axis.
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Origin spatialmath.Pose
	Axis   r3.Vector
	Limit  Limit

	// VariableIndex is the index of this joint's value in the full variable vector, or -1 for joints without one.
	VariableIndex int
}

// Moving reports whether the joint has a variable.
func (j *Joint) Moving() bool {
	return j.VariableIndex >= 0
}

// Transform returns the pose of the child link in the parent link's frame with the joint at the given value.
func (j *Joint) Transform(value float64) spatialmath.Pose {
	switch j.Type {
	case RevoluteJoint, ContinuousJoint:
		return spatialmath.Compose(j.Origin, spatialmath.NewPoseFromOrientation(
			&spatialmath.R4AA{Theta: value, RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z},
		))
	case PrismaticJoint:
		return spatialmath.Compose(j.Origin, spatialmath.NewPoseFromPoint(j.Axis.Mul(value)))
	case FixedJoint, UnknownJoint:
		return j.Origin
	}
	return j.Origin
}

// Link is a rigid body of the model. The root link has no parent joint.
type Link struct {
	Name        string
	ParentJoint string
}
