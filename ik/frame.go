package ik

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/gdik/spatialmath"
)

// residualsPerFrame is the length of a frame's residual: three position and three rotation components.
const residualsPerFrame = 6

// minResidualScale keeps residual scaling finite for zero tolerances.
const minResidualScale = 1e-6

// Tolerance bounds how far a link pose may be from its target. Position is in mm, Rotation in radians, and Twist
// bounds sqrt(|dp|^2 + dtheta^2), the two combined.
type Tolerance struct {
	Position float64
	Rotation float64
	Twist    float64
}

// FrameTarget is the desired pose of one tip link.
type FrameTarget struct {
	Link string
	Pose spatialmath.Pose
	Tolerance
}

// FrameError is the distance from a link pose to its target.
type FrameError struct {
	Position float64
	Rotation float64
	Twist    float64
}

// Within reports whether every component of the error is inside the tolerance.
func (e FrameError) Within(tol Tolerance) bool {
	return e.Position <= tol.Position && e.Rotation <= tol.Rotation && e.Twist <= tol.Twist
}

// FrameTest checks the pose of a single tip link against its target.
type FrameTest struct {
	target    FrameTarget
	linkIndex int
}

// NewFrameTest returns a test of the link at linkIndex, an index into the result of Model.LinkPoses.
func NewFrameTest(target FrameTarget, linkIndex int) *FrameTest {
	return &FrameTest{target: target, linkIndex: linkIndex}
}

// Target returns the target this test checks against.
func (ft *FrameTest) Target() FrameTarget {
	return ft.target
}

// Error measures how far pose is from the target.
func (ft *FrameTest) Error(pose spatialmath.Pose) FrameError {
	dp := pose.Point().Sub(ft.target.Pose.Point()).Norm()
	dr := spatialmath.OrientationDist(ft.target.Pose.Orientation(), pose.Orientation())
	return FrameError{Position: dp, Rotation: dr, Twist: math.Sqrt(dp*dp + dr*dr)}
}

// Pass reports whether pose satisfies every tolerance of the target.
func (ft *FrameTest) Pass(pose spatialmath.Pose) bool {
	return ft.Error(pose).Within(ft.target.Tolerance)
}

// residual writes the tolerance-scaled pose error into out, which must hold residualsPerFrame values. A residual of
// norm one per component is at the edge of the tolerance.
func (ft *FrameTest) residual(pose spatialmath.Pose, out []float64) {
	dp, dr := spatialmath.PoseDelta(ft.target.Pose, pose)
	writeScaled(out[:3], dp, ft.target.Position)
	writeScaled(out[3:], dr, ft.target.Rotation)
}

func writeScaled(out []float64, v r3.Vector, tol float64) {
	scale := 1 / math.Max(tol, minResidualScale)
	out[0] = v.X * scale
	out[1] = v.Y * scale
	out[2] = v.Z * scale
}

// frameTests is the conjunction of the tests of every tip.
type frameTests []*FrameTest

// pass reports whether every test passes for the given link poses.
func (fts frameTests) pass(poses []spatialmath.Pose) bool {
	for _, ft := range fts {
		if !ft.Pass(poses[ft.linkIndex]) {
			return false
		}
	}
	return true
}

func (fts frameTests) residual(poses []spatialmath.Pose, out []float64) {
	for i, ft := range fts {
		ft.residual(poses[ft.linkIndex], out[i*residualsPerFrame:(i+1)*residualsPerFrame])
	}
}
