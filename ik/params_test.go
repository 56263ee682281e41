package ik

import (
	"errors"
	"math"
	"testing"

	"go.viam.com/test"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	test.That(t, p.Validate("arm"), test.ShouldBeNil)
	test.That(t, p.Tolerance(), test.ShouldResemble, Tolerance{Position: 0.1, Rotation: 0.01, Twist: 0.1})
	test.That(t, p.CostThreshold, test.ShouldEqual, 0.001)
	test.That(t, p.MaxRestarts, test.ShouldEqual, -1)
	test.That(t, p.CenterJointsWeight, test.ShouldEqual, 0)
	test.That(t, p.AvoidJointLimitsWeight, test.ShouldEqual, 0)
	test.That(t, p.MinimalDisplacementWeight, test.ShouldEqual, 0)
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.PositionThreshold = -1
	p.AvoidJointLimitsWeight = math.NaN()
	err := p.Validate("arm")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "arm.position_threshold")
	test.That(t, err.Error(), test.ShouldContainSubstring, "arm.avoid_joint_limits_weight")
}

func TestParamsFromAttributes(t *testing.T) {
	p, err := ParamsFromAttributes(map[string]interface{}{
		"position_threshold":   0.5,
		"center_joints_weight": "2",
		"max_restarts":         3,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.PositionThreshold, test.ShouldEqual, 0.5)
	test.That(t, p.CenterJointsWeight, test.ShouldEqual, 2)
	test.That(t, p.MaxRestarts, test.ShouldEqual, 3)
	// absent keys keep their defaults
	test.That(t, p.RotationThreshold, test.ShouldEqual, 0.01)

	_, err = ParamsFromAttributes(map[string]interface{}{"position_treshold": 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "position_treshold")
}

func TestLoadParamsFile(t *testing.T) {
	p, err := LoadParamsFile("testdata/kinematics.yaml", "arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.PositionThreshold, test.ShouldEqual, 0.5)
	test.That(t, p.RotationThreshold, test.ShouldEqual, 0.02)
	test.That(t, p.TwistThreshold, test.ShouldEqual, 0.1)
	test.That(t, p.AvoidJointLimitsWeight, test.ShouldEqual, 1)
	test.That(t, p.MaxRestarts, test.ShouldEqual, 10)
	test.That(t, p.RandomSeed, test.ShouldEqual, 42)

	p, err = LoadParamsFile("testdata/kinematics.yaml", "gripper")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.PositionThreshold, test.ShouldEqual, 2)
	test.That(t, p.CostThreshold, test.ShouldEqual, 0.1)
	test.That(t, p.MaxRestarts, test.ShouldEqual, -1)

	_, err = LoadParamsFile("testdata/kinematics.yaml", "legs")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "legs")

	_, err = LoadParamsFile("testdata/missing.yaml", "arm")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUnmarshalParamsYAML(t *testing.T) {
	p, err := UnmarshalParamsYAML([]byte("twist_threshold: 3\nminimal_displacement_weight: 0.25\n"), "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.TwistThreshold, test.ShouldEqual, 3)
	test.That(t, p.MinimalDisplacementWeight, test.ShouldEqual, 0.25)
	test.That(t, p.PositionThreshold, test.ShouldEqual, 0.1)

	_, err = UnmarshalParamsYAML([]byte("cost_threshold: -1\n"), "flat")
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)

	_, err = UnmarshalParamsYAML([]byte("position_threshold: [1, 2"), "")
	test.That(t, err, test.ShouldNotBeNil)
}
