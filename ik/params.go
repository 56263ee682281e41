package ik

import (
	"math"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// default values for inverse kinematics.
const (
	defaultPositionThreshold = 0.1
	defaultRotationThreshold = 0.01
	defaultTwistThreshold    = 0.1
	defaultCostThreshold     = 0.001
	// negative means restart until the timeout.
	defaultMaxRestarts = -1
)

// Params are the tolerances and goal weights of a solver. Weights that are zero disable their goal.
type Params struct {
	// Distance in mm a tip may be from its target.
	PositionThreshold float64 `json:"position_threshold" yaml:"position_threshold"`
	// Angle in radians a tip may be rotated from its target.
	RotationThreshold float64 `json:"rotation_threshold" yaml:"rotation_threshold"`
	// Bound on sqrt(position^2 + rotation^2).
	TwistThreshold float64 `json:"twist_threshold" yaml:"twist_threshold"`
	// Solutions must have a weighted goal cost at most this.
	CostThreshold float64 `json:"cost_threshold" yaml:"cost_threshold"`

	CenterJointsWeight        float64 `json:"center_joints_weight" yaml:"center_joints_weight"`
	AvoidJointLimitsWeight    float64 `json:"avoid_joint_limits_weight" yaml:"avoid_joint_limits_weight"`
	MinimalDisplacementWeight float64 `json:"minimal_displacement_weight" yaml:"minimal_displacement_weight"`

	// Number of random restarts once a descent stops improving. To restart until the timeout, set < 0.
	MaxRestarts int `json:"max_restarts" yaml:"max_restarts"`
	// Seed of the generator used for restarts.
	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`
}

// DefaultParams returns the default tolerances with every goal disabled.
func DefaultParams() Params {
	return Params{
		PositionThreshold: defaultPositionThreshold,
		RotationThreshold: defaultRotationThreshold,
		TwistThreshold:    defaultTwistThreshold,
		CostThreshold:     defaultCostThreshold,
		MaxRestarts:       defaultMaxRestarts,
	}
}

// Tolerance returns the frame tolerance the params describe.
func (p Params) Tolerance() Tolerance {
	return Tolerance{Position: p.PositionThreshold, Rotation: p.RotationThreshold, Twist: p.TwistThreshold}
}

// Validate ensures all parts of the params are valid.
func (p Params) Validate(path string) error {
	var err error
	nonNegative := func(name string, v float64) {
		if math.IsNaN(v) || v < 0 {
			err = multierr.Append(err, errors.Errorf("%s.%s must be a non-negative number, got %v", path, name, v))
		}
	}
	nonNegative("position_threshold", p.PositionThreshold)
	nonNegative("rotation_threshold", p.RotationThreshold)
	nonNegative("twist_threshold", p.TwistThreshold)
	nonNegative("cost_threshold", p.CostThreshold)
	nonNegative("center_joints_weight", p.CenterJointsWeight)
	nonNegative("avoid_joint_limits_weight", p.AvoidJointLimitsWeight)
	nonNegative("minimal_displacement_weight", p.MinimalDisplacementWeight)
	if err != nil {
		return errors.Wrap(multierr.Combine(ErrInvalidConfiguration, err), "invalid params")
	}
	return nil
}

// ParamsFromAttributes decodes params from a generic attribute map, such as one read from a JSON config. Keys that are
// absent keep their default.
func ParamsFromAttributes(attrs map[string]interface{}) (Params, error) {
	params := DefaultParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Params{}, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return Params{}, errors.Wrap(err, "failed to decode inverse kinematics params")
	}
	return params, nil
}

// kinematicsFile is the layout of a kinematics parameter file, with params keyed by planning group.
type kinematicsFile struct {
	Groups map[string]yaml.Node `yaml:"robot_description_kinematics"`
}

// LoadParamsFile reads params from a YAML file. The file is either a mapping of groups under
// robot_description_kinematics, in which case the named group is read, or a flat mapping of params.
func LoadParamsFile(path, group string) (Params, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, errors.Wrap(err, "failed to read inverse kinematics params")
	}
	return UnmarshalParamsYAML(data, group)
}

// UnmarshalParamsYAML decodes params from YAML over the defaults. See LoadParamsFile for the accepted layouts.
func UnmarshalParamsYAML(data []byte, group string) (Params, error) {
	params := DefaultParams()
	var file kinematicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Params{}, errors.Wrap(err, "failed to parse inverse kinematics params")
	}
	if file.Groups == nil {
		if err := yaml.Unmarshal(data, &params); err != nil {
			return Params{}, errors.Wrap(err, "failed to parse inverse kinematics params")
		}
		return params, params.Validate(group)
	}
	node, ok := file.Groups[group]
	if !ok {
		return Params{}, errors.Errorf("no inverse kinematics params for group %q", group)
	}
	if err := node.Decode(&params); err != nil {
		return Params{}, errors.Wrapf(err, "failed to parse inverse kinematics params for group %q", group)
	}
	return params, params.Validate(group)
}
