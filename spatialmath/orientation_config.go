package spatialmath

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationType defines what orientation representations are known.
type OrientationType string

// The set of allowed representations for orientation.
const (
	NoOrientationType         = OrientationType("")
	AxisAnglesType            = OrientationType("axis_angles")
	EulerAnglesType           = OrientationType("euler_angles")
	QuaternionType            = OrientationType("quaternion")
	EulerAnglesDegreesType    = OrientationType("euler_angles_degrees")
	AxisAnglesDegreesType     = OrientationType("axis_angles_degrees")
	defaultOrientationTypeMsg = "axis_angles, axis_angles_degrees, euler_angles, euler_angles_degrees or quaternion"
)

// OrientationConfig holds the underlying type of orientation, and the value.
type OrientationConfig struct {
	Type  OrientationType `json:"type"`
	Value json.RawMessage `json:"value"`
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewOrientationConfig encodes the orientation interface to something serializable and human readable.
// Orientations are always written as axis angles.
func NewOrientationConfig(o Orientation) (*OrientationConfig, error) {
	bytes, err := json.Marshal(o.AxisAngles())
	if err != nil {
		return nil, err
	}
	return &OrientationConfig{Type: AxisAnglesType, Value: json.RawMessage(bytes)}, nil
}

// ParseConfig will use the Type in OrientationConfig and convert into the correct struct that implements Orientation.
func (config *OrientationConfig) ParseConfig() (Orientation, error) {
	var err error
	// use the type to unmarshal the value
	switch config.Type {
	case NoOrientationType:
		return NewZeroOrientation(), nil
	case AxisAnglesType, AxisAnglesDegreesType:
		var o R4AA
		if err = json.Unmarshal(config.Value, &o); err != nil {
			return nil, errors.Wrapf(err, "cannot parse %s orientation", config.Type)
		}
		if config.Type == AxisAnglesDegreesType {
			o.Theta *= degToRad
		}
		o.Normalize()
		return &o, nil
	case EulerAnglesType, EulerAnglesDegreesType:
		var o EulerAngles
		if err = json.Unmarshal(config.Value, &o); err != nil {
			return nil, errors.Wrapf(err, "cannot parse %s orientation", config.Type)
		}
		if config.Type == EulerAnglesDegreesType {
			o.Roll, o.Pitch, o.Yaw = o.Roll*degToRad, o.Pitch*degToRad, o.Yaw*degToRad
		}
		return &o, nil
	case QuaternionType:
		var o quaternionJSON
		if err = json.Unmarshal(config.Value, &o); err != nil {
			return nil, errors.Wrapf(err, "cannot parse %s orientation", config.Type)
		}
		return NewQuaternion(quat.Number{Real: o.W, Imag: o.X, Jmag: o.Y, Kmag: o.Z}), nil
	default:
		return nil, newOrientationTypeUnsupportedError(string(config.Type))
	}
}

func newOrientationTypeUnsupportedError(orientationType string) error {
	return errors.Errorf("orientation type %s unsupported in json configuration, must be one of %s", orientationType, defaultOrientationTypeMsg)
}
