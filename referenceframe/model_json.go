package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// ModelConfig represents all supported fields in a kinematics JSON file. The URDF loader produces the same structure.
type ModelConfig struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links,omitempty"`
	Joints []JointConfig `json:"joints,omitempty"`
	Groups []GroupConfig `json:"groups,omitempty"`

	OriginalFile *ModelFile `json:"-"`
}

// ModelFile is a struct that stores the raw bytes of the file used to create the model as well as its extension,
// which is useful for knowing how to unmarhsal it.
type ModelFile struct {
	Bytes     []byte
	Extension string
}

// LinkConfig describes a link. Links carry no transform of their own; joints hold the offsets between links.
type LinkConfig struct {
	ID string `json:"id"`
}

// JointConfig describes a joint between two links. Revolute limits are in degrees and prismatic limits in mm, matching
// the rest of the JSON format; a missing limit leaves that side unbounded.
type JointConfig struct {
	ID          string                         `json:"id"`
	Type        JointType                      `json:"type"`
	Parent      string                         `json:"parent"`
	Child       string                         `json:"child"`
	Translation r3.Vector                      `json:"translation"`
	Orientation *spatialmath.OrientationConfig `json:"orientation,omitempty"`
	Axis        r3.Vector                      `json:"axis"`
	Min         *float64                       `json:"min,omitempty"`
	Max         *float64                       `json:"max,omitempty"`
}

// GroupConfig names a planning group. A group is either a chain from BaseLink to each of TipLinks, an explicit list of
// Joints, or both.
type GroupConfig struct {
	Name     string   `json:"name"`
	BaseLink string   `json:"base_link,omitempty"`
	TipLinks []string `json:"tip_links,omitempty"`
	Joints   []string `json:"joints,omitempty"`
}

// UnmarshalModelJSON will parse the given JSON data into a kinematics model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Model, error) {
	// empty data probably means that the robot component has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	m := &ModelConfig{OriginalFile: &ModelFile{Bytes: jsonData, Extension: "json"}}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}

	return m.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfig struct into a full Model with the name modelName.
func (cfg *ModelConfig) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	if len(cfg.Links) == 0 {
		return nil, ErrNoModelInformation
	}

	var errs error
	links := make([]Link, 0, len(cfg.Links))
	seenLinks := map[string]bool{}
	for _, lc := range cfg.Links {
		if lc.ID == "" {
			errs = multierr.Append(errs, errors.New("link with empty id"))
			continue
		}
		if seenLinks[lc.ID] {
			errs = multierr.Append(errs, NewDuplicateNameError("link", lc.ID))
			continue
		}
		seenLinks[lc.ID] = true
		links = append(links, Link{Name: lc.ID})
	}

	joints := make([]Joint, 0, len(cfg.Joints))
	seenJoints := map[string]bool{}
	for _, jc := range cfg.Joints {
		if seenJoints[jc.ID] {
			errs = multierr.Append(errs, NewDuplicateNameError("joint", jc.ID))
			continue
		}
		seenJoints[jc.ID] = true
		j, err := jc.toJoint()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		joints = append(joints, j)
	}
	if errs != nil {
		return nil, errs
	}

	model, err := newModel(modelName, links, joints)
	if err != nil {
		return nil, err
	}
	model.config = cfg
	if err := model.addGroups(cfg.Groups); err != nil {
		return nil, err
	}
	return model, nil
}

func (jc *JointConfig) toJoint() (Joint, error) {
	j := Joint{
		Name:          jc.ID,
		Type:          jc.Type,
		Parent:        jc.Parent,
		Child:         jc.Child,
		VariableIndex: -1,
	}
	if jc.ID == "" {
		return j, errors.New("joint with empty id")
	}

	orient := spatialmath.NewZeroOrientation()
	if jc.Orientation != nil {
		o, err := jc.Orientation.ParseConfig()
		if err != nil {
			return j, errors.Wrapf(err, "joint %q", jc.ID)
		}
		orient = o
	}
	j.Origin = spatialmath.NewPose(jc.Translation, orient)

	limit := Unbounded()
	if jc.Min != nil {
		limit.Min = *jc.Min
	}
	if jc.Max != nil {
		limit.Max = *jc.Max
	}

	switch jc.Type {
	case RevoluteJoint:
		j.Limit = Limit{Min: utils.DegToRad(limit.Min), Max: utils.DegToRad(limit.Max)}
	case ContinuousJoint:
		j.Limit = Unbounded()
	case PrismaticJoint:
		j.Limit = limit
	case FixedJoint, UnknownJoint:
		return j, nil
	case "floating", "planar":
		j.Type = UnknownJoint
		return j, nil
	default:
		return j, NewUnsupportedJointTypeError(string(jc.Type))
	}

	if jc.Axis.Norm() == 0 {
		return j, NewZeroAxisError(jc.ID)
	}
	j.Axis = jc.Axis.Normalize()
	if j.Limit.Min > j.Limit.Max || math.IsNaN(j.Limit.Min) || math.IsNaN(j.Limit.Max) {
		return j, NewInvalidLimitError(jc.ID, j.Limit)
	}
	return j, nil
}
