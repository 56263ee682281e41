// Package urdf provides functions which enable *.urdf and *.srdf files to be used as kinematic models
package urdf

import (
	"encoding/xml"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/gdik/referenceframe"
	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

// Extension is the file extension associated with URDF files.
const Extension string = "urdf"

// ModelConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type ModelConfig struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Links   []link   `xml:"link"`
	Joints  []joint  `xml:"joint"`
}

// link is a struct which details the XML used in a URDF link element.
type link struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// joint is a struct which details the XML used in a URDF joint element.
type joint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frame    `xml:"parent"`
	Child   frame    `xml:"child"`
	Origin  *pose    `xml:"origin,omitempty"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

type frame struct {
	Link string `xml:"link,attr"`
}

type limit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

type axis struct {
	XMLName xml.Name `xml:"axis"`
	XYZ     string   `xml:"xyz,attr"`
}

type pose struct {
	XMLName xml.Name `xml:"origin"`
	XYZ     string   `xml:"xyz,attr"` // meters
	RPY     string   `xml:"rpy,attr"` // radians
}

// parse returns the translation in mm and the orientation of an origin element. Missing attributes are zero.
func (p *pose) parse() (r3.Vector, spatialmath.Orientation, error) {
	if p == nil {
		return r3.Vector{}, spatialmath.NewZeroOrientation(), nil
	}
	xyz, err := triple(p.XYZ, "xyz")
	if err != nil {
		return r3.Vector{}, nil, err
	}
	rpy, err := triple(p.RPY, "rpy")
	if err != nil {
		return r3.Vector{}, nil, err
	}
	// Note the conversion from meters to mm
	translation := r3.Vector{X: utils.MetersToMM(xyz[0]), Y: utils.MetersToMM(xyz[1]), Z: utils.MetersToMM(xyz[2])}
	return translation, &spatialmath.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]}, nil
}

func triple(s, attr string) ([]float64, error) {
	vals := utils.SpaceDelimitedStringToFloatSlice(s)
	if len(vals) == 0 {
		return []float64{0, 0, 0}, nil
	}
	if len(vals) != 3 {
		return nil, errors.Errorf("%s attribute %q must have three values", attr, s)
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			return nil, errors.Errorf("%s attribute %q is not numeric", attr, s)
		}
	}
	return vals, nil
}

// UnmarshalModelXML will transfer the given URDF XML data into an equivalent ModelConfig. Direct unmarshaling in the
// same fashion as ModelJSON is not possible, as URDF data will need to be evaluated to accommodate differences
// between the two kinematics encoding schemes.
func UnmarshalModelXML(xmlData []byte, modelName string) (*referenceframe.ModelConfig, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, referenceframe.ErrNoModelInformation
	}

	// Unmarshal into a URDF ModelConfig
	urdf := &ModelConfig{}
	err := xml.Unmarshal(xmlData, urdf)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to convert URDF data to equivalent URDFConfig struct")
	}

	// Use default name if none is provided
	if modelName == "" {
		modelName = urdf.Name
	}

	mc := &referenceframe.ModelConfig{
		Name: modelName,
		OriginalFile: &referenceframe.ModelFile{
			Bytes:     xmlData,
			Extension: Extension,
		},
	}
	for _, linkElem := range urdf.Links {
		mc.Links = append(mc.Links, referenceframe.LinkConfig{ID: linkElem.Name})
	}

	for _, jointElem := range urdf.Joints {
		translation, orientation, err := jointElem.Origin.parse()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q origin", jointElem.Name)
		}
		orientCfg, err := spatialmath.NewOrientationConfig(orientation)
		if err != nil {
			return nil, err
		}
		thisJoint := referenceframe.JointConfig{
			ID:          jointElem.Name,
			Type:        referenceframe.JointType(jointElem.Type),
			Parent:      jointElem.Parent.Link,
			Child:       jointElem.Child.Link,
			Translation: translation,
			Orientation: orientCfg,
		}

		switch thisJoint.Type {
		case referenceframe.ContinuousJoint, referenceframe.RevoluteJoint, referenceframe.PrismaticJoint:
			// the URDF default axis
			thisJoint.Axis = r3.Vector{X: 1}
			if jointElem.Axis != nil {
				xyz, err := triple(jointElem.Axis.XYZ, "axis")
				if err != nil {
					return nil, errors.Wrapf(err, "joint %q", jointElem.Name)
				}
				thisJoint.Axis = r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
			}

			// Slightly different limits handling for continuous, revolute, and prismatic joints
			if jointElem.Limit != nil {
				switch thisJoint.Type {
				case referenceframe.PrismaticJoint:
					lower, upper := utils.MetersToMM(jointElem.Limit.Lower), utils.MetersToMM(jointElem.Limit.Upper)
					thisJoint.Min, thisJoint.Max = &lower, &upper
				case referenceframe.RevoluteJoint:
					lower, upper := utils.RadToDeg(jointElem.Limit.Lower), utils.RadToDeg(jointElem.Limit.Upper)
					thisJoint.Min, thisJoint.Max = &lower, &upper
				default:
					// continuous joints ignore any limit element
				}
			}
		case referenceframe.FixedJoint, "floating", "planar":
		default:
			return nil, referenceframe.NewUnsupportedJointTypeError(jointElem.Type)
		}
		mc.Joints = append(mc.Joints, thisJoint)
	}
	return mc, nil
}

// ParseModelXMLFile will read a given file and parse the contained URDF XML data into an equivalent Model.
func ParseModelXMLFile(filename, modelName string) (*referenceframe.Model, error) {
	mc, err := readModelConfig(filename, modelName)
	if err != nil {
		return nil, err
	}
	return mc.ParseConfig(modelName)
}

// ParseModelFiles reads a URDF file and the SRDF file holding its planning groups.
func ParseModelFiles(urdfFile, srdfFile, modelName string) (*referenceframe.Model, error) {
	mc, err := readModelConfig(urdfFile, modelName)
	if err != nil {
		return nil, err
	}
	groups, err := ParseSRDFFile(srdfFile)
	if err != nil {
		return nil, err
	}
	mc.Groups = append(mc.Groups, groups...)
	return mc.ParseConfig(modelName)
}

func readModelConfig(filename, modelName string) (*referenceframe.ModelConfig, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return UnmarshalModelXML(xmlData, modelName)
}
