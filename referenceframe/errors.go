package referenceframe

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrCircularReference is returned when the joints of a model form a cycle.
var ErrCircularReference = errors.New("infinite loop finding path from end effector to world")

// NewFrameNotInListOfTransformsError returns an error indicating that a link of the given name is not in the model.
func NewFrameNotInListOfTransformsError(frameName string) error {
	return errors.Errorf("link named '%s' not in the list of transforms", frameName)
}

// NewJointNotFoundError returns an error indicating that a joint of the given name is not in the model.
func NewJointNotFoundError(name string) error {
	return errors.Errorf("joint named '%s' not found in model", name)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported by current model
// parsing.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

// NewDuplicateNameError returns an error indicating that two elements of the same kind share a name.
func NewDuplicateNameError(kind, name string) error {
	return errors.Errorf("duplicate %s name %q", kind, name)
}

// NewMultipleParentsError returns an error indicating that a link is the child of more than one joint.
func NewMultipleParentsError(link, first, second string) error {
	return errors.Errorf("link %q is the child of both joint %q and joint %q", link, first, second)
}

// NewNeedOneRootError returns an error indicating that the model does not form a single tree.
func NewNeedOneRootError(roots []string) error {
	return errors.Errorf("need exactly one root link, have %v", roots)
}

// NewZeroAxisError returns an error indicating that a moving joint has no axis.
func NewZeroAxisError(joint string) error {
	return errors.Errorf("joint %q cannot use zero vector as its axis", joint)
}

// NewInvalidLimitError returns an error indicating that a joint's minimum exceeds its maximum.
func NewInvalidLimitError(joint string, limit Limit) error {
	return errors.Errorf("joint %q has invalid limits %v", joint, limit)
}

// NewIncorrectInputLengthError returns an error indicating that the length of a joint vector does not match the model.
func NewIncorrectInputLengthError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match number of variables, expected %d but got %d", expected, actual)
}

// NewGroupNotFoundError returns an error indicating that the named planning group is not defined.
func NewGroupNotFoundError(name string, available []string) error {
	return errors.Errorf("planning group %q not found, available groups: [%s]", name, strings.Join(available, ", "))
}

// NewInvalidGroupError returns an error indicating that a planning group cannot be resolved.
func NewInvalidGroupError(name, reason string) error {
	return errors.Errorf("invalid planning group %q: %s", name, reason)
}

// NewNotAncestorError returns an error indicating that a chain's base link is not above its tip.
func NewNotAncestorError(base, tip string) error {
	return errors.Errorf("link %q is not an ancestor of link %q", base, tip)
}
