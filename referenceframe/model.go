package referenceframe

import (
	"math"
	"math/rand"

	"go.viam.com/gdik/spatialmath"
)

// Model is the kinematic tree of a robot. Links are stored parents first; every link except the root is the child of
// exactly one joint. A Model is immutable once built and safe for concurrent use.
type Model struct {
	name  string
	links []Link
	// joints are ordered depth first from the root, which is also the order of the variables.
	joints []Joint

	linkIndex  map[string]int
	jointIndex map[string]int
	// linkParent[i] is the index of the parent link of links[i] and linkJoint[i] the joint between them, -1 for the root.
	linkParent []int
	linkJoint  []int

	limits        []Limit
	variableNames []string

	groups     map[string]GroupConfig
	groupOrder []string
	config     *ModelConfig
}

// NewModel builds a model from link names, joints and planning groups. Joint variable indices are assigned by the
// model; any value set by the caller is ignored.
func NewModel(name string, linkNames []string, joints []Joint, groups ...GroupConfig) (*Model, error) {
	if len(linkNames) == 0 {
		return nil, ErrNoModelInformation
	}
	links := make([]Link, 0, len(linkNames))
	for _, l := range linkNames {
		links = append(links, Link{Name: l})
	}
	js := make([]Joint, len(joints))
	copy(js, joints)
	for i := range js {
		js[i].VariableIndex = -1
		if js[i].Origin == nil {
			js[i].Origin = spatialmath.NewZeroPose()
		}
		if js[i].Axis.Norm() > 0 {
			js[i].Axis = js[i].Axis.Normalize()
		}
		if js[i].Type == ContinuousJoint {
			js[i].Limit = Unbounded()
		}
	}
	m, err := newModel(name, links, js)
	if err != nil {
		return nil, err
	}
	if err := m.addGroups(groups); err != nil {
		return nil, err
	}
	return m, nil
}

func newModel(name string, links []Link, joints []Joint) (*Model, error) {
	linkByName := make(map[string]int, len(links))
	for i, l := range links {
		if _, ok := linkByName[l.Name]; ok {
			return nil, NewDuplicateNameError("link", l.Name)
		}
		linkByName[l.Name] = i
	}

	parentJoint := map[string]int{}
	children := map[string][]int{}
	seenJoints := map[string]bool{}
	for i, j := range joints {
		if seenJoints[j.Name] {
			return nil, NewDuplicateNameError("joint", j.Name)
		}
		seenJoints[j.Name] = true
		if _, ok := linkByName[j.Parent]; !ok {
			return nil, NewFrameNotInListOfTransformsError(j.Parent)
		}
		if _, ok := linkByName[j.Child]; !ok {
			return nil, NewFrameNotInListOfTransformsError(j.Child)
		}
		if prev, ok := parentJoint[j.Child]; ok {
			return nil, NewMultipleParentsError(j.Child, joints[prev].Name, j.Name)
		}
		if (j.Type == RevoluteJoint || j.Type == ContinuousJoint || j.Type == PrismaticJoint) && j.Axis.Norm() == 0 {
			return nil, NewZeroAxisError(j.Name)
		}
		if j.Limit.Min > j.Limit.Max {
			return nil, NewInvalidLimitError(j.Name, j.Limit)
		}
		parentJoint[j.Child] = i
		children[j.Parent] = append(children[j.Parent], i)
	}

	var roots []string
	for _, l := range links {
		if _, ok := parentJoint[l.Name]; !ok {
			roots = append(roots, l.Name)
		}
	}
	if len(roots) == 0 {
		return nil, ErrCircularReference
	}
	if len(roots) > 1 {
		return nil, NewNeedOneRootError(roots)
	}

	m := &Model{
		name:       name,
		linkIndex:  make(map[string]int, len(links)),
		jointIndex: make(map[string]int, len(joints)),
		groups:     map[string]GroupConfig{},
	}

	// depth first from the root, visiting children in declaration order
	type entry struct {
		link   string
		parent int
		joint  int
	}
	stack := []entry{{link: roots[0], parent: -1, joint: -1}}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		jointIdx := -1
		if curr.joint >= 0 {
			j := joints[curr.joint]
			switch j.Type {
			case RevoluteJoint, ContinuousJoint, PrismaticJoint:
				j.VariableIndex = len(m.limits)
				m.limits = append(m.limits, j.Limit)
				m.variableNames = append(m.variableNames, j.Name)
			case FixedJoint, UnknownJoint:
				j.VariableIndex = -1
			default:
				return nil, NewUnsupportedJointTypeError(string(j.Type))
			}
			jointIdx = len(m.joints)
			m.jointIndex[j.Name] = jointIdx
			m.joints = append(m.joints, j)
		}

		m.linkIndex[curr.link] = len(m.links)
		m.links = append(m.links, Link{Name: curr.link, ParentJoint: jointName(joints, curr.joint)})
		m.linkParent = append(m.linkParent, curr.parent)
		m.linkJoint = append(m.linkJoint, jointIdx)

		kids := children[curr.link]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, entry{link: joints[kids[i]].Child, parent: m.linkIndex[curr.link], joint: kids[i]})
		}
	}

	// with a single root and one parent per link, anything unreached hangs off a cycle
	if len(m.links) != len(links) {
		return nil, ErrCircularReference
	}
	return m, nil
}

func jointName(joints []Joint, idx int) string {
	if idx < 0 {
		return ""
	}
	return joints[idx].Name
}

// Name returns the name of this model.
func (m *Model) Name() string {
	return m.name
}

// Root returns the name of the root link.
func (m *Model) Root() string {
	return m.links[0].Name
}

// DoF returns the number of variables in a full joint vector.
func (m *Model) DoF() int {
	return len(m.limits)
}

// Limits returns the limit of every variable, in variable order.
func (m *Model) Limits() []Limit {
	out := make([]Limit, len(m.limits))
	copy(out, m.limits)
	return out
}

// VariableNames returns the joint name of every variable, in variable order.
func (m *Model) VariableNames() []string {
	out := make([]string, len(m.variableNames))
	copy(out, m.variableNames)
	return out
}

// Links returns every link, parents before children.
func (m *Model) Links() []Link {
	out := make([]Link, len(m.links))
	copy(out, m.links)
	return out
}

// Joints returns every joint, parents before children.
func (m *Model) Joints() []Joint {
	out := make([]Joint, len(m.joints))
	copy(out, m.joints)
	return out
}

// Joint returns the named joint.
func (m *Model) Joint(name string) (Joint, error) {
	idx, ok := m.jointIndex[name]
	if !ok {
		return Joint{}, NewJointNotFoundError(name)
	}
	return m.joints[idx], nil
}

// LinkIndex returns the index of the named link in Links and in the result of LinkPoses.
func (m *Model) LinkIndex(name string) (int, error) {
	idx, ok := m.linkIndex[name]
	if !ok {
		return -1, NewFrameNotInListOfTransformsError(name)
	}
	return idx, nil
}

// ModelConfig returns the configuration the model was parsed from, nil for models built with NewModel.
func (m *Model) ModelConfig() *ModelConfig {
	return m.config
}

// LinkPoses computes forward kinematics: the pose of every link in the root link's frame, in the order of Links.
func (m *Model) LinkPoses(full []float64) ([]spatialmath.Pose, error) {
	if len(full) != len(m.limits) {
		return nil, NewIncorrectInputLengthError(len(full), len(m.limits))
	}
	poses := make([]spatialmath.Pose, len(m.links))
	poses[0] = spatialmath.NewZeroPose()
	for i := 1; i < len(m.links); i++ {
		j := &m.joints[m.linkJoint[i]]
		var value float64
		if j.VariableIndex >= 0 {
			value = full[j.VariableIndex]
		}
		poses[i] = spatialmath.Compose(poses[m.linkParent[i]], j.Transform(value))
	}
	return poses, nil
}

// LinkPose computes the pose of one link in the root link's frame.
func (m *Model) LinkPose(name string, full []float64) (spatialmath.Pose, error) {
	idx, err := m.LinkIndex(name)
	if err != nil {
		return nil, err
	}
	poses, err := m.LinkPoses(full)
	if err != nil {
		return nil, err
	}
	return poses[idx], nil
}

// WithinLimits reports whether every variable of full lies inside its limit.
func (m *Model) WithinLimits(full []float64) bool {
	if len(full) != len(m.limits) {
		return false
	}
	for i, l := range m.limits {
		if !l.Contains(full[i]) {
			return false
		}
	}
	return true
}

// ancestorJoints returns the indices into joints of every joint between link and the root, nearest first.
func (m *Model) ancestorJoints(link int) []int {
	var out []int
	for i := link; i > 0; i = m.linkParent[i] {
		out = append(out, m.linkJoint[i])
	}
	return out
}

// GroupNames returns the names of the model's planning groups in declaration order.
func (m *Model) GroupNames() []string {
	out := make([]string, len(m.groupOrder))
	copy(out, m.groupOrder)
	return out
}

func (m *Model) addGroups(groups []GroupConfig) error {
	for _, g := range groups {
		if _, ok := m.groups[g.Name]; ok {
			return NewDuplicateNameError("group", g.Name)
		}
		if _, err := m.NewGroup(g); err != nil {
			return err
		}
		m.groups[g.Name] = g
		m.groupOrder = append(m.groupOrder, g.Name)
	}
	return nil
}

// GenerateRandomJointPositions generates a list of joint positions that are random but inside each limit. Limits must be
// bounded.
func GenerateRandomJointPositions(limits []Limit, randSeed *rand.Rand) []float64 {
	jointPos := make([]float64, 0, len(limits))
	for i := 0; i < len(limits); i++ {
		jRange := math.Abs(limits[i].Max - limits[i].Min)
		newPos := randSeed.Float64()*jRange + limits[i].Min
		jointPos = append(jointPos, newPos)
	}
	return jointPos
}
