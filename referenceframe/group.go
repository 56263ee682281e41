package referenceframe

import (
	"math"
)

// Group is a planning group resolved against a model: the joints an inverse kinematics search may move, the tip links
// it tracks, and the mapping between full and active joint vectors.
type Group struct {
	Name     string
	BaseLink string
	// JointNames are the group's joints that carry a variable, in group order. Fixed, unknown and base frame joints are
	// excluded.
	JointNames []string
	TipLinks   []string
	// TipLinkIndexes index into the model's Links and into the result of Model.LinkPoses.
	TipLinkIndexes []int
	// ActiveIndexes index into the full variable vector. Every entry is unique and in range.
	ActiveIndexes []int
	// ActiveLimits holds the limit of each active variable.
	ActiveLimits []Limit

	fullSize int
}

// Group resolves the named planning group. An absent group is an error; a Group is never returned partially built.
func (m *Model) Group(name string) (*Group, error) {
	cfg, ok := m.groups[name]
	if !ok {
		return nil, NewGroupNotFoundError(name, m.groupOrder)
	}
	return m.NewGroup(cfg)
}

// GroupConfig returns the description of the named planning group.
func (m *Model) GroupConfig(name string) (GroupConfig, error) {
	cfg, ok := m.groups[name]
	if !ok {
		return GroupConfig{}, NewGroupNotFoundError(name, m.groupOrder)
	}
	return cfg, nil
}

// NewGroup resolves a group description that need not be registered with the model, e.g. a registered group with its
// tips overridden.
func (m *Model) NewGroup(cfg GroupConfig) (*Group, error) {
	if cfg.Name == "" {
		return nil, NewInvalidGroupError(cfg.Name, "group has no name")
	}
	if len(cfg.Joints) == 0 && len(cfg.TipLinks) == 0 {
		return nil, NewInvalidGroupError(cfg.Name, "group names neither joints nor tip links")
	}

	base := cfg.BaseLink
	if base == "" {
		base = m.Root()
	}
	baseIdx, err := m.LinkIndex(base)
	if err != nil {
		return nil, err
	}

	// collect the group's joints: every listed joint, then every joint on a base to tip chain
	var members []int
	inGroup := map[int]bool{}
	add := func(j int) {
		if !inGroup[j] {
			inGroup[j] = true
			members = append(members, j)
		}
	}
	for _, name := range cfg.Joints {
		idx, ok := m.jointIndex[name]
		if !ok {
			return nil, NewJointNotFoundError(name)
		}
		add(idx)
	}
	tipIdxs := make([]int, 0, len(cfg.TipLinks))
	for _, tip := range cfg.TipLinks {
		tipIdx, err := m.LinkIndex(tip)
		if err != nil {
			return nil, err
		}
		tipIdxs = append(tipIdxs, tipIdx)
		if cfg.BaseLink == "" && len(cfg.Joints) > 0 {
			// explicit joint lists only name tips, they do not pull in chains
			continue
		}
		chain, err := m.chain(baseIdx, tipIdx)
		if err != nil {
			return nil, NewInvalidGroupError(cfg.Name, err.Error())
		}
		for i := len(chain) - 1; i >= 0; i-- {
			add(chain[i])
		}
	}
	sortByModelOrder(members)

	// tips default to the child links of group joints that parent no other group joint
	if len(tipIdxs) == 0 {
		parents := map[string]bool{}
		for _, j := range members {
			parents[m.joints[j].Parent] = true
		}
		for _, j := range members {
			child := m.joints[j].Child
			if !parents[child] {
				tipIdxs = append(tipIdxs, m.linkIndex[child])
			}
		}
	}

	g := &Group{
		Name:     cfg.Name,
		BaseLink: base,
		fullSize: len(m.limits),
	}
	for _, t := range tipIdxs {
		g.TipLinks = append(g.TipLinks, m.links[t].Name)
		g.TipLinkIndexes = append(g.TipLinkIndexes, t)
	}

	// only joints that move at least one tip are optimized
	movesTip := map[int]bool{}
	for _, t := range tipIdxs {
		for _, j := range m.ancestorJoints(t) {
			movesTip[j] = true
		}
	}
	for _, j := range members {
		joint := m.joints[j]
		if !joint.Moving() || joint.Name == base || m.linkIndex[joint.Child] == baseIdx {
			continue
		}
		g.JointNames = append(g.JointNames, joint.Name)
		if movesTip[j] {
			g.ActiveIndexes = append(g.ActiveIndexes, joint.VariableIndex)
			g.ActiveLimits = append(g.ActiveLimits, joint.Limit)
		}
	}
	if len(g.ActiveIndexes) == 0 {
		return nil, NewInvalidGroupError(cfg.Name, "group has no active variables")
	}
	return g, nil
}

// chain returns the joints between base and tip, nearest the tip first. base must be an ancestor of tip.
func (m *Model) chain(base, tip int) ([]int, error) {
	var out []int
	for i := tip; i != base; i = m.linkParent[i] {
		if i <= 0 {
			return nil, NewNotAncestorError(m.links[base].Name, m.links[tip].Name)
		}
		out = append(out, m.linkJoint[i])
	}
	return out, nil
}

func sortByModelOrder(joints []int) {
	// insertion sort; groups are small
	for i := 1; i < len(joints); i++ {
		for k := i; k > 0 && joints[k] < joints[k-1]; k-- {
			joints[k], joints[k-1] = joints[k-1], joints[k]
		}
	}
}

// FullSize is the length of the model's full variable vector.
func (g *Group) FullSize() int {
	return g.fullSize
}

// Select extracts the active variables from a full joint vector.
func (g *Group) Select(full []float64) []float64 {
	active := make([]float64, len(g.ActiveIndexes))
	for i, idx := range g.ActiveIndexes {
		active[i] = full[idx]
	}
	return active
}

// Expand returns a copy of seed with the active variables replaced by active.
func (g *Group) Expand(active, seed []float64) []float64 {
	full := make([]float64, len(seed))
	copy(full, seed)
	g.ExpandInto(full, active)
	return full
}

// ExpandInto writes the active variables into full in place.
func (g *Group) ExpandInto(full, active []float64) {
	for i, idx := range g.ActiveIndexes {
		full[idx] = active[i]
	}
}

// MinimalDisplacementFactors returns one weight per active variable, larger for joints with narrower ranges:
// (1/span_i)^2 normalized to sum to one. Unbounded joints get zero. If no active joint is bounded the factors are
// uniform.
func (g *Group) MinimalDisplacementFactors() []float64 {
	factors := make([]float64, len(g.ActiveLimits))
	var sum float64
	for i, l := range g.ActiveLimits {
		span := l.Span()
		if !l.Bounded() || span <= 0 {
			continue
		}
		factors[i] = 1 / (span * span)
		sum += factors[i]
	}
	if sum == 0 || math.IsInf(sum, 0) {
		for i := range factors {
			factors[i] = 1 / float64(len(factors))
		}
		return factors
	}
	for i := range factors {
		factors[i] /= sum
	}
	return factors
}
