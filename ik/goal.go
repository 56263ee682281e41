package ik

import (
	"math"

	"go.viam.com/gdik/referenceframe"
	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

// avoidLimitsEpsilon keeps the avoid-joint-limits cost finite at the limits themselves.
const avoidLimitsEpsilon = 1e-4

// Names of the built-in goals.
const (
	CenterJointsGoal        = "center_joints"
	AvoidJointLimitsGoal    = "avoid_joint_limits"
	MinimalDisplacementGoal = "minimal_displacement"
	PoseCostGoal            = "pose_cost"
)

// State contains all the information a cost needs to score a candidate.
// Position is only filled in for costs evaluated against a single tip, such as a PoseCostFunc. Seed is the full seed
// joint vector of the search.
type State struct {
	Position      spatialmath.Pose
	Configuration []float64
	Seed          []float64
	Active        []float64
	LinkPoses     []spatialmath.Pose
	Model         *referenceframe.Model
}

// StateMetric are functions which, given a State, produce some score. Lower is better and zero means the goal is
// perfectly satisfied.
type StateMetric func(*State) float64

// CostFunc scores an active joint vector. Lower is better.
type CostFunc func(active []float64) float64

// PoseCostFunc scores the pose of a tip, in State.Position, against that tip's target pose.
type PoseCostFunc func(goal spatialmath.Pose, state *State) float64

// Goal is a weighted cost. Goals with a weight that is not positive are never evaluated.
type Goal struct {
	Name   string
	Weight float64
	Metric StateMetric
}

// NewCostGoal returns a goal scoring the active joint vector with fn.
func NewCostGoal(name string, weight float64, fn CostFunc) Goal {
	return Goal{Name: name, Weight: weight, Metric: func(s *State) float64 { return fn(s.Active) }}
}

// NewZeroMetric always returns zero.
func NewZeroMetric() StateMetric {
	return func(*State) float64 { return 0 }
}

type combinableStateMetric struct {
	metrics []StateMetric
}

func (m *combinableStateMetric) combinedDist(input *State) float64 {
	dist := 0.
	for _, metric := range m.metrics {
		dist += metric(input)
	}
	return dist
}

// CombineMetrics will take a variable number of Metrics and return a new Metric which will combine all given metrics
// into one, summing their distances.
func CombineMetrics(metrics ...StateMetric) StateMetric {
	cm := &combinableStateMetric{metrics: metrics}
	return cm.combinedDist
}

// sanitizeCost maps negative and NaN costs to +Inf so that no term can cancel another.
func sanitizeCost(c float64) float64 {
	if c < 0 || math.IsNaN(c) {
		return math.Inf(1)
	}
	return c
}

// weighted scales a goal's metric by its weight.
func (g Goal) weighted() StateMetric {
	return func(s *State) float64 {
		return g.Weight * sanitizeCost(g.Metric(s))
	}
}

// NewCenterJointsMetric scores the squared distance of each joint from the middle of its range, normalized by the half
// span. Unbounded joints contribute nothing.
func NewCenterJointsMetric(limits []referenceframe.Limit, factors []float64) StateMetric {
	return func(s *State) float64 {
		cost := 0.
		for i, l := range limits {
			if !l.Bounded() || factors[i] == 0 {
				continue
			}
			half := l.Span() / 2
			if half <= 0 {
				continue
			}
			cost += factors[i] * utils.Square((s.Active[i]-l.Center())/half)
		}
		return cost
	}
}

// NewAvoidJointLimitsMetric scores closeness to the joint limits. The cost is zero in the middle half of each range and
// grows as an inverse square towards either limit. Unbounded joints contribute nothing.
func NewAvoidJointLimitsMetric(limits []referenceframe.Limit, factors []float64) StateMetric {
	return func(s *State) float64 {
		cost := 0.
		for i, l := range limits {
			if !l.Bounded() || factors[i] == 0 {
				continue
			}
			half := l.Span() / 2
			if half <= 0 {
				continue
			}
			d := math.Abs(s.Active[i]-l.Center()) / half
			edge := math.Max(0, 2*d-1)
			if edge == 0 {
				continue
			}
			cost += factors[i] * utils.Square(edge/(1+avoidLimitsEpsilon-edge))
		}
		return cost
	}
}

// NewMinimalDisplacementMetric scores the weighted squared distance from the seed.
func NewMinimalDisplacementMetric(seed, factors []float64) StateMetric {
	return func(s *State) float64 {
		cost := 0.
		for i, f := range factors {
			cost += f * utils.Square(s.Active[i]-seed[i])
		}
		return cost
	}
}

// NewPoseCostMetric evaluates fn against the pose of the link at linkIndex.
func NewPoseCostMetric(fn PoseCostFunc, goal spatialmath.Pose, linkIndex int) StateMetric {
	return func(s *State) float64 {
		tip := *s
		tip.Position = s.LinkPoses[linkIndex]
		return fn(goal, &tip)
	}
}

// NewSquaredNormMetric returns a PoseCostFunc scoring the squared distance between the tip and its goal, with
// orientation scaled so that a radian weighs as much as orientationScale mm.
func NewSquaredNormMetric(orientationScale float64) PoseCostFunc {
	return func(goal spatialmath.Pose, state *State) float64 {
		dp, dr := spatialmath.PoseDelta(goal, state.Position)
		return dp.Norm2() + dr.Mul(orientationScale).Norm2()
	}
}

// buildGoals returns the goals with a positive weight. Built-in goals come first, then one pose cost per target, then
// the caller's goals.
func buildGoals(
	params Params,
	group *referenceframe.Group,
	activeSeed []float64,
	poseCost PoseCostFunc,
	targets []*FrameTest,
	extra []Goal,
) []Goal {
	factors := group.MinimalDisplacementFactors()
	limits := group.ActiveLimits
	var goals []Goal
	add := func(g Goal) {
		if g.Weight > 0 && g.Metric != nil {
			goals = append(goals, g)
		}
	}
	add(Goal{Name: CenterJointsGoal, Weight: params.CenterJointsWeight, Metric: NewCenterJointsMetric(limits, factors)})
	add(Goal{Name: AvoidJointLimitsGoal, Weight: params.AvoidJointLimitsWeight, Metric: NewAvoidJointLimitsMetric(limits, factors)})
	add(Goal{
		Name:   MinimalDisplacementGoal,
		Weight: params.MinimalDisplacementWeight,
		Metric: NewMinimalDisplacementMetric(activeSeed, factors),
	})
	if poseCost != nil {
		for _, ft := range targets {
			add(Goal{Name: PoseCostGoal, Weight: 1, Metric: NewPoseCostMetric(poseCost, ft.target.Pose, ft.linkIndex)})
		}
	}
	for _, g := range extra {
		add(g)
	}
	return goals
}

// combineGoals sums the weighted costs of every goal.
func combineGoals(goals []Goal) StateMetric {
	if len(goals) == 0 {
		return NewZeroMetric()
	}
	metrics := make([]StateMetric, 0, len(goals))
	for _, g := range goals {
		metrics = append(metrics, g.weighted())
	}
	return CombineMetrics(metrics...)
}
