package ik

import (
	"go.viam.com/gdik/spatialmath"
)

// SolutionTest is the acceptance predicate of a search: every frame test passes and the weighted goal cost is at most
// the cost threshold. Neither condition alone is enough.
type SolutionTest struct {
	frames        frameTests
	goals         []Goal
	cost          StateMetric
	costThreshold float64
}

// NewSolutionTest combines frame tests and goals. Goals whose weight is not positive are dropped.
func NewSolutionTest(frames []*FrameTest, goals []Goal, costThreshold float64) *SolutionTest {
	kept := make([]Goal, 0, len(goals))
	for _, g := range goals {
		if g.Weight > 0 && g.Metric != nil {
			kept = append(kept, g)
		}
	}
	return &SolutionTest{
		frames:        frames,
		goals:         kept,
		cost:          combineGoals(kept),
		costThreshold: costThreshold,
	}
}

// Goals returns the goals that contribute to the cost.
func (st *SolutionTest) Goals() []Goal {
	return st.goals
}

// Cost returns the weighted sum of every goal's cost.
func (st *SolutionTest) Cost(s *State) float64 {
	return st.cost(s)
}

// FramesPass reports whether every frame test passes for the state's link poses.
func (st *SolutionTest) FramesPass(s *State) bool {
	return st.frames.pass(s.LinkPoses)
}

// Accept reports whether the state is a solution.
func (st *SolutionTest) Accept(s *State) bool {
	return st.FramesPass(s) && st.Cost(s) <= st.costThreshold
}

// accepts is Accept with the cost already computed.
func (st *SolutionTest) accepts(poses []spatialmath.Pose, cost float64) bool {
	return cost <= st.costThreshold && st.frames.pass(poses)
}
