// Package ik implements a gradient descent inverse kinematics solver. A Solver searches the joint space of a planning
// group for a configuration that places every tip link at its target pose, within tolerance, while keeping a weighted
// sum of secondary goals under a threshold.
package ik

import (
	"math"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/gdik/logging"
	"go.viam.com/gdik/referenceframe"
	"go.viam.com/gdik/spatialmath"
)

// Solver solves inverse kinematics for one planning group of a model. It is safe for concurrent use; every search
// owns its own state.
type Solver struct {
	model  *referenceframe.Model
	group  *referenceframe.Group
	params Params
	logger logging.Logger
	clock  clock.Clock
}

type solverOptions struct {
	clock    clock.Clock
	tipLinks []string
}

// SolverOption configures a Solver.
type SolverOption func(*solverOptions)

// WithClock sets the clock timeouts are measured against.
func WithClock(clk clock.Clock) SolverOption {
	return func(o *solverOptions) {
		o.clock = clk
	}
}

// WithTipLinks replaces the tip links of the group. Targets are then given for these links.
func WithTipLinks(tips ...string) SolverOption {
	return func(o *solverOptions) {
		o.tipLinks = tips
	}
}

// NewSolver creates a solver for the named planning group of model. It fails if the group is absent, has no active
// variables, or the params are invalid.
func NewSolver(
	model *referenceframe.Model,
	groupName string,
	params Params,
	logger logging.Logger,
	opts ...SolverOption,
) (*Solver, error) {
	if model == nil {
		return nil, newConfigurationError("no model given")
	}
	options := solverOptions{clock: clock.New()}
	for _, opt := range opts {
		opt(&options)
	}
	if err := params.Validate(groupName); err != nil {
		return nil, err
	}

	cfg, err := model.GroupConfig(groupName)
	if err != nil {
		return nil, asConfigurationError(err)
	}
	if options.tipLinks != nil {
		cfg.TipLinks = options.tipLinks
	}
	group, err := model.NewGroup(cfg)
	if err != nil {
		return nil, asConfigurationError(err)
	}

	logger.Debugf("ik solver for group %q of %q: joints %v, tips %v", groupName, model.Name(), group.JointNames, group.TipLinks)
	return &Solver{
		model:  model,
		group:  group,
		params: params,
		logger: logger,
		clock:  options.clock,
	}, nil
}

// Model returns the model the solver was created with.
func (s *Solver) Model() *referenceframe.Model {
	return s.model
}

// Params returns the solver's params.
func (s *Solver) Params() Params {
	return s.params
}

// JointNames returns the joints of the group that carry a variable, in group order. Fixed, unknown and base frame
// joints are excluded.
func (s *Solver) JointNames() []string {
	return append([]string(nil), s.group.JointNames...)
}

// LinkNames returns the tip links of the group, in the order targets are given.
func (s *Solver) LinkNames() []string {
	return append([]string(nil), s.group.TipLinks...)
}

// PositionFK returns the pose of each named link for the full joint vector. No names means the tip links.
func (s *Solver) PositionFK(linkNames []string, full []float64) ([]spatialmath.Pose, error) {
	if len(linkNames) == 0 {
		linkNames = s.group.TipLinks
	}
	poses, err := s.model.LinkPoses(full)
	if err != nil {
		return nil, err
	}
	out := make([]spatialmath.Pose, 0, len(linkNames))
	for _, name := range linkNames {
		idx, err := s.model.LinkIndex(name)
		if err != nil {
			return nil, err
		}
		out = append(out, poses[idx])
	}
	return out, nil
}

// PositionIK solves for a single tip pose with the default timeout and returns the full joint vector.
func (s *Solver) PositionIK(pose spatialmath.Pose, seed []float64) ([]float64, error) {
	res, err := s.Search(Request{Targets: []spatialmath.Pose{pose}, Seed: seed})
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, errors.Wrapf(err, "after %d iterations and %d restarts", res.Iterations, res.Restarts)
	}
	return res.Solution, nil
}

// prepare validates a request and builds the frame tests, goals and bounds of its search.
func (s *Solver) prepare(req Request) (*descent, error) {
	if len(req.Seed) != s.model.DoF() {
		return nil, newSeedLengthError(len(req.Seed), s.model.DoF())
	}
	for i, v := range req.Seed {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, newConfigurationError("seed value %d of joint %q is not finite", i, s.model.VariableNames()[i])
		}
	}
	if len(req.Targets) == 0 {
		return nil, asConfigurationError(errNoTargets)
	}
	if len(req.Targets) != len(s.group.TipLinks) {
		return nil, newTargetCountError(len(req.Targets), len(s.group.TipLinks))
	}

	tol := s.params.Tolerance()
	tests := make([]*FrameTest, 0, len(req.Targets))
	for i, pose := range req.Targets {
		if pose == nil {
			return nil, newConfigurationError("target pose for %q is nil", s.group.TipLinks[i])
		}
		target := FrameTarget{Link: s.group.TipLinks[i], Pose: pose, Tolerance: tol}
		tests = append(tests, NewFrameTest(target, s.group.TipLinkIndexes[i]))
	}

	window, err := s.consistencyWindow(req.ConsistencyLimits)
	if err != nil {
		return nil, err
	}

	activeSeed := s.group.Select(req.Seed)
	goals := buildGoals(s.params, s.group, activeSeed, req.PoseCost, tests, req.Goals)
	test := NewSolutionTest(tests, goals, s.params.CostThreshold)
	return newDescent(s.model, s.group, test, req.Seed, window), nil
}

// consistencyWindow maps consistency limits, given per group joint, onto the active variables.
func (s *Solver) consistencyWindow(limits []float64) ([]float64, error) {
	if len(limits) == 0 {
		return nil, nil
	}
	if len(limits) != len(s.group.JointNames) {
		return nil, newConsistencyLimitsError(len(limits), len(s.group.JointNames))
	}
	byIndex := make(map[int]float64, len(limits))
	for i, name := range s.group.JointNames {
		if math.IsNaN(limits[i]) || limits[i] < 0 {
			return nil, newConfigurationError("consistency limit of joint %q must be non-negative, got %v", name, limits[i])
		}
		j, err := s.model.Joint(name)
		if err != nil {
			return nil, asConfigurationError(err)
		}
		byIndex[j.VariableIndex] = limits[i]
	}
	window := make([]float64, len(s.group.ActiveIndexes))
	for i, idx := range s.group.ActiveIndexes {
		window[i] = byIndex[idx]
	}
	return window, nil
}
