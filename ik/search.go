package ik

import (
	"math"
	"math/rand"
	"time"

	"go.viam.com/gdik/spatialmath"
)

// DefaultTimeout bounds a search whose request does not set a timeout.
const DefaultTimeout = time.Second

// Status is the terminal state of a search.
type Status int

// The terminal states of a search.
const (
	// Unknown is the status of the zero Result, returned alongside configuration errors.
	Unknown Status = iota
	Succeeded
	TimedOut
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "SUCCEEDED"
	case TimedOut:
		return "TIMED_OUT"
	case Exhausted:
		return "EXHAUSTED"
	}
	return "UNKNOWN"
}

// Request is a single inverse kinematics problem.
type Request struct {
	// Targets holds one pose per tip link of the solver, in the order of LinkNames.
	Targets []spatialmath.Pose
	// Seed is a full joint vector. Joints the search does not move keep their seed value.
	Seed []float64
	// Timeout is the wall-clock budget of the search. Zero means DefaultTimeout.
	Timeout time.Duration
	// ConsistencyLimits optionally bound how far each joint of JointNames may move from the seed.
	ConsistencyLimits []float64

	// PoseCost, if set, is added with weight 1 once per target.
	PoseCost PoseCostFunc
	// Goals are added to the goals configured by the solver's params.
	Goals []Goal

	Observer IterationObserver
	// SolutionCallback is offered every candidate that passes the solution test. Returning an error rejects the
	// candidate and the search restarts.
	SolutionCallback func(full []float64) error
}

// Result is the outcome of a search. Solution is only set when the search succeeded.
type Result struct {
	Status     Status
	Solution   []float64
	Iterations int
	Restarts   int
	Elapsed    time.Duration
}

// Err maps failed searches to ErrTimedOut or ErrExhausted. A Result that never ran, such as the one returned with a
// configuration error, maps to ErrInvalidConfiguration.
func (r Result) Err() error {
	switch r.Status {
	case Succeeded:
		return nil
	case TimedOut:
		return ErrTimedOut
	case Exhausted:
		return ErrExhausted
	case Unknown:
		return ErrInvalidConfiguration
	}
	return ErrInvalidConfiguration
}

// Search runs a single inverse kinematics search. Errors are only returned for invalid requests, in which case no
// iteration is run; failures to find a solution are reported through Result.Status.
func (s *Solver) Search(req Request) (Result, error) {
	start := s.clock.Now()
	d, err := s.prepare(req)
	if err != nil {
		return Result{}, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	//nolint:gosec
	rnd := rand.New(rand.NewSource(s.params.RandomSeed))

	res := Result{Status: Exhausted}
	finish := func(status Status, solution []float64) (Result, error) {
		res.Status = status
		res.Solution = solution
		res.Elapsed = s.clock.Since(start)
		s.logger.Debugw("ik search finished",
			"status", res.Status,
			"iterations", res.Iterations,
			"restarts", res.Restarts,
			"elapsed", res.Elapsed,
		)
		return res, nil
	}

	cur, err := d.evaluate(d.start())
	if err != nil {
		return Result{}, err
	}
	lambda := initialDamping
	descentIterations := 0
	degenerate := false

	for {
		if req.Observer != nil {
			req.Observer(Progress{
				Iteration: res.Iterations,
				Restarts:  res.Restarts,
				Active:    cur.active,
				Merit:     cur.merit,
				GoalCost:  cur.cost,
				Damping:   lambda,
				Elapsed:   s.clock.Since(start),
			})
		}

		if d.test.accepts(cur.poses, cur.cost) {
			if req.SolutionCallback == nil {
				return finish(Succeeded, cur.full)
			}
			cbErr := req.SolutionCallback(append([]float64(nil), cur.full...))
			if cbErr == nil {
				return finish(Succeeded, cur.full)
			}
			s.logger.Debugw("solution rejected by callback", "error", cbErr)
			degenerate = true
		}

		if s.clock.Since(start) >= timeout {
			return finish(TimedOut, nil)
		}

		if degenerate {
			if s.params.MaxRestarts >= 0 && res.Restarts >= s.params.MaxRestarts {
				return finish(Exhausted, nil)
			}
			res.Restarts++
			if cur, err = d.evaluate(d.random(rnd)); err != nil {
				return Result{}, err
			}
			lambda = initialDamping
			descentIterations = 0
			degenerate = false
			continue
		}

		res.Iterations++
		descentIterations++
		next, improved, err := d.iterate(cur, lambda)
		if err != nil {
			return Result{}, err
		}
		switch {
		case !improved:
			lambda *= dampingIncrease
			degenerate = lambda > maxDamping
		default:
			degenerate = stalled(cur, next)
			cur = next
			lambda = math.Max(lambda/dampingDecrease, minDamping)
		}
		if descentIterations >= maxDescentIterations {
			degenerate = true
		}
	}
}

// iterate takes one damped step from cur. improved is false if the step was rejected, in which case next is nil.
func (d *descent) iterate(cur *evaluation, lambda float64) (next *evaluation, improved bool, err error) {
	if cur.jac == nil {
		if cur.jac, cur.grad, err = d.differentiate(cur); err != nil {
			return nil, false, err
		}
	}
	candidate, ok := d.propose(cur, cur.jac, cur.grad, lambda)
	if !ok {
		return nil, false, nil
	}
	next, err = d.evaluate(candidate)
	if err != nil {
		return nil, false, err
	}
	// NaN is never an improvement
	if !(next.merit < cur.merit) {
		return nil, false, nil
	}
	return next, true, nil
}

// stalled reports whether an accepted step made too little progress for the descent to continue.
func stalled(cur, next *evaluation) bool {
	if math.IsInf(cur.merit, 1) {
		return false
	}
	return stepSize(cur.active, next.active) < minStepSize || cur.merit-next.merit <= minRelImprovement*cur.merit
}
