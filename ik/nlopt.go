//go:build nlopt

package ik

import (
	"math/rand"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

const nloptStepsPerIter = 4001

// SearchNlopt runs the same search as Search with nlopt's SLSQP as the local optimizer in place of the damped least
// squares descent. Each optimization minimizes the same merit and is bounded by the joint limits and the consistency
// window; failed optimizations restart from a random configuration.
func (s *Solver) SearchNlopt(req Request) (Result, error) {
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

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(len(d.lower)))
	if err != nil {
		return Result{}, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	res := Result{}
	var found *evaluation
	var evalErr error

	// x is our set of inputs
	// Gradient is, under the hood, a unsafe C structure that we are meant to mutate in place.
	nloptMinFunc := func(x, gradient []float64) float64 {
		res.Iterations++
		e, err := d.evaluate(x)
		if err != nil {
			evalErr = err
			s.logger.Errorw("forcestop error", "error", opt.ForceStop())
			return 0
		}
		if d.test.accepts(e.poses, e.cost) {
			found = e
			if err := opt.ForceStop(); err != nil {
				s.logger.Debugw("forcestop error", "error", err)
			}
			return e.merit
		}
		if len(gradient) > 0 {
			jac, grad, err := d.differentiate(e)
			if err != nil {
				evalErr = err
				s.logger.Errorw("forcestop error", "error", opt.ForceStop())
				return 0
			}
			var jtr mat.VecDense
			jtr.MulVec(jac.T(), mat.NewVecDense(len(e.residual), e.residual))
			for i := range gradient {
				gradient[i] = jtr.AtVec(i) + grad[i]
			}
		}
		return e.merit
	}

	err = multierr.Combine(
		opt.SetLowerBounds(d.lower),
		opt.SetUpperBounds(d.upper),
		opt.SetFtolRel(minRelImprovement),
		opt.SetXtolAbs1(minStepSize),
		opt.SetMinObjective(nloptMinFunc),
		opt.SetMaxEval(nloptStepsPerIter),
	)
	if err != nil {
		return Result{}, errors.Wrap(err, "nlopt setup error")
	}

	finish := func(status Status, solution []float64) (Result, error) {
		res.Status = status
		res.Solution = solution
		res.Elapsed = s.clock.Since(start)
		s.logger.Debugw("nlopt ik search finished", "status", res.Status, "iterations", res.Iterations, "restarts", res.Restarts)
		return res, nil
	}

	startingPos := d.start()
	for {
		remaining := timeout - s.clock.Since(start)
		if remaining <= 0 {
			return finish(TimedOut, nil)
		}
		if err := opt.SetMaxTime(remaining.Seconds()); err != nil {
			return Result{}, errors.Wrap(err, "nlopt setup error")
		}

		found = nil
		solutionRaw, _, nloptErr := opt.Optimize(startingPos)
		if evalErr != nil {
			return Result{}, evalErr
		}
		if nloptErr != nil {
			// This just *happens* sometimes due to weirdnesses in nonlinear randomized problems.
			// Ignore it, a restart will try again
			s.logger.Debugw("nlopt optimization error", "error", nloptErr)
		}
		candidate := found
		if candidate == nil && solutionRaw != nil {
			if candidate, err = d.evaluate(solutionRaw); err != nil {
				return Result{}, err
			}
		}
		if candidate != nil {
			if req.Observer != nil {
				req.Observer(Progress{
					Iteration: res.Iterations,
					Restarts:  res.Restarts,
					Active:    candidate.active,
					Merit:     candidate.merit,
					GoalCost:  candidate.cost,
					Elapsed:   s.clock.Since(start),
				})
			}
			if d.test.accepts(candidate.poses, candidate.cost) {
				if req.SolutionCallback == nil {
					return finish(Succeeded, candidate.full)
				}
				cbErr := req.SolutionCallback(append([]float64(nil), candidate.full...))
				if cbErr == nil {
					return finish(Succeeded, candidate.full)
				}
				s.logger.Debugw("solution rejected by callback", "error", cbErr)
			}
		}

		if s.clock.Since(start) >= timeout {
			return finish(TimedOut, nil)
		}
		if s.params.MaxRestarts >= 0 && res.Restarts >= s.params.MaxRestarts {
			return finish(Exhausted, nil)
		}
		res.Restarts++
		startingPos = d.random(rnd)
	}
}
