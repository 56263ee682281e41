package ik

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/gdik/referenceframe"
	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

const (
	// finite difference step for the jacobian and the goal gradient.
	defaultJump = 1e-7

	initialDamping  = 1e-3
	minDamping      = 1e-12
	maxDamping      = 1e10
	dampingIncrease = 4.
	dampingDecrease = 3.

	// a descent whose steps or improvements fall below these has converged without finding a solution.
	minStepSize       = 1e-10
	minRelImprovement = 1e-12
	// descents are restarted after this many iterations regardless of progress.
	maxDescentIterations = 500

	// largest step of a joint per iteration, as a fraction of its range.
	maxStepFraction = 0.25
	// largest step of an unbounded joint per iteration.
	maxUnboundedStep = math.Pi / 2
)

// evaluation is a candidate together with everything computed from it.
type evaluation struct {
	active   []float64
	full     []float64
	poses    []spatialmath.Pose
	residual []float64
	cost     float64
	merit    float64

	// computed on first use; a rejected step reuses them with more damping.
	jac  *mat.Dense
	grad []float64
}

func (e *evaluation) state(model *referenceframe.Model, seed []float64) *State {
	return &State{Configuration: e.full, Seed: seed, Active: e.active, LinkPoses: e.poses, Model: model}
}

// descent holds everything a single search call needs to evaluate and improve candidates. It is owned by one call.
type descent struct {
	model *referenceframe.Model
	group *referenceframe.Group
	test  *SolutionTest
	seed  []float64

	// bounds of each active variable: the joint limits intersected with the consistency window.
	lower   []float64
	upper   []float64
	maxStep []float64
}

func newDescent(
	model *referenceframe.Model,
	group *referenceframe.Group,
	test *SolutionTest,
	seed []float64,
	window []float64,
) *descent {
	d := &descent{model: model, group: group, test: test, seed: append([]float64(nil), seed...)}
	activeSeed := group.Select(seed)
	for i, l := range group.ActiveLimits {
		lo, hi := l.Min, l.Max
		if window != nil {
			lo = math.Max(lo, activeSeed[i]-window[i])
			hi = math.Min(hi, activeSeed[i]+window[i])
		}
		if lo > hi {
			// the seed is outside its limits by more than the window allows
			lo = l.Clamp(activeSeed[i])
			hi = lo
		}
		d.lower = append(d.lower, lo)
		d.upper = append(d.upper, hi)

		step := maxUnboundedStep
		if l.Bounded() {
			step = maxStepFraction * l.Span()
		}
		d.maxStep = append(d.maxStep, step)
	}
	return d
}

// clamp limits every active variable to its bounds in place.
func (d *descent) clamp(active []float64) {
	for i := range active {
		active[i] = utils.Clamp(active[i], d.lower[i], d.upper[i])
	}
}

// start returns the seed's active variables clamped to the bounds.
func (d *descent) start() []float64 {
	active := d.group.Select(d.seed)
	d.clamp(active)
	return active
}

// random returns a random candidate inside the bounds. Unbounded variables are drawn within half a turn of the seed.
func (d *descent) random(rnd *rand.Rand) []float64 {
	activeSeed := d.group.Select(d.seed)
	limits := make([]referenceframe.Limit, len(d.lower))
	for i := range limits {
		lo, hi := d.lower[i], d.upper[i]
		if math.IsInf(lo, -1) {
			lo = activeSeed[i] - math.Pi
		}
		if math.IsInf(hi, 1) {
			hi = activeSeed[i] + math.Pi
		}
		limits[i] = referenceframe.Limit{Min: lo, Max: hi}
	}
	return referenceframe.GenerateRandomJointPositions(limits, rnd)
}

// evaluate computes forward kinematics, the scaled frame residual and the goal cost of an active candidate.
func (d *descent) evaluate(active []float64) (*evaluation, error) {
	e := &evaluation{
		active:   append([]float64(nil), active...),
		full:     d.group.Expand(active, d.seed),
		residual: make([]float64, len(d.test.frames)*residualsPerFrame),
	}
	poses, err := d.model.LinkPoses(e.full)
	if err != nil {
		return nil, err
	}
	e.poses = poses
	d.test.frames.residual(poses, e.residual)
	e.cost = d.test.Cost(e.state(d.model, d.seed))
	e.merit = 0.5*floats.Dot(e.residual, e.residual) + e.cost
	return e, nil
}

// differentiate estimates the jacobian of the residual and the gradient of the goal cost with forward differences.
// Variables at their upper bound are stepped downwards instead.
func (d *descent) differentiate(cur *evaluation) (*mat.Dense, []float64, error) {
	n := len(cur.active)
	jac := mat.NewDense(len(cur.residual), n, nil)
	grad := make([]float64, n)
	col := make([]float64, len(cur.residual))
	probe := append([]float64(nil), cur.active...)

	for i := range probe {
		jump := defaultJump
		flip := false
		probe[i] += jump
		if probe[i] >= d.upper[i] && d.upper[i]-d.lower[i] >= jump {
			flip = true
			probe[i] -= 2 * jump
		}
		e, err := d.evaluate(probe)
		if err != nil {
			return nil, nil, err
		}
		for k := range col {
			col[k] = finiteOrZero((e.residual[k] - cur.residual[k]) / jump)
		}
		grad[i] = finiteOrZero((e.cost - cur.cost) / jump)
		if flip {
			floats.Scale(-1, col)
			grad[i] *= -1
		}
		jac.SetCol(i, col)
		probe[i] = cur.active[i]
	}
	return jac, grad, nil
}

// propose solves the damped normal equations (JᵀJ + λ(diag(JᵀJ) + I)) dx = -(Jᵀr + ∇cost) and returns the bounded,
// clamped candidate it leads to. Variables held at a bound by the descent direction are not moved. ok is false when no
// step could be computed.
func (d *descent) propose(cur *evaluation, jac *mat.Dense, grad []float64, lambda float64) (next []float64, ok bool) {
	n := len(cur.active)

	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())
	var jtr mat.VecDense
	jtr.MulVec(jac.T(), mat.NewVecDense(len(cur.residual), cur.residual))

	g := make([]float64, n)
	free := make([]bool, n)
	anyFree := false
	for i := range g {
		g[i] = jtr.AtVec(i) + grad[i]
		atLower := cur.active[i] <= d.lower[i] && g[i] > 0
		atUpper := cur.active[i] >= d.upper[i] && g[i] < 0
		free[i] = !atLower && !atUpper && d.maxStep[i] > 0
		anyFree = anyFree || free[i]
	}
	if !anyFree {
		return nil, false
	}

	a := mat.NewSymDense(n, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if !free[i] {
			a.SetSym(i, i, 1)
			continue
		}
		for j := i; j < n; j++ {
			if free[j] {
				a.SetSym(i, j, jtj.At(i, j))
			}
		}
		a.SetSym(i, i, jtj.At(i, i)+lambda*(jtj.At(i, i)+1))
		b.SetVec(i, -g[i])
	}

	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, false
	}
	var dx mat.VecDense
	if err := chol.SolveVecTo(&dx, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}

	scale := 1.
	for i := 0; i < n; i++ {
		step := math.Abs(dx.AtVec(i))
		if free[i] && step*scale > d.maxStep[i] {
			scale = d.maxStep[i] / step
		}
	}
	next = make([]float64, n)
	for i := range next {
		next[i] = cur.active[i]
		if free[i] {
			next[i] += scale * dx.AtVec(i)
		}
		if math.IsNaN(next[i]) || math.IsInf(next[i], 0) {
			return nil, false
		}
	}
	d.clamp(next)
	return next, true
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// stepSize is the largest change of any variable between two candidates.
func stepSize(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}
