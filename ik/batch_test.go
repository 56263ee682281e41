package ik

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/gdik/spatialmath"
)

func TestSearchAll(t *testing.T) {
	s := makeTwoLinkSolver(t, DefaultParams())
	configs := [][]float64{{0.1, 0.2}, {-0.5, 1}, {1.2, -0.3}, {0.4, 0.4}, {-1, -1}}

	reqs := make([]Request, 0, len(configs))
	for _, cfg := range configs {
		reqs = append(reqs, Request{Targets: fk(t, s, cfg), Seed: cfg, Timeout: 5 * time.Second})
	}
	results, err := s.SearchAll(context.Background(), reqs, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, len(configs))
	for i, res := range results {
		// every seed is already a solution, so results line up with their requests
		test.That(t, res.Status, test.ShouldEqual, Succeeded)
		test.That(t, res.Solution, test.ShouldResemble, configs[i])
	}

	results, err = s.SearchAll(context.Background(), reqs[:1], 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 1)
}

func TestSearchAllInvalidRequest(t *testing.T) {
	s := makeTwoLinkSolver(t, DefaultParams())
	good := Request{Targets: fk(t, s, []float64{0, 0}), Seed: []float64{0, 0}}
	bad := Request{Targets: []spatialmath.Pose{spatialmath.NewZeroPose()}, Seed: []float64{0}}

	results, err := s.SearchAll(context.Background(), []Request{good, bad, good}, 1)
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	test.That(t, results, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SearchAll(ctx, []Request{good}, 1)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
