//go:build !nlopt

package ik

import "github.com/pkg/errors"

// SearchNlopt is not supported on builds without the nlopt tag.
func (s *Solver) SearchNlopt(req Request) (Result, error) {
	return Result{}, errors.New("nlopt is not supported on this build, build with -tags nlopt")
}
