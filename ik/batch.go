package ik

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SearchAll runs independent searches concurrently, at most parallelism at a time, and returns their results in
// request order. Values of parallelism below one use the number of CPUs. The first invalid request cancels the searches
// that have not started yet and its error is returned.
func (s *Solver) SearchAll(ctx context.Context, reqs []Request, parallelism int) ([]Result, error) {
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}
	results := make([]Result, len(reqs))
	errs, ctx := errgroup.WithContext(ctx)
	errs.SetLimit(parallelism)
	for i := range reqs {
		i := i
		errs.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.Search(reqs[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := errs.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
