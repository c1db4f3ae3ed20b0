package hdbscan

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ComputeCoreDistances returns, for every point of index, the distance to its
// minSamples-th nearest neighbor, counting the point itself as the first
// neighbor. minSamples must lie in [1, index.NumPoints()].
//
// With workers > 1 the independent queries are spread over that many
// goroutines; each writes only its own slot of the result.
func ComputeCoreDistances(index NeighborIndex, minSamples, workers int) ([]float64, error) {
	n := index.NumPoints()
	if minSamples < 1 || minSamples > n {
		return nil, fmt.Errorf("hdbscan: %w: MinSamples must be in [1, %d], got %d",
			ErrInvalidParameter, n, minSamples)
	}

	core := make([]float64, n)
	query := func(i int) error {
		dists, err := index.KNN(i, minSamples)
		if err != nil {
			return fmt.Errorf("hdbscan: neighbor query for point %d: %w", i, err)
		}
		if len(dists) < minSamples {
			return fmt.Errorf("hdbscan: %w: neighbor query for point %d returned %d distances, want %d",
				ErrInvalidParameter, i, len(dists), minSamples)
		}
		for _, d := range dists[:minSamples] {
			if !validDistance(d) {
				return fmt.Errorf("hdbscan: %w: neighbor distance %g for point %d", ErrInvalidDistance, d, i)
			}
		}
		core[i] = dists[minSamples-1]
		return nil
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := query(i); err != nil {
				return nil, err
			}
		}
		return core, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return query(i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return core, nil
}

// validDistance reports whether d is finite and non-negative.
func validDistance(d float64) bool {
	return d >= 0 && !math.IsInf(d, 1)
}
