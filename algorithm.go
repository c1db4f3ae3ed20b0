package hdbscan

import "fmt"

// Algorithm selects the nearest-neighbor collaborator Cluster builds for raw
// vectors.
type Algorithm string

const (
	AlgorithmAuto   Algorithm = "auto"
	AlgorithmBrute  Algorithm = "brute"
	AlgorithmKDTree Algorithm = "kdtree"
	// AlgorithmBallTree indexes points with a BallTree.
	AlgorithmBallTree Algorithm = "balltree"
)

// kdTreeMaxDims is the dimensionality above which auto selection switches
// from the KD-tree to the ball tree.
const kdTreeMaxDims = 60

// KDTreeValidMetric reports whether the metric supports KD-tree acceleration.
// KD-trees require metrics that decompose along coordinate axes:
// Euclidean, Manhattan, Chebyshev, Minkowski.
func KDTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// BallTreeValidMetric reports whether the metric supports BallTree
// acceleration. Ball trees work with any metric that satisfies the triangle
// inequality; cosine distance does not.
func BallTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// selectAlgorithm resolves AlgorithmAuto into a concrete choice based on the
// metric and data dimensionality, and rejects a forced tree for metrics it
// cannot prune with.
func selectAlgorithm(cfg Config, dims int) (Algorithm, error) {
	switch cfg.Algorithm {
	case AlgorithmAuto:
		if !BallTreeValidMetric(cfg.Metric) {
			return AlgorithmBrute, nil
		}
		if KDTreeValidMetric(cfg.Metric) && dims <= kdTreeMaxDims {
			return AlgorithmKDTree, nil
		}
		return AlgorithmBallTree, nil
	case AlgorithmKDTree:
		if !KDTreeValidMetric(cfg.Metric) {
			return "", fmt.Errorf("hdbscan: %w: metric %T is not supported by the KD-tree",
				ErrInvalidParameter, cfg.Metric)
		}
	case AlgorithmBallTree:
		if !BallTreeValidMetric(cfg.Metric) {
			return "", fmt.Errorf("hdbscan: %w: metric %T is not supported by the ball tree",
				ErrInvalidParameter, cfg.Metric)
		}
	}
	return cfg.Algorithm, nil
}

// vectorCollaborators builds the neighbor index and distance provider for
// flat row-major vectors.
func vectorCollaborators(flat []float64, n, dims int, cfg Config) (NeighborIndex, DistanceProvider, error) {
	algo, err := selectAlgorithm(cfg, dims)
	if err != nil {
		return nil, nil, err
	}

	provider := newVectorProviderFlat(flat, n, dims, cfg.Metric)
	switch algo {
	case AlgorithmKDTree:
		return NewKDTree(flat, n, dims, cfg.Metric, cfg.LeafSize), provider, nil
	case AlgorithmBallTree:
		return NewBallTree(flat, n, dims, cfg.Metric, cfg.LeafSize), provider, nil
	}
	return provider, provider, nil
}
