// Package hdbscan implements HDBSCAN*, Hierarchical Density-Based Spatial
// Clustering of Applications with Noise.
//
// HDBSCAN* turns DBSCAN into a hierarchical algorithm and then extracts a
// flat clustering based on cluster stability. It finds clusters of varying
// density and labels points that belong to none of them as noise.
//
// Basic usage:
//
//	cfg := hdbscan.DefaultConfig()
//	cfg.MinClusterSize = 10
//	result, err := hdbscan.Cluster(data, cfg)
//	// result.Labels[i] is the cluster ID for point i (-1 = noise)
//	// result.Probabilities[i] is how strongly point i belongs to its cluster
//	// result.OutlierScores[i] is how outlier-like point i is (0 = inlier, 1 = outlier)
//
// For precomputed distance matrices:
//
//	result, err := hdbscan.ClusterPrecomputed(distMatrix, n, cfg)
//
// # Pipeline
//
// Each stage is exported and can be run on its own:
//
//	core, _ := hdbscan.ComputeCoreDistances(index, minSamples, workers)
//	mr := hdbscan.NewMutualReachability(core, dist, alpha)
//	edges, _ := hdbscan.ExtendedMST(mr)
//	dendrogram, _ := hdbscan.BuildHierarchy(edges, n)
//	tree := hdbscan.CondenseTree(dendrogram, minClusterSize)
//	stability := hdbscan.ComputeStability(tree)
//
// [Run] accepts any [NeighborIndex] and [DistanceProvider], so callers can
// plug in their own spatial index or distance source.
//
// # Algorithm selection
//
// By default (Algorithm: "auto"), Cluster answers core-distance queries with
// a KD-tree for axis-decomposable metrics in up to 60 dimensions, a ball
// tree for other triangle-inequality metrics or higher dimensions, and by
// brute force otherwise (cosine distance, custom metrics). The spanning tree itself is always built by Prim's
// algorithm over distances computed on demand, so memory stays O(n).
//
//	cfg.Algorithm = hdbscan.AlgorithmBrute    // scan every point per query
//	cfg.Algorithm = hdbscan.AlgorithmKDTree   // KD-tree k-NN queries
//	cfg.Algorithm = hdbscan.AlgorithmBallTree // ball-tree k-NN queries
//
// # Errors
//
// Every returned error wraps one of [ErrInvalidParameter], [ErrEmptyInput],
// [ErrInvalidDistance] or [ErrInternalInvariant].
package hdbscan
