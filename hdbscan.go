package hdbscan

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SelectionMethod chooses how flat clusters are extracted from the condensed tree.
type SelectionMethod string

const (
	// SelectionEOM (Excess of Mass) maximizes total cluster stability.
	SelectionEOM SelectionMethod = "eom"
	// SelectionLeaf selects the leaves of the condensed tree, producing many
	// small homogeneous clusters.
	SelectionLeaf SelectionMethod = "leaf"
)

// Config controls HDBSCAN clustering behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MinClusterSize is the smallest group of points considered a cluster.
	// Smaller values find more clusters; larger values find fewer, denser ones.
	// Must be >= 1; a value of 1 condenses like 2, because a one-point
	// cluster cannot be told apart from a point leaving its parent.
	// Default: 5.
	MinClusterSize int `yaml:"min_cluster_size"`

	// MinSamples is k for the core distance: the distance to a point's k-th
	// nearest neighbor, the point itself included. Higher values label more
	// points as noise. 0 defaults to MinClusterSize, capped at the number of
	// points. An explicit value must lie in [1, N].
	MinSamples int `yaml:"min_samples"`

	// Alpha scales raw distances before computing mutual reachability:
	// mreach(i, j) = max(core[i], core[j], Alpha*d(i, j)).
	// Must be > 0. Default: 1.0.
	Alpha float64 `yaml:"alpha"`

	// ClusterSelectionMethod chooses how flat clusters are extracted from the
	// condensed tree. Default: SelectionEOM.
	ClusterSelectionMethod SelectionMethod `yaml:"cluster_selection_method"`

	// AllowSingleCluster permits the algorithm to return all points in one
	// cluster rather than splitting into subclusters. Default: false.
	AllowSingleCluster bool `yaml:"allow_single_cluster"`

	// ClusterSelectionEpsilon sets a minimum distance threshold below which
	// clusters will not be split further. Prevents over-segmentation in dense
	// regions. 0 means no threshold. Must be >= 0. Default: 0.0.
	ClusterSelectionEpsilon float64 `yaml:"cluster_selection_epsilon"`

	// ClusterSelectionEpsilonMax is an upper bound on epsilon for EOM selection.
	// Clusters with epsilon above this threshold are split into subclusters.
	// Default: +Inf (no upper bound).
	ClusterSelectionEpsilonMax float64 `yaml:"cluster_selection_epsilon_max"`

	// ClusterSelectionPersistence removes clusters whose persistence (lifespan
	// in the condensed tree) is below this threshold, simplifying the hierarchy.
	// 0 means no simplification. Must be >= 0. Default: 0.0.
	ClusterSelectionPersistence float64 `yaml:"cluster_selection_persistence"`

	// MaxClusterSize forces subclusters to be selected over a parent cluster
	// when the parent exceeds this size. 0 means unlimited. Default: 0.
	MaxClusterSize int `yaml:"max_cluster_size"`

	// Metric is the distance function Cluster uses for raw vectors. It is
	// ignored by Run and ClusterPrecomputed. Default: EuclideanMetric.
	Metric DistanceMetric `yaml:"-"`

	// Algorithm selects the neighbor index Cluster builds for raw vectors.
	// "auto" uses the KD-tree for axis-decomposable metrics in up to 60
	// dimensions and brute force otherwise. Default: "auto".
	Algorithm Algorithm `yaml:"algorithm"`

	// LeafSize controls the maximum number of points in a KD-tree leaf node.
	// Default: 40.
	LeafSize int `yaml:"leaf_size"`

	// Workers is the number of goroutines issuing core-distance queries.
	// Everything else runs on the calling goroutine. Default: 1.
	Workers int `yaml:"workers"`

	// Logger receives debug-level progress for each pipeline stage.
	// Default: slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// Result contains the output of HDBSCAN clustering.
type Result struct {
	// Labels assigns each point to a cluster (0-indexed cluster ID) or -1 for
	// noise (points not assigned to any cluster).
	Labels []int

	// Probabilities indicates how strongly each point belongs to its assigned
	// cluster, in [0, 1]. Noise points have probability 0.
	Probabilities []float64

	// Stabilities maps condensed-tree cluster IDs to their stability values.
	// Higher stability means the cluster persists across a wider range of
	// density thresholds.
	Stabilities map[int]float64

	// OutlierScores is the GLOSH (Global-Local Outlier Score from Hierarchies)
	// score for each point, in [0, 1]. Values near 0 indicate inliers; values
	// near 1 indicate strong outliers.
	OutlierScores []float64

	// SelectedClusters lists the condensed-tree ids of the selected clusters
	// in ascending order; label i belongs to SelectedClusters[i].
	SelectedClusters []int

	// CoreDistances holds each point's distance to its MinSamples-th nearest
	// neighbor.
	CoreDistances []float64

	// CondensedTree is the condensed cluster hierarchy. Useful for
	// visualization or custom post-processing.
	CondensedTree CondensedTree

	// SingleLinkageTree is the full single-linkage dendrogram in scipy format:
	// each row is [left, right, distance, size]. Internal cluster IDs start at n.
	SingleLinkageTree [][4]float64
}

// NumClusters returns the number of distinct non-noise labels.
func (r *Result) NumClusters() int {
	k := 0
	for _, l := range r.Labels {
		k = max(k, l+1)
	}
	return k
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MinClusterSize:             5,
		Metric:                     EuclideanMetric{},
		ClusterSelectionMethod:     SelectionEOM,
		Alpha:                      1.0,
		ClusterSelectionEpsilonMax: math.Inf(1),
		Algorithm:                  AlgorithmAuto,
		LeafSize:                   40,
		Workers:                    1,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.MinClusterSize < 1 {
		return fmt.Errorf("hdbscan: %w: MinClusterSize must be >= 1, got %d", ErrInvalidParameter, cfg.MinClusterSize)
	}
	if cfg.MinSamples < 0 {
		return fmt.Errorf("hdbscan: %w: MinSamples must be >= 0 (0 means default to MinClusterSize), got %d",
			ErrInvalidParameter, cfg.MinSamples)
	}
	if !(cfg.Alpha > 0) || math.IsInf(cfg.Alpha, 1) {
		return fmt.Errorf("hdbscan: %w: Alpha must be finite and > 0, got %f", ErrInvalidParameter, cfg.Alpha)
	}
	if cfg.ClusterSelectionMethod != SelectionEOM && cfg.ClusterSelectionMethod != SelectionLeaf {
		return fmt.Errorf("hdbscan: %w: ClusterSelectionMethod must be \"eom\" or \"leaf\", got %q",
			ErrInvalidParameter, cfg.ClusterSelectionMethod)
	}
	if !(cfg.ClusterSelectionEpsilon >= 0) {
		return fmt.Errorf("hdbscan: %w: ClusterSelectionEpsilon must be >= 0, got %f",
			ErrInvalidParameter, cfg.ClusterSelectionEpsilon)
	}
	if !(cfg.ClusterSelectionEpsilonMax > 0) {
		return fmt.Errorf("hdbscan: %w: ClusterSelectionEpsilonMax must be > 0, got %f",
			ErrInvalidParameter, cfg.ClusterSelectionEpsilonMax)
	}
	if !(cfg.ClusterSelectionPersistence >= 0) {
		return fmt.Errorf("hdbscan: %w: ClusterSelectionPersistence must be >= 0, got %f",
			ErrInvalidParameter, cfg.ClusterSelectionPersistence)
	}
	if cfg.MaxClusterSize < 0 {
		return fmt.Errorf("hdbscan: %w: MaxClusterSize must be >= 0, got %d", ErrInvalidParameter, cfg.MaxClusterSize)
	}
	switch cfg.Algorithm {
	case AlgorithmAuto, AlgorithmBrute, AlgorithmKDTree, AlgorithmBallTree:
	default:
		return fmt.Errorf("hdbscan: %w: invalid Algorithm %q", ErrInvalidParameter, cfg.Algorithm)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && !(m.P >= 1) {
		return fmt.Errorf("hdbscan: %w: MinkowskiMetric.P must be >= 1, got %g", ErrInvalidParameter, m.P)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("hdbscan: %w: LeafSize must be >= 1, got %d", ErrInvalidParameter, cfg.LeafSize)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("hdbscan: %w: Workers must be >= 1, got %d", ErrInvalidParameter, cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
// MinSamples is resolved later, once the number of points is known.
func applyDefaults(cfg *Config) {
	if cfg.ClusterSelectionMethod == "" {
		cfg.ClusterSelectionMethod = SelectionEOM
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.ClusterSelectionEpsilonMax == 0 {
		cfg.ClusterSelectionEpsilonMax = math.Inf(1)
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmAuto
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

// Cluster performs HDBSCAN clustering on the given data.
// Each element is a point (float64 slice); all points must have the same
// dimensionality.
func Cluster(data [][]float64, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("hdbscan: %w: need at least 2 points, got %d", ErrEmptyInput, len(data))
	}

	flat, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	index, provider, err := vectorCollaborators(flat, len(data), dims, cfg)
	if err != nil {
		return nil, err
	}
	return run(index, provider, cfg)
}

// ClusterPrecomputed performs HDBSCAN on a precomputed distance matrix.
// distMatrix is a flat []float64 of length n*n in row-major order, where
// distMatrix[i*n+j] is the distance between points i and j. Only the upper
// triangle is read, so the matrix is assumed symmetric. The Config.Metric
// field is ignored since distances are already computed.
func ClusterPrecomputed(distMatrix []float64, n int, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("hdbscan: %w: need at least 2 points, got %d", ErrEmptyInput, n)
	}

	provider, err := newMatrixProviderFlat(distMatrix, n)
	if err != nil {
		return nil, err
	}
	return run(provider, provider, cfg)
}

// Run performs HDBSCAN over caller-supplied collaborators: index answers the
// core-distance k-NN queries and dist supplies raw pairwise distances. Both
// must cover the same points. Config.Metric and Config.Algorithm are unused.
//
// Either every output is produced or an error wrapping one of the package's
// sentinel errors is returned.
func Run(index NeighborIndex, dist DistanceProvider, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return run(index, dist, cfg)
}

func run(index NeighborIndex, dist DistanceProvider, cfg Config) (*Result, error) {
	log := cfg.Logger
	n := index.NumPoints()
	if n < 2 {
		return nil, fmt.Errorf("hdbscan: %w: need at least 2 points, got %d", ErrEmptyInput, n)
	}
	if dist.NumPoints() != n {
		return nil, fmt.Errorf("hdbscan: %w: neighbor index has %d points, distance provider has %d",
			ErrInvalidParameter, n, dist.NumPoints())
	}

	minSamples := cfg.MinSamples
	if minSamples == 0 {
		minSamples = min(cfg.MinClusterSize, n)
	}

	coreDistances, err := ComputeCoreDistances(index, minSamples, cfg.Workers)
	if err != nil {
		return nil, err
	}
	log.Debug("hdbscan: core distances computed", "points", n, "min_samples", minSamples, "workers", cfg.Workers)

	mr := NewMutualReachability(coreDistances, dist, cfg.Alpha)
	edges, err := ExtendedMST(mr)
	if err != nil {
		return nil, err
	}

	dendrogram, err := BuildHierarchy(edges, n)
	if err != nil {
		return nil, err
	}
	log.Debug("hdbscan: hierarchy built", "edges", len(edges), "mst_weight", mstWeight(dendrogram))

	result := clusterFromDendrogram(dendrogram, n, cfg)
	result.CoreDistances = coreDistances
	log.Debug("hdbscan: clusters selected",
		"condensed_entries", len(result.CondensedTree),
		"clusters", result.NumClusters())
	return result, nil
}

// clusterFromDendrogram runs the pipeline from the dendrogram onward
// (CondenseTree → stability → selection → labels/probabilities → outlier scores).
func clusterFromDendrogram(dendrogram Dendrogram, n int, cfg Config) *Result {
	condensedTree := CondenseTree(dendrogram, max(cfg.MinClusterSize, 2))
	if cfg.ClusterSelectionPersistence > 0 {
		condensedTree = SimplifyHierarchy(condensedTree, cfg.ClusterSelectionPersistence)
	}
	stability := ComputeStability(condensedTree)

	var selectedClusters map[int]bool
	var updatedStability map[int]float64
	switch cfg.ClusterSelectionMethod {
	case SelectionLeaf:
		selectedClusters = SelectClustersLeaf(condensedTree, cfg.ClusterSelectionEpsilon, cfg.AllowSingleCluster)
		updatedStability = stability
	default:
		selectedClusters, updatedStability = SelectClustersEOM(
			condensedTree, stability,
			cfg.AllowSingleCluster, cfg.MaxClusterSize, cfg.ClusterSelectionEpsilonMax,
		)
		if cfg.ClusterSelectionEpsilon > 0 {
			selectedClusters = EpsilonSearch(condensedTree, selectedClusters,
				cfg.ClusterSelectionEpsilon, cfg.AllowSingleCluster)
		}
	}

	labels, probabilities := GetLabelsAndProbabilities(
		condensedTree, selectedClusters, n,
		cfg.AllowSingleCluster, cfg.ClusterSelectionEpsilon,
	)

	return &Result{
		Labels:            labels,
		Probabilities:     probabilities,
		Stabilities:       updatedStability,
		SelectedClusters:  sortedClusterIDs(selectedClusters),
		OutlierScores:     OutlierScores(condensedTree, n),
		CondensedTree:     condensedTree,
		SingleLinkageTree: dendrogram.Linkage(),
	}
}

// mstWeight returns the total weight of the spanning tree behind d.
func mstWeight(d Dendrogram) float64 {
	weights := make([]float64, len(d))
	for i, m := range d {
		weights[i] = m.Distance
	}
	return floats.Sum(weights)
}
