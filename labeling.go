package hdbscan

import "math"

// GetLabelsAndProbabilities assigns cluster labels and membership probabilities
// to each data point given the selected clusters from the condensed tree.
//
// Parameters:
//   - tree: the condensed tree
//   - selectedClusters: set of selected cluster IDs
//   - n: number of data points
//   - allowSingleCluster: if true, a single root cluster is valid
//   - clusterSelectionEpsilon: epsilon threshold (0 means unused)
//
// Selected clusters receive labels 0, 1, ... in ascending cluster-id order.
// Returns labels (noise = -1) and probabilities in [0, 1].
func GetLabelsAndProbabilities(tree CondensedTree, selectedClusters map[int]bool,
	n int, allowSingleCluster bool, clusterSelectionEpsilon float64,
) ([]int, []float64) {
	labels := make([]int, n)
	probs := make([]float64, n)
	for i := range labels {
		labels[i] = -1
	}
	if len(tree) == 0 {
		return labels, probs
	}

	root := tree.Root()
	infos := tree.Clusters()

	clusterLabel := make(map[int]int, len(selectedClusters))
	for i, c := range sortedClusterIDs(selectedClusters) {
		clusterLabel[c] = i
	}

	owner := resolveOwners(tree, selectedClusters, n)

	// Largest λ among points that leave the root directly.
	rootMaxPointLambda := 0.0
	pointLambda := make([]float64, n)
	for _, e := range tree {
		if !e.isPoint() {
			continue
		}
		pointLambda[e.Child] = e.LambdaVal
		if e.Parent == root {
			rootMaxPointLambda = max(rootMaxPointLambda, e.LambdaVal)
		}
	}

	for p := 0; p < n; p++ {
		cluster := owner[p]
		label, ok := clusterLabel[cluster]
		if !ok {
			continue
		}

		if cluster == root {
			// The root only labels points when it is the single selected
			// cluster, and then only its densest points.
			if len(selectedClusters) != 1 || !allowSingleCluster {
				continue
			}
			threshold := rootMaxPointLambda
			if clusterSelectionEpsilon != 0 {
				threshold = 1.0 / clusterSelectionEpsilon
			}
			if pointLambda[p] < threshold {
				continue
			}
		}

		labels[p] = label
		probs[p] = membership(pointLambda[p], scaleLambda(infos[cluster-root]))
	}

	return labels, probs
}

// resolveOwners returns, for every point, the nearest selected cluster on
// its path to the root, or the root when no ancestor is selected. Every
// condensed-tree edge whose child is not selected is contracted; owner[s]
// remembers which cluster a union-find set stands for.
func resolveOwners(tree CondensedTree, selectedClusters map[int]bool, n int) []int {
	maxNode := n - 1
	for _, e := range tree {
		maxNode = max(maxNode, e.Parent, e.Child)
	}

	var ds DisjointSet = NewUnionFind(maxNode + 1)
	top := make([]int, maxNode+1)
	for i := range top {
		top[i] = i
	}

	for _, e := range tree {
		if selectedClusters[e.Child] {
			continue
		}
		ancestor := top[ds.Find(e.Parent)]
		top[ds.Union(e.Parent, e.Child)] = ancestor
	}

	owner := make([]int, n)
	for p := range owner {
		owner[p] = top[ds.Find(p)]
	}
	return owner
}

// scaleLambda returns the λ used to normalise membership within a cluster:
// its death, or the largest finite λ observed in it when points coincide.
func scaleLambda(c ClusterInfo) float64 {
	if math.IsInf(c.Death, 1) {
		return c.finiteDeath
	}
	return c.Death
}

// membership returns λ_p / λ_max clamped to [0, 1]. Points leaving at
// λ = +Inf, or clusters that never grow denser than λ = 0, count as full
// members.
func membership(lambda, maxLambda float64) float64 {
	if maxLambda == 0 || math.IsInf(lambda, 1) {
		return 1.0
	}
	return math.Min(lambda, maxLambda) / maxLambda
}
