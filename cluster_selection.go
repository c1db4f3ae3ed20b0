package hdbscan

import "math"

// bfsDescendants returns all cluster descendants of a node (including itself).
func bfsDescendants(infos []ClusterInfo, root, bfsRoot int) []int {
	result := []int{bfsRoot}
	toProcess := []int{bfsRoot}

	for len(toProcess) > 0 {
		var next []int
		for _, node := range toProcess {
			for _, child := range infos[node-root].Children {
				result = append(result, child)
				next = append(next, child)
			}
		}
		toProcess = next
	}

	return result
}

// SelectClustersEOM performs Excess-of-Mass cluster selection.
// It walks the condensed tree bottom-up, selecting clusters that maximize total stability.
//
// Parameters:
//   - tree: the condensed tree
//   - stability: stability map from ComputeStability
//   - allowSingleCluster: if true, the root cluster is included as a candidate
//   - maxClusterSize: if > 0, clusters larger than this force children to win
//   - clusterSelectionEpsilonMax: if a cluster's epsilon (1/lambdaBirth) exceeds this, children win
//
// Returns selected cluster IDs and updated stability map.
func SelectClustersEOM(tree CondensedTree, stability map[int]float64,
	allowSingleCluster bool, maxClusterSize int, clusterSelectionEpsilonMax float64,
) (map[int]bool, map[int]float64) {
	stab := make(map[int]float64, len(stability))
	for k, v := range stability {
		stab[k] = v
	}
	if len(tree) == 0 {
		return map[int]bool{}, stab
	}

	root := tree.Root()
	infos := tree.Clusters()

	// Epsilon of a cluster is the distance at which it was born. The root is
	// born at the largest distance seen anywhere in the tree.
	epsilon := func(c int) float64 {
		if c != root {
			return 1.0 / infos[c-root].Birth
		}
		maxInvLambda := 0.0
		for _, e := range tree {
			if e.LambdaVal > 0 {
				maxInvLambda = max(maxInvLambda, 1.0/e.LambdaVal)
			}
		}
		return maxInvLambda
	}

	if maxClusterSize <= 0 {
		maxClusterSize = math.MaxInt
	}

	isCluster := make(map[int]bool, len(infos))
	for c := range stab {
		if allowSingleCluster || c != root {
			isCluster[c] = true
		}
	}

	// Children always carry larger ids than their parent, so walking ids in
	// descending order visits every child before its parent.
	for i := len(infos) - 1; i >= 0; i-- {
		node := infos[i]
		if !isCluster[node.ID] || len(node.Children) == 0 {
			continue
		}

		subtreeStability := 0.0
		for _, child := range node.Children {
			subtreeStability += stab[child]
		}

		childrenWin := subtreeStability > stab[node.ID] ||
			node.Size > maxClusterSize ||
			epsilon(node.ID) > clusterSelectionEpsilonMax

		if childrenWin {
			isCluster[node.ID] = false
			stab[node.ID] = subtreeStability
		} else {
			for _, d := range bfsDescendants(infos, root, node.ID) {
				if d != node.ID {
					isCluster[d] = false
				}
			}
		}
	}

	selected := make(map[int]bool)
	for k, v := range isCluster {
		if v {
			selected[k] = true
		}
	}

	return selected, stab
}

// SelectClustersLeaf selects all leaf clusters from the condensed tree.
// A tree without any split yields the root alone, which only labels points
// when single clusters are allowed.
// If clusterSelectionEpsilon > 0, applies epsilon search to merge small-epsilon leaves.
func SelectClustersLeaf(tree CondensedTree, clusterSelectionEpsilon float64, allowSingleCluster bool) map[int]bool {
	if len(tree) == 0 {
		return map[int]bool{}
	}

	root := tree.Root()
	infos := tree.Clusters()

	leaves := make(map[int]bool)
	for _, info := range infos {
		if info.Parent >= 0 && len(info.Children) == 0 {
			leaves[info.ID] = true
		}
	}

	if len(leaves) == 0 {
		return map[int]bool{root: true}
	}

	if clusterSelectionEpsilon > 0 {
		return EpsilonSearch(tree, leaves, clusterSelectionEpsilon, allowSingleCluster)
	}

	return leaves
}

// EpsilonSearch adjusts selected clusters based on epsilon threshold.
// For candidates with epsilon (1/lambdaBirth) below threshold, it traverses upward
// to find an ancestor whose epsilon meets the threshold.
func EpsilonSearch(tree CondensedTree, candidateClusters map[int]bool,
	clusterSelectionEpsilon float64, allowSingleCluster bool,
) map[int]bool {
	root := tree.Root()
	infos := tree.Clusters()

	processed := make(map[int]bool)
	result := make(map[int]bool)

	for _, leaf := range sortedClusterIDs(candidateClusters) {
		info := infos[leaf-root]
		if info.Parent < 0 {
			result[leaf] = true
			continue
		}

		if 1.0/info.Birth >= clusterSelectionEpsilon {
			result[leaf] = true
			continue
		}

		if processed[leaf] {
			continue
		}

		epsilonChild := traverseUpwards(infos, root, clusterSelectionEpsilon, leaf, allowSingleCluster)
		result[epsilonChild] = true

		for _, subNode := range bfsDescendants(infos, root, epsilonChild) {
			if subNode != epsilonChild {
				processed[subNode] = true
			}
		}
	}

	return result
}

// traverseUpwards walks from a leaf cluster up to find an ancestor whose epsilon >= threshold.
func traverseUpwards(infos []ClusterInfo, root int, clusterSelectionEpsilon float64,
	leaf int, allowSingleCluster bool,
) int {
	parent := infos[leaf-root].Parent
	if parent < 0 {
		return leaf
	}
	if parent == root {
		if allowSingleCluster {
			return parent
		}
		return leaf
	}

	if 1.0/infos[parent-root].Birth > clusterSelectionEpsilon {
		return parent
	}
	return traverseUpwards(infos, root, clusterSelectionEpsilon, parent, allowSingleCluster)
}
