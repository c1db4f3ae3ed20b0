package hdbscan

import "math"

// OutlierScores computes GLOSH outlier scores for each point from the condensed tree.
// n is the number of data points.
//
// A point's score is (λ_max - λ_p) / λ_max, where λ_p is the λ at which it
// left its last cluster and λ_max is the largest finite λ reached anywhere in
// that cluster's subtree. Points that fall out early relative to the densest
// part of their cluster score close to 1. Returns scores in [0, 1].
func OutlierScores(tree CondensedTree, n int) []float64 {
	result := make([]float64, n)
	if len(tree) == 0 {
		return result
	}

	root := tree.Root()
	infos := tree.Clusters()

	// Propagate the densest λ of each subtree up to its ancestors; children
	// have larger ids than their parents.
	deaths := make([]float64, len(infos))
	for i, c := range infos {
		deaths[i] = c.finiteDeath
	}
	for i := len(infos) - 1; i >= 0; i-- {
		if p := infos[i].Parent; p >= 0 {
			deaths[p-root] = max(deaths[p-root], deaths[i])
		}
	}

	for _, e := range tree {
		if !e.isPoint() {
			continue
		}
		lambdaMax := deaths[e.Parent-root]
		if lambdaMax == 0 || math.IsInf(e.LambdaVal, 1) {
			continue
		}
		result[e.Child] = max(0, (lambdaMax-e.LambdaVal)/lambdaMax)
	}

	return result
}
