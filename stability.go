package hdbscan

// ComputeStability computes the stability of every cluster in the tree:
//
//	S(C) = Σ_p (min(λ_p, death(C)) - birth(C))
//
// summed over the points p of C, where λ_p is the λ at which p left C either
// on its own or inside a child cluster. A cluster entry therefore counts once
// per point it carries. The root is born at λ = 0.
func ComputeStability(tree CondensedTree) map[int]float64 {
	if len(tree) == 0 {
		return nil
	}

	root := tree.Root()
	infos := tree.Clusters()

	stability := make(map[int]float64, len(infos))
	for _, info := range infos {
		if info.ID == root || info.Parent >= 0 {
			stability[info.ID] = 0
		}
	}
	for _, e := range tree {
		c := infos[e.Parent-root]
		// Comparing before subtracting keeps +Inf births and deaths from
		// producing NaN.
		if lambda := min(e.LambdaVal, c.Death); lambda > c.Birth {
			stability[e.Parent] += (lambda - c.Birth) * float64(e.ChildSize)
		}
	}

	return stability
}
