package hdbscan

import "slices"

// SimplifyHierarchy removes low-persistence leaf clusters from the condensed tree.
// A leaf's persistence is its birth λ minus its parent's birth λ; leaves below
// persistenceThreshold are removed repeatedly until none remain, and their
// points are re-parented to the nearest surviving ancestor.
// Returns a new condensed tree with contiguous cluster ids.
func SimplifyHierarchy(tree CondensedTree, persistenceThreshold float64) CondensedTree {
	if persistenceThreshold <= 0 || len(tree) == 0 {
		return slices.Clone(tree)
	}

	root := tree.Root()
	infos := tree.Clusters()
	info := func(c int) ClusterInfo { return infos[c-root] }

	// Iteratively remove low-persistence leaves until stable. A cluster is a
	// leaf once all of its cluster children have been removed.
	removed := make(map[int]bool)
	changed := true
	for changed {
		changed = false
		for _, c := range infos {
			if c.Parent < 0 || removed[c.ID] {
				continue
			}
			leaf := true
			for _, child := range c.Children {
				if !removed[child] {
					leaf = false
					break
				}
			}
			if !leaf {
				continue
			}
			if c.Birth-info(c.Parent).Birth < persistenceThreshold {
				removed[c.ID] = true
				changed = true
			}
		}
	}

	if len(removed) == 0 {
		return slices.Clone(tree)
	}

	survivor := func(c int) int {
		for removed[c] {
			c = info(c).Parent
		}
		return c
	}

	// Drop removed cluster entries, re-parent everything else.
	var newTree CondensedTree
	for _, e := range tree {
		if !e.isPoint() && removed[e.Child] {
			continue
		}
		e.Parent = survivor(e.Parent)
		newTree = append(newTree, e)
	}

	relabelClusters(newTree, root)

	return newTree
}

// relabelClusters renumbers cluster IDs in-place so they are consecutive
// starting at startID, preserving their relative order.
func relabelClusters(tree CondensedTree, startID int) {
	clusterIDs := make(map[int]bool)
	for _, e := range tree {
		clusterIDs[e.Parent] = true
		if !e.isPoint() {
			clusterIDs[e.Child] = true
		}
	}

	relabel := make(map[int]int, len(clusterIDs))
	for i, c := range sortedClusterIDs(clusterIDs) {
		relabel[c] = startID + i
	}

	for i := range tree {
		tree[i].Parent = relabel[tree[i].Parent]
		if !tree[i].isPoint() {
			tree[i].Child = relabel[tree[i].Child]
		}
	}
}
