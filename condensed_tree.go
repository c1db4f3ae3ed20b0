package hdbscan

import (
	"cmp"
	"math"
	"slices"
)

// CondensedTreeEntry is one edge of the condensed tree. Child is a point
// index when ChildSize == 1 and a cluster id otherwise; cluster ids start at
// the number of points, so the two ranges never overlap.
type CondensedTreeEntry struct {
	Parent    int
	Child     int
	LambdaVal float64
	ChildSize int
}

// isPoint reports whether the entry records a point leaving its cluster.
func (e CondensedTreeEntry) isPoint() bool { return e.ChildSize == 1 }

// CondensedTree is a flat sequence of condensed-tree edges. A cluster's
// entry always precedes the entries of its own children, and cluster ids
// grow in the order clusters are created.
type CondensedTree []CondensedTreeEntry

// Root returns the root cluster id (the smallest parent), or -1 for an
// empty tree.
func (t CondensedTree) Root() int {
	if len(t) == 0 {
		return -1
	}
	root := math.MaxInt
	for _, e := range t {
		root = min(root, e.Parent)
	}
	return root
}

// ClusterInfo is the per-cluster metadata derived from a condensed tree.
type ClusterInfo struct {
	ID     int
	Parent int // -1 for the root

	// Birth is the λ at which the cluster split off its parent; 0 for the root.
	Birth float64
	// Death is the largest λ at which a point or child cluster leaves the
	// cluster. It may be +Inf when points coincide.
	Death float64

	Size     int
	Children []int

	finiteDeath float64 // largest finite λ among the cluster's entries
}

// Clusters returns metadata for every cluster in the tree, indexed by
// id - t.Root().
func (t CondensedTree) Clusters() []ClusterInfo {
	root := t.Root()
	if root < 0 {
		return nil
	}

	maxID := root
	for _, e := range t {
		if !e.isPoint() {
			maxID = max(maxID, e.Child)
		}
	}

	infos := make([]ClusterInfo, maxID-root+1)
	for i := range infos {
		infos[i] = ClusterInfo{ID: root + i, Parent: -1}
	}
	for _, e := range t {
		p := &infos[e.Parent-root]
		p.Death = max(p.Death, e.LambdaVal)
		if !math.IsInf(e.LambdaVal, 1) {
			p.finiteDeath = max(p.finiteDeath, e.LambdaVal)
		}
		if e.isPoint() {
			continue
		}
		c := &infos[e.Child-root]
		c.Parent = e.Parent
		c.Birth = e.LambdaVal
		c.Size = e.ChildSize
		p.Children = append(p.Children, e.Child)
	}

	// Only the root's size is not recorded on an incoming edge.
	for _, e := range t {
		if e.Parent == root {
			infos[0].Size += e.ChildSize
		}
	}
	return infos
}

// CondenseTree converts a single-linkage dendrogram into a condensed tree
// by collapsing clusters smaller than minClusterSize.
//
// The dendrogram is walked top-down from its root, which becomes cluster
// n. At each merge whose two sides both hold at least minClusterSize points,
// the parent dies and two new clusters are born at λ = 1/distance. A side
// below the threshold sheds its points from the current cluster at that λ,
// while a qualifying side carries on as the current cluster.
func CondenseTree(dendrogram Dendrogram, minClusterSize int) CondensedTree {
	numRows := len(dendrogram)
	if numRows == 0 {
		return nil
	}

	numPoints := dendrogram.NumPoints()
	root := 2 * numRows
	nextLabel := numPoints + 1

	nodeList := bfsFromHierarchy(dendrogram, root)

	relabel := make(map[int]int)
	relabel[root] = numPoints

	ignore := make(map[int]bool)

	var result CondensedTree

	// collapseSubtree emits a point entry for every leaf under subtreeRoot
	// and marks every visited node as ignored.
	collapseSubtree := func(subtreeRoot, parentCluster int, lambda float64) {
		for _, subNode := range bfsFromHierarchy(dendrogram, subtreeRoot) {
			if subNode < numPoints {
				result = append(result, CondensedTreeEntry{
					Parent:    parentCluster,
					Child:     subNode,
					LambdaVal: lambda,
					ChildSize: 1,
				})
			}
			ignore[subNode] = true
		}
	}

	for _, node := range nodeList {
		if ignore[node] || node < numPoints {
			continue
		}

		row := dendrogram[node-numPoints]
		left, right := row.Left, row.Right
		lambda := row.Lambda()

		leftCount := dendrogram.nodeSize(left)
		rightCount := dendrogram.nodeSize(right)

		leftBig := leftCount >= minClusterSize
		rightBig := rightCount >= minClusterSize
		parentCluster := relabel[node]

		switch {
		case leftBig && rightBig:
			relabel[left] = nextLabel
			nextLabel++
			result = append(result, CondensedTreeEntry{
				Parent:    parentCluster,
				Child:     relabel[left],
				LambdaVal: lambda,
				ChildSize: leftCount,
			})

			relabel[right] = nextLabel
			nextLabel++
			result = append(result, CondensedTreeEntry{
				Parent:    parentCluster,
				Child:     relabel[right],
				LambdaVal: lambda,
				ChildSize: rightCount,
			})

		case !leftBig && !rightBig:
			collapseSubtree(left, parentCluster, lambda)
			collapseSubtree(right, parentCluster, lambda)

		case !leftBig:
			relabel[right] = parentCluster
			collapseSubtree(left, parentCluster, lambda)

		default:
			relabel[left] = parentCluster
			collapseSubtree(right, parentCluster, lambda)
		}
	}

	return result
}

// bfsFromHierarchy returns all dendrogram node ids reachable from bfsRoot in
// breadth-first order.
func bfsFromHierarchy(dendrogram Dendrogram, bfsRoot int) []int {
	numPoints := dendrogram.NumPoints()
	toProcess := []int{bfsRoot}
	var result []int

	for len(toProcess) > 0 {
		result = append(result, toProcess...)

		var next []int
		for _, x := range toProcess {
			if x >= numPoints {
				row := dendrogram[x-numPoints]
				next = append(next, row.Left, row.Right)
			}
		}
		toProcess = next
	}

	return result
}

// Recondense applies the condensation rule to an existing condensed tree
// with a new minimum cluster size, which must be at least the size the tree
// was built with. Cluster children smaller than minClusterSize dissolve into
// their parent, shedding all of their points at the λ where they split off;
// when only one child of a split qualifies, it continues as its parent. A
// cluster whose remaining size drops below minClusterSize sheds everything
// it still holds at that λ. Recondensing with the size the tree was built
// with returns an identical tree.
func Recondense(tree CondensedTree, minClusterSize int) CondensedTree {
	root := tree.Root()
	if root < 0 {
		return nil
	}

	byParent := make(map[int][]CondensedTreeEntry)
	size := make(map[int]int)
	for _, e := range tree {
		byParent[e.Parent] = append(byParent[e.Parent], e)
		size[e.Parent] += e.ChildSize
	}

	plan := planRecondense(byParent, size, root, minClusterSize)

	relabel := map[int]int{root: root}
	dissolved := make(map[int]bool)
	nextLabel := root + 1

	var result CondensedTree

	// shedPoints emits every point under cluster c as leaving parent at λ.
	var shedPoints func(c, parent int, lambda float64)
	shedPoints = func(c, parent int, lambda float64) {
		dissolved[c] = true
		for _, e := range byParent[c] {
			if e.isPoint() {
				result = append(result, CondensedTreeEntry{Parent: parent, Child: e.Child, LambdaVal: lambda, ChildSize: 1})
				continue
			}
			shedPoints(e.Child, parent, lambda)
		}
	}

	for _, e := range tree {
		if dissolved[e.Parent] {
			continue
		}
		parent := relabel[e.Parent]
		cut, isCut := plan.cut[e.Parent]

		switch {
		case e.isPoint():
			lambda := e.LambdaVal
			if isCut {
				lambda = min(lambda, cut)
			}
			result = append(result, CondensedTreeEntry{Parent: parent, Child: e.Child, LambdaVal: lambda, ChildSize: 1})
		case plan.shed[e.Child] != nil:
			shedPoints(e.Child, parent, *plan.shed[e.Child])
		case plan.born[e.Child]:
			relabel[e.Child] = nextLabel
			nextLabel++
			result = append(result, CondensedTreeEntry{Parent: parent, Child: relabel[e.Child], LambdaVal: e.LambdaVal, ChildSize: e.ChildSize})
		default:
			relabel[e.Child] = parent
		}
	}

	return result
}

// recondensePlan records, per cluster of the input tree, what Recondense
// does with it. born clusters survive as new clusters; shed clusters
// dissolve into their parent at the stored λ; cut holds the λ at which a
// cluster's surviving points are all forced out.
type recondensePlan struct {
	born map[int]bool
	shed map[int]*float64
	cut  map[int]float64
}

// planRecondense walks every surviving cluster in λ order, folding in the
// entries of children that continue as it, and tracks how many points it
// still holds.
func planRecondense(byParent map[int][]CondensedTreeEntry, size map[int]int, root, m int) recondensePlan {
	plan := recondensePlan{
		born: make(map[int]bool),
		shed: make(map[int]*float64),
		cut:  make(map[int]float64),
	}
	shedAt := func(c int, lambda float64) { plan.shed[c] = &lambda }

	queue := []int{root}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		chain := []int{c}
		stream := slices.Clone(byParent[c])
		slices.SortStableFunc(stream, byLambda)
		remaining := size[c]

		for i := 0; i < len(stream); {
			lambda := stream[i].LambdaVal
			j := i
			for j < len(stream) && stream[j].LambdaVal == lambda {
				j++
			}
			group := stream[i:j]

			big := 0
			for _, e := range group {
				if !e.isPoint() && e.ChildSize >= m {
					big++
				}
			}

			var continued []CondensedTreeEntry
			for _, e := range group {
				switch {
				case e.isPoint():
					remaining--
				case e.ChildSize < m:
					shedAt(e.Child, lambda)
					remaining -= e.ChildSize
				case big >= 2:
					plan.born[e.Child] = true
					queue = append(queue, e.Child)
					remaining -= e.ChildSize
				default:
					chain = append(chain, e.Child)
					continued = append(continued, byParent[e.Child]...)
				}
			}
			if len(continued) > 0 {
				rest := append(slices.Clone(stream[j:]), continued...)
				slices.SortStableFunc(rest, byLambda)
				stream = append(stream[:j:j], rest...)
			}
			i = j

			if remaining > 0 && remaining < m && i < len(stream) {
				for _, id := range chain {
					plan.cut[id] = lambda
				}
				for _, e := range stream[i:] {
					if !e.isPoint() {
						shedAt(e.Child, lambda)
					}
				}
				break
			}
		}
	}
	return plan
}

func byLambda(a, b CondensedTreeEntry) int { return cmp.Compare(a.LambdaVal, b.LambdaVal) }

// sortedClusterIDs returns the keys of a cluster set in ascending order.
func sortedClusterIDs(clusters map[int]bool) []int {
	ids := make([]int, 0, len(clusters))
	for c, ok := range clusters {
		if ok {
			ids = append(ids, c)
		}
	}
	slices.Sort(ids)
	return ids
}
