package hdbscan

import (
	"fmt"
	"math"
)

// Edge is a weighted edge of the extended minimum spanning tree. Orig == Dest
// marks a self-loop carrying a point's core distance.
type Edge struct {
	Orig, Dest int
	Weight     float64
}

// IsSelfLoop reports whether e connects a point to itself.
func (e Edge) IsSelfLoop() bool { return e.Orig == e.Dest }

// ExtendedMST builds a minimum spanning tree of the complete mutual
// reachability graph and appends one self-loop (i, i, core[i]) per point.
// The result holds exactly 2n-1 edges: n-1 tree edges, in the order Prim's
// algorithm discovers them, followed by n self-loops in point order.
//
// A NaN or negative pairwise distance fails with ErrInvalidDistance.
// Infinite weights are passed through and rejected by BuildHierarchy.
func ExtendedMST(mr *MutualReachability) ([]Edge, error) {
	n := mr.NumPoints()
	if n < 2 {
		return nil, fmt.Errorf("hdbscan: %w: need at least 2 points, got %d", ErrEmptyInput, n)
	}

	edges := make([]Edge, 0, 2*n-1)
	edges, err := primMST(mr, edges)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		edges = append(edges, Edge{Orig: i, Dest: i, Weight: mr.CoreDistance(i)})
	}
	return edges, nil
}

// primMST runs Prim's algorithm over the implicit complete graph, querying
// the oracle lazily. It keeps O(n) state: for every vertex outside the tree,
// the cheapest known edge into the tree and that edge's tree endpoint.
// Ties resolve to the lowest vertex index.
func primMST(mr *MutualReachability, edges []Edge) ([]Edge, error) {
	n := mr.NumPoints()
	inTree := make([]bool, n)
	bestDist := make([]float64, n)
	bestSource := make([]int, n)
	for j := range bestDist {
		bestDist[j] = math.Inf(1)
	}

	current := 0
	for step := 1; step < n; step++ {
		inTree[current] = true

		next := -1
		nextDist := math.Inf(1)
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			d, err := mr.checkedDistance(current, j)
			if err != nil {
				return nil, err
			}
			if d < bestDist[j] {
				bestDist[j] = d
				bestSource[j] = current
			}
			// The first candidate is always taken so that +Inf edges still
			// produce a spanning structure for BuildHierarchy to reject.
			if next == -1 || bestDist[j] < nextDist {
				next = j
				nextDist = bestDist[j]
			}
		}

		edges = append(edges, Edge{Orig: bestSource[next], Dest: next, Weight: nextDist})
		current = next
	}
	return edges, nil
}
