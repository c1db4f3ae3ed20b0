package hdbscan

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Merge is one row of a single-linkage dendrogram. Left and Right are node
// ids: points are 0..n-1 and the node created by row i is n+i.
type Merge struct {
	Left, Right int
	Distance    float64
	Size        int
}

// Lambda returns 1/Distance, or +Inf for a zero-distance merge.
func (m Merge) Lambda() float64 {
	if m.Distance > 0 {
		return 1.0 / m.Distance
	}
	return math.Inf(1)
}

// Dendrogram is the ordered merge sequence of a single-linkage hierarchy
// over n points; it always has n-1 rows.
type Dendrogram []Merge

// NumPoints returns the number of points the dendrogram covers.
func (d Dendrogram) NumPoints() int { return len(d) + 1 }

// Linkage returns the dendrogram in scipy linkage format:
// [left, right, distance, size] per row.
func (d Dendrogram) Linkage() [][4]float64 {
	out := make([][4]float64, len(d))
	for i, m := range d {
		out[i] = [4]float64{float64(m.Left), float64(m.Right), m.Distance, float64(m.Size)}
	}
	return out
}

// nodeSize returns the number of points under dendrogram node id.
func (d Dendrogram) nodeSize(id int) int {
	if id < d.NumPoints() {
		return 1
	}
	return d[id-d.NumPoints()].Size
}

// compareEdges orders edges by weight, then origin, then destination.
func compareEdges(a, b Edge) int {
	return cmp.Or(
		cmp.Compare(a.Weight, b.Weight),
		cmp.Compare(a.Orig, b.Orig),
		cmp.Compare(a.Dest, b.Dest),
	)
}

// BuildHierarchy converts the extended MST edge pool into a single-linkage
// dendrogram using a fresh UnionFind.
func BuildHierarchy(edges []Edge, n int) (Dendrogram, error) {
	return BuildHierarchyWith(edges, n, NewUnionFind(n))
}

// BuildHierarchyWith is BuildHierarchy over a caller-supplied DisjointSet
// holding n singleton sets.
//
// Edges are processed in ascending weight with ties broken by (Orig, Dest),
// so equal inputs always yield the same dendrogram. Self-loops are skipped.
// Every weight must be finite and non-negative; the tree edges must connect
// all n points without ever joining two points already in one component.
func BuildHierarchyWith(edges []Edge, n int, ds DisjointSet) (Dendrogram, error) {
	if n < 2 {
		return nil, fmt.Errorf("hdbscan: %w: need at least 2 points, got %d", ErrEmptyInput, n)
	}
	for _, e := range edges {
		if !validDistance(e.Weight) {
			return nil, fmt.Errorf("hdbscan: %w: edge (%d, %d) has weight %g",
				ErrInvalidDistance, e.Orig, e.Dest, e.Weight)
		}
		if e.Orig < 0 || e.Orig >= n || e.Dest < 0 || e.Dest >= n {
			return nil, fmt.Errorf("hdbscan: %w: edge (%d, %d) out of range for %d points",
				ErrInternalInvariant, e.Orig, e.Dest, n)
		}
	}

	sorted := slices.Clone(edges)
	slices.SortFunc(sorted, compareEdges)

	// nodeOf maps the representative of every merged component to its
	// dendrogram node id. A representative missing from it names a
	// singleton, whose node id is the point itself.
	nodeOf := make(map[int]int, n-1)
	node := func(rep, point int) int {
		if id, ok := nodeOf[rep]; ok {
			return id
		}
		return point
	}

	result := make(Dendrogram, 0, n-1)
	for _, e := range sorted {
		if e.IsSelfLoop() {
			continue
		}

		ra, rb := ds.Find(e.Orig), ds.Find(e.Dest)
		if ra == rb {
			return nil, fmt.Errorf("hdbscan: %w: points %d and %d are already connected",
				ErrInternalInvariant, e.Orig, e.Dest)
		}

		root := ds.Union(ra, rb)
		result = append(result, Merge{
			Left:     node(ra, e.Orig),
			Right:    node(rb, e.Dest),
			Distance: e.Weight,
			Size:     ds.ComponentSize(root),
		})
		nodeOf[root] = n + len(result) - 1
	}

	if len(result) != n-1 {
		return nil, fmt.Errorf("hdbscan: %w: spanning tree has %d edges, want %d",
			ErrInternalInvariant, len(result), n-1)
	}
	return result, nil
}
