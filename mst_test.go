package hdbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

func mutualReachabilityFor(t *testing.T, data [][]float64, minSamples int, alpha float64) *MutualReachability {
	t.Helper()
	p, err := NewVectorProvider(data, EuclideanMetric{})
	require.NoError(t, err)
	core, err := ComputeCoreDistances(p, minSamples, 1)
	require.NoError(t, err)
	return NewMutualReachability(core, p, alpha)
}

// completeGraph materializes the mutual reachability graph for gonum.
func completeGraph(mr *MutualReachability) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	n := mr.NumPoints()
	for i := range n {
		g.AddNode(simple.Node(i))
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), mr.Distance(i, j)))
		}
	}
	return g
}

func TestExtendedMST_Shape(t *testing.T) {
	data := uniformPoints(3, 40, 3, 5)
	mr := mutualReachabilityFor(t, data, 5, 1)

	edges, err := ExtendedMST(mr)
	require.NoError(t, err)
	n := len(data)
	require.Len(t, edges, 2*n-1)

	for i, e := range edges[:n-1] {
		assert.False(t, e.IsSelfLoop(), "tree edge %d", i)
		assert.Equal(t, mr.Distance(e.Orig, e.Dest), e.Weight)
	}
	for i, e := range edges[n-1:] {
		assert.Equal(t, Edge{Orig: i, Dest: i, Weight: mr.CoreDistance(i)}, e)
	}
}

func TestExtendedMST_MatchesGonumPrim(t *testing.T) {
	data := blobs(11, [][]float64{{0, 0}, {8, 8}, {0, 9}}, []int{15, 15, 10}, 0.7)
	mr := mutualReachabilityFor(t, data, 4, 1)

	edges, err := ExtendedMST(mr)
	require.NoError(t, err)

	ours := 0.0
	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range mr.NumPoints() {
		tree.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		if e.IsSelfLoop() {
			continue
		}
		ours += e.Weight
		tree.SetWeightedEdge(tree.NewWeightedEdge(simple.Node(e.Orig), simple.Node(e.Dest), e.Weight))
	}

	ref := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	want := path.Prim(ref, completeGraph(mr))
	assert.InDelta(t, want, ours, 1e-9)

	components := topo.ConnectedComponents(tree)
	require.Len(t, components, 1)
	assert.Len(t, components[0], mr.NumPoints())
}

func TestExtendedMST_AlphaScalesRawDistance(t *testing.T) {
	data := [][]float64{{0}, {1}, {3}, {7}}
	base := mutualReachabilityFor(t, data, 1, 1)
	scaled := mutualReachabilityFor(t, data, 1, 2)

	for i := range 4 {
		for j := range 4 {
			if i == j {
				continue
			}
			assert.InDelta(t, 2*base.Distance(i, j), scaled.Distance(i, j), 1e-12)
		}
	}
}

func TestExtendedMST_TooFewPoints(t *testing.T) {
	mr := NewMutualReachability([]float64{0}, nil, 1)
	_, err := ExtendedMST(mr)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestExtendedMST_InfiniteDistancesReachHierarchy(t *testing.T) {
	// Two groups with no finite distance between them.
	dist := []float64{
		0, 1, math.Inf(1), math.Inf(1),
		1, 0, math.Inf(1), math.Inf(1),
		math.Inf(1), math.Inf(1), 0, 1,
		math.Inf(1), math.Inf(1), 1, 0,
	}
	p, err := newMatrixProviderFlat(dist, 4)
	require.NoError(t, err)
	core, err := ComputeCoreDistances(p, 2, 1)
	require.NoError(t, err)

	edges, err := ExtendedMST(NewMutualReachability(core, p, 1))
	require.NoError(t, err)
	require.Len(t, edges, 7)

	_, err = BuildHierarchy(edges, 4)
	require.ErrorIs(t, err, ErrInvalidDistance)
}

func TestExtendedMST_RejectsNaNAndNegativeDistances(t *testing.T) {
	for _, bad := range []float64{math.NaN(), -1} {
		dist := []float64{
			0, 1, 2, bad,
			1, 0, 1, 2,
			2, 1, 0, 1,
			bad, 2, 1, 0,
		}
		p, err := newMatrixProviderFlat(dist, 4)
		require.NoError(t, err)

		// Core distances are supplied directly, so only the spanning tree
		// sees the corrupt pair.
		_, err = ExtendedMST(NewMutualReachability([]float64{1, 1, 1, 1}, p, 1))
		require.ErrorIs(t, err, ErrInvalidDistance, "distance %g", bad)
	}
}
