package hdbscan

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// blobs generates well-separated Gaussian clusters around the given centers.
// Points are emitted cluster by cluster, sizes[i] points around centers[i].
func blobs(seed uint64, centers [][]float64, sizes []int, spread float64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var data [][]float64
	for c, center := range centers {
		for range sizes[c] {
			p := make([]float64, len(center))
			for d := range p {
				p[d] = center[d] + rng.NormFloat64()*spread
			}
			data = append(data, p)
		}
	}
	return data
}

// uniformPoints returns n points drawn uniformly from [0, scale)^dims.
func uniformPoints(seed uint64, n, dims int, scale float64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, dims)
		for d := range data[i] {
			data[i][d] = rng.Float64() * scale
		}
	}
	return data
}

// sixPointDendrogram is a hand-built hierarchy over points 0..5:
//
//	node 6:  merge(0, 1) at 1.0, size 2
//	node 7:  merge(2, 3) at 1.5, size 2
//	node 8:  merge(4, 5) at 2.0, size 2
//	node 9:  merge(6, 7) at 3.0, size 4
//	node 10: merge(8, 9) at 5.0, size 6
func sixPointDendrogram() Dendrogram {
	return Dendrogram{
		{Left: 0, Right: 1, Distance: 1.0, Size: 2},
		{Left: 2, Right: 3, Distance: 1.5, Size: 2},
		{Left: 4, Right: 5, Distance: 2.0, Size: 2},
		{Left: 6, Right: 7, Distance: 3.0, Size: 4},
		{Left: 8, Right: 9, Distance: 5.0, Size: 6},
	}
}

// sixPointTree is CondenseTree(sixPointDendrogram(), 2).
func sixPointTree() CondensedTree {
	return CondensedTree{
		{Parent: 6, Child: 7, LambdaVal: 0.2, ChildSize: 2},
		{Parent: 6, Child: 8, LambdaVal: 0.2, ChildSize: 4},
		{Parent: 8, Child: 9, LambdaVal: 1.0 / 3.0, ChildSize: 2},
		{Parent: 8, Child: 10, LambdaVal: 1.0 / 3.0, ChildSize: 2},
		{Parent: 7, Child: 4, LambdaVal: 0.5, ChildSize: 1},
		{Parent: 7, Child: 5, LambdaVal: 0.5, ChildSize: 1},
		{Parent: 9, Child: 0, LambdaVal: 1.0, ChildSize: 1},
		{Parent: 9, Child: 1, LambdaVal: 1.0, ChildSize: 1},
		{Parent: 10, Child: 2, LambdaVal: 1.0 / 1.5, ChildSize: 1},
		{Parent: 10, Child: 3, LambdaVal: 1.0 / 1.5, ChildSize: 1},
	}
}

// requireEntry checks that tree holds an entry matching the given fields.
func requireEntry(t *testing.T, tree CondensedTree, parent, child int, lambda float64, size int) {
	t.Helper()
	for _, e := range tree {
		if e.Parent == parent && e.Child == child && e.ChildSize == size {
			require.InDelta(t, lambda, e.LambdaVal, 1e-10, "lambda of entry %d -> %d", parent, child)
			return
		}
	}
	require.Failf(t, "entry not found", "parent=%d child=%d lambda=%g size=%d", parent, child, lambda, size)
}

// labelSet returns the distinct non-noise labels.
func labelSet(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, l := range labels {
		if l >= 0 {
			counts[l]++
		}
	}
	return counts
}
