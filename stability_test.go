package hdbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStability_SixPointTree(t *testing.T) {
	stab := ComputeStability(sixPointTree())
	require.Len(t, stab, 5)

	const eps = 1e-10
	// Root: both children leave at λ = 0.2, carrying 2 + 4 points.
	assert.InDelta(t, 1.2, stab[6], eps)
	// Cluster 7: born at 0.2, two points leave at 0.5.
	assert.InDelta(t, 0.6, stab[7], eps)
	// Cluster 8: born at 0.2, children carry 4 points out at 1/3.
	assert.InDelta(t, 8.0/15.0, stab[8], eps)
	assert.InDelta(t, 4.0/3.0, stab[9], eps)
	assert.InDelta(t, 2.0/3.0, stab[10], eps)
}

func TestComputeStability_RootOnly(t *testing.T) {
	tree := CondensedTree{
		{Parent: 3, Child: 0, LambdaVal: 0.5, ChildSize: 1},
		{Parent: 3, Child: 1, LambdaVal: 0.5, ChildSize: 1},
		{Parent: 3, Child: 2, LambdaVal: 0.25, ChildSize: 1},
	}
	stab := ComputeStability(tree)
	require.Len(t, stab, 1)
	assert.InDelta(t, 1.25, stab[3], 1e-12)
}

func TestComputeStability_NonNegative(t *testing.T) {
	data := blobs(21, [][]float64{{0, 0}, {7, 1}, {3, 8}}, []int{25, 25, 25}, 1.1)
	tree := CondenseTree(dendrogramFor(t, data, 5), 5)
	for id, s := range ComputeStability(tree) {
		assert.GreaterOrEqual(t, s, 0.0, "cluster %d", id)
	}
}

func TestComputeStability_InfiniteLambdaIsNotNaN(t *testing.T) {
	tree := CondensedTree{
		{Parent: 3, Child: 0, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 1, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 2, LambdaVal: 0.5, ChildSize: 1},
	}
	stab := ComputeStability(tree)
	assert.False(t, math.IsNaN(stab[3]))
}

func TestComputeStability_Empty(t *testing.T) {
	assert.Empty(t, ComputeStability(nil))
}
