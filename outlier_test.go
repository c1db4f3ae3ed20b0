package hdbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutlierScores_EarlyLeaverScoresHigh(t *testing.T) {
	tree := CondensedTree{
		{Parent: 5, Child: 4, LambdaVal: 0.25, ChildSize: 1},
		{Parent: 5, Child: 0, LambdaVal: 1, ChildSize: 1},
		{Parent: 5, Child: 1, LambdaVal: 1, ChildSize: 1},
		{Parent: 5, Child: 2, LambdaVal: 1, ChildSize: 1},
		{Parent: 5, Child: 3, LambdaVal: 1, ChildSize: 1},
	}
	scores := OutlierScores(tree, 5)
	assert.InDelta(t, 0.75, scores[4], 1e-12)
	for i := range 4 {
		assert.Equal(t, 0.0, scores[i])
	}
}

func TestOutlierScores_UsesSubtreeMaximum(t *testing.T) {
	// Point 4 leaves the root at λ = 0.1 while the densest point anywhere
	// below the root leaves at λ = 2.
	tree := CondensedTree{
		{Parent: 5, Child: 6, LambdaVal: 0.2, ChildSize: 2},
		{Parent: 5, Child: 7, LambdaVal: 0.2, ChildSize: 2},
		{Parent: 5, Child: 4, LambdaVal: 0.1, ChildSize: 1},
		{Parent: 6, Child: 0, LambdaVal: 1, ChildSize: 1},
		{Parent: 6, Child: 1, LambdaVal: 0.5, ChildSize: 1},
		{Parent: 7, Child: 2, LambdaVal: 2, ChildSize: 1},
		{Parent: 7, Child: 3, LambdaVal: 2, ChildSize: 1},
	}
	scores := OutlierScores(tree, 5)
	assert.InDelta(t, 0.95, scores[4], 1e-12)
	assert.InDelta(t, 0.5, scores[1], 1e-12)
	assert.Equal(t, 0.0, scores[0])
	assert.Equal(t, 0.0, scores[2])
}

func TestOutlierScores_SixPointTreeInRange(t *testing.T) {
	for i, s := range OutlierScores(sixPointTree(), 6) {
		assert.GreaterOrEqual(t, s, 0.0, "point %d", i)
		assert.LessOrEqual(t, s, 1.0, "point %d", i)
	}
}

func TestOutlierScores_InfiniteLambda(t *testing.T) {
	tree := CondensedTree{
		{Parent: 3, Child: 0, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 1, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 2, LambdaVal: 0.5, ChildSize: 1},
	}
	scores := OutlierScores(tree, 3)
	for _, s := range scores {
		require.False(t, math.IsNaN(s))
		assert.Equal(t, 0.0, s)
	}
}

func TestOutlierScores_EmptyTree(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, OutlierScores(nil, 2))
}
