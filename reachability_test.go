package hdbscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutualReachability_Distance(t *testing.T) {
	p, err := NewVectorProvider([][]float64{{0}, {1}, {5}}, EuclideanMetric{})
	require.NoError(t, err)
	core := []float64{1, 1, 4}
	mr := NewMutualReachability(core, p, 1)

	assert.Equal(t, 3, mr.NumPoints())
	assert.Equal(t, 1.0, mr.Distance(0, 1))
	assert.Equal(t, 5.0, mr.Distance(0, 2))
	assert.Equal(t, 4.0, mr.Distance(1, 2))
	assert.Equal(t, 4.0, mr.Distance(2, 2), "self distance is the core distance")
}

func TestMutualReachability_Symmetric(t *testing.T) {
	data := uniformPoints(8, 30, 2, 3)
	mr := mutualReachabilityFor(t, data, 3, 1.5)
	for i := range 30 {
		for j := range 30 {
			d := mr.Distance(i, j)
			assert.Equal(t, d, mr.Distance(j, i))
			assert.GreaterOrEqual(t, d, mr.CoreDistance(i))
			assert.GreaterOrEqual(t, d, mr.CoreDistance(j))
		}
	}
}

func TestMutualReachability_AlphaLeavesCoreAlone(t *testing.T) {
	p, err := NewVectorProvider([][]float64{{0}, {1}}, EuclideanMetric{})
	require.NoError(t, err)
	mr := NewMutualReachability([]float64{3, 3}, p, 2)

	assert.Equal(t, 3.0, mr.Distance(0, 1), "2*1 is below both core distances")
	assert.Equal(t, 3.0, mr.CoreDistance(0))

	mr = NewMutualReachability([]float64{0.5, 0.5}, p, 2)
	assert.Equal(t, 2.0, mr.Distance(0, 1))
}
