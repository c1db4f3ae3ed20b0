package hdbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKDTree_KNNMatchesBruteForce(t *testing.T) {
	metrics := map[string]DistanceMetric{
		"euclidean": EuclideanMetric{},
		"manhattan": ManhattanMetric{},
		"chebyshev": ChebyshevMetric{},
		"minkowski": MinkowskiMetric{P: 3},
	}
	data := uniformPoints(99, 300, 3, 20)
	flat, dims, err := flatten(data)
	require.NoError(t, err)

	for name, metric := range metrics {
		t.Run(name, func(t *testing.T) {
			tree := NewKDTree(flat, len(data), dims, metric, 8)
			brute := newVectorProviderFlat(flat, len(data), dims, metric)
			for _, i := range []int{0, 17, 150, 299} {
				for _, k := range []int{1, 5, 40} {
					got, err := tree.KNN(i, k)
					require.NoError(t, err)
					want, err := brute.KNN(i, k)
					require.NoError(t, err)
					assert.InDeltaSlice(t, want, got, 1e-9, "point %d k=%d", i, k)
				}
			}
		})
	}
}

func TestKDTree_KNNIncludesSelf(t *testing.T) {
	data := []float64{0, 0, 1, 0, 5, 5}
	tree := NewKDTree(data, 3, 2, EuclideanMetric{}, 1)
	d, err := tree.KNN(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, d)
}

func TestKDTree_KNNDuplicatePoints(t *testing.T) {
	data := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	tree := NewKDTree(data, 4, 2, EuclideanMetric{}, 1)
	d, err := tree.KNN(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, d)
}

func TestKDTree_Radius(t *testing.T) {
	data := uniformPoints(5, 200, 2, 10)
	flat, dims, err := flatten(data)
	require.NoError(t, err)
	tree := NewKDTree(flat, len(data), dims, EuclideanMetric{}, 10)
	brute := newVectorProviderFlat(flat, len(data), dims, EuclideanMetric{})

	for _, i := range []int{0, 50, 199} {
		for _, r := range []float64{0, 0.5, 2, 50} {
			got, err := tree.Radius(i, r)
			require.NoError(t, err)
			want, err := brute.Radius(i, r)
			require.NoError(t, err)
			assert.Equal(t, want, got, "point %d r=%g", i, r)
			assert.Contains(t, got, i)
		}
	}
}

func TestKDTree_InvalidQueries(t *testing.T) {
	tree := NewKDTree([]float64{0, 1, 2}, 3, 1, EuclideanMetric{}, 40)

	_, err := tree.KNN(0, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = tree.KNN(0, 4)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = tree.KNN(3, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = tree.Radius(0, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = tree.Radius(0, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestKDTree_SatisfiesRadiusIndex(t *testing.T) {
	var idx RadiusIndex = NewKDTree([]float64{0, 3}, 2, 1, EuclideanMetric{}, 1)
	assert.Equal(t, 2, idx.NumPoints())
}

func TestKDTreeValidMetric(t *testing.T) {
	assert.True(t, KDTreeValidMetric(EuclideanMetric{}))
	assert.True(t, KDTreeValidMetric(MinkowskiMetric{P: 1.5}))
	assert.False(t, KDTreeValidMetric(CosineMetric{}))
	assert.False(t, KDTreeValidMetric(DistanceFunc(func(a, b []float64) float64 { return 0 })))
}

func BenchmarkKDTree_KNN(b *testing.B) {
	data := uniformPoints(1, 5000, 3, 100)
	flat, dims, _ := flatten(data)
	tree := NewKDTree(flat, len(data), dims, EuclideanMetric{}, 40)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tree.KNN(i%len(data), 10)
	}
}
