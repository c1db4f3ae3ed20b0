package hdbscan

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCoreDistances_LineOfPoints(t *testing.T) {
	data := [][]float64{{0}, {1}, {3}, {6}, {10}}
	p, err := NewVectorProvider(data, EuclideanMetric{})
	require.NoError(t, err)

	// The point itself is the first neighbor.
	core, err := ComputeCoreDistances(p, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, core)

	core, err = ComputeCoreDistances(p, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 3, 4}, core)

	core, err = ComputeCoreDistances(p, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 9, 7, 6, 10}, core)
}

func TestComputeCoreDistances_WorkersMatchSequential(t *testing.T) {
	data := uniformPoints(42, 200, 3, 10)
	p, err := NewVectorProvider(data, EuclideanMetric{})
	require.NoError(t, err)

	want, err := ComputeCoreDistances(p, 7, 1)
	require.NoError(t, err)
	for _, workers := range []int{2, 4, 16} {
		got, err := ComputeCoreDistances(p, 7, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestComputeCoreDistances_MinSamplesOutOfRange(t *testing.T) {
	p, err := NewVectorProvider([][]float64{{0}, {1}, {2}}, EuclideanMetric{})
	require.NoError(t, err)

	for _, k := range []int{0, -1, 4} {
		_, err := ComputeCoreDistances(p, k, 1)
		require.ErrorIs(t, err, ErrInvalidParameter, "k=%d", k)
	}
}

// stubIndex returns canned neighbor distances for every point.
type stubIndex struct {
	n     int
	dists []float64
	err   error
}

func (s stubIndex) NumPoints() int { return s.n }

func (s stubIndex) KNN(i, k int) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dists, nil
}

func TestComputeCoreDistances_CollaboratorFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		index stubIndex
		want  error
	}{
		{"short result", stubIndex{n: 3, dists: []float64{0}}, ErrInvalidParameter},
		{"nan", stubIndex{n: 3, dists: []float64{0, math.NaN()}}, ErrInvalidDistance},
		{"negative", stubIndex{n: 3, dists: []float64{0, -1}}, ErrInvalidDistance},
		{"infinite", stubIndex{n: 3, dists: []float64{0, math.Inf(1)}}, ErrInvalidDistance},
		{"query error", stubIndex{n: 3, err: boom}, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeCoreDistances(tt.index, 2, 1)
			require.ErrorIs(t, err, tt.want)

			_, err = ComputeCoreDistances(tt.index, 2, 3)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
