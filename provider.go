package hdbscan

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// NeighborIndex answers k-nearest-neighbor queries over a fixed point set.
// It is only consulted while core distances are computed.
type NeighborIndex interface {
	// NumPoints returns the number of indexed points.
	NumPoints() int

	// KNN returns the distances from point i to its k nearest neighbors in
	// ascending order. The point itself is its own first neighbor, so the
	// first distance is normally 0.
	KNN(i, k int) ([]float64, error)
}

// RadiusIndex is a NeighborIndex that can also answer fixed-radius queries.
// The clustering pipeline itself only needs KNN; every index in this
// package offers Radius as an optional capability for callers that inspect
// ε-neighborhoods around a result, for example at ClusterSelectionEpsilon.
type RadiusIndex interface {
	NeighborIndex

	// Radius returns the indices of all points within distance r of point i,
	// including i itself.
	Radius(i int, r float64) ([]int, error)
}

// DistanceProvider returns the raw distance between two indexed points.
type DistanceProvider interface {
	NumPoints() int
	Distance(i, j int) float64
}

// MatrixProvider serves a precomputed symmetric distance matrix as both a
// NeighborIndex and a DistanceProvider. The diagonal is treated as zero.
type MatrixProvider struct {
	m mat.Symmetric
	n int
}

// NewMatrixProvider wraps m. Only the upper triangle of a *mat.SymDense is
// ever read.
func NewMatrixProvider(m mat.Symmetric) *MatrixProvider {
	return &MatrixProvider{m: m, n: m.SymmetricDim()}
}

// newMatrixProviderFlat builds a MatrixProvider from a flat n*n row-major
// matrix.
func newMatrixProviderFlat(distMatrix []float64, n int) (*MatrixProvider, error) {
	if len(distMatrix) != n*n {
		return nil, fmt.Errorf("hdbscan: %w: distMatrix length %d does not match n*n = %d (n=%d)",
			ErrInvalidParameter, len(distMatrix), n*n, n)
	}
	if n == 0 {
		return &MatrixProvider{}, nil
	}
	data := make([]float64, len(distMatrix))
	copy(data, distMatrix)
	return NewMatrixProvider(mat.NewSymDense(n, data)), nil
}

func (p *MatrixProvider) NumPoints() int { return p.n }

func (p *MatrixProvider) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	return p.m.At(i, j)
}

// KNN sorts row i of the matrix and returns its k smallest entries.
func (p *MatrixProvider) KNN(i, k int) ([]float64, error) {
	if k < 1 || k > p.n {
		return nil, fmt.Errorf("hdbscan: %w: k=%d out of range [1, %d]", ErrInvalidParameter, k, p.n)
	}
	row := make([]float64, p.n)
	for j := range row {
		row[j] = p.Distance(i, j)
	}
	sort.Float64s(row)
	return row[:k], nil
}

// Radius scans row i for entries no larger than r.
func (p *MatrixProvider) Radius(i int, r float64) ([]int, error) {
	var out []int
	for j := 0; j < p.n; j++ {
		if p.Distance(i, j) <= r {
			out = append(out, j)
		}
	}
	return out, nil
}

// VectorProvider computes distances on demand from raw vectors with a
// DistanceMetric. It answers KNN queries by brute force, so it works with
// any metric, including ones the KD-tree cannot accelerate.
type VectorProvider struct {
	data   []float64 // flat row-major, n * dims
	n      int
	dims   int
	metric DistanceMetric
}

// NewVectorProvider copies data into flat storage. All rows must have the
// same dimensionality.
func NewVectorProvider(data [][]float64, metric DistanceMetric) (*VectorProvider, error) {
	flat, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	return newVectorProviderFlat(flat, len(data), dims, metric), nil
}

func newVectorProviderFlat(flat []float64, n, dims int, metric DistanceMetric) *VectorProvider {
	return &VectorProvider{data: flat, n: n, dims: dims, metric: metric}
}

func (p *VectorProvider) NumPoints() int { return p.n }

func (p *VectorProvider) point(i int) []float64 {
	return p.data[i*p.dims : (i+1)*p.dims]
}

func (p *VectorProvider) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	return p.metric.Distance(p.point(i), p.point(j))
}

func (p *VectorProvider) KNN(i, k int) ([]float64, error) {
	if k < 1 || k > p.n {
		return nil, fmt.Errorf("hdbscan: %w: k=%d out of range [1, %d]", ErrInvalidParameter, k, p.n)
	}
	row := make([]float64, p.n)
	for j := range row {
		row[j] = p.Distance(i, j)
	}
	sort.Float64s(row)
	return row[:k], nil
}

func (p *VectorProvider) Radius(i int, r float64) ([]int, error) {
	var out []int
	for j := 0; j < p.n; j++ {
		if p.Distance(i, j) <= r {
			out = append(out, j)
		}
	}
	return out, nil
}

// flatten copies rows into a flat row-major slice and checks that every row
// has the same length.
func flatten(data [][]float64) ([]float64, int, error) {
	if len(data) == 0 {
		return nil, 0, nil
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, 0, fmt.Errorf("hdbscan: %w: points have zero dimensions", ErrInvalidParameter)
	}
	flat := make([]float64, len(data)*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, 0, fmt.Errorf("hdbscan: %w: point %d has %d dimensions, want %d",
				ErrInvalidParameter, i, len(row), dims)
		}
		copy(flat[i*dims:], row)
	}
	return flat, dims, nil
}
