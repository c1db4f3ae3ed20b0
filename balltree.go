package hdbscan

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// ballNode describes one node of a BallTree: the points
// idxArray[idxStart:idxEnd] lie within radius of the node's centroid.
type ballNode struct {
	idxStart, idxEnd int
	isLeaf           bool
	radius           float64
}

// BallTree is a ball tree spatial index answering k-nearest-neighbor and
// fixed-radius queries. Unlike the KDTree it only relies on the triangle
// inequality, so it keeps pruning in high dimensions where axis-aligned
// bounds stop helping.
//
// Like the KDTree it is stored as a complete binary tree in array form, with
// node i having children 2*i+1 and 2*i+2. A built tree is read-only.
type BallTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int
	dims     int
	leafSize int
	metric   DistanceMetric
	idxArray []int
	nodes    []ballNode
	// centroids[node*dims .. (node+1)*dims) = centroid of node
	centroids []float64
}

// NewBallTree builds a ball tree from flat row-major data with n points of
// dimensionality dims. metric must satisfy BallTreeValidMetric.
func NewBallTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *BallTree {
	if leafSize < 1 {
		leafSize = 1
	}

	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, leafSize)
	t := &BallTree{
		data:      data,
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		metric:    metric,
		idxArray:  idxArray,
		nodes:     make([]ballNode, maxNodes),
		centroids: make([]float64, maxNodes*dims),
	}
	if n > 0 {
		t.buildNode(0, 0, n)
	}
	return t
}

func (t *BallTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, ballNode{})
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
	}

	centroid := t.centroid(nodeID)
	for d := range centroid {
		centroid[d] = 0
	}
	for i := start; i < end; i++ {
		for d, v := range t.point(t.idxArray[i]) {
			centroid[d] += v
		}
	}
	count := end - start
	for d := range centroid {
		centroid[d] /= float64(count)
	}

	var radius float64
	for i := start; i < end; i++ {
		radius = math.Max(radius, t.metric.Distance(centroid, t.point(t.idxArray[i])))
	}

	if count <= t.leafSize {
		t.nodes[nodeID] = ballNode{idxStart: start, idxEnd: end, isLeaf: true, radius: radius}
		return
	}
	t.nodes[nodeID] = ballNode{idxStart: start, idxEnd: end, radius: radius}

	splitDim := t.spreadDim(start, end)
	sub := t.idxArray[start:end]
	sort.Slice(sub, func(i, j int) bool {
		return t.data[sub[i]*t.dims+splitDim] < t.data[sub[j]*t.dims+splitDim]
	})
	mid := start + count/2

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// spreadDim returns the dimension with the greatest spread among
// idxArray[start:end].
func (t *BallTree) spreadDim(start, end int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < t.dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := start; i < end; i++ {
			v := t.data[t.idxArray[i]*t.dims+d]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi-lo > bestSpread {
			best, bestSpread = d, hi-lo
		}
	}
	return best
}

func (t *BallTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

func (t *BallTree) centroid(node int) []float64 {
	return t.centroids[node*t.dims : (node+1)*t.dims]
}

// NumPoints returns the number of indexed points.
func (t *BallTree) NumPoints() int { return t.n }

// KNN returns the sorted distances from point i to its k nearest neighbors,
// point i included.
func (t *BallTree) KNN(i, k int) ([]float64, error) {
	if i < 0 || i >= t.n {
		return nil, fmt.Errorf("hdbscan: %w: point %d out of range [0, %d)", ErrInvalidParameter, i, t.n)
	}
	if k < 1 || k > t.n {
		return nil, fmt.Errorf("hdbscan: %w: k=%d out of range [1, %d]", ErrInvalidParameter, k, t.n)
	}

	query := t.point(i)
	h := make(knnHeap, 0, k)
	t.knnSearch(0, query, k, &h)
	return trueDistances(h, query, t.metric, t.point), nil
}

func (t *BallTree) knnSearch(nodeID int, query []float64, k int, h *knnHeap) {
	node := t.nodes[nodeID]

	if node.isLeaf {
		for i := node.idxStart; i < node.idxEnd; i++ {
			ptIdx := t.idxArray[i]
			d := t.metric.ReducedDistance(query, t.point(ptIdx))
			if h.Len() < k {
				heap.Push(h, knnItem{index: ptIdx, dist: d})
			} else if d < (*h)[0].dist {
				(*h)[0] = knnItem{index: ptIdx, dist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	left, right := 2*nodeID+1, 2*nodeID+2
	leftRdist := t.minRdistPoint(left, query)
	rightRdist := t.minRdistPoint(right, query)

	nearChild, farChild := left, right
	farRdist := rightRdist
	if rightRdist < leftRdist {
		nearChild, farChild = right, left
		farRdist = leftRdist
	}

	t.knnSearch(nearChild, query, k, h)

	if h.Len() < k || (*h)[0].dist > farRdist {
		t.knnSearch(farChild, query, k, h)
	}
}

// Radius returns the indices of all points within distance r of point i,
// in ascending index order.
func (t *BallTree) Radius(i int, r float64) ([]int, error) {
	if i < 0 || i >= t.n {
		return nil, fmt.Errorf("hdbscan: %w: point %d out of range [0, %d)", ErrInvalidParameter, i, t.n)
	}
	if r < 0 || math.IsNaN(r) {
		return nil, fmt.Errorf("hdbscan: %w: radius %g", ErrInvalidParameter, r)
	}
	var out []int
	t.radiusSearch(0, t.point(i), t.metric.DistToRdist(r), &out)
	sort.Ints(out)
	return out, nil
}

func (t *BallTree) radiusSearch(nodeID int, query []float64, rdist float64, out *[]int) {
	if t.minRdistPoint(nodeID, query) > rdist {
		return
	}
	node := t.nodes[nodeID]
	if node.isLeaf {
		for i := node.idxStart; i < node.idxEnd; i++ {
			ptIdx := t.idxArray[i]
			if t.metric.ReducedDistance(query, t.point(ptIdx)) <= rdist {
				*out = append(*out, ptIdx)
			}
		}
		return
	}
	t.radiusSearch(2*nodeID+1, query, rdist, out)
	t.radiusSearch(2*nodeID+2, query, rdist, out)
}

// minRdistPoint returns a lower bound in reduced-distance space on the
// distance between a point and any point in the given node:
// max(0, d(point, centroid) - radius).
func (t *BallTree) minRdistPoint(node int, point []float64) float64 {
	d := t.metric.Distance(point, t.centroid(node)) - t.nodes[node].radius
	return t.metric.DistToRdist(math.Max(d, 0))
}
