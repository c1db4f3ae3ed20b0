package hdbscan

import (
	"container/heap"
	"fmt"
	"math"
	"slices"
	"sort"
)

// kdNode describes one node of a KDTree.
type kdNode struct {
	idxStart, idxEnd int
	isLeaf           bool
}

// KDTree is a KD-tree spatial index answering k-nearest-neighbor and
// fixed-radius queries. Points are stored in a flat row-major array and
// reordered internally via an index permutation array.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
//
// A built tree is read-only, so queries may run concurrently.
type KDTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int
	dims     int
	leafSize int
	metric   DistanceMetric
	idxArray []int // permutation: tree-order position → original index
	nodes    []kdNode
	// boundsMin[node*dims + j] = min value of feature j in node
	boundsMin []float64
	// boundsMax[node*dims + j] = max value of feature j in node
	boundsMax []float64
}

// NewKDTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. leafSize controls the max points per leaf node.
// metric must satisfy KDTreeValidMetric.
func NewKDTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}

	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, leafSize)
	t := &KDTree{
		data:      data,
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		metric:    metric,
		idxArray:  idxArray,
		nodes:     make([]kdNode, maxNodes),
		boundsMin: make([]float64, maxNodes*dims),
		boundsMax: make([]float64, maxNodes*dims),
	}
	if n > 0 {
		t.buildNode(0, 0, n)
	}
	return t
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	for v := 1; v < leaves; v *= 2 {
		depth++
	}
	// Median splits can leave one extra level.
	return (1 << (depth + 2)) - 1
}

func (t *KDTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, kdNode{})
		t.boundsMin = append(t.boundsMin, make([]float64, t.dims)...)
		t.boundsMax = append(t.boundsMax, make([]float64, t.dims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = kdNode{idxStart: start, idxEnd: end, isLeaf: true}
		return
	}

	// Split along the dimension with the greatest spread, at the median.
	splitDim := 0
	maxSpread := -1.0
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		if spread := t.boundsMax[base+d] - t.boundsMin[base+d]; spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	sub := t.idxArray[start:end]
	sort.Slice(sub, func(i, j int) bool {
		return t.data[sub[i]*t.dims+splitDim] < t.data[sub[j]*t.dims+splitDim]
	})
	mid := start + count/2

	t.nodes[nodeID] = kdNode{idxStart: start, idxEnd: end}
	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.boundsMin[base+d] = math.Inf(1)
		t.boundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		pt := t.point(t.idxArray[i])
		for d, v := range pt {
			t.boundsMin[base+d] = math.Min(t.boundsMin[base+d], v)
			t.boundsMax[base+d] = math.Max(t.boundsMax[base+d], v)
		}
	}
}

func (t *KDTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

// NumPoints returns the number of indexed points.
func (t *KDTree) NumPoints() int { return t.n }

// KNN returns the sorted distances from point i to its k nearest neighbors,
// point i included.
func (t *KDTree) KNN(i, k int) ([]float64, error) {
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

// knnSearch performs a single-tree KNN traversal using a max-heap of size k
// keyed by reduced distance.
func (t *KDTree) knnSearch(nodeID int, query []float64, k int, h *knnHeap) {
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

	// Visit the nearer child first.
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
func (t *KDTree) Radius(i int, r float64) ([]int, error) {
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

func (t *KDTree) radiusSearch(nodeID int, query []float64, rdist float64, out *[]int) {
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
// distance between a point and any point in the given node.
func (t *KDTree) minRdistPoint(node int, point []float64) float64 {
	base := node * t.dims
	p := metricP(t.metric)

	var rdist float64
	for j := 0; j < t.dims; j++ {
		lo := t.boundsMin[base+j]
		hi := t.boundsMax[base+j]
		var d float64
		if point[j] < lo {
			d = lo - point[j]
		} else if point[j] > hi {
			d = point[j] - hi
		}
		if math.IsInf(p, 1) {
			rdist = math.Max(rdist, d)
		} else {
			rdist += math.Pow(d, p)
		}
	}
	return rdist
}

// metricP returns the Minkowski exponent for the metric: 2 for Euclidean,
// 1 for Manhattan, +Inf for Chebyshev.
func metricP(m DistanceMetric) float64 {
	switch v := m.(type) {
	case EuclideanMetric:
		return 2.0
	case ManhattanMetric:
		return 1.0
	case MinkowskiMetric:
		return v.P
	case ChebyshevMetric:
		return math.Inf(1)
	default:
		return 2.0
	}
}

// trueDistances drains a reduced-distance heap and returns the exact
// distances from query to its members in ascending order.
func trueDistances(h knnHeap, query []float64, metric DistanceMetric, point func(int) []float64) []float64 {
	dist := make([]float64, len(h))
	for j, item := range h {
		dist[j] = metric.Distance(query, point(item.index))
	}
	slices.Sort(dist)
	return dist
}

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (largest distance on top) used as a
// bounded priority queue for KNN queries.
type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
