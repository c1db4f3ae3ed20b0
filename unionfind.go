package hdbscan

// DisjointSet is the union-find abstraction used to build the hierarchy and
// to resolve point labels. Representatives are opaque: callers that need a
// stable name for a component keep their own representative → name table.
type DisjointSet interface {
	// Find returns the representative of the set containing x.
	Find(x int) int
	// Union merges the sets containing x and y and returns the new
	// representative.
	Union(x, y int) int
	// ComponentSize returns the number of elements in the set containing x.
	ComponentSize(x int) int
}

// UnionFind implements DisjointSet with path compression and union by size.
// Sets only ever grow; there is no split operation.
type UnionFind struct {
	parent []int
	size   []int
}

var _ DisjointSet = (*UnionFind)(nil)

// NewUnionFind creates a UnionFind of n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range parent {
		parent[i] = -1 // -1 means "is a root"
		size[i] = 1
	}
	return &UnionFind{parent: parent, size: size}
}

// Find returns the root of the set containing x, with path compression.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Union merges the sets containing x and y by attaching the smaller tree
// under the larger. Returns the new root.
func (uf *UnionFind) Union(x, y int) int {
	rootX := uf.Find(x)
	rootY := uf.Find(y)
	if rootX == rootY {
		return rootX
	}

	if uf.size[rootX] < uf.size[rootY] {
		rootX, rootY = rootY, rootX
	}
	uf.parent[rootY] = rootX
	uf.size[rootX] += uf.size[rootY]
	return rootX
}

// ComponentSize returns the size of the set containing x.
func (uf *UnionFind) ComponentSize(x int) int {
	return uf.size[uf.Find(x)]
}
