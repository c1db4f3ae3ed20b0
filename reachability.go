package hdbscan

import (
	"fmt"
	"math"
)

// MutualReachability derives mutual reachability distances on demand from
// core distances and a raw DistanceProvider. It stores nothing beyond the
// core distance slice, so the full n×n table is never built here.
type MutualReachability struct {
	core  []float64
	dist  DistanceProvider
	alpha float64
}

// NewMutualReachability returns the oracle
//
//	mreach(i, j) = max(core[i], core[j], alpha * d(i, j))
//
// alpha scales only the raw distance term, never the core distances.
func NewMutualReachability(core []float64, dist DistanceProvider, alpha float64) *MutualReachability {
	return &MutualReachability{core: core, dist: dist, alpha: alpha}
}

// NumPoints returns the number of points covered by the oracle.
func (m *MutualReachability) NumPoints() int { return len(m.core) }

// CoreDistance returns the core distance of point i, which is also
// mreach(i, i).
func (m *MutualReachability) CoreDistance(i int) float64 { return m.core[i] }

// Distance returns mreach(i, j).
func (m *MutualReachability) Distance(i, j int) float64 {
	if i == j {
		return m.core[i]
	}
	return m.combine(i, j, m.dist.Distance(i, j))
}

// checkedDistance is Distance that rejects a NaN or negative raw distance
// instead of letting max mask or propagate it.
func (m *MutualReachability) checkedDistance(i, j int) (float64, error) {
	if i == j {
		return m.core[i], nil
	}
	d := m.dist.Distance(i, j)
	if math.IsNaN(d) || d < 0 {
		return 0, fmt.Errorf("hdbscan: %w: distance between points %d and %d is %g",
			ErrInvalidDistance, i, j, d)
	}
	return m.combine(i, j, d), nil
}

func (m *MutualReachability) combine(i, j int, d float64) float64 {
	if m.alpha != 1.0 {
		d *= m.alpha
	}
	return max(d, m.core[i], m.core[j])
}
