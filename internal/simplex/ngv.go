// Package simplex implements the simplex map: a hierarchical partition of
// the weight simplex into triangulation nodes (TNs) whose corners are
// N-graph vertices (NGVs), each holding a running vector-value estimate
// that propagates to its neighbors by push-only message passing. Two
// subdivision topologies are supported — barycentric (centroid-based
// triangulation refinement) and binary-tree (longest-edge bisection) —
// which spec.md §4.E and §9 keep explicitly distinct rather than unified.
package simplex

// NGV is an N-graph vertex: a fixed weight-space position shared between
// every TN corner that touches it, a running vector-value estimate, and
// the neighbor list message-passing pushes along. Ownership: the Map that
// created an NGV owns it; neighbor edges are non-owning indices.
type NGV struct {
	Position  []float64
	Value     []float64
	Visits    int
	Neighbors []int

	// Entropy is an auxiliary running estimate SM-DENTS attaches to each
	// vertex alongside Value (spec.md §4.G "SM-DENTS"); every other caller
	// of this package leaves it at its zero value.
	Entropy float64
}
