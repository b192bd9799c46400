package simplex

// BinaryVariant subdivides a leaf TN along its longest edge: a single new
// NGV is placed at that edge's midpoint, producing two child TNs that
// each replace one endpoint of the split edge with the midpoint — spec.md
// §4.E's binary-tree variant, kept distinct from BarycentricVariant's
// centroid refinement rather than unified with it (spec.md §9).
type BinaryVariant struct{}

func (BinaryVariant) subdivide(m *Map, leaf *TN) {
	longestI, longestJ, longest := 0, 1, -1.0
	for i := 0; i < len(leaf.Corners); i++ {
		for j := i + 1; j < len(leaf.Corners); j++ {
			d := dist(m.vertices[leaf.Corners[i]].Position, m.vertices[leaf.Corners[j]].Position)
			if d > longest {
				longest, longestI, longestJ = d, i, j
			}
		}
	}

	a := m.vertices[leaf.Corners[longestI]].Position
	b := m.vertices[leaf.Corners[longestJ]].Position
	mid := make([]float64, m.dim)
	for i := range mid {
		mid[i] = (a[i] + b[i]) / 2
	}
	midIdx := m.addVertex(mid)

	childA := make([]int, len(leaf.Corners))
	copy(childA, leaf.Corners)
	childA[longestJ] = midIdx

	childB := make([]int, len(leaf.Corners))
	copy(childB, leaf.Corners)
	childB[longestI] = midIdx

	linkNeighbors(m, childA)
	linkNeighbors(m, childB)

	leaf.Children = append(leaf.Children,
		&TN{Corners: childA, Depth: leaf.Depth + 1},
		&TN{Corners: childB, Depth: leaf.Depth + 1},
	)
}
