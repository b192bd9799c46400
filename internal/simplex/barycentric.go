package simplex

// BarycentricVariant subdivides a leaf TN by placing a new NGV at the
// leaf's centroid and creating dim child simplices, each sharing dim-1 of
// the parent's corners plus the new centroid NGV — spec.md §4.E's
// triangulation refinement.
type BarycentricVariant struct{}

func (BarycentricVariant) subdivide(m *Map, leaf *TN) {
	centroid := make([]float64, m.dim)
	for _, idx := range leaf.Corners {
		pos := m.vertices[idx].Position
		for i := range centroid {
			centroid[i] += pos[i]
		}
	}
	for i := range centroid {
		centroid[i] /= float64(len(leaf.Corners))
	}
	centroidIdx := m.addVertex(centroid)

	for replaced := range leaf.Corners {
		childCorners := make([]int, len(leaf.Corners))
		copy(childCorners, leaf.Corners)
		childCorners[replaced] = centroidIdx
		linkNeighbors(m, childCorners)
		leaf.Children = append(leaf.Children, &TN{Corners: childCorners, Depth: leaf.Depth + 1})
	}
}
