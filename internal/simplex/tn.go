package simplex

// TN is a triangulation node: a simplex of the weight simplex whose
// corners are indices into the Map's NGV arena. A TN with no children is
// a leaf the map's lookup and backup operate on directly; an internal TN
// only routes point-location descent to its children.
type TN struct {
	Corners  []int
	Children []*TN
	Depth    int
	Visits   int
}

func (t *TN) isLeaf() bool { return len(t.Children) == 0 }

func lInfSpread(vectors [][]float64) float64 {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0
	}
	dim := len(vectors[0])
	spread := 0.0
	for d := 0; d < dim; d++ {
		lo, hi := vectors[0][d], vectors[0][d]
		for _, v := range vectors[1:] {
			if v[d] < lo {
				lo = v[d]
			}
			if v[d] > hi {
				hi = v[d]
			}
		}
		if hi-lo > spread {
			spread = hi - lo
		}
	}
	return spread
}
