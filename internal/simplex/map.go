package simplex

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Variant supplies the subdivision topology for a Map: how a leaf TN that
// has crossed the subdivision thresholds is refined into child TNs.
// BarycentricVariant and BinaryVariant are the two concrete
// implementations; spec.md §9 treats them as alternative, non-unified
// strategies over the same NGV arena and TN tree.
type Variant interface {
	subdivide(m *Map, leaf *TN)
}

// Map is the simplex map owned by a single chance (or decision) node's
// per-action value store: an NGV arena, a TN tree rooted at the whole
// weight simplex, and the subdivision policy (visit threshold, depth cap,
// L∞ value spread) that decides when a leaf refines.
type Map struct {
	dim         int
	variant     Variant
	vertices    []*NGV
	root        *TN
	visitThresh int
	lInfThresh  float64
	maxDepth    int
}

// NewMap creates a simplex map whose root TN is the full weight simplex,
// with one NGV at each of the dim standard-basis corners, using variant
// for subdivision.
func NewMap(dim int, variant Variant, visitThresh int, lInfThresh float64, maxDepth int) *Map {
	m := &Map{
		dim:         dim,
		variant:     variant,
		visitThresh: visitThresh,
		lInfThresh:  lInfThresh,
		maxDepth:    maxDepth,
	}
	corners := make([]int, dim)
	for i := 0; i < dim; i++ {
		pos := make([]float64, dim)
		pos[i] = 1
		corners[i] = m.addVertex(pos)
	}
	m.root = &TN{Corners: corners}
	linkNeighbors(m, corners)
	return m
}

func (m *Map) addVertex(pos []float64) int {
	idx := len(m.vertices)
	m.vertices = append(m.vertices, &NGV{Position: pos, Value: make([]float64, m.dim)})
	return idx
}

// Vertex returns the NGV at idx.
func (m *Map) Vertex(idx int) *NGV { return m.vertices[idx] }

// NumVertices reports the arena size.
func (m *Map) NumVertices() int { return len(m.vertices) }

// Root returns the map's root TN, mostly for diagnostics and tests.
func (m *Map) Root() *TN { return m.root }

func dist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// barycentricCoords solves for the barycentric coordinates of w against
// the simplex with the given corner positions. All positions (corners and
// w) are assumed to sum to 1, so the last coordinate's equation is
// redundant; a square (dim-1)x(dim-1) system is solved for the first
// dim-1 coordinates via gonum's Dense.Solve and the last is recovered
// from the partition-of-unity constraint.
func barycentricCoords(corners [][]float64, w []float64) ([]float64, error) {
	dim := len(corners)
	if dim == 1 {
		return []float64{1}, nil
	}
	n := dim - 1
	ref := corners[dim-1]
	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, 1, nil)
	for r := 0; r < n; r++ {
		b.Set(r, 0, w[r]-ref[r])
		for c := 0; c < n; c++ {
			a.Set(r, c, corners[c][r]-ref[r])
		}
	}
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, errors.Wrap(err, "barycentricCoords: singular simplex corners")
	}
	coords := make([]float64, dim)
	sum := 0.0
	for i := 0; i < n; i++ {
		coords[i] = x.At(i, 0)
		sum += coords[i]
	}
	coords[dim-1] = 1 - sum
	return coords, nil
}

const coordTol = 1e-7

func (m *Map) tnCorners(t *TN) [][]float64 {
	out := make([][]float64, len(t.Corners))
	for i, idx := range t.Corners {
		out[i] = m.vertices[idx].Position
	}
	return out
}

// contains reports whether w lies within t (up to coordTol), using
// barycentric coordinates: inside iff every coordinate is non-negative.
func (m *Map) contains(t *TN, w []float64) bool {
	coords, err := barycentricCoords(m.tnCorners(t), w)
	if err != nil {
		return false
	}
	for _, c := range coords {
		if c < -coordTol {
			return false
		}
	}
	return true
}

// locate descends the TN tree to the leaf containing w. Ties at shared
// faces are broken by visiting children in order and taking the first
// match; spec.md §8 property 4 requires the leaf set to partition the
// simplex, so a boundary point belonging to more than one child by the
// numerical tolerance is an acceptable tie, not an error.
func (m *Map) locate(w []float64) *TN {
	t := m.root
	for !t.isLeaf() {
		next := t.Children[0]
		for _, child := range t.Children {
			if m.contains(child, w) {
				next = child
				break
			}
		}
		t = next
	}
	return t
}

// closestNGV returns the index, among t's corners, of the NGV nearest w.
func (m *Map) closestNGV(t *TN, w []float64) int {
	best, bestDist := t.Corners[0], math.Inf(1)
	for _, idx := range t.Corners {
		if d := dist(w, m.vertices[idx].Position); d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

// ClosestVertex returns the index of the NGV nearest w within the leaf TN
// containing w — the "value at the NGV closest to w on that leaf" spec.md
// §4.E selection and §4.G's SM-BTS/SM-DENTS rules both read.
func (m *Map) ClosestVertex(w []float64) int {
	return m.closestNGV(m.locate(w), w)
}

func scalarize(w, v []float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * v[i]
	}
	return s
}

// push implements spec.md §4.E's message-passing rule: for each neighbor
// of idx, if the source NGV's updated value scalarises higher at the
// neighbor's own weight than the neighbor's current value does, overwrite
// the neighbor's value wholesale with the source's. Never pulls.
func (m *Map) push(idx int) {
	src := m.vertices[idx]
	for _, nbIdx := range src.Neighbors {
		nb := m.vertices[nbIdx]
		if scalarize(nb.Position, src.Value) > scalarize(nb.Position, nb.Value) {
			copy(nb.Value, src.Value)
		}
	}
}

// Backup folds one vector-return sample into the NGV closest to w within
// its leaf TN: an incremental mean update, a push of the improvement to
// neighbors, the leaf's own visit increment, then a subdivision check.
func (m *Map) Backup(w []float64, vectorReturn []float64) int {
	leaf := m.locate(w)
	idx := m.closestNGV(leaf, w)
	v := m.vertices[idx]
	v.Visits++
	n := float64(v.Visits)
	for i := range v.Value {
		v.Value[i] += (vectorReturn[i] - v.Value[i]) / n
	}
	m.push(idx)
	leaf.Visits++
	m.maybeSubdivide(leaf)
	return idx
}

func (m *Map) maybeSubdivide(leaf *TN) {
	if leaf.Visits < m.visitThresh || leaf.Depth >= m.maxDepth {
		return
	}
	values := make([][]float64, len(leaf.Corners))
	for i, idx := range leaf.Corners {
		values[i] = m.vertices[idx].Value
	}
	if lInfSpread(values) <= m.lInfThresh {
		return
	}
	m.variant.subdivide(m, leaf)
}

// linkNeighbors makes every pair of distinct NGVs in a newly-created TN's
// corner set mutual neighbors, so message passing reaches every corner a
// subdivision introduces.
func linkNeighbors(m *Map, corners []int) {
	for i := range corners {
		for j := range corners {
			if i == j {
				continue
			}
			addNeighborOnce(m.vertices[corners[i]], corners[j])
		}
	}
}

func addNeighborOnce(v *NGV, idx int) {
	for _, existing := range v.Neighbors {
		if existing == idx {
			return
		}
	}
	v.Neighbors = append(v.Neighbors, idx)
}
