// Package ball implements the Chebyshev-zoom ball partition: a
// hierarchical index of weight-space balls with UCB-style vector value
// estimates, used by the CZT and CHMCTS planners at each chance node's
// per-action value store (spec.md §4.D).
package ball

import (
	"math"
	"sort"
)

// Ball is a closed ball in weight space: center c, radius r, depth ℓ. It
// holds visit-weighted statistics and the bookkeeping needed to decide
// when it is eligible to split.
type Ball struct {
	Center []float64
	Radius float64
	Depth  int

	Visits   int
	ValueAvg []float64

	// splitCount tracks backups since this ball started accumulating
	// towards a split; reset whenever the ball itself is born (including
	// as a split child).
	splitCount int

	// active reports whether this ball may still itself accrue towards a
	// future split. A ball that has already split is retained in the list
	// (so it keeps covering any weight neither child's smaller radius
	// reaches) but never splits a second time.
	active bool

	// seq is the creation order, used to break center/radius ties in
	// favour of the older ball (spec.md §4.D tie-breaking rule).
	seq int
}

// List is the per-action list L of balls a chance node's ball-partition
// payload owns, ordered by decreasing radius (creation order among equal
// radii).
type List struct {
	dim      int
	balls    []*Ball
	nextSeq  int
	bias     float64
	splitAt  int // num_backups_before_allowed_to_split
}

// NewList creates a list covering the whole (dim-1)-simplex with a single
// root ball centered at the barycenter, radius the simplex diameter under
// the Euclidean metric (distance between two standard basis vectors is
// sqrt(2), which is the largest distance between two points of the
// simplex).
func NewList(dim int, bias float64, splitAt int) *List {
	center := make([]float64, dim)
	for i := range center {
		center[i] = 1.0 / float64(dim)
	}
	l := &List{dim: dim, bias: bias, splitAt: splitAt}
	l.balls = append(l.balls, &Ball{
		Center:   center,
		Radius:   math.Sqrt2,
		Depth:    0,
		ValueAvg: make([]float64, dim),
		active:   true,
		seq:      0,
	})
	l.nextSeq = 1
	return l
}

func dist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// Select returns the active ball for w: the smallest-radius ball in the
// list whose region contains w, ties broken by radius then by creation
// order (older wins). It never returns nil once the list is non-empty,
// which it always is after NewList.
func (l *List) Select(w []float64) *Ball {
	var best *Ball
	for _, b := range l.balls {
		if dist(w, b.Center) > b.Radius {
			continue
		}
		if best == nil {
			best = b
			continue
		}
		if b.Radius < best.Radius || (b.Radius == best.Radius && b.seq < best.seq) {
			best = b
		}
	}
	return best
}

// Bias returns the list's configured UCB exploration constant.
func (l *List) Bias() float64 { return l.bias }

// Backup updates the ball covering w with one new vector-return sample,
// advances its visit and split counters, and triggers a split if the
// eligibility conditions now hold. It returns the ball that was updated.
func (l *List) Backup(w []float64, vectorReturn []float64) *Ball {
	b := l.Select(w)
	b.Visits++
	n := float64(b.Visits)
	for i := range b.ValueAvg {
		b.ValueAvg[i] += (vectorReturn[i] - b.ValueAvg[i]) / n
	}
	if b.active {
		b.splitCount++
		if b.splitCount >= l.splitAt && rTargetSatisfied(b) {
			l.split(b)
		}
	}
	return b
}

// rTarget is the target relative radius for a ball with n visits: 1/sqrt(n).
// Resolved open question (SPEC_FULL.md §4.D): the standard Chebyshev-zoom
// shrink rate, chosen because any slower rate never allows splitting at
// small visit counts and any faster rate makes the depth check vacuous
// for the first few splits.
func rTarget(n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return 1 / math.Sqrt(float64(n))
}

func rTargetSatisfied(b *Ball) bool {
	relativeRadius := math.Pow(2, -float64(b.Depth))
	return relativeRadius >= rTarget(b.Visits)
}

// split replaces parent with two half-radius children covering its
// center: one inherits the parent's statistics, the other starts fresh
// offset along a cycling tangent direction of the simplex. The parent is
// retained in the list, deactivated, so it keeps covering any region
// neither child's smaller radius reaches (spec.md §4.D).
func (l *List) split(parent *Ball) {
	parent.active = false
	half := parent.Radius / 2

	inherited := &Ball{
		Center:   append([]float64(nil), parent.Center...),
		Radius:   half,
		Depth:    parent.Depth + 1,
		Visits:   parent.Visits,
		ValueAvg: append([]float64(nil), parent.ValueAvg...),
		active:   true,
		seq:      l.nextSeq,
	}
	l.nextSeq++

	dir := tangentDirection(l.dim, parent.Depth)
	freshCenter := projectToSimplex(offset(parent.Center, dir, half))
	fresh := &Ball{
		Center:   freshCenter,
		Radius:   half,
		Depth:    parent.Depth + 1,
		ValueAvg: make([]float64, l.dim),
		active:   true,
		seq:      l.nextSeq,
	}
	l.nextSeq++

	l.balls = append(l.balls, inherited, fresh)
	sort.SliceStable(l.balls, func(i, j int) bool { return l.balls[i].Radius > l.balls[j].Radius })
}

// tangentDirection returns a unit vector tangent to the weight simplex's
// hyperplane (components sum to zero), cycling through dim canonical
// directions by depth so repeated splits of a lineage fan out rather than
// collapsing onto the same axis.
func tangentDirection(dim, depth int) []float64 {
	i := depth % dim
	j := (i + 1) % dim
	d := make([]float64, dim)
	d[i] = 1
	d[j] = -1
	norm := math.Sqrt2
	for k := range d {
		d[k] /= norm
	}
	return d
}

func offset(center, dir []float64, scale float64) []float64 {
	out := make([]float64, len(center))
	for i := range out {
		out[i] = center[i] + scale*dir[i]
	}
	return out
}

// projectToSimplex clips negative components to zero and renormalizes so
// the result sums to one, keeping split children valid scalarising
// weights even when an offset would otherwise leave the simplex.
func projectToSimplex(w []float64) []float64 {
	sum := 0.0
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		// Degenerate: fall back to the barycenter.
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Balls exposes the underlying slice for diagnostics and tests. Callers
// must not mutate it.
func (l *List) Balls() []*Ball { return l.balls }
