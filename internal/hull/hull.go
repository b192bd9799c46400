// Package hull implements the convex-hull store: the set of
// Pareto-non-dominated vector value points CHMCTS keeps on its decision
// and chance nodes for recommendation, pruned with an
// LP-based hull test rather than plain Pareto dominance alone (spec.md
// §4.F).
package hull

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/lp"
)

// Error wraps failures from the LP solver a Store's Prune relies on, so
// callers can distinguish "the LP was infeasible/numerically unstable"
// from ordinary bugs.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "hull: " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// entry is one stored candidate: its vector value and the tag it is
// recommended under if it survives pruning (spec.md §3/§4.F: "a set of
// tagged vector points (tag = action or next-state)").
type entry[T any] struct {
	point []float64
	tag   T
}

// Store holds a set of tagged vector value points in a reward space of
// fixed dimension, pruned to the points needed to be the scalarised
// maximizer for at least one weight vector in the simplex. T is the tag
// type a caller recovers from Query: an env.Action at a decision node's
// merged hull, or whatever else identifies a candidate at the level a
// Store is used.
type Store[T any] struct {
	dim     int
	entries []entry[T]
}

// NewStore creates an empty store over a dim-dimensional reward space.
func NewStore[T any](dim int) *Store[T] {
	return &Store[T]{dim: dim}
}

// Add appends a candidate point under tag without pruning. Callers batch
// additions and call Prune (or UnionPrune) once, since pruning is the
// expensive step.
func (s *Store[T]) Add(point []float64, tag T) {
	s.entries = append(s.entries, entry[T]{point: append([]float64(nil), point...), tag: tag})
}

// Points returns the store's current point set. Callers must not mutate
// the returned slices.
func (s *Store[T]) Points() [][]float64 {
	points := make([][]float64, len(s.entries))
	for i, e := range s.entries {
		points[i] = e.point
	}
	return points
}

// Snapshot returns a deep copy of s, so a caller holding a node's lock
// only long enough to read its hull (e.g. a decision node unioning each
// child chance node's hull in turn) can release that lock before acting
// on the copy.
func (s *Store[T]) Snapshot() *Store[T] {
	clone := &Store[T]{dim: s.dim, entries: make([]entry[T], len(s.entries))}
	for i, e := range s.entries {
		clone.entries[i] = entry[T]{point: append([]float64(nil), e.point...), tag: e.tag}
	}
	return clone
}

// dominates reports whether a Pareto-dominates b: at least as good in
// every objective, strictly better in at least one.
func dominates(a, b []float64) bool {
	strictlyBetter := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}

func removeDominated[T any](entries []entry[T]) []entry[T] {
	var kept []entry[T]
	for i, p := range entries {
		dominated := false
		for j, q := range entries {
			if i == j {
				continue
			}
			if dominates(q.point, p.point) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, p)
		}
	}
	return kept
}

// Prune reduces the store to its convex-hull-supporting points: first
// discarding plainly Pareto-dominated points, then, for each survivor,
// solving a small LP to test whether some weight vector in the simplex
// scalarises it strictly above every other remaining point. Points with
// no such weight are interior to the hull and are pruned too.
func (s *Store[T]) Prune(tol float64) error {
	// Identical points scalarise identically at every weight, so neither
	// copy could pass the LP test against the other; keep only the first.
	var unique []entry[T]
	for _, e := range s.entries {
		if !slices.ContainsFunc(unique, func(u entry[T]) bool { return slices.Equal(u.point, e.point) }) {
			unique = append(unique, e)
		}
	}
	candidates := removeDominated(unique)
	var kept []entry[T]
	for i, p := range candidates {
		others := make([][]float64, 0, len(candidates)-1)
		for j, q := range candidates {
			if i != j {
				others = append(others, q.point)
			}
		}
		if len(others) == 0 {
			kept = append(kept, p)
			continue
		}
		needed, err := isHullVertex(p.point, others, tol)
		if err != nil {
			return &Error{Op: "Prune", Err: err}
		}
		if needed {
			kept = append(kept, p)
		}
	}
	s.entries = kept
	return nil
}

// isHullVertex solves: maximize t such that there exists a weight w in
// the simplex with (p-q)·w >= t for every q in others. p is a needed hull
// vertex iff the optimal t exceeds tol — i.e. some weight scalarises p
// strictly above every other candidate.
//
// gonum's lp.Simplex minimizes c^T x subject to A x = b, x >= 0, so the
// free variable t is split into its positive and negative parts and the
// objective negated to turn the maximization into gonum's minimization
// form (standard 2-phase-simplex encoding).
func isHullVertex(p []float64, others [][]float64, tol float64) (bool, error) {
	dim := len(p)
	k := len(others)
	// Columns: w (dim), tPos, tNeg, slack_1..slack_k.
	ncols := dim + 2 + k
	nrows := 1 + k

	A := mat.NewDense(nrows, ncols, nil)
	b := make([]float64, nrows)

	// sum(w) == 1
	for i := 0; i < dim; i++ {
		A.Set(0, i, 1)
	}
	b[0] = 1

	// (p-q)*w - tPos + tNeg - slack_k == 0
	for row, q := range others {
		r := row + 1
		for i := 0; i < dim; i++ {
			A.Set(r, i, p[i]-q[i])
		}
		A.Set(r, dim, -1)   // tPos
		A.Set(r, dim+1, 1)  // tNeg
		A.Set(r, dim+2+row, -1) // slack_row
		b[r] = 0
	}

	c := make([]float64, ncols)
	c[dim] = -1   // minimize -tPos
	c[dim+1] = 1  // + tNeg  == maximize tPos - tNeg

	optF, _, err := lp.Simplex(c, A, b, tol, nil)
	if err != nil {
		return false, errors.Wrap(err, "lp.Simplex")
	}
	maxT := -optF
	return maxT > tol && !math.IsInf(maxT, 0), nil
}

// UnionPrune merges stores into a new store and prunes the result, the
// operation a decision node's backup uses to combine its children's
// hulls into its own (spec.md §4.F: "Union with another hull (used on
// backup from children)").
func UnionPrune[T any](tol float64, stores ...*Store[T]) (*Store[T], error) {
	if len(stores) == 0 {
		return nil, errors.New("hull: UnionPrune requires at least one store")
	}
	merged := NewStore[T](stores[0].dim)
	for _, s := range stores {
		merged.entries = append(merged.entries, s.entries...)
	}
	if err := merged.Prune(tol); err != nil {
		return nil, err
	}
	return merged, nil
}

// Query returns the point (and its tag) in the store that maximizes
// w·p, the scalarised-query operation CHMCTS's recommendation uses.
func (s *Store[T]) Query(w []float64) (best []float64, tag T, bestScore float64, ok bool) {
	bestScore = math.Inf(-1)
	for _, e := range s.entries {
		score := 0.0
		for i := range w {
			score += w[i] * e.point[i]
		}
		if score > bestScore {
			best, tag, bestScore, ok = e.point, e.tag, score, true
		}
	}
	return best, tag, bestScore, ok
}
