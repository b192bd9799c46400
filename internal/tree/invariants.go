package tree

import "github.com/arrowlake/mozt/internal/env"

// InvariantError signals corrupted tree state: a backup observed before
// any visit, or any other violation of the bookkeeping invariants spec.md
// §8 requires to hold at every observable point. It is always fatal.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "tree invariant violated: " + e.Msg }

// CheckDecisionNode verifies spec.md §8 property 1 for d: NumBackups <=
// NumVisits, and NumVisits equals the sum of its chance children's
// NumVisits. Caller must hold d's lock but none of its children's: the
// function takes each chance child's lock itself while reading its visit
// count. It is a read-only diagnostic never called from the hot path.
func CheckDecisionNode[P any](d *DecisionNode[P]) error {
	if d.NumBackups > d.NumVisits {
		return &InvariantError{Msg: "decision node has more backups than visits"}
	}
	var childVisits int
	var err error
	d.EachChild(func(_ env.Value, c *ChanceNode[P]) {
		c.Lock()
		childVisits += c.NumVisits
		c.Unlock()
	})
	if d.NumVisits != childVisits {
		err = &InvariantError{Msg: "decision node visit count does not equal sum of children's visit counts"}
	}
	return err
}
