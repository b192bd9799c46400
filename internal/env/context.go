package env

import "math/rand"

// Context is the trial-local data created once per trial and threaded
// explicitly through every decision/chance node operation for that trial.
// It is never stored on a node: the scalarising weight, the RNG and the
// LastAction scratch field are the only per-trial state the search touches.
type Context struct {
	// Weight is the scalarising weight w in the (D-1)-simplex: non-negative,
	// summing to 1, length RewardDim.
	Weight []float64

	// RNG is this trial's thread-local random source.
	RNG *rand.Rand

	// ThreadID identifies the worker goroutine that owns this context.
	ThreadID int

	// LastAction is trial-local scratch: the most recently selected action,
	// useful for planners and environments that want to log or condition on
	// it without threading an extra return value through every call.
	LastAction Action
}

// ScalarValue reduces a vector value to a scalar via the inner product with
// the context's weight: <w, v>.
func (c *Context) ScalarValue(v []float64) float64 {
	var s float64
	for i, wi := range c.Weight {
		s += wi * v[i]
	}
	return s
}
