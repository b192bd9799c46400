// Package debugmo implements a small synthetic D-objective environment
// (D configurable, tested up to 6) used to exercise boundary behaviour
// spec.md §8 calls for: "D=2 and D=6 reward dimensions both run without
// dimension errors", and SM-BTS/SM-DENTS subdivision/entropy scenarios
// that need a reward surface with genuine cross-objective tension rather
// than gridsea's fixed D=2 treasure/cost shape.
//
// Grounded the same way gridsea is on the teacher's small comparable
// state type, generalized to a path of action indices instead of a grid
// position -- closer to the THTS sources' own "debug" MDP fixtures
// (original_source/mo/*_test.cpp construct tiny fixed-branching trees to
// drive unit tests), adapted into a standalone environment rather than
// copied as a test fixture.
package debugmo

import (
	"hash/fnv"
	"math/rand"

	"github.com/arrowlake/mozt/internal/env"
)

// Config parametrises the synthetic environment: Dim vector-reward
// components, Branching actions per decision node, Depth decision layers
// before every remaining path becomes a sink.
type Config struct {
	Dim       int
	Branching int
	Depth     int
}

// Default returns a 4-objective, 3-action, depth-6 configuration -- the
// "4-objective debug environment" spec.md §8 scenario 4 exercises.
func Default() Config {
	return Config{Dim: 4, Branching: 3, Depth: 6}
}

// pathState is the sequence of action indices taken from the root; two
// states are equal iff their full path is, so the tree never aliases
// distinct histories even though debugmo's transitions are deterministic.
type pathState struct {
	path string // path encoded as one byte per action index, cheap to hash/compare
}

func (s pathState) Equal(other env.Value) bool {
	o, ok := other.(pathState)
	return ok && o.path == s.path
}

func (s pathState) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s.path))
	return h.Sum64()
}

type intAction int

func (a intAction) Equal(other env.Value) bool {
	o, ok := other.(intAction)
	return ok && o == a
}

func (a intAction) Hash() uint64 { return uint64(a) }

// Env is a deterministic, fixed-branching synthetic multi-objective MDP:
// each action biases reward towards one objective (action index modulo
// Dim), so different scalarising weights provably prefer different
// action sequences, giving SM-BTS/SM-DENTS subdivision something genuine
// to refine around.
type Env struct {
	cfg Config
}

// New builds a debugmo environment. Dim must be >= 2, Branching >= 1,
// Depth >= 1.
func New(cfg Config) *Env {
	if cfg.Dim < 2 || cfg.Branching < 1 || cfg.Depth < 1 {
		panic("debugmo: invalid configuration")
	}
	return &Env{cfg: cfg}
}

func (e *Env) InitialState() env.State { return pathState{} }

func (e *Env) IsSink(state env.State, _ *env.Context) bool {
	return len(state.(pathState).path) >= e.cfg.Depth
}

func (e *Env) ValidActions(state env.State, _ *env.Context) ([]env.Action, error) {
	if e.IsSink(state, nil) {
		return nil, nil
	}
	actions := make([]env.Action, e.cfg.Branching)
	for i := range actions {
		actions[i] = intAction(i)
	}
	return actions, nil
}

func (e *Env) SampleTransition(state env.State, action env.Action, _ *rand.Rand, _ *env.Context) (env.State, error) {
	p := state.(pathState)
	return pathState{path: p.path + string(rune(byte(action.(intAction))))}, nil
}

func (e *Env) TransitionDistribution(state env.State, action env.Action, _ *env.Context) (map[env.Value]float64, bool) {
	next, _ := e.SampleTransition(state, action, nil, nil)
	return map[env.Value]float64{next: 1}, true
}

// MOReward biases objective (int(action) % Dim) with a strong signal and
// every other objective with a small, depth-decaying baseline, so the
// vector return's Pareto front genuinely depends on which actions were
// taken, not just how many steps elapsed.
func (e *Env) MOReward(state env.State, action env.Action, _ *env.Context) ([]float64, error) {
	depth := len(state.(pathState).path)
	focus := int(action.(intAction)) % e.cfg.Dim
	reward := make([]float64, e.cfg.Dim)
	decay := 1.0 / float64(depth+1)
	for d := range reward {
		reward[d] = 0.1 * decay
	}
	reward[focus] += 1.0
	return reward, nil
}

func (e *Env) SampleContext(tid int, rng *rand.Rand) *env.Context {
	return &env.Context{Weight: sampleSimplex(rng, e.cfg.Dim), RNG: rng, ThreadID: tid}
}

func (e *Env) RewardDim() int { return e.cfg.Dim }

func sampleSimplex(rng *rand.Rand, dim int) []float64 {
	w := make([]float64, dim)
	sum := 0.0
	for i := range w {
		w[i] = rng.ExpFloat64()
		if w[i] == 0 {
			w[i] = 1e-12
		}
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
