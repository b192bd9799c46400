// Package gridsea implements a small built-in deep-sea-treasure-like grid
// environment: an agent starts at the sea surface and must choose between
// nearby, low-value treasures and further, higher-value ones, trading off
// against a per-step time cost. It is the bi-objective (D=2) environment
// spec.md §8's concrete end-to-end scenarios exercise (deterministic and
// stochastic variants), grounded on the teacher repository's own small,
// self-contained state type (internal/state.Pos: a comparable (x,y) pair
// hashed with hash/fnv) generalized to satisfy env.Value.
package gridsea

import (
	"hash/fnv"
	"math/rand"

	"github.com/arrowlake/mozt/internal/env"
)

// Config describes one deep-sea-treasure grid: for each column c, a
// seafloor depth Depths[c] (the row the treasure sits at) and a treasure
// value Values[c]. StepCost is subtracted from the second reward
// component every move; StayProb is the probability a chosen action fails
// to move the submarine at all (the stochastic variant spec.md §8
// scenario 3 exercises).
type Config struct {
	Depths   []int
	Values   []float64
	StepCost float64
	StayProb float64
	// FixedWeight, if non-nil, is returned by every SampleContext instead
	// of a uniformly sampled one -- used by spec.md §8 scenarios 1-2, which
	// fix w to (1,0) and (0,1) respectively.
	FixedWeight []float64
}

// Classic returns the preset 5-column deep-sea-treasure grid spec.md §8's
// "deterministic 5-step deep-sea-like environment" scenarios run against:
// monotonically deeper, more valuable treasures the further right the
// agent travels, each column's floor one row under-water further out than
// the last wherever the treasure itself does not already provide that
// step, stepCost -1 per move.
func Classic() Config {
	return Config{
		Depths:   []int{1, 2, 3, 4, 4},
		Values:   []float64{1, 2, 3, 5, 8},
		StepCost: 1,
	}
}

// pos is a grid cell: (row, col), row increasing with depth. It carries
// no separate sink marker: a cell is a sink iff its row equals its
// column's treasure depth, and reaching a treasure cell always ends the
// episode.
type pos struct {
	row, col int
}

func (p pos) Equal(other env.Value) bool {
	o, ok := other.(pos)
	return ok && o == p
}

func (p pos) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	buf[0] = byte(p.row)
	buf[1] = byte(p.row >> 8)
	buf[2] = byte(p.row >> 16)
	buf[3] = byte(p.row >> 24)
	buf[4] = byte(p.col)
	buf[5] = byte(p.col >> 8)
	buf[6] = byte(p.col >> 16)
	buf[7] = byte(p.col >> 24)
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// move is one of the four compass directions, the grid's action type.
type move int

const (
	up move = iota
	down
	left
	right
)

var allMoves = []move{up, down, left, right}

func (m move) Equal(other env.Value) bool {
	o, ok := other.(move)
	return ok && o == m
}

func (m move) Hash() uint64 { return uint64(m) }

func (m move) String() string {
	switch m {
	case up:
		return "up"
	case down:
		return "down"
	case left:
		return "left"
	case right:
		return "right"
	default:
		return "?"
	}
}

// Env is a deep-sea-treasure grid environment: vector reward (treasure
// value, -accumulated step cost), sink on reaching any column's treasure
// cell.
type Env struct {
	cfg Config
}

// New builds a grid environment from cfg. Depths and Values must be the
// same non-zero length.
func New(cfg Config) *Env {
	if len(cfg.Depths) != len(cfg.Values) || len(cfg.Depths) == 0 {
		panic("gridsea: Depths and Values must be equal-length and non-empty")
	}
	return &Env{cfg: cfg}
}

func (e *Env) numCols() int { return len(e.cfg.Depths) }

func (e *Env) InitialState() env.State { return pos{row: 0, col: 0} }

func (e *Env) IsSink(state env.State, _ *env.Context) bool {
	p := state.(pos)
	return p.row == e.cfg.Depths[p.col]
}

// passable reports whether (row, col) is a legal cell to occupy: inside
// the grid and not below the seafloor at that column (the classic DST
// triangular shape: columns get deeper, and rows below a column's own
// floor are rock, not water).
func (e *Env) passable(row, col int) bool {
	if col < 0 || col >= e.numCols() || row < 0 {
		return false
	}
	return row <= e.cfg.Depths[col]
}

func (e *Env) apply(p pos, m move) pos {
	switch m {
	case up:
		return pos{row: p.row - 1, col: p.col}
	case down:
		return pos{row: p.row + 1, col: p.col}
	case left:
		return pos{row: p.row, col: p.col - 1}
	case right:
		return pos{row: p.row, col: p.col + 1}
	default:
		return p
	}
}

func (e *Env) ValidActions(state env.State, _ *env.Context) ([]env.Action, error) {
	if e.IsSink(state, nil) {
		return nil, nil
	}
	p := state.(pos)
	var actions []env.Action
	for _, m := range allMoves {
		next := e.apply(p, m)
		if e.passable(next.row, next.col) {
			actions = append(actions, m)
		}
	}
	return actions, nil
}

func (e *Env) SampleTransition(state env.State, action env.Action, rng *rand.Rand, _ *env.Context) (env.State, error) {
	p := state.(pos)
	if e.cfg.StayProb > 0 && rng.Float64() < e.cfg.StayProb {
		return p, nil
	}
	return e.apply(p, action.(move)), nil
}

func (e *Env) TransitionDistribution(state env.State, action env.Action, _ *env.Context) (map[env.Value]float64, bool) {
	p := state.(pos)
	next := e.apply(p, action.(move))
	if e.cfg.StayProb <= 0 {
		return map[env.Value]float64{next: 1}, true
	}
	dist := map[env.Value]float64{next: 1 - e.cfg.StayProb}
	dist[env.Value(p)] += e.cfg.StayProb
	return dist, true
}

// MOReward is computed from the intended destination of action, not from
// whichever cell SampleTransition actually lands on: spec.md §4.A gives
// mo_reward no RNG, so the stochastic "current" that occasionally holds
// the submarine in place is folded into SampleTransition only, exactly as
// a deep-sea-treasure agent's reward table is defined over the attempted
// move.
func (e *Env) MOReward(state env.State, action env.Action, _ *env.Context) ([]float64, error) {
	p := state.(pos)
	next := e.apply(p, action.(move))
	reward := []float64{0, -e.cfg.StepCost}
	if e.IsSink(next, nil) {
		reward[0] = e.cfg.Values[next.col]
	}
	return reward, nil
}

func (e *Env) SampleContext(tid int, rng *rand.Rand) *env.Context {
	w := e.cfg.FixedWeight
	if w == nil {
		w = sampleSimplex(rng, 2)
	}
	return &env.Context{Weight: w, RNG: rng, ThreadID: tid}
}

func (e *Env) RewardDim() int { return 2 }

// sampleSimplex draws a weight uniformly from the (dim-1)-simplex via the
// standard exponential-spacings construction.
func sampleSimplex(rng *rand.Rand, dim int) []float64 {
	w := make([]float64, dim)
	sum := 0.0
	for i := range w {
		w[i] = -rng.ExpFloat64()
		if w[i] == 0 {
			w[i] = 1e-12
		}
		w[i] = -w[i]
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Bounds returns the per-objective (min, max) reward bounds this
// configuration can produce: min = (0, -stepCost*(maxDepth+numCols)), max =
// (maxTreasureValue, 0), the pair spec.md §8 scenario 1 states as
// (0,-L)/(23.7,0) for its own preset.
func (e *Env) Bounds() (min, max []float64) {
	maxDepth := 0
	maxValue := 0.0
	for i, d := range e.cfg.Depths {
		if d > maxDepth {
			maxDepth = d
		}
		if e.cfg.Values[i] > maxValue {
			maxValue = e.cfg.Values[i]
		}
	}
	return []float64{0, -e.cfg.StepCost * float64(maxDepth+e.numCols())}, []float64{maxValue, 0}
}
