// Package tree implements the shared decision/chance node framework every
// planner variant (CZT, CHMCTS, SM-BTS, SM-DENTS) builds on: children maps,
// per-node locking, and the two visit counters spec.md §4.C calls for.
//
// The framework is generic over a planner-specific value-store payload P —
// a ball partition, a simplex map, a convex hull, or a combination of them
// — so locking and child-creation logic is written once and shared, while
// selection/backup semantics live in package planner alongside each
// payload type.
package tree

import (
	"sync"

	"github.com/arrowlake/mozt/internal/env"
)

// DecisionNode is identified by (state, decision depth). Its children map
// is pre-populated with one ChanceNode per valid action at construction
// time — so a planner's selection rule can enumerate unvisited actions
// without a separate existence check — and is otherwise append-only.
type DecisionNode[P any] struct {
	sync.Mutex

	State    env.State
	Depth    int
	Parent   *ChanceNode[P] // nil at the root
	Children *edgeMap[*ChanceNode[P]]

	// NumVisits is advanced on the downward pass (selection uses it to
	// bias exploration even before backups complete). NumBackups is
	// advanced on the upward pass. Both are guarded by this node's mutex.
	NumVisits  int
	NumBackups int

	// Payload is the planner-specific value store for this node.
	Payload P
}

// NewDecisionNode builds a decision node carrying payload, with one
// chance child per action in actions, each carrying a freshly constructed
// payload from newActionPayload. actions is the environment's valid
// action set for state; it is empty for a sink state, whose decision node
// then has no chance children.
func NewDecisionNode[P any](state env.State, depth int, payload P, actions []env.Action, newActionPayload func(action env.Action) P, parent *ChanceNode[P]) *DecisionNode[P] {
	d := &DecisionNode[P]{
		State:    state,
		Depth:    depth,
		Parent:   parent,
		Children: newEdgeMap[*ChanceNode[P]](),
		Payload:  payload,
	}
	for _, a := range actions {
		d.Children.set(a, newChanceNode(state, a, depth, d, newActionPayload(a)))
	}
	return d
}

// Visit advances the downward-pass counter. Caller must hold the node's
// lock.
func (d *DecisionNode[P]) Visit() { d.NumVisits++ }

// RecordBackup advances the upward-pass counter. Caller must hold the
// node's lock.
func (d *DecisionNode[P]) RecordBackup() { d.NumBackups++ }

// ChanceChild returns the pre-populated chance child for action, or false
// if action isn't one of this node's valid actions. Caller must hold the
// node's lock, or rely on the append-only/pre-populated invariant to read
// without one once the node itself is known to be fully constructed.
func (d *DecisionNode[P]) ChanceChild(action env.Action) (*ChanceNode[P], bool) {
	return d.Children.get(action)
}

// EachChild iterates over every (action, chance child) pair. Caller must
// hold the node's lock.
func (d *DecisionNode[P]) EachChild(fn func(action env.Action, child *ChanceNode[P])) {
	d.Children.each(fn)
}

// NumChildren reports how many chance children this node has (== number of
// valid actions at its state).
func (d *DecisionNode[P]) NumChildren() int { return d.Children.len() }

// ChanceNode is identified by (state, action, decision depth). Its
// decision-node children are created lazily: one per distinct observed
// next state, the first time that state is sampled.
type ChanceNode[P any] struct {
	sync.Mutex

	State    env.State
	Action   env.Action
	Depth    int
	Parent   *DecisionNode[P]
	Children *edgeMap[*DecisionNode[P]]

	NumVisits  int
	NumBackups int

	// LocalReward is the vector reward sampled the first time this chance
	// node is visited (spec.md §3: "holds... the local vector reward
	// sampled when first visited").
	LocalReward   []float64
	hasLocalReward bool

	Payload P
}

func newChanceNode[P any](state env.State, action env.Action, depth int, parent *DecisionNode[P], payload P) *ChanceNode[P] {
	return &ChanceNode[P]{
		State:    state,
		Action:   action,
		Depth:    depth,
		Parent:   parent,
		Children: newEdgeMap[*DecisionNode[P]](),
		Payload:  payload,
	}
}

// Visit advances the downward-pass counter. Caller must hold the node's
// lock.
func (c *ChanceNode[P]) Visit() { c.NumVisits++ }

// RecordBackup advances the upward-pass counter. Caller must hold the
// node's lock.
func (c *ChanceNode[P]) RecordBackup() { c.NumBackups++ }

// SetLocalRewardOnce records the vector reward for this chance node the
// first time it is visited; subsequent calls are no-ops, matching the
// "sampled when first visited" data-model invariant. Caller must hold the
// node's lock.
func (c *ChanceNode[P]) SetLocalRewardOnce(reward []float64) {
	if c.hasLocalReward {
		return
	}
	c.LocalReward = reward
	c.hasLocalReward = true
}

// HasLocalReward reports whether SetLocalRewardOnce has run yet. Caller
// must hold the node's lock.
func (c *ChanceNode[P]) HasLocalReward() bool { return c.hasLocalReward }

// GetOrCreateChild returns the existing decision-node child for nextState,
// or builds one via build (typically a call back into NewDecisionNode with
// the environment's valid actions at nextState). The framework guarantees
// at most one child exists per key: the check-and-insert happens under
// this node's own lock, which the caller must already hold — this is the
// "create_child_helper" double-check spec.md §4.C requires, adapted to
// Go's explicit-locking idiom rather than the teacher's implicit one
// (hiveGo's board cache relies on a single-threaded search and has no such
// race to guard).
func (c *ChanceNode[P]) GetOrCreateChild(nextState env.State, build func() *DecisionNode[P]) (child *DecisionNode[P], created bool) {
	if existing, ok := c.Children.get(nextState); ok {
		return existing, false
	}
	child = build()
	c.Children.set(nextState, child)
	return child, true
}

// EachChild iterates over every (next state, decision child) pair. Caller
// must hold the node's lock.
func (c *ChanceNode[P]) EachChild(fn func(nextState env.State, child *DecisionNode[P])) {
	c.Children.each(fn)
}
