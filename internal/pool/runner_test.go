package pool

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/tree"
)

// stepState is a minimal env.Value: an integer "depth reached" state for a
// tiny deterministic chain environment used only by this package's tests.
type stepState int

func (s stepState) Equal(other env.Value) bool { o, ok := other.(stepState); return ok && o == s }
func (s stepState) Hash() uint64               { return uint64(s) }

type stepAction int

func (a stepAction) Equal(other env.Value) bool { o, ok := other.(stepAction); return ok && o == a }
func (a stepAction) Hash() uint64               { return uint64(a) }

// chainEnv is a 2-objective environment whose states are a linear chain
// 0..depthLimit; two actions both advance the chain but award different
// reward vectors, and the chain sinks at depthLimit.
type chainEnv struct {
	depthLimit int
}

func (e *chainEnv) InitialState() env.State { return stepState(0) }

func (e *chainEnv) ValidActions(state env.State, ctx *env.Context) ([]env.Action, error) {
	if e.IsSink(state, ctx) {
		return nil, nil
	}
	return []env.Action{stepAction(0), stepAction(1)}, nil
}

func (e *chainEnv) IsSink(state env.State, ctx *env.Context) bool {
	return int(state.(stepState)) >= e.depthLimit
}

func (e *chainEnv) SampleTransition(state env.State, action env.Action, rng *rand.Rand, ctx *env.Context) (env.State, error) {
	return stepState(int(state.(stepState)) + 1), nil
}

func (e *chainEnv) TransitionDistribution(state env.State, action env.Action, ctx *env.Context) (map[env.Value]float64, bool) {
	return nil, false
}

func (e *chainEnv) MOReward(state env.State, action env.Action, ctx *env.Context) ([]float64, error) {
	if action.(stepAction) == 0 {
		return []float64{1, 0}, nil
	}
	return []float64{0, 1}, nil
}

func (e *chainEnv) SampleContext(tid int, rng *rand.Rand) *env.Context {
	return &env.Context{Weight: []float64{0.5, 0.5}, RNG: rng, ThreadID: tid}
}

func (e *chainEnv) RewardDim() int { return 2 }

// trivialPayload is an empty payload: this test exercises trial-walk
// mechanics (locking, visit bookkeeping, cancellation), not a real value
// store, which package ball/simplex/hull test on their own.
type trivialPayload struct{}

// backups is atomic: concurrent workers back up through different chance
// nodes under different locks.
type trivialAlgorithm struct{ backups atomic.Int64 }

func (a *trivialAlgorithm) NewDecisionPayload() trivialPayload            { return trivialPayload{} }
func (a *trivialAlgorithm) NewActionPayload(env.Action) trivialPayload    { return trivialPayload{} }
func (a *trivialAlgorithm) SelectAction(d *tree.DecisionNode[trivialPayload], ctx *env.Context) (env.Action, error) {
	var best env.Action
	d.EachChild(func(action env.Value, _ *tree.ChanceNode[trivialPayload]) {
		if best == nil || action.(stepAction) < best.(stepAction) {
			best = action
		}
	})
	return best, nil
}
func (a *trivialAlgorithm) BackupChance(*tree.ChanceNode[trivialPayload], []float64, *env.Context) {
	a.backups.Add(1)
}
func (a *trivialAlgorithm) BackupDecision(*tree.DecisionNode[trivialPayload], []float64, *env.Context) {
}
func (a *trivialAlgorithm) RecommendAction(d *tree.DecisionNode[trivialPayload], ctx *env.Context) (env.Action, error) {
	return a.SelectAction(d, ctx)
}

func TestRunTrialsCompletesExactCountAndMaintainsInvariants(t *testing.T) {
	e := &chainEnv{depthLimit: 3}
	alg := &trivialAlgorithm{}
	r, err := NewRunner[trivialPayload](e, alg, 10, 4, 42)
	require.NoError(t, err)

	require.NoError(t, r.RunTrials(context.Background(), 100))
	require.Equal(t, 100, int(alg.backups.Load())/3, "each trial backs up through 3 chance nodes")

	require.NoError(t, tree.CheckDecisionNode(r.Root()))
}

func TestRunTrialsForRespectsDeadline(t *testing.T) {
	e := &chainEnv{depthLimit: 3}
	alg := &trivialAlgorithm{}
	r, err := NewRunner[trivialPayload](e, alg, 10, 2, 7)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, r.RunTrialsFor(context.Background(), 50*time.Millisecond))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestRecommendReturnsValidAction(t *testing.T) {
	e := &chainEnv{depthLimit: 3}
	alg := &trivialAlgorithm{}
	r, err := NewRunner[trivialPayload](e, alg, 10, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.RunTrials(context.Background(), 5))

	action, err := r.Recommend([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, stepAction(0), action)
}

func TestMaxTrialLengthStopsBeforeSink(t *testing.T) {
	e := &chainEnv{depthLimit: 1000}
	alg := &trivialAlgorithm{}
	r, err := NewRunner[trivialPayload](e, alg, 2, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.RunTrials(context.Background(), 1))
	require.Equal(t, 2, int(alg.backups.Load()))
}
