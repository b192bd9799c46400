package mceval

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/policy"
)

type chainState int

func (s chainState) Equal(other env.Value) bool { o, ok := other.(chainState); return ok && o == s }
func (s chainState) Hash() uint64               { return uint64(s) }

type chainAction int

func (a chainAction) Equal(other env.Value) bool { o, ok := other.(chainAction); return ok && o == a }
func (a chainAction) Hash() uint64               { return uint64(a) }

// twoStepChain sinks after exactly 2 steps; each action awards reward on
// a fixed, known objective so a rollout's vector return is predictable.
type twoStepChain struct{}

func (twoStepChain) InitialState() env.State { return chainState(0) }
func (twoStepChain) ValidActions(state env.State, _ *env.Context) ([]env.Action, error) {
	if state.(chainState) >= 2 {
		return nil, nil
	}
	return []env.Action{chainAction(0), chainAction(1)}, nil
}
func (twoStepChain) IsSink(state env.State, _ *env.Context) bool { return state.(chainState) >= 2 }
func (twoStepChain) SampleTransition(state env.State, _ env.Action, _ *rand.Rand, _ *env.Context) (env.State, error) {
	return state.(chainState) + 1, nil
}
func (twoStepChain) TransitionDistribution(env.State, env.Action, *env.Context) (map[env.Value]float64, bool) {
	return nil, false
}
func (twoStepChain) MOReward(env.State, action env.Action, _ *env.Context) ([]float64, error) {
	if action.(chainAction) == 0 {
		return []float64{1, 0}, nil
	}
	return []float64{0, 1}, nil
}
func (twoStepChain) SampleContext(tid int, rng *rand.Rand) *env.Context {
	return &env.Context{Weight: []float64{0.5, 0.5}, RNG: rng, ThreadID: tid}
}
func (twoStepChain) RewardDim() int { return 2 }

type stubPlanner struct{ action env.Action }

func (s stubPlanner) RunTrials(context.Context, int) error              { return nil }
func (s stubPlanner) RunTrialsFor(context.Context, time.Duration) error { return nil }
func (s stubPlanner) Recommend([]float64) (env.Action, error)           { return s.action, nil }

func TestEvaluateAlwaysReachesSinkWithinTwoSteps(t *testing.T) {
	e := twoStepChain{}
	p := policy.New(stubPlanner{action: chainAction(0)}, e, nil)
	ev := New(e, p, 10, 4, 7)

	result, err := ev.Evaluate(context.Background(), 200, []float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, 200, result.Rollouts)
	require.Equal(t, 1.0, result.SinkFraction)
	require.Len(t, result.MeanVectorReturn, 2)
}

func TestEvaluateFirstStepAlwaysUsesRecommendedAction(t *testing.T) {
	e := twoStepChain{}
	// Recommending action 0 guarantees the first-step reward always lands
	// on objective 0; only the second, uniformly-chosen step is random.
	p := policy.New(stubPlanner{action: chainAction(0)}, e, nil)
	ev := New(e, p, 10, 1, 3)

	result, err := ev.Evaluate(context.Background(), 50, []float64{1, 0})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.MeanVectorReturn[0], 1.0, "first step always awards objective 0")
}

func TestEvaluateRejectsMismatchedWeightDimension(t *testing.T) {
	e := twoStepChain{}
	p := policy.New(stubPlanner{action: chainAction(0)}, e, nil)
	ev := New(e, p, 10, 1, 1)
	_, err := ev.Evaluate(context.Background(), 10, []float64{1})
	require.Error(t, err)
}
