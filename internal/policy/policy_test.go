package policy

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
)

type intVal int

func (v intVal) Equal(other env.Value) bool { o, ok := other.(intVal); return ok && o == v }
func (v intVal) Hash() uint64               { return uint64(v) }

// fakeEnv is a one-shot environment: one decision, two actions, both sinks.
type fakeEnv struct{}

func (fakeEnv) InitialState() env.State { return intVal(0) }
func (fakeEnv) ValidActions(env.State, *env.Context) ([]env.Action, error) {
	return []env.Action{intVal(1), intVal(2)}, nil
}
func (fakeEnv) IsSink(state env.State, _ *env.Context) bool { return state.(intVal) != 0 }
func (fakeEnv) SampleTransition(_ env.State, action env.Action, _ *rand.Rand, _ *env.Context) (env.State, error) {
	return action.(intVal), nil
}
func (fakeEnv) TransitionDistribution(env.State, env.Action, *env.Context) (map[env.Value]float64, bool) {
	return nil, false
}
func (fakeEnv) MOReward(env.State, env.Action, *env.Context) ([]float64, error) {
	return []float64{1, 0}, nil
}
func (fakeEnv) SampleContext(tid int, rng *rand.Rand) *env.Context {
	return &env.Context{Weight: []float64{0.5, 0.5}, RNG: rng, ThreadID: tid}
}
func (fakeEnv) RewardDim() int { return 2 }

// stubPlanner is a pool.Planner that always recommends a fixed action,
// regardless of weight -- enough to exercise Policy.Recommend's own
// valid-action check without a real search.
type stubPlanner struct{ action env.Action }

func (s stubPlanner) RunTrials(context.Context, int) error              { return nil }
func (s stubPlanner) RunTrialsFor(context.Context, time.Duration) error { return nil }
func (s stubPlanner) Recommend([]float64) (env.Action, error)           { return s.action, nil }

func TestRecommendRejectsActionOutsideValidSet(t *testing.T) {
	p := &Policy{
		Planner: stubPlanner{action: intVal(99)},
		Env:     fakeEnv{},
		RunID:   &config.RunID{},
	}
	_, err := p.Recommend(&env.Context{Weight: []float64{0.5, 0.5}})
	require.Error(t, err)
}

func TestRecommendPassesThroughValidAction(t *testing.T) {
	p := &Policy{
		Planner: stubPlanner{action: intVal(1)},
		Env:     fakeEnv{},
		RunID:   &config.RunID{},
	}
	action, err := p.Recommend(&env.Context{Weight: []float64{0.5, 0.5}})
	require.NoError(t, err)
	require.Equal(t, intVal(1), action)
}
