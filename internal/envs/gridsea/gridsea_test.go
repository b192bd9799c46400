package gridsea

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrowlake/mozt/internal/env"
)

func TestClassicInitialStateIsNotSink(t *testing.T) {
	e := New(Classic())
	require.False(t, e.IsSink(e.InitialState(), nil))
}

func TestValidActionsEmptyOnlyAtSink(t *testing.T) {
	e := New(Classic())
	actions, err := e.ValidActions(pos{row: 1, col: 0}, nil)
	require.NoError(t, err)
	require.Empty(t, actions, "(1,0) is column 0's treasure cell")
}

func TestGreedyRightMostPathReachesDeepestTreasure(t *testing.T) {
	e := New(Classic())
	rng := rand.New(rand.NewSource(1))
	ctx := &env.Context{Weight: []float64{1, 0}, RNG: rng}

	state := e.InitialState()
	for i := 0; i < 20 && !e.IsSink(state, ctx); i++ {
		// Greedily move right/down toward the highest-value column.
		actions, err := e.ValidActions(state, ctx)
		require.NoError(t, err)
		var chosen env.Action
		for _, a := range actions {
			if a.(move) == right {
				chosen = a
			}
		}
		if chosen == nil {
			for _, a := range actions {
				if a.(move) == down {
					chosen = a
				}
			}
		}
		require.NotNil(t, chosen)
		next, err := e.SampleTransition(state, chosen, rng, ctx)
		require.NoError(t, err)
		state = next
	}
	require.True(t, e.IsSink(state, ctx))
	require.Equal(t, 4, state.(pos).col, "rightmost column holds the deepest treasure")
}

func TestStochasticStayProbCanHoldPositionInPlace(t *testing.T) {
	cfg := Classic()
	cfg.StayProb = 1.0 // always stays, deterministic test
	e := New(cfg)
	rng := rand.New(rand.NewSource(1))
	start := e.InitialState()
	next, err := e.SampleTransition(start, down, rng, nil)
	require.NoError(t, err)
	require.Equal(t, start, next)
}

func TestRewardAwardsTreasureOnlyOnSinkEntry(t *testing.T) {
	e := New(Classic())
	reward, err := e.MOReward(pos{row: 0, col: 0}, down, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1, -1}, reward)

	reward, err = e.MOReward(pos{row: 0, col: 0}, right, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{0, -1}, reward)
}

func TestBoundsMatchConfiguredExtremes(t *testing.T) {
	e := New(Classic())
	min, max := e.Bounds()
	require.Equal(t, 0.0, min[0])
	require.Less(t, min[1], 0.0)
	require.Equal(t, 8.0, max[0])
	require.Equal(t, 0.0, max[1])
}
