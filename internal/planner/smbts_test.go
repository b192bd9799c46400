package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrowlake/mozt/internal/envs/debugmo"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/simplex"
)

// TestSMBTSRootSimplexMapSubdividesWithinBoundsOnAFourObjectiveEnvironment
// is spec.md §8 scenario 4: on a 4-objective environment, after enough
// SM-BTS trials the root's simplex map has subdivided at least once (its
// vertex count exceeds the dim initial corners) and at most 2^max_depth-1
// times, and every NGV on the root carries a value vector of length 4.
func TestSMBTSRootSimplexMapSubdividesWithinBoundsOnAFourObjectiveEnvironment(t *testing.T) {
	environment := debugmo.New(debugmo.Default()) // Dim: 4

	const maxDepth = 40
	alg := &smbtsAlgorithm{
		dim: environment.RewardDim(),
		sm: smKnobs{
			lInfThresh:       0.05,
			maxDepth:         maxDepth,
			splitVisitThresh: 1,
			variant:          "barycentric",
		},
		variant: simplex.BarycentricVariant{},
		temp:    1.0,
		epsilon: 0.5,
	}
	r, err := pool.NewRunner[smPayload](environment, alg, 10, 1, 3)
	require.NoError(t, err)
	require.NoError(t, r.RunTrials(context.Background(), 10000))

	root := r.Root()
	root.Lock()
	m := root.Payload.Map
	root.Unlock()

	numVertices := m.NumVertices()
	require.Greater(t, numVertices, environment.RewardDim(), "root map should have subdivided at least once")

	maxVertices := environment.RewardDim() + (1<<maxDepth - 1)
	require.LessOrEqual(t, numVertices, maxVertices)

	for i := 0; i < numVertices; i++ {
		require.Len(t, m.Vertex(i).Value, 4, "every root NGV must carry a 4-dimensional value vector")
	}
}
