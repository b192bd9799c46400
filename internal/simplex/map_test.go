package simplex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMapSeedsSimplexCorners(t *testing.T) {
	m := NewMap(3, BarycentricVariant{}, 5, 0.1, 4)
	require.Equal(t, 3, m.NumVertices())
	require.Len(t, m.Root().Corners, 3)
}

func TestLocateFindsWeightWithinRootSimplex(t *testing.T) {
	m := NewMap(3, BarycentricVariant{}, 5, 0.1, 4)
	leaf := m.locate([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	require.Same(t, m.root, leaf)
}

func TestBackupUpdatesClosestVertexIncrementally(t *testing.T) {
	m := NewMap(2, BinaryVariant{}, 1000, 10, 4) // thresholds unreachable: isolate the mean update
	m.Backup([]float64{1, 0}, []float64{1, 0})
	m.Backup([]float64{1, 0}, []float64{3, 0})
	idx := m.ClosestVertex([]float64{1, 0})
	v := m.Vertex(idx)
	require.InDelta(t, 2.0, v.Value[0], 1e-9)
	require.Equal(t, 2, v.Visits)
}

func TestBarycentricSubdivisionAddsCentroidAndDimChildren(t *testing.T) {
	m := NewMap(3, BarycentricVariant{}, 1, 0.0, 4)
	m.Backup([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, []float64{1, 0, 0})
	require.Equal(t, 4, m.NumVertices(), "centroid NGV should be added")
	require.Len(t, m.root.Children, 3)
	for _, child := range m.root.Children {
		require.Len(t, child.Corners, 3)
		require.Contains(t, child.Corners, 3) // the new centroid vertex index
	}
}

func TestBinarySubdivisionProducesTwoChildrenSharingMidpoint(t *testing.T) {
	m := NewMap(2, BinaryVariant{}, 1, 0.0, 4)
	m.Backup([]float64{0.5, 0.5}, []float64{1, 0})
	require.Equal(t, 3, m.NumVertices())
	require.Len(t, m.root.Children, 2)
	for _, child := range m.root.Children {
		require.Contains(t, child.Corners, 2) // the midpoint vertex index
		require.Equal(t, m.root.Depth+1, child.Depth)
	}
}

func TestNewMapLinksRootCornersAsMutualNeighbors(t *testing.T) {
	m := NewMap(3, BarycentricVariant{}, 5, 0.1, 4)
	for _, v := range m.vertices {
		require.Len(t, v.Neighbors, 2, "each of 3 root corners neighbors the other 2")
	}
}

func TestPushOverwritesOnlyWhenNeighborWouldImprove(t *testing.T) {
	m := NewMap(2, BinaryVariant{}, 1000, 10, 4)
	// NewMap already links the 2 root corners as mutual neighbors.
	m.vertices[1].Value = []float64{0, 0}

	m.vertices[0].Value = []float64{5, 0} // scalarised at neighbor's weight (0,1): 0, no improvement
	m.push(0)
	require.Equal(t, []float64{0.0, 0.0}, m.vertices[1].Value)

	m.vertices[0].Value = []float64{0, 5} // scalarised at neighbor's weight (0,1): 5, improves 0
	m.push(0)
	require.Equal(t, []float64{0.0, 5.0}, m.vertices[1].Value)
}

func TestMaybeSubdivideRespectsMaxDepth(t *testing.T) {
	m := NewMap(2, BinaryVariant{}, 1, 0.0, 0)
	m.Backup([]float64{0.5, 0.5}, []float64{1, 0})
	require.Equal(t, 2, m.NumVertices(), "max depth 0 must prevent any subdivision")
	require.True(t, m.root.isLeaf())
}

func TestLInfSpreadAcrossCorners(t *testing.T) {
	spread := lInfSpread([][]float64{{0, 0}, {1, 0.2}, {0.5, -0.3}})
	require.InDelta(t, 1.0, spread, 1e-9)
}
