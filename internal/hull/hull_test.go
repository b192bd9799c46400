package hull

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoveDominatedDropsStrictlyWorsePoint(t *testing.T) {
	s := NewStore[string](2)
	s.Add([]float64{3, 1}, "a")
	s.Add([]float64{1, 1}, "b")
	s.Add([]float64{2, 2}, "c")
	kept := removeDominated(s.entries)
	require.Len(t, kept, 2)
	for _, e := range kept {
		require.NotEqual(t, "b", e.tag)
	}
}

func TestPruneKeepsExtremePointsOfATriangle(t *testing.T) {
	s := NewStore[string](2)
	s.Add([]float64{1, 0}, "a")
	s.Add([]float64{0, 1}, "b")
	s.Add([]float64{0.4, 0.4}, "interior") // strictly below the segment joining the two extremes
	require.NoError(t, s.Prune(1e-7))
	require.Len(t, s.Points(), 2)
}

func TestPruneDropsMidpointThatOnlyTiesTheExtremes(t *testing.T) {
	s := NewStore[string](2)
	s.Add([]float64{1, 0}, "a")
	s.Add([]float64{0.5, 0.5}, "b")
	s.Add([]float64{0, 1}, "c")
	require.NoError(t, s.Prune(1e-7))
	require.Len(t, s.Points(), 2, "(0.5,0.5) at best ties the extremes at w=(0.5,0.5), so its LP optimum is 0 and it is pruned")
}

func TestQueryReturnsScalarisedArgmaxAndItsTag(t *testing.T) {
	s := NewStore[string](2)
	s.Add([]float64{1, 0}, "a")
	s.Add([]float64{0, 1}, "b")
	best, tag, score, ok := s.Query([]float64{0.9, 0.1})
	require.True(t, ok)
	require.Equal(t, []float64{1, 0}, best)
	require.Equal(t, "a", tag)
	require.InDelta(t, 0.9, score, 1e-9)
}

func TestUnionPruneMergesAndPrunes(t *testing.T) {
	a := NewStore[string](2)
	a.Add([]float64{1, 0}, "a")
	b := NewStore[string](2)
	b.Add([]float64{0, 1}, "b")
	b.Add([]float64{0.2, 0.2}, "interior")
	merged, err := UnionPrune(1e-7, a, b)
	require.NoError(t, err)
	require.Len(t, merged.Points(), 2)
}

func TestUnionPrunePreservesTagOfSurvivor(t *testing.T) {
	a := NewStore[string](2)
	a.Add([]float64{1, 0}, "action-a")
	b := NewStore[string](2)
	b.Add([]float64{0, 1}, "action-b")
	merged, err := UnionPrune(1e-7, a, b)
	require.NoError(t, err)
	_, tag, _, ok := merged.Query([]float64{1, 0})
	require.True(t, ok)
	require.Equal(t, "action-a", tag)
}
