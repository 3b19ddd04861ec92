package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDist(t *testing.T) {
	rows := [][]float64{
		{0, 0},
		{3, 4},
		{0, 1},
	}
	dist := PDist(rows)
	require.Len(t, dist, 3)
	assert.InDelta(t, 5, dist[0], 1e-12)             // (0, 1)
	assert.InDelta(t, 1, dist[1], 1e-12)             // (0, 2)
	assert.InDelta(t, math.Sqrt(18), dist[2], 1e-12) // (1, 2)
}

func TestLinkageTwoTightPairs(t *testing.T) {
	// Two tight pairs far apart: the pairs merge first, then each other.
	// The second gap is strictly wider than the first (also after floating
	// point rounding), so pair (0, 1) always merges first.
	rows := [][]float64{{0}, {0.1}, {10}, {10.2}}
	for _, method := range []Method{Ward, Average, Complete} {
		merges, err := Linkage(PDist(rows), len(rows), method)
		require.NoError(t, err)
		require.Len(t, merges, 3)

		assert.Equal(t, 0, merges[0].Left, "method %v", method)
		assert.Equal(t, 1, merges[0].Right, "method %v", method)
		assert.Equal(t, 2, merges[0].Size, "method %v", method)

		assert.Equal(t, 2, merges[1].Left, "method %v", method)
		assert.Equal(t, 3, merges[1].Right, "method %v", method)

		// The final merge combines the two pair clusters (node ids 4 and 5).
		assert.Equal(t, 4, merges[2].Left, "method %v", method)
		assert.Equal(t, 5, merges[2].Right, "method %v", method)
		assert.Equal(t, 4, merges[2].Size, "method %v", method)
	}
}

func TestLinkageAverageDistance(t *testing.T) {
	rows := [][]float64{{0}, {0.1}, {10}, {10.2}}
	merges, err := Linkage(PDist(rows), len(rows), Average)
	require.NoError(t, err)
	// UPGMA: the final distance is the mean of the four cross distances
	// (10, 10.2, 9.9, 10.1).
	assert.InDelta(t, 10.05, merges[2].Distance, 1e-9)
}

func TestLinkageDeterministic(t *testing.T) {
	rows := [][]float64{{0}, {1}, {2}, {3}, {4}}
	first, err := Linkage(PDist(rows), len(rows), Ward)
	require.NoError(t, err)
	second, err := Linkage(PDist(rows), len(rows), Ward)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLinkageBadInput(t *testing.T) {
	_, err := Linkage([]float64{1, 2}, 3, Ward)
	assert.Error(t, err)
}

func TestParseMethod(t *testing.T) {
	for _, want := range []Method{Ward, Average, Complete} {
		got, err := ParseMethod(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMethod("single")
	assert.Error(t, err)
}
