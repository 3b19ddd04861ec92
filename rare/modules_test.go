package rare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/scrna/cluster"
)

// similarity matrix where genes {0,1} agree, genes {2,3} agree, and the two
// groups disagree.
func blockSimilarity() [][]float64 {
	return [][]float64{
		{1, 0.9, -0.2, -0.2},
		{0.9, 1, -0.2, -0.2},
		{-0.2, -0.2, 1, 0.9},
		{-0.2, -0.2, 0.9, 1},
	}
}

func TestIdentifyModulesRejectedMergeKeepsSides(t *testing.T) {
	merges := []cluster.Merge{
		{Left: 0, Right: 1}, // node 4: accepted
		{Left: 2, Right: 3}, // node 5: accepted
		{Left: 4, Right: 5}, // node 6: rejected, mean similarity too low
	}
	clusters := identifyModules(merges, blockSimilarity(), 0.5)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, clusters)
}

func TestIdentifyModulesConsumedSideSkipped(t *testing.T) {
	merges := []cluster.Merge{
		{Left: 0, Right: 1}, // node 4: accepted, consumes 0 and 1
		{Left: 1, Right: 2}, // node 5: side 1 is gone, skipped
	}
	clusters := identifyModules(merges, blockSimilarity(), 0.5)
	assert.Equal(t, [][]int{{2}, {3}, {0, 1}}, clusters)
}

func TestIdentifyModulesAllAccepted(t *testing.T) {
	similarity := [][]float64{
		{1, 0.9, 0.9},
		{0.9, 1, 0.9},
		{0.9, 0.9, 1},
	}
	merges := []cluster.Merge{
		{Left: 0, Right: 1}, // node 3
		{Left: 2, Right: 3}, // node 4
	}
	clusters := identifyModules(merges, similarity, 0.5)
	assert.Equal(t, [][]int{{0, 1, 2}}, clusters)
}

func TestMeanPairSimilarityExcludesDiagonal(t *testing.T) {
	// The self-similarity of 1 must not inflate the mean.
	similarity := [][]float64{
		{1, 0.2},
		{0.2, 1},
	}
	assert.InDelta(t, 0.2, meanPairSimilarity(similarity, []int{0, 1}), 1e-12)
}
