package rare

import (
	"sort"

	"github.com/grailbio/scrna/cluster"
)

// identifyModules walks the linkage tree in merge order, greedily combining
// clusters into candidate modules.  Every candidate gene starts as its own
// singleton cluster keyed by its leaf id.  A merge is accepted only if the
// mean pairwise similarity over the union of both sides (self-similarity
// excluded) reaches minCorrelation; the union then replaces both sides under
// the merge-node id.  A rejected merge leaves both sides in place, so
// clusters that never participate in an accepted merge survive as
// independent candidates.  A merge whose side was already consumed by an
// earlier accepted merge is skipped.
//
// The returned gene-index lists (into the candidate axis) are in ascending
// node-id order, which makes the discovery order deterministic.
func identifyModules(merges []cluster.Merge, similarity [][]float64, minCorrelation float64) [][]int {
	nLeaves := len(similarity)
	clusters := make(map[int][]int, nLeaves)
	for i := 0; i < nLeaves; i++ {
		clusters[i] = []int{i}
	}

	for t, merge := range merges {
		left, leftOK := clusters[merge.Left]
		right, rightOK := clusters[merge.Right]
		if !leftOK || !rightOK {
			continue
		}

		union := make([]int, 0, len(left)+len(right))
		union = append(union, left...)
		union = append(union, right...)
		sort.Ints(union)

		if meanPairSimilarity(similarity, union) < minCorrelation {
			continue
		}

		delete(clusters, merge.Left)
		delete(clusters, merge.Right)
		clusters[nLeaves+t] = union
	}

	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([][]int, len(ids))
	for i, id := range ids {
		out[i] = clusters[id]
	}
	return out
}

// meanPairSimilarity returns the mean similarity over all ordered pairs of
// distinct members, i.e. the off-diagonal mean of the members x members
// submatrix.
func meanPairSimilarity(similarity [][]float64, members []int) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	for _, i := range members {
		for _, j := range members {
			if i != j {
				sum += similarity[i][j]
			}
		}
	}
	n := len(members)
	return sum / float64(n*(n-1))
}
