package rare

import (
	"gonum.org/v1/gonum/stat"

	"github.com/grailbio/scrna/expr"
)

// geneSimilarity computes the symmetric gene-gene Pearson correlation matrix
// over the candidate matrix columns.  With repeated set, the rows of the
// correlation matrix are correlated a second time; for very sparse expression
// data this emphasizes genes whose overall correlation profiles agree rather
// than genes that merely co-occur in a handful of cells.
func geneSimilarity(candidates *expr.Matrix, repeated bool) [][]float64 {
	nGenes := candidates.NumGenes()
	columns := make([][]float64, nGenes)
	for j := 0; j < nGenes; j++ {
		col := make([]float64, candidates.NumRows())
		for i := range col {
			col[i] = candidates.At(i, j)
		}
		columns[j] = col
	}

	similarity := correlate(columns)
	if repeated {
		similarity = correlate(similarity)
	}
	return similarity
}

// correlate returns the pairwise Pearson correlations between the given
// vectors.  Constant vectors correlate as zero with everything (instead of
// NaN), and every vector self-correlates as 1.
func correlate(vectors [][]float64) [][]float64 {
	n := len(vectors)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		out[i][i] = 1
	}
	variances := make([]float64, n)
	for i, v := range vectors {
		variances[i] = stat.Variance(v, nil)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var c float64
			if variances[i] > 0 && variances[j] > 0 {
				c = stat.Correlation(vectors[i], vectors[j], nil)
			}
			out[i][j] = c
			out[j][i] = c
		}
	}
	return out
}
